// Package store 提供 RAG 服务的数据存储层。
//
// MongoDB 保存项目、资产与文档块记录，Milvus 保存向量集合。
// 业务层只依赖这里定义的接口。
package store
