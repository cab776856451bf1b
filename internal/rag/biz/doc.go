// Package biz 提供 RAG 服务的业务逻辑层。
//
// 业务逻辑拆分为以下组件：
//   - DataService: 负责文件上传、校验与分块处理
//   - NLPService: 负责向量索引推送、相似度检索与答案生成
//   - QueryCache: 负责按项目缓存检索结果
package biz
