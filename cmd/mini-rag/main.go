// Package main is the entry point for the mini-RAG server.
//
//	@title						mini-RAG API
//	@version					1.0
//	@description				RAG 知识库服务 - 基于 MongoDB 元数据存储与 Milvus 向量数据库
//	@termsOfService				https://github.com/Abdul-Halim01/mini-RAG
//
//	@contact.name				mini-RAG Team
//	@contact.url				https://github.com/Abdul-Halim01/mini-RAG
//
//	@license.name				Apache 2.0
//	@license.url				http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host						localhost:8080
//	@BasePath					/api/v1
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/Abdul-Halim01/mini-RAG/cmd/mini-rag/app"
)

func main() {
	app.NewApp().Run()
}
