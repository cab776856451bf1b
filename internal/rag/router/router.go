// Package router provides RAG service routing.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/Abdul-Halim01/mini-RAG/internal/rag/handler"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/metrics"
)

// Register registers the RAG service routes.
func Register(engine *gin.Engine, dataHandler *handler.DataHandler, nlpHandler *handler.NLPHandler) {
	logger.Info("Registering RAG routes...")

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, metrics.GetRAGMetrics().Export("minirag", "rag"))
	})

	v1 := engine.Group("/api/v1")
	{
		data := v1.Group("/data")
		{
			data.POST("/upload/:project_id", dataHandler.Upload)
			data.POST("/process/:project_id", dataHandler.Process)
		}

		nlp := v1.Group("/nlp")
		{
			nlp.POST("/index/push/:project_id", nlpHandler.PushIndex)
			nlp.GET("/index/info/:project_id", nlpHandler.IndexInfo)
			nlp.POST("/index/search/:project_id", nlpHandler.Search)
			nlp.POST("/index/answer/:project_id", nlpHandler.Answer)
			nlp.GET("/index/stats", nlpHandler.Stats)
		}
	}

	logger.Info("HTTP routes registered")
}
