package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
	"github.com/Abdul-Halim01/mini-RAG/internal/pkg/httputils"
	"github.com/Abdul-Halim01/mini-RAG/internal/rag/biz"
)

// NLPHandler handles vector index and question answering requests.
type NLPHandler struct {
	nlp biz.NLPService
}

// NewNLPHandler creates a new NLPHandler.
func NewNLPHandler(nlp biz.NLPService) *NLPHandler {
	return &NLPHandler{nlp: nlp}
}

// PushIndexRequest is the body of an index push request.
type PushIndexRequest struct {
	DoReset bool `json:"do_reset"`
}

// PushIndex handles POST /api/v1/nlp/index/push/:project_id.
func (h *NLPHandler) PushIndex(c *gin.Context) {
	projectID := c.Param("project_id")

	var req PushIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputils.WriteBadRequest(c, model.SignalInsertIntoVectorDBFailed)
		return
	}

	result, err := h.nlp.PushIndex(c.Request.Context(), projectID, req.DoReset)
	if err != nil {
		logger.Errorw("index push failed", "project_id", projectID, "error", err.Error())
		httputils.WriteInternalError(c, model.SignalInsertIntoVectorDBFailed)
		return
	}

	httputils.WriteSuccess(c, model.SignalIndexIntoVectorDBSuccess, result)
}

// IndexInfo handles GET /api/v1/nlp/index/info/:project_id.
func (h *NLPHandler) IndexInfo(c *gin.Context) {
	projectID := c.Param("project_id")

	info, err := h.nlp.IndexInfo(c.Request.Context(), projectID)
	if err != nil {
		logger.Errorw("index info failed", "project_id", projectID, "error", err.Error())
		httputils.WriteInternalError(c, model.SignalCollectionInfoFailed)
		return
	}

	httputils.WriteSuccess(c, model.SignalCollectionRetrieved, info)
}

// SearchRequest is the body of a search or answer request.
type SearchRequest struct {
	Text  string `json:"text" binding:"required"`
	Limit int    `json:"limit"`
}

// Search handles POST /api/v1/nlp/index/search/:project_id.
func (h *NLPHandler) Search(c *gin.Context) {
	projectID := c.Param("project_id")

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteBadRequest(c, model.SignalSearchVectorDBFailed)
		return
	}

	documents, err := h.nlp.Search(c.Request.Context(), projectID, req.Text, req.Limit)
	if err != nil {
		logger.Errorw("vector search failed", "project_id", projectID, "error", err.Error())
		httputils.WriteInternalError(c, model.SignalSearchVectorDBFailed)
		return
	}
	if len(documents) == 0 {
		httputils.WriteNotFound(c, model.SignalSearchVectorDBFailed)
		return
	}

	httputils.WriteSuccess(c, model.SignalSearchVectorDBSuccess, documents)
}

// Answer handles POST /api/v1/nlp/index/answer/:project_id.
func (h *NLPHandler) Answer(c *gin.Context) {
	projectID := c.Param("project_id")

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteBadRequest(c, model.SignalAnswerRAGFailed)
		return
	}

	answer, err := h.nlp.Answer(c.Request.Context(), projectID, req.Text, req.Limit)
	if err != nil {
		logger.Errorw("answer generation failed", "project_id", projectID, "error", err.Error())
		httputils.WriteInternalError(c, model.SignalAnswerRAGFailed)
		return
	}
	if answer == nil {
		httputils.WriteNotFound(c, model.SignalAnswerRAGFailed)
		return
	}

	httputils.WriteSuccess(c, model.SignalAnswerRAGSuccess, answer)
}

// Stats handles GET /api/v1/nlp/index/stats.
func (h *NLPHandler) Stats(c *gin.Context) {
	stats, err := h.nlp.Stats(c.Request.Context())
	if err != nil {
		httputils.WriteInternalError(c, model.SignalSearchVectorDBFailed)
		return
	}

	httputils.WriteSuccess(c, model.SignalCollectionRetrieved, stats)
}
