// Package handler provides HTTP handlers for the RAG service.
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

// DataHandler handles file upload and processing requests.
type DataHandler struct {
	data biz.DataService
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(data biz.DataService) *DataHandler {
	return &DataHandler{data: data}
}

// Upload handles POST /api/v1/data/upload/:project_id.
// Expects a multipart form with a single "file" part.
func (h *DataHandler) Upload(c *gin.Context) {
	projectID := c.Param("project_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httputils.WriteBadRequest(c, model.SignalFileUploadFailed)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if signal, ok := h.data.ValidateFile(contentType, fileHeader.Size); !ok {
		httputils.WriteBadRequest(c, signal)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		httputils.WriteInternalError(c, model.SignalFileUploadFailed)
		return
	}
	defer func() { _ = src.Close() }()

	result, err := h.data.UploadFile(c.Request.Context(), projectID, fileHeader.Filename, contentType, fileHeader.Size, src)
	if err != nil {
		logger.Errorw("file upload failed", "project_id", projectID, "error", err.Error())
		httputils.WriteInternalError(c, model.SignalFileUploadFailed)
		return
	}

	httputils.WriteSuccess(c, model.SignalFileUploadSuccess, result)
}

// ProcessRequest is the body of a processing request.
type ProcessRequest struct {
	FileID      string `json:"file_id"`
	ChunkSize   int    `json:"chunk_size"`
	OverlapSize int    `json:"overlap_size"`
	DoReset     bool   `json:"do_reset"`
}

// Process handles POST /api/v1/data/process/:project_id.
func (h *DataHandler) Process(c *gin.Context) {
	projectID := c.Param("project_id")

	// 空请求体等价于全部使用默认值
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputils.WriteBadRequest(c, model.SignalProcessingFailed)
		return
	}

	if req.ChunkSize < 0 || req.OverlapSize < 0 || (req.ChunkSize > 0 && req.OverlapSize >= req.ChunkSize) {
		httputils.WriteBadRequest(c, model.SignalProcessingFailed)
		return
	}

	result, err := h.data.ProcessFiles(c.Request.Context(), projectID, req.FileID, req.ChunkSize, req.OverlapSize, req.DoReset)
	if err != nil {
		switch {
		case errors.Is(err, biz.ErrNoFiles):
			httputils.WriteNotFound(c, model.SignalNoFilesError)
		case errors.Is(err, biz.ErrFileNotFound):
			httputils.WriteNotFound(c, model.SignalFileIDError)
		case errors.Is(err, biz.ErrEmptyContent):
			httputils.WriteBadRequest(c, model.SignalProcessingFailed)
		default:
			logger.Errorw("file processing failed", "project_id", projectID, "error", err.Error())
			httputils.WriteInternalError(c, model.SignalProcessingFailed)
		}
		return
	}

	httputils.WriteSuccess(c, model.SignalProcessingSuccess, result)
}
