// Package httputils provides the unified API response envelope.
package httputils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdul-Halim01/mini-RAG/internal/model"
)

// Response is the unified API response structure.
// All endpoints use this format for consistency.
type Response struct {
	// Code is the business code (0 = success)
	Code int `json:"code"`

	// Message is a machine-readable signal describing the outcome
	Message string `json:"message"`

	// Data contains the response payload (nil for errors)
	Data interface{} `json:"data,omitempty"`
}

// WriteSuccess writes a 200 response carrying the given signal and payload.
func WriteSuccess(c *gin.Context, signal model.ResponseSignal, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: string(signal),
		Data:    data,
	})
}

// WriteError writes an error response. The business code mirrors the HTTP
// status so clients can branch without parsing the message.
func WriteError(c *gin.Context, status int, signal model.ResponseSignal) {
	c.JSON(status, Response{
		Code:    status,
		Message: string(signal),
	})
}

// WriteBadRequest writes a 400 response for malformed or rejected input.
func WriteBadRequest(c *gin.Context, signal model.ResponseSignal) {
	WriteError(c, http.StatusBadRequest, signal)
}

// WriteNotFound writes a 404 response.
func WriteNotFound(c *gin.Context, signal model.ResponseSignal) {
	WriteError(c, http.StatusNotFound, signal)
}

// WriteInternalError writes a 500 response.
func WriteInternalError(c *gin.Context, signal model.ResponseSignal) {
	WriteError(c, http.StatusInternalServerError, signal)
}
