package handler

import (
	"github.com/gin-gonic/gin"

	"tickmill/internal/domain"
	"tickmill/internal/service"
)

// SaveHandler serves the user-correction endpoint.
type SaveHandler struct {
	uploads service.UploadService
}

// NewSaveHandler creates a new SaveHandler.
func NewSaveHandler(uploads service.UploadService) *SaveHandler {
	return &SaveHandler{uploads: uploads}
}

// saveRequest is the body of POST /save.
type saveRequest struct {
	File string        `json:"file" binding:"required"`
	Data domain.Record `json:"data" binding:"required"`
}

// Save handles POST /save: it replaces the persisted record for a completed
// upload and re-renders its tables.
func (h *SaveHandler) Save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, 400, "INVALID_BODY", "body must include file and data")
		return
	}

	if err := h.uploads.SaveCorrection(c.Request.Context(), req.File, req.Data); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"saved": true})
}
