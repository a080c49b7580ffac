package handler

import (
	"github.com/gin-gonic/gin"

	"tickmill/internal/domain"
	"tickmill/internal/service"
)

// StatusHandler serves the completion-polling endpoint.
type StatusHandler struct {
	uploads service.UploadService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(uploads service.UploadService) *StatusHandler {
	return &StatusHandler{uploads: uploads}
}

// Status handles GET /status?file=<name>.
func (h *StatusHandler) Status(c *gin.Context) {
	filename := c.Query("file")
	if filename == "" {
		HandleError(c, domain.ErrMissingFileParam)
		return
	}

	view, err := h.uploads.Status(c.Request.Context(), filename)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}
