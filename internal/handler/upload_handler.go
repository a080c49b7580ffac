package handler

import (
	"github.com/gin-gonic/gin"

	"tickmill/internal/domain"
	"tickmill/internal/service"
)

// UploadHandler serves presigned upload URLs.
type UploadHandler struct {
	uploads service.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// UploadURL handles GET /upload-url?file=<name>. The returned URL allows one
// direct PUT into the input bucket and expires quickly; callers re-request
// on expiry.
func (h *UploadHandler) UploadURL(c *gin.Context) {
	filename := c.Query("file")
	if filename == "" {
		HandleError(c, domain.ErrMissingFileParam)
		return
	}

	url, err := h.uploads.PresignUpload(c.Request.Context(), filename)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"upload_url": url,
		"file_key":   filename,
	})
}
