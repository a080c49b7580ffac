package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tickmill/internal/config"
	"tickmill/internal/port"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	storage port.ObjectStorage
	cfg     *config.S3Config
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(storage port.ObjectStorage, cfg *config.S3Config) *HealthHandler {
	return &HealthHandler{storage: storage, cfg: cfg}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz; it verifies the archive bucket is reachable.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if _, err := h.storage.List(c.Request.Context(), h.cfg.ArchiveBucket, "", 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
