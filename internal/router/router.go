package router

import (
	"github.com/gin-gonic/gin"

	"tickmill/internal/handler"
	"tickmill/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	corsOrigins []string,
	uploadH *handler.UploadHandler,
	statusH *handler.StatusHandler,
	saveH *handler.SaveHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/upload-url", uploadH.UploadURL)
	r.GET("/status", statusH.Status)
	r.POST("/save", saveH.Save)

	return r
}
