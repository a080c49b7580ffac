package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"tickmill/internal/archive"
	"tickmill/internal/config"
	"tickmill/internal/extract"
	"tickmill/internal/handler"
	"tickmill/internal/imgproc"
	"tickmill/internal/inference"
	"tickmill/internal/inference/bedrock"
	"tickmill/internal/inference/claude"
	"tickmill/internal/inference/gemini"
	"tickmill/internal/port"
	"tickmill/internal/router"
	"tickmill/internal/service"
	"tickmill/internal/status"
	s3storage "tickmill/internal/storage/s3"
)

func init() {
	inference.RegisterProvider("bedrock", func(cfg *config.InvokerConfig) (port.ModelInvoker, error) {
		inv, err := bedrock.NewInvoker(cfg)
		if err != nil {
			return nil, err
		}
		return inv, nil
	})
	inference.RegisterProvider("claude", func(cfg *config.InvokerConfig) (port.ModelInvoker, error) {
		return claude.NewInvoker(cfg), nil
	})
	inference.RegisterProvider("gemini", func(cfg *config.InvokerConfig) (port.ModelInvoker, error) {
		return gemini.NewInvoker(cfg), nil
	})
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize the model invoker, with fallback when a secondary is configured
	invoker, err := buildInvoker(&cfg.Inference)
	if err != nil {
		return fmt.Errorf("failed to initialize model invoker: %w", err)
	}

	// Initialize pipeline stages
	normalizer := imgproc.NewNormalizer(&cfg.Image)
	vendorRouter := extract.NewRouter(invoker)
	extractor := extract.NewExtractor(invoker, &cfg.Inference.Primary)
	archivist := archive.NewArchivist(s3Client, &cfg.S3)
	tracker := status.NewTracker(s3Client, &cfg.S3)

	// Initialize services
	pipelineSvc := service.NewPipelineService(s3Client, normalizer, vendorRouter, extractor, archivist, tracker, &cfg.S3)
	uploadSvc := service.NewUploadService(s3Client, tracker, &cfg.S3)

	// Initialize handlers
	uploadH := handler.NewUploadHandler(uploadSvc)
	statusH := handler.NewStatusHandler(uploadSvc)
	saveH := handler.NewSaveHandler(uploadSvc)
	healthH := handler.NewHealthHandler(s3Client, &cfg.S3)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the ingest watcher when enabled
	if cfg.Watcher.Enabled {
		watcher := service.NewIngestWatcher(s3Client, tracker, pipelineSvc, cfg.S3.InputBucket, service.IngestWatcherConfig{
			PollInterval: time.Duration(cfg.Watcher.PollIntervalSecs) * time.Second,
			Concurrency:  cfg.Watcher.Concurrency,
		})
		go watcher.Start(ctx)
	}

	// Setup router
	r := router.Setup(cfg.CORS.AllowedOrigins, uploadH, statusH, saveH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// buildInvoker constructs the primary invoker, wrapped in a FallbackInvoker
// together with the secondary when one is configured.
func buildInvoker(cfg *config.InferenceConfig) (port.ModelInvoker, error) {
	primary, err := inference.NewInvoker(&cfg.Primary)
	if err != nil {
		return nil, err
	}

	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}

	secondary, err := inference.NewInvoker(secondaryCfg)
	if err != nil {
		return nil, err
	}

	return inference.NewFallbackInvoker(
		[]port.ModelInvoker{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}
