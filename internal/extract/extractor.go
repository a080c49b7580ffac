package extract

import (
	"context"
	"fmt"

	"tickmill/internal/config"
	"tickmill/internal/domain"
	"tickmill/internal/port"
)

// Extractor runs the schema-constrained field extraction call. Unlike the
// Router, its failures are fatal to the run: there is no fallback schema.
type Extractor struct {
	invoker     port.ModelInvoker
	maxTokens   int
	temperature float64
}

// NewExtractor creates an Extractor using the invoker config's decoding settings.
func NewExtractor(invoker port.ModelInvoker, cfg *config.InvokerConfig) *Extractor {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Extractor{
		invoker:     invoker,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// Extract runs the extraction call against the (possibly re-rotated) image,
// using hint-selected layout guidance. It returns the model's raw completion
// text; parsing it is the caller's concern.
func (e *Extractor) Extract(ctx context.Context, img *domain.NormalizedImage, hint domain.VendorHint) (string, error) {
	completion, err := e.invoker.Invoke(ctx, port.InvokeInput{
		Prompt:      BuildExtractionPrompt(hint),
		ImageBytes:  img.Bytes,
		ImageFormat: img.Format,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("extraction inference: %w", err)
	}
	return completion, nil
}
