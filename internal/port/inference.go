package port

import (
	"context"

	"tickmill/internal/domain"
)

// InvokeInput carries one multimodal inference request: a prompt, the image
// it refers to, and decoding configuration.
type InvokeInput struct {
	Prompt      string
	ImageBytes  []byte
	ImageFormat domain.ImageFormat
	MaxTokens   int
	Temperature float64
}

// ModelInvoker abstracts the hosted inference endpoint. Implementations
// return the model's raw completion text; interpreting it is the caller's
// concern.
type ModelInvoker interface {
	Invoke(ctx context.Context, input InvokeInput) (string, error)
}
