package inference

import (
	"fmt"

	"tickmill/internal/config"
	"tickmill/internal/port"
)

// InvokerFactory is a function that creates a ModelInvoker from an invoker config.
type InvokerFactory func(cfg *config.InvokerConfig) (port.ModelInvoker, error)

// registry of invoker factories, populated explicitly via RegisterProvider.
var providers = map[string]InvokerFactory{}

// RegisterProvider registers an invoker factory by name.
func RegisterProvider(name string, factory InvokerFactory) {
	providers[name] = factory
}

// NewInvoker creates a ModelInvoker from an invoker config using the registered factory.
func NewInvoker(cfg *config.InvokerConfig) (port.ModelInvoker, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown inference provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
