package inference

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tickmill/internal/port"
)

// circuitState tracks rate-limit backoff for a single invoker.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackInvoker tries invokers in order, skipping those with open circuits.
// It implements port.ModelInvoker.
type FallbackInvoker struct {
	invokers []port.ModelInvoker
	circuits []*circuitState
	names    []string
}

// NewFallbackInvoker creates a FallbackInvoker from an ordered list of invokers and their names.
func NewFallbackInvoker(invokers []port.ModelInvoker, names []string) *FallbackInvoker {
	circuits := make([]*circuitState, len(invokers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackInvoker{
		invokers: invokers,
		circuits: circuits,
		names:    names,
	}
}

func (f *FallbackInvoker) Invoke(ctx context.Context, input port.InvokeInput) (string, error) {
	now := time.Now()
	var lastErr error
	var earliestReset time.Time

	for i, inv := range f.invokers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("inference.FallbackInvoker: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := inv.Invoke(ctx, input)
		if err == nil {
			return out, nil
		}

		log.Printf("inference.FallbackInvoker: %s failed: %v", f.names[i], err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		}
	}

	if lastErr == nil {
		// All invokers were skipped due to open circuits
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return "", NewRateLimitError("all", fmt.Errorf("all inference providers rate limited"), int(retryAfter.Seconds()))
	}

	return "", fmt.Errorf("all inference providers failed: %w", lastErr)
}
