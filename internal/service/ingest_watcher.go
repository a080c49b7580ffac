package service

import (
	"context"
	"log"
	"sync"
	"time"

	"tickmill/internal/domain"
	"tickmill/internal/port"
	"tickmill/internal/status"
)

// IngestWatcherConfig holds settings for the ingest watcher.
type IngestWatcherConfig struct {
	PollInterval time.Duration
	Concurrency  int
}

// IngestWatcher polls the input bucket for freshly uploaded objects and
// dispatches a pipeline run per object. It is the trigger realization for
// deployments without bucket event notifications.
type IngestWatcher struct {
	storage     port.ObjectStorage
	tracker     *status.Tracker
	pipeline    PipelineService
	inputBucket string
	cfg         IngestWatcherConfig

	wg       sync.WaitGroup
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewIngestWatcher creates a new IngestWatcher.
func NewIngestWatcher(storage port.ObjectStorage, tracker *status.Tracker, pipeline PipelineService, inputBucket string, cfg IngestWatcherConfig) *IngestWatcher {
	return &IngestWatcher{
		storage:     storage,
		tracker:     tracker,
		pipeline:    pipeline,
		inputBucket: inputBucket,
		cfg:         cfg,
		inflight:    make(map[string]struct{}),
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight pipeline runs have finished.
func (w *IngestWatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("ingestWatcher: started (bucket=%s, poll=%s, concurrency=%d)",
		w.inputBucket, w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("ingestWatcher: shutting down, waiting for in-flight runs...")
			w.wg.Wait()
			log.Printf("ingestWatcher: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			keys, err := w.claimNew(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("ingestWatcher: list error: %v", err)
				continue
			}

			for _, key := range keys {
				key := key

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release
					defer w.release(key)

					// Use a fresh context independent of the poll context
					// so in-flight runs complete even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("ingestWatcher: dispatching %s", key)
					_ = w.pipeline.Process(runCtx, domain.TriggerEvent{Bucket: w.inputBucket, Key: key})
				}()
			}
		}
	}
}

// claimNew lists the input bucket and returns up to max keys that have no
// status marker and are not already dispatched by this process. Marker
// absence is the only cross-process signal; two watcher instances can still
// race on the same key, which the idempotent marker writes absorb.
func (w *IngestWatcher) claimNew(ctx context.Context, max int) ([]string, error) {
	objects, err := w.storage.List(ctx, w.inputBucket, "", 0)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, obj := range objects {
		if len(keys) >= max {
			break
		}
		if obj.Size == 0 {
			continue // folder placeholder
		}
		if !w.claim(obj.Key) {
			continue
		}
		seen, err := w.tracker.Seen(ctx, obj.Key)
		if err != nil || seen {
			w.release(obj.Key)
			if err != nil {
				log.Printf("ingestWatcher: marker probe failed for %s: %v", obj.Key, err)
			}
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (w *IngestWatcher) claim(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inflight[key]; ok {
		return false
	}
	w.inflight[key] = struct{}{}
	return true
}

func (w *IngestWatcher) release(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inflight, key)
}
