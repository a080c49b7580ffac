package status

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"tickmill/internal/config"
	"tickmill/internal/domain"
	"tickmill/internal/port"
)

// CompleteArtifacts names the outputs a finished run produced.
type CompleteArtifacts struct {
	CSVKey      string
	XLSXKey     string
	ImageKey    string
	JSONKey     string
	RenamedBase string
}

// Tracker owns the per-upload status marker, the sole channel between the
// asynchronous pipeline and a polling client. Markers are keyed by the
// original upload key, not the archival path, so a client that only knows
// the upload name can always resolve status.
type Tracker struct {
	storage       port.ObjectStorage
	bucket        string
	statusPrefix  string
	recordsPrefix string
}

// NewTracker creates a Tracker writing markers and records to the archive bucket.
func NewTracker(storage port.ObjectStorage, cfg *config.S3Config) *Tracker {
	return &Tracker{
		storage:       storage,
		bucket:        cfg.ArchiveBucket,
		statusPrefix:  cfg.StatusPrefix,
		recordsPrefix: cfg.RecordsPrefix,
	}
}

// MarkerKey returns the marker object key for an original upload key.
func (t *Tracker) MarkerKey(originalKey string) string {
	return t.statusPrefix + originalKey + ".json"
}

// RecordKey mirrors an archive key into the records prefix with a .json
// extension, keeping record and image co-located.
func (t *Tracker) RecordKey(archiveKey string) string {
	base := strings.TrimSuffix(archiveKey, path.Ext(archiveKey))
	return t.recordsPrefix + base + ".json"
}

// MarkProcessing writes the initial marker as the pipeline's first action,
// so a concurrent duplicate trigger or a pre-write crash is distinguishable
// from "not yet started".
func (t *Tracker) MarkProcessing(ctx context.Context, originalKey string) error {
	return t.put(ctx, originalKey, &domain.StatusMarker{
		Status:      domain.StatusProcessing,
		OriginalKey: originalKey,
	})
}

// MarkComplete persists the full record under the records prefix, then
// overwrites the marker with the terminal complete state. Both writes are
// idempotent overwrites.
func (t *Tracker) MarkComplete(ctx context.Context, originalKey string, artifacts CompleteArtifacts, rec domain.Record) error {
	recordBytes, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	_, err = t.storage.Upload(ctx, port.UploadInput{
		Bucket:      t.bucket,
		Key:         artifacts.JSONKey,
		Body:        bytes.NewReader(recordBytes),
		ContentType: "application/json",
		Size:        int64(len(recordBytes)),
	})
	if err != nil {
		return fmt.Errorf("persisting record to %s: %w", artifacts.JSONKey, err)
	}

	return t.put(ctx, originalKey, &domain.StatusMarker{
		Status:      domain.StatusComplete,
		OriginalKey: originalKey,
		CSVKey:      artifacts.CSVKey,
		XLSXKey:     artifacts.XLSXKey,
		ImageKey:    artifacts.ImageKey,
		JSONKey:     artifacts.JSONKey,
		RenamedBase: artifacts.RenamedBase,
	})
}

// MarkError writes the terminal error marker. It is best-effort by design:
// a failure here is logged and swallowed so the original pipeline failure,
// not a secondary I/O error, is what reaches the operator.
func (t *Tracker) MarkError(ctx context.Context, originalKey, message string) {
	err := t.put(ctx, originalKey, &domain.StatusMarker{
		Status:      domain.StatusError,
		OriginalKey: originalKey,
		Message:     message,
	})
	if err != nil {
		log.Printf("status.Tracker: failed to write error marker for %s: %v", originalKey, err)
	}
}

// Get reads the marker for an original upload key. Marker absence surfaces
// as domain.ErrNotFound; the polling surface maps that to "processing".
func (t *Tracker) Get(ctx context.Context, originalKey string) (*domain.StatusMarker, error) {
	data, err := t.storage.Download(ctx, t.bucket, t.MarkerKey(originalKey))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading status marker: %w", err)
	}
	var marker domain.StatusMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("decoding status marker: %w", err)
	}
	return &marker, nil
}

// Seen reports whether any marker exists for the upload key, without
// fetching it. The watcher uses this to skip already-dispatched objects.
func (t *Tracker) Seen(ctx context.Context, originalKey string) (bool, error) {
	return t.storage.Exists(ctx, t.bucket, t.MarkerKey(originalKey))
}

func (t *Tracker) put(ctx context.Context, originalKey string, marker *domain.StatusMarker) error {
	marker.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("marshaling status marker: %w", err)
	}
	_, err = t.storage.Upload(ctx, port.UploadInput{
		Bucket:      t.bucket,
		Key:         t.MarkerKey(originalKey),
		Body:        bytes.NewReader(data),
		ContentType: "application/json",
		Size:        int64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("writing status marker: %w", err)
	}
	return nil
}
