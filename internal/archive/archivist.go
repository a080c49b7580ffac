package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"tickmill/internal/config"
	"tickmill/internal/domain"
	"tickmill/internal/port"
)

// Archivist persists the normalized image under a deterministic key derived
// from the extracted fields. The key becomes the canonical base referenced
// by the persisted record, the rendered tables, and the status marker.
type Archivist struct {
	storage port.ObjectStorage
	bucket  string
	now     func() time.Time
}

// NewArchivist creates an Archivist writing to the archive bucket.
func NewArchivist(storage port.ObjectStorage, cfg *config.S3Config) *Archivist {
	return &Archivist{
		storage: storage,
		bucket:  cfg.ArchiveBucket,
		now:     time.Now,
	}
}

// BuildPath computes the archive key YYYY/MM/{date}_{vendor}_{ticket}.{ext}
// as a pure function of the record, the original key's extension, and a
// fallback date. An unparseable transaction_date embeds the fallback date in
// the path; the model's raw date survives only in the persisted record.
func BuildPath(rec domain.Record, originalKey string, fallback time.Time) string {
	dateStr := rec.Field("transaction_date").Value
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		dateStr = fallback.Format("2006-01-02")
	}

	vendor := strings.ReplaceAll(rec.Field("vendor_name").Value, " ", "")
	if vendor == "" {
		vendor = "UnknownVendor"
	}
	ticket := strings.ReplaceAll(rec.Field("ticket_number").Value, " ", "")
	if ticket == "" {
		ticket = "NoTicket"
	}

	ext := strings.TrimPrefix(path.Ext(originalKey), ".")
	if ext == "" {
		ext = "jpg"
	}

	// dateStr is YYYY-MM-DD by construction.
	return fmt.Sprintf("%s/%s/%s_%s_%s.%s", dateStr[:4], dateStr[5:7], dateStr, vendor, ticket, ext)
}

// Archive writes the image bytes under the computed path and returns that
// path. Two tickets sharing vendor, date, and number collide; the write is
// last-wins, but the overwrite is logged rather than silent.
func (a *Archivist) Archive(ctx context.Context, rec domain.Record, originalKey string, img *domain.NormalizedImage) (string, error) {
	key := BuildPath(rec, originalKey, a.now())

	if exists, err := a.storage.Exists(ctx, a.bucket, key); err == nil && exists {
		log.Printf("archive.Archivist: overwriting existing archive object %s (vendor/date/ticket collision)", key)
	}

	contentType := domain.FormatFromExtension(path.Ext(originalKey)).ContentType()
	_, err := a.storage.Upload(ctx, port.UploadInput{
		Bucket:      a.bucket,
		Key:         key,
		Body:        bytes.NewReader(img.Bytes),
		ContentType: contentType,
		Size:        int64(len(img.Bytes)),
	})
	if err != nil {
		return "", fmt.Errorf("archiving image to %s: %w", key, err)
	}
	return key, nil
}
