package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"tickmill/internal/config"
	"tickmill/internal/domain"
	"tickmill/internal/port"
	"tickmill/internal/status"
	"tickmill/internal/validate"
)

// allowedUploadExtensions are the image types the pipeline can normalize.
var allowedUploadExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

// StatusView is the polling client's view of one upload.
type StatusView struct {
	Status       domain.Status     `json:"status"`
	DownloadURLs map[string]string `json:"download_urls,omitempty"`
	Metadata     domain.Record     `json:"metadata,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// UploadService backs the upload/status/correction HTTP surface.
type UploadService interface {
	PresignUpload(ctx context.Context, filename string) (string, error)
	Status(ctx context.Context, filename string) (*StatusView, error)
	SaveCorrection(ctx context.Context, filename string, rec domain.Record) error
}

type uploadService struct {
	storage port.ObjectStorage
	tracker *status.Tracker
	cfg     *config.S3Config
}

// NewUploadService creates a new UploadService implementation.
func NewUploadService(storage port.ObjectStorage, tracker *status.Tracker, cfg *config.S3Config) UploadService {
	return &uploadService{
		storage: storage,
		tracker: tracker,
		cfg:     cfg,
	}
}

// PresignUpload issues a short-lived PUT URL for a direct-to-bucket upload.
func (s *uploadService) PresignUpload(ctx context.Context, filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !allowedUploadExtensions[ext] {
		return "", domain.ErrUnsupportedType
	}

	url, err := s.storage.PutPresignedURL(ctx, s.cfg.InputBucket, filename, s.cfg.UploadExpiry)
	if err != nil {
		return "", fmt.Errorf("presigning upload for %s: %w", filename, err)
	}
	return url, nil
}

// Status resolves the marker for an upload. With no marker yet, the input
// bucket decides: the object sitting there unclaimed reads as uploaded, and
// anything else reads as processing so the client keeps polling.
func (s *uploadService) Status(ctx context.Context, filename string) (*StatusView, error) {
	marker, err := s.tracker.Get(ctx, filename)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.unclaimedView(ctx, filename), nil
		}
		return nil, err
	}

	switch marker.Status {
	case domain.StatusComplete:
		return s.completeView(ctx, marker), nil
	case domain.StatusError:
		return &StatusView{Status: domain.StatusError, Message: marker.Message}, nil
	default:
		return &StatusView{Status: domain.StatusProcessing}, nil
	}
}

// unclaimedView distinguishes an upload no pipeline run has touched from one
// the client never finished. The probe is best-effort: on error it falls back
// to processing, the safe keep-polling answer.
func (s *uploadService) unclaimedView(ctx context.Context, filename string) *StatusView {
	exists, err := s.storage.Exists(ctx, s.cfg.InputBucket, filename)
	if err != nil {
		log.Printf("uploadService.Status: input probe failed for %s: %v", filename, err)
		return &StatusView{Status: domain.StatusProcessing}
	}
	if exists {
		return &StatusView{Status: domain.StatusUploaded}
	}
	return &StatusView{Status: domain.StatusProcessing}
}

func (s *uploadService) completeView(ctx context.Context, marker *domain.StatusMarker) *StatusView {
	view := &StatusView{
		Status:       domain.StatusComplete,
		DownloadURLs: make(map[string]string, 4),
	}

	for name, key := range map[string]string{
		"csv":   marker.CSVKey,
		"xlsx":  marker.XLSXKey,
		"image": marker.ImageKey,
		"json":  marker.JSONKey,
	} {
		if key == "" {
			continue
		}
		url, err := s.storage.GetPresignedURL(ctx, s.cfg.ArchiveBucket, key, s.cfg.DownloadExpiry)
		if err != nil {
			log.Printf("uploadService.Status: presigning %s for %s failed: %v", name, marker.OriginalKey, err)
			continue
		}
		view.DownloadURLs[name] = url
	}

	if marker.JSONKey != "" {
		data, err := s.storage.Download(ctx, s.cfg.ArchiveBucket, marker.JSONKey)
		if err == nil {
			var rec domain.Record
			if json.Unmarshal(data, &rec) == nil {
				view.Metadata = rec
			}
		}
	}
	return view
}

// SaveCorrection replaces the persisted record wholesale and re-renders its
// tables under the same archive base. Only completed uploads can be
// corrected; the archive base does not exist before then.
func (s *uploadService) SaveCorrection(ctx context.Context, filename string, rec domain.Record) error {
	marker, err := s.tracker.Get(ctx, filename)
	if err != nil {
		return err
	}
	if marker.Status != domain.StatusComplete {
		return domain.ErrNotComplete
	}

	rec = rec.Complete()
	if err := validate.Check(rec); err != nil {
		return err
	}

	recordBytes, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling corrected record: %w", err)
	}
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.ArchiveBucket,
		Key:         marker.JSONKey,
		Body:        bytes.NewReader(recordBytes),
		ContentType: "application/json",
		Size:        int64(len(recordBytes)),
	})
	if err != nil {
		return fmt.Errorf("persisting corrected record: %w", err)
	}

	return storeTables(ctx, s.storage, s.cfg.ArchiveBucket, rec, marker.CSVKey, marker.XLSXKey)
}
