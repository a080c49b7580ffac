package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"

	"tickmill/internal/archive"
	"tickmill/internal/config"
	"tickmill/internal/domain"
	"tickmill/internal/extract"
	"tickmill/internal/imgproc"
	"tickmill/internal/port"
	"tickmill/internal/status"
	"tickmill/internal/tabular"
	"tickmill/internal/validate"
)

// PipelineService runs the extraction pipeline for one triggering event:
// normalize, route, extract, parse, archive, persist, render, mark complete.
type PipelineService interface {
	Process(ctx context.Context, event domain.TriggerEvent) error
}

type pipelineService struct {
	storage    port.ObjectStorage
	normalizer *imgproc.Normalizer
	router     *extract.Router
	extractor  *extract.Extractor
	archivist  *archive.Archivist
	tracker    *status.Tracker
	s3cfg      *config.S3Config
}

// NewPipelineService creates a PipelineService from its collaborators.
func NewPipelineService(
	storage port.ObjectStorage,
	normalizer *imgproc.Normalizer,
	router *extract.Router,
	extractor *extract.Extractor,
	archivist *archive.Archivist,
	tracker *status.Tracker,
	s3cfg *config.S3Config,
) PipelineService {
	return &pipelineService{
		storage:    storage,
		normalizer: normalizer,
		router:     router,
		extractor:  extractor,
		archivist:  archivist,
		tracker:    tracker,
		s3cfg:      s3cfg,
	}
}

// Process decodes the event key, writes the processing marker, then runs the
// pipeline body. Any fatal error is recorded as an error marker (best-effort)
// before being returned, so the trigger's own failure policy still sees it.
func (s *pipelineService) Process(ctx context.Context, event domain.TriggerEvent) error {
	originalKey := event.Key
	if unescaped, err := url.QueryUnescape(event.Key); err == nil {
		originalKey = unescaped
	}

	log.Printf("pipelineService.Process: processing %s from bucket %s", originalKey, event.Bucket)

	if err := s.tracker.MarkProcessing(ctx, originalKey); err != nil {
		s.tracker.MarkError(ctx, originalKey, err.Error())
		return fmt.Errorf("marking processing: %w", err)
	}

	if err := s.run(ctx, event.Bucket, originalKey); err != nil {
		log.Printf("pipelineService.Process: %s failed: %v", originalKey, err)
		s.tracker.MarkError(ctx, originalKey, err.Error())
		return err
	}
	return nil
}

func (s *pipelineService) run(ctx context.Context, bucket, originalKey string) error {
	raw, err := s.storage.Download(ctx, bucket, originalKey)
	if err != nil {
		return fmt.Errorf("downloading upload: %w", err)
	}

	img, err := s.normalizer.Normalize(raw)
	if err != nil {
		return err
	}

	hint := s.router.Route(ctx, img)
	log.Printf("pipelineService.run: %s routed to vendor=%s rotation=%d", originalKey, hint.Vendor, hint.RotationDegrees)

	if hint.RotationDegrees != 0 {
		rotated, err := s.normalizer.Rotate(img, hint.RotationDegrees)
		if err != nil {
			// The rotation fix is advisory, like the rest of the hint.
			log.Printf("pipelineService.run: rotation correction failed for %s, continuing unrotated: %v", originalKey, err)
		} else {
			img = rotated
		}
	}

	completion, err := s.extractor.Extract(ctx, img, hint)
	if err != nil {
		return err
	}

	rec, err := extract.ParseRecord(completion)
	if err != nil {
		return err
	}

	// Validation failures are advisory here: a low-quality extraction still
	// archives, and the operator corrects it through the save endpoint.
	for _, vr := range validate.Record(rec) {
		if !vr.Passed {
			log.Printf("pipeline: validation %s on %s for %s: %s", vr.Severity, vr.FieldPath, originalKey, vr.Message)
		}
	}

	archiveKey, err := s.archivist.Archive(ctx, rec, originalKey, img)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(archiveKey, path.Ext(archiveKey))
	csvKey := base + ".csv"
	xlsxKey := base + ".xlsx"

	if err := storeTables(ctx, s.storage, s.s3cfg.ArchiveBucket, rec, csvKey, xlsxKey); err != nil {
		return err
	}

	artifacts := status.CompleteArtifacts{
		CSVKey:      csvKey,
		XLSXKey:     xlsxKey,
		ImageKey:    archiveKey,
		JSONKey:     s.tracker.RecordKey(archiveKey),
		RenamedBase: path.Base(base),
	}
	if err := s.tracker.MarkComplete(ctx, originalKey, artifacts, rec); err != nil {
		return err
	}

	log.Printf("pipelineService.run: %s complete, archived as %s", originalKey, archiveKey)
	return nil
}

// storeTables renders and stores both tabular forms of a record under the
// given keys. Shared by the pipeline and the correction path.
func storeTables(ctx context.Context, storage port.ObjectStorage, bucket string, rec domain.Record, csvKey, xlsxKey string) error {
	csvBytes, err := tabular.RenderCSV(rec)
	if err != nil {
		return err
	}
	_, err = storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         csvKey,
		Body:        bytes.NewReader(csvBytes),
		ContentType: "text/csv",
		Size:        int64(len(csvBytes)),
	})
	if err != nil {
		return fmt.Errorf("storing csv %s: %w", csvKey, err)
	}

	xlsxBytes, err := tabular.RenderXLSX(rec)
	if err != nil {
		return err
	}
	_, err = storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         xlsxKey,
		Body:        bytes.NewReader(xlsxBytes),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        int64(len(xlsxBytes)),
	})
	if err != nil {
		return fmt.Errorf("storing xlsx %s: %w", xlsxKey, err)
	}
	return nil
}
