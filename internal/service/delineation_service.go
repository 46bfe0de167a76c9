package service

import (
	"context"
	"path/filepath"
	"time"

	"go-field-delineator/internal/engine"
	apperrors "go-field-delineator/internal/errors"
	"go-field-delineator/internal/gpkg"
	"go-field-delineator/internal/logger"
	"go-field-delineator/internal/raster"
	"go-field-delineator/internal/storage"
	"go-field-delineator/internal/workspace"
	"go-field-delineator/pkg/models"

	"github.com/sirupsen/logrus"
)

// placeholderConfidence is returned in result metadata. The engine exposes
// no aggregate confidence signal, so this is a static placeholder pending a
// real source, not a computed statistic.
const placeholderConfidence = 0.9

// DelineationService runs the full inference pipeline: workspace, raster
// encoding, engine configuration, engine invocation and result adaptation.
type DelineationService interface {
	// Delineate executes the pipeline synchronously on the calling context.
	Delineate(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error)

	// DelineateStream runs the pipeline on a worker goroutine and returns a
	// channel of progress events closed after exactly one terminal event.
	DelineateStream(ctx context.Context, req *models.InferenceRequest) <-chan models.ProgressEvent
}

type delineationService struct {
	workspaces *workspace.Manager
	builder    *engine.Builder
	engine     engine.Delineator
	archiver   storage.ResultArchiver
}

// NewDelineationService creates a delineation service.
func NewDelineationService(
	workspaces *workspace.Manager,
	builder *engine.Builder,
	delineator engine.Delineator,
	archiver storage.ResultArchiver,
) DelineationService {
	return &delineationService{
		workspaces: workspaces,
		builder:    builder,
		engine:     delineator,
		archiver:   archiver,
	}
}

func (s *delineationService) Delineate(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
	return s.run(ctx, req, nil)
}

// run is the blocking pipeline shared by both endpoints. notify, when
// non-nil, receives the synthetic progress checkpoints; it must not block.
func (s *delineationService) run(ctx context.Context, req *models.InferenceRequest, notify func(status string, progress int, message string)) (*models.InferenceResponse, error) {
	if notify == nil {
		notify = func(string, int, string) {}
	}

	// Validation happens before any workspace or raster work.
	bbox, err := req.Validate()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid inference request", err)
	}

	modelID := req.ResolvedModelID()
	logger.WithFields(logrus.Fields{
		"model_id":      modelID,
		"model_version": req.ModelVersion,
		"param_count":   len(req.Parameters),
	}).Info("Starting delineation")

	ws, err := s.workspaces.Acquire()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to allocate job workspace", err)
	}
	// Released on every exit path: validation was already done, so from
	// here any return, success or failure, passes through this defer.
	defer s.workspaces.Release(ws)

	started := time.Now()

	notify(models.StatusProcessing, 10, "Decoding image")
	rst, err := raster.Encode(req.ImageData, bbox, ws.Input)
	if err != nil {
		return nil, err
	}

	cfg := s.builder.Build(modelID, engine.Paths{
		InputDir:   ws.Input,
		ScratchDir: ws.Scratch,
		OutputPath: filepath.Join(ws.Output, "result.gpkg"),
	})

	notify(models.StatusProcessing, 20, "Running delineation model")
	outputPath, err := engine.Invoke(ctx, s.engine, cfg)
	if err != nil {
		return nil, err
	}

	notify(models.StatusProcessing, 80, "Extracting boundaries")
	boundaries, err := gpkg.ReadFeatureCollection(outputPath)
	if err != nil {
		return nil, err
	}
	// Wall clock from just before raster encoding to just after this read.
	elapsed := time.Since(started).Milliseconds()

	notify(models.StatusProcessing, 90, "Finalizing results")
	if err := s.archiver.Archive(ctx, ws.ID, outputPath); err != nil {
		// Archival is best-effort and never fails the request.
		logger.WithError(err).WithField("job_id", ws.ID).Warn("Failed to archive result dataset")
	}

	logger.WithFields(logrus.Fields{
		"job_id":             ws.ID,
		"model_id":           modelID,
		"raster_size":        rst.Width * rst.Height,
		"field_count":        boundaries.Count(),
		"processing_time_ms": elapsed,
	}).Info("Delineation completed")

	return &models.InferenceResponse{
		Boundaries: boundaries,
		Metadata: models.ResultMetadata{
			FieldCount:       boundaries.Count(),
			ProcessingTimeMs: elapsed,
			Confidence:       placeholderConfidence,
		},
	}, nil
}

// streamEventCapacity covers the longest possible event sequence so the
// pipeline goroutine never blocks on a consumer that stopped reading.
const streamEventCapacity = 8

func (s *delineationService) DelineateStream(ctx context.Context, req *models.InferenceRequest) <-chan models.ProgressEvent {
	events := make(chan models.ProgressEvent, streamEventCapacity)

	// A client disconnect must not cancel a running engine invocation; the
	// run completes and its result is simply discarded.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(events)

		events <- models.ProgressEvent{
			Status:   models.StatusStarting,
			Progress: 0,
			Message:  "Starting inference",
		}

		resp, err := s.run(runCtx, req, func(status string, progress int, message string) {
			events <- models.ProgressEvent{Status: status, Progress: progress, Message: message}
		})
		if err != nil {
			// One terminal error event, then the stream ends.
			logger.WithError(err).Error("Streaming delineation failed")
			events <- models.ProgressEvent{
				Status:   models.StatusError,
				Progress: 0,
				Message:  err.Error(),
			}
			return
		}

		events <- models.ProgressEvent{
			Status:     models.StatusCompleted,
			Progress:   100,
			Message:    "Inference completed",
			Boundaries: resp.Boundaries,
			Metadata:   &resp.Metadata,
		}
	}()

	return events
}
