package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/jobs/runtime"
	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// JobService is the enqueue-side surface of the job queue. Job types
// are checked against the worker registry before a row is written, so a
// typo'd type is refused at submission instead of festering in the
// queue until a claim discovers it.
type JobService interface {
	Enqueue(ctx context.Context, tx *gorm.DB, jobType string, payload map[string]any, dedupKey string) (*types.Job, error)
	EnqueueClipScore(ctx context.Context, tx *gorm.DB, clipID uuid.UUID, platforms []string) (*types.Job, error)
	EnqueueClipPublish(ctx context.Context, tx *gorm.DB, clipID uuid.UUID, platform, origin string, forceSlot *time.Time) (*types.Job, error)
	EnqueueWeightsTrain(ctx context.Context, tx *gorm.DB, platform string) (*types.Job, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Job, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status types.JobStatus, limit int) ([]types.Job, error)
}

type jobService struct {
	log      *logger.Logger
	jobs     repos.JobRepo
	registry *runtime.Registry
}

func NewJobService(baseLog *logger.Logger, jobRepo repos.JobRepo, registry *runtime.Registry) JobService {
	return &jobService{
		log:      baseLog.With("service", "JobService"),
		jobs:     jobRepo,
		registry: registry,
	}
}

func (s *jobService) Enqueue(ctx context.Context, tx *gorm.DB, jobType string, payload map[string]any, dedupKey string) (*types.Job, error) {
	if jobType == "" {
		return nil, apperr.E(apperr.ErrUnsupportedJobType, "empty job_type")
	}
	if s.registry != nil && !s.registry.Known(jobType) {
		return nil, apperr.E(apperr.ErrUnsupportedJobType, "job_type %s", jobType)
	}
	job := &types.Job{JobType: jobType}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		job.Payload = datatypes.JSON(b)
	}
	if dedupKey != "" {
		key := dedupKey
		job.DedupKey = &key
	}
	out, err := s.jobs.Enqueue(ctx, tx, job)
	if err != nil {
		return nil, err
	}
	if out.ID != job.ID {
		s.log.Info("Enqueue deduplicated onto live job", "job_type", jobType, "dedup_key", dedupKey, "job_id", out.ID)
		return out, nil
	}
	s.log.Info("Enqueued job", "job_id", out.ID, "job_type", jobType)
	return out, nil
}

func (s *jobService) EnqueueClipScore(ctx context.Context, tx *gorm.DB, clipID uuid.UUID, platforms []string) (*types.Job, error) {
	payload := map[string]any{"clip_id": clipID}
	if len(platforms) > 0 {
		payload["platforms"] = platforms
	}
	return s.Enqueue(ctx, tx, types.JobTypeClipScore, payload, fmt.Sprintf("clip_score:%s", clipID))
}

func (s *jobService) EnqueueClipPublish(ctx context.Context, tx *gorm.DB, clipID uuid.UUID, platform, origin string, forceSlot *time.Time) (*types.Job, error) {
	payload := map[string]any{
		"clip_id":  clipID,
		"platform": platform,
	}
	if origin != "" {
		payload["origin"] = origin
	}
	if forceSlot != nil {
		payload["force_slot"] = forceSlot.UTC().Format(time.RFC3339)
	}
	return s.Enqueue(ctx, tx, types.JobTypeClipPublish, payload, fmt.Sprintf("clip_publish:%s:%s", clipID, platform))
}

func (s *jobService) EnqueueWeightsTrain(ctx context.Context, tx *gorm.DB, platform string) (*types.Job, error) {
	payload := map[string]any{"platform": platform}
	return s.Enqueue(ctx, tx, types.JobTypeWeightsTrain, payload, fmt.Sprintf("weights_train:%s", platform))
}

func (s *jobService) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Job, error) {
	return s.jobs.GetByID(ctx, tx, id)
}

func (s *jobService) ListByStatus(ctx context.Context, tx *gorm.DB, status types.JobStatus, limit int) ([]types.Job, error) {
	return s.jobs.ListByStatus(ctx, tx, status, limit)
}
