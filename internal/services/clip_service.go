package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// ClipInput carries the analyzer-produced fields for a new clip row.
// Feature scores arrive pre-normalized; this layer only checks ranges.
type ClipInput struct {
	VideoID       uuid.UUID  `json:"video_id"`
	CampaignID    *uuid.UUID `json:"campaign_id,omitempty"`
	Title         string     `json:"title"`
	QualityScore  float64    `json:"quality_score"`
	DurationMs    int        `json:"duration_ms"`
	PositionScore *float64   `json:"position_score,omitempty"`
	EnergyScore   *float64   `json:"energy_score,omitempty"`
}

type ClipService interface {
	Create(ctx context.Context, tx *gorm.DB, input ClipInput) (*types.Clip, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clip, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status types.ClipStatus, limit int) ([]*types.Clip, error)
	PublishHistory(ctx context.Context, tx *gorm.DB, clipID uuid.UUID) ([]types.PublishLog, error)
}

type clipService struct {
	db          *gorm.DB
	log         *logger.Logger
	clips       repos.ClipRepo
	campaigns   repos.CampaignRepo
	publishLogs repos.PublishLogRepo
}

func NewClipService(
	db *gorm.DB,
	baseLog *logger.Logger,
	clipRepo repos.ClipRepo,
	campaignRepo repos.CampaignRepo,
	publishLogRepo repos.PublishLogRepo,
) ClipService {
	return &clipService{
		db:          db,
		log:         baseLog.With("service", "ClipService"),
		clips:       clipRepo,
		campaigns:   campaignRepo,
		publishLogs: publishLogRepo,
	}
}

func (s *clipService) Create(ctx context.Context, tx *gorm.DB, input ClipInput) (*types.Clip, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("missing clip title")
	}
	if input.VideoID == uuid.Nil {
		return nil, fmt.Errorf("missing video id")
	}
	if input.QualityScore < 0 || input.QualityScore > 1 {
		return nil, fmt.Errorf("quality_score %v outside [0,1]", input.QualityScore)
	}
	if input.DurationMs < 0 {
		return nil, fmt.Errorf("negative duration_ms %d", input.DurationMs)
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	if input.CampaignID != nil {
		if _, err := s.campaigns.GetByID(ctx, transaction, *input.CampaignID); err != nil {
			s.log.Warn("Create: campaign lookup failed", "error", err, "campaign_id", *input.CampaignID)
			return nil, err
		}
	}

	clip := &types.Clip{
		VideoID:       input.VideoID,
		CampaignID:    input.CampaignID,
		Title:         strings.TrimSpace(input.Title),
		QualityScore:  input.QualityScore,
		DurationMs:    input.DurationMs,
		PositionScore: input.PositionScore,
		EnergyScore:   input.EnergyScore,
		Status:        types.ClipStatusReady,
	}
	out, err := s.clips.Create(ctx, transaction, clip)
	if err != nil {
		s.log.Warn("Create: insert clip failed", "error", err)
		return nil, err
	}
	s.log.Info("Clip created", "clip_id", out.ID, "title", out.Title)
	return out, nil
}

func (s *clipService) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clip, error) {
	if id == uuid.Nil {
		return nil, apperr.E(apperr.ErrNotFound, "clip id is nil")
	}
	return s.clips.GetByID(ctx, tx, id)
}

func (s *clipService) ListByStatus(ctx context.Context, tx *gorm.DB, status types.ClipStatus, limit int) ([]*types.Clip, error) {
	return s.clips.ListByStatus(ctx, tx, status, limit)
}

func (s *clipService) PublishHistory(ctx context.Context, tx *gorm.DB, clipID uuid.UUID) ([]types.PublishLog, error) {
	if clipID == uuid.Nil {
		return nil, apperr.E(apperr.ErrNotFound, "clip id is nil")
	}
	if _, err := s.clips.GetByID(ctx, tx, clipID); err != nil {
		return nil, err
	}
	return s.publishLogs.ListForClip(ctx, tx, clipID)
}
