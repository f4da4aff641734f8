package repos

import (
	"context"
	"errors"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PublishLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.PublishLog) (*types.PublishLog, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PublishLog, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	ListActiveForPlatformBetween(ctx context.Context, tx *gorm.DB, platform string, from, to time.Time) ([]types.PublishLog, error)
	ListForClip(ctx context.Context, tx *gorm.DB, clipID uuid.UUID) ([]types.PublishLog, error)
}

type publishLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPublishLogRepo(db *gorm.DB, baseLog *logger.Logger) PublishLogRepo {
	repoLog := baseLog.With("repo", "PublishLogRepo")
	return &publishLogRepo{db: db, log: repoLog}
}

func (r *publishLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.PublishLog) (*types.PublishLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.Error("Failed to create publish log entry", "clip_id", entry.ClipID, "platform", entry.Platform, "error", err)
		return nil, err
	}
	return entry, nil
}

func (r *publishLogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PublishLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var entry types.PublishLog
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.ErrNotFound, "publish log %s", id)
		}
		r.log.Error("Failed to get publish log entry", "id", id, "error", err)
		return nil, err
	}
	return &entry, nil
}

func (r *publishLogRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now().UTC()
	}
	if err := transaction.WithContext(ctx).
		Model(&types.PublishLog{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		r.log.Error("Failed to update publish log entry", "id", id, "error", err)
		return err
	}
	return nil
}

// ListActiveForPlatformBetween returns entries still occupying a slot
// (pending or scheduled) whose scheduled_for falls inside [from, to),
// ordered by scheduled time.
func (r *publishLogRepo) ListActiveForPlatformBetween(ctx context.Context, tx *gorm.DB, platform string, from, to time.Time) ([]types.PublishLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.PublishLog
	if err := transaction.WithContext(ctx).
		Where("platform = ? AND status IN ? AND scheduled_for >= ? AND scheduled_for < ?",
			platform,
			[]string{string(types.PublishStatusPending), string(types.PublishStatusScheduled)},
			from, to).
		Order("scheduled_for ASC").
		Find(&rows).Error; err != nil {
		r.log.Error("Failed to list active publish log entries", "platform", platform, "error", err)
		return nil, err
	}
	return rows, nil
}

func (r *publishLogRepo) ListForClip(ctx context.Context, tx *gorm.DB, clipID uuid.UUID) ([]types.PublishLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.PublishLog
	if err := transaction.WithContext(ctx).
		Where("clip_id = ?", clipID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		r.log.Error("Failed to list publish log entries for clip", "clip_id", clipID, "error", err)
		return nil, err
	}
	return rows, nil
}
