package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

type ClipRepo interface {
	Create(ctx context.Context, tx *gorm.DB, clip *types.Clip) (*types.Clip, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clip, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	ListByStatus(ctx context.Context, tx *gorm.DB, status types.ClipStatus, limit int) ([]*types.Clip, error)
}

type clipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClipRepo(db *gorm.DB, baseLog *logger.Logger) ClipRepo {
	return &clipRepo{db: db, log: baseLog.With("repo", "ClipRepo")}
}

func (r *clipRepo) Create(ctx context.Context, tx *gorm.DB, clip *types.Clip) (*types.Clip, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if clip == nil {
		return nil, nil
	}
	if clip.ID == uuid.Nil {
		clip.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(clip).Error; err != nil {
		return nil, err
	}
	return clip, nil
}

func (r *clipRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clip, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, apperr.E(apperr.ErrNotFound, "clip id is nil")
	}
	var clip types.Clip
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&clip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.E(apperr.ErrNotFound, "clip %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &clip, nil
}

func (r *clipRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Clip{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *clipRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status types.ClipStatus, limit int) ([]*types.Clip, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.Clip
	err := transaction.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
