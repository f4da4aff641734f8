package repos

import (
	"context"
	"errors"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WeightsRepo stores the per-platform scoring weight vectors.
type WeightsRepo interface {
	Get(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformWeights, error)
	Upsert(ctx context.Context, tx *gorm.DB, platform string, weights map[string]float64) (*types.PlatformWeights, error)
	List(ctx context.Context, tx *gorm.DB) ([]types.PlatformWeights, error)
}

type weightsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeightsRepo(db *gorm.DB, baseLog *logger.Logger) WeightsRepo {
	repoLog := baseLog.With("repo", "WeightsRepo")
	return &weightsRepo{db: db, log: repoLog}
}

func (r *weightsRepo) Get(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformWeights, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.PlatformWeights
	if err := transaction.WithContext(ctx).
		Where("platform = ?", platform).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.E(apperr.ErrNotFound, "platform weights %s", platform)
		}
		r.log.Error("Failed to get platform weights", "platform", platform, "error", err)
		return nil, err
	}
	return &row, nil
}

func (r *weightsRepo) Upsert(ctx context.Context, tx *gorm.DB, platform string, weights map[string]float64) (*types.PlatformWeights, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	stored := datatypes.JSONMap{}
	for k, v := range weights {
		stored[k] = v
	}
	row := types.PlatformWeights{
		Platform:  platform,
		Weights:   stored,
		UpdatedAt: time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"weights", "updated_at"}),
	}).Create(&row).Error; err != nil {
		r.log.Error("Failed to upsert platform weights", "platform", platform, "error", err)
		return nil, err
	}
	return &row, nil
}

func (r *weightsRepo) List(ctx context.Context, tx *gorm.DB) ([]types.PlatformWeights, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.PlatformWeights
	if err := transaction.WithContext(ctx).
		Order("platform ASC").
		Find(&rows).Error; err != nil {
		r.log.Error("Failed to list platform weights", "error", err)
		return nil, err
	}
	return rows, nil
}
