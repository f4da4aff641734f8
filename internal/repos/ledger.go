package repos

import (
	"context"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerRepo is append-only: events are never updated or deleted.
type LedgerRepo interface {
	Append(ctx context.Context, tx *gorm.DB, event *types.LedgerEvent) (*types.LedgerEvent, error)
	RecentByTypeAndPlatform(ctx context.Context, tx *gorm.DB, eventType, platform string, since time.Time, limit int) ([]types.LedgerEvent, error)
	ListByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) ([]types.LedgerEvent, error)
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	repoLog := baseLog.With("repo", "LedgerRepo")
	return &ledgerRepo{db: db, log: repoLog}
}

func (r *ledgerRepo) Append(ctx context.Context, tx *gorm.DB, event *types.LedgerEvent) (*types.LedgerEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
		r.log.Error("Failed to append ledger event", "event_type", event.EventType, "error", err)
		return nil, err
	}
	return event, nil
}

func (r *ledgerRepo) RecentByTypeAndPlatform(ctx context.Context, tx *gorm.DB, eventType, platform string, since time.Time, limit int) ([]types.LedgerEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.LedgerEvent
	q := transaction.WithContext(ctx).
		Where("event_type = ? AND platform = ? AND created_at >= ?", eventType, platform, since).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		r.log.Error("Failed to list ledger events", "event_type", eventType, "platform", platform, "error", err)
		return nil, err
	}
	return rows, nil
}

func (r *ledgerRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) ([]types.LedgerEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.LedgerEvent
	if err := transaction.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		r.log.Error("Failed to list ledger events by entity", "entity_type", entityType, "entity_id", entityID, "error", err)
		return nil, err
	}
	return rows, nil
}
