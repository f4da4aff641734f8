package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Ledger event types emitted by the orchestration core.
const (
	LedgerEventClipScored       = "clip_scored"
	LedgerEventWeightsTrained   = "weights_trained"
	LedgerEventPublishScheduled = "publish_scheduled"
	LedgerEventJobCompleted     = "job_completed"
	LedgerEventJobFailed        = "job_failed"
)

// LedgerEvent is one row of the append-only event log. The core only ever
// inserts and reads; there is no update or delete path. Scoring events are
// read back as training data.
type LedgerEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventType  string         `gorm:"column:event_type;not null;index" json:"event_type"`
	Platform   string         `gorm:"column:platform;index" json:"platform,omitempty"`
	EntityType string         `gorm:"column:entity_type" json:"entity_type,omitempty"`
	EntityID   *uuid.UUID     `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (LedgerEvent) TableName() string { return "ledger_event" }
