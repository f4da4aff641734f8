package types

import (
	"time"

	"github.com/google/uuid"
)

type PublishStatus string

const (
	PublishStatusPending    PublishStatus = "pending"
	PublishStatusScheduled  PublishStatus = "scheduled"
	PublishStatusProcessing PublishStatus = "processing"
	PublishStatusSuccess    PublishStatus = "success"
	PublishStatusFailed     PublishStatus = "failed"
	PublishStatusRetry      PublishStatus = "retry"
)

// Origin of a scheduling decision, recorded in scheduled_by.
const (
	ScheduledByManual       = "manual"
	ScheduledByRuleEngine   = "rule_engine"
	ScheduledByOrchestrator = "orchestrator"
)

// PublishLog records one intended (and eventually attempted) publication of
// a clip to a platform. The scheduler's conflict resolution may shift
// scheduled_for while the row is still pending/scheduled; terminal rows
// (success/failed) are immutable.
type PublishLog struct {
	ID       uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ClipID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"clip_id"`
	Platform string        `gorm:"column:platform;not null;index" json:"platform"`
	Status   PublishStatus `gorm:"column:status;not null;default:pending;index" json:"status"`

	ScheduledFor       *time.Time `gorm:"column:scheduled_for;index" json:"scheduled_for,omitempty"`
	ScheduledWindowEnd *time.Time `gorm:"column:scheduled_window_end" json:"scheduled_window_end,omitempty"`
	ScheduledBy        string     `gorm:"column:scheduled_by" json:"scheduled_by,omitempty"`

	// Priority assigned at scheduling time; conflict resolution compares
	// this against new candidates instead of recomputing historic scores.
	Priority float64 `gorm:"column:priority;not null;default:0" json:"priority"`

	ExternalPostID string `gorm:"column:external_post_id" json:"external_post_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PublishLog) TableName() string { return "publish_log" }
