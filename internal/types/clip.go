package types

import (
	"time"

	"github.com/google/uuid"
)

type ClipStatus string

const (
	ClipStatusPending   ClipStatus = "pending"
	ClipStatusReady     ClipStatus = "ready"
	ClipStatusPublished ClipStatus = "published"
	ClipStatusArchived  ClipStatus = "archived"
)

// Clip is one candidate content item cut from a source video. Rows are
// created by upstream analysis and mutated by scoring/publication steps;
// they are never deleted while a Job or PublishLog still references them.
type Clip struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"video_id"`
	CampaignID *uuid.UUID `gorm:"type:uuid;index" json:"campaign_id,omitempty"`
	Title      string     `gorm:"column:title" json:"title"`

	// Scoring features. QualityScore is already normalized to [0,1] by the
	// upstream analyzer; PositionScore/EnergyScore are nil when the analyzer
	// could not derive them.
	QualityScore  float64  `gorm:"column:quality_score;not null;default:0" json:"quality_score"`
	DurationMs    int      `gorm:"column:duration_ms;not null;default:0" json:"duration_ms"`
	PositionScore *float64 `gorm:"column:position_score" json:"position_score,omitempty"`
	EnergyScore   *float64 `gorm:"column:energy_score" json:"energy_score,omitempty"`

	// Latest observed engagement, written back by outcome ingestion.
	Views int64 `gorm:"column:views;not null;default:0" json:"views"`
	Likes int64 `gorm:"column:likes;not null;default:0" json:"likes"`

	Status    ClipStatus `gorm:"column:status;not null;default:pending;index" json:"status"`
	ReadyAt   *time.Time `gorm:"column:ready_at" json:"ready_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Clip) TableName() string { return "clip" }
