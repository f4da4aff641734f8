package types

import (
	"time"

	"github.com/google/uuid"
)

// Campaign groups clips under one marketing push. The scheduler only reads
// Importance when computing publication priority; campaign lifecycle is
// owned elsewhere.
type Campaign struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Importance float64   `gorm:"column:importance;not null;default:0" json:"importance"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Campaign) TableName() string { return "campaign" }
