package types

import (
	"time"

	"gorm.io/datatypes"
)

// Closed set of publishing platforms the core understands.
const (
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
)

// Platforms lists the closed set in stable order.
func Platforms() []string {
	return []string{PlatformTikTok, PlatformInstagram, PlatformYouTube}
}

// KnownPlatform reports whether p is in the closed set.
func KnownPlatform(p string) bool {
	switch p {
	case PlatformTikTok, PlatformInstagram, PlatformYouTube:
		return true
	default:
		return false
	}
}

// PlatformWeights is the persisted weight vector for one platform: feature
// name → non-negative weight, summing to 1.0 after every normalization.
// Mutated only by training; read-time heuristic adjustments are never
// written back. The row is the single source of truth; in-memory defaults
// exist only until the first successful persist.
type PlatformWeights struct {
	Platform  string            `gorm:"column:platform;primaryKey" json:"platform"`
	Weights   datatypes.JSONMap `gorm:"column:weights" json:"weights"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

func (PlatformWeights) TableName() string { return "platform_weights" }

// WeightMap converts the stored JSON map to float64 weights, dropping
// non-numeric values.
func (w *PlatformWeights) WeightMap() map[string]float64 {
	out := make(map[string]float64, len(w.Weights))
	for k, v := range w.Weights {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}
