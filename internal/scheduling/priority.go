package scheduling

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"gorm.io/gorm"
)

// Priority factor weights. Quality dominates, engagement second, then
// campaign importance; the delay bonus is the anti-starvation term and
// caps the total at exactly 1.0.
const (
	priorityQualityWeight    = 0.4
	priorityEngagementWeight = 0.3
	priorityCampaignWeight   = 0.1
	delayBonusCap            = 0.2
	delayBonusRampHours      = 168.0
)

// Priority carries the scalar and the per-factor contributions so a
// scheduling decision stays explainable after the fact.
type Priority struct {
	Quality    float64 `json:"quality"`
	Engagement float64 `json:"engagement"`
	Campaign   float64 `json:"campaign"`
	DelayBonus float64 `json:"delay_bonus"`
	Total      float64 `json:"total"`
}

// CalculatePriority scores how urgently a clip should take the next
// available slot.
func (s *scheduler) CalculatePriority(ctx context.Context, tx *gorm.DB, clip *types.Clip) (*Priority, error) {
	return s.priorityAt(ctx, tx, clip, time.Now().UTC())
}

func (s *scheduler) priorityAt(ctx context.Context, tx *gorm.DB, clip *types.Clip, now time.Time) (*Priority, error) {
	if clip == nil {
		return nil, apperr.E(apperr.ErrNotFound, "clip")
	}

	importance := 0.0
	if clip.CampaignID != nil {
		campaign, err := s.campaigns.GetByID(ctx, tx, *clip.CampaignID)
		if err == nil {
			importance = clamp01(campaign.Importance)
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	waitingFrom := clip.CreatedAt
	if clip.ReadyAt != nil {
		waitingFrom = *clip.ReadyAt
	}
	hoursWaiting := now.Sub(waitingFrom).Hours()
	if hoursWaiting < 0 {
		hoursWaiting = 0
	}
	delay := delayBonusCap * hoursWaiting / delayBonusRampHours
	if delay > delayBonusCap {
		delay = delayBonusCap
	}

	p := &Priority{
		Quality:    clamp01(clip.QualityScore) * priorityQualityWeight,
		Engagement: engagementEstimate(clip) * priorityEngagementWeight,
		Campaign:   importance * priorityCampaignWeight,
		DelayBonus: delay,
	}
	p.Total = p.Quality + p.Engagement + p.Campaign + p.DelayBonus
	return p, nil
}

// engagementEstimate prefers observed reach; a clip with no numbers yet
// falls back to a content heuristic over its energy and position.
func engagementEstimate(clip *types.Clip) float64 {
	if clip.Views > 0 || clip.Likes > 0 {
		views := math.Min(1, float64(clip.Views)/10000.0)
		likes := math.Min(1, float64(clip.Likes)/500.0)
		return views*0.6 + likes*0.4
	}
	energy := 0.5
	if clip.EnergyScore != nil {
		energy = *clip.EnergyScore
	}
	position := 0.5
	if clip.PositionScore != nil {
		position = *clip.PositionScore
	}
	return clamp01(0.6*energy + 0.4*position)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
