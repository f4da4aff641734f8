package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Engagement thresholds for deriving training targets. Tuned against
// observed outcomes, not structural: adjust freely.
const (
	strongViews   = 1000
	strongLikes   = 50
	moderateViews = 200
	moderateLikes = 20
)

// trainingExample pairs a normalized feature vector with the target
// score derived from observed engagement. Never persisted; rebuilt
// fresh from the ledger each run.
type trainingExample struct {
	features map[string]float64
	target   float64
}

type scoredEventPayload struct {
	ClipID   *uuid.UUID         `json:"clip_id"`
	Score    float64            `json:"score"`
	Features map[string]float64 `json:"features"`
	Views    int64              `json:"views"`
	Likes    int64              `json:"likes"`
}

// Train runs one online gradient pass over recent clip_scored events
// for a platform and persists the updated vector. Zero usable examples
// is not an error: the current weights come back unchanged and nothing
// is written.
func (e *engine) Train(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformWeights, error) {
	since := time.Now().UTC().AddDate(0, 0, -e.params.LookbackDays)
	events, err := e.ledger.RecentByTypeAndPlatform(ctx, tx, types.LedgerEventClipScored, platform, since, e.params.MaxExamples)
	if err != nil {
		return nil, err
	}

	current := e.loadWeights(ctx, tx, platform)
	examples := e.collectExamples(ctx, tx, events)
	if len(examples) == 0 {
		e.log.Info("No training data, weights unchanged", "platform", platform)
		return &types.PlatformWeights{
			Platform:  platform,
			Weights:   toJSONMap(current),
			UpdatedAt: time.Now().UTC(),
		}, nil
	}

	next := e.applyExamples(current, examples)
	row, uErr := e.weights.Upsert(ctx, tx, platform, next)
	if uErr != nil {
		e.log.Error("Failed to persist trained weights", "platform", platform, "error", uErr)
		row = &types.PlatformWeights{
			Platform:  platform,
			Weights:   toJSONMap(next),
			UpdatedAt: time.Now().UTC(),
		}
	}
	e.appendTrainedEvent(ctx, tx, platform, next, len(examples))
	e.log.Info("Trained platform weights", "platform", platform, "examples", len(examples))
	return row, nil
}

// collectExamples walks events oldest to newest (the repo returns them
// newest first) and derives one example per decodable event.
func (e *engine) collectExamples(ctx context.Context, tx *gorm.DB, events []types.LedgerEvent) []trainingExample {
	out := make([]trainingExample, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		var p scoredEventPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil || len(p.Features) == 0 {
			continue
		}
		views, likes, engaged := e.engagementFor(ctx, tx, &ev, &p)
		out = append(out, trainingExample{
			features: p.Features,
			target:   targetScore(views, likes, engaged, p.Score),
		})
	}
	return out
}

// engagementFor resolves live clip engagement when the event references
// a clip row, falling back to the numbers embedded at scoring time. The
// bool reports whether any engagement signal exists at all.
func (e *engine) engagementFor(ctx context.Context, tx *gorm.DB, ev *types.LedgerEvent, p *scoredEventPayload) (int64, int64, bool) {
	if ev.EntityID != nil {
		clip, err := e.clips.GetByID(ctx, tx, *ev.EntityID)
		if err == nil {
			return clip.Views, clip.Likes, true
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			e.log.Warn("Failed to load clip engagement", "clip_id", *ev.EntityID, "error", err)
		}
	}
	if p.Views > 0 || p.Likes > 0 {
		return p.Views, p.Likes, true
	}
	return 0, 0, false
}

// targetScore derives the supervision target for one example. With
// engagement attached the fixed thresholds apply; without it the
// recorded score regresses toward its band center.
func targetScore(views, likes int64, engaged bool, recorded float64) float64 {
	if engaged {
		switch {
		case views > strongViews && likes > strongLikes:
			return 1.0
		case views > moderateViews || likes > moderateLikes:
			return 0.7
		default:
			return 0.3
		}
	}
	switch {
	case recorded > 0.7:
		return 0.75
	case recorded < 0.3:
		return 0.25
	default:
		return 0.5
	}
}

// applyExamples runs sequential delta-rule updates against the
// unboosted stored vector, then clips negatives and renormalizes to
// sum 1.
func (e *engine) applyExamples(current map[string]float64, examples []trainingExample) map[string]float64 {
	next := make(map[string]float64, len(current))
	for name, w := range current {
		next[name] = w
	}
	for _, ex := range examples {
		prediction := 0.0
		for name, value := range ex.features {
			prediction += value * next[name]
		}
		delta := ex.target - prediction
		for name, value := range ex.features {
			next[name] += e.params.LearningRate * delta * value
		}
	}
	for name, w := range next {
		if w < 0 {
			next[name] = 0
		}
	}
	return normalizeWeights(next)
}

func (e *engine) appendTrainedEvent(ctx context.Context, tx *gorm.DB, platform string, weights map[string]float64, examples int) {
	payload, err := json.Marshal(map[string]any{
		"platform": platform,
		"weights":  weights,
		"examples": examples,
	})
	if err != nil {
		e.log.Warn("Failed to encode weights_trained payload", "platform", platform, "error", err)
		return
	}
	if _, err := e.ledger.Append(ctx, tx, &types.LedgerEvent{
		EventType:  types.LedgerEventWeightsTrained,
		Platform:   platform,
		EntityType: "platform_weights",
		Payload:    datatypes.JSON(payload),
	}); err != nil {
		e.log.Warn("Failed to append weights_trained event", "platform", platform, "error", err)
	}
}

func toJSONMap(w map[string]float64) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for name, v := range w {
		out[name] = v
	}
	return out
}
