package scoring

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/clipcasthq/clipcast-backend/internal/logger"
	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
	"github.com/clipcasthq/clipcast-backend/internal/repos"
	"github.com/clipcasthq/clipcast-backend/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Params are the tunable scoring and training constants. The training
// thresholds encode observed behavior, not load-bearing design: adjust
// them freely against fresh engagement data.
type Params struct {
	LearningRate  float64
	LookbackDays  int
	MaxExamples   int
	DurationCapMs int
}

func DefaultParams() Params {
	return Params{
		LearningRate:  0.05,
		LookbackDays:  7,
		MaxExamples:   100,
		DurationCapMs: 60000,
	}
}

// Engine scores clips against per-platform adaptive weights and
// retrains those weights from ledger feedback.
type Engine interface {
	Evaluate(ctx context.Context, tx *gorm.DB, clip *types.Clip, platform string) (float64, error)
	Train(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformWeights, error)
	Weights(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformWeights, error)
}

type engine struct {
	log     *logger.Logger
	weights repos.WeightsRepo
	ledger  repos.LedgerRepo
	clips   repos.ClipRepo
	params  Params
}

func NewEngine(
	baseLog *logger.Logger,
	weightsRepo repos.WeightsRepo,
	ledgerRepo repos.LedgerRepo,
	clipRepo repos.ClipRepo,
	params Params,
) Engine {
	defaults := DefaultParams()
	if params.LearningRate <= 0 {
		params.LearningRate = defaults.LearningRate
	}
	if params.LookbackDays <= 0 {
		params.LookbackDays = defaults.LookbackDays
	}
	if params.MaxExamples <= 0 {
		params.MaxExamples = defaults.MaxExamples
	}
	if params.DurationCapMs <= 0 {
		params.DurationCapMs = defaults.DurationCapMs
	}
	return &engine{
		log:     baseLog.With("service", "ScoringEngine"),
		weights: weightsRepo,
		ledger:  ledgerRepo,
		clips:   clipRepo,
		params:  params,
	}
}

// Evaluate computes the platform score for a clip: normalized features
// dotted with the platform-adjusted weight vector, clamped to [0,1].
// Deterministic for a given clip, platform and stored weights, and
// monotonic in quality_score.
func (e *engine) Evaluate(ctx context.Context, tx *gorm.DB, clip *types.Clip, platform string) (float64, error) {
	if clip == nil {
		return 0, apperr.E(apperr.ErrNotFound, "clip")
	}
	features := normalizeFeatures(clip, e.params.DurationCapMs)
	stored := e.loadWeights(ctx, tx, platform)
	adjusted := adjustWeights(stored, platform)

	score := 0.0
	for name, value := range features {
		score += value * adjusted[name]
	}
	score = clamp01(score)

	e.appendScoredEvent(ctx, tx, clip, platform, score, adjusted, features)
	e.log.Debug("Scored clip", "clip_id", clip.ID, "platform", platform, "score", score)
	return score, nil
}

// loadWeights returns the stored vector for a platform. A missing row
// or an unavailable store falls back to the defaults: weights are
// always re-derivable from the ledger, so scoring never hard-fails on
// them.
func (e *engine) loadWeights(ctx context.Context, tx *gorm.DB, platform string) map[string]float64 {
	row, err := e.weights.Get(ctx, tx, platform)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			e.log.Warn("Weights store unavailable, using defaults", "platform", platform, "error", err)
		}
		return DefaultWeights()
	}
	w := row.WeightMap()
	if len(w) == 0 {
		return DefaultWeights()
	}
	return w
}

// Weights returns the persisted vector for a platform. When no training
// has run yet the built-in defaults come back as an unsaved row with a
// zero UpdatedAt.
func (e *engine) Weights(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformWeights, error) {
	row, err := e.weights.Get(ctx, tx, platform)
	if err == nil {
		return row, nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return &types.PlatformWeights{
			Platform: platform,
			Weights:  toJSONMap(DefaultWeights()),
		}, nil
	}
	return nil, err
}

func (e *engine) appendScoredEvent(ctx context.Context, tx *gorm.DB, clip *types.Clip, platform string, score float64, weights, features map[string]float64) {
	payload, err := json.Marshal(map[string]any{
		"clip_id":  clip.ID,
		"score":    score,
		"weights":  weights,
		"features": features,
		"views":    clip.Views,
		"likes":    clip.Likes,
	})
	if err != nil {
		e.log.Warn("Failed to encode clip_scored payload", "clip_id", clip.ID, "error", err)
		return
	}
	clipID := clip.ID
	if _, err := e.ledger.Append(ctx, tx, &types.LedgerEvent{
		EventType:  types.LedgerEventClipScored,
		Platform:   platform,
		EntityType: "clip",
		EntityID:   &clipID,
		Payload:    datatypes.JSON(payload),
	}); err != nil {
		e.log.Warn("Failed to append clip_scored event", "clip_id", clip.ID, "error", err)
	}
}
