package scoring

import (
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// Feature names shared by Evaluate and Train. Stored weight vectors and
// ledger event payloads are keyed by these.
const (
	FeatureQuality  = "quality"
	FeatureDuration = "duration"
	FeaturePosition = "position"
	FeatureEnergy   = "energy"
)

// normalizeFeatures maps raw clip attributes into [0,1] feature space.
// Duration saturates at durationCapMs; position and energy fall back to
// a neutral 0.5 when the clip has no signal for them.
func normalizeFeatures(clip *types.Clip, durationCapMs int) map[string]float64 {
	duration := float64(clip.DurationMs)
	capMs := float64(durationCapMs)
	if duration > capMs {
		duration = capMs
	}
	position := 0.5
	if clip.PositionScore != nil {
		position = *clip.PositionScore
	}
	energy := 0.5
	if clip.EnergyScore != nil {
		energy = *clip.EnergyScore
	}
	return map[string]float64{
		FeatureQuality:  clamp01(clip.QualityScore),
		FeatureDuration: clamp01(duration / capMs),
		FeaturePosition: clamp01(position),
		FeatureEnergy:   clamp01(energy),
	}
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
