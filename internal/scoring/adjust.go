package scoring

import (
	"github.com/clipcasthq/clipcast-backend/internal/types"
)

// DefaultWeights is the built-in starting vector used when a platform
// has no stored row yet. Already normalized to sum 1.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		FeatureQuality:  0.5,
		FeatureDuration: 0.2,
		FeaturePosition: 0.2,
		FeatureEnergy:   0.1,
	}
}

// platformBoosts are read-time multipliers. They never reach the
// weights store: Train always starts from the unboosted stored vector.
var platformBoosts = map[string]map[string]float64{
	types.PlatformTikTok: {
		FeatureEnergy:   1.5,
		FeatureDuration: 0.8,
	},
	types.PlatformInstagram: {
		FeatureEnergy:   1.3,
		FeaturePosition: 0.9,
	},
	types.PlatformYouTube: {
		FeatureDuration: 1.4,
		FeaturePosition: 1.2,
	},
}

// adjustWeights applies the platform boost to a copy of stored and
// renormalizes the copy to sum 1. The input map is never mutated.
func adjustWeights(stored map[string]float64, platform string) map[string]float64 {
	adjusted := make(map[string]float64, len(stored))
	for name, w := range stored {
		adjusted[name] = w
	}
	for name, mult := range platformBoosts[platform] {
		if _, ok := adjusted[name]; ok {
			adjusted[name] *= mult
		}
	}
	return normalizeWeights(adjusted)
}

// normalizeWeights scales a vector to sum 1. A degenerate all-zero
// vector resets to the defaults.
func normalizeWeights(w map[string]float64) map[string]float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		return DefaultWeights()
	}
	out := make(map[string]float64, len(w))
	for name, v := range w {
		out[name] = v / sum
	}
	return out
}
