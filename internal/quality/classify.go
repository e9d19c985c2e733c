// Package quality classifies analyzed assets as usable or reject from fixed thresholds.
package quality

import (
	"math"

	"github.com/jonathan/clip-curator/internal/types"
)

// Default thresholds
const (
	DefaultMinSharpness  = 80.0
	DefaultMinBrightness = 40.0
	DefaultMaxBrightness = 220.0
	DefaultMinMotion     = 2.0
)

// Thresholds are the fixed bounds an asset must satisfy to be usable.
type Thresholds struct {
	MinSharpness  float64 `json:"min_sharpness"`
	MinBrightness float64 `json:"min_brightness"`
	MaxBrightness float64 `json:"max_brightness"`
	MinMotion     float64 `json:"min_motion"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSharpness:  DefaultMinSharpness,
		MinBrightness: DefaultMinBrightness,
		MaxBrightness: DefaultMaxBrightness,
		MinMotion:     DefaultMinMotion,
	}
}

// Classify returns DecisionUsable only when sharpness (median), brightness (mean)
// and motion (mean) all pass. Missing quality metrics or NaN values reject.
func Classify(m *types.Metrics, t Thresholds) types.Decision {
	if m == nil || m.Quality == nil {
		return types.DecisionReject
	}
	q := m.Quality
	if math.IsNaN(q.SharpMedian) || math.IsNaN(q.BrightnessMean) || math.IsNaN(q.MotionMean) {
		return types.DecisionReject
	}
	if q.SharpMedian >= t.MinSharpness &&
		q.BrightnessMean >= t.MinBrightness && q.BrightnessMean <= t.MaxBrightness &&
		q.MotionMean >= t.MinMotion {
		return types.DecisionUsable
	}
	return types.DecisionReject
}
