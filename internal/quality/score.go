package quality

import (
	"math"

	"github.com/jonathan/clip-curator/internal/types"
)

// Score weights and normalisation ranges
const (
	sharpWeight  = 45.0
	brightWeight = 25.0
	motionWeight = 30.0

	sharpLo, sharpHi   = 50.0, 250.0
	idealBrightness    = 140.0
	brightnessSpread   = 80.0
	motionLo, motionHi = 1.0, 8.0
)

// Score returns a 0-100 quality score rounded to one decimal place.
// Brightness scores highest around 140 and decays linearly over 80 units.
func Score(q *types.QualityMetrics) float64 {
	if q == nil {
		return 0
	}
	sharpN := normalize(q.SharpMedian, sharpLo, sharpHi)
	brightN := 1 - normalize(math.Abs(q.BrightnessMean-idealBrightness), 0, brightnessSpread)
	motionN := normalize(q.MotionMean, motionLo, motionHi)

	score := sharpN*sharpWeight + brightN*brightWeight + motionN*motionWeight
	return math.Round(score*10) / 10
}

func normalize(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	v := (x - lo) / (hi - lo)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
