package selection

import (
	"math"
	"strings"

	"github.com/jonathan/clip-curator/internal/ranking"
	"github.com/jonathan/clip-curator/internal/types"
)

// Thresholds are the motion and brightness cut points of one assembly. They
// come from the full ranked set and do not change while sections claim assets.
// A NaN threshold matches nothing.
type Thresholds struct {
	MotionP75        float64 `json:"motion_p75"`
	MotionMedian     float64 `json:"motion_median"`
	BrightnessMedian float64 `json:"brightness_median"`
}

// ComputeThresholds derives Thresholds from the mood metrics of ranked,
// ignoring assets with missing values.
func ComputeThresholds(ranked []types.RankedAsset) Thresholds {
	var motion, brightness []float64
	for i := range ranked {
		m := ranked[i].Record.Mood()
		if m == nil {
			continue
		}
		if v, ok := m.MotionValue(); ok {
			motion = append(motion, v)
		}
		brightness = append(brightness, m.Brightness)
	}
	return Thresholds{
		MotionP75:        ranking.Quantile(motion, 0.75),
		MotionMedian:     ranking.Median(motion),
		BrightnessMedian: ranking.Median(brightness),
	}
}

// Assemble fills the template sections in order from the ranked assets.
func Assemble(ranked []types.RankedAsset, template []types.StorySection) *types.Assembly {
	return AssembleWith(ranked, template, ComputeThresholds(ranked))
}

// AssembleWith fills sections in declaration order. Each section takes the
// first Count assets of the remaining pool that match its rules, in ranked
// order. Claimed assets leave the pool. A section with too few matches takes
// what there is; nothing is backfilled.
func AssembleWith(ranked []types.RankedAsset, template []types.StorySection, th Thresholds) *types.Assembly {
	claimed := make([]bool, len(ranked))
	assembly := &types.Assembly{Entries: []types.AssemblyEntry{}}

	for _, section := range template {
		taken := 0
		for i := range ranked {
			if taken >= section.Count {
				break
			}
			if claimed[i] || !matches(&ranked[i], section, th) {
				continue
			}
			claimed[i] = true
			taken++
			assembly.Entries = append(assembly.Entries, entry(section.Name, &ranked[i]))
		}
	}
	return assembly
}

func matches(a *types.RankedAsset, s types.StorySection, th Thresholds) bool {
	mood := a.Record.Mood()

	if s.Motion != types.MotionAny {
		motion, ok := mood.MotionValue()
		if !ok {
			return false
		}
		switch s.Motion {
		case types.MotionHigh:
			if !greater(motion, th.MotionP75) {
				return false
			}
		case types.MotionMidHigh:
			if !greater(motion, th.MotionMedian) {
				return false
			}
		case types.MotionLow:
			if !greater(th.MotionMedian, motion) {
				return false
			}
		default:
			return false
		}
	}

	if s.Brightness == types.BrightnessHigh {
		if mood == nil || !greater(mood.Brightness, th.BrightnessMedian) {
			return false
		}
	}

	if len(s.Tags) > 0 {
		tags := strings.ToLower(a.Record.TagText())
		found := false
		for _, kw := range s.Tags {
			if strings.Contains(tags, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// greater is a > b, false when either is NaN.
func greater(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a > b
}

func entry(section string, a *types.RankedAsset) types.AssemblyEntry {
	return types.AssemblyEntry{
		Section:  section,
		AssetID:  a.Record.AssetID,
		Filename: a.Record.Filename,
		TopTags:  a.Record.TagText(),
		Overall:  a.Overall,
	}
}
