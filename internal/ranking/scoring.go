package ranking

import (
	"math"
	"strings"

	"github.com/jonathan/clip-curator/internal/types"
)

// Scoring weights
const (
	themeWeight  = 4
	vibeWeight   = 1
	promptWeight = 2

	brightnessWeight = 2
	contrastWeight   = 1
	tempWeight       = 1

	brightnessTolerance = 30.0
	contrastTolerance   = 20.0
	tempTolerance       = 15.0
)

type promptMatcher struct {
	themes []string
	vibe   string
}

func newPromptMatcher(desc *types.PromptDescriptor) promptMatcher {
	m := promptMatcher{vibe: strings.ToLower(strings.TrimSpace(desc.Vibe))}
	for _, t := range desc.Themes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			m.themes = append(m.themes, t)
		}
	}
	return m
}

// score adds themeWeight per theme found in the tag text and vibeWeight for the vibe.
func (m promptMatcher) score(tagText string) int {
	tags := strings.ToLower(tagText)
	score := 0
	for _, t := range m.themes {
		if strings.Contains(tags, t) {
			score += themeWeight
		}
	}
	if m.vibe != "" && strings.Contains(tags, m.vibe) {
		score += vibeWeight
	}
	return score
}

// PromptScore scores tag text against a descriptor.
func PromptScore(tagText string, desc *types.PromptDescriptor) int {
	return newPromptMatcher(desc).score(tagText)
}

// DesiredMood is the median brightness, contrast and temperature over the
// usable records, unless an explicit target is given. Components with no
// values are NaN.
func DesiredMood(usable []types.ResultRecord, target *types.MoodTarget) types.MoodTarget {
	if target != nil {
		return *target
	}
	var b, c, t []float64
	for _, r := range usable {
		m := r.Mood()
		if m == nil {
			continue
		}
		b = append(b, m.Brightness)
		c = append(c, m.Contrast)
		t = append(t, m.Temp)
	}
	return types.MoodTarget{Brightness: Median(b), Contrast: Median(c), Temp: Median(t)}
}

// moodMatch is 0 when the asset or the desired mood has a missing component.
func moodMatch(m *types.MoodMetrics, desired types.MoodTarget) int {
	if m == nil || anyNaN(m.Brightness, m.Contrast, m.Temp, desired.Brightness, desired.Contrast, desired.Temp) {
		return 0
	}
	score := 0
	if math.Abs(m.Brightness-desired.Brightness) < brightnessTolerance {
		score += brightnessWeight
	}
	if math.Abs(m.Contrast-desired.Contrast) < contrastTolerance {
		score += contrastWeight
	}
	if math.Abs(m.Temp-desired.Temp) < tempTolerance {
		score += tempWeight
	}
	return score
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
