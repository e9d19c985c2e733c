// Package types provides type definitions for structured data used throughout the clip-curator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// CandidateAsset is one row of the input catalog. It is never mutated after loading.
type CandidateAsset struct {
	AssetID     string `json:"asset_id"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url,omitempty"`
}

// QualityMetrics holds the per-asset quality measures produced by the quality analyzer.
type QualityMetrics struct {
	SharpMean      float64 `json:"sharp_mean"`
	SharpMedian    float64 `json:"sharp_median"`
	BrightnessMean float64 `json:"brightness_mean"`
	MotionMean     float64 `json:"motion_mean"`
}

// MoodMetrics holds aggregate color and motion descriptors used for tone matching.
type MoodMetrics struct {
	Brightness float64 `json:"mood_brightness"`
	Contrast   float64 `json:"mood_contrast"`
	Temp       float64 `json:"mood_temp"`
	// Motion is nil when the mood analyzer did not report it
	Motion *float64 `json:"mood_motion,omitempty"`
}

// MotionValue returns the mood motion and whether it is known.
func (m *MoodMetrics) MotionValue() (float64, bool) {
	if m == nil || m.Motion == nil {
		return 0, false
	}
	return *m.Motion, true
}

// TagScore is one (category, phrase, affinity) triple from the tagging model.
type TagScore struct {
	Category string  `json:"category"`
	Tag      string  `json:"tag"`
	Score    float64 `json:"score"`
}

// Metrics is the analyzer output for one asset. Each group is nil when the
// corresponding analyzer did not run.
type Metrics struct {
	Quality *QualityMetrics `json:"quality,omitempty"`
	Mood    *MoodMetrics    `json:"mood,omitempty"`
	// TopTags is the comma-separated list of best-matching phrases
	TopTags   string     `json:"top_tags,omitempty"`
	TagScores []TagScore `json:"tag_scores,omitempty"`
}

// Merge copies every group set on other into m, overwriting existing groups.
func (m *Metrics) Merge(other *Metrics) {
	if other == nil {
		return
	}
	if other.Quality != nil {
		m.Quality = other.Quality
	}
	if other.Mood != nil {
		m.Mood = other.Mood
	}
	if other.TopTags != "" {
		m.TopTags = other.TopTags
	}
	if len(other.TagScores) > 0 {
		m.TagScores = other.TagScores
	}
}
