package types

import (
	"github.com/go-playground/validator/v10"
)

// MoodTarget is a desired brightness/contrast/color-temperature point.
type MoodTarget struct {
	Brightness float64 `json:"brightness" yaml:"brightness" validate:"gte=0,lte=255"`
	Contrast   float64 `json:"contrast" yaml:"contrast" validate:"gte=0"`
	Temp       float64 `json:"temp" yaml:"temp"`
}

// PromptDescriptor is derived from a caller's free-text request.
type PromptDescriptor struct {
	Themes []string    `json:"themes"`
	Vibe   string      `json:"vibe"`
	Mood   *MoodTarget `json:"mood,omitempty"`
}

// RankedAsset is a usable result record joined with its ranking scores.
type RankedAsset struct {
	Record      ResultRecord `json:"record"`
	PromptScore int          `json:"prompt_score"`
	MoodMatch   int          `json:"mood_match"`
	Overall     int          `json:"overall"`
	// CatalogIndex is the record's catalog position, used as the tie-break
	CatalogIndex int `json:"catalog_index"`
}

// AssetID is a shorthand for the underlying record id.
func (r *RankedAsset) AssetID() string {
	return r.Record.AssetID
}

// MotionRule selects a motion quantile band for a story section.
type MotionRule string

// Motion rules
const (
	MotionAny     MotionRule = ""
	MotionHigh    MotionRule = "high"
	MotionMidHigh MotionRule = "mid-high"
	MotionLow     MotionRule = "low"
)

// BrightnessRule selects a brightness band for a story section.
type BrightnessRule string

// Brightness rules
const (
	BrightnessAny  BrightnessRule = ""
	BrightnessHigh BrightnessRule = "high"
)

// StorySection is a named slot of the narrative template.
type StorySection struct {
	Name       string         `json:"name" yaml:"name"`
	Motion     MotionRule     `json:"motion,omitempty" yaml:"motion,omitempty"`
	Brightness BrightnessRule `json:"brightness,omitempty" yaml:"brightness,omitempty"`
	Tags       []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Count      int            `json:"count" yaml:"count"`
}

// AssemblyEntry is one selected clip together with the section that claimed it.
type AssemblyEntry struct {
	Section  string `json:"section"`
	AssetID  string `json:"asset_id"`
	Filename string `json:"filename"`
	TopTags  string `json:"top_tags"`
	Overall  int    `json:"overall"`
}

// Assembly is the ordered, non-repeating clip sequence for one request.
type Assembly struct {
	Entries []AssemblyEntry `json:"entries"`
}

// AssetIDs returns the ordered asset ids of the assembly.
func (a *Assembly) AssetIDs() []string {
	ids := make([]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		ids = append(ids, e.AssetID)
	}
	return ids
}

// SelectionRequest is the caller's request for an assembly.
type SelectionRequest struct {
	Prompt string      `json:"prompt" validate:"required,min=1"`
	Themes []string    `json:"themes,omitempty" validate:"omitempty,dive,required"`
	Mood   *MoodTarget `json:"mood,omitempty" validate:"omitempty"`
}

// Validate validates the SelectionRequest using the validator.
func (r *SelectionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
