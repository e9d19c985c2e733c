package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/clip-curator/internal/types"
)

func asset(id string, motion, brightness float64, tags string, overall int) types.RankedAsset {
	m := motion
	return types.RankedAsset{
		Record: types.ResultRecord{
			AssetID:  id,
			Filename: id + ".mp4",
			Status:   types.StatusOK,
			Decision: types.DecisionUsable,
			Metrics: &types.Metrics{
				TopTags: tags,
				Mood:    &types.MoodMetrics{Brightness: brightness, Contrast: 40, Temp: 5, Motion: &m},
			},
		},
		Overall: overall,
	}
}

// library is already in ranked order.
func library() []types.RankedAsset {
	return []types.RankedAsset{
		asset("a1", 9, 100, "slide", 10),
		asset("a2", 8, 100, "family", 9),
		asset("a3", 6, 100, "wave", 8),
		asset("a4", 5, 100, "splash", 7),
		asset("a5", 4, 150, "group", 6),
		asset("a6", 3, 100, "wave", 5),
		asset("a7", 2, 150, "wave", 4),
		asset("a8", 1, 150, "pool", 3),
	}
}

func sections(a *types.Assembly) []string {
	out := make([]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		out = append(out, e.Section)
	}
	return out
}

func TestComputeThresholds(t *testing.T) {
	th := ComputeThresholds(library())
	assert.InDelta(t, 6.5, th.MotionP75, 1e-9)
	assert.InDelta(t, 4.5, th.MotionMedian, 1e-9)
	assert.InDelta(t, 100, th.BrightnessMedian, 1e-9)
}

func TestComputeThresholds_IgnoresMissing(t *testing.T) {
	ranked := library()[:3]
	ranked = append(ranked, types.RankedAsset{Record: types.ResultRecord{AssetID: "bare"}})
	noMotion := asset("nm", 0, 100, "", 0)
	noMotion.Record.Metrics.Mood.Motion = nil
	ranked = append(ranked, noMotion)

	th := ComputeThresholds(ranked)
	assert.InDelta(t, 8, th.MotionMedian, 1e-9)

	empty := ComputeThresholds(nil)
	assert.True(t, math.IsNaN(empty.MotionP75))
}

func TestAssemble_DefaultTemplate(t *testing.T) {
	a := Assemble(library(), DefaultTemplate())

	assert.Equal(t, []string{"a1", "a2", "a3", "a5", "a4", "a7"}, a.AssetIDs())
	assert.Equal(t, []string{"hook", "action", "action", "family", "ride", "ending"}, sections(a))
	assert.Equal(t, "a1.mp4", a.Entries[0].Filename)
	assert.Equal(t, "slide", a.Entries[0].TopTags)
	assert.Equal(t, 10, a.Entries[0].Overall)
}

func TestAssemble_NoRepeats(t *testing.T) {
	template := []types.StorySection{
		{Name: "any1", Count: 3},
		{Name: "wave", Tags: []string{"wave"}, Count: 5},
		{Name: "any2", Count: 10},
	}
	a := Assemble(library(), template)

	seen := map[string]bool{}
	for _, id := range a.AssetIDs() {
		assert.False(t, seen[id], "asset %s repeated", id)
		seen[id] = true
	}
	assert.Len(t, seen, 8)
	assert.Equal(t, []string{"a1", "a2", "a3", "a6", "a7", "a4", "a5", "a8"}, a.AssetIDs())
}

func TestAssemble_ThresholdsAreFrozen(t *testing.T) {
	template := []types.StorySection{
		{Name: "first", Motion: types.MotionHigh, Count: 2},
		{Name: "second", Motion: types.MotionHigh, Count: 1},
	}
	a := Assemble(library(), template)

	// p75 stays 6.5 after a1 and a2 are claimed, so a3 (6) never qualifies
	assert.Equal(t, []string{"a1", "a2"}, a.AssetIDs())
}

func TestAssemble_SparseLibraryHasNoBackfill(t *testing.T) {
	ranked := []types.RankedAsset{
		asset("x", 5, 100, "wave", 2),
		asset("y", 5, 100, "wave", 1),
	}
	a := Assemble(ranked, DefaultTemplate())

	// equal motion values: nothing is above the median or p75, nothing below it
	assert.Empty(t, a.Entries)
	assert.NotNil(t, a.Entries)

	withTags := append(ranked, asset("z", 5, 100, "family splash", 0))
	a = Assemble(withTags, DefaultTemplate())
	assert.Equal(t, []string{"z"}, a.AssetIDs())
	assert.Equal(t, []string{"family"}, sections(a))
}

func TestAssemble_MissingTagsAndMood(t *testing.T) {
	ranked := []types.RankedAsset{
		{Record: types.ResultRecord{AssetID: "bare"}},
		asset("tagged", 1, 1, "Big SPLASH", 0),
	}
	template := []types.StorySection{
		{Name: "ride", Tags: []string{"splash"}, Count: 2},
		{Name: "bright", Brightness: types.BrightnessHigh, Count: 1},
		{Name: "calm", Motion: types.MotionLow, Count: 1},
		{Name: "rest", Count: 1},
	}
	a := Assemble(ranked, template)
	assert.Equal(t, []string{"tagged", "bare"}, a.AssetIDs())
	assert.Equal(t, []string{"ride", "rest"}, sections(a))
}

func TestAssemble_Empty(t *testing.T) {
	a := Assemble(nil, DefaultTemplate())
	assert.Empty(t, a.AssetIDs())
}

func TestAssembleWith_ExplicitThresholds(t *testing.T) {
	th := Thresholds{MotionP75: 100, MotionMedian: 0, BrightnessMedian: 0}
	a := AssembleWith(library(), []types.StorySection{
		{Name: "hook", Motion: types.MotionHigh, Count: 1},
		{Name: "action", Motion: types.MotionMidHigh, Count: 1},
	}, th)
	assert.Equal(t, []string{"a1"}, a.AssetIDs())
	require.Len(t, a.Entries, 1)
	assert.Equal(t, "action", a.Entries[0].Section)
}
