package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/clip-curator/internal/types"
)

// Columns is the CSV header of the result store, in write order.
var Columns = []string{
	"asset_id", "filename", "status", "error", "decision",
	"sharp_mean", "sharp_median", "brightness_mean", "motion_mean",
	"mood_brightness", "mood_contrast", "mood_temp", "mood_motion",
	"top_tags", "tag_scores_json", "run_id", "catalog_index",
}

// encodeRow renders rec as a CSV row matching Columns.
func encodeRow(rec types.ResultRecord) ([]string, error) {
	row := make([]string, len(Columns))
	set := func(col, v string) {
		for i, c := range Columns {
			if c == col {
				row[i] = v
				return
			}
		}
	}

	set("asset_id", rec.AssetID)
	set("filename", rec.Filename)
	set("status", string(rec.Status))
	set("error", singleLine(rec.Error))
	set("decision", string(rec.Decision))
	set("run_id", rec.RunID)
	set("catalog_index", strconv.Itoa(rec.CatalogIndex))

	if m := rec.Metrics; m != nil {
		if q := m.Quality; q != nil {
			set("sharp_mean", formatFloat(q.SharpMean))
			set("sharp_median", formatFloat(q.SharpMedian))
			set("brightness_mean", formatFloat(q.BrightnessMean))
			set("motion_mean", formatFloat(q.MotionMean))
		}
		if mood := m.Mood; mood != nil {
			set("mood_brightness", formatFloat(mood.Brightness))
			set("mood_contrast", formatFloat(mood.Contrast))
			set("mood_temp", formatFloat(mood.Temp))
			if v, ok := mood.MotionValue(); ok {
				set("mood_motion", formatFloat(v))
			}
		}
		set("top_tags", singleLine(m.TopTags))
		if len(m.TagScores) > 0 {
			payload, err := json.Marshal(m.TagScores)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tag scores: %w", err)
			}
			set("tag_scores_json", string(payload))
		}
	}
	return row, nil
}

// decodeRow maps a CSV row to a record using the column index of the file's header.
func decodeRow(idx map[string]int, row []string) (types.ResultRecord, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := types.ResultRecord{
		AssetID:  get("asset_id"),
		Filename: get("filename"),
		Status:   types.Status(get("status")),
		Error:    get("error"),
		Decision: types.Decision(get("decision")),
		RunID:    get("run_id"),
	}
	if rec.AssetID == "" {
		return rec, fmt.Errorf("row has no asset_id")
	}
	if !rec.Status.Valid() {
		return rec, fmt.Errorf("asset %s has unknown status %q", rec.AssetID, rec.Status)
	}
	// files written before catalog_index existed fall back to store order
	if n, err := strconv.Atoi(get("catalog_index")); err == nil && n >= 0 {
		rec.CatalogIndex = n
	}
	if rec.Status != types.StatusOK {
		return rec, nil
	}

	m := &types.Metrics{TopTags: get("top_tags")}
	if vals, ok := parseFloats(get("sharp_mean"), get("sharp_median"), get("brightness_mean"), get("motion_mean")); ok {
		m.Quality = &types.QualityMetrics{
			SharpMean:      vals[0],
			SharpMedian:    vals[1],
			BrightnessMean: vals[2],
			MotionMean:     vals[3],
		}
	}
	if vals, ok := parseFloats(get("mood_brightness"), get("mood_contrast"), get("mood_temp")); ok {
		m.Mood = &types.MoodMetrics{Brightness: vals[0], Contrast: vals[1], Temp: vals[2]}
		if motion, ok := parseFloats(get("mood_motion")); ok {
			m.Mood.Motion = &motion[0]
		}
	}
	if payload := get("tag_scores_json"); payload != "" {
		var scores []types.TagScore
		if err := json.Unmarshal([]byte(payload), &scores); err == nil {
			m.TagScores = scores
		}
	}
	rec.Metrics = m
	return rec, nil
}

// parseFloats parses every value, reporting false if any is empty or malformed.
func parseFloats(values ...string) ([]float64, bool) {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// singleLine keeps every record on one physical line so a torn write is detectable.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
