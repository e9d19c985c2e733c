package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/clip-curator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okRecord(id string) types.ResultRecord {
	motion := 7.25
	return types.ResultRecord{
		AssetID:  id,
		Filename: id + ".mp4",
		Status:   types.StatusOK,
		Decision: types.DecisionUsable,
		RunID:    "0b7c5e2e-4c1d-4a51-9d7e-3f0f5c1e2a10",
		// nonzero so the round trip proves the column is persisted
		CatalogIndex: 7,
		Metrics: &types.Metrics{
			Quality: &types.QualityMetrics{SharpMean: 120.5, SharpMedian: 110, BrightnessMean: 130, MotionMean: 3.5},
			Mood:    &types.MoodMetrics{Brightness: 128, Contrast: 50, Temp: 12.5, Motion: &motion},
			TopTags: "family, splash, slide",
			TagScores: []types.TagScore{
				{Category: "subject", Tag: "family", Score: 0.31},
			},
		},
	}
}

func TestCSVStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, okRecord("a1")))
	require.NoError(t, s.Append(ctx, types.Failed(types.CandidateAsset{AssetID: "a2", Filename: "b.mp4"}, types.StatusErrorDownload, "HTTP status 404\nnot found", "")))
	require.NoError(t, s.Close())

	records, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, okRecord("a1"), records[0])
	assert.Equal(t, types.StatusErrorDownload, records[1].Status)
	assert.Equal(t, types.DecisionReject, records[1].Decision)
	assert.Equal(t, "HTTP status 404 not found", records[1].Error)
	assert.Nil(t, records[1].Metrics)
}

func TestCSVStore_HeaderWrittenOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, okRecord("a1")))
	require.NoError(t, s.Close())

	s, err = OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, okRecord("a2")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "asset_id,filename,status"))
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}

func TestCSVStore_EmptyUntilFirstAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestCSVStore_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")

	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, okRecord("a1")))
	err = s.Append(ctx, okRecord("a1"))
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, s.Close())

	// duplicates are also rejected after reopening
	s, err = OpenCSV(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.ErrorIs(t, s.Append(ctx, okRecord("a1")), ErrDuplicate)

	records, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCSVStore_DoneIDs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")
	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, okRecord("a1")))
	require.NoError(t, s.Append(ctx, okRecord("a2")))
	require.NoError(t, s.Close())

	s, err = OpenCSV(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	done, err := s.DoneIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, done, 2)
	assert.Contains(t, done, "a1")
	assert.Contains(t, done, "a2")

	// the returned set is a copy
	delete(done, "a1")
	again, _ := s.DoneIDs(ctx)
	assert.Contains(t, again, "a1")
}

func TestCSVStore_TornTrailingRowDiscarded(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")
	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, okRecord("a1")))
	require.NoError(t, s.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("a2,b.mp4,o")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err = OpenCSV(path)
	require.NoError(t, err)
	done, _ := s.DoneIDs(ctx)
	assert.NotContains(t, done, "a2")
	require.NoError(t, s.Append(ctx, okRecord("a2")))
	require.NoError(t, s.Close())

	records, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a2", records[1].AssetID)
	assert.Equal(t, types.StatusOK, records[1].Status)
}

func TestCSVStore_ExistingHeaderOrderAndBOM(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")
	legacy := "\ufeffasset_id,filename,status,error,sharp_mean,sharp_median,brightness_mean,motion_mean,decision\n" +
		"x1,x.mp4,ok,,100,90,120,3,usable\n" +
		"x2,y.mp4,error_analyze,cannot_read_video,,,,,reject\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, okRecord("x3")))
	require.NoError(t, s.Close())

	records, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 90.0, records[0].Metrics.Quality.SharpMedian)
	assert.Nil(t, records[0].Metrics.Mood)
	assert.Equal(t, "cannot_read_video", records[1].Error)
	assert.Equal(t, types.DecisionUsable, records[2].Decision)
	assert.Equal(t, 110.0, records[2].Metrics.Quality.SharpMedian)
	// mood and catalog_index columns do not exist in the legacy header
	assert.Nil(t, records[2].Metrics.Mood)
	assert.Zero(t, records[2].CatalogIndex)
}

func TestCSVStore_AppendAfterClose(t *testing.T) {
	s, err := OpenCSV(filepath.Join(t.TempDir(), "results.csv"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err = s.Append(context.Background(), okRecord("a"))
	var serr *Error
	require.ErrorAs(t, err, &serr)
}

func TestOpenCSV_UnreadableStore(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenCSV(dir)
	require.Error(t, err)
	var serr *Error
	assert.ErrorAs(t, err, &serr)
}

func TestLoadCSV_Missing(t *testing.T) {
	records, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOpenReader_LeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")
	s, err := OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, okRecord("a1")))
	require.NoError(t, s.Close())

	// a row the writer has not finished yet
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("a2,b.mp4,o")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	r, err := OpenReader(ctx, Options{Path: path})
	require.NoError(t, err)
	records, err := r.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].AssetID)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOpenReader_MissingFileNotCreated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "missing.csv")

	r, err := OpenReader(ctx, Options{Path: path})
	require.NoError(t, err)
	records, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoFileExists(t, path)

	_, err = OpenReader(ctx, Options{})
	assert.Error(t, err)
}

func TestDecodeRow_UnknownStatus(t *testing.T) {
	idx := map[string]int{"asset_id": 0, "status": 1}

	_, err := decodeRow(idx, []string{"s1", "done"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"done"`)

	_, err = decodeRow(idx, []string{"s1", ""})
	require.Error(t, err)

	rec, err := decodeRow(idx, []string{"s1", "no_download_url"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusNoDownloadURL, rec.Status)
}

func TestLoadCSV_UnknownStatusIsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("asset_id,status\nz1,pending\n"), 0644))

	_, err := LoadCSV(path)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "parse", serr.Op)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeRow_CatalogIndex(t *testing.T) {
	idx := map[string]int{"asset_id": 0, "status": 1, "catalog_index": 2}

	rec, err := decodeRow(idx, []string{"c1", "error_download", "12"})
	require.NoError(t, err)
	assert.Equal(t, 12, rec.CatalogIndex)

	rec, err = decodeRow(idx, []string{"c1", "ok", "-3"})
	require.NoError(t, err)
	assert.Zero(t, rec.CatalogIndex)
}

func TestDecodeRow_MissingMoodMotion(t *testing.T) {
	idx := map[string]int{}
	for i, c := range Columns {
		idx[c] = i
	}
	row := make([]string, len(Columns))
	row[idx["asset_id"]] = "m1"
	row[idx["status"]] = "ok"
	row[idx["mood_brightness"]] = "100"
	row[idx["mood_contrast"]] = "40"
	row[idx["mood_temp"]] = "nan"

	rec, err := decodeRow(idx, row)
	require.NoError(t, err)
	assert.Nil(t, rec.Metrics.Mood, "a NaN temperature leaves the mood group absent")

	row[idx["mood_temp"]] = "5"
	rec, err = decodeRow(idx, row)
	require.NoError(t, err)
	require.NotNil(t, rec.Metrics.Mood)
	_, known := rec.Metrics.Mood.MotionValue()
	assert.False(t, known)
}

func TestSummarize(t *testing.T) {
	records := []types.ResultRecord{
		okRecord("a"),
		types.Failed(types.CandidateAsset{AssetID: "b"}, types.StatusNoDownloadURL, "", ""),
		types.Failed(types.CandidateAsset{AssetID: "c"}, types.StatusErrorDownload, "x", ""),
	}
	stats := Summarize(records)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[types.StatusOK])
	assert.Equal(t, 1, stats.ByStatus[types.StatusNoDownloadURL])
	assert.Equal(t, 2, stats.ByDecision[types.DecisionReject])
	assert.Equal(t, 1, stats.ByDecision[types.DecisionUsable])
}
