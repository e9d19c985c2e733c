package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/clip-curator/internal/batch"
	"github.com/jonathan/clip-curator/internal/search"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSummary(&batch.Summary{
		RunID:      "run-1",
		Candidates: 3,
		Skipped:    1,
		Processed:  2,
		Usable:     1,
		ByStatus:   map[types.Status]int{types.StatusOK: 1, types.StatusNoDownloadURL: 1},
		Duration:   1500 * time.Millisecond,
	})
	output := buf.String()

	assert.Contains(t, output, "BATCH SUMMARY")
	assert.Contains(t, output, "run-1")
	assert.Contains(t, output, "no_download_url")
	assert.Contains(t, output, "1.5s")
	assert.NotContains(t, output, "Duplicates")
}

func TestPrintSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintStoreStatus(t *testing.T) {
	var buf bytes.Buffer
	stats := store.Stats{
		Total:      4,
		ByStatus:   map[types.Status]int{types.StatusOK: 3, types.StatusErrorAnalyze: 1},
		ByDecision: map[types.Decision]int{types.DecisionUsable: 2, types.DecisionReject: 2},
	}
	NewPrinter(&buf).PrintStoreStatus(stats, 71.25, 3)
	output := buf.String()

	assert.Contains(t, output, "Records: 4")
	assert.Contains(t, output, "error_analyze")
	assert.Contains(t, output, "Mean quality score: 71.2")

	buf.Reset()
	NewPrinter(&buf).PrintStoreStatus(store.Stats{}, 0, 0)
	assert.Contains(t, buf.String(), "n/a")
}

func TestPrintAssemblyAndRanked(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAssembly(&types.Assembly{Entries: []types.AssemblyEntry{
		{Section: "hook", AssetID: "a1", TopTags: "slide, splash", Overall: 9},
	}}, 6)
	assert.Contains(t, buf.String(), "Clips: 1 of 6")
	assert.Contains(t, buf.String(), "[hook] a1 (score 9)")

	buf.Reset()
	p.PrintRanked(nil)
	assert.Contains(t, buf.String(), "No usable clips")
}

func TestPrintHits(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintHits("family", []search.Hit{{AssetID: "a", TopTags: "family", Score: 1}})
	assert.Contains(t, buf.String(), "Query: family")
	assert.Contains(t, buf.String(), "1   a  family")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDescriptor(&types.PromptDescriptor{Themes: []string{strings.Repeat("x", 100)}, Vibe: "fun"})

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
