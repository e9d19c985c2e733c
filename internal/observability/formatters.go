// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/clip-curator/internal/batch"
	"github.com/jonathan/clip-curator/internal/search"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// PrintSummary outputs the counts of one batch run.
func (p *Printer) PrintSummary(s *batch.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:        %s\n", s.RunID)
	fmt.Fprintf(&sb, "Candidates: %d\n", s.Candidates)
	fmt.Fprintf(&sb, "Skipped:    %d (already recorded)\n", s.Skipped)
	fmt.Fprintf(&sb, "Processed:  %d\n", s.Processed)
	if s.Duplicates > 0 {
		fmt.Fprintf(&sb, "Duplicates: %d (recorded by another writer)\n", s.Duplicates)
	}
	fmt.Fprintf(&sb, "Usable:     %d\n", s.Usable)
	writeStatusCounts(&sb, s.ByStatus)
	fmt.Fprintf(&sb, "Duration:   %s", s.Duration.Round(1e6))

	p.printBox("BATCH SUMMARY", sb.String())
}

// PrintStoreStatus outputs record counts and the mean quality score of ok records.
func (p *Printer) PrintStoreStatus(stats store.Stats, meanQuality float64, scored int) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Records: %d\n", stats.Total)
	writeStatusCounts(&sb, stats.ByStatus)
	fmt.Fprintf(&sb, "Usable:  %d\n", stats.ByDecision[types.DecisionUsable])
	fmt.Fprintf(&sb, "Reject:  %d\n", stats.ByDecision[types.DecisionReject])
	if scored > 0 {
		fmt.Fprintf(&sb, "Mean quality score: %.1f (%d clips)", meanQuality, scored)
	} else {
		sb.WriteString("Mean quality score: n/a")
	}

	p.printBox("RESULT STORE", sb.String())
}

func writeStatusCounts(sb *strings.Builder, counts map[types.Status]int) {
	if len(counts) == 0 {
		return
	}
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	sb.WriteString("By status:\n")
	for _, s := range statuses {
		fmt.Fprintf(sb, "  • %-16s %d\n", s, counts[types.Status(s)])
	}
}

// PrintDescriptor outputs the themes, vibe and mood derived from a request.
func (p *Printer) PrintDescriptor(d *types.PromptDescriptor) {
	if d == nil {
		return
	}
	var sb strings.Builder
	themes := "(none)"
	if len(d.Themes) > 0 {
		themes = strings.Join(d.Themes, ", ")
	}
	fmt.Fprintf(&sb, "Themes: %s\n", themes)
	fmt.Fprintf(&sb, "Vibe:   %s", d.Vibe)
	if d.Mood != nil {
		fmt.Fprintf(&sb, "\nMood:   brightness %.0f, contrast %.0f, temp %.0f", d.Mood.Brightness, d.Mood.Contrast, d.Mood.Temp)
	}
	p.printBox("PROMPT", sb.String())
}

// PrintRanked outputs the top ranked clips.
func (p *Printer) PrintRanked(ranked []types.RankedAsset) {
	if len(ranked) == 0 {
		p.printBox("RANKED CLIPS", "No usable clips")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total clips ranked: %d\n\n", len(ranked))
	count := min(len(ranked), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := ranked[i]
		fmt.Fprintf(&sb, "#%d  %s\n", i+1, r.AssetID())
		fmt.Fprintf(&sb, "    Overall: %d (prompt %d, mood %d)\n", r.Overall, r.PromptScore, r.MoodMatch)
		if tags := r.Record.TagText(); tags != "" {
			fmt.Fprintf(&sb, "    Tags: %s\n", tags)
		}
	}
	if len(ranked) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more", len(ranked)-maxItemsToShow)
	}
	p.printBox("RANKED CLIPS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAssembly outputs the assembled story, one line per clip.
func (p *Printer) PrintAssembly(a *types.Assembly, nominal int) {
	if a == nil {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Clips: %d of %d\n", len(a.Entries), nominal)
	if len(a.Entries) == 0 {
		sb.WriteString("\nNo clips matched any section")
	}
	for i, e := range a.Entries {
		fmt.Fprintf(&sb, "\n%d. [%s] %s (score %d)", i+1, e.Section, e.AssetID, e.Overall)
		if e.TopTags != "" {
			fmt.Fprintf(&sb, "\n   %s", e.TopTags)
		}
	}
	p.printBox("STORY ASSEMBLY", sb.String())
}

// PrintHits outputs search results.
func (p *Printer) PrintHits(query string, hits []search.Hit) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n", query)
	if len(hits) == 0 {
		sb.WriteString("\nNo matches")
	}
	for _, h := range hits {
		fmt.Fprintf(&sb, "\n%-3d %s  %s", h.Score, h.AssetID, h.TopTags)
	}
	p.printBox("SEARCH", sb.String())
}
