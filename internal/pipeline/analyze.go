package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/clip-curator/internal/analyzer"
	"github.com/jonathan/clip-curator/internal/batch"
	"github.com/jonathan/clip-curator/internal/catalog"
	"github.com/jonathan/clip-curator/internal/fetch"
	"github.com/jonathan/clip-curator/internal/logging"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

// AnalyzeOptions holds what an analysis batch needs
type AnalyzeOptions struct {
	CatalogPath      string
	OnlyDownloadable bool
	Store            store.Store
	Fetcher          fetch.Fetcher
	Analyzer         analyzer.Analyzer
	Tagger           analyzer.Analyzer // optional, runs on usable clips only
	Batch            batch.Options
	Logger           *logging.Logger
	OnProgress       ProgressCallback
}

// Analyze loads the catalog and runs the batch over it. A catalog that cannot
// be read is fatal before any asset is touched.
func Analyze(ctx context.Context, opts AnalyzeOptions) (*batch.Summary, error) {
	if opts.Store == nil || opts.Fetcher == nil || opts.Analyzer == nil {
		return nil, fmt.Errorf("store, fetcher and analyzer are required")
	}

	emit(opts.OnProgress, ProgressEvent{Step: "catalog", Message: "Loading candidate catalog"})
	loaded, err := catalog.LoadCandidates(opts.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	candidates := loaded.Candidates
	if opts.OnlyDownloadable {
		candidates = catalog.FilterDownloadable(candidates)
	}
	emit(opts.OnProgress, ProgressEvent{
		Step:    "catalog",
		Message: fmt.Sprintf("Loaded %d candidates (%d duplicate ids dropped, %d blank ids)", len(candidates), loaded.Duplicates, loaded.Blank),
	})

	runner := batch.NewRunner(opts.Store, opts.Fetcher, opts.Analyzer, opts.Batch, opts.Logger)
	if opts.Tagger != nil {
		runner.SetTagger(opts.Tagger)
	}
	runner.OnRecord(func(rec types.ResultRecord) {
		emit(opts.OnProgress, ProgressEvent{
			Step:    "analyze",
			Message: fmt.Sprintf("%s: %s", rec.AssetID, describe(rec)),
			RunID:   rec.RunID,
			Content: rec,
		})
	})

	summary, err := runner.Run(ctx, candidates)
	if summary != nil {
		emit(opts.OnProgress, ProgressEvent{Step: "analyze", Message: "Batch finished", RunID: summary.RunID, Content: summary})
	}
	return summary, err
}

func describe(rec types.ResultRecord) string {
	if rec.Status == types.StatusOK {
		return fmt.Sprintf("%s (%s)", rec.Status, rec.Decision)
	}
	if rec.Error != "" {
		return fmt.Sprintf("%s: %s", rec.Status, rec.Error)
	}
	return string(rec.Status)
}
