// Package batch drives the checkpointed fetch, analyze and record pipeline over a candidate list.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/clip-curator/internal/analyzer"
	"github.com/jonathan/clip-curator/internal/fetch"
	"github.com/jonathan/clip-curator/internal/logging"
	"github.com/jonathan/clip-curator/internal/quality"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

// Defaults for Options
const (
	DefaultFetchTimeout   = 5 * time.Minute
	DefaultAnalyzeTimeout = 2 * time.Minute
)

// Options configures a Runner.
type Options struct {
	// Workers is the number of candidates processed concurrently (1 = sequential)
	Workers int
	// ScratchDir holds downloaded files while they are analyzed. Empty uses a
	// temporary directory removed when the run ends.
	ScratchDir     string
	FetchTimeout   time.Duration
	AnalyzeTimeout time.Duration
	Thresholds     quality.Thresholds
}

// RecordCallback is invoked after each record is durably appended.
type RecordCallback func(rec types.ResultRecord)

// Runner processes every candidate not yet present in the store exactly once.
type Runner struct {
	store    store.Store
	fetcher  fetch.Fetcher
	analyzer analyzer.Analyzer
	tagger   analyzer.Analyzer
	opts     Options
	logger   *logging.Logger
	onRecord RecordCallback
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(st store.Store, f fetch.Fetcher, a analyzer.Analyzer, opts Options, logger *logging.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.AnalyzeTimeout <= 0 {
		opts.AnalyzeTimeout = DefaultAnalyzeTimeout
	}
	if opts.Thresholds == (quality.Thresholds{}) {
		opts.Thresholds = quality.DefaultThresholds()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{store: st, fetcher: f, analyzer: a, opts: opts, logger: logger}
}

// OnRecord registers a callback for each appended record.
func (r *Runner) OnRecord(cb RecordCallback) {
	r.onRecord = cb
}

// SetTagger registers an analyzer that runs only on clips classified usable.
// Its metrics are merged into the quality analyzer's output.
func (r *Runner) SetTagger(t analyzer.Analyzer) {
	r.tagger = t
}

// Summary reports what one run did.
type Summary struct {
	RunID      string               `json:"run_id"`
	Candidates int                  `json:"candidates"`
	Skipped    int                  `json:"skipped"`
	Processed  int                  `json:"processed"`
	Duplicates int                  `json:"duplicates"`
	ByStatus   map[types.Status]int `json:"by_status"`
	Usable     int                  `json:"usable"`
	Duration   time.Duration        `json:"duration"`
}

func (s *Summary) add(rec types.ResultRecord) {
	s.Processed++
	s.ByStatus[rec.Status]++
	if rec.IsUsable() {
		s.Usable++
	}
}

// Plan returns the candidates whose id is not in done, preserving order.
// Repeated ids in the candidate list are claimed once.
func Plan(done map[string]struct{}, candidates []types.CandidateAsset) []types.CandidateAsset {
	claimed := make(map[string]struct{}, len(candidates))
	todo := make([]types.CandidateAsset, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := done[c.AssetID]; ok {
			continue
		}
		if _, ok := claimed[c.AssetID]; ok {
			continue
		}
		claimed[c.AssetID] = struct{}{}
		todo = append(todo, c)
	}
	return todo
}

// Run processes the to-do candidates. Per-asset failures are recorded in the
// store; the returned error is non-nil only when the store cannot be read or
// written, or when ctx is cancelled (after the in-flight records are written).
func (r *Runner) Run(ctx context.Context, candidates []types.CandidateAsset) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:      uuid.NewString(),
		Candidates: len(candidates),
		ByStatus:   make(map[types.Status]int),
	}
	log := r.logger.With("run_id", summary.RunID)

	done, err := r.store.DoneIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to load done set: %w", err)
	}
	todo := Plan(done, candidates)
	order := make(map[string]int, len(candidates))
	for i, c := range candidates {
		if _, ok := order[c.AssetID]; !ok {
			order[c.AssetID] = i
		}
	}
	summary.Skipped = len(candidates) - len(todo)
	log.Info("batch planned", "candidates", len(candidates), "done", len(done), "todo", len(todo), "workers", r.opts.Workers)

	scratch, cleanup, err := r.scratchDir()
	if err != nil {
		return summary, err
	}
	defer cleanup()

	var mu sync.Mutex
	record := func(rec types.ResultRecord) error {
		rec.CatalogIndex = order[rec.AssetID]
		if err := r.store.Append(context.WithoutCancel(ctx), rec); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				log.Warn("asset already recorded by another writer", "asset_id", rec.AssetID)
				mu.Lock()
				summary.Duplicates++
				mu.Unlock()
				return nil
			}
			return fmt.Errorf("failed to record %s: %w", rec.AssetID, err)
		}
		mu.Lock()
		summary.add(rec)
		mu.Unlock()
		r.logRecord(log, rec)
		if r.onRecord != nil {
			r.onRecord(rec)
		}
		return nil
	}

	if r.opts.Workers == 1 {
		err = r.runSequential(ctx, todo, scratch, summary.RunID, record)
	} else {
		err = r.runParallel(ctx, todo, scratch, summary.RunID, record)
	}

	summary.Duration = time.Since(start)
	log.Info("batch finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"usable", summary.Usable,
		"duration", summary.Duration.String())
	return summary, err
}

func (r *Runner) runSequential(ctx context.Context, todo []types.CandidateAsset, scratch, runID string, record func(types.ResultRecord) error) error {
	for _, c := range todo {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := record(r.process(ctx, c, scratch, runID)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, todo []types.CandidateAsset, scratch, runID string, record func(types.ResultRecord) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, c := range todo {
		if gctx.Err() != nil {
			break
		}
		c := c
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return record(r.process(gctx, c, scratch, runID))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// process runs one candidate to a terminal record. Once started, the work is
// detached from cancellation of ctx and bounded only by the per-step timeouts.
func (r *Runner) process(ctx context.Context, c types.CandidateAsset, scratch, runID string) types.ResultRecord {
	ctx = context.WithoutCancel(ctx)

	if !fetch.IsRemoteURL(c.DownloadURL) {
		return types.Failed(c, types.StatusNoDownloadURL, "", runID)
	}

	tmp, err := os.CreateTemp(scratch, "asset-*.media")
	if err != nil {
		return types.Failed(c, types.StatusErrorDownload, "failed to create scratch file: "+err.Error(), runID)
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(path) }()

	fetchCtx, cancelFetch := context.WithTimeout(ctx, r.opts.FetchTimeout)
	err = r.fetcher.Fetch(fetchCtx, c.DownloadURL, path)
	cancelFetch()
	if err != nil {
		return types.Failed(c, types.StatusErrorDownload, err.Error(), runID)
	}

	analyzeCtx, cancelAnalyze := context.WithTimeout(ctx, r.opts.AnalyzeTimeout)
	metrics, err := r.analyzer.Analyze(analyzeCtx, path)
	cancelAnalyze()
	if err != nil {
		return types.Failed(c, types.StatusErrorAnalyze, err.Error(), runID)
	}
	if metrics == nil {
		return types.Failed(c, types.StatusErrorAnalyze, analyzer.ErrNoFrames.Error(), runID)
	}

	decision := quality.Classify(metrics, r.opts.Thresholds)
	if decision == types.DecisionUsable && r.tagger != nil {
		tagCtx, cancelTag := context.WithTimeout(ctx, r.opts.AnalyzeTimeout)
		tags, err := r.tagger.Analyze(tagCtx, path)
		cancelTag()
		if err != nil {
			return types.Failed(c, types.StatusErrorAnalyze, err.Error(), runID)
		}
		metrics.Merge(tags)
	}

	return types.ResultRecord{
		AssetID:  c.AssetID,
		Filename: c.Filename,
		Status:   types.StatusOK,
		Decision: decision,
		Metrics:  metrics,
		RunID:    runID,
	}
}

func (r *Runner) scratchDir() (string, func(), error) {
	if r.opts.ScratchDir != "" {
		if err := os.MkdirAll(r.opts.ScratchDir, 0755); err != nil {
			return "", nil, fmt.Errorf("failed to create scratch directory %s: %w", r.opts.ScratchDir, err)
		}
		return r.opts.ScratchDir, func() {}, nil
	}
	dir, err := os.MkdirTemp("", "clip-scratch-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func (r *Runner) logRecord(log *logging.Logger, rec types.ResultRecord) {
	if rec.Status == types.StatusOK {
		log.Info("asset recorded", "asset_id", rec.AssetID, "status", rec.Status, "decision", rec.Decision)
		return
	}
	log.Warn("asset failed", "asset_id", rec.AssetID, "status", rec.Status, "error", rec.Error)
}
