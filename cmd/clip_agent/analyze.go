package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/clip-curator/internal/analyzer"
	"github.com/jonathan/clip-curator/internal/batch"
	"github.com/jonathan/clip-curator/internal/config"
	"github.com/jonathan/clip-curator/internal/fetch"
	"github.com/jonathan/clip-curator/internal/observability"
	"github.com/jonathan/clip-curator/internal/pipeline"
)

var (
	analyzeCatalog          string
	analyzeStore            string
	analyzeDatabaseURL      string
	analyzeAnalyzerCmd      string
	analyzeTaggerCmd        string
	analyzeWorkers          int
	analyzeScratchDir       string
	analyzeFetchTimeout     string
	analyzeAnalyzeTimeout   string
	analyzeOnlyDownloadable bool
	analyzeVerbose          bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze catalog clips into the result store",
	Long: `Download and analyze every catalog clip that has no record in the result store yet.
Each outcome is appended as one record, so an interrupted batch resumes where it stopped.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCatalog, "catalog", "", "Path to candidate catalog CSV")
	analyzeCmd.Flags().StringVar(&analyzeStore, "store", "", "Path to result store CSV (default clip_results.csv)")
	analyzeCmd.Flags().StringVar(&analyzeDatabaseURL, "database-url", "", "PostgreSQL URL; replaces the CSV store")
	analyzeCmd.Flags().StringVar(&analyzeAnalyzerCmd, "analyzer-cmd", "", "Quality and mood analyzer command line")
	analyzeCmd.Flags().StringVar(&analyzeTaggerCmd, "tagger-cmd", "", "Tagging analyzer command line, run on usable clips only")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Clips processed concurrently (default 1)")
	analyzeCmd.Flags().StringVar(&analyzeScratchDir, "scratch-dir", "", "Directory for downloads (default a temp dir)")
	analyzeCmd.Flags().StringVar(&analyzeFetchTimeout, "fetch-timeout", "", "Download timeout (default 5m)")
	analyzeCmd.Flags().StringVar(&analyzeAnalyzeTimeout, "analyze-timeout", "", "Analyzer timeout (default 2m)")
	analyzeCmd.Flags().BoolVar(&analyzeOnlyDownloadable, "only-downloadable", false, "Skip catalog rows without a download URL")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print a line per clip")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(config.Config{
		Catalog:          analyzeCatalog,
		Store:            analyzeStore,
		DatabaseURL:      analyzeDatabaseURL,
		AnalyzerCmd:      analyzeAnalyzerCmd,
		TaggerCmd:        analyzeTaggerCmd,
		Workers:          analyzeWorkers,
		ScratchDir:       analyzeScratchDir,
		FetchTimeout:     analyzeFetchTimeout,
		AnalyzeTimeout:   analyzeAnalyzeTimeout,
		OnlyDownloadable: analyzeOnlyDownloadable,
	})
	if err != nil {
		return err
	}
	if cfg.Catalog == "" {
		return fmt.Errorf("--catalog is required")
	}

	qualityAnalyzer, tagger, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	fetchOpts := fetch.DefaultOptions()
	if d := cfg.FetchTimeoutDuration(); d > 0 {
		fetchOpts.Timeout = d
	}

	opts := pipeline.AnalyzeOptions{
		CatalogPath:      cfg.Catalog,
		OnlyDownloadable: cfg.OnlyDownloadable,
		Store:            st,
		Fetcher:          fetch.NewHTTPFetcher(fetchOpts),
		Analyzer:         qualityAnalyzer,
		Tagger:           tagger,
		Batch: batch.Options{
			Workers:        cfg.Workers,
			ScratchDir:     cfg.ScratchDir,
			FetchTimeout:   cfg.FetchTimeoutDuration(),
			AnalyzeTimeout: cfg.AnalyzeTimeoutDuration(),
			Thresholds:     cfg.Thresholds(),
		},
		Logger: logger,
	}
	if analyzeVerbose {
		opts.OnProgress = func(ev pipeline.ProgressEvent) {
			fmt.Printf("[%s] %s\n", ev.Step, ev.Message)
		}
	}

	summary, err := pipeline.Analyze(ctx, opts)
	if summary != nil {
		observability.NewPrinter(os.Stdout).PrintSummary(summary)
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Interrupted; rerun the same command to resume.")
		}
		return fmt.Errorf("analysis failed: %w", err)
	}
	return nil
}

// buildAnalyzer returns the quality analyzer and, when configured, the tagger
// that runs on usable clips. The tagger receives the tag vocabulary in its environment.
func buildAnalyzer(cfg config.Config) (analyzer.Analyzer, analyzer.Analyzer, error) {
	if cfg.AnalyzerCmd == "" {
		return nil, nil, fmt.Errorf("--analyzer-cmd is required")
	}
	primary, err := analyzer.NewCommandAnalyzer(cfg.AnalyzerCmd, cfg.AnalyzeTimeoutDuration())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid analyzer command %q: %w", cfg.AnalyzerCmd, err)
	}
	if cfg.TaggerCmd == "" {
		return primary, nil, nil
	}

	tagger, err := analyzer.NewCommandAnalyzer(cfg.TaggerCmd, cfg.AnalyzeTimeoutDuration())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid tagger command %q: %w", cfg.TaggerCmd, err)
	}
	vocab, err := analyzer.VocabularyEnv()
	if err != nil {
		return nil, nil, err
	}
	tagger.Env = append(tagger.Env, vocab)
	return primary, tagger, nil
}
