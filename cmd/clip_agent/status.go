package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/clip-curator/internal/config"
	"github.com/jonathan/clip-curator/internal/observability"
	"github.com/jonathan/clip-curator/internal/quality"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

var statusStore string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show result store counts",
	Long:  "Count result records per status and decision and report the mean quality score of analyzed clips.",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusStore, "store", "", "Path to result store CSV")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(config.Config{Store: statusStore})
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openReader(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	records, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	mean, scored := meanQuality(records)
	observability.NewPrinter(os.Stdout).PrintStoreStatus(store.Summarize(records), mean, scored)
	return nil
}

// meanQuality averages the quality score over ok records that carry quality metrics.
func meanQuality(records []types.ResultRecord) (float64, int) {
	var sum float64
	var n int
	for _, r := range records {
		if r.Status != types.StatusOK || r.Metrics == nil || r.Metrics.Quality == nil {
			continue
		}
		sum += quality.Score(r.Metrics.Quality)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
