package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/clip-curator/internal/config"
	"github.com/jonathan/clip-curator/internal/observability"
	"github.com/jonathan/clip-curator/internal/search"
)

var (
	searchStore string
	searchQuery string
	searchTop   int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find analyzed clips whose tags match a query",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchStore, "store", "", "Path to result store CSV")
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Words to look for in clip tags")
	searchCmd.Flags().IntVar(&searchTop, "top", search.DefaultTopK, "Maximum number of hits")

	if err := searchCmd.MarkFlagRequired("query"); err != nil {
		panic(fmt.Sprintf("failed to mark query flag as required: %v", err))
	}

	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(config.Config{Store: searchStore})
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

	hits := search.Search(records, searchQuery, searchTop)
	observability.NewPrinter(os.Stdout).PrintHits(searchQuery, hits)
	return nil
}
