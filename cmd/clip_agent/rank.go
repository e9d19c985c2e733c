package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/clip-curator/internal/config"
	"github.com/jonathan/clip-curator/internal/prompt"
	"github.com/jonathan/clip-curator/internal/ranking"
	"github.com/jonathan/clip-curator/internal/types"
)

var (
	rankStore  string
	rankPrompt string
	rankThemes string
	rankOutput string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank usable clips against a prompt",
	Long:  "Score every usable clip in the result store against the prompt's themes and mood, and write the ranked list as JSON.",
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankStore, "store", "", "Path to result store CSV")
	rankCmd.Flags().StringVarP(&rankPrompt, "prompt", "p", "", "Free-text request")
	rankCmd.Flags().StringVar(&rankThemes, "themes", "", "Comma-separated themes overriding those found in the prompt")
	rankCmd.Flags().StringVarP(&rankOutput, "out", "o", "", "Path to output ranked JSON file")

	if err := rankCmd.MarkFlagRequired("prompt"); err != nil {
		panic(fmt.Sprintf("failed to mark prompt flag as required: %v", err))
	}
	if err := rankCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(rankCmd)
}

func runRank(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(config.Config{Store: rankStore})
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

	desc := prompt.Describe(types.SelectionRequest{Prompt: rankPrompt, Themes: splitThemes(rankThemes)})
	ranked, err := ranking.Rank(records, desc)
	if err != nil {
		return fmt.Errorf("failed to rank clips: %w", err)
	}

	if _, err := writeJSON(rankOutput, ranked); err != nil {
		return err
	}

	fmt.Printf("Successfully ranked %d clips\n", len(ranked))
	fmt.Printf("Output: %s\n", rankOutput)
	return nil
}
