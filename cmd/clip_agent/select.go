package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/clip-curator/internal/config"
	"github.com/jonathan/clip-curator/internal/observability"
	"github.com/jonathan/clip-curator/internal/pipeline"
	"github.com/jonathan/clip-curator/internal/schemas"
	"github.com/jonathan/clip-curator/internal/selection"
	"github.com/jonathan/clip-curator/internal/types"
)

var (
	selectStore      string
	selectPrompt     string
	selectThemes     string
	selectTemplate   string
	selectOutput     string
	selectBrightness float64
	selectContrast   float64
	selectTemp       float64
	selectUseLLM     bool
	selectVerbose    bool
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Assemble a story from ranked clips",
	Long: `Rank the usable clips against the prompt and fill the story template in section order.
The assembly is written as JSON and its ordered asset ids are printed to stdout.`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().StringVar(&selectStore, "store", "", "Path to result store CSV")
	selectCmd.Flags().StringVarP(&selectPrompt, "prompt", "p", "", "Free-text request")
	selectCmd.Flags().StringVar(&selectThemes, "themes", "", "Comma-separated themes overriding those found in the prompt")
	selectCmd.Flags().StringVar(&selectTemplate, "template", "", "Path to YAML story template (default built-in)")
	selectCmd.Flags().StringVarP(&selectOutput, "out", "o", "", "Path to output assembly JSON file")
	selectCmd.Flags().Float64Var(&selectBrightness, "mood-brightness", 0, "Target brightness (0-255)")
	selectCmd.Flags().Float64Var(&selectContrast, "mood-contrast", 0, "Target contrast")
	selectCmd.Flags().Float64Var(&selectTemp, "mood-temp", 0, "Target color temperature (red minus blue)")
	selectCmd.Flags().BoolVar(&selectUseLLM, "use-llm", false, "Extract themes with Gemini (needs GEMINI_API_KEY)")
	selectCmd.Flags().BoolVarP(&selectVerbose, "verbose", "v", false, "Print the descriptor, ranking and assembly")

	if err := selectCmd.MarkFlagRequired("prompt"); err != nil {
		panic(fmt.Sprintf("failed to mark prompt flag as required: %v", err))
	}
	if err := selectCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(config.Config{Store: selectStore, Template: selectTemplate})
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	extractor, closeExtractor, err := newExtractor(ctx, cfg, selectUseLLM, logger)
	if err != nil {
		return err
	}
	defer closeExtractor()

	template, err := loadTemplate(cfg.Template)
	if err != nil {
		return err
	}

	st, err := openReader(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	req := types.SelectionRequest{Prompt: selectPrompt, Themes: splitThemes(selectThemes)}
	if moodFlagsSet(cmd) {
		req.Mood = &types.MoodTarget{Brightness: selectBrightness, Contrast: selectContrast, Temp: selectTemp}
	}

	result, err := pipeline.Select(ctx, st, req, pipeline.SelectOptions{Extractor: extractor, Template: template})
	if err != nil {
		return fmt.Errorf("failed to select clips: %w", err)
	}

	data, err := writeJSON(selectOutput, result.Assembly)
	if err != nil {
		return err
	}

	schemaPath := schemas.ResolveSchemaPath(schemas.AssemblySchema)
	if err := schemas.ValidateBytes(schemaPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: assembly failed schema validation: %v\n", err)
	}

	if selectVerbose {
		p := observability.NewPrinter(os.Stdout)
		p.PrintDescriptor(result.Descriptor)
		p.PrintRanked(result.Ranked)
		p.PrintAssembly(result.Assembly, selection.TemplateLength(template))
	}

	fmt.Println(strings.Join(result.Assembly.AssetIDs(), "\n"))
	return nil
}

func moodFlagsSet(cmd *cobra.Command) bool {
	for _, name := range []string{"mood-brightness", "mood-contrast", "mood-temp"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
