package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/clip-curator/internal/config"
	"github.com/jonathan/clip-curator/internal/server"
	"github.com/jonathan/clip-curator/internal/server/ratelimit"
)

var (
	servePort     int
	serveStore    string
	serveTemplate string
	serveUseLLM   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that answers selection, summary and search requests from the result store.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Path to result store CSV")
	serveCmd.Flags().StringVar(&serveTemplate, "template", "", "Path to YAML story template (default built-in)")
	serveCmd.Flags().BoolVar(&serveUseLLM, "use-llm", false, "Extract themes with Gemini (needs GEMINI_API_KEY)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(config.Config{Port: servePort, Store: serveStore, Template: serveTemplate})
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	extractor, closeExtractor, err := newExtractor(ctx, cfg, serveUseLLM, logger)
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

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		Store:     st,
		Extractor: extractor,
		Template:  template,
		Logger:    logger,
		RateLimit: ratelimit.LoadConfig(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
