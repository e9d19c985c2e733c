package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/clip-curator/internal/config"
	"github.com/jonathan/clip-curator/internal/llm"
	"github.com/jonathan/clip-curator/internal/logging"
	"github.com/jonathan/clip-curator/internal/prompt"
	"github.com/jonathan/clip-curator/internal/selection"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

// resolveConfig layers flag values over the config file, then the
// environment, then the stock defaults.
func resolveConfig(flags config.Config) (config.Config, error) {
	merged := flags
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		merged = flags.MergeWithDefaults(*fileCfg)
		if !merged.OnlyDownloadable {
			merged.OnlyDownloadable = fileCfg.OnlyDownloadable
		}
	}
	merged.ApplyEnv()
	merged = merged.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{Path: cfg.Store, DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return st, nil
}

// openReader opens the result store for the read-only commands. A CSV store
// that a running batch is appending to is left exactly as it is.
func openReader(ctx context.Context, cfg config.Config) (store.Reader, error) {
	st, err := store.OpenReader(ctx, store.Options{Path: cfg.Store, DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return st, nil
}

func newLogger(cfg config.Config) (*logging.Logger, error) {
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// newExtractor returns the Gemini-backed extractor when useLLM is set and an
// API key is configured, and the keyword extractor otherwise.
func newExtractor(ctx context.Context, cfg config.Config, useLLM bool, logger *logging.Logger) (prompt.Extractor, func(), error) {
	if !useLLM {
		return prompt.KeywordExtractor{}, func() {}, nil
	}
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("%s is required for --use-llm", config.EnvAPIKey)
	}
	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return prompt.NewLLMExtractor(client, logger), func() { _ = client.Close() }, nil
}

func loadTemplate(path string) ([]types.StorySection, error) {
	if path == "" {
		return selection.DefaultTemplate(), nil
	}
	tmpl, err := selection.LoadTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return tmpl, nil
}

func splitThemes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// writeJSON writes v as indented JSON, creating the parent directory.
func writeJSON(path string, v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	return data, nil
}
