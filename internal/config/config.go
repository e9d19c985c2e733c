// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/clip-curator/internal/quality"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values come from Defaults, the environment or CLI flags.
type Config struct {
	// Paths
	Catalog    string `json:"catalog,omitempty"`     // Candidate catalog CSV
	Store      string `json:"store,omitempty"`       // Result store CSV
	ScratchDir string `json:"scratch_dir,omitempty"` // Where downloads live while analyzed
	Template   string `json:"template,omitempty"`    // Optional YAML story template

	// Storage
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"` // PostgreSQL store, overrides Store

	// Batch
	Workers          int    `json:"workers,omitempty" validate:"gte=0,lte=64"`
	FetchTimeout     string `json:"fetch_timeout,omitempty"`   // Go duration, e.g. "5m"
	AnalyzeTimeout   string `json:"analyze_timeout,omitempty"` // Go duration, e.g. "2m"
	AnalyzerCmd      string `json:"analyzer_cmd,omitempty"`    // Quality+mood analyzer command line
	TaggerCmd        string `json:"tagger_cmd,omitempty"`      // Tagging analyzer command line
	OnlyDownloadable bool   `json:"only_downloadable,omitempty"`

	// Quality thresholds
	MinSharpness  float64 `json:"min_sharpness,omitempty" validate:"gte=0"`
	MinBrightness float64 `json:"min_brightness,omitempty" validate:"gte=0,lte=255"`
	MaxBrightness float64 `json:"max_brightness,omitempty" validate:"gte=0,lte=255"`
	MinMotion     float64 `json:"min_motion,omitempty" validate:"gte=0"`

	// Behavior
	APIKey  string `json:"api_key,omitempty"` // Gemini API key for prompt extraction
	LogMode string `json:"log_mode,omitempty" validate:"omitempty,oneof=dev development prod production"`
	Port    int    `json:"port,omitempty" validate:"gte=0,lte=65535"`
}

// Defaults returns the stock configuration.
func Defaults() Config {
	th := quality.DefaultThresholds()
	return Config{
		Store:          "clip_results.csv",
		Workers:        1,
		FetchTimeout:   "5m",
		AnalyzeTimeout: "2m",
		MinSharpness:   th.MinSharpness,
		MinBrightness:  th.MinBrightness,
		MaxBrightness:  th.MaxBrightness,
		MinMotion:      th.MinMotion,
		LogMode:        "dev",
		Port:           8080,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks field ranges and the cross-field rules. Required inputs are
// checked by each command after flags are merged.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.MaxBrightness != 0 && c.MinBrightness > c.MaxBrightness {
		return fmt.Errorf("config error: 'min_brightness' must not exceed 'max_brightness'")
	}
	if _, err := parseDuration(c.FetchTimeout); err != nil {
		return fmt.Errorf("config error: 'fetch_timeout': %w", err)
	}
	if _, err := parseDuration(c.AnalyzeTimeout); err != nil {
		return fmt.Errorf("config error: 'analyze_timeout': %w", err)
	}

	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}
	if c.Catalog != "" {
		if _, err := os.Stat(c.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.Catalog)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	for _, f := range []struct {
		dst *string
		def string
	}{
		{&result.Catalog, defaults.Catalog},
		{&result.Store, defaults.Store},
		{&result.ScratchDir, defaults.ScratchDir},
		{&result.Template, defaults.Template},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.FetchTimeout, defaults.FetchTimeout},
		{&result.AnalyzeTimeout, defaults.AnalyzeTimeout},
		{&result.AnalyzerCmd, defaults.AnalyzerCmd},
		{&result.TaggerCmd, defaults.TaggerCmd},
		{&result.APIKey, defaults.APIKey},
		{&result.LogMode, defaults.LogMode},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}

	// Numeric fields: use default if zero
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MinSharpness == 0 {
		result.MinSharpness = defaults.MinSharpness
	}
	if result.MinBrightness == 0 {
		result.MinBrightness = defaults.MinBrightness
	}
	if result.MaxBrightness == 0 {
		result.MaxBrightness = defaults.MaxBrightness
	}
	if result.MinMotion == 0 {
		result.MinMotion = defaults.MinMotion
	}

	// Bool fields: cannot distinguish unset from false, so CLI flags win
	return result
}

// Thresholds returns the quality thresholds, using stock values for unset fields.
func (c *Config) Thresholds() quality.Thresholds {
	th := quality.DefaultThresholds()
	if c.MinSharpness > 0 {
		th.MinSharpness = c.MinSharpness
	}
	if c.MinBrightness > 0 {
		th.MinBrightness = c.MinBrightness
	}
	if c.MaxBrightness > 0 {
		th.MaxBrightness = c.MaxBrightness
	}
	if c.MinMotion > 0 {
		th.MinMotion = c.MinMotion
	}
	return th
}

// FetchTimeoutDuration parses FetchTimeout; zero when unset.
func (c *Config) FetchTimeoutDuration() time.Duration {
	d, _ := parseDuration(c.FetchTimeout)
	return d
}

// AnalyzeTimeoutDuration parses AnalyzeTimeout; zero when unset.
func (c *Config) AnalyzeTimeoutDuration() time.Duration {
	d, _ := parseDuration(c.AnalyzeTimeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", s)
	}
	return d, nil
}
