package ratelimit

import (
	"os"
	"strconv"
)

// Environment variables read by LoadConfig
const (
	EnvEnabled         = "CLIP_RATE_LIMIT_ENABLED"
	EnvSelectPerMinute = "CLIP_RATE_LIMIT_SELECT_PER_MINUTE"
)

// LoadConfig returns DefaultConfig adjusted by the environment.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	if v, err := strconv.ParseBool(os.Getenv(EnvEnabled)); err == nil {
		cfg.Enabled = v
	}
	if n, err := strconv.Atoi(os.Getenv(EnvSelectPerMinute)); err == nil && n > 0 {
		for i := range cfg.Rules {
			if cfg.Rules[i].Path == "/select" {
				cfg.Rules[i].PerMinute = n
			}
		}
	}
	return cfg
}
