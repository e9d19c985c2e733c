package config

import "os"

// Environment variables read by ApplyEnv
const (
	EnvDatabaseURL = "CLIP_DATABASE_URL"
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvLogMode     = "CLIP_LOG_MODE"
)

// ApplyEnv fills unset fields from the environment. Values already set in
// the config file or by flags are kept.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv(EnvDatabaseURL)
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv(EnvAPIKey)
	}
	if c.LogMode == "" {
		c.LogMode = os.Getenv(EnvLogMode)
	}
}
