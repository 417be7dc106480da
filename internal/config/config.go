package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
// DatabaseURL may be empty; the catalog and action journal are disabled
// without it. RedisURL must point at a reachable instance since Redis holds
// the live game documents.
type Config struct {
	Port        string `env:"PORT" envDefault:"8010"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	JWTSecret   string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// ModelPath points at an ONNX value model for the neural playstyle.
	ModelPath string `env:"MODEL_PATH"`

	AllowOrigins string `env:"ALLOW_ORIGINS" envDefault:"*"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
	Dev      bool   `env:"DEV" envDefault:"false"`

	GatherCap       bool `env:"GATHER_CAP" envDefault:"true"`
	VulnerableSweep bool `env:"VULNERABLE_SWEEP" envDefault:"false"`
}

// Load reads .env when present, then parses the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// GoogleEnabled reports whether the Google OAuth flow is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
