package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	APIURL       string        `env:"LOSTCASTLE_API_URL" envDefault:"http://localhost:8000"`
	APIPrefix    string        `env:"LOSTCASTLE_API_PREFIX" envDefault:"/api/v1"`
	HTTPTimeout  time.Duration `env:"LOSTCASTLE_HTTP_TIMEOUT" envDefault:"0s"`
	Locale       string        `env:"LOSTCASTLE_LOCALE" envDefault:"en"`
	SaveDir      string        `env:"LOSTCASTLE_SAVE_DIR" envDefault:".saves"`
	DebugLog     string        `env:"LOSTCASTLE_DEBUG_LOG"`
	StubAddr     string        `env:"LOSTCASTLE_STUB_ADDR" envDefault:":8000"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout < 0 {
		return nil, fmt.Errorf("LOSTCASTLE_HTTP_TIMEOUT must not be negative")
	}
	if cfg.APIPrefix != "" && !strings.HasPrefix(cfg.APIPrefix, "/") {
		cfg.APIPrefix = "/" + cfg.APIPrefix
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	return &cfg, nil
}

// BaseURL is the API URL joined with the API prefix.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.APIURL, "/") + c.APIPrefix
}
