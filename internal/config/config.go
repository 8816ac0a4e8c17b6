// Package config loads the drawing console settings from the environment.
package config

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"prizedraw/internal/access"
)

// Config is the full runtime configuration.
type Config struct {
	HTTPAddr        string        `env:"DRAWING_HTTP_ADDR" envDefault:":8080"`
	DBPath          string        `env:"DRAWING_DB_PATH" envDefault:"drawing.db"`
	PIN             string        `env:"DRAWING_APP_PIN" envDefault:"123456"`
	PINLength       int           `env:"DRAWING_PIN_LENGTH" envDefault:"6"`
	SecretKey       string        `env:"DRAWING_SECRET_KEY"`
	InitialCSV      string        `env:"DRAWING_INITIAL_CSV" envDefault:"initial_registrants.csv"`
	SessionTTL      time.Duration `env:"DRAWING_SESSION_TTL" envDefault:"1h"`
	JanitorInterval time.Duration `env:"DRAWING_JANITOR_INTERVAL" envDefault:"10m"`
	ReleaseMode     bool          `env:"DRAWING_RELEASE_MODE" envDefault:"true"`
	Verbose         bool          `env:"DRAWING_VERBOSE" envDefault:"true"`
	LogFile         string        `env:"DRAWING_LOG_FILE"`

	// EphemeralKey is set when no secret key was configured and a random
	// per-process key was generated instead.
	EphemeralKey bool
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return Config{}, fmt.Errorf("generate secret key: %w", err)
		}
		cfg.SecretKey = string(key)
		cfg.EphemeralKey = true
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that env parsing cannot.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DRAWING_DB_PATH is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("DRAWING_SESSION_TTL must be positive")
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("DRAWING_JANITOR_INTERVAL must be positive")
	}
	if err := c.Access().Validate(); err != nil {
		return fmt.Errorf("access config: %w", err)
	}
	return nil
}

// Access returns the settings handed to the access gate.
func (c Config) Access() access.Config {
	return access.Config{
		PIN:        c.PIN,
		PINLength:  c.PINLength,
		SecretKey:  []byte(c.SecretKey),
		SessionTTL: c.SessionTTL,
	}
}
