// Package config loads the fsmdemo process configuration from the
// environment, after reading a .env file if one exists.
package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrParsingConfig = errors.New("failed to parse config")

// Config holds the demo settings. Command-line flags override these.
type Config struct {
	LogLevel     string        `env:"FSMDEMO_LOG_LEVEL" envDefault:"info"`
	LogFile      string        `env:"FSMDEMO_LOG_FILE"`
	LogMaxSizeMB int           `env:"FSMDEMO_LOG_MAX_SIZE_MB" envDefault:"10"`
	RelockAfter  time.Duration `env:"FSMDEMO_RELOCK_AFTER" envDefault:"5s"`
	Code         string        `env:"FSMDEMO_CODE" envDefault:"1234"`
}

var defaultEnvLoaded sync.Once

// Load parses the environment into a Config. The default .env file is read
// once per process; a missing file is not an error.
func Load() (Config, error) {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// LoadEnv reads the given .env files into the process environment. Variables
// already set are not overridden.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}
