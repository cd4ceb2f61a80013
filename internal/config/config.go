// Package config loads rulekit settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables win over it.
//
// Optional variables:
//   - RULEKIT_LOG_LEVEL: debug, info, warn or error (default "info").
//   - RULEKIT_LOG_FORMAT: text or json (default "text").
//   - RULEKIT_JOURNAL: SQLite path for the firing journal (default empty,
//     journal disabled).
//   - RULEKIT_SEED: int64 seed for the shared random source (default unset,
//     time-seeded).
//   - RULEKIT_STRICT: treat warnings as failures in validate (default false).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/roach88/rulekit/internal/logging"
)

const (
	defaultLogLevel = "info"
	defaultEnvFile  = ".env"
)

// Config holds the runtime configuration for the rulekit CLI.
type Config struct {
	LogLevel  string
	LogFormat logging.Format
	Journal   string
	Seed      int64
	HasSeed   bool
	Strict    bool
}

// Load reads .env (if any) and then the environment.
func Load() (Config, error) {
	if err := loadEnvFile(defaultEnvFile); err != nil {
		return Config{}, err
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only, applying
// defaults where a variable is unset.
func FromEnv() (Config, error) {
	cfg := Config{
		LogLevel:  defaultLogLevel,
		LogFormat: logging.FormatText,
		Journal:   strings.TrimSpace(os.Getenv("RULEKIT_JOURNAL")),
	}

	if value := strings.TrimSpace(os.Getenv("RULEKIT_LOG_LEVEL")); value != "" {
		cfg.LogLevel = value
	}

	if value := os.Getenv("RULEKIT_LOG_FORMAT"); value != "" {
		format, ok := logging.ParseFormat(value)
		if !ok {
			return Config{}, fmt.Errorf("parse RULEKIT_LOG_FORMAT: unknown format %q", value)
		}
		cfg.LogFormat = format
	}

	if value := strings.TrimSpace(os.Getenv("RULEKIT_SEED")); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse RULEKIT_SEED: %w", err)
		}
		cfg.Seed = seed
		cfg.HasSeed = true
	}

	if value := strings.TrimSpace(os.Getenv("RULEKIT_STRICT")); value != "" {
		strict, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse RULEKIT_STRICT: %w", err)
		}
		cfg.Strict = strict
	}

	return cfg, nil
}

// loadEnvFile applies path to the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}
