// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/mobile-money-parser/internal/logger"
)

var (
	// ErrInvalidLogLevel is returned when LOG_LEVEL names no known level.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidValue is returned when a numeric setting cannot be parsed.
	ErrInvalidValue = errors.New("invalid config value")
)

const (
	DefaultPort        = "8080"
	DefaultBodyLimitKB = 64
)

// Config holds the server and logging settings.
type Config struct {
	Port        string
	LogLevel    zerolog.Level
	LogFormat   logger.Format
	BodyLimitKB int
	StaticDir   string
}

// Load reads .env files (if present) and then the environment. Values
// already set in the environment are never overridden by a file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", DefaultPort),
		LogFormat:   logger.FormatConsole,
		BodyLimitKB: DefaultBodyLimitKB,
		StaticDir:   strings.TrimSpace(os.Getenv("STATIC_DIR")),
	}

	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, os.Getenv("LOG_LEVEL"))
	}
	cfg.LogLevel = level

	switch f := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))); f {
	case "", string(logger.FormatConsole):
	case string(logger.FormatJSON):
		cfg.LogFormat = logger.FormatJSON
	default:
		return nil, fmt.Errorf("%w: LOG_FORMAT=%q (use console or json)", ErrInvalidValue, f)
	}

	if v := strings.TrimSpace(os.Getenv("BODY_LIMIT_KB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: BODY_LIMIT_KB=%q", ErrInvalidValue, v)
		}
		cfg.BodyLimitKB = n
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// BodyLimit is the request body limit in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitKB * 1024
}

// Logger builds the application logger described by the config.
func (c *Config) Logger() zerolog.Logger {
	return logger.NewWith(os.Stderr, c.LogFormat, c.LogLevel)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
