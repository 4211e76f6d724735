package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port             string        `env:"PORT" envDefault:"8080"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName     string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL         string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	DataDir          string        `env:"DATA_DIR" envDefault:"./data"`
	GameTTL          time.Duration `env:"GAME_TTL" envDefault:"24h"`
	LockTTL          time.Duration `env:"LOCK_TTL" envDefault:"10s"`
	DefaultCharacter string        `env:"DEFAULT_CHARACTER" envDefault:"DAVID"`

	LogLevel slog.Level
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
