package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config is the server configuration resolved from the environment
type Config struct {
	Host     string
	Port     int
	LogLevel slog.Level

	StorageType string
	RedisURL    string
	DatabaseURL string
	NATSURL     string

	PreGameDuration  time.Duration
	PostGameDuration time.Duration

	AllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Host:        getenv("HOST"),
		StorageType: strings.ToLower(getenv("STORAGE_TYPE")),
		RedisURL:    getenv("REDIS_URL"),
		DatabaseURL: getenv("DATABASE_URL"),
		NATSURL:     getenv("NATS_URL"),
	}
	if cfg.StorageType == "" {
		cfg.StorageType = StorageMemory
	}

	var err error
	if cfg.Port, err = intOr(getenv("PORT"), 8080); err != nil {
		return Config{}, fmt.Errorf("PORT: %w", err)
	}
	if cfg.LogLevel, err = level(getenv("LOG_LEVEL")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.PreGameDuration, err = durationOr(getenv("PREGAME_DURATION"), 45*time.Second); err != nil {
		return Config{}, fmt.Errorf("PREGAME_DURATION: %w", err)
	}
	if cfg.PostGameDuration, err = durationOr(getenv("POSTGAME_DURATION"), 60*time.Second); err != nil {
		return Config{}, fmt.Errorf("POSTGAME_DURATION: %w", err)
	}
	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks that the selected backend has what it needs
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or postgres", c.StorageType)
	}
	if c.PreGameDuration <= 0 || c.PostGameDuration <= 0 {
		return errors.New("phase durations must be positive")
	}
	return nil
}

func intOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

func level(v string) (slog.Level, error) {
	var l slog.Level
	if v == "" {
		return slog.LevelInfo, nil
	}
	err := l.UnmarshalText([]byte(v))
	return l, err
}
