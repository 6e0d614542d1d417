// Package config loads the biblioteca CLI configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/biblioteca-app/sessionguard/store"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config aggregates runtime configuration for the CLI.
type Config struct {
	API    APIConfig
	Store  StoreConfig
	Logger LoggerConfig
}

// APIConfig controls how the Biblioteca API is reached.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StoreConfig selects and configures the session backend.
type StoreConfig struct {
	Backend     string
	SQLitePath  string
	Redis       store.RedisConfig
	RedisPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// ErrInvalidConfig is returned when an environment value cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads configuration from environment variables, applying defaults
// where possible. Variables from the given .env files, or ./.env when none
// are given, fill in what the environment does not set.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	timeoutSeconds, err := getEnvAsInt("BIBLIOTECA_TIMEOUT_SECONDS", 20)
	if err != nil {
		return nil, err
	}
	if timeoutSeconds < 0 {
		return nil, fmt.Errorf("%w: BIBLIOTECA_TIMEOUT_SECONDS must not be negative", ErrInvalidConfig)
	}

	redisDB, err := getEnvAsInt("BIBLIOTECA_REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("BIBLIOTECA_API_URL", "http://localhost:8080/api/v1"), "/"),
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("BIBLIOTECA_STORE", StoreSQLite)),
			SQLitePath: getEnv("BIBLIOTECA_SQLITE_PATH", defaultSQLitePath()),
			Redis: store.RedisConfig{
				Addr:     getEnv("BIBLIOTECA_REDIS_ADDR", "localhost:6379"),
				Password: getEnv("BIBLIOTECA_REDIS_PASSWORD", ""),
				DB:       redisDB,
			},
			RedisPrefix: getEnv("BIBLIOTECA_REDIS_PREFIX", store.DefaultRedisPrefix),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getEnv("BIBLIOTECA_LOG_LEVEL", "info")),
		},
	}

	switch cfg.Store.Backend {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("%w: unknown BIBLIOTECA_STORE %q", ErrInvalidConfig, cfg.Store.Backend)
	}

	return cfg, nil
}

func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "biblioteca-session.db"
	}
	return filepath.Join(dir, "biblioteca", "session.db")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %w", ErrInvalidConfig, key, err)
	}
	return n, nil
}
