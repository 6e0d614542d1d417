package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblioteca-app/sessionguard/store"
)

var configKeys = []string{
	"BIBLIOTECA_API_URL",
	"BIBLIOTECA_TIMEOUT_SECONDS",
	"BIBLIOTECA_STORE",
	"BIBLIOTECA_SQLITE_PATH",
	"BIBLIOTECA_REDIS_ADDR",
	"BIBLIOTECA_REDIS_PASSWORD",
	"BIBLIOTECA_REDIS_DB",
	"BIBLIOTECA_REDIS_PREFIX",
	"BIBLIOTECA_LOG_LEVEL",
}

// clearEnv blanks every config variable for the test and runs it from an
// empty directory so no stray .env file is picked up.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.NotEmpty(t, cfg.Store.SQLitePath)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 0, cfg.Store.Redis.DB)
	assert.Equal(t, store.DefaultRedisPrefix, cfg.Store.RedisPrefix)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BIBLIOTECA_API_URL", "https://biblioteca.example/api/v1/")
	t.Setenv("BIBLIOTECA_TIMEOUT_SECONDS", "5")
	t.Setenv("BIBLIOTECA_STORE", "Redis")
	t.Setenv("BIBLIOTECA_REDIS_ADDR", "cache:6380")
	t.Setenv("BIBLIOTECA_REDIS_PASSWORD", "segredo")
	t.Setenv("BIBLIOTECA_REDIS_DB", "3")
	t.Setenv("BIBLIOTECA_REDIS_PREFIX", "app:")
	t.Setenv("BIBLIOTECA_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://biblioteca.example/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, store.RedisConfig{Addr: "cache:6380", Password: "segredo", DB: 3}, cfg.Store.Redis)
	assert.Equal(t, "app:", cfg.Store.RedisPrefix)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range configKeys {
		// godotenv never overrides variables that are already set.
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), "biblioteca.env")
	require.NoError(t, os.WriteFile(path, []byte("BIBLIOTECA_STORE=memory\nBIBLIOTECA_TIMEOUT_SECONDS=0\n"), 0o600))
	t.Cleanup(func() {
		for _, k := range configKeys {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric timeout", key: "BIBLIOTECA_TIMEOUT_SECONDS", value: "vinte"},
		{name: "negative timeout", key: "BIBLIOTECA_TIMEOUT_SECONDS", value: "-1"},
		{name: "non-numeric redis db", key: "BIBLIOTECA_REDIS_DB", value: "um"},
		{name: "unknown backend", key: "BIBLIOTECA_STORE", value: "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, cfg)
		})
	}

	t.Run("missing env file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
		assert.Error(t, err)
	})
}
