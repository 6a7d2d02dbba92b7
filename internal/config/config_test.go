package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "session_key: secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3003", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 86400, cfg.SessionMaxAge)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadSize)
	assert.Equal(t, "./data/gradeboard.db", cfg.Database.Path)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 30, cfg.GetRetentionDays())
	assert.Equal(t, "0 3 * * *", cfg.GetPruneSchedule())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
listen: " 127.0.0.1:8080 "
log_level: DEBUG
session_key: secret
api_key: collaborator
cache:
  type: Redis
  redis_url: localhost:6379
history:
  retention_days: 7
  prune_schedule: "*/5 * * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "collaborator", cfg.APIKey)
	assert.Equal(t, CacheTypeRedis, cfg.Cache.Type)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisURL)
	assert.Equal(t, 7, cfg.GetRetentionDays())
	assert.Equal(t, "*/5 * * * *", cfg.GetPruneSchedule())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "session_key: from-file\n")
	t.Setenv("GRADEBOARD_SESSION_KEY", "from-env")
	t.Setenv("GRADEBOARD_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.SessionKey)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Listen:        ":3003",
			SessionKey:    "secret",
			SessionMaxAge: 60,
			MaxUploadSize: 1024,
			Database:      &DatabaseConfig{Path: "test.db"},
			Cache:         &CacheConfig{Type: CacheTypeMemory},
			History:       &HistoryConfig{RetentionDays: 1, PruneSchedule: "0 3 * * *"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing session key", mutate: func(c *Config) { c.SessionKey = "" }, wantErr: "session key is required"},
		{name: "missing database", mutate: func(c *Config) { c.Database = nil }, wantErr: "database path is required"},
		{name: "bad session age", mutate: func(c *Config) { c.SessionMaxAge = 0 }, wantErr: "session max age"},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Type = "memcached" }, wantErr: "unknown cache type"},
		{name: "redis without url", mutate: func(c *Config) { c.Cache.Type = CacheTypeRedis }, wantErr: "Redis URL is required"},
		{name: "bad cron", mutate: func(c *Config) { c.History.PruneSchedule = "daily" }, wantErr: "5 fields"},
		{name: "nil cache defaults to memory", mutate: func(c *Config) { c.Cache = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := validateConfig(c)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, c.Cache)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
