package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)
	require.Equal(t, []string{"https://practice.example.com", "https://admin.practice.example.com"}, cfg.Server.CORS.AllowedOrigins)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, "https://api.practice.example.com", cfg.Client.BaseURL)
	require.Equal(t, 20*time.Second, cfg.Client.Timeout)
	require.Equal(t, 2*time.Minute, cfg.Client.RequestCache.TTL)
	require.Equal(t, 50, cfg.Client.RequestCache.MaxEntries)
	require.Equal(t, "@every 30s", cfg.Client.RequestCache.SweepSchedule)
	require.Equal(t, 500, cfg.Client.Cache.MaxEntries)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)

	require.Equal(t, "@every 10s", cfg.Jobs.MaintenanceRefresh)
	require.Equal(t, "@daily", cfg.Jobs.CompactOrder)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 5*time.Minute, cfg.Client.RequestCache.TTL)
	require.Equal(t, 100, cfg.Client.RequestCache.MaxEntries)
	require.Zero(t, cfg.Client.Cache.MaxEntries)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("PRACTICE_SERVER_PORT", "7070")
	t.Setenv("PRACTICE_CLIENT_REQUEST_CACHE_TTL", "90s")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 90*time.Second, cfg.Client.RequestCache.TTL)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8000},
			Database: DatabaseConfig{Driver: "sqlite"},
			Client:   ClientConfig{RequestCache: RequestCacheConfig{TTL: time.Minute, MaxEntries: 10}},
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Driver = "oracle"
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Client.RequestCache.MaxEntries = 0
	require.Error(t, cfg.Validate())

	var nilCfg *Config
	require.Error(t, nilCfg.Validate())
}
