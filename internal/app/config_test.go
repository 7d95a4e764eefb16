package app

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanmanager/cleanmanager/internal/profitability"
)

func TestLoadConfigDefaultsToAPISource(t *testing.T) {
	t.Setenv("SUPA_API_URL", "https://worker.example.com")
	t.Setenv("WARMUP_TENANTS", "ana@example.com, ,luis@example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DataSourceAPI, cfg.DataSource)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, profitability.DefaultTrendMonths, cfg.TrendMonths)
	assert.Equal(t, []string{"ana@example.com", "luis@example.com"}, cfg.WarmupTenants)
	assert.False(t, cfg.UsesPostgres())
}

func TestLoadConfigRequiresWorkerURL(t *testing.T) {
	t.Setenv("SUPA_API_URL", "")
	t.Setenv("DATA_SOURCE", "api")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPA_API_URL")
}

func TestLoadConfigPostgres(t *testing.T) {
	t.Setenv("DATA_SOURCE", " Postgres ")
	t.Setenv("PG_DSN", "postgres://u:p@db:5432/cm")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.UsesPostgres())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("DATA_SOURCE", "mongo")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("DATA_SOURCE", "api")
	t.Setenv("SUPA_API_URL", "https://worker.example.com")
	t.Setenv("TREND_MONTHS", "30")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
