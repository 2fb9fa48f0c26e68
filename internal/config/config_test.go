package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pitashka")
	t.Setenv("AI_RETRY_DELAY", "1.5")
	t.Setenv("AI_TIMEOUT", "45s")
	t.Setenv("ADMIN_IDS", "1, 2,abc,3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/pitashka", cfg.Database.DSN)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 3, cfg.AI.RetryAttempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.AI.RetryDelay)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 7*24*time.Hour, cfg.AI.NutritionTTL)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Telegram.AdminIDs)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
}

func TestMetricsAddrCanBeDisabled(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pitashka")
	t.Setenv("METRICS_ADDR", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestValidateBotAndAdmin(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.ValidateBot(), "TELEGRAM_TOKEN")
	cfg.Telegram.Token = "t"
	assert.ErrorContains(t, cfg.ValidateBot(), "OPENROUTER_API_KEY")
	cfg.AI.APIKey = "k"
	assert.NoError(t, cfg.ValidateBot())

	assert.Error(t, cfg.ValidateAdmin())
	cfg.Admin.Key = "secret"
	assert.NoError(t, cfg.ValidateAdmin())
}
