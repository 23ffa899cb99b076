package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "orb-trader/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Missing config falls back to defaults and writes a template.
	assert.Equal(t, Default().Account.Size, cfg.Account.Size)
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)
}

func TestLoadReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	toml := `
[account]
size = 100000.0
risk_per_trade = 0.02
max_trades_per_day = 3
max_daily_loss_fraction = 0.05
max_notional_fraction = 0.10

[universe]
us_stocks = ["AAPL"]
uk_stocks = []
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 100000.0, cfg.Account.Size)
	assert.Equal(t, 0.02, cfg.Account.RiskPerTrade)
	assert.Equal(t, 3, cfg.Account.MaxTradesPerDay)
	// User lists replace the defaults wholesale: removed symbols must
	// not survive, and an empty list stays empty.
	assert.Equal(t, []string{"AAPL"}, cfg.Universe.USStocks)
	assert.Empty(t, cfg.Universe.UKStocks)
	// Unset sections keep their defaults.
	assert.Equal(t, 30, cfg.Strategy.OpeningRangeMinutes)
	assert.Equal(t, "Asia/Dubai", cfg.Engine.Timezone)
}

func TestPartialSectionKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	toml := `
[account]
size = 200000.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 200000.0, cfg.Account.Size)
	// Keys the user did not set within the same section keep defaults.
	assert.Equal(t, 0.01, cfg.Account.RiskPerTrade)
	assert.Equal(t, 5, cfg.Account.MaxTradesPerDay)
	assert.Len(t, cfg.Universe.USStocks, 8)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ACCOUNT_SIZE", "75000")
	t.Setenv("RISK_PER_TRADE", "0.015")
	t.Setenv("TELEGRAM_TOKEN", "tok123")
	t.Setenv("TELEGRAM_CHAT_ID", "chat456")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 75000.0, cfg.Account.Size)
	assert.Equal(t, 0.015, cfg.Account.RiskPerTrade)
	assert.True(t, cfg.Notifications.Telegram.Enabled)
	assert.Equal(t, "tok123", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "chat456", cfg.Notifications.Telegram.ChatID)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero account size", func(c *Config) { c.Account.Size = 0 }},
		{"excessive risk", func(c *Config) { c.Account.RiskPerTrade = 0.10 }},
		{"zero max trades", func(c *Config) { c.Account.MaxTradesPerDay = 0 }},
		{"loss fraction over one", func(c *Config) { c.Account.MaxDailyLossFraction = 1.5 }},
		{"bar interval exceeds window", func(c *Config) { c.Strategy.BarIntervalMinutes = 60 }},
		{"bad timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }},
		{"empty universe", func(c *Config) {
			c.Universe.USStocks = nil
			c.Universe.UKStocks = nil
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
		})
	}
}
