// Package config provides configuration management for the ORB trading engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	apperrors "orb-trader/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Account       AccountConfig      `mapstructure:"account"`
	Strategy      StrategyConfig     `mapstructure:"strategy"`
	Universe      UniverseConfig     `mapstructure:"universe"`
	Engine        EngineConfig       `mapstructure:"engine"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// AccountConfig holds account and risk configuration.
type AccountConfig struct {
	Size                 float64 `mapstructure:"size"`
	RiskPerTrade         float64 `mapstructure:"risk_per_trade"`
	MaxTradesPerDay      int     `mapstructure:"max_trades_per_day"`
	MaxDailyLossFraction float64 `mapstructure:"max_daily_loss_fraction"`
	MaxNotionalFraction  float64 `mapstructure:"max_notional_fraction"`
}

// StrategyConfig holds ORB strategy parameters.
type StrategyConfig struct {
	OpeningRangeMinutes int     `mapstructure:"opening_range_minutes"`
	BarIntervalMinutes  int     `mapstructure:"bar_interval_minutes"`
	EntryOffset         float64 `mapstructure:"entry_offset"`
	StopOffset          float64 `mapstructure:"stop_offset"`
	MinConfirmations    int     `mapstructure:"min_confirmations"`

	// Classifier policy knobs.
	HighVolATRRatio    float64 `mapstructure:"high_vol_atr_ratio"`
	HighVolTrendMin    float64 `mapstructure:"high_vol_trend_min"`
	TrendingATRRatio   float64 `mapstructure:"trending_atr_ratio"`
	TrendingTrendMin   float64 `mapstructure:"trending_trend_min"`
	NormalATRRatio     float64 `mapstructure:"normal_atr_ratio"`
	VolumeSurgeStrong  float64 `mapstructure:"volume_surge_strong"`
	VolumeTrendStrong  float64 `mapstructure:"volume_trend_strong"`
	VolumeSurgeMinimum float64 `mapstructure:"volume_surge_minimum"`
}

// UniverseConfig holds the tradable symbol universe by home market.
type UniverseConfig struct {
	USStocks []string `mapstructure:"us_stocks"`
	UKStocks []string `mapstructure:"uk_stocks"`
}

// EngineConfig holds loop and session configuration.
type EngineConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	IdleInterval    time.Duration `mapstructure:"idle_interval"`
	Timezone        string        `mapstructure:"timezone"`
	DataTimeout     time.Duration `mapstructure:"data_timeout"`
	ResetDailyStats bool          `mapstructure:"reset_daily_stats"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Level    string         `mapstructure:"level"` // all, trades_only, errors_only
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	if dir := os.Getenv("ORB_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/orb-trader"
	}
	return filepath.Join(home, ".config", "orb-trader")
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Size:                 50000,
			RiskPerTrade:         0.01,
			MaxTradesPerDay:      5,
			MaxDailyLossFraction: 0.03,
			MaxNotionalFraction:  0.02,
		},
		Strategy: StrategyConfig{
			OpeningRangeMinutes: 30,
			BarIntervalMinutes:  5,
			EntryOffset:         0.05,
			StopOffset:          0.10,
			MinConfirmations:    3,
			HighVolATRRatio:     1.5,
			HighVolTrendMin:     0.02,
			TrendingATRRatio:    1.2,
			TrendingTrendMin:    0.015,
			NormalATRRatio:      0.8,
			VolumeSurgeStrong:   2.0,
			VolumeTrendStrong:   1.2,
			VolumeSurgeMinimum:  1.5,
		},
		Universe: UniverseConfig{
			USStocks: []string{"AAPL", "TSLA", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "NFLX"},
			UKStocks: []string{"LLOY.L", "VOD.L", "BARC.L", "TSCO.L", "BP.L", "AZN.L", "ULVR.L", "SHEL.L"},
		},
		Engine: EngineConfig{
			TickInterval:    60 * time.Second,
			IdleInterval:    300 * time.Second,
			Timezone:        "Asia/Dubai",
			DataTimeout:     10 * time.Second,
			ResetDailyStats: true,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Level:   "all",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := writeTemplate(configDir); werr != nil {
				return nil, fmt.Errorf("creating config template: %w", werr)
			}
		} else {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers defaults with viper so file values replace them
// wholesale. Decoding into a pre-populated struct would merge slices
// element-wise, leaving default symbols behind a shorter user list.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("account.size", d.Account.Size)
	v.SetDefault("account.risk_per_trade", d.Account.RiskPerTrade)
	v.SetDefault("account.max_trades_per_day", d.Account.MaxTradesPerDay)
	v.SetDefault("account.max_daily_loss_fraction", d.Account.MaxDailyLossFraction)
	v.SetDefault("account.max_notional_fraction", d.Account.MaxNotionalFraction)

	v.SetDefault("strategy.opening_range_minutes", d.Strategy.OpeningRangeMinutes)
	v.SetDefault("strategy.bar_interval_minutes", d.Strategy.BarIntervalMinutes)
	v.SetDefault("strategy.entry_offset", d.Strategy.EntryOffset)
	v.SetDefault("strategy.stop_offset", d.Strategy.StopOffset)
	v.SetDefault("strategy.min_confirmations", d.Strategy.MinConfirmations)
	v.SetDefault("strategy.high_vol_atr_ratio", d.Strategy.HighVolATRRatio)
	v.SetDefault("strategy.high_vol_trend_min", d.Strategy.HighVolTrendMin)
	v.SetDefault("strategy.trending_atr_ratio", d.Strategy.TrendingATRRatio)
	v.SetDefault("strategy.trending_trend_min", d.Strategy.TrendingTrendMin)
	v.SetDefault("strategy.normal_atr_ratio", d.Strategy.NormalATRRatio)
	v.SetDefault("strategy.volume_surge_strong", d.Strategy.VolumeSurgeStrong)
	v.SetDefault("strategy.volume_trend_strong", d.Strategy.VolumeTrendStrong)
	v.SetDefault("strategy.volume_surge_minimum", d.Strategy.VolumeSurgeMinimum)

	v.SetDefault("universe.us_stocks", d.Universe.USStocks)
	v.SetDefault("universe.uk_stocks", d.Universe.UKStocks)

	v.SetDefault("engine.tick_interval", d.Engine.TickInterval)
	v.SetDefault("engine.idle_interval", d.Engine.IdleInterval)
	v.SetDefault("engine.timezone", d.Engine.Timezone)
	v.SetDefault("engine.data_timeout", d.Engine.DataTimeout)
	v.SetDefault("engine.reset_daily_stats", d.Engine.ResetDailyStats)

	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.level", d.Notifications.Level)
	v.SetDefault("notifications.telegram.enabled", d.Notifications.Telegram.Enabled)
	v.SetDefault("notifications.telegram.bot_token", d.Notifications.Telegram.BotToken)
	v.SetDefault("notifications.telegram.chat_id", d.Notifications.Telegram.ChatID)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ACCOUNT_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Account.Size = f
		}
	}
	if v := os.Getenv("RISK_PER_TRADE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Account.RiskPerTrade = f
		}
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
		cfg.Notifications.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv("ORB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for unrecoverable errors.
// A violation here is fatal at startup; every failure wraps
// ErrConfigInvalid so callers can match the class with errors.Is.
func (c *Config) Validate() error {
	if c.Account.Size <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "account size must be positive, got %v", c.Account.Size)
	}
	if c.Account.RiskPerTrade <= 0 || c.Account.RiskPerTrade > 0.05 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "risk per trade must be in (0, 0.05], got %v", c.Account.RiskPerTrade)
	}
	if c.Account.MaxTradesPerDay <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max trades per day must be positive, got %d", c.Account.MaxTradesPerDay)
	}
	if c.Account.MaxDailyLossFraction <= 0 || c.Account.MaxDailyLossFraction >= 1 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "max daily loss fraction must be in (0, 1), got %v", c.Account.MaxDailyLossFraction)
	}
	if c.Strategy.OpeningRangeMinutes <= 0 || c.Strategy.BarIntervalMinutes <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "opening range and bar interval must be positive")
	}
	if c.Strategy.BarIntervalMinutes > c.Strategy.OpeningRangeMinutes {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "bar interval %dm exceeds opening range window %dm",
			c.Strategy.BarIntervalMinutes, c.Strategy.OpeningRangeMinutes)
	}
	if c.Engine.TickInterval < time.Second {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "tick interval must be at least 1s, got %v", c.Engine.TickInterval)
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "invalid timezone %q: %v", c.Engine.Timezone, err)
	}
	if len(c.Universe.USStocks)+len(c.Universe.UKStocks) == 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "symbol universe is empty")
	}
	return nil
}

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}

const configTemplate = `# orb-trader configuration

[account]
size = 50000.0
risk_per_trade = 0.01
max_trades_per_day = 5
max_daily_loss_fraction = 0.03
max_notional_fraction = 0.02

[strategy]
opening_range_minutes = 30
bar_interval_minutes = 5
entry_offset = 0.05
stop_offset = 0.10
min_confirmations = 3

[engine]
tick_interval = "60s"
idle_interval = "300s"
timezone = "Asia/Dubai"
data_timeout = "10s"
reset_daily_stats = true

[universe]
us_stocks = ["AAPL", "TSLA", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "NFLX"]
uk_stocks = ["LLOY.L", "VOD.L", "BARC.L", "TSCO.L", "BP.L", "AZN.L", "ULVR.L", "SHEL.L"]

[notifications]
enabled = true
level = "all"

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[logging]
level = "info"
console = true
file = true
`
