// Package cli provides the command-line interface for the ORB trading bot.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"orb-trader/internal/config"
	"orb-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared across commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.Store
}

// openStore lazily opens the SQLite store so read-only commands still
// work when the run loop holds the database.
func (a *App) openStore() (store.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	dbPath := filepath.Join(config.DefaultConfigDir(), "orb.db")
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", dbPath, err)
	}
	a.Store = st
	return st, nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "orb-trader",
		Short: "ORB Trader - opening range breakout trading bot",
		Long: `ORB Trader is an automated opening-range-breakout trading bot for
US and UK equities, operating on a Dubai-timezone schedule.

It captures the opening range of each session, confirms breakouts with
volume, market-condition and multi-timeframe bias signals, and manages
positions through a partial take-profit ladder with daily risk limits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/orb-trader)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newExportCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ORB Trader v%s\n", Version)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.DefaultConfigDir())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Account")
	fmt.Fprintf(out, "  Size:             $%.2f\n", cfg.Account.Size)
	fmt.Fprintf(out, "  Risk/Trade:       %.2f%%\n", cfg.Account.RiskPerTrade*100)
	fmt.Fprintf(out, "  Max Trades/Day:   %d\n", cfg.Account.MaxTradesPerDay)
	fmt.Fprintf(out, "  Max Daily Loss:   %.1f%%\n", cfg.Account.MaxDailyLossFraction*100)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Strategy")
	fmt.Fprintf(out, "  Opening Range:    %d min (%dm bars)\n", cfg.Strategy.OpeningRangeMinutes, cfg.Strategy.BarIntervalMinutes)
	fmt.Fprintf(out, "  Entry Offset:     %.2f\n", cfg.Strategy.EntryOffset)
	fmt.Fprintf(out, "  Stop Offset:      %.2f\n", cfg.Strategy.StopOffset)
	fmt.Fprintf(out, "  Min Confirms:     %d/4\n", cfg.Strategy.MinConfirmations)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Universe")
	fmt.Fprintf(out, "  US: %v\n", cfg.Universe.USStocks)
	fmt.Fprintf(out, "  UK: %v\n", cfg.Universe.UKStocks)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Engine")
	fmt.Fprintf(out, "  Tick Interval:    %s (idle %s)\n", cfg.Engine.TickInterval, cfg.Engine.IdleInterval)
	fmt.Fprintf(out, "  Timezone:         %s\n", cfg.Engine.Timezone)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Notifications")
	fmt.Fprintf(out, "  Enabled:          %v (level: %s)\n", cfg.Notifications.Enabled, cfg.Notifications.Level)
	fmt.Fprintf(out, "  Telegram:         %v\n", cfg.Notifications.Telegram.Enabled)

	return nil
}
