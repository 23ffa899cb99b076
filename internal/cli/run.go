package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"orb-trader/internal/engine"
	"orb-trader/internal/marketdata"
	"orb-trader/internal/notify"
)

func newRunCmd(app *App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trading engine",
		Long: `Starts the trading loop: session tracking, opening-range capture,
breakout evaluation and trade management. Runs until interrupted;
open trades and stats are persisted and restored across restarts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			notifier := notify.NewMultiNotifier(&app.Config.Notifications)
			if !quiet {
				notifier.AddChannel(notify.NewTerminalChannel())
			}

			provider := marketdata.NewYahooProvider(app.Config.Engine.DataTimeout)

			eng, err := engine.New(app.Config, provider, st, notifier, app.Logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			color.Cyan("🤖 ORB Trader starting (%d symbols, tick %s)",
				len(eng.Resolver().Symbols()), app.Config.Engine.TickInterval)

			if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			color.Yellow("Engine stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress terminal notifications")

	return cmd
}
