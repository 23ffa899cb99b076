package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"orb-trader/internal/models"
	"orb-trader/internal/session"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show open trades and daily performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			open, err := st.LoadOpenTrades(ctx)
			if err != nil {
				return err
			}
			stats, err := st.LoadDailyStats(ctx)
			if err != nil {
				return err
			}

			loc, err := time.LoadLocation(app.Config.Engine.Timezone)
			if err != nil {
				return err
			}
			resolver := session.NewResolver(loc, session.DefaultHours(), app.Config.Strategy.OpeningRangeMinutes)
			now := time.Now().In(loc)

			color.Cyan("📊 Session Status (%s)", now.Format("2006-01-02 15:04 MST"))
			printMarketStatus(resolver, models.MarketUK, now)
			printMarketStatus(resolver, models.MarketUS, now)
			fmt.Println()

			color.Cyan("📈 Open Trades (%d)", len(open))
			if len(open) == 0 {
				color.Yellow("  No open trades")
			} else {
				fmt.Printf("  %-18s %-6s %-5s %10s %10s %10s %5s\n",
					"ID", "SYMBOL", "DIR", "ENTRY", "STOP", "SIZE", "TPs")
				for _, t := range open {
					tps := ""
					if t.TP1Hit {
						tps += "1"
					}
					if t.TP2Hit {
						tps += "2"
					}
					line := fmt.Sprintf("  %-18s %-6s %-5s %10.2f %10.2f %10d %5s",
						t.ID, t.Symbol, t.Direction, t.EntryPrice, t.CurrentStop, t.PositionSize, tps)
					if t.Direction == models.DirectionLong {
						color.Green(line)
					} else {
						color.Red(line)
					}
				}
			}
			fmt.Println()

			color.Cyan("💰 Daily Performance (%s)", stats.Day)
			fmt.Printf("  Trades Today:       %d / %d\n", stats.TradesToday, app.Config.Account.MaxTradesPerDay)
			printPnL("  Daily P&L:          ", stats.DailyPnL)
			fmt.Printf("  Win Rate:           %.1f%%\n", stats.WinRate)
			fmt.Printf("  Avg R:R Achieved:   %.2f:1\n", stats.AvgRiskRewardAchvd)
			if stats.ConsecutiveLosses > 0 {
				color.Yellow("  Loss Streak:        %d", stats.ConsecutiveLosses)
			}

			return nil
		},
	}
}

func printMarketStatus(r *session.Resolver, market models.Market, now time.Time) {
	if r.IsOpen(market, now) {
		color.Green("  %s market: OPEN", market)
	} else {
		color.Red("  %s market: CLOSED", market)
	}
}

func printPnL(label string, pnl float64) {
	switch {
	case pnl > 0:
		color.Green("%s+$%.2f", label, pnl)
	case pnl < 0:
		color.Red("%s-$%.2f", label, -pnl)
	default:
		fmt.Printf("%s$%.2f\n", label, pnl)
	}
}
