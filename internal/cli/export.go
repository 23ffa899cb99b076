package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"orb-trader/internal/models"
)

// tradeRow is the flat CSV projection of a closed trade.
type tradeRow struct {
	ID              string  `csv:"id"`
	Symbol          string  `csv:"symbol"`
	Direction       string  `csv:"direction"`
	EntryPrice      float64 `csv:"entry_price"`
	ExitPrice       float64 `csv:"exit_price"`
	OriginalStop    float64 `csv:"original_stop"`
	PositionSize    int     `csv:"original_size"`
	RealizedPnL     float64 `csv:"realized_pnl"`
	AchievedRR      float64 `csv:"achieved_rr"`
	TargetRR        float64 `csv:"target_rr"`
	MarketCondition string  `csv:"market_condition"`
	TP1Hit          bool    `csv:"tp1_hit"`
	TP2Hit          bool    `csv:"tp2_hit"`
	ExitReason      string  `csv:"exit_reason"`
	OpenedAt        string  `csv:"opened_at"`
	ClosedAt        string  `csv:"closed_at"`
}

func toTradeRow(t *models.Trade) tradeRow {
	return tradeRow{
		ID:              t.ID,
		Symbol:          t.Symbol,
		Direction:       string(t.Direction),
		EntryPrice:      t.EntryPrice,
		ExitPrice:       t.ExitPrice,
		OriginalStop:    t.OriginalStop,
		PositionSize:    t.OriginalSize,
		RealizedPnL:     t.RealizedPnL,
		AchievedRR:      t.AchievedRiskReward,
		TargetRR:        t.TargetRiskReward,
		MarketCondition: string(t.MarketCondition),
		TP1Hit:          t.TP1Hit,
		TP2Hit:          t.TP2Hit,
		ExitReason:      t.ExitReason,
		OpenedAt:        t.CreatedAt.Format(time.RFC3339),
		ClosedAt:        t.ClosedAt.Format(time.RFC3339),
	}
}

func newExportCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export closed-trade history to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			history, err := st.LoadHistory(cmd.Context())
			if err != nil {
				return err
			}
			if len(history) == 0 {
				color.Yellow("No closed trades to export")
				return nil
			}

			rows := make([]tradeRow, len(history))
			for i, t := range history {
				rows[i] = toTradeRow(t)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()

			if err := gocsv.MarshalFile(&rows, f); err != nil {
				return fmt.Errorf("writing csv: %w", err)
			}

			color.Green("✓ Exported %d trades to %s", len(rows), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "trades.csv", "output CSV file")

	return cmd
}
