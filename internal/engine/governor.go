package engine

import (
	"math"

	apperrors "orb-trader/internal/errors"
	"orb-trader/internal/models"
)

// Governor enforces the daily risk limits consulted before any new
// trade is accepted. It is purely advisory: it never mutates state.
type Governor struct {
	MaxTradesPerDay      int
	MaxDailyLossFraction float64
	Equity               float64
}

// Allow reports whether a new trade may be opened given the current
// daily stats. A nil error means the trade may proceed.
func (g Governor) Allow(stats *models.DailyStats) error {
	if stats.TradesToday >= g.MaxTradesPerDay {
		return apperrors.NewRiskError("max_trades_per_day",
			float64(stats.TradesToday), float64(g.MaxTradesPerDay),
			"daily trade limit reached")
	}

	lossLimit := g.Equity * g.MaxDailyLossFraction
	if math.Abs(stats.DailyPnL) >= lossLimit {
		return apperrors.NewRiskError("max_daily_loss",
			math.Abs(stats.DailyPnL), lossLimit,
			"daily loss limit reached")
	}

	return nil
}
