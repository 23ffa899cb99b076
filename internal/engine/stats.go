package engine

import (
	"orb-trader/internal/models"
)

// applyCloseToStats folds a freshly-closed trade into the daily stats.
// Daily P&L and the loss streak are day-scoped; win rate and average
// achieved risk:reward are recomputed over the full closed history,
// which already includes the trade.
func applyCloseToStats(stats *models.DailyStats, history []*models.Trade, closed *models.Trade) {
	stats.DailyPnL += closed.RealizedPnL
	if closed.RealizedPnL < 0 {
		stats.ConsecutiveLosses++
	} else {
		stats.ConsecutiveLosses = 0
	}

	total := len(history)
	if total == 0 {
		stats.WinRate = 0
		stats.AvgRiskRewardAchvd = 0
		return
	}

	wins := 0
	var rrSum float64
	for _, t := range history {
		if t.RealizedPnL > 0 {
			wins++
		}
		rrSum += t.AchievedRiskReward
	}
	stats.WinRate = float64(wins) / float64(total) * 100
	stats.AvgRiskRewardAchvd = rrSum / float64(total)
}

// rolloverStats resets the day-scoped counters when the trading day
// changes. Lifetime aggregates (win rate, average RR, loss streak)
// carry across days.
func rolloverStats(stats *models.DailyStats, day string) bool {
	if stats.Day == day {
		return false
	}
	stats.Day = day
	stats.TradesToday = 0
	stats.DailyPnL = 0
	return true
}
