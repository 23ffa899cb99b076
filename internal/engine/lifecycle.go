package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"orb-trader/internal/logging"
	"orb-trader/internal/models"
	"orb-trader/internal/notify"
	"orb-trader/internal/store"
)

// Exit reasons recorded on closed trades.
const (
	ReasonStopHit      = "stop hit"
	ReasonTarget3Hit   = "target 3 hit"
	ReasonSessionClose = "session close"
)

// Lifecycle owns every open trade, the closed-trade history, and the
// daily stats. All mutations of those records happen here and are
// persisted synchronously; a persistence failure is logged and the
// in-memory state stays authoritative for the rest of the process.
type Lifecycle struct {
	store    store.Store
	notifier notify.Notifier
	logger   zerolog.Logger

	open    map[string]*models.Trade
	history []*models.Trade
	stats   *models.DailyStats
}

// NewLifecycle creates an empty lifecycle manager.
func NewLifecycle(s store.Store, n notify.Notifier, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		store:    s,
		notifier: n,
		logger:   logger,
		open:     make(map[string]*models.Trade),
		stats:    &models.DailyStats{},
	}
}

// Restore loads the three persisted documents. Called once at startup;
// persisted state is the recovery source of truth.
func (l *Lifecycle) Restore(ctx context.Context) error {
	open, err := l.store.LoadOpenTrades(ctx)
	if err != nil {
		return err
	}
	history, err := l.store.LoadHistory(ctx)
	if err != nil {
		return err
	}
	stats, err := l.store.LoadDailyStats(ctx)
	if err != nil {
		return err
	}
	l.open = open
	l.history = history
	l.stats = stats
	return nil
}

// Stats returns the daily stats record.
func (l *Lifecycle) Stats() *models.DailyStats {
	return l.stats
}

// History returns the closed-trade history in append order.
func (l *Lifecycle) History() []*models.Trade {
	return l.history
}

// OpenTrades returns the currently open trades keyed by id.
func (l *Lifecycle) OpenTrades() map[string]*models.Trade {
	return l.open
}

// HasActiveTrade reports whether the symbol already has an open trade.
// At most one active trade may exist per symbol.
func (l *Lifecycle) HasActiveTrade(symbol string) bool {
	for _, t := range l.open {
		if t.Symbol == symbol && t.Status == models.TradeActive {
			return true
		}
	}
	return false
}

// RolloverDay resets the day-scoped counters when the trading day
// changes. Returns true when a reset happened.
func (l *Lifecycle) RolloverDay(ctx context.Context, day string) bool {
	if !rolloverStats(l.stats, day) {
		return false
	}
	l.persistStats(ctx)
	return true
}

// Open creates a trade from an accepted proposal, in state ACTIVE with
// no targets hit, and persists it.
func (l *Lifecycle) Open(ctx context.Context, p *models.EntryProposal, size int, now time.Time) (*models.Trade, error) {
	trade := &models.Trade{
		ID:               models.NewTradeID(p.Symbol, now),
		Symbol:           p.Symbol,
		Direction:        p.Direction,
		EntryPrice:       p.EntryPrice,
		OriginalStop:     p.StopLoss,
		CurrentStop:      p.StopLoss,
		Target1:          p.Target1,
		Target2:          p.Target2,
		Target3:          p.Target3,
		TargetRiskReward: p.TargetRiskReward,
		MarketCondition:  p.Condition.Label,
		PositionSize:     size,
		OriginalSize:     size,
		Status:           models.TradeActive,
		Confirmations:    p.Confirmations,
		CreatedAt:        now,
	}
	trade.RiskAmount = trade.InitialRisk() * float64(size)

	if err := trade.Validate(); err != nil {
		return nil, err
	}

	l.open[trade.ID] = trade
	l.stats.TradesToday++

	l.persistOpen(ctx)
	l.persistStats(ctx)

	logging.LogTradeOpen(l.logger, trade.ID, trade.Symbol, string(trade.Direction), size, trade.EntryPrice)
	l.notify(ctx, func() error { return l.notifier.SendTradeOpened(ctx, trade) })

	return trade, nil
}

// Evaluate advances one open trade against the latest price. At most
// one state transition happens per evaluation; the breakeven ratchet
// may additionally tighten the stop on the same tick.
func (l *Lifecycle) Evaluate(ctx context.Context, tradeID string, price float64, now time.Time) {
	trade, ok := l.open[tradeID]
	if !ok || trade.Status != models.TradeActive {
		return
	}

	if l.stopBreached(trade, price) {
		l.close(ctx, trade, price, ReasonStopHit, now)
		return
	}

	switch {
	case !trade.TP1Hit && l.reached(trade, price, trade.Target1):
		trade.TP1Hit = true
		trade.PositionSize = trade.OriginalSize / 2
		l.persistOpen(ctx)
		l.notify(ctx, func() error { return l.notifier.SendTakeProfit(ctx, trade, 1, price) })

	case trade.TP1Hit && !trade.TP2Hit && l.reached(trade, price, trade.Target2):
		trade.TP2Hit = true
		trade.PositionSize = trade.OriginalSize / 4
		l.persistOpen(ctx)
		l.notify(ctx, func() error { return l.notifier.SendTakeProfit(ctx, trade, 2, price) })

	case l.reached(trade, price, trade.Target3):
		l.close(ctx, trade, price, ReasonTarget3Hit, now)
		return
	}

	// Breakeven ratchet between TP1 and TP2: the stop only tightens.
	if trade.TP1Hit && !trade.TP2Hit {
		if trade.Direction == models.DirectionLong && trade.EntryPrice > trade.CurrentStop {
			trade.CurrentStop = trade.EntryPrice
			l.persistOpen(ctx)
		} else if trade.Direction == models.DirectionShort && trade.EntryPrice < trade.CurrentStop {
			trade.CurrentStop = trade.EntryPrice
			l.persistOpen(ctx)
		}
	}
}

// ForceClose closes an open trade at the latest available price during
// the end-of-session sweep, overriding all other conditions.
func (l *Lifecycle) ForceClose(ctx context.Context, tradeID string, price float64, now time.Time) {
	trade, ok := l.open[tradeID]
	if !ok {
		return
	}
	l.close(ctx, trade, price, ReasonSessionClose, now)
}

func (l *Lifecycle) stopBreached(t *models.Trade, price float64) bool {
	if t.Direction == models.DirectionLong {
		return price <= t.CurrentStop
	}
	return price >= t.CurrentStop
}

func (l *Lifecycle) reached(t *models.Trade, price, target float64) bool {
	if t.Direction == models.DirectionLong {
		return price >= target
	}
	return price <= target
}

// close finalizes a trade: realized P&L uses the size remaining after
// partial exits; achieved RR is normalized by the original risk.
func (l *Lifecycle) close(ctx context.Context, trade *models.Trade, exitPrice float64, reason string, now time.Time) {
	var pnl float64
	if trade.Direction == models.DirectionLong {
		pnl = (exitPrice - trade.EntryPrice) * float64(trade.PositionSize)
	} else {
		pnl = (trade.EntryPrice - exitPrice) * float64(trade.PositionSize)
	}

	riskAmount := trade.InitialRisk() * float64(trade.OriginalSize)
	achievedRR := 0.0
	if riskAmount > 0 {
		achievedRR = pnl / riskAmount
	}

	trade.Status = models.TradeClosed
	trade.ExitPrice = exitPrice
	trade.ExitReason = reason
	trade.RealizedPnL = pnl
	trade.AchievedRiskReward = achievedRR
	trade.ClosedAt = now

	delete(l.open, trade.ID)
	l.history = append(l.history, trade)
	applyCloseToStats(l.stats, l.history, trade)

	l.persistOpen(ctx)
	l.persistHistory(ctx)
	l.persistStats(ctx)

	logging.LogTradeClose(l.logger, trade.ID, trade.Symbol, reason, exitPrice, pnl)
	l.notify(ctx, func() error { return l.notifier.SendTradeClosed(ctx, trade, l.stats) })
}

func (l *Lifecycle) persistOpen(ctx context.Context) {
	if err := l.store.SaveOpenTrades(ctx, l.open); err != nil {
		l.logger.Error().Err(err).Msg("Failed to persist open trades")
	}
}

func (l *Lifecycle) persistHistory(ctx context.Context) {
	if err := l.store.SaveHistory(ctx, l.history); err != nil {
		l.logger.Error().Err(err).Msg("Failed to persist trade history")
	}
}

func (l *Lifecycle) persistStats(ctx context.Context) {
	if err := l.store.SaveDailyStats(ctx, l.stats); err != nil {
		l.logger.Error().Err(err).Msg("Failed to persist daily stats")
	}
}

func (l *Lifecycle) notify(ctx context.Context, send func() error) {
	if l.notifier == nil {
		return
	}
	if err := send(); err != nil {
		l.logger.Warn().Err(err).Msg("Notification delivery failed")
	}
}
