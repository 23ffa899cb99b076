package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"orb-trader/internal/config"
	"orb-trader/internal/logging"
	"orb-trader/internal/marketdata"
	"orb-trader/internal/models"
	"orb-trader/internal/notify"
	"orb-trader/internal/session"
	"orb-trader/internal/store"
	"orb-trader/pkg/utils"
)

const (
	backoffInitial = 30 * time.Second
	backoffMax     = 10 * time.Minute
	backoffFactor  = 2.0
)

// quote is the latest observed price for a symbol.
type quote struct {
	price float64
}

// Engine drives the trading loop: opening-range capture, entry
// evaluation, open-trade monitoring and the end-of-session sweep, in a
// fixed order on every tick. Opening ranges live only in memory; on
// restart they are recaptured from the day's bars.
type Engine struct {
	cfg       *config.Config
	resolver  *session.Resolver
	provider  marketdata.Provider
	confirmer *Confirmer
	lifecycle *Lifecycle
	governor  Governor
	notifier  notify.Notifier
	logger    zerolog.Logger

	ranges map[string]*models.OpeningRange

	// Per-symbol fetch-failure tracking for exponential backoff.
	failures map[string]int
	retryAt  map[string]time.Time
}

// New wires an engine from configuration and its collaborators.
func New(cfg *config.Config, provider marketdata.Provider, st store.Store, notifier notify.Notifier, logger zerolog.Logger) (*Engine, error) {
	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Engine.Timezone, err)
	}

	resolver := session.NewResolver(loc, session.DefaultHours(), cfg.Strategy.OpeningRangeMinutes)
	resolver.AddSymbols(models.MarketUS, cfg.Universe.USStocks)
	resolver.AddSymbols(models.MarketUK, cfg.Universe.UKStocks)

	return &Engine{
		cfg:       cfg,
		resolver:  resolver,
		provider:  provider,
		confirmer: NewConfirmer(provider, cfg.Strategy),
		lifecycle: NewLifecycle(st, notifier, logger),
		governor: Governor{
			MaxTradesPerDay:      cfg.Account.MaxTradesPerDay,
			MaxDailyLossFraction: cfg.Account.MaxDailyLossFraction,
			Equity:               cfg.Account.Size,
		},
		notifier: notifier,
		logger:   logger,
		ranges:   make(map[string]*models.OpeningRange),
		failures: make(map[string]int),
		retryAt:  make(map[string]time.Time),
	}, nil
}

// Resolver exposes the session resolver, mainly for status reporting.
func (e *Engine) Resolver() *session.Resolver {
	return e.resolver
}

// Lifecycle exposes the trade lifecycle manager.
func (e *Engine) Lifecycle() *Lifecycle {
	return e.lifecycle
}

// Start restores persisted state and announces the engine. It does not
// begin ticking; call Run for that.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.lifecycle.Restore(ctx); err != nil {
		return fmt.Errorf("restoring persisted state: %w", err)
	}

	open := len(e.lifecycle.OpenTrades())
	e.logger.Info().
		Int("open_trades", open).
		Int("symbols", len(e.resolver.Symbols())).
		Msg("Engine started")

	if e.notifier != nil {
		msg := fmt.Sprintf("Monitoring %d symbols\nOpen trades restored: %d\nMax trades/day: %d\nRisk per trade: %.1f%%",
			len(e.resolver.Symbols()), open,
			e.cfg.Account.MaxTradesPerDay, e.cfg.Account.RiskPerTrade*100)
		if err := e.notifier.Send(ctx, notify.Notification{
			Type:    notify.TypeInfo,
			Title:   "🤖 ORB Trading Bot Started",
			Message: msg,
		}); err != nil {
			e.logger.Warn().Err(err).Msg("Startup notification failed")
		}
	}
	return nil
}

// Run executes the tick loop until the context is cancelled. Ticks are
// spaced at the configured interval while any market is open, and at
// the longer idle interval otherwise.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}

	for {
		now := e.resolver.Now()
		e.Tick(ctx, now)

		wait := e.cfg.Engine.TickInterval
		if !e.resolver.AnyOpen(now) {
			wait = e.cfg.Engine.IdleInterval
		}

		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Engine stopping")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Tick runs one full pass of the trading loop. The phase order is
// fixed: day rollover, range capture, end-of-session sweep, open-trade
// monitoring, then entry evaluation.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	// Roll daily stats only once every session has closed: the US session
	// runs past local midnight, and resetting mid-session would hand the
	// risk governor a fresh budget an hour before the close.
	if e.cfg.Engine.ResetDailyStats && !e.resolver.AnyOpen(now) {
		if e.lifecycle.RolloverDay(ctx, e.resolver.LocalDay(now)) {
			e.logger.Info().Str("day", e.resolver.LocalDay(now)).Msg("Daily stats rolled over")
		}
	}

	quotes := make(map[string]quote)

	e.captureRanges(ctx, now)
	e.sweepClosedMarkets(ctx, now, quotes)
	e.monitorOpenTrades(ctx, now, quotes)
	e.evaluateEntries(ctx, now, quotes)
}

// captureRanges computes the opening range once per symbol per trading
// day, after the capture window has elapsed.
func (e *Engine) captureRanges(ctx context.Context, now time.Time) {
	for _, symbol := range e.resolver.Symbols() {
		market, ok := e.resolver.MarketFor(symbol)
		if !ok || !e.resolver.IsOpen(market, now) {
			continue
		}
		if e.resolver.InCaptureWindow(market, now) {
			continue
		}

		day := e.resolver.DayKey(market, now)
		if rng, ok := e.ranges[symbol]; ok && rng.Day == day {
			continue
		}
		if e.inBackoff(symbol, now) {
			continue
		}

		slog := logging.WithSymbol(e.logger, symbol)
		bars, err := e.fetchBars(ctx, symbol, marketdata.Lookback1Day, marketdata.Interval5Min, now)
		if err != nil {
			slog.Warn().Err(err).Msg("Opening range fetch failed")
			continue
		}

		captureBars := e.resolver.CaptureBars(e.cfg.Strategy.BarIntervalMinutes)
		rng, err := ExtractOpeningRange(bars, symbol, day, captureBars, now)
		if err != nil {
			slog.Warn().Err(err).Msg("Opening range extraction failed")
			continue
		}

		e.ranges[symbol] = rng
		slog.Info().
			Str("day", day).
			Float64("high", rng.High).
			Float64("low", rng.Low).
			Float64("range", rng.RangeSize).
			Msg("Opening range captured")
	}
}

// sweepClosedMarkets force-closes every open trade whose home market
// has closed, at the latest available price.
func (e *Engine) sweepClosedMarkets(ctx context.Context, now time.Time, quotes map[string]quote) {
	for id, trade := range e.lifecycle.OpenTrades() {
		if e.resolver.IsSymbolOpen(trade.Symbol, now) {
			continue
		}

		tlog := logging.WithSymbol(logging.WithTradeID(e.logger, id), trade.Symbol)
		q, err := e.quoteFor(ctx, trade.Symbol, now, quotes)
		if err != nil {
			tlog.Warn().Err(err).Msg("Sweep price fetch failed, will retry")
			continue
		}

		tlog.Info().Msg("Market closed, sweeping trade")
		e.lifecycle.ForceClose(ctx, id, q.price, now)
	}
}

// monitorOpenTrades advances each open trade in a still-open market
// against the latest price.
func (e *Engine) monitorOpenTrades(ctx context.Context, now time.Time, quotes map[string]quote) {
	for id, trade := range e.lifecycle.OpenTrades() {
		if !e.resolver.IsSymbolOpen(trade.Symbol, now) {
			continue
		}

		q, err := e.quoteFor(ctx, trade.Symbol, now, quotes)
		if err != nil {
			mlog := logging.WithTradeID(logging.WithSymbol(e.logger, trade.Symbol), id)
			mlog.Warn().Err(err).Msg("Monitor price fetch failed")
			continue
		}

		e.lifecycle.Evaluate(ctx, id, q.price, now)
	}
}

// evaluateEntries tests every active symbol with a captured range for a
// confirmed breakout and opens trades the risk governor allows.
func (e *Engine) evaluateEntries(ctx context.Context, now time.Time, quotes map[string]quote) {
	for _, symbol := range e.resolver.ActiveSymbols(now) {
		market, _ := e.resolver.MarketFor(symbol)
		if e.resolver.InCaptureWindow(market, now) {
			continue
		}

		rng, ok := e.ranges[symbol]
		if !ok || rng.Day != e.resolver.DayKey(market, now) {
			continue
		}
		if e.lifecycle.HasActiveTrade(symbol) {
			continue
		}
		if err := e.governor.Allow(e.lifecycle.Stats()); err != nil {
			e.logger.Debug().Err(err).Msg("Risk governor blocked entries")
			return
		}

		slog := logging.WithSymbol(e.logger, symbol)
		q, err := e.quoteFor(ctx, symbol, now, quotes)
		if err != nil {
			slog.Warn().Err(err).Msg("Entry price fetch failed")
			continue
		}

		proposal, reason, err := e.confirmer.EvaluateEntry(ctx, symbol, q.price, rng)
		if err != nil {
			e.recordFailure(symbol, now)
			slog.Warn().Err(err).Msg("Entry evaluation failed")
			continue
		}
		if proposal == nil {
			if reason != "no breakout detected" {
				slog.Debug().Str("reason", reason).Msg("Entry rejected")
			}
			continue
		}

		size := PositionSize(proposal.EntryPrice, proposal.StopLoss, proposal.Condition.SizeMultiplier, SizingConfig{
			Equity:              e.cfg.Account.Size,
			RiskFraction:        e.cfg.Account.RiskPerTrade,
			MaxNotionalFraction: e.cfg.Account.MaxNotionalFraction,
		})
		if size <= 0 {
			slog.Debug().Msg("Position size rounded to zero, entry skipped")
			continue
		}

		if _, err := e.lifecycle.Open(ctx, proposal, size, now); err != nil {
			slog.Error().Err(err).Msg("Failed to open trade")
		}
	}
}

// quoteFor returns the latest 1m price for a symbol, fetching at most
// once per tick.
func (e *Engine) quoteFor(ctx context.Context, symbol string, now time.Time, quotes map[string]quote) (quote, error) {
	if q, ok := quotes[symbol]; ok {
		return q, nil
	}
	if e.inBackoff(symbol, now) {
		return quote{}, fmt.Errorf("%s: backing off after repeated fetch failures", symbol)
	}

	bars, err := e.fetchBars(ctx, symbol, marketdata.Lookback1Day, marketdata.Interval1Min, now)
	if err != nil {
		return quote{}, err
	}

	q := quote{price: bars[len(bars)-1].Close}
	quotes[symbol] = q
	return q, nil
}

// fetchBars wraps the provider with the data timeout and per-symbol
// failure accounting.
func (e *Engine) fetchBars(ctx context.Context, symbol string, lookback marketdata.Lookback, interval marketdata.Interval, now time.Time) ([]models.Candle, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Engine.DataTimeout)
	defer cancel()

	bars, err := e.provider.GetBars(fetchCtx, symbol, lookback, interval)
	if err != nil {
		e.recordFailure(symbol, now)
		return nil, err
	}
	if len(bars) == 0 {
		e.recordFailure(symbol, now)
		return nil, fmt.Errorf("%s: no %s bars returned", symbol, interval)
	}

	delete(e.failures, symbol)
	delete(e.retryAt, symbol)
	return bars, nil
}

func (e *Engine) inBackoff(symbol string, now time.Time) bool {
	until, ok := e.retryAt[symbol]
	return ok && now.Before(until)
}

func (e *Engine) recordFailure(symbol string, now time.Time) {
	attempt := e.failures[symbol]
	e.failures[symbol] = attempt + 1
	e.retryAt[symbol] = now.Add(utils.CalculateBackoff(attempt, backoffInitial, backoffMax, backoffFactor))
}
