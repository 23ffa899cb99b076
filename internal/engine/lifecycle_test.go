package engine

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orb-trader/internal/models"
	"orb-trader/internal/store"
)

func newTestLifecycle() (*Lifecycle, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewLifecycle(st, nil, zerolog.Nop()), st
}

func longProposal() *models.EntryProposal {
	return &models.EntryProposal{
		Symbol:           "AAPL",
		Direction:        models.DirectionLong,
		EntryPrice:       105.05,
		StopLoss:         99.90,
		Target1:          117.925,
		Target2:          123.075,
		Target3:          115.05,
		TargetRiskReward: 2.5,
		Condition:        models.MarketCondition{Label: models.MarketNormal, TargetRiskReward: 2.5, SizeMultiplier: 1.0},
	}
}

func shortProposal() *models.EntryProposal {
	return &models.EntryProposal{
		Symbol:           "AAPL",
		Direction:        models.DirectionShort,
		EntryPrice:       99.95,
		StopLoss:         105.10,
		Target1:          99.95 - 2.5*5.15,
		Target2:          99.95 - 3.5*5.15,
		Target3:          89.95,
		TargetRiskReward: 2.5,
		Condition:        models.MarketCondition{Label: models.MarketNormal, TargetRiskReward: 2.5, SizeMultiplier: 1.0},
	}
}

func TestOpenCreatesActiveTrade(t *testing.T) {
	lc, st := newTestLifecycle()
	ctx := context.Background()
	now := time.Date(2024, 3, 6, 20, 0, 0, 0, time.UTC)

	trade, err := lc.Open(ctx, longProposal(), 100, now)
	require.NoError(t, err)

	assert.Equal(t, models.TradeActive, trade.Status)
	assert.Equal(t, 100, trade.PositionSize)
	assert.Equal(t, 100, trade.OriginalSize)
	assert.False(t, trade.TP1Hit)
	assert.InDelta(t, 5.15*100, trade.RiskAmount, 1e-9)
	assert.Equal(t, 1, lc.Stats().TradesToday)
	assert.True(t, lc.HasActiveTrade("AAPL"))

	persisted, err := st.LoadOpenTrades(ctx)
	require.NoError(t, err)
	require.Contains(t, persisted, trade.ID)
}

func TestStopHitClosesTrade(t *testing.T) {
	lc, st := newTestLifecycle()
	ctx := context.Background()
	now := time.Now()

	trade, err := lc.Open(ctx, longProposal(), 100, now)
	require.NoError(t, err)

	lc.Evaluate(ctx, trade.ID, 99.50, now.Add(time.Minute))

	assert.Empty(t, lc.OpenTrades())
	history := lc.History()
	require.Len(t, history, 1)

	closed := history[0]
	assert.Equal(t, models.TradeClosed, closed.Status)
	assert.Equal(t, ReasonStopHit, closed.ExitReason)
	assert.InDelta(t, (99.50-105.05)*100, closed.RealizedPnL, 1e-9)
	assert.InDelta(t, closed.RealizedPnL/(5.15*100), closed.AchievedRiskReward, 1e-9)

	assert.Equal(t, 1, lc.Stats().ConsecutiveLosses)
	assert.InDelta(t, closed.RealizedPnL, lc.Stats().DailyPnL, 1e-9)
	assert.Zero(t, lc.Stats().WinRate)

	persisted, err := st.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestTakeProfitLadderLong(t *testing.T) {
	lc, _ := newTestLifecycle()
	ctx := context.Background()
	now := time.Now()

	trade, err := lc.Open(ctx, longProposal(), 100, now)
	require.NoError(t, err)

	// TP1: half the position comes off and the stop moves to breakeven.
	// Target 3 (115.05) sits below target 1 here, so the price must gap
	// past both for the TP1 transition to win on ordering.
	lc.Evaluate(ctx, trade.ID, 118.0, now)
	assert.True(t, trade.TP1Hit)
	assert.False(t, trade.TP2Hit)
	assert.Equal(t, 50, trade.PositionSize)
	assert.InDelta(t, trade.EntryPrice, trade.CurrentStop, 1e-9)

	// A pullback below target 3 triggers nothing while the stop holds.
	lc.Evaluate(ctx, trade.ID, 110.0, now)
	assert.Equal(t, 50, trade.PositionSize)
	assert.False(t, trade.TP2Hit)
	require.Len(t, lc.OpenTrades(), 1)

	// TP2: down to a quarter of the original size.
	lc.Evaluate(ctx, trade.ID, 123.10, now)
	assert.True(t, trade.TP2Hit)
	assert.Equal(t, 25, trade.PositionSize)

	// Target 3 closes the remainder.
	lc.Evaluate(ctx, trade.ID, 125.0, now)
	assert.Empty(t, lc.OpenTrades())

	closed := lc.History()[0]
	assert.Equal(t, ReasonTarget3Hit, closed.ExitReason)
	assert.InDelta(t, (125.0-105.05)*25, closed.RealizedPnL, 1e-9)
}

func TestTargetThreeClosesBeforeTPTwo(t *testing.T) {
	lc, _ := newTestLifecycle()
	ctx := context.Background()
	now := time.Now()

	// With RR 2.5 on a 5-point range, target 3 (115.05) is the nearest
	// target. Holding between target 3 and target 2 after TP1 closes the
	// remainder rather than waiting for TP2.
	trade, err := lc.Open(ctx, longProposal(), 100, now)
	require.NoError(t, err)

	lc.Evaluate(ctx, trade.ID, 118.0, now)
	require.True(t, trade.TP1Hit)

	lc.Evaluate(ctx, trade.ID, 118.0, now)
	assert.Empty(t, lc.OpenTrades())
	require.Len(t, lc.History(), 1)
	closed := lc.History()[0]
	assert.Equal(t, ReasonTarget3Hit, closed.ExitReason)
	assert.False(t, closed.TP2Hit)
	assert.InDelta(t, (118.0-105.05)*50, closed.RealizedPnL, 1e-9)
}

func TestTakeProfitTwoRequiresOne(t *testing.T) {
	lc, _ := newTestLifecycle()
	ctx := context.Background()
	now := time.Now()

	trade, err := lc.Open(ctx, longProposal(), 100, now)
	require.NoError(t, err)

	// A price beyond target 2 still only takes the TP1 transition first.
	lc.Evaluate(ctx, trade.ID, 124.0, now)
	assert.True(t, trade.TP1Hit)
	assert.False(t, trade.TP2Hit)
	assert.Equal(t, 50, trade.PositionSize)

	lc.Evaluate(ctx, trade.ID, 124.0, now)
	assert.True(t, trade.TP2Hit)
	assert.Equal(t, 25, trade.PositionSize)
}

func TestBreakevenRatchetShort(t *testing.T) {
	lc, _ := newTestLifecycle()
	ctx := context.Background()
	now := time.Now()

	trade, err := lc.Open(ctx, shortProposal(), 100, now)
	require.NoError(t, err)

	lc.Evaluate(ctx, trade.ID, trade.Target1-0.01, now)
	assert.True(t, trade.TP1Hit)
	assert.InDelta(t, trade.EntryPrice, trade.CurrentStop, 1e-9, "short stop ratchets down to entry")

	// A bounce back to entry now stops out the rest at breakeven.
	lc.Evaluate(ctx, trade.ID, trade.EntryPrice, now)
	assert.Empty(t, lc.OpenTrades())
	assert.Equal(t, ReasonStopHit, lc.History()[0].ExitReason)
}

func TestForceCloseSweep(t *testing.T) {
	lc, _ := newTestLifecycle()
	ctx := context.Background()
	now := time.Now()

	trade, err := lc.Open(ctx, longProposal(), 100, now)
	require.NoError(t, err)

	lc.ForceClose(ctx, trade.ID, 110.0, now.Add(4*time.Hour))

	require.Len(t, lc.History(), 1)
	closed := lc.History()[0]
	assert.Equal(t, ReasonSessionClose, closed.ExitReason)
	assert.InDelta(t, (110.0-105.05)*100, closed.RealizedPnL, 1e-9)
	assert.False(t, lc.HasActiveTrade("AAPL"))
}

func TestRestoreRoundTrip(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	first := NewLifecycle(st, nil, zerolog.Nop())
	trade, err := first.Open(ctx, longProposal(), 100, now)
	require.NoError(t, err)

	second := NewLifecycle(st, nil, zerolog.Nop())
	require.NoError(t, second.Restore(ctx))

	restored, ok := second.OpenTrades()[trade.ID]
	require.True(t, ok)
	assert.Equal(t, trade.Symbol, restored.Symbol)
	assert.InDelta(t, trade.EntryPrice, restored.EntryPrice, 1e-9)
	assert.Equal(t, 1, second.Stats().TradesToday)
}

// Property: across any price path, the stop only ever tightens, TP2
// never precedes TP1, the remaining size is always a known rung of the
// ladder, and a closed trade never reappears.
func TestLifecycleInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("lifecycle invariants hold on random price paths", prop.ForAll(
		func(prices []float64, short bool) bool {
			lc, _ := newTestLifecycle()
			ctx := context.Background()
			now := time.Now()

			proposal := longProposal()
			if short {
				proposal = shortProposal()
			}
			trade, err := lc.Open(ctx, proposal, 100, now)
			if err != nil {
				return false
			}

			prevStop := trade.CurrentStop
			for _, price := range prices {
				lc.Evaluate(ctx, trade.ID, price, now)

				if _, stillOpen := lc.OpenTrades()[trade.ID]; !stillOpen {
					break
				}
				if short {
					if trade.CurrentStop > prevStop {
						return false
					}
				} else {
					if trade.CurrentStop < prevStop {
						return false
					}
				}
				prevStop = trade.CurrentStop

				if trade.TP2Hit && !trade.TP1Hit {
					return false
				}
				switch trade.PositionSize {
				case 100, 50, 25:
				default:
					return false
				}
			}

			// Evaluating a closed trade must be a no-op.
			if _, stillOpen := lc.OpenTrades()[trade.ID]; !stillOpen {
				before := len(lc.History())
				lc.Evaluate(ctx, trade.ID, 1.0, now)
				if len(lc.History()) != before {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(80.0, 130.0)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
