package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orb-trader/internal/config"
	apperrors "orb-trader/internal/errors"
	"orb-trader/internal/marketdata"
	"orb-trader/internal/models"
)

func testRange() *models.OpeningRange {
	return &models.OpeningRange{
		Symbol: "AAPL", Day: "2024-03-06",
		High: 105, Low: 100, RangeSize: 5, VolumeBaseline: 10000,
	}
}

func constantSeries(n int, volume int64) []models.Candle {
	bars := make([]models.Candle, n)
	for i := range bars {
		bars[i] = models.Candle{Open: 102, High: 105, Low: 100, Close: 102, Volume: volume}
	}
	return bars
}

func TestEvaluateEntryRejections(t *testing.T) {
	provider := marketdata.NewStaticProvider()
	c := NewConfirmer(provider, config.Default().Strategy)
	ctx := context.Background()

	// Without a captured range nothing is evaluated.
	proposal, reason, err := c.EvaluateEntry(ctx, "AAPL", 106, nil)
	require.NoError(t, err)
	assert.Nil(t, proposal)
	assert.Equal(t, "no opening range data", reason)

	// A price inside the band is not a breakout.
	proposal, reason, err = c.EvaluateEntry(ctx, "AAPL", 103, testRange())
	require.NoError(t, err)
	assert.Nil(t, proposal)
	assert.Equal(t, "no breakout detected", reason)

	// Breakout with flat volume and no bias data: only the market-condition
	// confirmation passes.
	provider.SetBars("AAPL", marketdata.Interval5Min, constantSeries(60, 10000))
	proposal, reason, err = c.EvaluateEntry(ctx, "AAPL", 106, testRange())
	require.NoError(t, err)
	assert.Nil(t, proposal)
	assert.Equal(t, "entry conditions not met (1/4 confirmations)", reason)
}

func TestEvaluateEntryDataFailure(t *testing.T) {
	provider := marketdata.NewStaticProvider()
	provider.SetError("AAPL", marketdata.Interval5Min, apperrors.ErrNoData)
	c := NewConfirmer(provider, config.Default().Strategy)

	proposal, _, err := c.EvaluateEntry(context.Background(), "AAPL", 106, testRange())
	assert.Nil(t, proposal)
	assert.Error(t, err)
}

func TestEvaluateEntryShortBreakout(t *testing.T) {
	provider := marketdata.NewStaticProvider()
	// Constant bars with a late volume ramp and a final-bar surge; the
	// surge reading comes from this series, not the live quote.
	bars := constantSeries(60, 10000)
	for i := 55; i < 59; i++ {
		bars[i].Volume = 20000
	}
	bars[59].Volume = 30000
	provider.SetBars("AAPL", marketdata.Interval5Min, bars)

	// Falling closes on both higher timeframes: aligned bearish bias.
	falling := make([]models.Candle, 30)
	for i := range falling {
		cl := 130.0 - float64(i)
		falling[i] = models.Candle{Open: cl + 0.5, High: cl + 1, Low: cl - 1, Close: cl, Volume: 10000}
	}
	provider.SetBars("AAPL", marketdata.Interval15Min, falling)
	provider.SetBars("AAPL", marketdata.Interval1Hour, falling)

	c := NewConfirmer(provider, config.Default().Strategy)
	proposal, reason, err := c.EvaluateEntry(context.Background(), "AAPL", 99.0, testRange())
	require.NoError(t, err)
	require.NotNil(t, proposal, "rejection reason: %s", reason)

	assert.Equal(t, models.DirectionShort, proposal.Direction)
	assert.InDelta(t, 99.95, proposal.EntryPrice, 1e-9)
	assert.InDelta(t, 105.10, proposal.StopLoss, 1e-9)
	assert.Equal(t, 4, proposal.Confirmations.Count())
	// Current volume is the last bar of the 5m series.
	assert.InDelta(t, 30000.0, proposal.Volume.CurrentVolume, 1e-9)
	assert.InDelta(t, 30000.0/13000.0, proposal.Volume.Surge, 1e-9)
}
