package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orb-trader/internal/models"
)

func TestStaticProviderKeysBySymbolAndInterval(t *testing.T) {
	p := NewStaticProvider()
	p.SetBars("AAPL", Interval5Min, []models.Candle{{Close: 101}})
	p.SetBars("AAPL", Interval1Min, []models.Candle{{Close: 102}})

	bars, err := p.GetBars(context.Background(), "AAPL", Lookback1Day, Interval5Min)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 101.0, bars[0].Close)

	bars, err = p.GetBars(context.Background(), "AAPL", Lookback1Day, Interval1Min)
	require.NoError(t, err)
	assert.Equal(t, 102.0, bars[0].Close)
}

func TestStaticProviderRecoversAfterError(t *testing.T) {
	p := NewStaticProvider()
	sentinel := errors.New("feed down")
	p.SetError("AAPL", Interval5Min, sentinel)

	_, err := p.GetBars(context.Background(), "AAPL", Lookback1Day, Interval5Min)
	assert.ErrorIs(t, err, sentinel)

	// Registering bars replaces the failure.
	p.SetBars("AAPL", Interval5Min, []models.Candle{{Close: 103}})
	bars, err := p.GetBars(context.Background(), "AAPL", Lookback1Day, Interval5Min)
	require.NoError(t, err)
	assert.Equal(t, 103.0, bars[0].Close)
}
