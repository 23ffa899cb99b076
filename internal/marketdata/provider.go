// Package marketdata provides access to time-stamped OHLCV bar data.
package marketdata

import (
	"context"

	"orb-trader/internal/models"
)

// Interval represents a bar granularity.
type Interval string

const (
	Interval1Min  Interval = "1m"
	Interval5Min  Interval = "5m"
	Interval15Min Interval = "15m"
	Interval1Hour Interval = "1h"
)

// Lookback represents a historical data window.
type Lookback string

const (
	Lookback1Day  Lookback = "1d"
	Lookback2Days Lookback = "2d"
	Lookback5Days Lookback = "5d"
)

// Provider fetches OHLCV bars for a symbol. An empty result means data
// is unavailable this tick; callers skip the symbol and try again on the
// next scheduled tick.
type Provider interface {
	GetBars(ctx context.Context, symbol string, lookback Lookback, interval Interval) ([]models.Candle, error)
}
