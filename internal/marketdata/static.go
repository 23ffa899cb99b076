package marketdata

import (
	"context"
	"sync"

	"orb-trader/internal/models"
)

// StaticProvider serves pre-loaded bar series keyed by symbol and
// interval. Used by engine tests and offline evaluation.
type StaticProvider struct {
	mu   sync.RWMutex
	data map[string][]models.Candle
	errs map[string]error
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		data: make(map[string][]models.Candle),
		errs: make(map[string]error),
	}
}

func key(symbol string, interval Interval) string {
	return symbol + "|" + string(interval)
}

// SetBars sets the bar series returned for a symbol at an interval and
// clears any error registered for it.
func (p *StaticProvider) SetBars(symbol string, interval Interval, candles []models.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key(symbol, interval)] = candles
	delete(p.errs, key(symbol, interval))
}

// SetError makes GetBars fail for a symbol at an interval.
func (p *StaticProvider) SetError(symbol string, interval Interval, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[key(symbol, interval)] = err
}

// GetBars returns the configured bars, the configured error, or nil when
// nothing was registered.
func (p *StaticProvider) GetBars(_ context.Context, symbol string, _ Lookback, interval Interval) ([]models.Candle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err, ok := p.errs[key(symbol, interval)]; ok {
		return nil, err
	}
	return p.data[key(symbol, interval)], nil
}
