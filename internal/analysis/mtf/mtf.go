// Package mtf provides multi-timeframe bias analysis.
package mtf

import (
	"context"

	"orb-trader/internal/analysis/indicators"
	"orb-trader/internal/marketdata"
	"orb-trader/internal/models"
)

// Analyzer derives directional bias from medium (15m) and coarse (1h)
// timeframes. Bias on each timeframe is price relative to its EMA.
type Analyzer struct {
	provider  marketdata.Provider
	emaPeriod int
}

// NewAnalyzer creates a multi-timeframe bias analyzer.
func NewAnalyzer(provider marketdata.Provider) *Analyzer {
	return &Analyzer{provider: provider, emaPeriod: 20}
}

// biasOf labels a series by comparing the last close to the last EMA.
// Missing or short data yields NEUTRAL.
func (a *Analyzer) biasOf(candles []models.Candle) models.Bias {
	if len(candles) == 0 {
		return models.BiasNeutral
	}
	emaValues, err := indicators.NewEMA(a.emaPeriod).Calculate(candles)
	if err != nil {
		return models.BiasNeutral
	}
	if candles[len(candles)-1].Close > emaValues[len(emaValues)-1] {
		return models.BiasBullish
	}
	return models.BiasBearish
}

// Analyze fetches 15-minute and 1-hour bars for the symbol and reports
// whether their biases align. Missing data on either timeframe yields
// NEUTRAL and no alignment.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) models.BiasAnalysis {
	result := models.BiasAnalysis{
		Bias15m: models.BiasNeutral,
		Bias1h:  models.BiasNeutral,
	}

	bars15m, err := a.provider.GetBars(ctx, symbol, marketdata.Lookback2Days, marketdata.Interval15Min)
	if err != nil || len(bars15m) == 0 {
		return result
	}
	bars1h, err := a.provider.GetBars(ctx, symbol, marketdata.Lookback5Days, marketdata.Interval1Hour)
	if err != nil || len(bars1h) == 0 {
		return result
	}

	result.Bias15m = a.biasOf(bars15m)
	result.Bias1h = a.biasOf(bars1h)
	result.Aligned = result.Bias15m != models.BiasNeutral && result.Bias15m == result.Bias1h

	return result
}
