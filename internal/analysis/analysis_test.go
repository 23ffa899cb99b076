package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orb-trader/internal/models"
)

// flatCandles builds candles centered on close with the given high-low range.
func flatCandles(n int, rng float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Open:   100,
			High:   100 + rng/2,
			Low:    100 - rng/2,
			Close:  100,
			Volume: 100000,
		}
	}
	return candles
}

func TestClassifyNormalOnSteadyVolatility(t *testing.T) {
	cond := ClassifyMarket(flatCandles(60, 1.0), DefaultClassifierConfig())

	assert.Equal(t, models.MarketNormal, cond.Label)
	assert.Equal(t, 2.5, cond.TargetRiskReward)
	assert.Equal(t, 1.0, cond.SizeMultiplier)
}

func TestClassifyWeakOnDyingVolatility(t *testing.T) {
	candles := append(flatCandles(15, 10.0), flatCandles(45, 0.1)...)

	cond := ClassifyMarket(candles, DefaultClassifierConfig())

	assert.Equal(t, models.MarketWeak, cond.Label)
	assert.Equal(t, 2.0, cond.TargetRiskReward)
	assert.Equal(t, 0.5, cond.SizeMultiplier)
}

func TestClassifyHighVolatilityOnExpansionWithTrend(t *testing.T) {
	candles := flatCandles(45, 0.1)
	// Volatility expansion with a strong directional move away from the EMA.
	price := 100.0
	for i := 0; i < 15; i++ {
		price += 2
		candles = append(candles, models.Candle{
			Open:   price - 2,
			High:   price + 5,
			Low:    price - 5,
			Close:  price,
			Volume: 100000,
		})
	}

	cond := ClassifyMarket(candles, DefaultClassifierConfig())

	assert.Equal(t, models.MarketHighVolatility, cond.Label)
	assert.Equal(t, 4.0, cond.TargetRiskReward)
	assert.Equal(t, 0.8, cond.SizeMultiplier)
}

func TestClassifyFallbackOnInsufficientData(t *testing.T) {
	cond := ClassifyMarket(flatCandles(5, 1.0), DefaultClassifierConfig())

	assert.Equal(t, models.MarketNormal, cond.Label)
	assert.Equal(t, 2.5, cond.TargetRiskReward)
	assert.Equal(t, 1.0, cond.SizeMultiplier)
}

func volumeCandles(vols []int64) []models.Candle {
	candles := make([]models.Candle, len(vols))
	for i, v := range vols {
		candles[i] = models.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: v}
	}
	return candles
}

func TestAnalyzeVolumeStrongSurge(t *testing.T) {
	// 15 quiet bars then 5 heavy bars: avg20 = 32500, avg5 = 100000.
	vols := make([]int64, 0, 20)
	for i := 0; i < 15; i++ {
		vols = append(vols, 10000)
	}
	for i := 0; i < 5; i++ {
		vols = append(vols, 100000)
	}

	va := AnalyzeVolume(volumeCandles(vols), 100000, DefaultVolumeConfig())

	assert.InDelta(t, 100000.0/32500.0, va.Surge, 1e-9)
	assert.InDelta(t, 100000.0/32500.0, va.Trend, 1e-9)
	assert.True(t, va.StrongVolume)
}

func TestAnalyzeVolumeWeak(t *testing.T) {
	vols := make([]int64, 20)
	for i := range vols {
		vols[i] = 50000
	}

	va := AnalyzeVolume(volumeCandles(vols), 60000, DefaultVolumeConfig())

	assert.InDelta(t, 1.2, va.Surge, 1e-9)
	assert.InDelta(t, 1.0, va.Trend, 1e-9)
	assert.False(t, va.StrongVolume)
}

func TestAnalyzeVolumeZeroBaseline(t *testing.T) {
	va := AnalyzeVolume(volumeCandles([]int64{0, 0, 0}), 5000, DefaultVolumeConfig())

	assert.Equal(t, 1.0, va.Surge)
	assert.Equal(t, 1.0, va.Trend)
	assert.False(t, va.StrongVolume)
}
