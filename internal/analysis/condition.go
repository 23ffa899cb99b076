// Package analysis provides market-condition classification and volume
// analysis over bar series. All functions are stateless.
package analysis

import (
	"orb-trader/internal/analysis/indicators"
	"orb-trader/internal/models"
)

// ClassifierConfig holds the classification policy knobs. The thresholds
// are policy, not law; they map directly to the strategy configuration.
type ClassifierConfig struct {
	ATRPeriod        int
	EMAPeriod        int
	HighVolATRRatio  float64
	HighVolTrendMin  float64
	TrendingATRRatio float64
	TrendingTrendMin float64
	NormalATRRatio   float64
}

// DefaultClassifierConfig returns the legacy thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ATRPeriod:        14,
		EMAPeriod:        20,
		HighVolATRRatio:  1.5,
		HighVolTrendMin:  0.02,
		TrendingATRRatio: 1.2,
		TrendingTrendMin: 0.015,
		NormalATRRatio:   0.8,
	}
}

// conditionFor maps a label to its target risk:reward and size multiplier.
func conditionFor(label models.MarketLabel) models.MarketCondition {
	switch label {
	case models.MarketHighVolatility:
		return models.MarketCondition{Label: label, TargetRiskReward: 4.0, SizeMultiplier: 0.8}
	case models.MarketTrending:
		return models.MarketCondition{Label: label, TargetRiskReward: 3.0, SizeMultiplier: 1.2}
	case models.MarketWeak:
		return models.MarketCondition{Label: label, TargetRiskReward: 2.0, SizeMultiplier: 0.5}
	default:
		return models.MarketCondition{Label: models.MarketNormal, TargetRiskReward: 2.5, SizeMultiplier: 1.0}
	}
}

// ClassifyMarket determines the market condition from a bar series.
// Volatility is ATR relative to its own series mean; trend strength is
// the normalized distance of the last close from the EMA. Insufficient
// data falls back to NORMAL.
func ClassifyMarket(candles []models.Candle, cfg ClassifierConfig) models.MarketCondition {
	atrValues, err := indicators.NewATR(cfg.ATRPeriod).Calculate(candles)
	if err != nil {
		return conditionFor(models.MarketNormal)
	}

	// Mean over the populated part of the series only.
	valid := atrValues[cfg.ATRPeriod-1:]
	currentATR := valid[len(valid)-1]
	avgATR := indicators.Mean(valid)

	trendStrength := 0.0
	if emaValues, err := indicators.NewEMA(cfg.EMAPeriod).Calculate(candles); err == nil {
		lastEMA := emaValues[len(emaValues)-1]
		if lastEMA != 0 {
			lastClose := candles[len(candles)-1].Close
			trendStrength = abs(lastClose-lastEMA) / lastEMA
		}
	}

	switch {
	case currentATR > avgATR*cfg.HighVolATRRatio && trendStrength > cfg.HighVolTrendMin:
		return conditionFor(models.MarketHighVolatility)
	case currentATR > avgATR*cfg.TrendingATRRatio && trendStrength > cfg.TrendingTrendMin:
		return conditionFor(models.MarketTrending)
	case currentATR > avgATR*cfg.NormalATRRatio:
		return conditionFor(models.MarketNormal)
	default:
		return conditionFor(models.MarketWeak)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
