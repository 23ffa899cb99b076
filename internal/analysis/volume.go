package analysis

import (
	"orb-trader/internal/analysis/indicators"
	"orb-trader/internal/models"
)

// VolumeConfig holds volume confirmation thresholds.
type VolumeConfig struct {
	SurgeStrong float64 // surge needed for a strong-volume call
	TrendStrong float64 // short/long mean ratio needed for a strong-volume call
}

// DefaultVolumeConfig returns the legacy thresholds.
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{SurgeStrong: 2.0, TrendStrong: 1.2}
}

// AnalyzeVolume computes surge and trend metrics from a bar series plus
// the live volume reading. A zero baseline yields neutral ratios of 1.
func AnalyzeVolume(candles []models.Candle, currentVolume float64, cfg VolumeConfig) models.VolumeAnalysis {
	vols := indicators.Volumes(candles)

	avg20 := indicators.Mean(indicators.Tail(vols, 20))
	avg5 := indicators.Mean(indicators.Tail(vols, 5))

	surge := 1.0
	if avg20 > 0 {
		surge = currentVolume / avg20
	}
	trend := 1.0
	if avg20 > 0 {
		trend = avg5 / avg20
	}

	return models.VolumeAnalysis{
		Surge:         surge,
		Trend:         trend,
		StrongVolume:  surge >= cfg.SurgeStrong && trend >= cfg.TrendStrong,
		CurrentVolume: currentVolume,
		Baseline20:    avg20,
	}
}
