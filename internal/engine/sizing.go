package engine

import "math"

// SizingConfig holds the position-sizing inputs that come from
// configuration rather than the market.
type SizingConfig struct {
	Equity              float64
	RiskFraction        float64
	MaxNotionalFraction float64
}

// PositionSize computes the unit count for a trade. The risk budget is
// equity x risk fraction, scaled by the market-condition multiplier,
// then capped so notional exposure never exceeds the configured
// fraction of equity. A non-positive result rejects the trade.
func PositionSize(entry, stop, sizeMultiplier float64, cfg SizingConfig) int {
	riskPerUnit := math.Abs(entry - stop)
	if riskPerUnit <= 0 || entry <= 0 {
		return 0
	}

	riskBudget := cfg.Equity * cfg.RiskFraction * sizeMultiplier
	rawSize := int(riskBudget / riskPerUnit)

	maxUnits := int(cfg.Equity * cfg.MaxNotionalFraction / entry)

	size := rawSize
	if maxUnits < size {
		size = maxUnits
	}
	if size < 0 {
		return 0
	}
	return size
}
