// Package engine implements the ORB trade-decision and trade-lifecycle
// engine: opening-range capture, breakout confirmation, position sizing,
// the partial-exit state machine, and daily risk governance.
package engine

import (
	"time"

	"orb-trader/internal/analysis/indicators"
	apperrors "orb-trader/internal/errors"
	"orb-trader/internal/models"
)

// ExtractOpeningRange derives the opening range from the day's bar
// series. The leading captureBars bars define the high/low band; the
// volume baseline is the mean over a trailing 20-bar window (or the
// whole series when shorter). Returns ErrNoData when the series is
// empty; the caller then leaves any prior range untouched.
func ExtractOpeningRange(bars []models.Candle, symbol, day string, captureBars int, now time.Time) (*models.OpeningRange, error) {
	if len(bars) == 0 {
		return nil, apperrors.ErrNoData
	}
	if captureBars <= 0 {
		return nil, apperrors.NewDataError(symbol, "", "non-positive capture window", nil)
	}

	opening := bars
	if len(opening) > captureBars {
		opening = opening[:captureBars]
	}

	high := opening[0].High
	low := opening[0].Low
	for _, b := range opening[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	vols := indicators.Volumes(bars)
	baseline := indicators.Mean(indicators.Tail(vols, 20))

	rng := &models.OpeningRange{
		Symbol:         symbol,
		Day:            day,
		High:           high,
		Low:            low,
		RangeSize:      high - low,
		VolumeBaseline: baseline,
		CapturedAt:     now,
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return rng, nil
}
