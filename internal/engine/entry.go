package engine

import (
	"context"
	"fmt"

	"orb-trader/internal/analysis"
	"orb-trader/internal/analysis/mtf"
	"orb-trader/internal/config"
	apperrors "orb-trader/internal/errors"
	"orb-trader/internal/marketdata"
	"orb-trader/internal/models"
)

// Levels holds the computed entry, stop and target prices for a
// breakout in one direction.
type Levels struct {
	Entry   float64
	Stop    float64
	Target1 float64
	Target2 float64
	Target3 float64
}

// ComputeLevels derives entry/stop/targets from an opening range for
// the given direction and target risk:reward. Entry sits a fixed offset
// beyond the broken range edge, the stop a larger offset beyond the
// opposite edge; target three is two full range sizes from entry.
func ComputeLevels(direction models.Direction, rng *models.OpeningRange, targetRR, entryOffset, stopOffset float64) Levels {
	if direction == models.DirectionLong {
		entry := rng.High + entryOffset
		stop := rng.Low - stopOffset
		risk := entry - stop
		return Levels{
			Entry:   entry,
			Stop:    stop,
			Target1: entry + targetRR*risk,
			Target2: entry + (targetRR+1)*risk,
			Target3: entry + 2*rng.RangeSize,
		}
	}
	entry := rng.Low - entryOffset
	stop := rng.High + stopOffset
	risk := stop - entry
	return Levels{
		Entry:   entry,
		Stop:    stop,
		Target1: entry - targetRR*risk,
		Target2: entry - (targetRR+1)*risk,
		Target3: entry - 2*rng.RangeSize,
	}
}

// Confirmer evaluates breakout entries against the multi-signal
// confirmation quorum. It has no side effects; the engine decides what
// to do with the proposal.
type Confirmer struct {
	provider marketdata.Provider
	bias     *mtf.Analyzer
	cfg      config.StrategyConfig
}

// NewConfirmer creates an entry confirmation engine.
func NewConfirmer(provider marketdata.Provider, cfg config.StrategyConfig) *Confirmer {
	return &Confirmer{
		provider: provider,
		bias:     mtf.NewAnalyzer(provider),
		cfg:      cfg,
	}
}

func (c *Confirmer) classifierConfig() analysis.ClassifierConfig {
	cc := analysis.DefaultClassifierConfig()
	cc.HighVolATRRatio = c.cfg.HighVolATRRatio
	cc.HighVolTrendMin = c.cfg.HighVolTrendMin
	cc.TrendingATRRatio = c.cfg.TrendingATRRatio
	cc.TrendingTrendMin = c.cfg.TrendingTrendMin
	cc.NormalATRRatio = c.cfg.NormalATRRatio
	return cc
}

// EvaluateEntry tests the symbol for a confirmed breakout. It returns a
// complete proposal, or a human-readable rejection reason when policy
// blocks the entry. A non-nil error indicates a transient data failure;
// the caller skips the symbol for this tick.
func (c *Confirmer) EvaluateEntry(ctx context.Context, symbol string, price float64, rng *models.OpeningRange) (*models.EntryProposal, string, error) {
	if rng == nil {
		return nil, "no opening range data", nil
	}

	// Breakout test first: without a breakout nothing else matters.
	var direction models.Direction
	switch {
	case price > rng.High:
		direction = models.DirectionLong
	case price < rng.Low:
		direction = models.DirectionShort
	default:
		return nil, "no breakout detected", nil
	}

	bars, err := c.provider.GetBars(ctx, symbol, marketdata.Lookback1Day, marketdata.Interval5Min)
	if err != nil {
		return nil, "", err
	}
	if len(bars) == 0 {
		return nil, "", apperrors.NewDataError(symbol, string(marketdata.Interval5Min), "no bars returned", apperrors.ErrNoData)
	}

	cond := analysis.ClassifyMarket(bars, c.classifierConfig())
	// Current volume and its baseline come from the same 5m series; a
	// finer-grained reading would deflate the surge ratio.
	currentVolume := float64(bars[len(bars)-1].Volume)
	vol := analysis.AnalyzeVolume(bars, currentVolume, analysis.VolumeConfig{
		SurgeStrong: c.cfg.VolumeSurgeStrong,
		TrendStrong: c.cfg.VolumeTrendStrong,
	})
	biases := c.bias.Analyze(ctx, symbol)

	confirmations := models.ConfirmationSet{
		VolumeStrong:   vol.StrongVolume,
		BiasAligned:    biases.Aligned,
		MarketSuitable: cond.Label.Suitable(),
		VolumeSurgeMin: vol.Surge >= c.cfg.VolumeSurgeMinimum,
	}

	if count := confirmations.Count(); count < c.cfg.MinConfirmations {
		return nil, fmt.Sprintf("entry conditions not met (%d/4 confirmations)", count), nil
	}

	levels := ComputeLevels(direction, rng, cond.TargetRiskReward, c.cfg.EntryOffset, c.cfg.StopOffset)

	return &models.EntryProposal{
		Symbol:           symbol,
		Direction:        direction,
		EntryPrice:       levels.Entry,
		StopLoss:         levels.Stop,
		Target1:          levels.Target1,
		Target2:          levels.Target2,
		Target3:          levels.Target3,
		TargetRiskReward: cond.TargetRiskReward,
		Condition:        cond,
		Confirmations:    confirmations,
		Volume:           vol,
		Biases:           biases,
	}, "", nil
}
