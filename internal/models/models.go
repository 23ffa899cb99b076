// Package models provides domain models for the ORB trading engine.
package models

import (
	"time"
)

// Market represents a home market for a symbol.
type Market string

const (
	MarketUS Market = "US"
	MarketUK Market = "UK"
)

// Direction represents the side of a trade.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// TradeStatus represents the lifecycle status of a trade.
type TradeStatus string

const (
	TradeActive TradeStatus = "ACTIVE"
	TradeClosed TradeStatus = "CLOSED"
)

// MarketLabel classifies current market conditions.
type MarketLabel string

const (
	MarketWeak           MarketLabel = "WEAK"
	MarketNormal         MarketLabel = "NORMAL"
	MarketTrending       MarketLabel = "TRENDING"
	MarketHighVolatility MarketLabel = "HIGH_VOLATILITY"
)

// Suitable reports whether the label is strong enough to trade into.
func (l MarketLabel) Suitable() bool {
	switch l {
	case MarketNormal, MarketTrending, MarketHighVolatility:
		return true
	}
	return false
}

// Bias represents a directional bias on a single timeframe.
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// OpeningRange is the price band established during the capture window.
// Computed at most once per (symbol, trading day); immutable until the next
// day's capture overwrites it.
type OpeningRange struct {
	Symbol         string    `json:"symbol"`
	Day            string    `json:"day"` // market-local date, YYYY-MM-DD
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	RangeSize      float64   `json:"range_size"`
	VolumeBaseline float64   `json:"volume_baseline"`
	CapturedAt     time.Time `json:"captured_at"`
}

// MarketCondition is the classifier output. Derived fresh on every
// evaluation; never stored long-term.
type MarketCondition struct {
	Label            MarketLabel
	TargetRiskReward float64
	SizeMultiplier   float64
}

// VolumeAnalysis holds volume confirmation metrics.
type VolumeAnalysis struct {
	Surge         float64 // current volume / trailing 20-bar mean
	Trend         float64 // trailing 5-bar mean / trailing 20-bar mean
	StrongVolume  bool    // surge >= 2.0 && trend >= 1.2
	CurrentVolume float64
	Baseline20    float64
}

// BiasAnalysis holds multi-timeframe directional bias.
type BiasAnalysis struct {
	Bias15m Bias
	Bias1h  Bias
	Aligned bool
}

// ConfirmationSet captures the entry-confirmation flags at decision time.
type ConfirmationSet struct {
	VolumeStrong   bool `json:"volume_strong"`
	BiasAligned    bool `json:"bias_aligned"`
	MarketSuitable bool `json:"market_suitable"`
	VolumeSurgeMin bool `json:"volume_surge_min"`
}

// Count returns the number of confirmations that passed.
func (c ConfirmationSet) Count() int {
	n := 0
	for _, ok := range []bool{c.VolumeStrong, c.BiasAligned, c.MarketSuitable, c.VolumeSurgeMin} {
		if ok {
			n++
		}
	}
	return n
}

// EntryProposal is a fully-specified entry decision produced by the
// confirmation engine. It has no side effects until accepted.
type EntryProposal struct {
	Symbol           string
	Direction        Direction
	EntryPrice       float64
	StopLoss         float64
	Target1          float64
	Target2          float64
	Target3          float64
	TargetRiskReward float64
	Condition        MarketCondition
	Confirmations    ConfirmationSet
	Volume           VolumeAnalysis
	Biases           BiasAnalysis
}
