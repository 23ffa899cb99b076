package models

import (
	"fmt"
	"time"
)

// Trade is the central mutable entity of the engine. It is owned and
// mutated exclusively by the lifecycle state machine; everything else
// treats it as read-only.
type Trade struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Direction        Direction       `json:"direction"`
	EntryPrice       float64         `json:"entry_price"`
	OriginalStop     float64         `json:"original_stop"`
	CurrentStop      float64         `json:"current_stop"`
	Target1          float64         `json:"target1"`
	Target2          float64         `json:"target2"`
	Target3          float64         `json:"target3"`
	TargetRiskReward float64         `json:"target_rr"`
	MarketCondition  MarketLabel     `json:"market_condition"`
	PositionSize     int             `json:"position_size"`
	OriginalSize     int             `json:"original_size"`
	RiskAmount       float64         `json:"risk_amount"`
	Status           TradeStatus     `json:"status"`
	TP1Hit           bool            `json:"tp1_hit"`
	TP2Hit           bool            `json:"tp2_hit"`
	Confirmations    ConfirmationSet `json:"confirmations"`
	CreatedAt        time.Time       `json:"created_at"`

	// Set on close.
	ExitPrice          float64   `json:"exit_price,omitempty"`
	ExitReason         string    `json:"exit_reason,omitempty"`
	RealizedPnL        float64   `json:"realized_pnl,omitempty"`
	AchievedRiskReward float64   `json:"achieved_rr,omitempty"`
	ClosedAt           time.Time `json:"closed_at,omitempty"`
}

// NewTradeID derives a trade ID from the symbol and creation instant.
func NewTradeID(symbol string, at time.Time) string {
	return fmt.Sprintf("%s_%d", symbol, at.Unix())
}

// InitialRisk returns the per-unit risk at entry.
func (t *Trade) InitialRisk() float64 {
	if t.Direction == DirectionLong {
		return t.EntryPrice - t.OriginalStop
	}
	return t.OriginalStop - t.EntryPrice
}

// Validate checks structural invariants before the trade crosses the
// persistence boundary.
func (t *Trade) Validate() error {
	if t.ID == "" || t.Symbol == "" {
		return fmt.Errorf("trade missing id or symbol")
	}
	switch t.Direction {
	case DirectionLong, DirectionShort:
	default:
		return fmt.Errorf("trade %s: invalid direction %q", t.ID, t.Direction)
	}
	switch t.Status {
	case TradeActive, TradeClosed:
	default:
		return fmt.Errorf("trade %s: invalid status %q", t.ID, t.Status)
	}
	if t.PositionSize < 0 || t.OriginalSize <= 0 {
		return fmt.Errorf("trade %s: invalid position size %d/%d", t.ID, t.PositionSize, t.OriginalSize)
	}
	if t.PositionSize > t.OriginalSize {
		return fmt.Errorf("trade %s: position size %d exceeds original %d", t.ID, t.PositionSize, t.OriginalSize)
	}
	if t.InitialRisk() <= 0 {
		return fmt.Errorf("trade %s: stop %v on the wrong side of entry %v", t.ID, t.OriginalStop, t.EntryPrice)
	}
	if t.TP2Hit && !t.TP1Hit {
		return fmt.Errorf("trade %s: tp2 flagged without tp1", t.ID)
	}
	return nil
}

// Validate checks opening-range invariants.
func (r *OpeningRange) Validate() error {
	if r.Symbol == "" || r.Day == "" {
		return fmt.Errorf("opening range missing symbol or day")
	}
	if r.High < r.Low {
		return fmt.Errorf("opening range %s: high %v below low %v", r.Symbol, r.High, r.Low)
	}
	if r.RangeSize != r.High-r.Low {
		return fmt.Errorf("opening range %s: range size %v inconsistent", r.Symbol, r.RangeSize)
	}
	return nil
}

// DailyStats is the process-wide, day-scoped performance aggregate.
// Mutated only on trade acceptance and trade close.
type DailyStats struct {
	Day                string  `json:"day"` // observer-local date, YYYY-MM-DD
	TradesToday        int     `json:"trades_today"`
	DailyPnL           float64 `json:"daily_pnl"`
	ConsecutiveLosses  int     `json:"consecutive_losses"`
	WinRate            float64 `json:"win_rate"`
	AvgRiskRewardAchvd float64 `json:"avg_rr_achieved"`
}

// Validate checks stats invariants at the persistence boundary.
func (s *DailyStats) Validate() error {
	if s.TradesToday < 0 || s.ConsecutiveLosses < 0 {
		return fmt.Errorf("daily stats: negative counters")
	}
	if s.WinRate < 0 || s.WinRate > 100 {
		return fmt.Errorf("daily stats: win rate %v out of bounds", s.WinRate)
	}
	return nil
}
