// Package notify provides notification functionality for the trading engine.
// Delivery is best-effort: failures are logged by callers, never retried,
// and never block trade logic.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"orb-trader/internal/config"
	"orb-trader/internal/models"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendTradeOpened(ctx context.Context, trade *models.Trade) error
	SendTakeProfit(ctx context.Context, trade *models.Trade, level int, price float64) error
	SendTradeClosed(ctx context.Context, trade *models.Trade, stats *models.DailyStats) error
	SendError(ctx context.Context, err error, context string) error
}

// Channel defines the interface for a notification channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      Type
	Title     string
	Message   string
	Timestamp time.Time
}

// Type represents the type of notification.
type Type string

const (
	TypeTrade Type = "trade"
	TypeError Type = "error"
	TypeInfo  Type = "info"
)

// Level represents the notification level filter.
type Level string

const (
	LevelAll        Level = "all"
	LevelTradesOnly Level = "trades_only"
	LevelErrorsOnly Level = "errors_only"
)

// MultiNotifier sends notifications to multiple channels.
type MultiNotifier struct {
	channels []Channel
	level    Level
	disabled bool
	mu       sync.RWMutex
}

// NewMultiNotifier creates a MultiNotifier from configuration. When
// notifications are disabled every Send is a silent no-op.
func NewMultiNotifier(cfg *config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{
		level:    Level(cfg.Level),
		disabled: !cfg.Enabled,
	}
	if mn.level == "" {
		mn.level = LevelAll
	}
	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramChannel(cfg.Telegram))
	}
	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

func (mn *MultiNotifier) shouldSend(t Type) bool {
	switch mn.level {
	case LevelTradesOnly:
		return t == TypeTrade
	case LevelErrorsOnly:
		return t == TypeError
	default:
		return true
	}
}

// Send sends a notification to all enabled channels.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if mn.disabled || !mn.shouldSend(n.Type) {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if ch.IsEnabled() {
			if err := ch.Send(ctx, n); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendTradeOpened narrates a new trade.
func (mn *MultiNotifier) SendTradeOpened(ctx context.Context, trade *models.Trade) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Symbol: %s\n", trade.Symbol))
	sb.WriteString(fmt.Sprintf("Direction: %s\n", trade.Direction))
	sb.WriteString(fmt.Sprintf("Entry: $%.2f\n", trade.EntryPrice))
	sb.WriteString(fmt.Sprintf("Stop Loss: $%.2f\n", trade.OriginalStop))
	sb.WriteString(fmt.Sprintf("Target 1: $%.2f (%.1f:1 RR)\n", trade.Target1, trade.TargetRiskReward))
	sb.WriteString(fmt.Sprintf("Target 2: $%.2f (%.1f:1 RR)\n", trade.Target2, trade.TargetRiskReward+1))
	sb.WriteString(fmt.Sprintf("Target 3: $%.2f\n", trade.Target3))
	sb.WriteString(fmt.Sprintf("Position Size: %d shares\n", trade.PositionSize))
	sb.WriteString(fmt.Sprintf("Risk Amount: $%.2f\n", trade.RiskAmount))
	sb.WriteString(fmt.Sprintf("Market Condition: %s\n", trade.MarketCondition))
	sb.WriteString(fmt.Sprintf("Confirmations: %d/4", trade.Confirmations.Count()))

	return mn.Send(ctx, Notification{
		Type:    TypeTrade,
		Title:   fmt.Sprintf("🚀 ORB Trade Opened: %s %s", trade.Direction, trade.Symbol),
		Message: sb.String(),
	})
}

// SendTakeProfit narrates a partial exit.
func (mn *MultiNotifier) SendTakeProfit(ctx context.Context, trade *models.Trade, level int, price float64) error {
	action := "50% position closed"
	rr := trade.TargetRiskReward
	if level == 2 {
		action = "75% position closed"
		rr = trade.TargetRiskReward + 1
	}

	message := fmt.Sprintf(
		"Symbol: %s\nPrice: $%.2f\nAction: %s\nRemaining: %d shares\nR:R Achieved: %.1f:1\nMarket Condition: %s",
		trade.Symbol, price, action, trade.PositionSize, rr, trade.MarketCondition)

	return mn.Send(ctx, Notification{
		Type:    TypeTrade,
		Title:   fmt.Sprintf("🎯 Target %d Hit: %s", level, trade.Symbol),
		Message: message,
	})
}

// SendTradeClosed narrates a trade closure and the updated stats.
func (mn *MultiNotifier) SendTradeClosed(ctx context.Context, trade *models.Trade, stats *models.DailyStats) error {
	emoji := "💰"
	if trade.RealizedPnL < 0 {
		emoji = "📉"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Symbol: %s\n", trade.Symbol))
	sb.WriteString(fmt.Sprintf("Direction: %s\n", trade.Direction))
	sb.WriteString(fmt.Sprintf("Entry: $%.2f\n", trade.EntryPrice))
	sb.WriteString(fmt.Sprintf("Exit: $%.2f\n", trade.ExitPrice))
	sb.WriteString(fmt.Sprintf("P&L: $%.2f\n", trade.RealizedPnL))
	sb.WriteString(fmt.Sprintf("R:R Achieved: %.1f:1 (Target: %.1f:1)\n", trade.AchievedRiskReward, trade.TargetRiskReward))
	sb.WriteString(fmt.Sprintf("Reason: %s\n", trade.ExitReason))
	if stats != nil {
		sb.WriteString(fmt.Sprintf("Win Rate: %.1f%%\n", stats.WinRate))
		sb.WriteString(fmt.Sprintf("Avg R:R: %.1f:1\n", stats.AvgRiskRewardAchvd))
		sb.WriteString(fmt.Sprintf("Daily P&L: $%.2f", stats.DailyPnL))
	}

	return mn.Send(ctx, Notification{
		Type:    TypeTrade,
		Title:   fmt.Sprintf("%s Trade Closed: %s", emoji, trade.Symbol),
		Message: sb.String(),
	})
}

// SendError narrates a non-fatal error.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, context string) error {
	return mn.Send(ctx, Notification{
		Type:    TypeError,
		Title:   "⚠️ Engine Error",
		Message: fmt.Sprintf("Context: %s\nError: %v", context, err),
	})
}
