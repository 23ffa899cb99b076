// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"orb-trader/internal/models"
)

// Store persists the engine's three documents: open trades (keyed by
// trade id), closed-trade history (ordered), and the rolling daily
// stats record. Each document is loaded once at startup and rewritten
// in full after every state-mutating operation. Writes are independent;
// there is no transactional coupling across documents.
type Store interface {
	LoadOpenTrades(ctx context.Context) (map[string]*models.Trade, error)
	SaveOpenTrades(ctx context.Context, trades map[string]*models.Trade) error

	LoadHistory(ctx context.Context) ([]*models.Trade, error)
	SaveHistory(ctx context.Context, history []*models.Trade) error

	LoadDailyStats(ctx context.Context) (*models.DailyStats, error)
	SaveDailyStats(ctx context.Context, stats *models.DailyStats) error

	Close() error
}

// validateTrades runs boundary validation over a set of trades.
func validateTrades(trades []*models.Trade) error {
	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}
