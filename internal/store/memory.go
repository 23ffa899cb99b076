package store

import (
	"context"
	"sync"

	"orb-trader/internal/models"
)

// MemoryStore is an in-memory Store used by tests and dry runs. It
// copies documents on save and load so callers never share state with
// the store's internals.
type MemoryStore struct {
	mu      sync.RWMutex
	open    map[string]*models.Trade
	history []*models.Trade
	stats   *models.DailyStats

	// SaveCount tracks save operations across all documents.
	SaveCount int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		open:  make(map[string]*models.Trade),
		stats: &models.DailyStats{},
	}
}

func copyTrade(t *models.Trade) *models.Trade {
	c := *t
	return &c
}

// LoadOpenTrades returns a copy of the open-trades document.
func (m *MemoryStore) LoadOpenTrades(_ context.Context) (map[string]*models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*models.Trade, len(m.open))
	for id, t := range m.open {
		out[id] = copyTrade(t)
	}
	return out, nil
}

// SaveOpenTrades replaces the open-trades document.
func (m *MemoryStore) SaveOpenTrades(_ context.Context, trades map[string]*models.Trade) error {
	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = make(map[string]*models.Trade, len(trades))
	for id, t := range trades {
		m.open[id] = copyTrade(t)
	}
	m.SaveCount++
	return nil
}

// LoadHistory returns a copy of the closed-trade history.
func (m *MemoryStore) LoadHistory(_ context.Context) ([]*models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Trade, len(m.history))
	for i, t := range m.history {
		out[i] = copyTrade(t)
	}
	return out, nil
}

// SaveHistory replaces the closed-trade history.
func (m *MemoryStore) SaveHistory(_ context.Context, history []*models.Trade) error {
	if err := validateTrades(history); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = make([]*models.Trade, len(history))
	for i, t := range history {
		m.history[i] = copyTrade(t)
	}
	m.SaveCount++
	return nil
}

// LoadDailyStats returns a copy of the daily stats record.
func (m *MemoryStore) LoadDailyStats(_ context.Context) (*models.DailyStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := *m.stats
	return &stats, nil
}

// SaveDailyStats replaces the daily stats record.
func (m *MemoryStore) SaveDailyStats(_ context.Context, stats *models.DailyStats) error {
	if err := stats.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *stats
	m.stats = &s
	m.SaveCount++
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
