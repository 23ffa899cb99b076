package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orb-trader/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "orb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrade(id, symbol string) *models.Trade {
	return &models.Trade{
		ID:               id,
		Symbol:           symbol,
		Direction:        models.DirectionLong,
		EntryPrice:       105.05,
		OriginalStop:     99.90,
		CurrentStop:      99.90,
		Target1:          117.925,
		Target2:          123.075,
		Target3:          115.05,
		TargetRiskReward: 2.5,
		MarketCondition:  models.MarketNormal,
		PositionSize:     90,
		OriginalSize:     90,
		Status:           models.TradeActive,
		CreatedAt:        time.Date(2024, 3, 6, 19, 5, 0, 0, time.UTC),
	}
}

func TestOpenTradesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	trades := map[string]*models.Trade{
		"AAPL_1": sampleTrade("AAPL_1", "AAPL"),
		"TSLA_2": sampleTrade("TSLA_2", "TSLA"),
	}
	require.NoError(t, s.SaveOpenTrades(ctx, trades))

	loaded, err := s.LoadOpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "AAPL", loaded["AAPL_1"].Symbol)
	assert.Equal(t, 2.5, loaded["TSLA_2"].TargetRiskReward)

	// A full save replaces the document; removed trades disappear.
	delete(trades, "TSLA_2")
	require.NoError(t, s.SaveOpenTrades(ctx, trades))
	loaded, err = s.LoadOpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestHistoryPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleTrade("AAPL_1", "AAPL")
	first.Status = models.TradeClosed
	first.ExitPrice = 110
	first.ExitReason = "target 3 hit"
	second := sampleTrade("TSLA_2", "TSLA")
	second.Status = models.TradeClosed
	second.ExitPrice = 99
	second.ExitReason = "stop hit"

	require.NoError(t, s.SaveHistory(ctx, []*models.Trade{first, second}))

	history, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "AAPL_1", history[0].ID)
	assert.Equal(t, "TSLA_2", history[1].ID)
	assert.Equal(t, "stop hit", history[1].ExitReason)
}

func TestDailyStatsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.LoadDailyStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TradesToday)

	stats := &models.DailyStats{
		Day:               "2024-03-06",
		TradesToday:       3,
		DailyPnL:          -120.5,
		ConsecutiveLosses: 2,
		WinRate:           33.3,
	}
	require.NoError(t, s.SaveDailyStats(ctx, stats))

	// Second save overwrites the single record.
	stats.TradesToday = 4
	require.NoError(t, s.SaveDailyStats(ctx, stats))

	loaded, err := s.LoadDailyStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.TradesToday)
	assert.Equal(t, -120.5, loaded.DailyPnL)
}

func TestSaveRejectsInvalidTrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bad := sampleTrade("AAPL_1", "AAPL")
	bad.Direction = "SIDEWAYS"

	err := s.SaveOpenTrades(ctx, map[string]*models.Trade{"AAPL_1": bad})
	require.Error(t, err)

	loaded, err := s.LoadOpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
