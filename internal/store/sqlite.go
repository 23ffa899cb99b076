package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	apperrors "orb-trader/internal/errors"
	"orb-trader/internal/models"
)

// SQLiteStore implements Store using SQLite. Each document lives in its
// own table and is replaced wholesale on save, mirroring the document
// semantics the engine expects.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore creates a new SQLite-based store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open database")
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "failed to initialize schema")
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Open trades document, keyed by trade id
	CREATE TABLE IF NOT EXISTS open_trades (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Closed-trade history document, append order preserved by seq
	CREATE TABLE IF NOT EXISTS trade_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		doc TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Single-row daily stats document
	CREATE TABLE IF NOT EXISTS daily_stats (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadOpenTrades loads the open-trades document.
func (s *SQLiteStore) LoadOpenTrades(ctx context.Context) (map[string]*models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM open_trades`)
	if err != nil {
		return nil, apperrors.Wrap(err, "querying open trades")
	}
	defer rows.Close()

	trades := make(map[string]*models.Trade)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, apperrors.Wrap(err, "scanning open trade")
		}
		var t models.Trade
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, apperrors.Wrap(err, "decoding open trade")
		}
		if err := t.Validate(); err != nil {
			return nil, apperrors.Wrap(err, "invalid stored trade")
		}
		trades[t.ID] = &t
	}
	return trades, rows.Err()
}

// SaveOpenTrades overwrites the open-trades document in full.
func (s *SQLiteStore) SaveOpenTrades(ctx context.Context, trades map[string]*models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "beginning tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM open_trades`); err != nil {
		return apperrors.Wrap(err, "clearing open trades")
	}
	for id, t := range trades {
		doc, err := json.Marshal(t)
		if err != nil {
			return apperrors.Wrapf(err, "encoding trade %s", id)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO open_trades (id, doc) VALUES (?, ?)`, id, string(doc)); err != nil {
			return apperrors.Wrapf(err, "inserting trade %s", id)
		}
	}

	return tx.Commit()
}

// LoadHistory loads the closed-trade history in append order.
func (s *SQLiteStore) LoadHistory(ctx context.Context) ([]*models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM trade_history ORDER BY seq`)
	if err != nil {
		return nil, apperrors.Wrap(err, "querying history")
	}
	defer rows.Close()

	var history []*models.Trade
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, apperrors.Wrap(err, "scanning history row")
		}
		var t models.Trade
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return nil, apperrors.Wrap(err, "decoding history row")
		}
		history = append(history, &t)
	}
	return history, rows.Err()
}

// SaveHistory overwrites the closed-trade history in full, preserving order.
func (s *SQLiteStore) SaveHistory(ctx context.Context, history []*models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateTrades(history); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, "beginning tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_history`); err != nil {
		return apperrors.Wrap(err, "clearing history")
	}
	for _, t := range history {
		doc, err := json.Marshal(t)
		if err != nil {
			return apperrors.Wrapf(err, "encoding trade %s", t.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trade_history (id, doc) VALUES (?, ?)`, t.ID, string(doc)); err != nil {
			return apperrors.Wrapf(err, "inserting history %s", t.ID)
		}
	}

	return tx.Commit()
}

// LoadDailyStats loads the daily stats record, or a zero record when
// none has been saved yet.
func (s *SQLiteStore) LoadDailyStats(ctx context.Context) (*models.DailyStats, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM daily_stats WHERE id = 1`).Scan(&doc)
	if err == sql.ErrNoRows {
		return &models.DailyStats{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "querying daily stats")
	}

	var stats models.DailyStats
	if err := json.Unmarshal([]byte(doc), &stats); err != nil {
		return nil, apperrors.Wrap(err, "decoding daily stats")
	}
	if err := stats.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "invalid stored stats")
	}
	return &stats, nil
}

// SaveDailyStats overwrites the daily stats record.
func (s *SQLiteStore) SaveDailyStats(ctx context.Context, stats *models.DailyStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := stats.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(stats)
	if err != nil {
		return apperrors.Wrap(err, "encoding daily stats")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_stats (id, doc) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		string(doc))
	if err != nil {
		return apperrors.Wrap(err, "saving daily stats")
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
