package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/amirphl/rsi-alert/internal/candle"
	"github.com/amirphl/rsi-alert/internal/db/conf"
	"github.com/amirphl/rsi-alert/internal/journal"
	"github.com/amirphl/rsi-alert/internal/market"
	_ "github.com/lib/pq"
)

// Transaction context key
type txKey struct{}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction retrieves a transaction from context, or returns nil if not present
func GetTransaction(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// executeWithTransaction runs fn inside the context's transaction, or in a new one
func (p *Default) executeWithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if tx := GetTransaction(ctx); tx != nil {
		return fn(tx)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if fnErr := fn(tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, fnErr)
		}
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("transaction commit failed: %w", commitErr)
	}

	return nil
}

// queryWithTransaction executes a query using transaction from context if available
func (p *Default) queryWithTransaction(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if tx := GetTransaction(ctx); tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return p.db.QueryContext(ctx, query, args...)
}

// Default is the PostgreSQL storage.
type Default struct {
	db *sql.DB
}

func New(c conf.Config) (*Default, error) {
	if c.DB == nil {
		return nil, errors.New("db: nil connection pool")
	}
	return &Default{db: c.DB}, nil
}

func (p *Default) GetDB() *sql.DB {
	return p.db
}

// SaveCandles upserts candles in one transaction
func (p *Default) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid candle at index %d for %s %s at %s: %w",
				i, c.Symbol, c.Timeframe, c.Timestamp, err)
		}
	}

	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO candles (market, symbol, timeframe, timestamp, open, high, low, close, volume, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (market, symbol, timeframe, timestamp) DO UPDATE SET
				open=EXCLUDED.open, high=EXCLUDED.high, low=EXCLUDED.low,
				close=EXCLUDED.close, volume=EXCLUDED.volume, source=EXCLUDED.source
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement: %w", err)
		}
		defer stmt.Close()

		for i, c := range candles {
			if _, err := stmt.ExecContext(ctx,
				c.Market, c.Symbol, c.Timeframe, c.Timestamp.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume, c.Source); err != nil {
				return fmt.Errorf("failed to save candle at index %d (%s %s at %s): %w",
					i, c.Symbol, c.Timeframe, c.Timestamp, err)
			}
		}
		return nil
	})
}

func scanCandles(rows *sql.Rows) ([]candle.Candle, error) {
	defer rows.Close()

	var candles []candle.Candle
	for rows.Next() {
		var c candle.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume,
			&c.Market, &c.Symbol, &c.Timeframe, &c.Source); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candle rows: %w", err)
	}
	return candles, nil
}

// GetCandles retrieves candles in [start, end), oldest first
func (p *Default) GetCandles(ctx context.Context, m market.Market, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error) {
	rows, err := p.queryWithTransaction(ctx, `
		SELECT timestamp, open, high, low, close, volume, market, symbol, timeframe, source
		FROM candles
		WHERE market=$1 AND symbol=$2 AND timeframe=$3 AND timestamp >= $4 AND timestamp < $5
		ORDER BY timestamp ASC`,
		m, symbol, timeframe, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query candles in range: %w", err)
	}
	return scanCandles(rows)
}

// GetLatestCandles retrieves the most recent limit candles, oldest first
func (p *Default) GetLatestCandles(ctx context.Context, m market.Market, symbol, timeframe string, limit int) ([]candle.Candle, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := p.queryWithTransaction(ctx, `
		SELECT timestamp, open, high, low, close, volume, market, symbol, timeframe, source
		FROM candles
		WHERE market=$1 AND symbol=$2 AND timeframe=$3
		ORDER BY timestamp DESC LIMIT $4`,
		m, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest candles: %w", err)
	}
	candles, err := scanCandles(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(candles)
	return candles, nil
}

// DeleteCandles removes candles older than before
func (p *Default) DeleteCandles(ctx context.Context, m market.Market, symbol, timeframe string, before time.Time) error {
	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM candles WHERE market=$1 AND symbol=$2 AND timeframe=$3 AND timestamp < $4`,
			m, symbol, timeframe, before.UTC())
		if err != nil {
			return fmt.Errorf("failed to delete candles: %w", err)
		}
		return nil
	})
}

// Record journals a fired alert; duplicates for the same rule, bar and kind are ignored
func (p *Default) Record(ctx context.Context, e journal.Entry) (bool, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var inserted bool
	err := p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO alerts (rule, market, symbol, timeframe, kind, value, bar_time, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (rule, bar_time, kind) DO NOTHING`,
			e.Rule, e.Market, e.Symbol, e.Timeframe, e.Kind, e.Value, e.BarTime.UTC(), e.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to record alert for rule %s: %w", e.Rule, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected for rule %s: %w", e.Rule, err)
		}
		inserted = n > 0
		return nil
	})
	return inserted, err
}

// Last returns the latest journaled alert for rule
func (p *Default) Last(ctx context.Context, rule string) (*journal.Entry, error) {
	rows, err := p.queryWithTransaction(ctx, `
		SELECT rule, market, symbol, timeframe, kind, value, bar_time, created_at
		FROM alerts
		WHERE rule=$1
		ORDER BY bar_time DESC, id DESC LIMIT 1`,
		rule)
	if err != nil {
		return nil, fmt.Errorf("failed to query last alert: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var e journal.Entry
	if err := rows.Scan(&e.Rule, &e.Market, &e.Symbol, &e.Timeframe, &e.Kind, &e.Value, &e.BarTime, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan last alert: %w", err)
	}
	e.BarTime = e.BarTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
