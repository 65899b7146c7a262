// Package db
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/amirphl/rsi-alert/internal/candle"
	"github.com/amirphl/rsi-alert/internal/journal"
	"github.com/amirphl/rsi-alert/internal/market"
)

// CandleStorage persists quote series keyed by market, symbol and timeframe.
type CandleStorage interface {
	SaveCandles(ctx context.Context, candles []candle.Candle) error
	// GetCandles returns candles with start <= timestamp < end, oldest first.
	GetCandles(ctx context.Context, m market.Market, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error)
	// GetLatestCandles returns up to limit most recent candles, oldest first.
	GetLatestCandles(ctx context.Context, m market.Market, symbol, timeframe string, limit int) ([]candle.Candle, error)
	DeleteCandles(ctx context.Context, m market.Market, symbol, timeframe string, before time.Time) error
}

// Storage is the interface for all persistent storage.
type Storage interface {
	GetDB() *sql.DB
	CandleStorage
	journal.Journaler
}

var (
	_ Storage = (*Default)(nil)
	_ Storage = (*MemoryStorage)(nil)
)
