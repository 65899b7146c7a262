package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/rsi-alert/internal/candle"
	"github.com/amirphl/rsi-alert/internal/journal"
	"github.com/amirphl/rsi-alert/internal/market"
)

// MemoryStorage is a map-backed Storage for CSV mode and tests.
type MemoryStorage struct {
	mu sync.RWMutex

	// Series keyed by market|SYMBOL|timeframe, each sorted by timestamp
	series map[string][]candle.Candle

	// Alerts in insertion order
	alerts []journal.Entry
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		series: make(map[string][]candle.Candle),
	}
}

// GetDB returns nil for in-memory storage (no SQL database)
func (m *MemoryStorage) GetDB() *sql.DB { return nil }

func seriesKey(mk market.Market, symbol, timeframe string) string {
	return string(mk) + "|" + strings.ToUpper(symbol) + "|" + timeframe
}

func (m *MemoryStorage) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid candle at index %d for %s %s at %s: %w",
				i, c.Symbol, c.Timeframe, c.Timestamp, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range candles {
		c.Timestamp = c.Timestamp.UTC()
		key := seriesKey(c.Market, c.Symbol, c.Timeframe)
		s := m.series[key]
		idx := sort.Search(len(s), func(i int) bool { return !s[i].Timestamp.Before(c.Timestamp) })
		if idx < len(s) && s[idx].Timestamp.Equal(c.Timestamp) {
			s[idx] = c
			continue
		}
		s = append(s, candle.Candle{})
		copy(s[idx+1:], s[idx:])
		s[idx] = c
		m.series[key] = s
	}
	return nil
}

func (m *MemoryStorage) GetCandles(ctx context.Context, mk market.Market, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []candle.Candle
	for _, c := range m.series[seriesKey(mk, symbol, timeframe)] {
		if !c.Timestamp.Before(start) && c.Timestamp.Before(end) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStorage) GetLatestCandles(ctx context.Context, mk market.Market, symbol, timeframe string, limit int) ([]candle.Candle, error) {
	if limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.series[seriesKey(mk, symbol, timeframe)]
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	if len(s) == 0 {
		return nil, nil
	}
	out := make([]candle.Candle, len(s))
	copy(out, s)
	return out, nil
}

func (m *MemoryStorage) DeleteCandles(ctx context.Context, mk market.Market, symbol, timeframe string, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := seriesKey(mk, symbol, timeframe)
	s := m.series[key]
	idx := sort.Search(len(s), func(i int) bool { return !s[i].Timestamp.Before(before) })
	m.series[key] = append([]candle.Candle(nil), s[idx:]...)
	return nil
}

func (m *MemoryStorage) Record(ctx context.Context, e journal.Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.alerts {
		if a.Rule == e.Rule && a.Kind == e.Kind && a.BarTime.Equal(e.BarTime) {
			return false, nil
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.alerts = append(m.alerts, e)
	return true, nil
}

func (m *MemoryStorage) Last(ctx context.Context, rule string) (*journal.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *journal.Entry
	for i := range m.alerts {
		a := m.alerts[i]
		if a.Rule != rule {
			continue
		}
		if last == nil || !a.BarTime.Before(last.BarTime) {
			last = &a
		}
	}
	return last, nil
}
