package db

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/rsi-alert/internal/candle"
	"github.com/amirphl/rsi-alert/internal/journal"
	"github.com/amirphl/rsi-alert/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailySeries(symbol string, m market.Market, start time.Time, closes []float64) []candle.Candle {
	out := make([]candle.Candle, len(closes))
	for i, c := range closes {
		out[i] = candle.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
			Symbol:    symbol,
			Market:    m,
			Timeframe: "1d",
			Source:    "test",
		}
	}
	return out
}

func TestMemoryStorage_Candles(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries("AAPL", market.US, start, []float64{10, 11, 12, 13, 14})

	// Saved out of order, read back in order.
	require.NoError(t, s.SaveCandles(ctx, []candle.Candle{series[3], series[0], series[4]}))
	require.NoError(t, s.SaveCandles(ctx, []candle.Candle{series[2], series[1]}))

	got, err := s.GetCandles(ctx, market.US, "aapl", "1d", start, start.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12, 13, 14}, candle.Closes(got))

	got, err = s.GetCandles(ctx, market.US, "AAPL", "1d", start.AddDate(0, 0, 1), start.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12}, candle.Closes(got))

	// Same market/symbol/timeframe/timestamp replaces the bar.
	replaced := series[4]
	replaced.Close = 14.5
	require.NoError(t, s.SaveCandles(ctx, []candle.Candle{replaced}))

	latest, err := s.GetLatestCandles(ctx, market.US, "AAPL", "1d", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 14.5}, candle.Closes(latest))

	// Other markets are separate series.
	other, err := s.GetLatestCandles(ctx, market.HK, "AAPL", "1d", 2)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.DeleteCandles(ctx, market.US, "AAPL", "1d", start.AddDate(0, 0, 3)))
	latest, err = s.GetLatestCandles(ctx, market.US, "AAPL", "1d", 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 14.5}, candle.Closes(latest))

	none, err := s.GetLatestCandles(ctx, market.US, "AAPL", "1d", 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMemoryStorage_RejectsInvalidCandles(t *testing.T) {
	s := NewMemory()
	bad := dailySeries("AAPL", market.US, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []float64{10})
	bad[0].High = 1
	err := s.SaveCandles(context.Background(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid candle at index 0")
}

func TestMemoryStorage_Journal(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	bar := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	e := journal.Entry{Rule: "tencent", Market: market.HK, Symbol: "00700", Timeframe: "1d", Kind: "oversold", Value: 22.5, BarTime: bar}

	ok, err := s.Record(ctx, e)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Record(ctx, e)
	require.NoError(t, err)
	assert.False(t, ok)

	e2 := e
	e2.BarTime = bar.AddDate(0, 0, 1)
	e2.Kind = "overbought"
	ok, err = s.Record(ctx, e2)
	require.NoError(t, err)
	assert.True(t, ok)

	last, err := s.Last(ctx, "tencent")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "overbought", last.Kind)
	assert.False(t, last.CreatedAt.IsZero())

	none, err := s.Last(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}
