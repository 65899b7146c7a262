package db

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/rsi-alert/internal/candle"
	dbconf "github.com/amirphl/rsi-alert/internal/db/conf"
	"github.com/amirphl/rsi-alert/internal/journal"
	"github.com/amirphl/rsi-alert/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgres(t *testing.T) *Default {
	t.Helper()
	cfg, cleanup := dbconf.NewTestConfig(t)
	require.NotNil(t, cfg)
	t.Cleanup(cleanup)

	pg, err := New(*cfg)
	require.NoError(t, err)
	return pg
}

func TestNew_NilPool(t *testing.T) {
	_, err := New(dbconf.Config{})
	assert.Error(t, err)
}

func TestPostgres_Candles(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries("600519", market.CN, start, []float64{10, 11, 12, 13, 14})

	require.NoError(t, pg.SaveCandles(ctx, series))

	// Upsert replaces the stored bar.
	updated := series[4]
	updated.Close = 14.5
	updated.High = 15.5
	require.NoError(t, pg.SaveCandles(ctx, []candle.Candle{updated}))

	got, err := pg.GetCandles(ctx, market.CN, "600519", "1d", start.AddDate(0, 0, 1), start.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{11, 12, 13}, candle.Closes(got))

	latest, err := pg.GetLatestCandles(ctx, market.CN, "600519", "1d", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 14.5}, candle.Closes(latest))

	require.NoError(t, pg.DeleteCandles(ctx, market.CN, "600519", "1d", start.AddDate(0, 0, 3)))
	latest, err = pg.GetLatestCandles(ctx, market.CN, "600519", "1d", 10)
	require.NoError(t, err)
	assert.Len(t, latest, 2)

	err = pg.SaveCandles(ctx, []candle.Candle{{Symbol: "X"}})
	assert.Error(t, err)
}

func TestPostgres_Journal(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()
	bar := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	e := journal.Entry{Rule: "moutai", Market: market.CN, Symbol: "600519", Timeframe: "1d", Kind: "overbought", Value: 81.2, BarTime: bar}

	ok, err := pg.Record(ctx, e)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pg.Record(ctx, e)
	require.NoError(t, err)
	assert.False(t, ok)

	last, err := pg.Last(ctx, "moutai")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, bar.Equal(last.BarTime))
	assert.Equal(t, "overbought", last.Kind)

	none, err := pg.Last(ctx, "other")
	require.NoError(t, err)
	assert.Nil(t, none)
}
