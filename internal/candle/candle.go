// Package candle
package candle

import (
	"errors"
	"sort"
	"time"

	"github.com/amirphl/rsi-alert/internal/market"
	"github.com/amirphl/rsi-alert/internal/tfutils"
)

// Candle is one OHLCV bar of a quote series.
type Candle struct {
	Timestamp time.Time     `json:"timestamp"`
	Open      float64       `json:"open"`
	High      float64       `json:"high"`
	Low       float64       `json:"low"`
	Close     float64       `json:"close"`
	Volume    float64       `json:"volume"`
	Symbol    string        `json:"symbol"`
	Market    market.Market `json:"market"`
	Timeframe string        `json:"timeframe"`
	Source    string        `json:"source"`
}

// IsComplete checks if the bar's period has already ended
func (c *Candle) IsComplete() bool {
	end := c.Timestamp.Add(tfutils.GetTimeframeDuration(c.Timeframe))
	return time.Now().UTC().After(end)
}

// Validate checks if a candle has valid data
func (c *Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return errors.New("candle timestamp is zero")
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return errors.New("candle prices must be positive")
	}
	if c.High < c.Low {
		return errors.New("candle high cannot be less than low")
	}
	if c.Open < c.Low || c.Open > c.High {
		return errors.New("candle open price must be between high and low")
	}
	if c.Close < c.Low || c.Close > c.High {
		return errors.New("candle close price must be between high and low")
	}
	if c.Volume < 0 {
		return errors.New("candle volume cannot be negative")
	}
	if c.Symbol == "" {
		return errors.New("candle symbol cannot be empty")
	}
	if !c.Market.Valid() {
		return errors.New("candle market is not supported")
	}
	if !tfutils.IsValidTimeframe(c.Timeframe) {
		return errors.New("candle timeframe is not supported")
	}
	return nil
}

// Extractors for window computations over []Candle.

func Open(c Candle) float64   { return c.Open }
func High(c Candle) float64   { return c.High }
func Low(c Candle) float64    { return c.Low }
func Close(c Candle) float64  { return c.Close }
func Volume(c Candle) float64 { return c.Volume }

// Typical is the typical price (H+L+C)/3.
func Typical(c Candle) float64 { return (c.High + c.Low + c.Close) / 3 }

// Closes returns the close prices in series order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// SortByTime orders candles chronologically in place.
func SortByTime(candles []Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
}

// Last returns the most recent candle of a chronological series.
func Last(candles []Candle) (Candle, bool) {
	if len(candles) == 0 {
		return Candle{}, false
	}
	return candles[len(candles)-1], true
}
