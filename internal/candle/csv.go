package candle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/rsi-alert/internal/market"
)

var csvHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// ReadCSV parses a quote export with the header
// timestamp,open,high,low,close,volume. Timestamps are RFC3339 or plain
// dates, the latter read as midnight in the market's time zone. The result is
// sorted by time and every row is validated.
func ReadCSV(r io.Reader, symbol string, m market.Market, timeframe string) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) != csvHeader[i] {
			return nil, fmt.Errorf("unexpected csv column %d: %q, expected %q", i, h, csvHeader[i])
		}
	}

	loc := m.Location()
	var candles []Candle
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		ts, err := parseTimestamp(rec[0], loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var vals [5]float64
		for i := range vals {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s %q: %w", line, csvHeader[i+1], rec[i+1], err)
			}
		}

		c := Candle{
			Timestamp: ts.UTC(),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
			Symbol:    symbol,
			Market:    m,
			Timeframe: timeframe,
			Source:    "csv",
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: invalid candle: %w", line, err)
		}
		candles = append(candles, c)
	}

	SortByTime(candles)
	return candles, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts, nil
}

// WriteCSV writes candles in the format ReadCSV accepts.
func WriteCSV(w io.Writer, candles []Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range candles {
		rec := []string{
			c.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
