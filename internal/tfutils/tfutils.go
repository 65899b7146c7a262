package tfutils

import (
	"errors"
	"sort"
	"time"
)

var ErrUnsupportedTimeframe = errors.New("unsupported timeframe")

var durations = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// ParseTimeframe parses timeframe string (e.g., "5m", "1d") to time.Duration
func ParseTimeframe(timeframe string) (time.Duration, error) {
	d, ok := durations[timeframe]
	if !ok {
		return 0, ErrUnsupportedTimeframe
	}
	return d, nil
}

// GetTimeframeDuration returns the duration for a given timeframe, or 0 when unsupported
func GetTimeframeDuration(timeframe string) time.Duration {
	return durations[timeframe]
}

// GetSupportedTimeframes returns all supported timeframes, shortest first
func GetSupportedTimeframes() []string {
	tfs := make([]string, 0, len(durations))
	for tf := range durations {
		tfs = append(tfs, tf)
	}
	sort.Slice(tfs, func(i, j int) bool { return durations[tfs[i]] < durations[tfs[j]] })
	return tfs
}

// IsValidTimeframe checks if a timeframe is supported
func IsValidTimeframe(timeframe string) bool {
	return GetTimeframeDuration(timeframe) > 0
}
