package journal

import (
	"context"
	"time"

	"github.com/amirphl/rsi-alert/internal/market"
)

// Entry is a journaled alert.
type Entry struct {
	Rule      string
	Market    market.Market
	Symbol    string
	Timeframe string
	Kind      string // e.g., "overbought", "oversold"
	Value     float64
	BarTime   time.Time
	CreatedAt time.Time
}

// Journaler records fired alerts so a rule never fires twice for the same bar.
type Journaler interface {
	// Record stores e and reports false when the same rule, bar and kind
	// were already recorded.
	Record(ctx context.Context, e Entry) (bool, error)
	// Last returns the most recent entry for rule, or nil when none exists.
	Last(ctx context.Context, rule string) (*Entry, error)
}
