package alert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/rsi-alert/internal/candle"
	"github.com/amirphl/rsi-alert/internal/journal"
	"github.com/amirphl/rsi-alert/internal/market"
	"github.com/amirphl/rsi-alert/internal/notifier"
	"github.com/amirphl/rsi-alert/internal/utils"
)

// Source provides the most recent bars of a series, oldest first.
type Source interface {
	GetLatestCandles(ctx context.Context, m market.Market, symbol, timeframe string, limit int) ([]candle.Candle, error)
}

// Checker evaluates a set of rules against a Source and sends each new
// alert once.
type Checker struct {
	source   Source
	journal  journal.Journaler
	notifier notifier.Notifier
	rules    []Rule
	logger   *log.Logger

	// MarketHoursOnly skips rules whose market is outside its regular session.
	MarketHoursOnly bool
	now             func() time.Time
}

type Option func(*Checker)

func WithLogger(l *log.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

func WithMarketHoursOnly(on bool) Option {
	return func(c *Checker) { c.MarketHoursOnly = on }
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// NewChecker validates rules (after filling defaults) and builds a Checker.
func NewChecker(source Source, j journal.Journaler, n notifier.Notifier, rules []Rule, opts ...Option) (*Checker, error) {
	if source == nil || j == nil || n == nil {
		return nil, errors.New("alert: source, journal and notifier are required")
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules configured", ErrInvalidRule)
	}

	seen := make(map[string]bool, len(rules))
	checked := make([]Rule, 0, len(rules))
	for _, r := range rules {
		r = r.WithDefaults()
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRule, r.Name)
		}
		seen[r.Name] = true
		checked = append(checked, r)
	}

	c := &Checker{
		source:   source,
		journal:  j,
		notifier: n,
		rules:    checked,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = utils.GetLogger()
	}
	return c, nil
}

// Rules returns the effective rules, defaults applied.
func (c *Checker) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// CheckOnce evaluates every rule and returns the alerts that were sent.
// A failing rule does not stop the others; all failures are joined.
func (c *Checker) CheckOnce(ctx context.Context) ([]Alert, error) {
	var (
		sent []Alert
		errs []error
	)
	for _, r := range c.rules {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		a, err := c.check(ctx, r)
		if err != nil {
			c.logger.Printf("Alert | [%s] check failed: %v", r.Name, err)
			errs = append(errs, err)
			continue
		}
		if a != nil {
			sent = append(sent, *a)
		}
	}
	return sent, errors.Join(errs...)
}

func (c *Checker) check(ctx context.Context, r Rule) (*Alert, error) {
	if c.MarketHoursOnly && !r.Market.IsTradingTime(c.now()) {
		c.logger.Printf("Alert | [%s] %s market closed, skipping", r.Name, r.Market)
		return nil, nil
	}

	candles, err := c.source.GetLatestCandles(ctx, r.Market, r.Symbol, r.Timeframe, r.Lookback)
	if err != nil {
		return nil, fmt.Errorf("rule %s: failed to load candles: %w", r.Name, err)
	}

	a, err := Evaluate(r, candles)
	if err != nil {
		return nil, err
	}
	if a == nil {
		c.logger.Printf("Alert | [%s] no crossing on %d bars", r.Name, len(candles))
		return nil, nil
	}

	last, err := c.journal.Last(ctx, r.Name)
	if err != nil {
		return nil, fmt.Errorf("rule %s: failed to read alert journal: %w", r.Name, err)
	}
	if last != nil && last.Kind == string(a.Kind) && last.BarTime.Equal(a.BarTime) {
		c.logger.Printf("Alert | [%s] %s already sent for bar %s", r.Name, a.Kind, a.BarTime.Format(time.RFC3339))
		return nil, nil
	}

	if err := c.notifier.SendWithRetry(a.Message()); err != nil {
		return nil, fmt.Errorf("rule %s: failed to send alert: %w", r.Name, err)
	}

	if _, err := c.journal.Record(ctx, journal.Entry{
		Rule:      a.Rule,
		Market:    a.Market,
		Symbol:    a.Symbol,
		Timeframe: a.Timeframe,
		Kind:      string(a.Kind),
		Value:     a.Value,
		BarTime:   a.BarTime,
		CreatedAt: c.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("rule %s: alert sent but not journaled: %w", r.Name, err)
	}

	c.logger.Printf("Alert | [%s] sent %s RSI=%.2f", r.Name, a.Kind, a.Value)
	return a, nil
}

// Run checks immediately and then on every tick until ctx is cancelled.
// Check failures are logged and do not stop the loop.
func (c *Checker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("alert: interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Printf("Alert | starting checker for %d rules every %s", len(c.rules), interval)
	for {
		if _, err := c.CheckOnce(ctx); err != nil && ctx.Err() == nil {
			c.logger.Printf("Alert | check round finished with errors: %v", err)
		}

		select {
		case <-ctx.Done():
			c.logger.Println("Alert | checker stopped")
			return nil
		case <-ticker.C:
		}
	}
}
