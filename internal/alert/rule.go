// Package alert turns RSI readings over stored quote series into notifications.
package alert

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/amirphl/rsi-alert/internal/candle"
	"github.com/amirphl/rsi-alert/internal/indicator"
	"github.com/amirphl/rsi-alert/internal/market"
	"github.com/amirphl/rsi-alert/internal/tfutils"
)

var ErrInvalidRule = errors.New("invalid alert rule")

type Kind string

const (
	Overbought Kind = "overbought"
	Oversold   Kind = "oversold"
)

const (
	DefaultOverbought = 70.0
	DefaultOversold   = 30.0
)

// Rule watches one series and fires when its RSI leaves [Oversold, Overbought].
type Rule struct {
	Name       string        `yaml:"name"`
	Symbol     string        `yaml:"symbol"`
	Market     market.Market `yaml:"market"`
	Timeframe  string        `yaml:"timeframe"`
	Indicator  string        `yaml:"indicator"`
	Period     int           `yaml:"period"`
	Overbought float64       `yaml:"overbought"`
	Oversold   float64       `yaml:"oversold"`
	// Lookback is how many bars are loaded per check.
	Lookback int `yaml:"lookback"`
}

// WithDefaults fills unset fields.
func (r Rule) WithDefaults() Rule {
	if r.Timeframe == "" {
		r.Timeframe = "1d"
	}
	if r.Indicator == "" {
		r.Indicator = "rsi"
	}
	if r.Period == 0 {
		r.Period = indicator.DefaultRSIPeriod
	}
	if r.Overbought == 0 {
		r.Overbought = DefaultOverbought
	}
	if r.Oversold == 0 {
		r.Oversold = DefaultOversold
	}
	if r.Lookback == 0 {
		r.Lookback = 10 * r.Period
	}
	if r.Name == "" {
		r.Name = fmt.Sprintf("%s-%s-%s", r.Market, r.Symbol, r.Timeframe)
	}
	return r
}

func (r Rule) Validate() error {
	switch {
	case r.Symbol == "":
		return fmt.Errorf("%w: empty symbol", ErrInvalidRule)
	case !r.Market.Valid():
		return fmt.Errorf("%w %s: unsupported market %q", ErrInvalidRule, r.Name, r.Market)
	case !tfutils.IsValidTimeframe(r.Timeframe):
		return fmt.Errorf("%w %s: unsupported timeframe %q (supported: %v)", ErrInvalidRule, r.Name, r.Timeframe, tfutils.GetSupportedTimeframes())
	case r.Period <= 0:
		return fmt.Errorf("%w %s: period must be positive", ErrInvalidRule, r.Name)
	case r.Oversold < 0 || r.Overbought > 100 || r.Oversold >= r.Overbought:
		return fmt.Errorf("%w %s: need 0 <= oversold < overbought <= 100", ErrInvalidRule, r.Name)
	case r.Lookback < r.Period+2:
		return fmt.Errorf("%w %s: lookback must be at least period+2", ErrInvalidRule, r.Name)
	}
	ind, err := indicator.ByName(r.Indicator)
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalidRule, r.Name, err)
	}
	if _, ok := ind.(indicator.RSIIndicator); !ok {
		return fmt.Errorf("%w %s: %s is not bounded to 0..100", ErrInvalidRule, r.Name, ind.Name())
	}
	return nil
}

// Alert is a band crossing on the latest bar of a series.
type Alert struct {
	Rule      string
	Kind      Kind
	Symbol    string
	Market    market.Market
	Timeframe string
	Value     float64
	Previous  float64
	Price     float64
	BarTime   time.Time
}

func (a Alert) Message() string {
	return fmt.Sprintf("[%s] %s %s (%s): RSI %.2f -> %.2f, %s, close %.4g at %s",
		a.Rule, a.Market, a.Symbol, a.Timeframe, a.Previous, a.Value, a.Kind, a.Price,
		a.BarTime.In(a.Market.Location()).Format("2006-01-02 15:04"))
}

// Evaluate computes the rule's RSI over candles (oldest first) and returns an
// Alert when the last bar crossed out of the band. It returns nil when the
// reading stayed inside the band or was already outside on the previous bar.
func Evaluate(rule Rule, candles []candle.Candle) (*Alert, error) {
	ind, err := indicator.ByName(rule.Indicator)
	if err != nil {
		return nil, err
	}
	if len(candles) < rule.Period+2 {
		return nil, fmt.Errorf("%w: rule %s needs %d bars, got %d",
			indicator.ErrInsufficientData, rule.Name, rule.Period+2, len(candles))
	}

	rsi, err := ind.Calculate(candle.Closes(candles), float64(rule.Period))
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	n := len(rsi)
	prev, cur := rsi[n-2], rsi[n-1]
	if math.IsNaN(prev) || math.IsNaN(cur) {
		return nil, nil
	}

	var kind Kind
	switch {
	case prev <= rule.Overbought && cur > rule.Overbought:
		kind = Overbought
	case prev >= rule.Oversold && cur < rule.Oversold:
		kind = Oversold
	default:
		return nil, nil
	}

	last := candles[len(candles)-1]
	return &Alert{
		Rule:      rule.Name,
		Kind:      kind,
		Symbol:    rule.Symbol,
		Market:    rule.Market,
		Timeframe: rule.Timeframe,
		Value:     cur,
		Previous:  prev,
		Price:     last.Close,
		BarTime:   last.Timestamp,
	}, nil
}
