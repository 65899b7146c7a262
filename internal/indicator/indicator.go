package indicator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrInvalidPeriod    = errors.New("period must be a positive integer")
	ErrInsufficientData = errors.New("insufficient data")
)

// Indicator is the interface for all technical indicators.
type Indicator interface {
	Name() string
	Calculate(values []float64, params ...float64) ([]float64, error)
}

// periodParam reads the first parameter as a window length.
func periodParam(params []float64, def int) (int, error) {
	if len(params) == 0 {
		return def, nil
	}
	p := int(params[0])
	if p <= 0 || float64(p) != params[0] {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPeriod, params[0])
	}
	return p, nil
}

// ByName returns the indicator registered under name (case-insensitive).
func ByName(name string) (Indicator, error) {
	switch strings.ToLower(name) {
	case "sma", "ma":
		return SMAIndicator{}, nil
	case "rsi":
		return RSIIndicator{}, nil
	case "wilder-rsi", "rsi-wilder":
		return RSIIndicator{Wilder: true}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndicator, name)
	}
}
