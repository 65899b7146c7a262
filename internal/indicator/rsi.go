package indicator

import (
	"fmt"
	"math"

	"github.com/amirphl/rsi-alert/internal/window"
)

const DefaultRSIPeriod = 14

func gain(change float64) float64 { return math.Max(change, 0) }
func loss(change float64) float64 { return math.Max(-change, 0) }

// changes returns prices[i]-prices[i-1] at index i; index 0 holds 0.
func changes(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		out[i] = prices[i] - prices[i-1]
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// RSI computes the relative strength index from simple moving averages of
// the gains and losses over the last period price changes (Cutler's RSI).
// Entries before index period are NaN. Returns nil when period is not
// positive or there are fewer than period+1 prices.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}
	diff := changes(prices)
	rsi := make([]float64, len(prices))
	for i := range rsi {
		if i < period {
			rsi[i] = math.NaN()
			continue
		}
		avgGain, _ := window.MovingAverage(diff, gain, i, period)
		avgLoss, _ := window.MovingAverage(diff, loss, i, period)
		rsi[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return rsi
}

// LastRSI returns the RSI of the most recent price only.
func LastRSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("%w: need %d prices for RSI(%d), got %d", ErrInsufficientData, period+1, period, len(prices))
	}
	// Only the trailing period+1 prices contribute.
	tail := prices[len(prices)-period-1:]
	diff := changes(tail)
	last := len(diff) - 1
	avgGain, _ := window.MovingAverage(diff, gain, last, period)
	avgLoss, _ := window.MovingAverage(diff, loss, last, period)
	return rsiFromAverages(avgGain, avgLoss), nil
}

// WilderRSI computes RSI with Wilder's smoothing: the first average is a
// plain mean of the first period changes, later ones are
// (prev*(period-1) + current) / period.
func WilderRSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}
	diff := changes(prices)
	rsi := make([]float64, len(prices))
	for i := 0; i < period; i++ {
		rsi[i] = math.NaN()
	}

	avgGain, _ := window.MovingAverage(diff, gain, period, period)
	avgLoss, _ := window.MovingAverage(diff, loss, period, period)
	rsi[period] = rsiFromAverages(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		avgGain = (avgGain*(p-1) + gain(diff[i])) / p
		avgLoss = (avgLoss*(p-1) + loss(diff[i])) / p
		rsi[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return rsi
}

// RSIIndicator adapts RSI to the Indicator interface. params[0] is the period.
type RSIIndicator struct {
	Wilder bool
}

func (r RSIIndicator) Name() string {
	if r.Wilder {
		return "RSI (Wilder)"
	}
	return "RSI"
}

func (r RSIIndicator) Calculate(values []float64, params ...float64) ([]float64, error) {
	period, err := periodParam(params, DefaultRSIPeriod)
	if err != nil {
		return nil, err
	}
	if len(values) < period+1 {
		return nil, fmt.Errorf("%w: need %d values for %s(%d), got %d", ErrInsufficientData, period+1, r.Name(), period, len(values))
	}
	if r.Wilder {
		return WilderRSI(values, period), nil
	}
	return RSI(values, period), nil
}
