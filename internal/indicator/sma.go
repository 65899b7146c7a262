package indicator

import "github.com/amirphl/rsi-alert/internal/window"

const DefaultSMAPeriod = 20

// SMA returns the simple moving average of values at every index.
//
// The first period-1 entries are averaged over the nominal period even
// though fewer samples exist, so they ramp up from the start of the series
// instead of being NaN. Returns nil when period is not positive.
func SMA(values []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i := range values {
		// period != 0 here, so MovingAverage cannot fail.
		out[i], _ = window.MovingAverage(values, window.Identity[float64], i, period)
	}
	return out
}

// SMAIndicator adapts SMA to the Indicator interface. params[0] is the period.
type SMAIndicator struct{}

func (SMAIndicator) Name() string { return "SMA" }

func (SMAIndicator) Calculate(values []float64, params ...float64) ([]float64, error) {
	period, err := periodParam(params, DefaultSMAPeriod)
	if err != nil {
		return nil, err
	}
	return SMA(values, period), nil
}
