// Package window computes trailing-window sums and simple moving averages
// over chronological samples.
//
// A window is identified by (thisIndex, pre) and covers the indices
// (thisIndex-pre, thisIndex]. Indices that fall outside the sequence are
// skipped rather than reported, so a window near the start of a series simply
// holds fewer samples.
package window

import (
	"errors"

	"golang.org/x/exp/constraints"
)

// ErrZeroWindow is returned by MovingAverage when the window length is zero.
var ErrZeroWindow = errors.New("window: moving average over zero-length window")

// Number is any value an extractor may produce.
type Number interface {
	constraints.Integer | constraints.Float
}

// Extractor maps a record to the value being aggregated. It must be pure.
type Extractor[T any, N Number] func(T) N

// FallibleExtractor is an Extractor that may fail for a record.
type FallibleExtractor[T any, N Number] func(T) (N, error)

// bounds returns the half-open slice range [lo, hi) covered by the window,
// clamped to the sequence. lo >= hi means the window is empty.
func bounds(n, thisIndex, pre int) (lo, hi int) {
	if pre <= 0 || thisIndex < 0 || n == 0 {
		return 0, 0
	}
	lo = thisIndex - pre + 1
	if lo < 0 {
		lo = 0
	}
	hi = n
	if thisIndex < n {
		hi = thisIndex + 1
	}
	return lo, hi
}

// Sum adds extract(seq[i]) for every i with thisIndex-pre < i <= thisIndex,
// left to right. It returns 0 for an empty or inverted window.
func Sum[T any, N Number](seq []T, extract Extractor[T, N], thisIndex, pre int) float64 {
	lo, hi := bounds(len(seq), thisIndex, pre)
	sum := 0.0
	for i := lo; i < hi; i++ {
		sum += float64(extract(seq[i]))
	}
	return sum
}

// MovingAverage returns Sum divided by pre.
//
// The divisor is always the nominal window length, even when part of the
// window lies before the start of seq, so early averages are biased toward
// zero. A zero pre yields ErrZeroWindow.
func MovingAverage[T any, N Number](seq []T, extract Extractor[T, N], thisIndex, pre int) (float64, error) {
	if pre == 0 {
		return 0, ErrZeroWindow
	}
	return Sum(seq, extract, thisIndex, pre) / float64(pre), nil
}

// TrySum is Sum for extractors that can fail. The first error is returned
// as is and the partial sum is discarded.
func TrySum[T any, N Number](seq []T, extract FallibleExtractor[T, N], thisIndex, pre int) (float64, error) {
	lo, hi := bounds(len(seq), thisIndex, pre)
	sum := 0.0
	for i := lo; i < hi; i++ {
		v, err := extract(seq[i])
		if err != nil {
			return 0, err
		}
		sum += float64(v)
	}
	return sum, nil
}

// TryMovingAverage is MovingAverage for extractors that can fail.
func TryMovingAverage[T any, N Number](seq []T, extract FallibleExtractor[T, N], thisIndex, pre int) (float64, error) {
	if pre == 0 {
		return 0, ErrZeroWindow
	}
	sum, err := TrySum(seq, extract, thisIndex, pre)
	if err != nil {
		return 0, err
	}
	return sum / float64(pre), nil
}

// Identity is the extractor for sequences that already hold numbers.
func Identity[N Number](v N) N { return v }
