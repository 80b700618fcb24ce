package indicators

import (
	"adxIndicator/internal/domain"
	"fmt"
	"math"
	"time"
)

// PriceSeries holds aligned high, low and close values sharing one index.
type PriceSeries struct {
	Index []time.Time // Optional; nil means positional indexing
	High  []float64
	Low   []float64
	Close []float64
}

// PriceSeriesFromKlines builds a PriceSeries from klines ordered oldest first.
func PriceSeriesFromKlines(klines []*domain.Kline) PriceSeries {
	ps := PriceSeries{
		Index: make([]time.Time, len(klines)),
		High:  make([]float64, len(klines)),
		Low:   make([]float64, len(klines)),
		Close: make([]float64, len(klines)),
	}
	for i, k := range klines {
		ps.Index[i] = k.OpenTime
		ps.High[i] = k.High
		ps.Low[i] = k.Low
		ps.Close[i] = k.Close
	}
	return ps
}

// Len returns the number of bars in the series.
func (p PriceSeries) Len() int {
	return len(p.Close)
}

func (p PriceSeries) validate() error {
	n := len(p.Close)
	if len(p.High) != n || len(p.Low) != n {
		return fmt.Errorf("%w: high=%d low=%d close=%d", ErrMismatchedSeries, len(p.High), len(p.Low), n)
	}
	if p.Index != nil && len(p.Index) != n {
		return fmt.Errorf("%w: index=%d close=%d", ErrMismatchedSeries, len(p.Index), n)
	}
	return nil
}

// Series is a named indicator output aligned to the input index.
type Series struct {
	Name   string
	Index  []time.Time
	Values []float64
}

// Len returns the number of values in the series.
func (s Series) Len() int {
	return len(s.Values)
}

// At returns the value at position i.
func (s Series) At(i int) float64 {
	return s.Values[i]
}

// Last returns the most recent value, or NaN for an empty series.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// extremeFunc selects which side of a pair wins in directionalExtreme.
type extremeFunc int

const (
	extremeMax extremeFunc = iota
	extremeMin
)

// directionalExtreme returns the elementwise max or min of two aligned slices.
// A NaN on either side yields NaN.
func directionalExtreme(a, b []float64, fn extremeFunc) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			out[i] = math.NaN()
			continue
		}
		if fn == extremeMax {
			out[i] = math.Max(a[i], b[i])
		} else {
			out[i] = math.Min(a[i], b[i])
		}
	}
	return out
}

// shift moves values forward by one bar, leaving the first slot undefined.
func shift(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = math.NaN()
	copy(out[1:], values[:len(values)-1])
	return out
}

// fillUndefined replaces NaN and infinite values with v in place.
func fillUndefined(values []float64, v float64) {
	for i, x := range values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			values[i] = v
		}
	}
}

// alignToIndex maps a smoothed slice back onto the original timeline by
// prefixing pad sentinel values.
func alignToIndex(values []float64, pad int, sentinel float64) []float64 {
	out := make([]float64, pad+len(values))
	for i := 0; i < pad; i++ {
		out[i] = sentinel
	}
	copy(out[pad:], values)
	return out
}

// copyIndex returns a copy of idx so outputs never alias caller memory.
func copyIndex(idx []time.Time) []time.Time {
	if idx == nil {
		return nil
	}
	out := make([]time.Time, len(idx))
	copy(out, idx)
	return out
}
