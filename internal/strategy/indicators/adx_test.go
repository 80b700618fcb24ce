package indicators

import (
	"adxIndicator/internal/domain"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample is a short, hand-checkable series used with window 3.
func sample() PriceSeries {
	return PriceSeries{
		High:  []float64{10, 11, 12, 11.5, 13, 14, 13.5, 15},
		Low:   []float64{9, 9.5, 10.5, 10, 11.5, 12.5, 12, 13.5},
		Close: []float64{9.5, 10.5, 11.5, 10.5, 12.5, 13.5, 12.5, 14.5},
	}
}

// chopThenTrend alternates around 100 for 20 bars and then climbs steadily.
func chopThenTrend() PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ps := PriceSeries{}
	for i := 0; i < 60; i++ {
		var c float64
		if i < 20 {
			if i%2 == 1 {
				c = 101
			} else {
				c = 99
			}
		} else {
			c = 100 + 0.8*float64(i-19)
		}
		ps.Index = append(ps.Index, start.Add(time.Duration(i)*time.Hour))
		ps.Close = append(ps.Close, c)
		ps.High = append(ps.High, c+1)
		ps.Low = append(ps.Low, c-1)
	}
	return ps
}

func flat(n int, price, halfRange float64) PriceSeries {
	ps := PriceSeries{}
	for i := 0; i < n; i++ {
		ps.High = append(ps.High, price+halfRange)
		ps.Low = append(ps.Low, price-halfRange)
		ps.Close = append(ps.Close, price)
	}
	return ps
}

func config(window int, fill bool) ADXConfig {
	return ADXConfig{IndicatorConfig: IndicatorConfig{Period: window}, FillNA: fill}
}

func TestNewADXCalculator_Validation(t *testing.T) {
	tests := []struct {
		name    string
		prices  PriceSeries
		window  int
		wantErr error
	}{
		{name: "zero window", prices: sample(), window: 0, wantErr: ErrInvalidWindow},
		{name: "zero window on empty input", prices: PriceSeries{}, window: 0, wantErr: ErrInvalidWindow},
		{name: "negative window", prices: sample(), window: -3, wantErr: ErrInvalidWindow},
		{
			name: "mismatched lengths",
			prices: PriceSeries{
				High:  []float64{1, 2, 3},
				Low:   []float64{1, 2},
				Close: []float64{1, 2, 3},
			},
			window:  2,
			wantErr: ErrMismatchedSeries,
		},
		{
			name: "index length differs",
			prices: PriceSeries{
				Index: []time.Time{time.Now()},
				High:  []float64{1, 2},
				Low:   []float64{1, 2},
				Close: []float64{1, 2},
			},
			window:  1,
			wantErr: ErrMismatchedSeries,
		},
		{name: "fewer bars than window", prices: sample(), window: 9, wantErr: ErrInsufficientData},
		{name: "valid", prices: sample(), window: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := NewADXCalculator(tt.prices, config(tt.window, false))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, calc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.window, calc.Window())
			assert.Equal(t, tt.prices.Len(), calc.Len())
		})
	}
}

func TestADXCalculator_SmoothedArrays(t *testing.T) {
	calc, err := NewADXCalculator(sample(), config(3, false))
	require.NoError(t, err)

	// Six slots for eight bars and window 3; the last one is never filled.
	expectedTrs := []float64{4.5, 5.5, 5.1666666667, 4.9444444444, 5.7962962963, 0}
	expectedDip := []float64{2.0, 2.8333333333, 2.8888888889, 1.9259259259, 2.7839506173, 0}
	expectedDin := []float64{0.5, 0.3333333333, 0.2222222222, 0.6481481481, 0.4320987654, 0}

	require.Len(t, calc.trs, len(expectedTrs))
	for i := range expectedTrs {
		assert.InDelta(t, expectedTrs[i], calc.trs[i], 1e-9, "trs[%d]", i)
		assert.InDelta(t, expectedDip[i], calc.dipRaw[i], 1e-9, "dipRaw[%d]", i)
		assert.InDelta(t, expectedDin[i], calc.dinRaw[i], 1e-9, "dinRaw[%d]", i)
	}
}

func TestADXCalculator_KnownValues(t *testing.T) {
	calc, err := NewADXCalculator(sample(), config(3, false))
	require.NoError(t, err)

	adx, err := calc.ADX()
	require.NoError(t, err)
	assert.Equal(t, ADXSeriesName, adx.Name)
	require.Equal(t, 8, adx.Len())

	assert.Equal(t, 0.0, adx.At(0))
	assert.Equal(t, 0.0, adx.At(1))
	for i := 2; i < 5; i++ {
		assert.True(t, math.IsNaN(adx.At(i)), "adx[%d] should be NaN during warm-up", i)
	}
	assert.InDelta(t, 74.8872180451, adx.At(5), 1e-9)
	assert.InDelta(t, 66.4715746200, adx.At(6), 1e-9)
	assert.InDelta(t, 68.6905826961, adx.At(7), 1e-9)

	pos := calc.ADXPos()
	assert.Equal(t, ADXPosSeriesName, pos.Name)
	expectedPos := []float64{0, 0, 0, 0, 51.5151515152, 55.9139784946, 38.9513108614, 48.0298189563}
	for i, v := range expectedPos {
		assert.InDelta(t, v, pos.At(i), 1e-9, "adx_pos[%d]", i)
	}

	neg := calc.ADXNeg()
	assert.Equal(t, ADXNegSeriesName, neg.Name)
	expectedNeg := []float64{0, 0, 0, 0, 6.0606060606, 4.3010752688, 13.1086142322, 7.4547390841}
	for i, v := range expectedNeg {
		assert.InDelta(t, v, neg.At(i), 1e-9, "adx_neg[%d]", i)
	}
}

func TestADXCalculator_OutputShape(t *testing.T) {
	prices := chopThenTrend()
	window := DefaultADXWindow
	calc, err := NewADXCalculator(prices, config(window, false))
	require.NoError(t, err)

	adx, err := calc.ADX()
	require.NoError(t, err)
	pos := calc.ADXPos()
	neg := calc.ADXNeg()

	for _, s := range []Series{adx, pos, neg} {
		require.Equal(t, prices.Len(), s.Len(), s.Name)
		assert.Equal(t, prices.Index, s.Index, s.Name)
	}

	// Zero padding then NaN warm-up for ADX
	for i := 0; i < window-1; i++ {
		assert.Equal(t, 0.0, adx.At(i))
	}
	for i := window - 1; i < 2*window-1; i++ {
		assert.True(t, math.IsNaN(adx.At(i)), "adx[%d]", i)
	}
	assert.False(t, math.IsNaN(adx.At(2*window-1)))

	// Directional indicators are exactly zero, never NaN, before the window
	for i := 0; i <= window; i++ {
		assert.Equal(t, 0.0, pos.At(i), "adx_pos[%d]", i)
		assert.Equal(t, 0.0, neg.At(i), "adx_neg[%d]", i)
	}
}

func TestADXCalculator_FillNA(t *testing.T) {
	tests := []struct {
		name   string
		prices PriceSeries
		window int
	}{
		{name: "trending", prices: chopThenTrend(), window: 14},
		{name: "flat with range", prices: flat(40, 50, 1), window: 14},
		{name: "flat without range", prices: flat(40, 50, 0), window: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := NewADXCalculator(tt.prices, config(tt.window, true))
			require.NoError(t, err)
			assert.True(t, calc.FillNA())

			adx, err := calc.ADX()
			require.NoError(t, err)
			for _, s := range []Series{adx, calc.ADXPos(), calc.ADXNeg()} {
				for i, v := range s.Values {
					assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s[%d] = %v", s.Name, i, v)
				}
			}

			// The warm-up region is filled rather than left undefined
			assert.Equal(t, ADXFillValue, adx.At(tt.window-1))
			assert.Equal(t, 0.0, adx.At(0))
		})
	}
}

func TestADXCalculator_Deterministic(t *testing.T) {
	calc, err := NewADXCalculator(chopThenTrend(), DefaultADXConfig())
	require.NoError(t, err)

	first, err := calc.ADX()
	require.NoError(t, err)
	firstPos := calc.ADXPos()
	firstNeg := calc.ADXNeg()

	// Mutating a returned series must not leak into later calls
	firstPos.Values[len(firstPos.Values)-1] = -1

	second, err := calc.ADX()
	require.NoError(t, err)
	secondPos := calc.ADXPos()
	secondNeg := calc.ADXNeg()

	for i := range first.Values {
		assert.Equal(t, math.Float64bits(first.Values[i]), math.Float64bits(second.Values[i]), "adx[%d]", i)
		assert.Equal(t, math.Float64bits(firstNeg.Values[i]), math.Float64bits(secondNeg.Values[i]), "adx_neg[%d]", i)
	}
	assert.NotEqual(t, -1.0, secondPos.Last())
}

func TestADXCalculator_Uptrend(t *testing.T) {
	window := 14
	calc, err := NewADXCalculator(chopThenTrend(), config(window, false))
	require.NoError(t, err)

	adx, err := calc.ADX()
	require.NoError(t, err)
	pos := calc.ADXPos()
	neg := calc.ADXNeg()

	for i := 30; i < pos.Len(); i++ {
		assert.Greater(t, pos.At(i), neg.At(i), "+DI should dominate at %d", i)
	}
	for i := 31; i < adx.Len(); i++ {
		assert.Greater(t, adx.At(i), adx.At(i-1), "ADX should rise at %d", i)
	}
	assert.InDelta(t, 69.5067660503, adx.Last(), 1e-6)
}

func TestADXCalculator_FlatSeries(t *testing.T) {
	window := 5
	calc, err := NewADXCalculator(flat(20, 100, 1), config(window, false))
	require.NoError(t, err)

	// Range is 2 on every bar while directional movement is zero
	assert.InDelta(t, 10.0, calc.trs[0], 1e-12)
	assert.Equal(t, 0.0, calc.dipRaw[0])
	assert.Equal(t, 0.0, calc.dinRaw[0])

	pos := calc.ADXPos()
	neg := calc.ADXNeg()
	for i := range pos.Values {
		assert.Equal(t, 0.0, pos.At(i))
		assert.Equal(t, 0.0, neg.At(i))
	}

	// +DI and -DI are both zero so DX is 0/0
	adx, err := calc.ADX()
	require.NoError(t, err)
	assert.Equal(t, 20, adx.Len())
	assert.True(t, math.IsNaN(adx.Last()))
}

func TestADXCalculator_FlatSeriesWithoutRange(t *testing.T) {
	calc, err := NewADXCalculator(flat(12, 100, 0), config(3, false))
	require.NoError(t, err)

	// Zero true range makes every directional ratio undefined
	pos := calc.ADXPos()
	assert.Equal(t, 0.0, pos.At(3))
	assert.True(t, math.IsNaN(pos.At(4)))
	assert.True(t, math.IsNaN(pos.Last()))
}

func TestADXCalculator_WindowPlusOneBars(t *testing.T) {
	full := sample()
	prices := PriceSeries{High: full.High[:4], Low: full.Low[:4], Close: full.Close[:4]}

	calc, err := NewADXCalculator(prices, config(3, false))
	require.NoError(t, err)

	require.Len(t, calc.trs, 2)
	assert.InDelta(t, 4.5, calc.trs[0], 1e-12)
	assert.InDelta(t, 2.0, calc.dipRaw[0], 1e-12)
	assert.InDelta(t, 0.5, calc.dinRaw[0], 1e-12)
	assert.Equal(t, 0.0, calc.trs[1])

	assert.Equal(t, []float64{0, 0, 0, 0}, calc.ADXPos().Values)
	assert.Equal(t, []float64{0, 0, 0, 0}, calc.ADXNeg().Values)

	_, err = calc.ADX()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestADXCalculator_WindowOne(t *testing.T) {
	calc, err := NewADXCalculator(sample(), config(1, false))
	require.NoError(t, err)

	adx, err := calc.ADX()
	require.NoError(t, err)
	require.Equal(t, 8, adx.Len())
	assert.True(t, math.IsNaN(adx.At(0)))
	assert.False(t, math.IsNaN(adx.At(1)))
}

func TestADX_Calculate(t *testing.T) {
	prices := chopThenTrend()
	klines := make([]*domain.Kline, prices.Len())
	for i := range klines {
		klines[i] = &domain.Kline{
			OpenTime: prices.Index[i],
			High:     prices.High[i],
			Low:      prices.Low[i],
			Close:    prices.Close[i],
		}
	}

	tests := []struct {
		name          string
		config        ADXConfig
		klines        []*domain.Kline
		expectedValue float64
		expectError   bool
	}{
		{
			name:          "ADX with sufficient data",
			config:        DefaultADXConfig(),
			klines:        klines,
			expectedValue: 69.5067660503,
		},
		{
			name:        "Insufficient data for ADX",
			config:      DefaultADXConfig(),
			klines:      klines[:20],
			expectError: true,
		},
		{
			name:        "Zero window",
			config:      config(0, false),
			klines:      klines,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adx := NewADX(tt.config)
			value, err := adx.Calculate(context.Background(), tt.klines)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expectedValue, value, 1e-6)
		})
	}
}

func TestADX_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewADX(DefaultADXConfig()).Calculate(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestADX_NameAndRequiredDataPoints(t *testing.T) {
	adx := NewADX(DefaultADXConfig())
	assert.Equal(t, "ADX", adx.Name())
	assert.Equal(t, 28, adx.RequiredDataPoints())

	var _ Indicator = adx
}
