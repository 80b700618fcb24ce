package indicators

import (
	"adxIndicator/internal/domain"
	"context"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultADXWindow is the smoothing period used when none is configured.
	DefaultADXWindow = 14
	// ADXFillValue replaces undefined output values when FillNA is set.
	ADXFillValue = 20.0
)

// Output names of the three ADX series.
const (
	ADXSeriesName    = "adx"
	ADXPosSeriesName = "adx_pos"
	ADXNegSeriesName = "adx_neg"
)

// ADXConfig holds configuration for the Average Directional Movement Index
type ADXConfig struct {
	IndicatorConfig
	FillNA bool // Replace undefined output values with ADXFillValue
}

// DefaultADXConfig returns a 14 period configuration without filling.
func DefaultADXConfig() ADXConfig {
	return ADXConfig{IndicatorConfig: IndicatorConfig{Period: DefaultADXWindow}}
}

// ADXCalculator computes ADX, +DI and -DI over a fixed price series.
//
// All smoothing happens once in NewADXCalculator. The smoothed arrays are
// never modified afterwards, so the accessors can be called any number of
// times, in any order and from multiple goroutines.
type ADXCalculator struct {
	window int
	fillNA bool
	bars   int
	pad    int
	index  []time.Time

	// Wilder smoothed sums, each of length bars-(window-1)
	trs    []float64
	dipRaw []float64
	dinRaw []float64
}

// NewADXCalculator validates the inputs and runs the smoothing pass.
func NewADXCalculator(prices PriceSeries, config ADXConfig) (*ADXCalculator, error) {
	window := config.Period
	if window == 0 {
		return nil, fmt.Errorf("%w: window may not be 0", ErrInvalidWindow)
	}
	if window < 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidWindow, window)
	}
	if err := prices.validate(); err != nil {
		return nil, err
	}
	if prices.Len() < window {
		return nil, fmt.Errorf("%w: need at least %d bars for window %d, got %d",
			ErrInsufficientData, window, window, prices.Len())
	}

	c := &ADXCalculator{
		window: window,
		fillNA: config.FillNA,
		bars:   prices.Len(),
		pad:    window - 1,
		index:  copyIndex(prices.Index),
	}
	c.run(prices)
	return c, nil
}

func (c *ADXCalculator) run(prices PriceSeries) {
	size := c.bars - c.pad

	// Range between the extremes of the current bar and the previous close
	prevClose := shift(prices.Close)
	upper := directionalExtreme(prices.High, prevClose, extremeMax)
	lower := directionalExtreme(prices.Low, prevClose, extremeMin)
	dmRange := make([]float64, c.bars)
	for i := range dmRange {
		dmRange[i] = upper[i] - lower[i]
	}

	pos, neg := directionalMovement(prices.High, prices.Low)

	c.trs = wilderSum(dmRange, c.window, size)
	c.dipRaw = wilderSum(pos, c.window, size)
	c.dinRaw = wilderSum(neg, c.window, size)
}

// directionalMovement returns the raw +DM and -DM of every bar. The first
// bar has no predecessor and is undefined.
func directionalMovement(high, low []float64) (pos, neg []float64) {
	pos = make([]float64, len(high))
	neg = make([]float64, len(high))
	if len(high) == 0 {
		return pos, neg
	}
	pos[0] = math.NaN()
	neg[0] = math.NaN()

	for i := 1; i < len(high); i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]

		switch {
		case math.IsNaN(up):
			pos[i] = math.NaN()
		case up > down && up > 0:
			pos[i] = up
		}

		switch {
		case math.IsNaN(down):
			neg[i] = math.NaN()
		case down > up && down > 0:
			neg[i] = down
		}
	}
	return pos, neg
}

// wilderSum applies Wilder's running-sum smoothing to raw, which is indexed
// by bar. The seed is the sum of the first window defined values and each
// following slot consumes raw[window+i]. The recurrence stops one slot short
// of the end, so the final slot stays zero.
func wilderSum(raw []float64, window, size int) []float64 {
	out := make([]float64, size)

	seeded := 0
	for _, v := range raw {
		if seeded == window {
			break
		}
		if math.IsNaN(v) {
			continue
		}
		out[0] += v
		seeded++
	}

	w := float64(window)
	for i := 1; i < size-1; i++ {
		out[i] = out[i-1] - (out[i-1] / w) + raw[window+i]
	}
	return out
}

// Window returns the smoothing period.
func (c *ADXCalculator) Window() int {
	return c.window
}

// FillNA reports whether undefined outputs are replaced with ADXFillValue.
func (c *ADXCalculator) FillNA() bool {
	return c.fillNA
}

// Len returns the number of input bars, which is also the output length.
func (c *ADXCalculator) Len() int {
	return c.bars
}

// ADX returns the Average Directional Index aligned to the input index.
// The first window-1 positions are zero padding and the warm-up positions
// up to the first smoothed value are NaN. It fails with ErrInsufficientData
// when the series is shorter than twice the window.
func (c *ADXCalculator) ADX() (Series, error) {
	size := len(c.trs)
	if size <= c.window {
		return Series{}, fmt.Errorf("%w: ADX with window %d needs at least %d bars, got %d",
			ErrInsufficientData, c.window, 2*c.window, c.bars)
	}

	dx := make([]float64, size)
	for i, tr := range c.trs {
		plus := 100 * (c.dipRaw[i] / tr)
		minus := 100 * (c.dinRaw[i] / tr)
		dx[i] = 100 * math.Abs((plus-minus)/(plus+minus))
	}

	w := float64(c.window)
	smoothed := make([]float64, size)
	sum := 0.0
	for i := 0; i < c.window; i++ {
		smoothed[i] = math.NaN()
		sum += dx[i]
	}
	smoothed[c.window] = sum / w

	for i := c.window + 1; i < size; i++ {
		smoothed[i] = (smoothed[i-1]*(w-1) + dx[i-1]) / w
	}

	return c.output(ADXSeriesName, smoothed), nil
}

// ADXPos returns the Positive Directional Indicator (+DI).
func (c *ADXCalculator) ADXPos() Series {
	return c.directionalIndicator(ADXPosSeriesName, c.dipRaw)
}

// ADXNeg returns the Negative Directional Indicator (-DI).
func (c *ADXCalculator) ADXNeg() Series {
	return c.directionalIndicator(ADXNegSeriesName, c.dinRaw)
}

// directionalIndicator places 100*dm[i]/trs[i] at bar i+window for every
// slot the smoothing recurrence filled. All other bars are zero.
func (c *ADXCalculator) directionalIndicator(name string, dm []float64) Series {
	size := len(c.trs)
	shifted := make([]float64, size)
	for i := 1; i < size-1; i++ {
		shifted[i+1] = 100 * (dm[i] / c.trs[i])
	}
	return c.output(name, shifted)
}

func (c *ADXCalculator) output(name string, smoothed []float64) Series {
	values := alignToIndex(smoothed, c.pad, 0)
	if c.fillNA {
		fillUndefined(values, ADXFillValue)
	}
	return Series{
		Name:   name,
		Index:  copyIndex(c.index),
		Values: values,
	}
}

// ADX implements the Indicator interface on top of ADXCalculator
type ADX struct {
	BaseIndicator
	config ADXConfig
}

// NewADX creates a new ADX indicator instance
func NewADX(config ADXConfig) *ADX {
	return &ADX{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (a *ADX) Name() string {
	return "ADX"
}

// RequiredDataPoints returns the minimum number of klines for a defined ADX value
func (a *ADX) RequiredDataPoints() int {
	return 2 * a.Config.Period
}

// Calculate returns the most recent ADX value for the given klines
func (a *ADX) Calculate(ctx context.Context, klines []*domain.Kline) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	calc, err := NewADXCalculator(PriceSeriesFromKlines(klines), a.config)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare ADX calculation: %w", err)
	}

	adx, err := calc.ADX()
	if err != nil {
		return 0, fmt.Errorf("failed to calculate ADX: %w", err)
	}
	return adx.Last(), nil
}
