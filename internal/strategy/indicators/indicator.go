package indicators

import (
	"adxIndicator/internal/domain"
	"context"
	"errors"
)

// Errors returned by indicator construction and output accessors.
var (
	ErrInvalidWindow    = errors.New("invalid window")
	ErrMismatchedSeries = errors.New("high, low and close series must have the same length")
	ErrInsufficientData = errors.New("not enough data points for window")
)

// Indicator represents a technical indicator that can be calculated from price data
type Indicator interface {
	// Calculate computes the latest indicator value for the given price data
	Calculate(ctx context.Context, klines []*domain.Kline) (float64, error)

	// RequiredDataPoints returns the minimum number of klines needed for calculation
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of klines needed for calculation
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}
