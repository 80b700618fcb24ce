package ports

import (
	"context"

	"adxIndicator/internal/domain"
)

// KlineRepository defines the interface for storing and retrieving price bars.
type KlineRepository interface {
	// SaveKlines inserts or replaces klines keyed by symbol, interval and open time.
	SaveKlines(ctx context.Context, klines []*domain.Kline) error
	// FindKlines retrieves klines for a symbol and interval ordered oldest first.
	// A positive limit keeps only the most recent limit bars.
	FindKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error)
}
