package collector

import (
	"context"

	"SwingSentinel/internal/model"
)

// SeriesSource supplies daily bars and a current-price sample for a symbol.
type SeriesSource interface {
	DailySeries(ctx context.Context, symbol string, days int) ([]model.OHLCBar, error)
	CurrentSample(ctx context.Context, symbol string) (*model.Sample, error)
	Name() string
}
