package collector

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

// errNotServed marks a source that deliberately has nothing to offer, so the chain moves on quietly.
var errNotServed = errors.New("not served")

// PriceOverride exposes a manually entered current price.
type PriceOverride interface {
	ManualPrice() (price decimal.Decimal, at time.Time, ok bool)
}

// ManualSource serves a manually entered price ahead of the network providers.
// It never serves daily bars.
type ManualSource struct {
	Override PriceOverride
}

func (m *ManualSource) Name() string { return "manual" }

func (m *ManualSource) DailySeries(context.Context, string, int) ([]model.OHLCBar, error) {
	return nil, errNotServed
}

func (m *ManualSource) CurrentSample(context.Context, string) (*model.Sample, error) {
	if m.Override == nil {
		return nil, errNotServed
	}
	price, at, ok := m.Override.ManualPrice()
	if !ok {
		return nil, errNotServed
	}
	return &model.Sample{Price: price, Timestamp: at, Source: m.Name()}, nil
}
