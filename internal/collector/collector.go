package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
)

// Chain tries an ordered list of sources until one yields non-empty data.
// Each member call gets its own Timeout, so a stalled source counts as an
// ordinary failure and the next source is still tried.
type Chain struct {
	Sources []SeriesSource
	Timeout time.Duration
}

// NewChain creates a Chain over sources in precedence order.
func NewChain(sources ...SeriesSource) *Chain {
	return &Chain{Sources: sources}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (c *Chain) sourceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}

// DailySeries returns the first non-empty series.
func (c *Chain) DailySeries(ctx context.Context, symbol string, days int) ([]model.OHLCBar, error) {
	var errs []error
	for _, src := range c.Sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sctx, cancel := c.sourceContext(ctx)
		bars, err := src.DailySeries(sctx, symbol, days)
		cancel()
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err == nil {
			err = fmt.Errorf("empty series: %w", model.ErrDataUnavailable)
		}
		if !errors.Is(err, errNotServed) {
			log.Printf("[WARN] %s daily series for %s failed: %v", src.Name(), symbol, err)
			metrics.RecordFetchError(src.Name(), "series")
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return nil, fmt.Errorf("all sources failed: %w: %w", model.ErrDataUnavailable, errors.Join(errs...))
}

// CurrentSample returns the first valid (positive) sample.
func (c *Chain) CurrentSample(ctx context.Context, symbol string) (*model.Sample, error) {
	var errs []error
	for _, src := range c.Sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sctx, cancel := c.sourceContext(ctx)
		s, err := src.CurrentSample(sctx, symbol)
		cancel()
		if err == nil {
			if s == nil {
				err = fmt.Errorf("empty sample: %w", model.ErrDataUnavailable)
			} else if !s.Price.IsPositive() {
				err = fmt.Errorf("price %s: %w", s.Price, model.ErrInvalidSample)
			} else {
				return s, nil
			}
		}
		if !errors.Is(err, errNotServed) {
			log.Printf("[WARN] %s current sample for %s failed: %v", src.Name(), symbol, err)
			metrics.RecordFetchError(src.Name(), "sample")
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return nil, fmt.Errorf("all sources failed: %w: %w", model.ErrDataUnavailable, errors.Join(errs...))
}
