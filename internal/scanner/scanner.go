package scanner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
)

// DefaultSymbols is the NSE large-cap list scanned when none is given.
var DefaultSymbols = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "ICICIBANK",
	"HINDUNILVR", "SBIN", "BHARTIARTL", "KOTAKBANK", "ITC",
	"LT", "AXISBANK", "TATAMOTORS", "TITAN", "WIPRO",
}

// Snapshotter produces a per-symbol snapshot.
type Snapshotter interface {
	Snapshot(ctx context.Context, symbol string) (*model.StockSnapshot, error)
	Name() string
}

// Scanner runs one snapshot per symbol on a bounded worker pool.
type Scanner struct {
	Primary  Snapshotter
	Fallback Snapshotter // optional
	Workers  int
	Timeout  time.Duration // per symbol
}

func New(primary, fallback Snapshotter, workers int) *Scanner {
	if workers <= 0 {
		workers = 15
	}
	return &Scanner{Primary: primary, Fallback: fallback, Workers: workers, Timeout: 20 * time.Second}
}

// Scan returns the snapshots that pass every active condition, sorted by
// daily RSI descending (missing RSI sorts as 0). A failing symbol is
// skipped without affecting the others. The error is non-nil only when ctx
// ends before the scan completes; partial results are still returned.
func (s *Scanner) Scan(ctx context.Context, conditions []model.Condition, symbols []string) ([]model.StockSnapshot, error) {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}

	found := make([]*model.StockSnapshot, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)

	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			snap, err := s.snapshot(gctx, sym)
			if err != nil {
				log.Printf("[WARN] value scan %s: %v", sym, err)
				metrics.RecordValueScan("error")
				return nil
			}
			if !calculator.CheckConditions(snap, conditions) {
				metrics.RecordValueScan("filtered")
				return nil
			}
			snap.VolumeText = FormatVolume(snap.Volume)
			found[i] = snap
			metrics.RecordValueScan("matched")
			return nil
		})
	}
	_ = g.Wait()

	results := make([]model.StockSnapshot, 0, len(symbols))
	for _, snap := range found {
		if snap != nil {
			results = append(results, *snap)
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return rsiKey(results[a]).GreaterThan(rsiKey(results[b]))
	})
	log.Printf("[INFO] value scan: %d of %d symbols matched", len(results), len(symbols))

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("value scan interrupted: %w", err)
	}
	return results, nil
}

func (s *Scanner) snapshot(ctx context.Context, symbol string) (*model.StockSnapshot, error) {
	snap, err := s.try(ctx, s.Primary, symbol)
	if err == nil {
		return snap, nil
	}
	if s.Fallback == nil {
		return nil, err
	}
	log.Printf("[WARN] %s failed for %s, trying %s: %v", s.Primary.Name(), symbol, s.Fallback.Name(), err)
	metrics.RecordFetchError(s.Primary.Name(), "snapshot")
	return s.try(ctx, s.Fallback, symbol)
}

func (s *Scanner) try(ctx context.Context, src Snapshotter, symbol string) (*model.StockSnapshot, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	snap, err := src.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%s: empty snapshot for %s: %w", src.Name(), symbol, model.ErrDataUnavailable)
	}
	return snap, nil
}

func rsiKey(s model.StockSnapshot) decimal.Decimal {
	if s.DailyRSI.Valid {
		return s.DailyRSI.Decimal
	}
	return decimal.Zero
}
