package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/model"
)

type fakeSnapshotter struct {
	name  string
	snaps map[string]*model.StockSnapshot
	fail  map[string]bool
	delay time.Duration

	mu       sync.Mutex
	calls    []string
	inFlight int32
	peak     int32
}

func (f *fakeSnapshotter) Name() string { return f.name }

func (f *fakeSnapshotter) Snapshot(ctx context.Context, symbol string) (*model.StockSnapshot, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[symbol] {
		return nil, errors.New("boom")
	}
	snap, ok := f.snaps[symbol]
	if !ok {
		return nil, model.ErrDataUnavailable
	}
	cp := *snap
	return &cp, nil
}

func snapWithRSI(symbol string, daily float64, volume int64) *model.StockSnapshot {
	return &model.StockSnapshot{
		Symbol:    symbol,
		LastPrice: decimal.NewFromInt(100),
		Volume:    volume,
		DailyRSI:  decimal.NewNullDecimal(decimal.NewFromFloat(daily)),
		Source:    "fake",
	}
}

func ptr(b bool) *bool { return &b }

func TestScan_SortsByDailyRSIAndIsolatesFailures(t *testing.T) {
	primary := &fakeSnapshotter{
		name: "primary",
		snaps: map[string]*model.StockSnapshot{
			"AAA": snapWithRSI("AAA", 45, 1_500),
			"BBB": snapWithRSI("BBB", 72.5, 25_000_000),
			"CCC": {Symbol: "CCC", LastPrice: decimal.NewFromInt(10)},
			"DDD": snapWithRSI("DDD", 60, 250_000),
		},
		fail: map[string]bool{"EEE": true},
	}
	s := New(primary, nil, 3)

	got, err := s.Scan(context.Background(), nil, []string{"AAA", "BBB", "CCC", "DDD", "EEE"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	var order []string
	for _, g := range got {
		order = append(order, g.Symbol)
	}
	assert.Equal(t, []string{"BBB", "DDD", "AAA", "CCC"}, order)
	assert.Equal(t, "2.50Cr", got[0].VolumeText)
	assert.Equal(t, "2.50L", got[1].VolumeText)
}

func TestScan_AppliesConditions(t *testing.T) {
	primary := &fakeSnapshotter{
		name: "primary",
		snaps: map[string]*model.StockSnapshot{
			"AAA": snapWithRSI("AAA", 45, 0),
			"BBB": snapWithRSI("BBB", 72.5, 0),
			"CCC": {Symbol: "CCC"},
		},
	}
	conds := []model.Condition{
		{Timeframe: model.TimeframeDaily, Indicator: "Rsi", Operator: "Greater than equal to", Value: 50},
		{Timeframe: model.TimeframeWeekly, Indicator: "Rsi", Operator: ">", Value: 99, Active: ptr(false)},
	}
	got, err := New(primary, nil, 2).Scan(context.Background(), conds, []string{"AAA", "BBB", "CCC"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BBB", got[0].Symbol)
}

func TestScan_FallsBackPerSymbol(t *testing.T) {
	primary := &fakeSnapshotter{name: "primary", fail: map[string]bool{"AAA": true}, snaps: map[string]*model.StockSnapshot{
		"BBB": snapWithRSI("BBB", 50, 0),
	}}
	fallback := &fakeSnapshotter{name: "fallback", snaps: map[string]*model.StockSnapshot{
		"AAA": {Symbol: "AAA", LastPrice: decimal.NewFromInt(5), Source: "fallback"},
	}}

	got, err := New(primary, fallback, 4).Scan(context.Background(), nil, []string{"AAA", "BBB"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BBB", got[0].Symbol)
	assert.Equal(t, "fallback", got[1].Source)
	assert.Equal(t, []string{"AAA"}, fallback.calls)
}

func TestScan_DefaultSymbolsAndWorkerLimit(t *testing.T) {
	snaps := map[string]*model.StockSnapshot{}
	for _, sym := range DefaultSymbols {
		snaps[sym] = snapWithRSI(sym, 50, 0)
	}
	primary := &fakeSnapshotter{name: "primary", snaps: snaps, delay: 10 * time.Millisecond}

	got, err := New(primary, nil, 4).Scan(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, got, len(DefaultSymbols))
	assert.LessOrEqual(t, atomic.LoadInt32(&primary.peak), int32(4))
}

func TestScan_ContextCancelled(t *testing.T) {
	primary := &fakeSnapshotter{name: "primary", delay: time.Second, snaps: map[string]*model.StockSnapshot{
		"AAA": snapWithRSI("AAA", 50, 0),
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := New(primary, nil, 2).Scan(ctx, nil, []string{"AAA"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, got)
}

func TestFormatVolume(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1_500, "1.5K"},
		{100_000, "1.00L"},
		{9_999_999, "100.00L"},
		{12_345_678, "1.23Cr"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatVolume(c.in), "volume %d", c.in)
	}
}
