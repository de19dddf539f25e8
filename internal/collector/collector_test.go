package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/model"
)

type fixedOverride struct {
	price decimal.Decimal
	ok    bool
}

func (f fixedOverride) ManualPrice() (decimal.Decimal, time.Time, bool) {
	return f.price, time.Now(), f.ok
}

func TestChain_FallsBackInOrder(t *testing.T) {
	failing := &MockSource{Err: errors.New("boom")}
	backup := &MockSource{Price: decimal.NewFromInt(500)}

	chain := NewChain(failing, backup)
	bars, err := chain.DailySeries(context.Background(), "BANKNIFTY", 10)
	require.NoError(t, err)
	assert.Len(t, bars, 10)

	s, err := chain.CurrentSample(context.Background(), "BANKNIFTY")
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "mock>mock", chain.Name())
}

func TestChain_EmptySeriesFallsThrough(t *testing.T) {
	empty := &MockSource{DailyData: []model.OHLCBar{}}
	backup := &MockSource{Price: decimal.NewFromInt(100)}

	bars, err := NewChain(empty, backup).DailySeries(context.Background(), "X", 5)
	require.NoError(t, err)
	assert.Len(t, bars, 5)
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain(&MockSource{Err: errors.New("down")}, &MockSource{Err: errors.New("also down")})

	_, err := chain.DailySeries(context.Background(), "X", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	_, err = chain.CurrentSample(context.Background(), "X")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

type stalledSource struct{ calls int }

func (s *stalledSource) Name() string { return "stalled" }

func (s *stalledSource) DailySeries(ctx context.Context, _ string, _ int) ([]model.OHLCBar, error) {
	s.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *stalledSource) CurrentSample(ctx context.Context, _ string) (*model.Sample, error) {
	s.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestChain_PerSourceTimeout(t *testing.T) {
	stalled := &stalledSource{}
	chain := NewChain(stalled, &MockSource{Price: decimal.NewFromInt(250)})
	chain.Timeout = 50 * time.Millisecond

	bars, err := chain.DailySeries(context.Background(), "X", 5)
	require.NoError(t, err)
	assert.Len(t, bars, 5)

	s, err := chain.CurrentSample(context.Background(), "X")
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 2, stalled.calls)
}

func TestChain_StopsWhenCanceled(t *testing.T) {
	backup := &stalledSource{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain(&MockSource{Err: errors.New("down")}, backup).CurrentSample(ctx, "X")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, backup.calls)
}

func TestChain_RejectsNonPositivePrice(t *testing.T) {
	chain := NewChain(&MockSource{Price: decimal.Zero})
	_, err := chain.CurrentSample(context.Background(), "X")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidSample)

	chain = NewChain(&MockSource{Price: decimal.NewFromInt(-3)}, &MockSource{Price: decimal.NewFromInt(7)})
	s, err := chain.CurrentSample(context.Background(), "X")
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(7)))
}

func TestManualSource(t *testing.T) {
	manual := &ManualSource{Override: fixedOverride{price: decimal.NewFromInt(42), ok: true}}
	chain := NewChain(manual, &MockSource{Price: decimal.NewFromInt(1)})

	s, err := chain.CurrentSample(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "manual", s.Source)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(42)))

	// Bars always come from the providers.
	bars, err := chain.DailySeries(context.Background(), "X", 4)
	require.NoError(t, err)
	assert.Len(t, bars, 4)

	manual.Override = fixedOverride{}
	s, err = chain.CurrentSample(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "mock", s.Source)
}

func TestGenerateMockBars_Sorted(t *testing.T) {
	bars := generateMockBars(decimal.NewFromInt(1000), 30)
	require.Len(t, bars, 30)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Date.After(bars[i-1].Date))
	}
}
