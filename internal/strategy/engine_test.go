package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func levels(high, low string) model.LevelSet {
	return model.LevelSet{
		High: d(high), Low: d(low),
		HighDate: "2025-03-05", LowDate: "2025-03-07",
		HasHigh: true, HasLow: true,
	}
}

func newTestEngine() *Engine {
	e := NewEngine()
	e.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC) }
	return e
}

func TestCheckSignal_NoLevels(t *testing.T) {
	e := newTestEngine()
	assert.Nil(t, e.CheckSignal(d("100")))
	assert.Empty(t, e.History(0))
}

func TestCheckSignal_DebounceLaw(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))

	sig := e.CheckSignal(d("101"))
	require.NotNil(t, sig)
	assert.Equal(t, model.DirectionUp, sig.Direction)
	assert.True(t, sig.TriggerLevel.Equal(d("100")))
	assert.Nil(t, e.CheckSignal(d("102")))
	assert.Nil(t, e.CheckSignal(d("103")))
	assert.Len(t, e.History(0), 1)

	down := e.CheckSignal(d("89"))
	require.NotNil(t, down)
	assert.Equal(t, model.DirectionDown, down.Direction)
	assert.True(t, down.TriggerLevel.Equal(d("90")))

	up := e.CheckSignal(d("101"))
	require.NotNil(t, up)
	assert.Equal(t, model.DirectionUp, up.Direction)

	hist := e.History(0)
	require.Len(t, hist, 3)
	assert.Equal(t, []model.Direction{model.DirectionUp, model.DirectionDown, model.DirectionUp},
		[]model.Direction{hist[0].Direction, hist[1].Direction, hist[2].Direction})
}

func TestCheckSignal_StrictBoundaries(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))

	assert.Nil(t, e.CheckSignal(d("100")))
	assert.Nil(t, e.CheckSignal(d("90")))
	assert.Nil(t, e.CheckSignal(d("95")))
	assert.Empty(t, e.History(0))

	sig := e.CheckSignal(d("100.0001"))
	require.NotNil(t, sig)
	assert.Equal(t, model.DirectionUp, sig.Direction)
}

func TestCheckSignal_SnapshotsLevels(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))
	sig := e.CheckSignal(d("105"))
	require.NotNil(t, sig)

	e.SetLevels(levels("120", "95"))
	assert.True(t, sig.Levels.High.Equal(d("100")))
	assert.True(t, e.History(0)[0].Levels.High.Equal(d("100")))
	assert.False(t, sig.Timestamp.IsZero())
	assert.NotEmpty(t, sig.ID)
}

func TestSetLevels_DoesNotRearm(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))
	require.NotNil(t, e.CheckSignal(d("101")))

	// A fresh, higher swing high does not re-arm UP.
	e.SetLevels(levels("110", "95"))
	assert.Nil(t, e.CheckSignal(d("111")))
	assert.Equal(t, model.DirectionUp, e.LastSignal().Direction)
}

func TestCheckSignal_OneSidedLevels(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(model.LevelSet{High: d("100"), HasHigh: true})

	assert.Nil(t, e.CheckSignal(d("-5")))
	sig := e.CheckSignal(d("101"))
	require.NotNil(t, sig)
	assert.Equal(t, model.DirectionUp, sig.Direction)

	st := e.MarketStatus(d("1"))
	assert.Equal(t, model.StatusWithinRange, st.Status)
}

func TestCheckSignal_DegenerateLevels(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "100"))
	assert.Nil(t, e.CheckSignal(d("100")))
	require.NotNil(t, e.CheckSignal(d("99.5")))
}

func TestMarketStatus(t *testing.T) {
	e := newTestEngine()
	st := e.MarketStatus(d("100"))
	assert.Equal(t, model.StatusNoData, st.Status)

	e.SetLevels(levels("100", "90"))
	tests := []struct {
		price  string
		status string
		active string
	}{
		{"101", model.StatusAboveHigh, model.ActionBuy},
		{"89", model.StatusBelowLow, model.ActionSell},
		{"100", model.StatusWithinRange, model.ActionNeutral},
		{"90", model.StatusWithinRange, model.ActionNeutral},
	}
	for _, tt := range tests {
		st := e.MarketStatus(d(tt.price))
		assert.Equal(t, tt.status, st.Status, tt.price)
		assert.Equal(t, tt.active, st.SignalActive, tt.price)
	}

	st = e.MarketStatus(d("95"))
	assert.True(t, st.DistanceToHigh.Equal(d("5")))
	assert.True(t, st.DistanceToLow.Equal(d("5")))
	assert.Equal(t, "2025-03-05", st.HighDate)
}

func TestMarketStatus_Idempotent(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))

	a := e.MarketStatus(d("101"))
	b := e.MarketStatus(d("101"))
	assert.Equal(t, a, b)
	assert.Nil(t, e.LastSignal())
	assert.Empty(t, e.History(0))
}

func TestMarketStatus_IgnoresDebounce(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))
	require.NotNil(t, e.CheckSignal(d("101")))
	assert.Nil(t, e.CheckSignal(d("102")))
	assert.Equal(t, model.StatusAboveHigh, e.MarketStatus(d("102")).Status)
}

func TestReset(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))
	require.NotNil(t, e.CheckSignal(d("101")))

	e.Reset()
	assert.Nil(t, e.LastSignal())
	assert.Empty(t, e.History(0))
	_, ok := e.Levels()
	assert.True(t, ok)

	require.NotNil(t, e.CheckSignal(d("101")))
}

func TestHistory_TruncatesOnRead(t *testing.T) {
	e := newTestEngine()
	e.SetLevels(levels("100", "90"))
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			require.NotNil(t, e.CheckSignal(d("101")))
		} else {
			require.NotNil(t, e.CheckSignal(d("89")))
		}
	}
	recent := e.History(4)
	require.Len(t, recent, 4)
	assert.Equal(t, model.DirectionUp, recent[0].Direction)
	assert.Len(t, e.History(0), 6)
	assert.Len(t, e.History(100), 6)
}
