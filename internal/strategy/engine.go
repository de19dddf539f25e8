package strategy

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

// Engine is the breakout state machine for one symbol.
//
// It emits at most one signal per direction: once UP has fired, further prices above the
// high are ignored until a DOWN signal (or Reset) intervenes. Replacing the levels does not
// re-arm a direction that already fired.
type Engine struct {
	mu         sync.RWMutex
	levels     *model.LevelSet
	lastSignal *model.Signal
	history    []model.Signal

	// Now stamps emitted signals; defaults to time.Now.
	Now func() time.Time
}

// NewEngine creates an Engine with no levels.
func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

// SetLevels replaces the reference levels. The last signal is kept.
func (e *Engine) SetLevels(levels model.LevelSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := levels
	e.levels = &l
}

// Levels returns the current levels and whether any are set.
func (e *Engine) Levels() (model.LevelSet, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.levels == nil {
		return model.LevelSet{}, false
	}
	return *e.levels, true
}

// LastSignal returns a copy of the last emitted signal, or nil.
func (e *Engine) LastSignal() *model.Signal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastSignal == nil {
		return nil
	}
	s := *e.lastSignal
	return &s
}

// breakout returns the candidate direction and trigger level for price, if any.
func breakout(levels *model.LevelSet, price decimal.Decimal) (model.Direction, decimal.Decimal, bool) {
	if levels.HasHigh && price.GreaterThan(levels.High) {
		return model.DirectionUp, levels.High, true
	}
	if levels.HasLow && price.LessThan(levels.Low) {
		return model.DirectionDown, levels.Low, true
	}
	return "", decimal.Zero, false
}

// CheckSignal evaluates price against the levels and returns a new signal, or nil when
// there are no levels, the price is inside the range, or the direction already fired.
func (e *Engine) CheckSignal(price decimal.Decimal) *model.Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.levels == nil {
		return nil
	}
	dir, trigger, ok := breakout(e.levels, price)
	if !ok {
		return nil
	}
	if e.lastSignal != nil && e.lastSignal.Direction == dir {
		return nil
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	sig := model.Signal{
		ID:           uuid.NewString(),
		Direction:    dir,
		Price:        price,
		TriggerLevel: trigger,
		Timestamp:    now(),
		Levels:       *e.levels,
	}
	e.lastSignal = &sig
	e.history = append(e.history, sig)

	out := sig
	return &out
}

// MarketStatus reports where price sits relative to the levels without touching state.
func (e *Engine) MarketStatus(price decimal.Decimal) model.MarketStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.levels == nil {
		return model.MarketStatus{
			Status:       model.StatusNoData,
			SignalActive: model.ActionNeutral,
			CurrentPrice: price,
		}
	}

	l := e.levels
	st := model.MarketStatus{
		Status:       model.StatusWithinRange,
		SignalActive: model.ActionNeutral,
		CurrentPrice: price,
		High:         l.High,
		Low:          l.Low,
		HighDate:     l.HighDate,
		LowDate:      l.LowDate,
	}
	if l.HasHigh {
		st.DistanceToHigh = l.High.Sub(price)
	}
	if l.HasLow {
		st.DistanceToLow = price.Sub(l.Low)
	}

	if dir, _, ok := breakout(l, price); ok {
		st.SignalActive = dir.Action()
		if dir == model.DirectionUp {
			st.Status = model.StatusAboveHigh
		} else {
			st.Status = model.StatusBelowLow
		}
	}
	return st
}

// History returns up to limit of the most recent signals, oldest first.
// A non-positive limit returns the full history.
func (e *Engine) History(limit int) []model.Signal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	start := 0
	if limit > 0 && len(e.history) > limit {
		start = len(e.history) - limit
	}
	out := make([]model.Signal, len(e.history)-start)
	copy(out, e.history[start:])
	return out
}

// Reset clears the last signal and the history. Levels are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSignal = nil
	e.history = nil
}
