package override

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

// Manager guards the manual override state and persists every change.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading state from disk when filePath is set.
// An empty filePath keeps overrides in memory only.
func NewManager(filePath string) (*Manager, error) {
	state := &State{}
	if filePath != "" {
		s, err := LoadState(filePath)
		if err != nil {
			return nil, fmt.Errorf("load override state: %w", err)
		}
		state = s
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// GetState returns a copy of the current override state.
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// SetLevels pins the reference levels and optionally a current price.
func (m *Manager) SetLevels(high, low, close decimal.Decimal, price *decimal.Decimal) error {
	if !high.IsPositive() || !low.IsPositive() {
		return fmt.Errorf("levels must be positive: %w", model.ErrInvalidSample)
	}
	if price != nil && !price.IsPositive() {
		return fmt.Errorf("price %s: %w", *price, model.ErrInvalidSample)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.state.PreviousHigh = &high
	m.state.PreviousLow = &low
	m.state.PreviousClose = &close
	m.state.LevelsSetAt = now
	if price != nil {
		p := *price
		m.state.CurrentPrice = &p
		m.state.PriceUpdatedAt = now
	}
	return m.save()
}

// SetPrice records a manual current price.
func (m *Manager) SetPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("price %s: %w", price, model.ErrInvalidSample)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.CurrentPrice = &price
	m.state.PriceUpdatedAt = time.Now()
	return m.save()
}

// Clear removes every override.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &State{}
	return m.save()
}

// Levels returns the pinned levels, if any.
func (m *Manager) Levels() (model.LevelSet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.PreviousHigh == nil || m.state.PreviousLow == nil {
		return model.LevelSet{}, false
	}
	date := m.state.LevelsSetAt.Format(model.DateLayout)
	return model.LevelSet{
		High:     *m.state.PreviousHigh,
		Low:      *m.state.PreviousLow,
		HighDate: date,
		LowDate:  date,
		HasHigh:  true,
		HasLow:   true,
	}, true
}

// ManualPrice returns the manual current price, if any.
func (m *Manager) ManualPrice() (decimal.Decimal, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.CurrentPrice == nil {
		return decimal.Zero, time.Time{}, false
	}
	return *m.state.CurrentPrice, m.state.PriceUpdatedAt, true
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	if err := SaveState(m.filePath, m.state); err != nil {
		log.Printf("[ERROR] failed to save override state: %v", err)
		return err
	}
	return nil
}
