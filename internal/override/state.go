package override

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// State holds manually entered inputs that survive restarts.
type State struct {
	PreviousHigh   *decimal.Decimal `json:"previous_high,omitempty"`
	PreviousLow    *decimal.Decimal `json:"previous_low,omitempty"`
	PreviousClose  *decimal.Decimal `json:"previous_close,omitempty"`
	CurrentPrice   *decimal.Decimal `json:"current_price,omitempty"`
	LevelsSetAt    time.Time        `json:"updated_at,omitempty"`
	PriceUpdatedAt time.Time        `json:"price_updated_at,omitempty"`
	UpdatedAt      time.Time        `json:"saved_at"`
}

// LoadState reads the override state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the override state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
