package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a breakout.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Action maps a direction to the trading action shown to users.
func (d Direction) Action() string {
	switch d {
	case DirectionUp:
		return ActionBuy
	case DirectionDown:
		return ActionSell
	default:
		return ActionNeutral
	}
}

const (
	ActionBuy     = "BUY"
	ActionSell    = "SELL"
	ActionNeutral = "NEUTRAL"
)

// LevelSet holds the reference levels used for breakout detection.
// High and Low come from different bars, so High >= Low is not guaranteed.
type LevelSet struct {
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	HighDate string          `json:"high_date"`
	LowDate  string          `json:"low_date"`
	HasHigh  bool            `json:"has_high"`
	HasLow   bool            `json:"has_low"`
}

// Signal is a breakout emitted by the signal engine.
type Signal struct {
	ID           string          `json:"id"`
	Direction    Direction       `json:"direction"`
	Price        decimal.Decimal `json:"price"`
	TriggerLevel decimal.Decimal `json:"trigger_level"`
	Timestamp    time.Time       `json:"timestamp"`
	Levels       LevelSet        `json:"levels"`
}

// Market status values.
const (
	StatusNoData      = "NO_DATA"
	StatusAboveHigh   = "ABOVE_HIGH"
	StatusBelowLow    = "BELOW_LOW"
	StatusWithinRange = "WITHIN_RANGE"
)

// MarketStatus describes where a price sits relative to the current levels.
type MarketStatus struct {
	Status         string          `json:"status"`
	SignalActive   string          `json:"signal_active"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	High           decimal.Decimal `json:"swing_high"`
	Low            decimal.Decimal `json:"swing_low"`
	HighDate       string          `json:"swing_high_date"`
	LowDate        string          `json:"swing_low_date"`
	DistanceToHigh decimal.Decimal `json:"distance_to_high"`
	DistanceToLow  decimal.Decimal `json:"distance_to_low"`
}
