package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for level dates.
const DateLayout = "2006-01-02"

// OHLCBar represents a single daily candlestick bar.
type OHLCBar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Sample is a single current-price observation.
type Sample struct {
	Price     decimal.Decimal `json:"price"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	ChangePct decimal.Decimal `json:"change"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// SortBars orders bars by date, oldest first.
func SortBars(bars []OHLCBar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
}

// Closes extracts the close prices of bars in order.
func Closes(bars []OHLCBar) []decimal.Decimal {
	closes := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
