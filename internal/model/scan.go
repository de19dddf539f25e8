package model

import "github.com/shopspring/decimal"

// Timeframe selects which RSI a condition reads.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "Daily"
	TimeframeWeekly  Timeframe = "Weekly"
	TimeframeMonthly Timeframe = "Monthly"
)

// Condition is one filter rule for the value scanner.
type Condition struct {
	Timeframe Timeframe `json:"timeframe"`
	Indicator string    `json:"indicator"` // "Rsi", "Close", "Volume"
	Operator  string    `json:"operator"`
	Value     float64   `json:"value"`
	Active    *bool     `json:"active,omitempty"`
}

// IsActive reports whether the condition applies; conditions are active unless disabled.
func (c Condition) IsActive() bool {
	return c.Active == nil || *c.Active
}

// StockSnapshot is the per-symbol result of the value scanner.
type StockSnapshot struct {
	Symbol     string              `json:"symbol"`
	LastPrice  decimal.Decimal     `json:"ltp"`
	Open       decimal.Decimal     `json:"open"`
	High       decimal.Decimal     `json:"high"`
	Low        decimal.Decimal     `json:"low"`
	Volume     int64               `json:"volume"`
	VolumeText string              `json:"volume_text,omitempty"`
	ChangePct  decimal.Decimal     `json:"change"`
	DailyRSI   decimal.NullDecimal `json:"dailyRsi"`
	WeeklyRSI  decimal.NullDecimal `json:"weeklyRsi"`
	MonthlyRSI decimal.NullDecimal `json:"monthlyRsi"`
	Source     string              `json:"source"`
}
