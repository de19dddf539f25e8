package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"SwingSentinel/internal/model"
)

func TestEvaluateCondition(t *testing.T) {
	tests := []struct {
		op    string
		ind   float64
		value float64
		want  bool
	}{
		{"Greater than equal to", 40, 40, true},
		{">=", 39.9, 40, false},
		{"Less than equal to", 70, 70, true},
		{"<=", 70.1, 70, false},
		{"Greater than", 40, 40, false},
		{">", 41, 40, true},
		{"Less than", 39, 40, true},
		{"<", 40, 40, false},
		{"Equal to", 40.005, 40, true},
		{"==", 40.02, 40, false},
		{"something else", 1, 1000, true},
	}
	for _, tt := range tests {
		got := EvaluateCondition(tt.ind, tt.op, tt.value)
		assert.Equal(t, tt.want, got, "%v %s %v", tt.ind, tt.op, tt.value)
	}
}

func TestCheckConditions(t *testing.T) {
	off := false
	snap := &model.StockSnapshot{
		Symbol:    "TCS",
		LastPrice: decimal.NewFromInt(3500),
		Volume:    250000,
		DailyRSI:  decimal.NewNullDecimal(decimal.NewFromInt(55)),
		WeeklyRSI: decimal.NewNullDecimal(decimal.NewFromInt(62)),
	}

	pass := []model.Condition{
		{Timeframe: model.TimeframeDaily, Indicator: "Rsi", Operator: ">=", Value: 40},
		{Timeframe: model.TimeframeWeekly, Indicator: "Rsi", Operator: "<=", Value: 70},
		{Indicator: "Close", Operator: ">", Value: 3000},
		{Indicator: "Volume", Operator: ">", Value: 100000},
		{Indicator: "Rsi", Operator: ">", Value: 99, Active: &off},
	}
	assert.True(t, CheckConditions(snap, pass))

	missing := []model.Condition{{Timeframe: model.TimeframeMonthly, Indicator: "Rsi", Operator: ">", Value: 0}}
	assert.False(t, CheckConditions(snap, missing))

	failing := []model.Condition{{Timeframe: model.TimeframeDaily, Indicator: "Rsi", Operator: ">", Value: 60}}
	assert.False(t, CheckConditions(snap, failing))

	unknown := []model.Condition{{Indicator: "Macd", Operator: ">", Value: 0}}
	assert.False(t, CheckConditions(snap, unknown))

	assert.True(t, CheckConditions(snap, nil))
}
