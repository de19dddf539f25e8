package calculator

import (
	"math"
	"strings"

	"SwingSentinel/internal/model"
)

// CheckConditions reports whether the snapshot passes every active condition.
func CheckConditions(snap *model.StockSnapshot, conditions []model.Condition) bool {
	for _, cond := range conditions {
		if !cond.IsActive() {
			continue
		}
		value, ok := indicatorValue(snap, cond)
		if !ok {
			return false
		}
		if !EvaluateCondition(value, cond.Operator, cond.Value) {
			return false
		}
	}
	return true
}

func indicatorValue(snap *model.StockSnapshot, cond model.Condition) (float64, bool) {
	switch strings.ToLower(cond.Indicator) {
	case "", "rsi":
		rsi := snap.DailyRSI
		switch cond.Timeframe {
		case model.TimeframeWeekly:
			rsi = snap.WeeklyRSI
		case model.TimeframeMonthly:
			rsi = snap.MonthlyRSI
		}
		if !rsi.Valid {
			return 0, false
		}
		return rsi.Decimal.InexactFloat64(), true
	case "close":
		return snap.LastPrice.InexactFloat64(), true
	case "volume":
		return float64(snap.Volume), true
	default:
		return 0, false
	}
}

// EvaluateCondition applies a comparison operator. Operators may be symbolic (">=")
// or spelled out ("Greater than equal to"). Unknown operators pass.
func EvaluateCondition(indicator float64, operator string, value float64) bool {
	op := strings.ToLower(operator)
	switch {
	case strings.Contains(op, "greater than equal") || strings.Contains(op, ">="):
		return indicator >= value
	case strings.Contains(op, "less than equal") || strings.Contains(op, "<="):
		return indicator <= value
	case strings.Contains(op, "greater than") || strings.Contains(op, ">"):
		return indicator > value
	case strings.Contains(op, "less than") || strings.Contains(op, "<"):
		return indicator < value
	case strings.Contains(op, "equal") || strings.Contains(op, "=="):
		return math.Abs(indicator-value) < 0.01
	}
	return true
}
