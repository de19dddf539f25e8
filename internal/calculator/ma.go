package calculator

import (
	"github.com/shopspring/decimal"
)

// SMA computes the simple moving average of the last period values.
// Returns false if period is not positive or there are fewer than period values.
func SMA(values []decimal.Decimal, period int) (decimal.Decimal, bool) {
	if period <= 0 || len(values) < period {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for i := len(values) - period; i < len(values); i++ {
		sum = sum.Add(values[i])
	}
	return sum.Div(decimal.NewFromInt(int64(period))), true
}
