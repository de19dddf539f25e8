package calculator

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RSI computes the relative strength index of the most recent window using simple
// rolling means of gains and losses over the last period differences.
// Requires at least period+1 closes. A window without losses yields exactly 100.
func RSI(closes []decimal.Decimal, period int) (decimal.Decimal, bool) {
	if period <= 0 || len(closes) < period+1 {
		return decimal.Zero, false
	}

	gains := make([]decimal.Decimal, 0, len(closes)-1)
	losses := make([]decimal.Decimal, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i].Sub(closes[i-1])
		switch {
		case change.IsPositive():
			gains = append(gains, change)
			losses = append(losses, decimal.Zero)
		case change.IsNegative():
			gains = append(gains, decimal.Zero)
			losses = append(losses, change.Neg())
		default:
			gains = append(gains, decimal.Zero)
			losses = append(losses, decimal.Zero)
		}
	}

	avgGain, _ := SMA(gains, period)
	avgLoss, _ := SMA(losses, period)
	if avgLoss.IsZero() {
		return hundred, true
	}
	rs := avgGain.Div(avgLoss)
	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs))), true
}
