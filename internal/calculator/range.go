package calculator

import (
	"SwingSentinel/internal/model"
)

// windowHigh returns the index of the highest high among the last n bars.
// Ties resolve to the most recent bar. Returns -1 for an empty window.
func windowHigh(bars []model.OHLCBar, n int) int {
	start := len(bars) - n
	if start < 0 {
		start = 0
	}
	idx := -1
	for i := start; i < len(bars); i++ {
		if idx < 0 || bars[i].High.GreaterThanOrEqual(bars[idx].High) {
			idx = i
		}
	}
	return idx
}

// windowLow returns the index of the lowest low among the last n bars.
// Ties resolve to the most recent bar. Returns -1 for an empty window.
func windowLow(bars []model.OHLCBar, n int) int {
	start := len(bars) - n
	if start < 0 {
		start = 0
	}
	idx := -1
	for i := start; i < len(bars); i++ {
		if idx < 0 || bars[i].Low.LessThanOrEqual(bars[idx].Low) {
			idx = i
		}
	}
	return idx
}
