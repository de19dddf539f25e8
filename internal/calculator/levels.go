package calculator

import (
	"SwingSentinel/internal/model"
)

// ExtractLevels derives the swing high and swing low from a date-ordered daily series.
//
// A bar is a swing high when its high exceeds both neighbours' highs, and a swing low when
// its low is below both neighbours' lows. The most recent qualifying bar is used for each side.
// When a side has no swing point it falls back to the extreme over the last lookback bars,
// excluding the final (possibly unfinished) bar.
//
// Returns false when fewer than 3 bars are supplied, lookback is not positive, or neither
// side could be determined.
func ExtractLevels(bars []model.OHLCBar, lookback int) (model.LevelSet, bool) {
	var levels model.LevelSet
	n := len(bars)
	if n < 3 || lookback <= 0 {
		return levels, false
	}

	highIdx, lowIdx := -1, -1
	for i := 1; i <= n-2; i++ {
		if bars[i].High.GreaterThan(bars[i-1].High) && bars[i].High.GreaterThan(bars[i+1].High) {
			highIdx = i
		}
	}
	for i := 1; i <= n-2; i++ {
		if bars[i].Low.LessThan(bars[i-1].Low) && bars[i].Low.LessThan(bars[i+1].Low) {
			lowIdx = i
		}
	}

	closed := bars[:n-1]
	if highIdx < 0 {
		highIdx = windowHigh(closed, lookback)
	}
	if lowIdx < 0 {
		lowIdx = windowLow(closed, lookback)
	}

	if highIdx >= 0 {
		levels.High = bars[highIdx].High
		levels.HighDate = bars[highIdx].Date.Format(model.DateLayout)
		levels.HasHigh = true
	}
	if lowIdx >= 0 {
		levels.Low = bars[lowIdx].Low
		levels.LowDate = bars[lowIdx].Date.Format(model.DateLayout)
		levels.HasLow = true
	}
	return levels, levels.HasHigh || levels.HasLow
}
