package formulas

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// WinLossStats aggregates raw per-trade percentage returns into the
// win-rate / average-win / average-loss triple used by Kelly sizing.
//
// Breakeven trades (exactly 0) count against the win rate but are excluded
// from the average-loss magnitude.
//
// Returns ok=false when the sample contains no wins or no losses; Kelly
// statistics would be degenerate and callers should use their defaults.
func WinLossStats(returns []float64) (winRate, avgWin, avgLoss float64, ok bool) {
	if len(returns) == 0 {
		return 0, 0, 0, false
	}

	var wins, losses []float64
	for _, r := range returns {
		if r > 0 {
			wins = append(wins, r)
		} else if r < 0 {
			losses = append(losses, r)
		}
	}

	if len(wins) == 0 || len(losses) == 0 {
		return 0, 0, 0, false
	}

	winRate = float64(len(wins)) / float64(len(returns))
	avgWin = stat.Mean(wins, nil)
	avgLoss = stat.Mean(losses, nil)

	return winRate, avgWin, avgLoss, true
}
