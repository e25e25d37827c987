package formulas

// HalfKelly calculates the half-Kelly betting fraction for a trade setup.
//
// Kelly Formula:
//
//	f* = (p*R - q) / R
//	where R = avgWin / |avgLoss|, p = win rate, q = 1 - p
//
// The raw fraction is damped by 0.5 ("half-Kelly") because full Kelly
// assumes perfectly known edge, which backtest statistics never are.
//
// Args:
//
//	winRate: Probability of a winning trade (0-1)
//	avgWin: Average winning trade return (must be > 0, e.g. 5.0 for +5%)
//	avgLoss: Average losing trade return (must be < 0, e.g. -3.0 for -3%)
//
// Returns:
//
//	Half-Kelly fraction, unclamped. May be negative when the edge is
//	negative. Returns 0 when avgWin or avgLoss has the wrong sign, to
//	avoid division by zero or a meaningless positive-feedback size.
func HalfKelly(winRate, avgWin, avgLoss float64) float64 {
	if avgWin <= 0 || avgLoss >= 0 {
		return 0
	}

	r := avgWin / -avgLoss
	q := 1 - winRate

	kelly := (winRate*r - q) / r

	return kelly * 0.5
}
