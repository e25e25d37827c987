package formulas

import (
	"testing"
)

func flatSeries(n int, high, low, close float64) (highs, lows, closes []float64) {
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = high
		lows[i] = low
		closes[i] = close
	}
	return highs, lows, closes
}

func TestNormalizedATR(t *testing.T) {
	// Constant 8-point daily range on a 100 close: ATR = 8, normalized 0.08.
	highs, lows, closes := flatSeries(30, 104, 96, 100)

	got := NormalizedATR(highs, lows, closes, 14)
	if got == nil {
		t.Fatal("NormalizedATR returned nil for a valid series")
	}
	if diff := *got - 0.08; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("NormalizedATR = %v, want 0.08", *got)
	}
}

func TestNormalizedATRInsufficientData(t *testing.T) {
	highs, lows, closes := flatSeries(10, 104, 96, 100)

	if got := NormalizedATR(highs, lows, closes, 14); got != nil {
		t.Errorf("NormalizedATR with 10 rows and period 14 = %v, want nil", *got)
	}
	if got := NormalizedATR(nil, nil, nil, 14); got != nil {
		t.Errorf("NormalizedATR with empty series = %v, want nil", *got)
	}
}

func TestNormalizedATRMismatchedLengths(t *testing.T) {
	highs, lows, closes := flatSeries(30, 104, 96, 100)

	if got := NormalizedATR(highs[:29], lows, closes, 14); got != nil {
		t.Errorf("NormalizedATR with mismatched lengths = %v, want nil", *got)
	}
}

func TestWinLossStats(t *testing.T) {
	returns := []float64{5, -3, 7, -1, 4, 6, -2, 8}

	winRate, avgWin, avgLoss, ok := WinLossStats(returns)
	if !ok {
		t.Fatal("WinLossStats returned ok=false for a mixed sample")
	}
	if winRate != 0.625 {
		t.Errorf("winRate = %v, want 0.625", winRate)
	}
	if avgWin != 6.0 {
		t.Errorf("avgWin = %v, want 6.0", avgWin)
	}
	if avgLoss != -2.0 {
		t.Errorf("avgLoss = %v, want -2.0", avgLoss)
	}
}

func TestWinLossStatsDegenerate(t *testing.T) {
	if _, _, _, ok := WinLossStats(nil); ok {
		t.Error("expected ok=false for empty sample")
	}
	if _, _, _, ok := WinLossStats([]float64{1, 2, 3}); ok {
		t.Error("expected ok=false for all-win sample")
	}
	if _, _, _, ok := WinLossStats([]float64{-1, -2}); ok {
		t.Error("expected ok=false for all-loss sample")
	}
}
