package formulas

import (
	"math"
	"testing"
)

func TestHalfKelly(t *testing.T) {
	tests := []struct {
		name    string
		winRate float64
		avgWin  float64
		avgLoss float64
		want    float64
	}{
		{
			name:    "Strong edge",
			winRate: 0.75,
			avgWin:  5.0,
			avgLoss: -3.0,
			// R = 5/3, f* = (0.75*5/3 - 0.25)/(5/3) = 0.6, halved = 0.3
			want: 0.30,
		},
		{
			name:    "Coin flip with symmetric payoff has no edge",
			winRate: 0.5,
			avgWin:  2.0,
			avgLoss: -2.0,
			want:    0.0,
		},
		{
			name:    "Negative edge produces negative fraction",
			winRate: 0.4,
			avgWin:  1.0,
			avgLoss: -1.0,
			want:    -0.1,
		},
		{
			name:    "Certain win",
			winRate: 1.0,
			avgWin:  4.0,
			avgLoss: -2.0,
			want:    0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HalfKelly(tt.winRate, tt.avgWin, tt.avgLoss)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("HalfKelly(%v, %v, %v) = %v, want %v",
					tt.winRate, tt.avgWin, tt.avgLoss, got, tt.want)
			}
		})
	}
}

func TestHalfKellyDegenerateInputs(t *testing.T) {
	// Zero regardless of win rate whenever the win/loss signs are wrong.
	for _, winRate := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		if got := HalfKelly(winRate, -1.0, -3.0); got != 0 {
			t.Errorf("HalfKelly(%v, -1, -3) = %v, want 0", winRate, got)
		}
		if got := HalfKelly(winRate, 0, -3.0); got != 0 {
			t.Errorf("HalfKelly(%v, 0, -3) = %v, want 0", winRate, got)
		}
		if got := HalfKelly(winRate, 5.0, 0); got != 0 {
			t.Errorf("HalfKelly(%v, 5, 0) = %v, want 0", winRate, got)
		}
		if got := HalfKelly(winRate, 5.0, 3.0); got != 0 {
			t.Errorf("HalfKelly(%v, 5, 3) = %v, want 0", winRate, got)
		}
	}
}
