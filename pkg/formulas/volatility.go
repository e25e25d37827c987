package formulas

import (
	"github.com/markcheno/go-talib"
)

// NormalizedATR calculates the Average True Range over the trailing window,
// normalized by the latest close (so 0.08 means the average daily range is
// 8% of the price).
//
// ATR Formula:
//
//	TR = max(high-low, |high-prevClose|, |low-prevClose|)
//	ATR = Wilder-smoothed average of TR over N periods
//
// Args:
//
//	highs, lows, closes: OHLC series in ascending date order
//	period: ATR lookback (typically 14)
//
// Returns:
//
//	ATR / latest close, or nil if the series is too short or degenerate
func NormalizedATR(highs, lows, closes []float64, period int) *float64 {
	if period <= 0 {
		return nil
	}
	if len(closes) < period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	lastClose := closes[len(closes)-1]
	if lastClose <= 0 {
		return nil
	}

	atr := talib.Atr(highs, lows, closes, period)
	if len(atr) == 0 {
		return nil
	}

	last := atr[len(atr)-1]
	if isNaN(last) || last <= 0 {
		return nil
	}

	result := last / lastClose
	return &result
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
