package sizing

import (
	"github.com/rs/zerolog"

	"github.com/aristath/pattern-trader/internal/marketdata"
	"github.com/aristath/pattern-trader/pkg/formulas"
)

const (
	// FallbackVolatility is used whenever volatility cannot be estimated
	FallbackVolatility = 0.20
	// DefaultLookbackDays is the ATR window for volatility estimation
	DefaultLookbackDays = 14
)

// OHLCSource provides daily candles for a symbol, oldest first
type OHLCSource interface {
	DailyOHLC(symbol string, limit int) ([]marketdata.Candle, error)
}

// ATREstimator estimates volatility as the Average True Range over the
// trailing window, normalized by the latest close. It never fails: any
// retrieval error or insufficient history degrades to FallbackVolatility.
type ATREstimator struct {
	source OHLCSource
	log    zerolog.Logger
}

// NewATREstimator creates an ATR-based volatility estimator
func NewATREstimator(source OHLCSource, log zerolog.Logger) *ATREstimator {
	return &ATREstimator{
		source: source,
		log:    log.With().Str("component", "volatility").Logger(),
	}
}

// Estimate implements VolatilityEstimator
func (e *ATREstimator) Estimate(symbol string, lookbackDays int) float64 {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	candles, err := e.source.DailyOHLC(symbol, lookbackDays+1)
	if err != nil {
		e.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Float64("fallback", FallbackVolatility).
			Msg("Price history unavailable, using fallback volatility")
		return FallbackVolatility
	}

	if len(candles) < lookbackDays {
		e.log.Warn().
			Str("symbol", symbol).
			Int("rows", len(candles)).
			Int("lookback_days", lookbackDays).
			Msg("Insufficient history, using fallback volatility")
		return FallbackVolatility
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}

	atr := formulas.NormalizedATR(highs, lows, closes, lookbackDays)
	if atr == nil {
		return FallbackVolatility
	}

	return *atr
}
