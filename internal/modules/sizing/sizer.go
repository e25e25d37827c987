package sizing

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/pattern-trader/internal/modules/repeaters"
	"github.com/aristath/pattern-trader/pkg/formulas"
)

// PriceSource resolves the latest price for a symbol
type PriceSource interface {
	LatestClose(symbol string) (float64, error)
}

// VolatilityEstimator estimates normalized volatility for a symbol.
// Implementations must degrade to a constant instead of failing.
type VolatilityEstimator interface {
	Estimate(symbol string, lookbackDays int) float64
}

// BonusSource provides repeater bonus points for a symbol
type BonusSource interface {
	RepeaterBonus(symbol string) repeaters.RepeaterRecord
}

// Sizer produces risk-bounded position recommendations. Sizing is a
// stateless, read-only computation over immutable inputs; one Sizer is safe
// to reuse across runs.
type Sizer struct {
	cfg          PortfolioConfig
	minScore     float64
	lookbackDays int
	prices       PriceSource
	vol          VolatilityEstimator
	bonus        BonusSource // optional
	log          zerolog.Logger
}

// New creates a position sizer. bonus may be nil when no repeater index is
// available.
func New(cfg PortfolioConfig, minScore float64, prices PriceSource, vol VolatilityEstimator, bonus BonusSource, log zerolog.Logger) *Sizer {
	return &Sizer{
		cfg:          cfg,
		minScore:     minScore,
		lookbackDays: DefaultLookbackDays,
		prices:       prices,
		vol:          vol,
		bonus:        bonus,
		log:          log.With().Str("component", "sizer").Logger(),
	}
}

// KellyCriterion returns the half-Kelly fraction for the given statistics,
// clamped to [0, MaxPositionFraction]. Returns 0 whenever avgWin or avgLoss
// has the wrong sign.
func (s *Sizer) KellyCriterion(winRate, avgWin, avgLoss float64) float64 {
	return clampFraction(formulas.HalfKelly(winRate, avgWin, avgLoss), s.cfg.MaxPositionFraction)
}

// Request is one symbol's sizing input
type Request struct {
	Symbol         string
	CompositeScore float64 // including any repeater bonus
	TimingFlag     bool
	Sector         SectorStatus
	Price          float64 // feed price; fetched from the price source when <= 0
	Stats          TradeStats
}

// SizePosition sizes a single position:
// price -> volatility -> Kelly -> multipliers -> clamp -> stop-loss -> emit.
//
// A price-retrieval failure is unrecoverable for the symbol and yields an
// explicit error record. A volatility failure silently degrades to the
// estimator's fallback constant.
func (s *Sizer) SizePosition(req Request) Recommendation {
	price := req.Price
	if price <= 0 {
		fetched, err := s.prices.LatestClose(req.Symbol)
		if err != nil {
			s.log.Error().
				Err(err).
				Str("symbol", req.Symbol).
				Msg("Price retrieval failed, emitting error record")
			return Recommendation{
				Symbol: req.Symbol,
				Error:  "price retrieval failed: " + err.Error(),
			}
		}
		price = fetched
	}

	volatility := s.vol.Estimate(req.Symbol, s.lookbackDays)

	rawHalfKelly := formulas.HalfKelly(req.Stats.WinRate, req.Stats.AvgWin, req.Stats.AvgLoss)
	kelly := clampFraction(rawHalfKelly, s.cfg.MaxPositionFraction)

	multiplier := scoreMultiplier(req.CompositeScore) *
		timingMultiplier(req.TimingFlag) *
		req.Sector.Multiplier() *
		volatilityMultiplier(volatility)

	fraction := clampFraction(kelly*multiplier, s.cfg.MaxPositionFraction)

	positionValue := fraction * s.cfg.TotalValue
	shares := int64(math.Floor(positionValue / price))

	stopLoss := price * (1 - 2*volatility)
	if stopLoss < 0 {
		stopLoss = 0
	}
	riskAmount := float64(shares) * (price - stopLoss)
	riskFraction := riskAmount / s.cfg.TotalValue

	if riskFraction > s.cfg.MaxRiskPerTrade {
		// Reported but deliberately not fed back into the size.
		s.log.Warn().
			Str("symbol", req.Symbol).
			Float64("risk_fraction", riskFraction).
			Float64("max_risk_per_trade", s.cfg.MaxRiskPerTrade).
			Msg("Stop-loss risk exceeds configured per-trade risk")
	}

	return Recommendation{
		Symbol:           req.Symbol,
		Price:            price,
		Volatility:       volatility,
		HalfKelly:        rawHalfKelly,
		Multiplier:       multiplier,
		PositionFraction: fraction,
		PositionValue:    positionValue,
		Shares:           shares,
		StopLossPrice:    stopLoss,
		RiskAmount:       riskAmount,
		RiskFraction:     riskFraction,
	}
}

// SizePortfolio sizes every opportunity above the composite-score threshold
// independently: no cross-symbol correlation adjustment, no aggregate
// exposure cap. Missing sector states default to NEUTRAL, missing backtest
// statistics to DefaultTradeStats. Per-symbol failures become error records
// and never stop the batch. Results are ranked by dollar exposure
// descending.
func (s *Sizer) SizePortfolio(opportunities []Opportunity, sectorState map[string]SectorStatus, stats map[string]TradeStats) []Recommendation {
	var recommendations []Recommendation

	for _, opp := range opportunities {
		if opp.CompositeScore < s.minScore {
			s.log.Debug().
				Str("symbol", opp.Symbol).
				Float64("composite_score", opp.CompositeScore).
				Msg("Below composite-score threshold, skipping")
			continue
		}

		score := opp.CompositeScore
		var bonusPoints int
		if s.bonus != nil {
			record := s.bonus.RepeaterBonus(opp.Symbol)
			bonusPoints = record.BonusPoints
			score += float64(bonusPoints)
		}

		sector, ok := sectorState[opp.Sector]
		if !ok {
			sector = SectorNeutral
		}

		tradeStats, ok := stats[opp.Symbol]
		if !ok {
			tradeStats = DefaultTradeStats
		}

		rec := s.SizePosition(Request{
			Symbol:         opp.Symbol,
			CompositeScore: score,
			TimingFlag:     opp.TimingFlag,
			Sector:         sector,
			Price:          opp.CurrentPrice,
			Stats:          tradeStats,
		})
		rec.RepeaterBonus = bonusPoints

		recommendations = append(recommendations, rec)
	}

	sort.Slice(recommendations, func(i, j int) bool {
		return recommendations[i].PositionValue > recommendations[j].PositionValue
	})

	s.log.Info().
		Int("opportunities", len(opportunities)).
		Int("recommendations", len(recommendations)).
		Msg("Sized portfolio")

	return recommendations
}

// scoreMultiplier buckets the composite score into sizing tiers
func scoreMultiplier(score float64) float64 {
	switch {
	case score >= 80:
		return 1.3
	case score >= 70:
		return 1.2
	case score >= 60:
		return 1.0
	default:
		return 0.7
	}
}

func timingMultiplier(confluence bool) float64 {
	if confluence {
		return 1.2
	}
	return 1.0
}

// volatilityMultiplier shrinks positions in high-volatility regimes and
// allows larger ones in unusually quiet regimes
func volatilityMultiplier(volatility float64) float64 {
	switch {
	case volatility > 0.15:
		return 0.7
	case volatility < 0.05:
		return 1.2
	default:
		return 1.0
	}
}

// clampFraction bounds a position fraction to [0, max]
func clampFraction(fraction, max float64) float64 {
	if fraction < 0 {
		return 0
	}
	if fraction > max {
		return max
	}
	return fraction
}
