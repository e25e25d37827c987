package sizing

import (
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/pattern-trader/internal/modules/repeaters"
)

type stubPrices struct {
	prices map[string]float64
}

func (s stubPrices) LatestClose(symbol string) (float64, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no history database for %s", symbol)
	}
	return price, nil
}

type stubVolatility struct {
	vol float64
}

func (s stubVolatility) Estimate(string, int) float64 {
	return s.vol
}

type stubBonus struct {
	records map[string]repeaters.RepeaterRecord
}

func (s stubBonus) RepeaterBonus(symbol string) repeaters.RepeaterRecord {
	return s.records[symbol]
}

func defaultConfig() PortfolioConfig {
	return PortfolioConfig{
		TotalValue:          100000,
		MaxRiskPerTrade:     0.02,
		MaxPositionFraction: 0.10,
	}
}

func newTestSizer(cfg PortfolioConfig, vol float64, bonus BonusSource) *Sizer {
	return New(cfg, 60, stubPrices{prices: map[string]float64{"AAPL": 50}},
		stubVolatility{vol: vol}, bonus, zerolog.Nop())
}

func TestKellyCriterionClamped(t *testing.T) {
	sizer := newTestSizer(defaultConfig(), 0.08, nil)

	// Half-Kelly for 0.75/5/-3 is 0.30, clamped to the 0.10 cap.
	assert.InDelta(t, 0.10, sizer.KellyCriterion(0.75, 5.0, -3.0), 1e-9)

	// A weak edge stays below the cap: R=1, f*=(0.55-0.45)=0.1, halved 0.05.
	assert.InDelta(t, 0.05, sizer.KellyCriterion(0.55, 3.0, -3.0), 1e-9)

	// Negative edge clamps to zero, never a short.
	assert.Equal(t, 0.0, sizer.KellyCriterion(0.30, 2.0, -2.0))

	// Wrong-sign statistics are rejected outright.
	for _, winRate := range []float64{0, 0.5, 1.0} {
		assert.Equal(t, 0.0, sizer.KellyCriterion(winRate, -5.0, -3.0))
		assert.Equal(t, 0.0, sizer.KellyCriterion(winRate, 5.0, 3.0))
	}
}

func TestSizePositionScenario(t *testing.T) {
	// The canonical sizing walk-through: strong edge, every multiplier
	// pushing up, final size pinned at the position cap.
	sizer := newTestSizer(defaultConfig(), 0.08, nil)

	rec := sizer.SizePosition(Request{
		Symbol:         "AAPL",
		CompositeScore: 85,
		TimingFlag:     true,
		Sector:         SectorLeading,
		Price:          50,
		Stats:          TradeStats{WinRate: 0.75, AvgWin: 5.0, AvgLoss: -3.0},
	})

	require.Empty(t, rec.Error)
	assert.InDelta(t, 0.30, rec.HalfKelly, 1e-9)
	// 1.3 (score >= 80) * 1.2 (timing) * 1.2 (LEADING) * 1.0 (8% vol)
	assert.InDelta(t, 1.872, rec.Multiplier, 1e-9)
	assert.Equal(t, 0.10, rec.PositionFraction)
	assert.Equal(t, 10000.0, rec.PositionValue)
	assert.Equal(t, int64(200), rec.Shares)
	// stop = 50 * (1 - 2*0.08) = 42
	assert.InDelta(t, 42.0, rec.StopLossPrice, 1e-9)
	assert.InDelta(t, 1600.0, rec.RiskAmount, 1e-9)
	assert.InDelta(t, 0.016, rec.RiskFraction, 1e-9)
}

func TestSizePositionBounds(t *testing.T) {
	cfg := defaultConfig()

	tests := []struct {
		name   string
		score  float64
		timing bool
		sector SectorStatus
		vol    float64
		stats  TradeStats
	}{
		{"All multipliers up", 95, true, SectorLeading, 0.03, TradeStats{0.9, 10, -1}},
		{"All multipliers down", 40, false, SectorLagging, 0.30, TradeStats{0.75, 5, -3}},
		{"No edge", 70, true, SectorImproving, 0.08, TradeStats{0.5, 2, -2}},
		{"Negative edge", 85, true, SectorLeading, 0.08, TradeStats{0.2, 1, -5}},
		{"Broken stats", 85, true, SectorLeading, 0.08, TradeStats{0.75, -5, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sizer := newTestSizer(cfg, tt.vol, nil)

			rec := sizer.SizePosition(Request{
				Symbol:         "AAPL",
				CompositeScore: tt.score,
				TimingFlag:     tt.timing,
				Sector:         tt.sector,
				Price:          50,
				Stats:          tt.stats,
			})

			require.Empty(t, rec.Error)
			assert.GreaterOrEqual(t, rec.Shares, int64(0), "shares must never be negative")
			assert.GreaterOrEqual(t, rec.PositionFraction, 0.0)
			assert.LessOrEqual(t, rec.PositionFraction, cfg.MaxPositionFraction)
			assert.LessOrEqual(t, rec.PositionValue, cfg.TotalValue*cfg.MaxPositionFraction+1e-9)
			assert.GreaterOrEqual(t, rec.StopLossPrice, 0.0)
		})
	}
}

func TestSizePositionFetchesPriceWhenMissing(t *testing.T) {
	sizer := newTestSizer(defaultConfig(), 0.08, nil)

	rec := sizer.SizePosition(Request{
		Symbol:         "AAPL",
		CompositeScore: 85,
		Sector:         SectorNeutral,
		Price:          0, // force the price source
		Stats:          DefaultTradeStats,
	})

	require.Empty(t, rec.Error)
	assert.Equal(t, 50.0, rec.Price)
	assert.Greater(t, rec.Shares, int64(0))
}

func TestSizePositionPriceFailureIsErrorRecord(t *testing.T) {
	sizer := newTestSizer(defaultConfig(), 0.08, nil)

	rec := sizer.SizePosition(Request{
		Symbol:         "UNKNOWN",
		CompositeScore: 85,
		Sector:         SectorLeading,
		Price:          0,
		Stats:          DefaultTradeStats,
	})

	// Explicit error record, all numeric fields zero. Never silently-wrong
	// numbers from a failed fetch.
	assert.Contains(t, rec.Error, "price retrieval failed")
	assert.Zero(t, rec.Price)
	assert.Zero(t, rec.PositionValue)
	assert.Zero(t, rec.Shares)
	assert.Zero(t, rec.RiskAmount)
}

func TestVolatilityRegimeMultiplier(t *testing.T) {
	// Same setup, small edge so the cap never engages; only the volatility
	// regime differs.
	stats := TradeStats{WinRate: 0.55, AvgWin: 3.0, AvgLoss: -3.0} // half-Kelly 0.05

	base := newTestSizer(defaultConfig(), 0.08, nil).SizePosition(Request{
		Symbol: "AAPL", CompositeScore: 65, Sector: SectorNeutral, Price: 50, Stats: stats,
	})
	quiet := newTestSizer(defaultConfig(), 0.03, nil).SizePosition(Request{
		Symbol: "AAPL", CompositeScore: 65, Sector: SectorNeutral, Price: 50, Stats: stats,
	})
	wild := newTestSizer(defaultConfig(), 0.20, nil).SizePosition(Request{
		Symbol: "AAPL", CompositeScore: 65, Sector: SectorNeutral, Price: 50, Stats: stats,
	})

	assert.InDelta(t, 0.05, base.PositionFraction, 1e-9)
	assert.InDelta(t, 0.06, quiet.PositionFraction, 1e-9)
	assert.InDelta(t, 0.035, wild.PositionFraction, 1e-9)
}

func TestSizePortfolio(t *testing.T) {
	cfg := defaultConfig()
	sizer := New(cfg, 60,
		stubPrices{prices: map[string]float64{"AAPL": 50, "MSFT": 200}},
		stubVolatility{vol: 0.08}, nil, zerolog.Nop())

	opportunities := []Opportunity{
		{Symbol: "AAPL", CompositeScore: 85, TimingFlag: true, Sector: "Technology", CurrentPrice: 50},
		{Symbol: "MSFT", CompositeScore: 65, Sector: "Technology", CurrentPrice: 200},
		{Symbol: "XOM", CompositeScore: 55, Sector: "Energy", CurrentPrice: 110}, // below threshold
		{Symbol: "GHOST", CompositeScore: 72, Sector: "Unknown"},                 // price fetch fails
	}
	sectorState := map[string]SectorStatus{"Technology": SectorLeading}
	stats := map[string]TradeStats{
		"MSFT": {WinRate: 0.55, AvgWin: 3.0, AvgLoss: -3.0},
	}

	recs := sizer.SizePortfolio(opportunities, sectorState, stats)
	require.Len(t, recs, 3, "below-threshold symbols are filtered, failures are kept")

	// Ranked by dollar exposure descending; the error record sorts last.
	assert.Equal(t, "AAPL", recs[0].Symbol)
	assert.Equal(t, 10000.0, recs[0].PositionValue)

	// MSFT: half-Kelly 0.05 * 1.0 (score 65) * 1.0 (no timing) * 1.2 (LEADING) = 0.06
	assert.Equal(t, "MSFT", recs[1].Symbol)
	assert.InDelta(t, 6000.0, recs[1].PositionValue, 1e-6)

	assert.Equal(t, "GHOST", recs[2].Symbol)
	assert.Contains(t, recs[2].Error, "price retrieval failed")
}

func TestSizePortfolioDefaults(t *testing.T) {
	sizer := New(defaultConfig(), 60,
		stubPrices{prices: map[string]float64{"AAPL": 50}},
		stubVolatility{vol: 0.08}, nil, zerolog.Nop())

	// No sector state, no backtest stats: NEUTRAL sector and default
	// 0.75/5.0/-3.0 statistics apply.
	recs := sizer.SizePortfolio([]Opportunity{
		{Symbol: "AAPL", CompositeScore: 65, Sector: "Technology", CurrentPrice: 50},
	}, nil, nil)

	require.Len(t, recs, 1)
	rec := recs[0]
	require.Empty(t, rec.Error)
	assert.InDelta(t, 0.30, rec.HalfKelly, 1e-9)
	// Kelly clamped to 0.10, multipliers all 1.0 at score 65 / NEUTRAL / 8% vol
	assert.InDelta(t, 1.0, rec.Multiplier, 1e-9)
	assert.Equal(t, 0.10, rec.PositionFraction)
}

func TestSizePortfolioRepeaterBonusShiftsTier(t *testing.T) {
	bonus := stubBonus{records: map[string]repeaters.RepeaterRecord{
		"AAPL": {Symbol: "AAPL", IsRepeater: true, RepeatCount: 2, BonusPoints: 6, ConsistencyScore: 20},
	}}
	sizer := New(defaultConfig(), 60,
		stubPrices{prices: map[string]float64{"AAPL": 50, "MSFT": 200}},
		stubVolatility{vol: 0.08}, bonus, zerolog.Nop())

	// Small edge so the tier multiplier is visible before the cap.
	stats := map[string]TradeStats{
		"AAPL": {WinRate: 0.55, AvgWin: 3.0, AvgLoss: -3.0},
		"MSFT": {WinRate: 0.55, AvgWin: 3.0, AvgLoss: -3.0},
	}

	recs := sizer.SizePortfolio([]Opportunity{
		{Symbol: "AAPL", CompositeScore: 77, CurrentPrice: 50},  // 77 + 6 = 83 -> 1.3 tier
		{Symbol: "MSFT", CompositeScore: 77, CurrentPrice: 200}, // no bonus -> 1.2 tier
	}, nil, stats)

	require.Len(t, recs, 2)
	byesymbol := map[string]Recommendation{}
	for _, r := range recs {
		byesymbol[r.Symbol] = r
	}

	assert.Equal(t, 6, byesymbol["AAPL"].RepeaterBonus)
	assert.InDelta(t, 0.065, byesymbol["AAPL"].PositionFraction, 1e-9)
	assert.Equal(t, 0, byesymbol["MSFT"].RepeaterBonus)
	assert.InDelta(t, 0.06, byesymbol["MSFT"].PositionFraction, 1e-9)
}

func TestScoreMultiplierTiers(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{95, 1.3}, {80, 1.3}, {79.9, 1.2}, {70, 1.2}, {69, 1.0}, {60, 1.0}, {59.9, 0.7}, {0, 0.7},
	}

	for _, tt := range tests {
		if got := scoreMultiplier(tt.score); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("scoreMultiplier(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
