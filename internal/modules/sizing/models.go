package sizing

// SectorStatus is the momentum state of a sector, supplied by the external
// sector-state feed.
type SectorStatus string

const (
	SectorLeading   SectorStatus = "LEADING"
	SectorImproving SectorStatus = "IMPROVING"
	SectorNeutral   SectorStatus = "NEUTRAL"
	SectorWeakening SectorStatus = "WEAKENING"
	SectorLagging   SectorStatus = "LAGGING"
)

// Multiplier returns the sizing adjustment for the sector state.
// Unknown states behave as NEUTRAL.
func (s SectorStatus) Multiplier() float64 {
	switch s {
	case SectorLeading:
		return 1.2
	case SectorImproving:
		return 1.1
	case SectorWeakening:
		return 0.7
	case SectorLagging:
		return 0.5
	default:
		return 1.0
	}
}

// ParseSectorStatus maps a feed value onto a known status, defaulting to
// NEUTRAL for anything unrecognized.
func ParseSectorStatus(value string) SectorStatus {
	switch SectorStatus(value) {
	case SectorLeading, SectorImproving, SectorNeutral, SectorWeakening, SectorLagging:
		return SectorStatus(value)
	default:
		return SectorNeutral
	}
}

// PortfolioConfig is the process-wide risk envelope, supplied at
// construction and immutable for the life of a sizing run.
type PortfolioConfig struct {
	TotalValue          float64
	MaxRiskPerTrade     float64
	MaxPositionFraction float64
}

// Opportunity is one row of the opportunity feed (typically the latest
// snapshot's integrated dataset).
type Opportunity struct {
	Symbol         string  `json:"symbol"`
	CompositeScore float64 `json:"composite_score"`
	Tier           string  `json:"tier"`
	TimingFlag     bool    `json:"timing_flag"`
	Sector         string  `json:"sector_name"`
	CurrentPrice   float64 `json:"current_price"`
}

// TradeStats are historical win/loss statistics for Kelly sizing
type TradeStats struct {
	WinRate float64 `json:"win_rate"`
	AvgWin  float64 `json:"avg_win"`
	AvgLoss float64 `json:"avg_loss"`
}

// DefaultTradeStats are used when no backtest feed covers a symbol
var DefaultTradeStats = TradeStats{WinRate: 0.75, AvgWin: 5.0, AvgLoss: -3.0}

// Recommendation is a bounded position recommendation for one symbol.
// Either the numeric fields are valid, or Error is set and the numbers are
// zero; a failed fetch never produces silently-wrong output.
type Recommendation struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"current_price"`
	Volatility       float64 `json:"volatility"`
	HalfKelly        float64 `json:"half_kelly_fraction"` // raw, before clamping
	Multiplier       float64 `json:"combined_multiplier"`
	PositionFraction float64 `json:"position_fraction"`
	PositionValue    float64 `json:"position_value"`
	Shares           int64   `json:"shares"`
	StopLossPrice    float64 `json:"stop_loss_price"`
	RiskAmount       float64 `json:"risk_amount"`
	RiskFraction     float64 `json:"risk_fraction"` // reported, never enforced
	RepeaterBonus    int     `json:"repeater_bonus,omitempty"`
	Error            string  `json:"error,omitempty"`
}
