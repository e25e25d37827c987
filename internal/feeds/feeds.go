// Package feeds loads the file-based contracts consumed by the position
// sizer: the opportunity feed (usually the latest snapshot), the
// sector-state feed, and the backtest-statistics feed.
package feeds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aristath/pattern-trader/internal/modules/sizing"
	"github.com/aristath/pattern-trader/pkg/formulas"
)

// LoadOpportunities reads an opportunity feed. Both a plain JSON array and
// a snapshot document (records under "data") are accepted, so the latest
// snapshot can be fed to the sizer directly.
func LoadOpportunities(path string) ([]sizing.Opportunity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read opportunity feed: %w", err)
	}

	var opportunities []sizing.Opportunity
	if err := json.Unmarshal(data, &opportunities); err != nil {
		var snapshot struct {
			Data []sizing.Opportunity `json:"data"`
		}
		if err := json.Unmarshal(data, &snapshot); err != nil || snapshot.Data == nil {
			return nil, fmt.Errorf("unparseable opportunity feed %s", path)
		}
		opportunities = snapshot.Data
	}

	if len(opportunities) == 0 {
		return nil, fmt.Errorf("opportunity feed %s is empty", path)
	}

	for i, opp := range opportunities {
		if opp.Symbol == "" {
			return nil, fmt.Errorf("opportunity %d has no symbol", i)
		}
	}

	return opportunities, nil
}

// LoadSectorState reads the sector-state feed: a JSON object mapping sector
// name to momentum status. Unknown status values degrade to NEUTRAL.
func LoadSectorState(path string) (map[string]sizing.SectorStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sector-state feed: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unparseable sector-state feed %s: %w", path, err)
	}

	state := make(map[string]sizing.SectorStatus, len(raw))
	for sector, status := range raw {
		state[sector] = sizing.ParseSectorStatus(status)
	}

	return state, nil
}

// statsRecord is one symbol's entry in the backtest-statistics feed.
// Aggregated statistics and raw per-trade returns are both accepted; raw
// returns are aggregated here.
type statsRecord struct {
	WinRate *float64  `json:"win_rate,omitempty"`
	AvgWin  *float64  `json:"avg_win,omitempty"`
	AvgLoss *float64  `json:"avg_loss,omitempty"`
	Returns []float64 `json:"returns,omitempty"`
}

// LoadBacktestStats reads the backtest-statistics feed: a JSON object
// mapping symbol to statistics. Records that cannot yield a usable
// win/loss profile are dropped, leaving the sizer's defaults to apply.
func LoadBacktestStats(path string) (map[string]sizing.TradeStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backtest-statistics feed: %w", err)
	}

	var raw map[string]statsRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unparseable backtest-statistics feed %s: %w", path, err)
	}

	stats := make(map[string]sizing.TradeStats, len(raw))
	for symbol, record := range raw {
		if record.WinRate != nil && record.AvgWin != nil && record.AvgLoss != nil {
			stats[symbol] = sizing.TradeStats{
				WinRate: *record.WinRate,
				AvgWin:  *record.AvgWin,
				AvgLoss: *record.AvgLoss,
			}
			continue
		}

		if winRate, avgWin, avgLoss, ok := formulas.WinLossStats(record.Returns); ok {
			stats[symbol] = sizing.TradeStats{
				WinRate: winRate,
				AvgWin:  avgWin,
				AvgLoss: avgLoss,
			}
		}
	}

	return stats, nil
}
