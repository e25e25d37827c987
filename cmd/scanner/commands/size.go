package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/pattern-trader/internal/feeds"
	"github.com/aristath/pattern-trader/internal/marketdata"
	"github.com/aristath/pattern-trader/internal/modules/repeaters"
	"github.com/aristath/pattern-trader/internal/modules/sizing"
)

var (
	sizeOpportunities string
	sizeSectors       string
	sizeStats         string
)

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Produce risk-bounded position recommendations",
	Long: `Sizes every opportunity above the composite-score threshold using
half-Kelly with tier, timing, sector and volatility adjustments, clamped to
the configured position cap.

The opportunity feed may be a snapshot artifact or a plain JSON array.
Sector-state and backtest-statistics feeds are optional; NEUTRAL sector and
default win/loss statistics apply where they are missing.

Example:
  scanner size --opportunities data/snapshots/snapshot_2025-06-13.json
  scanner size --opportunities opps.json --sectors sectors.json --stats stats.json`,
	RunE: runSize,
}

func init() {
	rootCmd.AddCommand(sizeCmd)

	sizeCmd.Flags().StringVar(&sizeOpportunities, "opportunities", "", "opportunity feed path (required)")
	sizeCmd.Flags().StringVar(&sizeSectors, "sectors", "", "sector-state feed path")
	sizeCmd.Flags().StringVar(&sizeStats, "stats", "", "backtest-statistics feed path")
	_ = sizeCmd.MarkFlagRequired("opportunities")
}

func runSize(cmd *cobra.Command, args []string) error {
	opportunities, err := feeds.LoadOpportunities(sizeOpportunities)
	if err != nil {
		return err
	}

	var sectorState map[string]sizing.SectorStatus
	if sizeSectors != "" {
		if sectorState, err = feeds.LoadSectorState(sizeSectors); err != nil {
			return err
		}
	}

	var stats map[string]sizing.TradeStats
	if sizeStats != "" {
		if stats, err = feeds.LoadBacktestStats(sizeStats); err != nil {
			return err
		}
	}

	// Repeater bonus is best-effort: without scan history the sizer simply
	// gets no bonus source.
	var bonus sizing.BonusSource
	store := repeaters.NewStore(cfg.ScanHistoryDir, log)
	if _, err := store.AnalyzeRepeaters(); err != nil {
		log.Warn().Err(err).Msg("No scan history, sizing without repeater bonus")
	} else {
		bonus = store
	}

	history := marketdata.NewHistoryDB(cfg.PriceHistoryDir, log)
	volatility := sizing.NewATREstimator(history, log)

	sizer := sizing.New(sizing.PortfolioConfig{
		TotalValue:          cfg.PortfolioValue,
		MaxRiskPerTrade:     cfg.MaxRiskPerTrade,
		MaxPositionFraction: cfg.MaxPositionFraction,
	}, cfg.MinCompositeScore, history, volatility, bonus, log)

	recommendations := sizer.SizePortfolio(opportunities, sectorState, stats)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tPRICE\tVOL\tFRACTION\tVALUE\tSHARES\tSTOP\tRISK\tERROR")
	for _, rec := range recommendations {
		if rec.Error != "" {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t-\t%s\n", rec.Symbol, rec.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.1f%%\t%.2f%%\t%.2f\t%d\t%.2f\t%.2f\t\n",
			rec.Symbol, rec.Price, rec.Volatility*100, rec.PositionFraction*100,
			rec.PositionValue, rec.Shares, rec.StopLossPrice, rec.RiskAmount)
	}

	return w.Flush()
}
