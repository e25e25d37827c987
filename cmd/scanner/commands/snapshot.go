package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/pattern-trader/internal/database"
	"github.com/aristath/pattern-trader/internal/modules/snapshot"
)

var (
	snapshotDate         string
	snapshotSkipOptional bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Generate a composite-score snapshot for a reference date",
	Long: `Runs the configured scoring stages for the given reference date and
writes the dated snapshot artifact. A required stage failing aborts the
attempt; optional stage failures are skipped.

Example:
  scanner snapshot --date 2025-06-13
  scanner snapshot --skip-optional`,
	RunE: runSnapshot,
}

var backtestDatesCmd = &cobra.Command{
	Use:   "backtest-dates",
	Short: "Print the fixed reference dates used for quick validation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, date := range snapshot.BacktestDates(time.Now()) {
			fmt.Println(date.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(backtestDatesCmd)

	snapshotCmd.Flags().StringVar(&snapshotDate, "date", "", "reference date (YYYY-MM-DD, default today)")
	snapshotCmd.Flags().BoolVar(&snapshotSkipOptional, "skip-optional", false, "skip optional stages")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	refDate := time.Now()
	if snapshotDate != "" {
		parsed, err := time.Parse("2006-01-02", snapshotDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", snapshotDate, err)
		}
		refDate = parsed
	}

	orch, cleanup, err := newOrchestrator(true)
	if err != nil {
		return err
	}
	defer cleanup()

	path, err := orch.Generate(cmd.Context(), refDate, snapshot.Options{
		SkipOptional: snapshotSkipOptional,
	})
	if err != nil {
		return err
	}

	fmt.Println(path)
	return nil
}

// newOrchestrator wires the stage pipeline, the run ledger and the process
// runner from configuration. withLedger=false skips opening the ledger
// database entirely, for invocations that will never record a run.
func newOrchestrator(withLedger bool) (*snapshot.Orchestrator, func(), error) {
	stages, err := snapshot.LoadStages(cfg.StagesPath)
	if err != nil {
		return nil, nil, err
	}

	var (
		ledger  *snapshot.Ledger
		cleanup = func() {}
	)
	if withLedger {
		db, err := database.New(cfg.LedgerDBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		ledger = snapshot.NewLedger(db, log)
		cleanup = func() { db.Close() }
	}

	runner := snapshot.NewExecRunner("", log)
	orch := snapshot.NewOrchestrator(stages, runner, cfg.SnapshotDir, ledger, log)

	return orch, cleanup, nil
}
