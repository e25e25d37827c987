package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/pattern-trader/internal/modules/snapshot"
)

var (
	weeklyWeeks        int
	weeklySkipOptional bool
	weeklyDryRun       bool
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Generate snapshots for past Fridays, one per week",
	Long: `Steps backward in 7-day increments from today, snaps each date to the
nearest prior (or same) Friday, and generates a snapshot per date. The batch
is best-effort: a failed date is logged and the batch continues.

Use --dry-run to list the resolved dates without running any stage.

Example:
  scanner weekly --weeks 12 --dry-run
  scanner weekly --weeks 12 --skip-optional`,
	RunE: runWeekly,
}

func init() {
	rootCmd.AddCommand(weeklyCmd)

	weeklyCmd.Flags().IntVar(&weeklyWeeks, "weeks", 4, "number of weekly snapshots")
	weeklyCmd.Flags().BoolVar(&weeklySkipOptional, "skip-optional", false, "skip optional stages")
	weeklyCmd.Flags().BoolVar(&weeklyDryRun, "dry-run", false, "list reference dates without running")
}

func runWeekly(cmd *cobra.Command, args []string) error {
	// A dry run resolves dates only; it never records anything, so the
	// ledger database is left untouched.
	orch, cleanup, err := newOrchestrator(!weeklyDryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := orch.GenerateWeekly(cmd.Context(), weeklyWeeks, snapshot.WeeklyOptions{
		SkipOptional: weeklySkipOptional,
		DryRun:       weeklyDryRun,
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Println(result)
	}

	return nil
}
