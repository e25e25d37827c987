package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/pattern-trader/internal/database"
	"github.com/aristath/pattern-trader/internal/modules/snapshot"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent snapshot attempts from the run ledger",
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum records to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := database.New(cfg.LedgerDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	records, err := snapshot.NewLedger(db, log).Recent(runsLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSTATUS\tFAILED STAGE\tKIND\tDURATION\tSNAPSHOT")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ReferenceDate, rec.Status, rec.FailedStage, rec.FailureKind,
			rec.Duration, rec.SnapshotPath)
	}

	return w.Flush()
}
