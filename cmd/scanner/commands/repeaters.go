package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/pattern-trader/internal/modules/repeaters"
)

var repeatersCmd = &cobra.Command{
	Use:   "repeaters",
	Short: "Analyze symbol recurrence across historical scans",
	Long: `Scans the historical pattern-detection artifacts, builds the repeater
index, saves it as a timestamped document, and prints the repeaters found.

Example:
  scanner repeaters`,
	RunE: runRepeaters,
}

func init() {
	rootCmd.AddCommand(repeatersCmd)
}

func runRepeaters(cmd *cobra.Command, args []string) error {
	store := repeaters.NewStore(cfg.ScanHistoryDir, log)

	records, err := store.AnalyzeRepeaters()
	if err != nil {
		return err
	}

	path, err := store.SaveIndex(cfg.DataDir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tREPEATS\tCONSISTENCY\tBONUS\tFIRST SEEN\tLAST SEEN")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n",
			rec.Symbol, rec.RepeatCount, rec.ConsistencyScore, rec.BonusPoints,
			rec.FirstSeen, rec.LastSeen)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nindex: %s\n", path)
	return nil
}
