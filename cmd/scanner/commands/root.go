package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/pattern-trader/internal/config"
	"github.com/aristath/pattern-trader/pkg/logger"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Point-in-time scoring snapshots, repeater analysis and position sizing",
	Long: `scanner drives the multi-stage scoring pipeline, analyzes symbol
recurrence across historical scans, and produces risk-bounded position
recommendations.

Configuration is read from the environment (and an optional .env file).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		log = logger.New(logger.Config{
			Level:  cfg.LogLevel,
			Pretty: cfg.DevMode,
		})
		logger.SetGlobalLogger(log)

		return nil
	},
}

// Execute runs the CLI
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		return err
	}
	return nil
}
