package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/saferoute/internal/crime"
)

var loadCmd = &cobra.Command{
	Use:   "load [period...]",
	Short: "Fetch and aggregate periods, then report what was loaded",
	Long: `Downloads and aggregates the given periods (default: every configured
period) and prints a per-period summary. Useful for checking data sources
before starting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}

		periods := args
		l := newLoader()
		if len(periods) == 0 {
			periods = l.Periods()
		}
		if len(periods) == 0 {
			return eris.New("load: no periods configured")
		}

		report := l.Sync(cmd.Context(), crime.NewStore(), periods)
		if err := writeReport(os.Stdout, report); err != nil {
			return err
		}

		failOnError, _ := cmd.Flags().GetBool("strict")
		if failed := report.Failed(); failOnError && len(failed) > 0 {
			return eris.Errorf("load: %d of %d periods failed", len(failed), len(report.Results))
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().Bool("strict", false, "exit non-zero if any period fails to load")
	rootCmd.AddCommand(loadCmd)
}
