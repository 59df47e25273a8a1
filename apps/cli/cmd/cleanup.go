package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupRecord bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Discard the run's durable state",
	Long: `Removes the state file and any stale lock sentinel. Best-effort: missing
files are not an error. With --record the run is archived to the history
database first.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)

		if cleanupRecord {
			a := openArchive(cfg.HistoryDB)
			defer a.Close()

			runID, err := a.RecordRun(c.Store().Read())
			if err != nil {
				exitWithError(err, ExitConfigError)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded run %s\n", runID)
		}

		c.Cleanup()
		fmt.Fprintf(cmd.OutOrStdout(), "Cleaned up %s\n", c.Store().Dir())
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupRecord, "record", false, "Archive the run to the history database before cleanup")
}
