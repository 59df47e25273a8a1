package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gatekeep/packages/history"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Archive and inspect past runs",
	Long: `The per-run state file is discarded by cleanup; the history archive is
a local SQLite database that keeps run outcomes across runs.`,
}

var historyRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Archive the current run's results",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		a := openArchive(cfg.HistoryDB)
		defer a.Close()

		runID, err := a.RecordRun(c.Store().Read())
		if err != nil {
			exitWithError(err, ExitConfigError)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded run %s\n", runID)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		a := openArchive(cfg.HistoryDB)
		defer a.Close()

		runs, err := a.ListRuns(historyLimit)
		if err != nil {
			exitWithError(err, ExitConfigError)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No archived runs")
			return
		}

		for _, run := range runs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d total, %d passed, %d failed\n",
				run.ID, run.RecordedAt.Format("2006-01-02 15:04:05"),
				run.Total, run.Passed, run.Failed)
		}
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived run's results",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		a := openArchive(cfg.HistoryDB)
		defer a.Close()

		results, err := a.RunResults(args[0])
		if err != nil {
			exitWithError(err, ExitConfigError)
		}
		if len(results) == 0 {
			fmt.Fprintf(os.Stderr, "No results for run %s\n", args[0])
			os.Exit(ExitConfigError)
		}

		deps, err := a.RunDependencies(args[0])
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		for _, r := range results {
			verdict := "passed"
			if !r.Passed {
				verdict = "failed"
				if r.Error != "" {
					verdict += " (" + r.Error + ")"
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Key, verdict)
			for _, dep := range deps[r.Key] {
				fmt.Fprintf(cmd.OutOrStdout(), "  depends on %s\n", dep)
			}
		}
	},
}

// openArchive opens the history database, honoring the --db override.
func openArchive(path string) *history.Archive {
	if historyDB != "" {
		path = historyDB
	}
	a, err := history.Open(path)
	if err != nil {
		exitWithError(err, ExitConfigError)
	}
	return a
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDB, "db", "", "History database path (default from config)")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")

	historyCmd.AddCommand(historyRecordCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}
