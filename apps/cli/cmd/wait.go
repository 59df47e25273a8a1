package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gatekeep/packages/coord"
	"github.com/abdul-hamid-achik/gatekeep/packages/metrics"
)

var (
	waitTimeoutMs int
	waitTimings   bool
)

var waitCmd = &cobra.Command{
	Use:   "wait <key>...",
	Short: "Block until named gatekeepers have results",
	Long: `Polls the shared state until every named gatekeeper has a committed
result or the timeout elapses. Exits non-zero when any gatekeeper never
completed; the results themselves (pass or fail) are reported but do not
affect the exit code - use check for that.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		timeout := time.Duration(cfg.WaitTimeout) * time.Millisecond
		if waitTimeoutMs > 0 {
			timeout = time.Duration(waitTimeoutMs) * time.Millisecond
		}

		var extra []coord.Option
		var rec *metrics.Recorder
		if waitTimings {
			rec = metrics.NewRecorder()
			extra = append(extra, coord.WithRecorder(rec))
		}

		c := newCoordinator(cfg, extra...)
		results := c.WaitFor(context.Background(), args, timeout)

		var missing []string
		for _, key := range args {
			r := results[key]
			switch {
			case r == nil:
				missing = append(missing, key)
			case r.Passed:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: passed\n", key)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: failed\n", key)
			}
		}

		if rec != nil {
			if rw := rec.GetSummary().ResultWait; rw.Count > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "waited %v (p95 %v over %d wait(s))\n", rw.Max, rw.P95, rw.Count)
			}
		}

		if len(missing) > 0 {
			for _, key := range missing {
				fmt.Fprintf(os.Stderr, "%s: no result within %v\n", key, timeout)
			}
			os.Exit(ExitPrereqTimeout)
		}
	},
}

func init() {
	waitCmd.Flags().IntVar(&waitTimeoutMs, "timeout", 0, "Wait timeout in milliseconds (default from config)")
	waitCmd.Flags().BoolVar(&waitTimings, "timings", false, "Report how long the wait took")
}
