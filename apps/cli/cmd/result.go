package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resultPass     bool
	resultFail     bool
	resultErrorMsg string
)

var resultCmd = &cobra.Command{
	Use:   "result <key>",
	Short: "Record a gatekeeper's pass/fail outcome",
	Long: `Commits the outcome for a gatekeeper under the coordination lock. A
second result for the same key overwrites the first.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if resultPass == resultFail {
			exitWithError(fmt.Errorf("exactly one of --pass or --fail is required"), ExitUsageError)
		}
		if resultPass && resultErrorMsg != "" {
			exitWithError(fmt.Errorf("--error only applies with --fail"), ExitUsageError)
		}

		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		if err := c.SetResult(args[0], resultPass, resultErrorMsg); err != nil {
			exitWithError(err, exitCodeFor(err))
		}

		verdict := "passed"
		if resultFail {
			verdict = "failed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s\n", args[0], verdict)
	},
}

func init() {
	resultCmd.Flags().BoolVar(&resultPass, "pass", false, "Record a passing result")
	resultCmd.Flags().BoolVar(&resultFail, "fail", false, "Record a failing result")
	resultCmd.Flags().StringVar(&resultErrorMsg, "error", "", "Failure message stored with a failing result")
}
