package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <key>...",
	Short: "Resolve the first failed prerequisite and its chain",
	Long: `Resolves the named gatekeepers and everything they transitively depend
on against the current state, without waiting. When a failure is found the
root cause and the path reaching it are printed and the command exits
non-zero; a gatekeeper with no result is not a failure.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		failure := c.FailedDependency(args)
		if failure == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No failed prerequisites")
			return
		}

		fmt.Fprintln(os.Stderr, failure.String())
		os.Exit(ExitPrereqFailed)
	},
}
