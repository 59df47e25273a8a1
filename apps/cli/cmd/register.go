package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var registerDeps []string

var registerCmd = &cobra.Command{
	Use:   "register <key>",
	Short: "Register a gatekeeper and its prerequisites",
	Long: `Persists the gatekeeper's dependency edges before its body runs. When a
declared prerequisite has already failed, registration is refused and the
command exits non-zero: the caller must skip the gatekeeper's body.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		failure, err := c.RegisterGatekeeper(args[0], registerDeps)
		if err != nil {
			exitWithError(err, exitCodeFor(err))
		}
		if failure != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %s\n", args[0], failure)
			os.Exit(ExitPrereqFailed)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", args[0])
	},
}

func init() {
	registerCmd.Flags().StringSliceVar(&registerDeps, "deps", nil, "Comma-separated prerequisite gatekeeper keys")
}
