package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the shared coordination state for a run",
	Long: `Creates the state directory and writes an empty state file. Run this
once before any worker starts; workers then share the directory via
--dir or GATEKEEP_DIR.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		if err := c.Initialize(); err != nil {
			exitWithError(err, exitCodeFor(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized gatekeep state in %s\n", c.Store().Dir())
	},
}
