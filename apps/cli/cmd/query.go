package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var queryCmd = &cobra.Command{
	Use:   "query <path>",
	Short: "Run a gjson path query against the raw state file",
	Long: `Extracts a value from the state file using gjson path syntax, for
scripting around gatekeep without parsing JSON yourself.

Examples:
  gatekeep query 'results.db-connection.passed'
  gatekeep query 'dependencies.api-login'
  gatekeep query 'results.@keys'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		data, err := os.ReadFile(c.Store().Path())
		if err != nil {
			exitWithError(fmt.Errorf("read state file: %w", err), ExitConfigError)
		}

		result := gjson.GetBytes(data, args[0])
		if !result.Exists() {
			fmt.Fprintf(os.Stderr, "No match for path %q\n", args[0])
			os.Exit(ExitConfigError)
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.String())
	},
}
