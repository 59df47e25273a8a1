package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gatekeep/packages/coord"
	"github.com/abdul-hamid-achik/gatekeep/packages/output"
)

var (
	statusOutput  string
	statusVerbose bool
	statusStrict  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Render the dependency tree and summary",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		if statusStrict {
			if err := c.Store().Verify(); err != nil {
				exitWithError(fmt.Errorf("state file failed validation: %w", err), ExitConfigError)
			}
		}

		if err := renderStatus(c, cfg.GetNoColor()); err != nil {
			exitWithError(err, ExitConfigError)
		}
	},
}

// renderStatus builds the status and writes it with the selected formatter.
// Shared with watch, which re-renders on every state change.
func renderStatus(c *coord.Coordinator, noColor bool) error {
	st := output.BuildStatus(c)

	var f output.Formatter
	switch statusOutput {
	case "json":
		f = output.NewJSONFormatter()
	case "console", "":
		f = output.NewConsoleFormatter(
			output.WithVerbose(statusVerbose),
			output.WithNoColor(noColor),
		)
	default:
		return fmt.Errorf("unknown output format %q (want console or json)", statusOutput)
	}
	return f.FormatStatus(st)
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "console", "Output format (console, json)")
	statusCmd.Flags().BoolVarP(&statusVerbose, "verbose", "v", false, "Show verbose output")
	statusCmd.Flags().BoolVar(&statusStrict, "strict", false, "Validate the state file against its schema first")
}
