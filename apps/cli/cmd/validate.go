package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gatekeep/packages/plan"
)

var validateApply bool

var validateCmd = &cobra.Command{
	Use:   "validate <plan.yaml>",
	Short: "Statically check a YAML run plan for cycles",
	Long: `Parses a run plan and rejects empty or duplicate keys, references to
undeclared gatekeepers, and dependency cycles. With --apply, a valid
plan's edges are also registered into the shared state so status can
render the full tree before any worker runs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := plan.Load(args[0])
		if err != nil {
			exitWithError(err, ExitConfigError)
		}
		if err := p.Validate(); err != nil {
			exitWithError(fmt.Errorf("invalid plan %s: %w", args[0], err), ExitConfigError)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Plan is valid: %d gatekeeper(s)\n", len(p.Gatekeepers))

		if !validateApply {
			return
		}

		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		for _, g := range p.Gatekeepers {
			if err := c.Store().RegisterGatekeeper(g.Key, g.DependsOn); err != nil {
				exitWithError(err, exitCodeFor(err))
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied plan to %s\n", c.Store().Dir())
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateApply, "apply", false, "Register the plan's edges into the shared state")
}
