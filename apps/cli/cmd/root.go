package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gatekeep/packages/config"
	"github.com/abdul-hamid-achik/gatekeep/packages/coord"
	"github.com/abdul-hamid-achik/gatekeep/packages/flock"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	dirFlag     string
	configFlag  string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "gatekeep",
	Short: "Shared pass/fail gates for independent test workers.",
	Long: `gatekeep coordinates test workers through a shared state directory:
gatekeeper tests record a named pass/fail result, and dependent tests
wait on those names and skip when anything upstream failed or never
completed. No broker, no network - just a file and a lock.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitUsageError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", getEnvString("GATEKEEP_DIR", ""), "State directory (env: GATEKEEP_DIR)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("GATEKEEP_CONFIG", ""), "Path to config file (env: GATEKEEP_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("GATEKEEP_NO_COLOR", false), "Disable colored output (env: GATEKEEP_NO_COLOR)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSettings resolves the effective configuration: file config merged
// with CLI overrides.
func loadSettings() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	overrides := &config.Config{}
	if dirFlag != "" {
		overrides.StateDir = dirFlag
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	return cfg.Merge(overrides), nil
}

// newCoordinator builds a coordinator from the effective configuration.
func newCoordinator(cfg *config.Config, extra ...coord.Option) *coord.Coordinator {
	opts := []coord.Option{
		coord.WithWaitTimeout(time.Duration(cfg.WaitTimeout) * time.Millisecond),
		coord.WithPollInterval(time.Duration(cfg.PollInterval) * time.Millisecond),
		coord.WithLockTimeout(time.Duration(cfg.LockTimeout) * time.Millisecond),
	}
	if !cfg.GetWatch() {
		opts = append(opts, coord.WithoutWatch())
	}
	opts = append(opts, extra...)
	return coord.New(cfg.StateDir, opts...)
}

// exitWithError prints err to stderr and terminates with code.
func exitWithError(err error, code int) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(code)
}

// exitCodeFor maps an operation error to an exit code: lock contention is
// distinguished from everything else.
func exitCodeFor(err error) int {
	if errors.Is(err, flock.ErrTimeout) {
		return ExitLockError
	}
	return ExitConfigError
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
