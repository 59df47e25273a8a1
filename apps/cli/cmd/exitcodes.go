package cmd

// Exit codes for gatekeep CLI
const (
	// ExitSuccess indicates the operation completed and nothing failed
	ExitSuccess = 0

	// ExitPrereqFailed indicates a prerequisite gatekeeper failed
	ExitPrereqFailed = 1

	// ExitPrereqTimeout indicates a prerequisite never completed in time
	ExitPrereqTimeout = 2

	// ExitConfigError indicates a configuration or state error
	ExitConfigError = 3

	// ExitLockError indicates the coordination lock could not be acquired
	ExitLockError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
