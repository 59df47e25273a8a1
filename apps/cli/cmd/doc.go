// Package cmd implements the gatekeep CLI commands using Cobra.
//
// Available commands:
//   - init: Initialize the shared coordination state for a run
//   - register: Register a gatekeeper and its prerequisites
//   - result: Record a gatekeeper's pass/fail outcome
//   - wait: Block until named gatekeepers have results
//   - check: Resolve the first failed prerequisite and its chain
//   - status: Render the dependency tree and summary
//   - watch: Re-render status whenever the state file changes
//   - query: Run a gjson path query against the raw state file
//   - validate: Statically check a YAML run plan for cycles
//   - history: Archive and inspect past runs
//   - cleanup: Discard the run's durable state
//   - version: Show gatekeep version information
//
// Worker processes sharing a state directory coordinate through these
// commands without any broker or network transport.
package cmd
