// Package output renders coordination state for humans and machines.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output with a dependency tree
//   - JSON: Machine-readable JSON output
//
// Each formatter implements the Formatter interface.
package output
