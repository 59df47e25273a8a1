// Package harness integrates the coordinator with the standard testing
// package: gatekeeper tests publish a named result, dependent tests skip
// (never fail) when a prerequisite failed or never completed.
package harness
