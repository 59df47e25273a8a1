// Package config handles configuration loading for gatekeep.
//
// It provides functionality for:
//   - Loading configuration from .gatekeep.config.json files
//   - Default timeouts and intervals
//   - Merging file configuration with CLI overrides
package config
