package config

import "path/filepath"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		StateDir:     ".gatekeep",
		WaitTimeout:  30000, // 30 seconds
		PollInterval: 100,
		LockTimeout:  5000, // 5 seconds
		HistoryDB:    filepath.Join(".gatekeep", "history.db"),
		NoColor:      nil,
		Watch:        nil,
	}
}
