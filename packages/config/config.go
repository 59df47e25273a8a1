package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config represents the gatekeep configuration. Durations are milliseconds.
type Config struct {
	StateDir     string `json:"stateDir,omitempty"`     // directory for state file and lock sentinel
	WaitTimeout  int    `json:"waitTimeout,omitempty"`  // default prerequisite wait timeout
	PollInterval int    `json:"pollInterval,omitempty"` // waiter poll interval
	LockTimeout  int    `json:"lockTimeout,omitempty"`  // lock acquisition timeout
	HistoryDB    string `json:"historyDb,omitempty"`    // sqlite path for the run archive
	NoColor      *bool  `json:"noColor,omitempty"`
	Watch        *bool  `json:"watch,omitempty"` // fsnotify wakeups for waiters
}

// BoolPtr returns a pointer to a bool value, for explicit overrides
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetWatch returns the watch setting, defaulting to true
func (c *Config) GetWatch() bool {
	return getBool(c.Watch, true)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".gatekeep.config.json",
	"gatekeep.config.json",
	".gatekeeprc",
	".gatekeeprc.json",
}

// LoadConfig loads configuration from the specified path or searches for
// config files in the current directory.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.StateDir != "" {
		result.StateDir = other.StateDir
	}
	if other.WaitTimeout > 0 {
		result.WaitTimeout = other.WaitTimeout
	}
	if other.PollInterval > 0 {
		result.PollInterval = other.PollInterval
	}
	if other.LockTimeout > 0 {
		result.LockTimeout = other.LockTimeout
	}
	if other.HistoryDB != "" {
		result.HistoryDB = other.HistoryDB
	}

	// Boolean flags - only override if explicitly set in other config
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Watch != nil {
		result.Watch = other.Watch
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
