package agent

import (
	"github.com/hazyhaar/ytcopy/agent/internal/config"
)

// Config is the top-level agent configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome.
type BrowserConfig = config.BrowserConfig

// PageConfig is the watch page to augment.
type PageConfig = config.PageConfig

// ClipboardConfig defines one transcript destination.
type ClipboardConfig = config.ClipboardConfig

// StatusConfig controls the local status API.
type StatusConfig = config.StatusConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
