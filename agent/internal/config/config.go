// Package config loads the agent configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/ytcopy/reconcile"
)

// Config is the top-level agent configuration.
type Config struct {
	Browser   BrowserConfig       `yaml:"browser"`
	Page      PageConfig          `yaml:"page"`
	Selectors reconcile.Selectors `yaml:"selectors"`
	Timing    reconcile.Timing    `yaml:"timing"`
	Feedback  reconcile.Labels    `yaml:"feedback"`
	Clipboard []ClipboardConfig   `yaml:"clipboard"`
	Status    StatusConfig        `yaml:"status"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Bin              string   `yaml:"bin"`
	Mode             string   `yaml:"mode"` // headless | headful
	ResourceBlocking []string `yaml:"resource_blocking"`
	XvfbDisplay      string   `yaml:"xvfb_display"`
}

// PageConfig is the watch page to augment.
type PageConfig struct {
	URL         string        `yaml:"url"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// ClipboardConfig defines one transcript destination.
type ClipboardConfig struct {
	Type    string        `yaml:"type"` // page | system | stdout | webhook
	URL     string        `yaml:"url"`  // webhook
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
}

// StatusConfig controls the local status API. An empty Addr disables it.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills unset fields. Selector lists and timings default
// to the stock reconcile values.
func (c *Config) ApplyDefaults() {
	if c.Browser.Mode == "" {
		c.Browser.Mode = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Page.LoadTimeout <= 0 {
		c.Page.LoadTimeout = 30 * time.Second
	}
	if len(c.Clipboard) == 0 {
		c.Clipboard = []ClipboardConfig{{Type: "page"}}
	}
	for i := range c.Clipboard {
		if c.Clipboard[i].Type == "webhook" && c.Clipboard[i].Retries <= 0 {
			c.Clipboard[i].Retries = 3
		}
		if c.Clipboard[i].Type == "webhook" && c.Clipboard[i].Backoff <= 0 {
			c.Clipboard[i].Backoff = time.Second
		}
	}

	c.Selectors.ApplyDefaults()
	c.Timing.ApplyDefaults()
	c.Feedback.ApplyDefaults()
}

// Validate rejects configurations the agent cannot run.
func (c *Config) Validate() error {
	switch c.Browser.Mode {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: unknown browser mode %q", c.Browser.Mode)
	}
	for i, cc := range c.Clipboard {
		switch cc.Type {
		case "page", "system", "stdout":
		case "webhook":
			if cc.URL == "" {
				return fmt.Errorf("config: clipboard[%d]: webhook url is required", i)
			}
		default:
			return fmt.Errorf("config: clipboard[%d]: unknown type %q", i, cc.Type)
		}
	}
	return nil
}
