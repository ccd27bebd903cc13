// Package config handles configuration for device-doctor.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default timeouts applied when the config file leaves them unset.
const (
	DefaultBootTimeout     = 5 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second
	DefaultPollInterval    = 1 * time.Second
	DefaultCommandTimeout  = 2 * time.Minute
)

// Config represents the workspace configuration (doctor.yaml).
type Config struct {
	// Platform is the default platform when --platform is not given.
	Platform string `yaml:"platform"`

	// Timeouts for device lifecycle operations.
	BootTimeoutSec     int `yaml:"bootTimeoutSec"`
	ShutdownTimeoutSec int `yaml:"shutdownTimeoutSec"`
	PollIntervalMs     int `yaml:"pollIntervalMs"`
	CommandTimeoutSec  int `yaml:"commandTimeoutSec"`

	// CertFile is the default certificate for install-cert / check-cert.
	CertFile string `yaml:"certFile"`

	// LogFile overrides the default log file location.
	LogFile string `yaml:"logFile"`
}

// BootTimeout returns the configured boot timeout or the default.
func (c *Config) BootTimeout() time.Duration {
	if c.BootTimeoutSec > 0 {
		return time.Duration(c.BootTimeoutSec) * time.Second
	}
	return DefaultBootTimeout
}

// ShutdownTimeout returns the configured shutdown timeout or the default.
func (c *Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSec > 0 {
		return time.Duration(c.ShutdownTimeoutSec) * time.Second
	}
	return DefaultShutdownTimeout
}

// PollInterval returns the configured readiness poll interval or the default.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMs > 0 {
		return time.Duration(c.PollIntervalMs) * time.Millisecond
	}
	return DefaultPollInterval
}

// CommandTimeout returns the configured per-command timeout or the default.
func (c *Config) CommandTimeout() time.Duration {
	if c.CommandTimeoutSec > 0 {
		return time.Duration(c.CommandTimeoutSec) * time.Second
	}
	return DefaultCommandTimeout
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromDir looks for doctor.yaml or doctor.yml in the directory.
// A missing config file yields an empty (all-defaults) config.
func LoadFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, "doctor.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	configPath = filepath.Join(dir, "doctor.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	return &Config{}, nil
}
