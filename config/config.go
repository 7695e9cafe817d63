// Package config loads the bridge configuration from a YAML file and turns
// it into ready-to-use credential and storage settings.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sokoerp/etims-bridge/interfaces"
	"github.com/sokoerp/etims-bridge/keystore"
)

// Config represents the application configuration.
type Config struct {
	Device struct {
		Mode     string `yaml:"mode"`
		TIN      string `yaml:"tin"`
		BranchID string `yaml:"branch_id"`

		// KeySource is a key location URI (a literal key, env://VAR,
		// file:///path or vault://addr/mount/path#field).
		KeySource string `yaml:"key_source"`

		// BaseURLs optionally overrides the device base URL per mode.
		BaseURLs map[string]string `yaml:"base_urls"`

		Timeout string `yaml:"timeout"`
	} `yaml:"device"`

	Audit struct {
		Backends []string `yaml:"backends"`
	} `yaml:"audit"`

	Log struct {
		JSON  bool `yaml:"json"`
		Debug bool `yaml:"debug"`
	} `yaml:"log"`
}

// ParsedConfig carries the raw configuration plus parsed values.
type ParsedConfig struct {
	Config
	Mode     interfaces.Mode
	Timeout  time.Duration
	BaseURLs map[interfaces.Mode]string
}

// Load reads and validates a YAML configuration file.
func Load(filepath string) (*ParsedConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mode, err := interfaces.ParseMode(cfg.Device.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid device mode: %w", err)
	}

	var timeout time.Duration
	if cfg.Device.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Device.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid device timeout: %w", err)
		}
	}

	baseURLs := make(map[interfaces.Mode]string, len(cfg.Device.BaseURLs))
	for modeName, baseURL := range cfg.Device.BaseURLs {
		urlMode, err := interfaces.ParseMode(modeName)
		if err != nil {
			return nil, fmt.Errorf("invalid mode in base_urls: %w", err)
		}
		baseURLs[urlMode] = baseURL
	}

	parsed := &ParsedConfig{
		Config:   cfg,
		Mode:     mode,
		Timeout:  timeout,
		BaseURLs: baseURLs,
	}
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return parsed, nil
}

func (c *ParsedConfig) validate() error {
	if c.Device.TIN == "" {
		return fmt.Errorf("device tin is required")
	}
	if c.Device.BranchID == "" {
		return fmt.Errorf("device branch_id is required")
	}
	if c.Mode != interfaces.ModeSimulation && c.Device.KeySource == "" {
		return fmt.Errorf("device key_source is required outside simulation mode")
	}
	return nil
}

// Credentials resolves the signing key and builds the device credentials.
func (c *ParsedConfig) Credentials(ctx context.Context) (interfaces.Credentials, error) {
	creds := interfaces.Credentials{
		TIN:      c.Device.TIN,
		BranchID: c.Device.BranchID,
		Mode:     c.Mode,
	}

	if c.Device.KeySource != "" {
		source, err := keystore.FromURI(c.Device.KeySource)
		if err != nil {
			return interfaces.Credentials{}, err
		}
		key, err := source.SigningKey(ctx)
		if err != nil {
			return interfaces.Credentials{}, err
		}
		creds.Key = key
	}

	return creds, creds.Validate()
}

// AuditLocations returns the audit backend locations as typed URIs.
func (c *ParsedConfig) AuditLocations() []interfaces.AuditBackendLocation {
	locations := make([]interfaces.AuditBackendLocation, len(c.Audit.Backends))
	for i, backend := range c.Audit.Backends {
		locations[i] = interfaces.AuditBackendLocation(backend)
	}
	return locations
}
