// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for workstations and kiosk bring-up.
	Development Environment = "development"
	// Production is for deployed kiosk terminals.
	Production Environment = "production"
)

// Config is the master configuration for Facekiosk.
type Config struct {
	// Environment identifies the deployment type (development, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory and file locations.
	Paths PathsConfig `yaml:"paths"`

	// Server configures the kiosk HTTP server.
	Server ServerConfig `yaml:"server"`

	// Backup configures record backup rotation.
	Backup BackupConfig `yaml:"backup"`

	// Models configures face-api model weight fetching.
	Models ModelsConfig `yaml:"models"`

	// Launch configures the launch guard.
	Launch LaunchConfig `yaml:"launch"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Server *ServerConfig `yaml:"server,omitempty"`
	Backup *BackupConfig `yaml:"backup,omitempty"`
	Models *ModelsConfig `yaml:"models,omitempty"`
	Launch *LaunchConfig `yaml:"launch,omitempty"`
}

// PathsConfig configures directory and file locations.
type PathsConfig struct {
	// Root is the kiosk application directory. All other paths default
	// to locations under it via ${FACEKIOSK_ROOT} expansion.
	Root string `yaml:"root"`

	// Web is the static web root served to the kiosk browser.
	// Contains: index.html, face-api.min.js, models/, Faces/.
	Web string `yaml:"web"`

	// Records is where attendance record files are written.
	Records string `yaml:"records"`

	// Backups is where timestamped record backups are rotated.
	Backups string `yaml:"backups"`

	// Models is where fetched model weights are stored.
	Models string `yaml:"models"`

	// Certificate and Key are the TLS certificate and private key for
	// serving over HTTPS. The server falls back to plain HTTP when
	// either file is missing.
	Certificate string `yaml:"certificate"`
	Key         string `yaml:"key"`
}

// ServerConfig configures the kiosk HTTP server.
type ServerConfig struct {
	// Port is the preferred listen port.
	// Default: 8000
	Port int `yaml:"port"`

	// Bind is the listen host.
	// Default: localhost
	Bind string `yaml:"bind"`

	// OpenBrowser opens the kiosk page in the default browser once the
	// server is ready.
	// Default: true (development), false (production)
	OpenBrowser bool `yaml:"open_browser"`

	// BrowserDelay is how long to wait after the server is ready before
	// opening the browser, as a Go duration string.
	// Default: 2s
	BrowserDelay string `yaml:"browser_delay"`

	// ProbeSpan is how many consecutive ports to try beyond Port when
	// Port is already in use.
	// Default: 10
	ProbeSpan int `yaml:"probe_span"`
}

// BackupConfig configures record backup rotation.
type BackupConfig struct {
	// Keep is how many timestamped backups to retain per category.
	// Default: 2
	Keep int `yaml:"keep"`

	// Compression selects the backup compression codec.
	// Values: "none", "lz4", "zstd", "auto"
	// Default: auto (probes each payload and picks a codec)
	Compression string `yaml:"compression"`

	// Encrypt seals backups with the key in KeyFile. Record files
	// contain face descriptors, so deployments that must protect them
	// at rest enable this.
	// Default: false (development), true (production)
	Encrypt bool `yaml:"encrypt"`

	// KeyFile is the path to the 32-byte master key used when Encrypt
	// is set. Required when Encrypt is true.
	KeyFile string `yaml:"key_file"`
}

// ModelsConfig configures face-api model weight fetching.
type ModelsConfig struct {
	// BaseURL is the upstream weights location.
	BaseURL string `yaml:"base_url"`

	// Manifest is the path to the model manifest (JSONC).
	Manifest string `yaml:"manifest"`
}

// LaunchConfig configures the launch guard.
type LaunchConfig struct {
	// Runtime is the interpreter the guard checks for before starting
	// the kiosk.
	// Default: python3
	Runtime string `yaml:"runtime"`

	// Entry is the entry point script the guard runs with the verified
	// runtime, resolved relative to the guard executable's directory.
	// Default: launcher.py
	Entry string `yaml:"entry"`

	// RuntimeURL is where the guard points users who are missing the
	// runtime.
	RuntimeURL string `yaml:"runtime_url"`
}

// Default returns the default configuration.
// These defaults describe a self-contained kiosk directory: every
// command works with no config file at all, operating on the current
// directory as the application root.
func Default() *Config {
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:        ".",
			Web:         "${FACEKIOSK_ROOT}",
			Records:     "${FACEKIOSK_ROOT}/Record",
			Backups:     "${FACEKIOSK_ROOT}/Record/BackUP",
			Models:      "${FACEKIOSK_ROOT}/models",
			Certificate: "${FACEKIOSK_ROOT}/localhost.pem",
			Key:         "${FACEKIOSK_ROOT}/localhost.key",
		},
		Server: ServerConfig{
			Port:         8000,
			Bind:         "localhost",
			OpenBrowser:  true,
			BrowserDelay: "2s",
			ProbeSpan:    10,
		},
		Backup: BackupConfig{
			Keep:        2,
			Compression: "auto",
			Encrypt:     false,
			KeyFile:     "",
		},
		Models: ModelsConfig{
			BaseURL:  "https://github.com/justadudewhohacks/face-api.js/raw/master/weights",
			Manifest: "${FACEKIOSK_ROOT}/models.jsonc",
		},
		Launch: LaunchConfig{
			Runtime:    "python3",
			Entry:      "launcher.py",
			RuntimeURL: "https://www.python.org/downloads/",
		},
	}
}

// Load loads configuration from the FACEKIOSK_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// If FACEKIOSK_CONFIG is not set, callers should fall back to Default()
// explicitly rather than relying on hidden file discovery.
func Load() (*Config, error) {
	configPath := os.Getenv("FACEKIOSK_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("FACEKIOSK_CONFIG environment variable not set; " +
			"set it to the path of your facekiosk.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do
// not override config values - this ensures deterministic, auditable
// configuration. The only expansion performed is ${HOME} and similar path
// variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// Finalize applies overrides and expansion to a config that was not
// loaded from a file (Default plus programmatic changes). LoadFile does
// this automatically.
func (c *Config) Finalize() {
	c.applyEnvironmentOverrides()
	c.expandVariables()
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		// Production defaults: no auto-opened browser on a deployed
		// terminal, and backups sealed at rest.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Server: &ServerConfig{
					OpenBrowser: false,
				},
				Backup: &BackupConfig{
					Encrypt: true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Web != "" {
			c.Paths.Web = overrides.Paths.Web
		}
		if overrides.Paths.Records != "" {
			c.Paths.Records = overrides.Paths.Records
		}
		if overrides.Paths.Backups != "" {
			c.Paths.Backups = overrides.Paths.Backups
		}
		if overrides.Paths.Models != "" {
			c.Paths.Models = overrides.Paths.Models
		}
		if overrides.Paths.Certificate != "" {
			c.Paths.Certificate = overrides.Paths.Certificate
		}
		if overrides.Paths.Key != "" {
			c.Paths.Key = overrides.Paths.Key
		}
	}

	if overrides.Server != nil {
		if overrides.Server.Port != 0 {
			c.Server.Port = overrides.Server.Port
		}
		if overrides.Server.Bind != "" {
			c.Server.Bind = overrides.Server.Bind
		}
		// OpenBrowser is a bool, so we always apply it from overrides.
		c.Server.OpenBrowser = overrides.Server.OpenBrowser
		if overrides.Server.BrowserDelay != "" {
			c.Server.BrowserDelay = overrides.Server.BrowserDelay
		}
		if overrides.Server.ProbeSpan != 0 {
			c.Server.ProbeSpan = overrides.Server.ProbeSpan
		}
	}

	if overrides.Backup != nil {
		if overrides.Backup.Keep != 0 {
			c.Backup.Keep = overrides.Backup.Keep
		}
		if overrides.Backup.Compression != "" {
			c.Backup.Compression = overrides.Backup.Compression
		}
		// Encrypt is a bool, so we always apply it from overrides.
		c.Backup.Encrypt = overrides.Backup.Encrypt
		if overrides.Backup.KeyFile != "" {
			c.Backup.KeyFile = overrides.Backup.KeyFile
		}
	}

	if overrides.Models != nil {
		if overrides.Models.BaseURL != "" {
			c.Models.BaseURL = overrides.Models.BaseURL
		}
		if overrides.Models.Manifest != "" {
			c.Models.Manifest = overrides.Models.Manifest
		}
	}

	if overrides.Launch != nil {
		if overrides.Launch.Runtime != "" {
			c.Launch.Runtime = overrides.Launch.Runtime
		}
		if overrides.Launch.Entry != "" {
			c.Launch.Entry = overrides.Launch.Entry
		}
		if overrides.Launch.RuntimeURL != "" {
			c.Launch.RuntimeURL = overrides.Launch.RuntimeURL
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"FACEKIOSK_ROOT": c.Paths.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["FACEKIOSK_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Web = expandVars(c.Paths.Web, vars)
	c.Paths.Records = expandVars(c.Paths.Records, vars)
	c.Paths.Backups = expandVars(c.Paths.Backups, vars)
	c.Paths.Models = expandVars(c.Paths.Models, vars)
	c.Paths.Certificate = expandVars(c.Paths.Certificate, vars)
	c.Paths.Key = expandVars(c.Paths.Key, vars)
	c.Backup.KeyFile = expandVars(c.Backup.KeyFile, vars)
	c.Models.Manifest = expandVars(c.Models.Manifest, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Server.Port < 1024 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range (must be 1024-65535)", c.Server.Port))
	}

	if c.Server.Bind == "" {
		errs = append(errs, fmt.Errorf("server.bind is required"))
	}

	if c.Server.ProbeSpan < 1 {
		errs = append(errs, fmt.Errorf("server.probe_span must be at least 1"))
	}

	if _, err := time.ParseDuration(c.Server.BrowserDelay); err != nil {
		errs = append(errs, fmt.Errorf("server.browser_delay: %w", err))
	}

	if c.Backup.Keep < 0 {
		errs = append(errs, fmt.Errorf("backup.keep must not be negative"))
	}

	compressionValues := []string{"none", "lz4", "zstd", "auto"}
	if !contains(compressionValues, c.Backup.Compression) {
		errs = append(errs, fmt.Errorf("backup.compression must be one of: %v", compressionValues))
	}

	if c.Backup.Encrypt && c.Backup.KeyFile == "" {
		errs = append(errs, fmt.Errorf("backup.key_file is required when backup.encrypt is set"))
	}

	if c.Launch.Runtime == "" {
		errs = append(errs, fmt.Errorf("launch.runtime is required"))
	}

	if c.Launch.Entry == "" {
		errs = append(errs, fmt.Errorf("launch.entry is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// BrowserDelayDuration returns Server.BrowserDelay parsed as a duration.
// Call Validate first; this returns the zero duration on parse failure.
func (c *Config) BrowserDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.BrowserDelay)
	if err != nil {
		return 0
	}
	return d
}

// HasTLS returns true if both the certificate and key files exist.
func (c *Config) HasTLS() bool {
	if _, err := os.Stat(c.Paths.Certificate); err != nil {
		return false
	}
	_, err := os.Stat(c.Paths.Key)
	return err == nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Web,
		c.Paths.Records,
		c.Paths.Backups,
		c.Paths.Models,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// WebFile returns the full path of a file under the static web root.
func (c *Config) WebFile(name string) string {
	return filepath.Join(c.Paths.Web, name)
}
