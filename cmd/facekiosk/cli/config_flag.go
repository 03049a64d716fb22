// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/lib/config"
)

// ConfigFlag manages the --config flag shared by every command that
// reads the kiosk configuration. Implements [FlagBinder] so it
// integrates with the params struct system while handling the dynamic
// default from the FACEKIOSK_CONFIG environment variable.
//
// Exported so that embedded struct fields are visible to reflection in
// [FlagsFromParams]: unexported embedded types cause field.IsExported()
// to return false, silently skipping FlagBinder detection.
type ConfigFlag struct {
	Path string
}

// AddFlags registers the --config flag with its default taken from
// FACEKIOSK_CONFIG when set.
func (c *ConfigFlag) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.Path, "config", os.Getenv("FACEKIOSK_CONFIG"),
		"path to the kiosk config file (default: built-in defaults)")
}

// Load resolves the configuration: the file named by --config (or
// FACEKIOSK_CONFIG) when present, built-in defaults otherwise. The
// returned config is validated.
func (c *ConfigFlag) Load() (*config.Config, error) {
	if c.Path == "" {
		configuration := config.Default()
		configuration.Finalize()
		return configuration, nil
	}
	configuration, err := config.LoadFile(c.Path)
	if err != nil {
		return nil, NotFound("loading config: %v", err).
			WithHint("Pass --config <path> or set FACEKIOSK_CONFIG to a readable config file.")
	}
	if err := configuration.Validate(); err != nil {
		return nil, Validation("config %s: %v", c.Path, err)
	}
	return configuration, nil
}
