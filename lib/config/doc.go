// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Facekiosk
// components.
//
// Configuration is loaded from a single file specified by either the
// FACEKIOSK_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. This ensures deterministic,
// auditable configuration with no hidden overrides. Every command also
// works with no config file at all, using [Default].
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// the browser is not opened automatically and backups are encrypted.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${FACEKIOSK_ROOT}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Server, Backup, Models, Launch
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other Facekiosk packages.
package config
