// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the facekiosk binary: a
// small command tree over spf13/pflag with reflection-bound parameter
// structs, help generation, typo suggestions, and categorized errors.
//
// Commands are declared as [Command] values and dispatched by
// [Command.Execute], which walks subcommands by name, parses flags,
// and invokes the leaf's Run function with a context and logger.
// Parameter structs bind their fields to flags through struct tags
// (see [BindFlags]) and gain --json output support by embedding
// [JSONOutput].
package cli
