// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// facekiosk-launch is the double-clickable guard in front of the
// kiosk's Python launcher. It takes no arguments: it checks that the
// configured runtime works, runs launcher.py from its own directory
// with the terminal's streams, and holds the window open for a
// keypress so the output can be read. Exit code 0 means the runtime
// was present regardless of how the launcher fared; 1 means the
// runtime is missing.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/facekiosk/facekiosk/lib/config"
	"github.com/facekiosk/facekiosk/lib/launchguard"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Default()
	if path := os.Getenv("FACEKIOSK_CONFIG"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			// The guard's one job is gating on the runtime. A broken
			// config file should not stop the kiosk from starting, so
			// note it and carry on with the defaults.
			fmt.Fprintf(os.Stderr, "facekiosk-launch: ignoring %s: %v\n", path, err)
		} else {
			cfg = loaded
		}
	}

	// Resolve a relative entry against the guard's own directory so a
	// double-click works from anywhere. If the executable path cannot
	// be determined, the working directory is the best remaining guess;
	// exit 1 stays reserved for the missing-runtime verdict.
	entry := cfg.Launch.Entry
	if !filepath.IsAbs(entry) {
		if executable, err := os.Executable(); err == nil {
			entry = filepath.Join(filepath.Dir(executable), entry)
		} else {
			fmt.Fprintf(os.Stderr, "facekiosk-launch: locating own executable: %v\n", err)
		}
	}

	return launchguard.Run(context.Background(), launchguard.Config{
		RuntimeName: cfg.Launch.Runtime,
		EntryPoint:  entry,
		RuntimeURL:  cfg.Launch.RuntimeURL,
	})
}
