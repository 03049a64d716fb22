// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package launchguard gates the kiosk launcher on the presence of its
// Python runtime. The guard is what a double-click runs: it checks
// that the runtime works, hands the terminal to the entry-point
// script, and keeps the window open afterwards so the user can read
// the output before it disappears.
//
// The guard deliberately does not care how the entry point fares.
// Its own exit code reflects only the one check it performs: 0 when
// the runtime was found (whatever the entry point then did), 1 when
// the runtime is missing.
package launchguard

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/facekiosk/facekiosk/lib/process"
)

// Default contract values. The guard takes no arguments; these change
// only through the optional config file.
const (
	DefaultRuntime    = "python3"
	DefaultEntryPoint = "launcher.py"
	DefaultRuntimeURL = "https://www.python.org/downloads/"
)

// RuntimeLocator resolves a runtime name to an invocable executable.
type RuntimeLocator interface {
	// Resolve returns the path of a working runtime. The error means
	// the runtime is absent from PATH or failed its version probe;
	// the distinction only matters for the message.
	Resolve(ctx context.Context, name string) (string, error)
}

// EntryRunner invokes the entry point with the resolved runtime.
type EntryRunner interface {
	Run(ctx context.Context, runtimePath, entryPath string) error
}

// UserAcknowledgment blocks until the user confirms they have seen
// the terminal output.
type UserAcknowledgment interface {
	AwaitAck() error
}

// Config wires a guard run. Zero values fall back to the production
// implementations and the default contract values.
type Config struct {
	// RuntimeName is the interpreter looked up on PATH.
	RuntimeName string

	// EntryPoint is the path of the script handed to the runtime.
	EntryPoint string

	// RuntimeURL is printed when the runtime is missing.
	RuntimeURL string

	Locator RuntimeLocator
	Runner  EntryRunner
	Ack     UserAcknowledgment

	// Stdout receives the status and diagnostic lines. Defaults to
	// os.Stdout.
	Stdout io.Writer
}

// Run executes the guard sequence: check the runtime, run the entry
// point if the check passed, pause for a keypress, and return the
// process exit code. The entry point is never invoked when the check
// fails, and its own exit status never changes the return value.
func Run(ctx context.Context, config Config) int {
	if config.RuntimeName == "" {
		config.RuntimeName = DefaultRuntime
	}
	if config.EntryPoint == "" {
		config.EntryPoint = DefaultEntryPoint
	}
	if config.RuntimeURL == "" {
		config.RuntimeURL = DefaultRuntimeURL
	}
	if config.Locator == nil {
		config.Locator = PathLocator()
	}
	if config.Runner == nil {
		config.Runner = ExecRunner()
	}
	if config.Ack == nil {
		config.Ack = TerminalAck(os.Stdin)
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	entryName := filepath.Base(config.EntryPoint)

	fmt.Fprintln(config.Stdout, "Face Recognition App")
	fmt.Fprintf(config.Stdout, "Checking for %s...\n", config.RuntimeName)

	runtimePath, err := config.Locator.Resolve(ctx, config.RuntimeName)
	if err != nil {
		fmt.Fprintf(config.Stdout, "%s was not found on this system.\n", config.RuntimeName)
		fmt.Fprintf(config.Stdout, "Install it from %s and run this again.\n", config.RuntimeURL)
		pause(config)
		return 1
	}

	fmt.Fprintf(config.Stdout, "Starting %s...\n", entryName)
	if err := config.Runner.Run(ctx, runtimePath, config.EntryPoint); err != nil {
		// Whatever went wrong belongs to the entry point, not the
		// guard. Say what happened for the person at the terminal
		// and leave the exit code alone.
		if status, ran := process.ExitStatus(err); ran {
			fmt.Fprintf(config.Stdout, "%s exited with status %d.\n", entryName, status)
		} else {
			fmt.Fprintf(config.Stdout, "Could not start %s: %v\n", entryName, err)
		}
	}

	pause(config)
	return 0
}

// pause prompts and blocks for the acknowledgment. An acknowledgment
// failure (no terminal, closed stdin) must not wedge or re-grade the
// run, so the error is deliberately dropped.
func pause(config Config) {
	fmt.Fprintln(config.Stdout, "Press any key to close this window.")
	_ = config.Ack.AwaitAck()
}
