// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/cmd/facekiosk/commands"
	"github.com/facekiosk/facekiosk/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like doctor) return an
		// ExitError with the desired exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.Root().Execute(ctx, os.Args[1:], cli.NewCommandLogger())
}
