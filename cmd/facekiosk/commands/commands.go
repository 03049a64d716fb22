// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete facekiosk CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	certcmd "github.com/facekiosk/facekiosk/cmd/facekiosk/cert"
	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	doctorcmd "github.com/facekiosk/facekiosk/cmd/facekiosk/doctor"
	modelscmd "github.com/facekiosk/facekiosk/cmd/facekiosk/models"
	recordscmd "github.com/facekiosk/facekiosk/cmd/facekiosk/records"
	servecmd "github.com/facekiosk/facekiosk/cmd/facekiosk/serve"
	"github.com/facekiosk/facekiosk/lib/version"
)

// Root builds and returns the complete facekiosk CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "facekiosk",
		Description: `facekiosk: face-recognition attendance kiosk.

Serve the kiosk web application, manage saved attendance records and
their encrypted backups, fetch and verify face-api model weights, and
diagnose a kiosk deployment.`,
		Subcommands: []*cli.Command{
			servecmd.Command(),
			recordscmd.Command(),
			modelscmd.Command(),
			certcmd.Command(),
			doctorcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("facekiosk %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Diagnose the kiosk deployment (start here when lost)",
				Command:     "facekiosk doctor",
			},
			{
				Description: "Start the kiosk server",
				Command:     "facekiosk serve",
			},
			{
				Description: "Browse saved attendance records in the terminal",
				Command:     "facekiosk records browse",
			},
			{
				Description: "Fetch the face-api model weights",
				Command:     "facekiosk models fetch",
			},
			{
				Description: "Generate a localhost TLS certificate for camera access",
				Command:     "facekiosk cert",
			},
		},
	}
}
