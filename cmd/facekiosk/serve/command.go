// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package serve implements the "facekiosk serve" command: the kiosk
// web server that the launch guard ultimately starts.
package serve

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/webapp"
)

type serveParams struct {
	cli.ConfigFlag
	Port      int    `flag:"port,p" desc:"listen port (overrides config)"`
	WebRoot   string `flag:"web-root" desc:"web root directory (overrides config)"`
	NoBrowser bool   `flag:"no-browser" desc:"do not open the kiosk page in a browser"`
}

// Command returns the "serve" command.
func Command() *cli.Command {
	var params serveParams

	return &cli.Command{
		Name:    "serve",
		Summary: "Run the kiosk web server",
		Description: `Serve the kiosk web application: static assets plus the record save
endpoints the kiosk page POSTs to. Uses HTTPS when the configured
certificate and key exist (run 'facekiosk cert' to create them), and
falls back to plain HTTP otherwise.

When the configured port is taken, the next ports in the configured
probe span are tried so a lingering old instance does not block a
fresh launch. The server runs until interrupted.`,
		Usage: "facekiosk serve [flags]",
		Examples: []cli.Example{
			{
				Description: "Serve with the built-in defaults (current directory as kiosk root)",
				Command:     "facekiosk serve",
			},
			{
				Description: "Serve a specific deployment on a fixed port",
				Command:     "facekiosk serve --config /opt/kiosk/facekiosk.yaml --port 8443",
			},
			{
				Description: "Headless operation (no browser launch)",
				Command:     "facekiosk serve --no-browser",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("serve", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runServe(ctx, params, logger)
		},
	}
}

func runServe(ctx context.Context, params serveParams, logger *slog.Logger) error {
	cfg, err := params.Load()
	if err != nil {
		return err
	}

	if params.Port != 0 {
		cfg.Server.Port = params.Port
	}
	if params.WebRoot != "" {
		cfg.Paths.Web = params.WebRoot
	}
	if params.NoBrowser {
		cfg.Server.OpenBrowser = false
	}

	store, err := cli.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	server, err := webapp.New(webapp.Config{
		WebRoot:      cfg.Paths.Web,
		Store:        store,
		Port:         cfg.Server.Port,
		Bind:         cfg.Server.Bind,
		ProbeSpan:    cfg.Server.ProbeSpan,
		CertFile:     cfg.Paths.Certificate,
		KeyFile:      cfg.Paths.Key,
		OpenBrowser:  cfg.Server.OpenBrowser,
		BrowserDelay: cfg.BrowserDelayDuration(),
		Logger:       logger,
	})
	if err != nil {
		return cli.Validation("cannot serve from %s: %v", cfg.Paths.Web, err).
			WithHint("Run 'facekiosk doctor' to check the deployment end-to-end.")
	}

	return server.Serve(ctx)
}
