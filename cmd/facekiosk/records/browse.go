// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/recordui"
)

type browseParams struct {
	cli.ConfigFlag
}

func browseCommand() *cli.Command {
	var params browseParams

	return &cli.Command{
		Name:    "browse",
		Summary: "Browse records interactively in the terminal",
		Usage:   "facekiosk records browse [flags]",
		Description: `Open a full-screen terminal browser over the saved records: category
tabs with live counts, a fuzzy filter, and a detail pane with the
selected record's JSON. The view reloads automatically when the kiosk
server saves new records.

Keys: j/k move, h/l switch category, / filter, Tab focus the detail
pane, ? help, q quit.`,
		Examples: []cli.Example{
			{
				Description: "Browse the default kiosk directory",
				Command:     "facekiosk records browse",
			},
			{
				Description: "Browse a specific deployment",
				Command:     "facekiosk records browse --config /opt/kiosk/facekiosk.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("browse", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			cfg, err := params.Load()
			if err != nil {
				return err
			}
			store, err := cli.OpenStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			source := recordui.NewStoreSource(store)
			if err := source.StartWatch(); err != nil {
				// The browser still works without live reload; the r
				// key reloads manually.
				logger.Warn("live reload unavailable", "error", err)
			}
			defer source.Close()

			model := recordui.NewModel(source)
			program := tea.NewProgram(model, tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}
