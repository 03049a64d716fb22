// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/recordstore"
)

type logParams struct {
	cli.JSONOutput
	cli.ConfigFlag
	Category string `flag:"category" desc:"only show entries for this category"`
	Limit    int    `flag:"limit,n" desc:"show only the most recent N entries" default:"20"`
}

func logCommand() *cli.Command {
	var params logParams

	return &cli.Command{
		Name:    "log",
		Summary: "Show the record write journal",
		Usage:   "facekiosk records log [flags]",
		Description: `Print the append-only journal of record writes, oldest first. Every
save appends one entry, so the journal answers "when did the kiosk
last write attendance" without opening the record files themselves.`,
		Examples: []cli.Example{
			{
				Description: "Show the last 20 writes",
				Command:     "facekiosk records log",
			},
			{
				Description: "Show every attendance write",
				Command:     "facekiosk records log --category attendance --limit 0",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("log", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("log takes no positional arguments")
			}
			if params.Category != "" {
				if _, err := recordstore.ParseCategory(params.Category); err != nil {
					return cli.Validation("%v", err).WithHint(categoryHint())
				}
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

			// A missing journal is an empty one (nothing saved yet). A
			// corrupt tail still yields the entries before the damage;
			// show those and warn rather than hiding the whole history.
			entries, err := recordstore.ReadJournal(store.JournalPath())
			if err != nil && !os.IsNotExist(err) {
				if len(entries) == 0 {
					return cli.Internal("reading journal: %v", err)
				}
				logger.Warn("journal is damaged past the last readable entry", "error", err)
			}
			if params.Category != "" {
				filtered := entries[:0]
				for _, entry := range entries {
					if entry.Category == params.Category {
						filtered = append(filtered, entry)
					}
				}
				entries = filtered
			}
			if params.Limit > 0 && len(entries) > params.Limit {
				entries = entries[len(entries)-params.Limit:]
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No journal entries.")
				return nil
			}
			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "TIME\tCATEGORY\tRECORDS\tSOURCE")
			for _, entry := range entries {
				source := entry.Source
				if source == "" {
					source = "-"
				}
				fmt.Fprintf(writer, "%s\t%s\t%d\t%s\n",
					entry.Time.Format("2006-01-02 15:04:05"),
					entry.Category,
					entry.Count,
					source,
				)
			}
			return writer.Flush()
		},
	}
}
