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
)

type listParams struct {
	cli.JSONOutput
	cli.ConfigFlag
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List record categories with counts and backups",
		Usage:   "facekiosk records list [flags]",
		Description: `Show each record category's current state: whether its file exists,
how many records it holds, its size, when it was last written, and how
many backups are on disk. Corrupt category files are flagged rather
than failing the listing.`,
		Examples: []cli.Example{
			{
				Description: "Human-readable table",
				Command:     "facekiosk records list",
			},
			{
				Description: "Machine-readable output",
				Command:     "facekiosk records list --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
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

			statuses := store.Status()

			if done, err := params.EmitJSON(statuses); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "CATEGORY\tRECORDS\tSIZE\tMODIFIED\tBACKUPS\n")
			for _, status := range statuses {
				count := "-"
				size := "-"
				modified := "-"
				if status.Exists {
					if status.Count < 0 {
						count = "corrupt"
					} else {
						count = fmt.Sprintf("%d", status.Count)
					}
					size = formatSize(status.Size)
					modified = status.ModTime.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\n",
					status.Category, count, size, modified, status.Backups)
			}
			return writer.Flush()
		},
	}
}
