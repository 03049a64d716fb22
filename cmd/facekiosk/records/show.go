// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/recordui"
)

type showParams struct {
	cli.ConfigFlag
	Plain bool `flag:"plain" desc:"disable syntax highlighting"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Print a category's records as JSON",
		Usage:   "facekiosk records show <category> [flags]",
		Description: `Print the records of one category as a pretty-printed JSON array.
Output is syntax-highlighted when stdout is a terminal and plain JSON
when piped, so the command works both for eyeballing and for feeding
jq.`,
		Examples: []cli.Example{
			{
				Description: "Highlighted in the terminal",
				Command:     "facekiosk records show attendance",
			},
			{
				Description: "Pipe punch-ins into jq",
				Command:     "facekiosk records show punch-in | jq '.[].name'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			category, err := categoryArg(args)
			if err != nil {
				return err
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

			records, err := store.Load(category)
			if err != nil {
				return cli.Internal("loading %s records: %v", category, err)
			}
			if records == nil {
				records = []json.RawMessage{}
			}

			raw, err := json.Marshal(records)
			if err != nil {
				return cli.Internal("encoding %s records: %v", category, err)
			}

			if !params.Plain && term.IsTerminal(int(os.Stdout.Fd())) {
				highlighted, err := recordui.HighlightJSON(raw)
				if err != nil {
					return cli.Internal("rendering %s records: %v", category, err)
				}
				fmt.Println(highlighted)
				return nil
			}

			var pretty []byte
			pretty, err = json.MarshalIndent(records, "", "  ")
			if err != nil {
				return cli.Internal("encoding %s records: %v", category, err)
			}
			fmt.Println(string(pretty))
			return nil
		},
	}
}
