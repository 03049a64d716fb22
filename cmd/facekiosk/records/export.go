// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/sealed"
)

type exportParams struct {
	cli.ConfigFlag
	Recipients []string `flag:"recipient,r" desc:"age public key to encrypt to (repeatable)"`
	Out        string   `flag:"out,o" desc:"output file (default: stdout)"`
}

func exportCommand() *cli.Command {
	var params exportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Export all records as an encrypted bundle",
		Usage:   "facekiosk records export --recipient <age1...> [flags]",
		Description: `Snapshot every category's records into a single bundle, encrypted to
one or more age public keys. The bundle is ASCII text, safe to mail or
copy between machines; only the matching private key can open it.

Generate a keypair with 'facekiosk records keygen'.`,
		Examples: []cli.Example{
			{
				Description: "Export to a file for the admin workstation",
				Command:     "facekiosk records export --recipient age1x... --out records.bundle",
			},
			{
				Description: "Encrypt to two recipients",
				Command:     "facekiosk records export -r age1x... -r age1y... -o records.bundle",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if len(params.Recipients) == 0 {
				return cli.Validation("at least one --recipient is required").
					WithHint("Generate a keypair with 'facekiosk records keygen' and pass its age1... public key.")
			}
			for _, recipient := range params.Recipients {
				if err := sealed.ParsePublicKey(recipient); err != nil {
					return cli.Validation("recipient %q: %v", recipient, err)
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

			ciphertext, err := store.ExportBundle(params.Recipients)
			if err != nil {
				return cli.Internal("exporting records: %v", err)
			}

			if params.Out == "" || params.Out == "-" {
				fmt.Println(ciphertext)
				return nil
			}
			if err := os.WriteFile(params.Out, []byte(ciphertext+"\n"), 0o644); err != nil {
				return cli.Internal("writing bundle: %v", err)
			}
			logger.Info("records exported",
				"out", params.Out,
				"recipients", len(params.Recipients))
			return nil
		},
	}
}
