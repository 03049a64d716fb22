// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/recordstore"
	"github.com/facekiosk/facekiosk/lib/secret"
)

type importParams struct {
	cli.ConfigFlag
	IdentityFile string `flag:"identity-file,i" desc:"file holding the AGE-SECRET-KEY-1... identity ('-' for stdin)"`
}

func importCommand() *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Import records from an encrypted bundle",
		Usage:   "facekiosk records import <bundle-file> --identity-file <key-file> [flags]",
		Description: `Decrypt a bundle produced by 'facekiosk records export' and restore
its categories through the normal save path, so the import produces
backups and journal entries like any other write. Existing category
files are replaced by the bundle's contents.`,
		Examples: []cli.Example{
			{
				Description: "Restore records on a fresh kiosk",
				Command:     "facekiosk records import records.bundle --identity-file kiosk.key",
			},
			{
				Description: "Read the identity from stdin",
				Command:     "facekiosk records import records.bundle -i -",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("import", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one bundle file argument, got %d", len(args))
			}
			if params.IdentityFile == "" {
				return cli.Validation("--identity-file is required").
					WithHint("Pass the private key file written by 'facekiosk records keygen'.")
			}

			ciphertext, err := os.ReadFile(args[0])
			if err != nil {
				return cli.NotFound("reading bundle: %v", err)
			}

			identity, err := secret.ReadFromPath(params.IdentityFile)
			if err != nil {
				return cli.NotFound("reading identity: %v", err)
			}
			defer identity.Close()

			bundle, err := recordstore.ImportBundle(strings.TrimSpace(string(ciphertext)), identity)
			if err != nil {
				return cli.Validation("opening bundle: %v", err).
					WithHint("The bundle may be corrupt, or the identity may not match the key it was exported to.")
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

			results, err := store.RestoreBundle(bundle, "import")
			if err != nil {
				return cli.Internal("restoring bundle: %v", err)
			}

			total := 0
			for _, result := range results {
				fmt.Printf("%-18s %d record(s)\n", result.Category, result.Count)
				total += result.Count
			}
			fmt.Printf("Imported %d record(s) from a bundle exported %s.\n",
				total, bundle.Exported.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
