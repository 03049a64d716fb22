// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/recordstore"
)

type backupParams struct {
	cli.JSONOutput
	cli.ConfigFlag
	Category string `flag:"category" desc:"limit the listing to one category"`
}

func backupCommand() *cli.Command {
	var params backupParams

	return &cli.Command{
		Name:    "backup",
		Summary: "List backups, or print one backup's records",
		Usage:   "facekiosk records backup [backup-name] [flags]",
		Description: `Without arguments, list the timestamped backups on disk, newest
first. With a backup name (or path), decode that backup and print its
JSON payload, reversing compression and, when the backup key is
configured, sealing.`,
		Examples: []cli.Example{
			{
				Description: "List every backup",
				Command:     "facekiosk records backup",
			},
			{
				Description: "List only punch-in backups",
				Command:     "facekiosk records backup --category punch-in",
			},
			{
				Description: "Print a backup's contents",
				Command:     "facekiosk records backup backup_20260211_090012.json.zst",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("backup", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("expected at most one backup name, got %d arguments", len(args))
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

			if len(args) == 1 {
				return printBackup(store, args[0])
			}
			return listBackups(store, params)
		},
	}
}

// listBackups prints the backup table, optionally limited to one
// category.
func listBackups(store *recordstore.Store, params backupParams) error {
	categories := recordstore.Categories()
	if params.Category != "" {
		category, err := recordstore.ParseCategory(params.Category)
		if err != nil {
			return cli.Validation("%v", err).WithHint(categoryHint())
		}
		categories = []recordstore.Category{category}
	}

	var backups []recordstore.BackupInfo
	for _, category := range categories {
		categoryBackups, err := store.ListBackups(category)
		if err != nil {
			return cli.Internal("listing %s backups: %v", category, err)
		}
		backups = append(backups, categoryBackups...)
	}

	if done, err := params.EmitJSON(backups); done {
		return err
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "CATEGORY\tNAME\tSIZE\tCODEC\tSEALED\tMODIFIED\n")
	for _, backup := range backups {
		sealed := "no"
		if backup.Sealed {
			sealed = "yes"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			backup.Category,
			backup.Name,
			formatSize(backup.Size),
			backup.Compression,
			sealed,
			backup.ModTime.Format("2006-01-02 15:04:05"),
		)
	}
	return writer.Flush()
}

// printBackup decodes one backup and prints its JSON payload. Bare
// names are resolved against the store's backups directory.
func printBackup(store *recordstore.Store, name string) error {
	path := name
	if !strings.ContainsRune(name, os.PathSeparator) {
		path = filepath.Join(store.BackupsDir(), name)
	}

	payload, err := store.OpenBackup(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cli.NotFound("backup %s does not exist", path).
				WithHint("Run 'facekiosk records backup' to list the backups on disk.")
		}
		return cli.Internal("opening backup: %v", err)
	}

	fmt.Println(string(payload))
	return nil
}
