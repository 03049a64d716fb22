// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package records implements the "facekiosk records" CLI subcommands
// for inspecting and managing saved attendance records: listing
// category status, showing and browsing record contents, reading
// backups and the save journal, and moving records between machines
// as age-encrypted bundles.
package records

import (
	"fmt"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/recordstore"
)

// Command returns the top-level "records" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "records",
		Summary: "Inspect and manage saved attendance records",
		Description: `Work with the records the kiosk has saved.

Records live in four categories (attendance, punch-in, punch-out,
currently-online), each stored as a JSON array with rotated backups.
These commands list and display them, browse them interactively,
decode backups, read the save journal, and export or import encrypted
record bundles.`,
		Subcommands: []*cli.Command{
			listCommand(),
			showCommand(),
			browseCommand(),
			backupCommand(),
			exportCommand(),
			importCommand(),
			keygenCommand(),
			logCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Show every category's record and backup counts",
				Command:     "facekiosk records list",
			},
			{
				Description: "Print today's attendance records",
				Command:     "facekiosk records show attendance",
			},
			{
				Description: "Browse records interactively",
				Command:     "facekiosk records browse",
			},
			{
				Description: "Export all records encrypted to an admin key",
				Command:     "facekiosk records export --recipient age1... --out records.bundle",
			},
		},
	}
}

// categoryArg parses the single positional category argument shared by
// several subcommands, with a hint listing the valid names.
func categoryArg(args []string) (recordstore.Category, error) {
	if len(args) != 1 {
		return "", cli.Validation("expected exactly one category argument, got %d", len(args)).
			WithHint(categoryHint())
	}
	category, err := recordstore.ParseCategory(args[0])
	if err != nil {
		return "", cli.Validation("%v", err).WithHint(categoryHint())
	}
	return category, nil
}

func categoryHint() string {
	names := ""
	for i, category := range recordstore.Categories() {
		if i > 0 {
			names += ", "
		}
		names += string(category)
	}
	return fmt.Sprintf("Categories: %s.", names)
}

// formatSize renders a byte count for table output.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
