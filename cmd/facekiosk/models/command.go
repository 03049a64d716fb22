// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package models implements 'facekiosk models': fetching the face
// recognition model weights and verifying the local tree against
// its pinned digests.
package models

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/config"
	"github.com/facekiosk/facekiosk/lib/modelpack"
)

// Command returns the models command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "models",
		Summary: "Manage the face recognition model weights",
		Usage:   "facekiosk models <subcommand> [flags]",
		Description: `Download the neural network weights the kiosk pages load, and check
the local files against the digests pinned at download time. The
kiosk serves weights from disk, so a machine prepared with 'models
fetch' runs fully offline.`,
		Subcommands: []*cli.Command{
			fetchCommand(),
			verifyCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Download all model weights",
				Command:     "facekiosk models fetch",
			},
			{
				Description: "Check the local weights for tampering or bit rot",
				Command:     "facekiosk models verify",
			},
		},
	}
}

// newPack builds a Pack from the loaded configuration. The manifest
// path falls back to the built-in manifest when the configured file
// does not exist, which is the common case.
func newPack(cfg *config.Config, logger *slog.Logger, progress func(modelpack.Event)) (*modelpack.Pack, error) {
	manifest, err := modelpack.Load(cfg.Models.Manifest)
	if err != nil {
		return nil, cli.Validation("loading model manifest: %v", err)
	}
	pack, err := modelpack.New(modelpack.Options{
		BaseURL:   cfg.Models.BaseURL,
		ModelsDir: cfg.Paths.Models,
		Manifest:  manifest,
		Logger:    logger,
		Progress:  progress,
	})
	if err != nil {
		return nil, cli.Internal("opening model pack: %v", err)
	}
	return pack, nil
}

type fetchParams struct {
	cli.ConfigFlag
	Group string `flag:"group,g" desc:"fetch only this model group"`
	Force bool   `flag:"force,f" desc:"re-download files even when they match their pins"`
}

func fetchCommand() *cli.Command {
	var params fetchParams

	return &cli.Command{
		Name:    "fetch",
		Summary: "Download model weights from upstream",
		Usage:   "facekiosk models fetch [flags]",
		Description: `Download the manifest's weight files into the models directory and
pin each file's digest. Files already present and matching their pin
are skipped, so re-running fetch is cheap; --force re-downloads
everything.`,
		Examples: []cli.Example{
			{
				Description: "Fetch only the landmark model group",
				Command:     "facekiosk models fetch --group landmark",
			},
			{
				Description: "Re-download everything from upstream",
				Command:     "facekiosk models fetch --force",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("fetch", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("fetch takes no positional arguments")
			}
			cfg, err := params.Load()
			if err != nil {
				return err
			}

			var fetched, present int
			var fetchedBytes int64
			pack, err := newPack(cfg, logger, func(event modelpack.Event) {
				switch event.Action {
				case modelpack.ActionFetched:
					fetched++
					fetchedBytes += event.Bytes
					fmt.Printf("  %-8s %s/%s (%s)\n", event.Action, event.Group, event.File, formatSize(event.Bytes))
				default:
					present++
					fmt.Printf("  %-8s %s/%s\n", event.Action, event.Group, event.File)
				}
			})
			if err != nil {
				return err
			}

			if params.Group != "" {
				err = pack.FetchGroup(ctx, params.Group, params.Force)
			} else {
				err = pack.FetchAll(ctx, params.Force)
			}
			if err != nil {
				return cli.Transient("fetching models: %v", err).
					WithHint("Check the network connection and the models.base_url setting.")
			}

			if fetched > 0 {
				fmt.Printf("Fetched %d file(s) (%s), %d already present.\n", fetched, formatSize(fetchedBytes), present)
			} else {
				fmt.Printf("All %d file(s) already present.\n", present)
			}
			return nil
		},
	}
}

type verifyParams struct {
	cli.JSONOutput
	cli.ConfigFlag
}

// verifyStatusJSON is the JSON shape for one verified file. The
// library type uses an integer state; the CLI reports the name.
type verifyStatusJSON struct {
	Group    string `json:"group"`
	Path     string `json:"path"`
	State    string `json:"state"`
	Required bool   `json:"required"`
	Detail   string `json:"detail,omitempty"`
}

func verifyCommand() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check local weights against their pinned digests",
		Usage:   "facekiosk models verify [flags]",
		Description: `Digest every weight file on disk and compare against the pins
recorded at fetch time. Exits nonzero when a required file is
missing, modified, or was never pinned.`,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("verify takes no positional arguments")
			}
			cfg, err := params.Load()
			if err != nil {
				return err
			}
			pack, err := newPack(cfg, logger, nil)
			if err != nil {
				return err
			}

			statuses, err := pack.Verify()
			if err != nil {
				return cli.Internal("verifying models: %v", err)
			}
			requiredProblems, optionalProblems := modelpack.Problems(statuses)

			if done, err := params.EmitJSON(verifyJSON(statuses)); done {
				if err != nil {
					return err
				}
				if len(requiredProblems) > 0 {
					return &cli.ExitError{Code: 1}
				}
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "STATE\tFILE\tDETAIL")
			for _, status := range statuses {
				detail := status.Detail
				if detail == "" {
					detail = "-"
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\n", status.State, status.Path, detail)
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			switch {
			case len(requiredProblems) > 0:
				fmt.Printf("%d required file(s) failed verification. Run 'facekiosk models fetch' to repair.\n", len(requiredProblems))
				return &cli.ExitError{Code: 1}
			case len(optionalProblems) > 0:
				fmt.Printf("All required files verified; %d optional file(s) have problems.\n", len(optionalProblems))
			default:
				fmt.Println("All model files verified.")
			}
			return nil
		},
	}
}

func verifyJSON(statuses []modelpack.FileStatus) []verifyStatusJSON {
	out := make([]verifyStatusJSON, len(statuses))
	for i, status := range statuses {
		out[i] = verifyStatusJSON{
			Group:    status.Group,
			Path:     status.Path,
			State:    status.State.String(),
			Required: status.Required,
			Detail:   status.Detail,
		}
	}
	return out
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
