// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package cert implements 'facekiosk cert': generating and inspecting
// the self-signed TLS certificate the kiosk serves with. Browsers
// only grant camera access to secure origins, so a kiosk reached from
// another machine needs HTTPS.
package cert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/facekiosk/facekiosk/cmd/facekiosk/cli"
	"github.com/facekiosk/facekiosk/lib/certgen"
)

// expiryWarning is how close to NotAfter the show subcommand starts
// warning. Matches the doctor check.
const expiryWarning = 30 * 24 * time.Hour

type generateParams struct {
	cli.ConfigFlag
	Days  int      `flag:"days" desc:"validity period in days" default:"365"`
	Hosts []string `flag:"host" desc:"subject alternative name (repeatable)"`
	Force bool     `flag:"force,f" desc:"overwrite an existing certificate and key"`
}

// Command returns the cert command. Running it bare generates a
// certificate; 'cert show' inspects the one on disk.
func Command() *cli.Command {
	var params generateParams

	return &cli.Command{
		Name:    "cert",
		Summary: "Generate a self-signed TLS certificate",
		Usage:   "facekiosk cert [flags]",
		Description: `Generate a self-signed certificate and key at the configured paths.
The kiosk serves HTTPS whenever both files exist. Defaults cover
localhost; pass --host for each extra name or address the kiosk is
reached at.`,
		Subcommands: []*cli.Command{
			showCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Generate a localhost certificate",
				Command:     "facekiosk cert",
			},
			{
				Description: "Cover the kiosk's LAN address too",
				Command:     "facekiosk cert --host localhost --host 192.168.1.50",
			},
			{
				Description: "Inspect the certificate on disk",
				Command:     "facekiosk cert show",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("cert", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("cert takes no positional arguments")
			}
			cfg, err := params.Load()
			if err != nil {
				return err
			}

			info, err := certgen.Generate(certgen.Options{
				CertPath:  cfg.Paths.Certificate,
				KeyPath:   cfg.Paths.Key,
				Days:      params.Days,
				Hosts:     params.Hosts,
				Overwrite: params.Force,
			})
			if err != nil {
				if errors.Is(err, certgen.ErrExists) {
					return cli.Conflict("%v", err).
						WithHint("Pass --force to replace the existing certificate.")
				}
				return cli.Internal("generating certificate: %v", err)
			}

			logger.Info("certificate generated",
				"cert", info.Path,
				"key", cfg.Paths.Key,
				"expires", info.NotAfter.Format("2006-01-02"),
			)
			printInfo(info)
			return nil
		},
	}
}

type showParams struct {
	cli.JSONOutput
	cli.ConfigFlag
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Inspect the certificate on disk",
		Usage:   "facekiosk cert show [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("show takes no positional arguments")
			}
			cfg, err := params.Load()
			if err != nil {
				return err
			}

			info, err := certgen.Inspect(cfg.Paths.Certificate)
			if err != nil {
				return cli.NotFound("inspecting certificate: %v", err).
					WithHint("Generate one with 'facekiosk cert'.")
			}

			if done, err := params.EmitJSON(info); done {
				return err
			}
			printInfo(info)
			if info.ExpiresWithin(time.Now(), expiryWarning) {
				fmt.Println("Certificate expires within 30 days. Regenerate with 'facekiosk cert --force'.")
			}
			return nil
		},
	}
}

func printInfo(info *certgen.Info) {
	fmt.Printf("Certificate: %s\n", info.Path)
	fmt.Printf("  Subject:   %s\n", info.CommonName)
	fmt.Printf("  Valid:     %s to %s\n",
		info.NotBefore.Format("2006-01-02"), info.NotAfter.Format("2006-01-02"))
	if len(info.DNSNames) > 0 {
		fmt.Printf("  DNS:       %s\n", strings.Join(info.DNSNames, ", "))
	}
	if len(info.IPAddresses) > 0 {
		fmt.Printf("  IP:        %s\n", strings.Join(info.IPAddresses, ", "))
	}
}
