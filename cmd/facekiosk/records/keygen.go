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

type keygenParams struct {
	cli.JSONOutput
	Out string `flag:"out,o" desc:"file to write the private key to (created 0600)"`
}

func keygenCommand() *cli.Command {
	var params keygenParams

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate a keypair for encrypted exports",
		Usage:   "facekiosk records keygen --out <key-file> [flags]",
		Description: `Generate an age keypair for 'facekiosk records export'. The private
key is written to --out with owner-only permissions and the public key
is printed, ready to paste into an export --recipient flag.

Keep the private key off the kiosk: exports encrypted to its public
key can only be opened where the private key lives.`,
		Examples: []cli.Example{
			{
				Description: "Generate a keypair for the office workstation",
				Command:     "facekiosk records keygen --out office.key",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("keygen", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("keygen takes no positional arguments")
			}
			if params.Out == "" {
				return cli.Validation("--out is required").
					WithHint("The private key has to land in a file; it is never printed.")
			}

			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return cli.Internal("generating keypair: %v", err)
			}
			defer keypair.Close()

			// O_EXCL so an existing key file is never clobbered. The
			// buffer is written directly to avoid an unzeroed copy of
			// the secret on the heap.
			file, err := os.OpenFile(params.Out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				if os.IsExist(err) {
					return cli.Conflict("%s already exists", params.Out).
						WithHint("Remove the file first, or pick a different --out path.")
				}
				return cli.Internal("creating private key file: %v", err)
			}
			_, writeErr := file.Write(keypair.PrivateKey.Bytes())
			if writeErr == nil {
				_, writeErr = file.Write([]byte("\n"))
			}
			if closeErr := file.Close(); writeErr == nil {
				writeErr = closeErr
			}
			if writeErr != nil {
				os.Remove(params.Out)
				return cli.Internal("writing private key: %v", writeErr)
			}

			if done, err := params.EmitJSON(map[string]string{
				"public_key":    keypair.PublicKey,
				"identity_file": params.Out,
			}); done {
				return err
			}

			fmt.Printf("Private key: %s\n", params.Out)
			fmt.Printf("Public key:  %s\n", keypair.PublicKey)
			return nil
		},
	}
}
