// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/facekiosk/facekiosk/lib/config"
	"github.com/facekiosk/facekiosk/lib/recordstore"
	"github.com/facekiosk/facekiosk/lib/secret"
)

// OpenStore opens the record store described by the config, wiring up
// backup compression and, when backup encryption is enabled, the
// sealer keyed from the configured key file. The caller owns the
// returned store and must Close it; the store closes the sealer.
func OpenStore(cfg *config.Config, logger *slog.Logger) (*recordstore.Store, error) {
	options := recordstore.Options{
		RecordsDir:  cfg.Paths.Records,
		BackupsDir:  cfg.Paths.Backups,
		Keep:        cfg.Backup.Keep,
		Compression: cfg.Backup.Compression,
		Logger:      logger,
	}

	if cfg.Backup.Encrypt {
		masterKey, err := secret.ReadKeyHex(cfg.Backup.KeyFile, recordstore.KeySize)
		if err != nil {
			return nil, NotFound("reading backup key %s: %v", cfg.Backup.KeyFile, err).
				WithHint("Backup encryption is enabled in the config. Point backup.key_file at a " +
					"64-hex-character key file, or disable backup.encrypt.")
		}
		sealer, err := recordstore.NewSealer(masterKey)
		if err != nil {
			masterKey.Close()
			return nil, Internal("initializing backup sealer: %v", err)
		}
		options.Sealer = sealer
	}

	store, err := recordstore.Open(options)
	if err != nil {
		if options.Sealer != nil {
			options.Sealer.Close()
		}
		return nil, Internal("opening record store: %v", err)
	}
	return store, nil
}
