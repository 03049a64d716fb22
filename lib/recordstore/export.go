// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/facekiosk/facekiosk/lib/sealed"
	"github.com/facekiosk/facekiosk/lib/secret"
)

// BundleVersion is the export bundle format version.
const BundleVersion = 1

// Bundle is a portable snapshot of every category's records. Bundles
// move attendance data between a kiosk terminal and an admin
// workstation as age-encrypted text files.
type Bundle struct {
	Version    int                          `json:"version"`
	Exported   time.Time                    `json:"exported"`
	Categories map[string][]json.RawMessage `json:"categories"`
}

// ExportBundle snapshots the store's current records and encrypts
// them to the given age recipients. Returns the base64 ciphertext to
// be written to a bundle file. Categories with no records are omitted.
func (s *Store) ExportBundle(recipientKeys []string) (string, error) {
	bundle := Bundle{
		Version:    BundleVersion,
		Exported:   s.clock.Now(),
		Categories: make(map[string][]json.RawMessage),
	}

	for _, category := range categoryOrder {
		records, err := s.Load(category)
		if err != nil {
			return "", fmt.Errorf("loading %s: %w", category, err)
		}
		if len(records) > 0 {
			bundle.Categories[category.String()] = records
		}
	}

	payload, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("encoding bundle: %w", err)
	}

	ciphertext, err := sealed.Encrypt(payload, recipientKeys)
	if err != nil {
		return "", fmt.Errorf("encrypting bundle: %w", err)
	}
	return ciphertext, nil
}

// ImportBundle decrypts a bundle with the given age identity and
// parses it. The identity is borrowed, not closed.
func ImportBundle(ciphertext string, identity *secret.Buffer) (*Bundle, error) {
	plaintext, err := sealed.Decrypt(ciphertext, identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting bundle: %w", err)
	}
	defer plaintext.Close()

	var bundle Bundle
	if err := json.Unmarshal(plaintext.Bytes(), &bundle); err != nil {
		return nil, fmt.Errorf("parsing bundle: %w", err)
	}

	if bundle.Version != BundleVersion {
		return nil, fmt.Errorf("bundle version %d is not supported (expected %d)", bundle.Version, BundleVersion)
	}

	return &bundle, nil
}

// RestoreBundle saves every category in the bundle through the normal
// save path, so restores produce backups and journal entries like any
// other write. Categories are restored in display order; the first
// failure aborts the rest.
func (s *Store) RestoreBundle(bundle *Bundle, source string) ([]*SaveResult, error) {
	// Reject bundles naming categories this build does not know before
	// restoring anything, rather than silently dropping their records
	// or applying the bundle halfway.
	for name := range bundle.Categories {
		if _, err := ParseCategory(name); err != nil {
			return nil, fmt.Errorf("bundle: %w", err)
		}
	}

	var results []*SaveResult
	for _, category := range categoryOrder {
		records, ok := bundle.Categories[category.String()]
		if !ok {
			continue
		}
		result, err := s.Save(category, records, source)
		if err != nil {
			return results, fmt.Errorf("restoring %s: %w", category, err)
		}
		results = append(results, result)
	}
	return results, nil
}
