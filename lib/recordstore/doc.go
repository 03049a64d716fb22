// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordstore persists attendance records for the kiosk.
//
// The store owns a records directory holding one JSON file per
// [Category] (attendance, punch-in, punch-out, currently-online) plus
// a backups directory with rotated, timestamped copies. [Store.Save]
// replaces a category file atomically (temp file + rename in the same
// directory), writes a timestamped backup, prunes backups beyond the
// configured keep count, and appends an entry to the CBOR save
// journal.
//
// Backups are optionally compressed (LZ4 or zstd, chosen per payload
// by a compression probe) and optionally sealed with
// XChaCha20-Poly1305 under keys derived from a 32-byte master key.
// Record files carry face descriptors, so deployments that must
// protect them at rest enable sealing. The current category files stay
// plain JSON because the browser page reads them directly.
//
// [Store.Watch] feeds category change events from inotify to the
// record viewer for live reload. [Store.ExportBundle] and
// [ImportBundle] move records between machines as age-encrypted
// bundles.
//
// Record payloads are opaque to this package: they are stored and
// returned as json.RawMessage values, preserving whatever shape the
// browser page uploads.
package recordstore
