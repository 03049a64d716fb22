// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Facekiosk's standard CBOR encoding configuration.
//
// Facekiosk uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: record files read by the browser
//     page, the kiosk HTTP API, CLI output, and export bundle
//     manifests.
//   - CBOR for internal files: the append-only save journal
//     (journal.cbor) that records every accepted upload.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Facekiosk package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (the journal file):
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR
//     (journal entries).
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
