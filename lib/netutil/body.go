// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides network and HTTP I/O utilities for Facekiosk.
//
// Port helpers (ValidatePort, FindAvailablePort) back the kiosk
// server's startup sequence: validate the configured port, then probe
// forward from it until a bindable port is found so that a stale
// server instance does not block a fresh launch.
//
// HTTP body helpers (ReadBody, DecodeBody, ErrorBody) bound all body
// reads at MaxBodySize to prevent unbounded memory allocation from a
// misbehaving client or server. These are for JSON payloads (record
// uploads, API error bodies) — not for large binary downloads such as
// model weight shards, which should be read incrementally with
// io.Copy.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxBodySize is the bound on JSON body reads: 64 MB. This exists
// solely to prevent a pathological payload from exhausting system
// memory. Legitimate record uploads are orders of magnitude smaller;
// the limit is intentionally generous so that it never interferes with
// normal operation.
const MaxBodySize int64 = 64 << 20

// ReadBody reads a JSON body up to MaxBodySize bytes. Use instead of
// io.ReadAll when reading HTTP request or response bodies.
func ReadBody(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxBodySize))
}

// DecodeBody reads a JSON body (up to MaxBodySize bytes) and
// JSON-decodes it into v. Replaces the common io.ReadAll +
// json.Unmarshal pattern.
func DecodeBody(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored — a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxBodySize))
	return string(data)
}
