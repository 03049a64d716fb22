// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Facekiosk packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// the only place in the test suite where real wall-clock timeouts are
// used.
//
// [WriteFile] seeds a file under a test directory, creating parent
// directories as needed. Tests for the record store and the kiosk
// server use it to lay out data roots without repeating MkdirAll
// boilerplate.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Facekiosk-internal dependencies.
package testutil
