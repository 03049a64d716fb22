// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers shared by the
// facekiosk binaries. It centralizes the raw stderr I/O that happens
// before the structured logger exists (startup errors in main) and
// exit-status extraction for wrapped external commands.
package process
