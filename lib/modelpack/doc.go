// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package modelpack fetches and verifies the face-api.js neural
// network weights the kiosk page loads at startup. The browser reads
// the weights over plain GET from the web root, so this package's
// only job is to get correct bytes onto disk ahead of time: the
// kiosk itself never touches the network for models.
//
// Weights are organized into groups, one per network (face detector,
// landmark model, recognition model). A JSONC manifest lists the
// groups, their directories under the models root, and the individual
// weight files. Upstream publishes all files flat under a single
// base URL; the directory structure exists only locally because
// face-api.js loads each network from its own directory.
//
// Integrity is trust-on-first-use. The first time a file is acquired
// its keyed BLAKE3 digest is recorded in a models.sum pin file next
// to the weights. Later fetches skip files whose pins still match,
// and Verify reports any file that has gone missing or drifted from
// its pin. There is no upstream signature to check: the pins protect
// against local corruption and silent tampering after the initial
// download, not against a malicious origin.
package modelpack
