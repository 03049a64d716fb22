// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption and decryption for Facekiosk
// record export bundles. It wraps filippo.io/age for the specific
// operations the kiosk needs: generate x25519 keypairs, encrypt to
// multiple recipients, and decrypt with a private key.
//
// Ciphertext is base64-encoded so bundle files survive text-mode
// transfer between the kiosk terminal and an admin workstation.
// Callers pass plaintext []byte to [Encrypt] and receive a base64
// string; [Decrypt] accepts a base64 string and returns plaintext.
// Private keys and decrypted plaintext are returned as [secret.Buffer]
// values backed by mmap memory outside the Go heap (locked against
// swap, excluded from core dumps, zeroed on Close).
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair in a secret.Buffer
//   - [Encrypt] -- encrypt to age public key recipients
//   - [Decrypt] -- decrypt with a secret.Buffer key
//   - [ParsePublicKey] / [ParsePrivateKey] -- key validation
//
// Used by lib/recordstore for export and import of attendance bundles,
// which carry face descriptors and therefore never leave the kiosk
// unencrypted.
//
// Depends on lib/secret for secure memory allocation.
package sealed
