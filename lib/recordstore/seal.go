// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/facekiosk/facekiosk/lib/secret"
)

// KeySize is the size in bytes of the backup master key and of every
// per-file key derived from it.
const KeySize = 32

// SealedVersion is the version byte prepended to all sealed backups.
// Included as additional authenticated data (AAD) in the AEAD
// Seal/Open call, so tampering with the version byte causes
// authentication failure.
const SealedVersion byte = 0x01

// SealedOverhead is the total byte overhead per sealed backup:
// 1 (version) + 24 (XChaCha20-Poly1305 nonce) + 16 (Poly1305 tag).
const SealedOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfoBackup is the "info" parameter to HKDF-SHA256 for per-file
// backup keys, providing domain separation. Changing it invalidates
// all backups sealed under the old derivation path.
var hkdfInfoBackup = []byte("facekiosk.backup.v1")

// Sealer seals and opens backup payloads with XChaCha20-Poly1305
// under keys derived from a 32-byte master key.
//
// Each backup file is sealed under its own key, derived via
// HKDF-SHA256 from the master key and the backup file name. The file
// name is also bound into the AAD, so a sealed backup cannot be
// renamed over another and still open.
//
// Sealer does not cache derived keys. Each call performs a fresh HKDF
// derivation; at roughly a microsecond per derivation this is
// negligible next to the file I/O around it.
//
// Close zeroes and releases the master key. After Close, all methods
// panic (via secret.Buffer's closed check).
type Sealer struct {
	masterKey *secret.Buffer
}

// NewSealer creates a Sealer from a master key. The masterKey buffer
// is owned by the Sealer and will be closed when Close is called. The
// caller must not use masterKey after passing it to this function.
//
// Returns an error if masterKey is not exactly KeySize (32) bytes.
func NewSealer(masterKey *secret.Buffer) (*Sealer, error) {
	if masterKey.Len() != KeySize {
		return nil, fmt.Errorf("backup master key must be %d bytes, got %d", KeySize, masterKey.Len())
	}
	return &Sealer{masterKey: masterKey}, nil
}

// Close zeroes and releases the master key. After Close, Seal and
// Open panic. Idempotent.
func (s *Sealer) Close() error {
	return s.masterKey.Close()
}

// Seal encrypts plaintext for the backup file named by identity and
// returns the sealed blob:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes (random)] [Ciphertext+Tag: N+16 bytes]
//
// The version byte and identity are included as additional
// authenticated data. The identity binds the ciphertext to its file
// name, preventing sealed backups from being swapped around in the
// backups directory.
func (s *Sealer) Seal(plaintext []byte, identity string) ([]byte, error) {
	fileKey, err := s.deriveFileKey(identity)
	if err != nil {
		return nil, err
	}
	defer fileKey.Close()

	aead, err := chacha20poly1305.NewX(fileKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	// Generate a random 24-byte nonce.
	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	aad := buildAAD(SealedVersion, identity)

	// Allocate output: version + nonce + ciphertext + tag.
	output := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	output[0] = SealedVersion
	copy(output[1:], nonce[:])

	// Seal appends the ciphertext+tag to output.
	output = aead.Seal(output, nonce[:], plaintext, aad)
	return output, nil
}

// Open decrypts a sealed blob produced by Seal for the backup file
// named by identity. It verifies the version byte, extracts the nonce,
// and authenticates the ciphertext against the AAD (version byte +
// identity).
//
// Returns an error if:
//   - The blob is too short to contain version + nonce + tag
//   - The version byte is not SealedVersion
//   - AEAD authentication fails (wrong key, tampered ciphertext,
//     wrong file name)
func (s *Sealer) Open(sealedBlob []byte, identity string) ([]byte, error) {
	if len(sealedBlob) < SealedOverhead {
		return nil, fmt.Errorf("sealed backup is %d bytes, minimum is %d (version + nonce + tag)",
			len(sealedBlob), SealedOverhead)
	}

	version := sealedBlob[0]
	if version != SealedVersion {
		return nil, fmt.Errorf("sealed backup version %d is not supported (expected %d)",
			version, SealedVersion)
	}

	nonce := sealedBlob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := sealedBlob[1+chacha20poly1305.NonceSizeX:]

	fileKey, err := s.deriveFileKey(identity)
	if err != nil {
		return nil, err
	}
	defer fileKey.Close()

	aead, err := chacha20poly1305.NewX(fileKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	aad := buildAAD(version, identity)

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("AEAD decryption failed (wrong key, tampered data, or renamed file): %w", err)
	}

	return plaintext, nil
}

// deriveFileKey derives the per-file key for a backup from the master
// key and the backup file name.
func (s *Sealer) deriveFileKey(identity string) (*secret.Buffer, error) {
	info := make([]byte, 0, len(hkdfInfoBackup)+len(identity))
	info = append(info, hkdfInfoBackup...)
	info = append(info, identity...)

	reader := hkdf.New(sha256.New, s.masterKey.Bytes(), nil, info)
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	// NewFromBytes copies into mmap and zeros the heap slice.
	return secret.NewFromBytes(derived)
}

// buildAAD constructs the additional authenticated data for AEAD
// operations: the version byte followed by the backup file name. The
// file name binds the ciphertext to its place in the backups
// directory.
func buildAAD(version byte, identity string) []byte {
	aad := make([]byte, 1+len(identity))
	aad[0] = version
	copy(aad[1:], identity)
	return aad
}
