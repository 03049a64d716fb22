// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package modelpack

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte keyed BLAKE3 digest of a weight file. All pins
// in the models.sum file are this size.
type Digest [32]byte

// weightsDomainKey is the BLAKE3 key for weight-file digests. Keyed
// hashing gives domain separation: the same bytes hashed elsewhere in
// the program (backups, journals) can never collide with a weight
// pin. The key is a fixed constant; changing it invalidates every
// recorded pin. The byte values are the ASCII encoding of the domain
// name, zero-padded to 32 bytes, so the key is recognizable in hex
// dumps without losing any cryptographic property.
var weightsDomainKey = [32]byte{
	'f', 'a', 'c', 'e', 'k', 'i', 'o', 's', 'k', '.', 'm', 'o', 'd', 'e', 'l', '.',
	'w', 'e', 'i', 'g', 'h', 't', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// newHasher returns a keyed BLAKE3 hasher for the weights domain.
func newHasher() *blake3.Hasher {
	hasher, err := blake3.NewKeyed(weightsDomainKey[:])
	if err != nil {
		// NewKeyed fails only for a key that is not 32 bytes; the
		// key above is a compile-time constant of the right size.
		panic("modelpack: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// DigestBytes computes the weight-domain digest of data.
func DigestBytes(data []byte) Digest {
	hasher := newHasher()
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// DigestReader computes the weight-domain digest of everything read
// from r, returning the digest and the number of bytes consumed.
func DigestReader(r io.Reader) (Digest, int64, error) {
	hasher := newHasher()
	n, err := io.Copy(hasher, r)
	if err != nil {
		return Digest{}, n, err
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, n, nil
}

// DigestFile computes the weight-domain digest of the file at path.
func DigestFile(path string) (Digest, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, err
	}
	defer file.Close()
	return DigestReader(file)
}

// FormatDigest returns the hex-encoded string representation of a
// digest. This is the format written to models.sum and shown in CLI
// output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing model digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("model digest must be %d bytes, got %d", len(digest), len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
