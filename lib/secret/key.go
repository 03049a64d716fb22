// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
)

// ReadFromPath reads a secret from a file path, or from stdin if path is "-".
// The returned buffer is mmap-backed (locked into RAM, excluded from core
// dumps) and must be closed by the caller. Leading/trailing whitespace is
// trimmed before storing. Returns an error if the source is empty after
// trimming.
func ReadFromPath(path string) (*Buffer, error) {
	var data []byte

	if path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			return nil, fmt.Errorf("stdin is empty")
		}
		data = scanner.Bytes()
	} else {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret is empty")
	}

	// NewFromBytes copies into mmap-backed memory and zeros trimmed.
	buffer, err := NewFromBytes(trimmed)
	// Zero remaining bytes (whitespace prefix/suffix) not covered by trimmed.
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

// ReadKeyHex reads a hex-encoded binary key from path (or stdin if path
// is "-") and returns the decoded bytes in a protected buffer. The key
// must decode to exactly size bytes. Key files are stored hex-encoded
// so they survive text-mode transfers and can be pasted into a
// terminal.
func ReadKeyHex(path string, size int) (*Buffer, error) {
	encoded, err := ReadFromPath(path)
	if err != nil {
		return nil, err
	}
	defer encoded.Close()

	decoded := make([]byte, hex.DecodedLen(encoded.Len()))
	n, err := hex.Decode(decoded, encoded.Bytes())
	if err != nil {
		Zero(decoded)
		return nil, fmt.Errorf("decoding hex key: %w", err)
	}
	if n != size {
		Zero(decoded)
		return nil, fmt.Errorf("key is %d bytes, want %d", n, size)
	}

	// NewFromBytes zeros the transient heap copy.
	return NewFromBytes(decoded[:n])
}
