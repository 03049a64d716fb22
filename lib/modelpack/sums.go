// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package modelpack

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SumsFileName is the pin file written next to the model
// directories, one line per weight file:
//
//	<64 hex digest chars>  <group dir>/<file name>
//
// Lines are sorted by path so the file diffs cleanly.
const SumsFileName = "models.sum"

// Sums maps slash-separated paths relative to the models root to
// their pinned digests.
type Sums map[string]Digest

// ReadSums loads the pin file at path. A missing file is not an
// error: it yields an empty map, which is the state before the first
// fetch.
func ReadSums(path string) (Sums, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Sums{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	sums := Sums{}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s: line %d: expected \"<digest>  <path>\"", path, i+1)
		}
		digest, err := ParseDigest(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, i+1, err)
		}
		sums[fields[1]] = digest
	}
	return sums, nil
}

// WriteSums writes the pin file atomically, sorted by path. The
// temp-and-rename dance means a crash mid-write leaves the previous
// pins intact rather than a truncated file.
func WriteSums(path string, sums Sums) error {
	paths := make([]string, 0, len(sums))
	for p := range sums {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var builder strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&builder, "%s  %s\n", FormatDigest(sums[p]), p)
	}

	return writeFileAtomic(path, []byte(builder.String()), 0o644)
}

// writeFileAtomic writes data to a temp file in the target directory
// and renames it into place.
func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("setting mode on %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", tmp.Name(), err)
	}
	success = true
	return nil
}
