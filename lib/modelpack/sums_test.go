// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package modelpack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSumsRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), SumsFileName)
	sums := Sums{
		"tiny_face_detector/tiny_face_detector_model-shard1": DigestBytes([]byte("one")),
		"ssd_mobilenetv1/ssd_mobilenetv1_model-shard1":       DigestBytes([]byte("two")),
		"face_recognition/face_recognition_model-shard2":     DigestBytes([]byte("three")),
	}

	if err := WriteSums(path, sums); err != nil {
		t.Fatalf("WriteSums: %v", err)
	}
	loaded, err := ReadSums(path)
	if err != nil {
		t.Fatalf("ReadSums: %v", err)
	}
	if len(loaded) != len(sums) {
		t.Fatalf("entry count: got %d, want %d", len(loaded), len(sums))
	}
	for pinPath, digest := range sums {
		if loaded[pinPath] != digest {
			t.Fatalf("pin %s changed across the roundtrip", pinPath)
		}
	}
}

func TestSumsFileIsSortedAndStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), SumsFileName)
	sums := Sums{
		"zz/last":   DigestBytes([]byte("z")),
		"aa/first":  DigestBytes([]byte("a")),
		"mm/middle": DigestBytes([]byte("m")),
	}
	if err := WriteSums(path, sums); err != nil {
		t.Fatalf("WriteSums: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading pin file: %v", err)
	}
	content := string(data)
	if !strings.HasSuffix(content, "\n") {
		t.Fatal("pin file does not end with a newline")
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	wantOrder := []string{"aa/first", "mm/middle", "zz/last"}
	if len(lines) != len(wantOrder) {
		t.Fatalf("line count: got %d, want %d", len(lines), len(wantOrder))
	}
	for i, line := range lines {
		digestPart, pathPart, found := strings.Cut(line, "  ")
		if !found {
			t.Fatalf("line %d not in \"<digest>  <path>\" form: %q", i+1, line)
		}
		if len(digestPart) != 64 {
			t.Fatalf("line %d: digest length %d, want 64", i+1, len(digestPart))
		}
		if pathPart != wantOrder[i] {
			t.Fatalf("line %d: path %q, want %q", i+1, pathPart, wantOrder[i])
		}
	}
}

func TestReadSumsMissingFile(t *testing.T) {
	sums, err := ReadSums(filepath.Join(t.TempDir(), SumsFileName))
	if err != nil {
		t.Fatalf("ReadSums: %v", err)
	}
	if len(sums) != 0 {
		t.Fatalf("expected empty sums, got %d entries", len(sums))
	}
}

func TestReadSumsRejectsMalformedLines(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "malformed")
	if err := os.WriteFile(path, []byte("just-one-field\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	_, err := ReadSums(path)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line 1 error, got %v", err)
	}

	path = filepath.Join(dir, "short-digest")
	line := fmt.Sprintf("%s  %s\n%s  %s\n",
		FormatDigest(DigestBytes([]byte("fine"))), "group/ok",
		"abcd", "group/bad")
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	_, err = ReadSums(path)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}
