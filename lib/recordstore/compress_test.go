// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"bytes"
	"crypto/rand"
	"testing"
)

// compressibleJSON builds a payload that looks like the kiosk's real
// record files: an array of repetitive JSON objects.
func compressibleJSON(size int) []byte {
	row := []byte(`{"name":"Dana Smith","time":"2026-02-11T09:00:12","status":"Present"},`)
	data := make([]byte, 0, size)
	for len(data) < size {
		data = append(data, row...)
	}
	return data
}

func TestCompressionTagString(t *testing.T) {
	tests := []struct {
		tag  CompressionTag
		want string
	}{
		{CompressionNone, "none"},
		{CompressionLZ4, "lz4"},
		{CompressionZstd, "zstd"},
		{CompressionTag(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.tag.String(); got != tt.want {
				t.Errorf("CompressionTag(%d).String() = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		t.Run(name, func(t *testing.T) {
			tag, err := ParseCompressionTag(name)
			if err != nil {
				t.Fatalf("ParseCompressionTag(%q) failed: %v", name, err)
			}
			if tag.String() != name {
				t.Errorf("roundtrip: ParseCompressionTag(%q).String() = %q", name, tag.String())
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseCompressionTag("gzip"); err == nil {
			t.Error("ParseCompressionTag(\"gzip\") should fail")
		}
	})
}

func TestCompressDecompressNone(t *testing.T) {
	data := []byte("uncompressed data should pass through unchanged")

	compressed, err := Compress(data, CompressionNone)
	if err != nil {
		t.Fatalf("Compress(none) failed: %v", err)
	}

	// For CompressionNone, the output should be the same slice.
	if &compressed[0] != &data[0] {
		t.Error("CompressionNone should return the same slice, not a copy")
	}

	decompressed, err := Decompress(compressed, CompressionNone, len(data))
	if err != nil {
		t.Fatalf("Decompress(none) failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("none compression roundtrip failed")
	}
}

func TestCompressDecompressNoneSizeMismatch(t *testing.T) {
	data := []byte("five bytes extra")
	if _, err := Decompress(data, CompressionNone, len(data)+5); err == nil {
		t.Error("Decompress(none) should fail when size does not match")
	}
}

func TestCompressDecompressLZ4(t *testing.T) {
	data := compressibleJSON(64 * 1024)

	compressed, err := Compress(data, CompressionLZ4)
	if err != nil {
		t.Fatalf("Compress(lz4) failed: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Errorf("LZ4 did not compress: %d bytes → %d bytes", len(data), len(compressed))
	}

	decompressed, err := Decompress(compressed, CompressionLZ4, len(data))
	if err != nil {
		t.Fatalf("Decompress(lz4) failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("LZ4 roundtrip mismatch")
	}
}

func TestCompressDecompressZstd(t *testing.T) {
	data := compressibleJSON(64 * 1024)

	compressed, err := Compress(data, CompressionZstd)
	if err != nil {
		t.Fatalf("Compress(zstd) failed: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Errorf("Zstd did not compress: %d bytes → %d bytes", len(data), len(compressed))
	}

	ratio := float64(len(data)) / float64(len(compressed))
	if ratio < 2.0 {
		t.Errorf("Zstd compression ratio %.2fx is unexpectedly low for repetitive JSON", ratio)
	}

	decompressed, err := Decompress(compressed, CompressionZstd, len(data))
	if err != nil {
		t.Fatalf("Decompress(zstd) failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("Zstd roundtrip mismatch")
	}
}

func TestCompressIncompressible(t *testing.T) {
	// Random data is incompressible for both codecs.
	data := make([]byte, 64*1024)
	rand.Read(data)

	for _, tag := range []CompressionTag{CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			_, err := Compress(data, tag)
			if err == nil {
				t.Fatalf("%s should return incompressible error for random data", tag)
			}
			if !IsIncompressible(err) {
				t.Errorf("expected incompressible error, got: %v", err)
			}
		})
	}
}

func TestSelectCompression(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if tag := SelectCompression(nil); tag != CompressionNone {
			t.Errorf("SelectCompression(nil) = %s, want none", tag)
		}
	})

	t.Run("repetitive json", func(t *testing.T) {
		if tag := SelectCompression(compressibleJSON(32 * 1024)); tag != CompressionZstd {
			t.Errorf("SelectCompression(json) = %s, want zstd", tag)
		}
	})

	t.Run("random", func(t *testing.T) {
		data := make([]byte, 32*1024)
		rand.Read(data)
		if tag := SelectCompression(data); tag != CompressionNone {
			t.Errorf("SelectCompression(random) = %s, want none", tag)
		}
	})
}

func TestCompressAuto(t *testing.T) {
	t.Run("compressible", func(t *testing.T) {
		data := compressibleJSON(32 * 1024)
		compressed, tag, err := CompressAuto(data)
		if err != nil {
			t.Fatalf("CompressAuto failed: %v", err)
		}
		if tag == CompressionNone {
			t.Fatal("CompressAuto picked none for repetitive JSON")
		}
		if len(compressed) >= len(data) {
			t.Error("CompressAuto output is not smaller than input")
		}

		decompressed, err := Decompress(compressed, tag, len(data))
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}
		if !bytes.Equal(decompressed, data) {
			t.Error("CompressAuto roundtrip mismatch")
		}
	})

	t.Run("incompressible falls back to none", func(t *testing.T) {
		data := make([]byte, 32*1024)
		rand.Read(data)

		compressed, tag, err := CompressAuto(data)
		if err != nil {
			t.Fatalf("CompressAuto failed: %v", err)
		}
		if tag != CompressionNone {
			t.Errorf("CompressAuto(random) tag = %s, want none", tag)
		}
		if !bytes.Equal(compressed, data) {
			t.Error("CompressionNone fallback should return the input unchanged")
		}
	})
}
