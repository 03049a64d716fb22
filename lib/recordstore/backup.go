// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup file layout. Plain backups (CompressionNone, unsealed) are
// the raw JSON payload, directly readable by anything that reads the
// current category files. Compressed backups carry a small header so
// they can be decoded standalone:
//
//	[tag: 1 byte] [uncompressed size: 8 bytes big-endian] [payload]
//
// Sealed backups wrap either form in the Sealer blob format, with the
// final file name bound into the AAD.
const backupHeaderSize = 1 + 8

// maxBackupPayload bounds the uncompressed size field when decoding a
// backup header, protecting against a corrupt header demanding an
// absurd allocation.
const maxBackupPayload = 1 << 30

// BackupInfo describes one rotated backup file.
type BackupInfo struct {
	Category    Category  `json:"category"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Timestamp   string    `json:"timestamp"`
	Compression string    `json:"compression"`
	Sealed      bool      `json:"sealed"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modified"`
}

// writeBackup writes one timestamped backup for a category and
// returns its path, the compression used, and whether it was sealed.
func (s *Store) writeBackup(category Category, data []byte, timestamp string) (string, CompressionTag, bool, error) {
	var payload []byte
	var tag CompressionTag
	var err error

	if s.compressionAuto {
		payload, tag, err = CompressAuto(data)
	} else {
		tag = s.compressionTag
		payload, err = Compress(data, tag)
		if IsIncompressible(err) {
			payload, tag, err = data, CompressionNone, nil
		}
	}
	if err != nil {
		return "", 0, false, err
	}

	if tag != CompressionNone {
		payload = encodeContainer(tag, len(data), payload)
	}

	name := category.BackupPrefix() + timestamp + compressionSuffix(tag)
	sealed := s.sealer != nil
	mode := os.FileMode(0o644)
	if sealed {
		// The final name (with .sealed) is the AAD identity, so it
		// must be fixed before sealing.
		name += ".sealed"
		payload, err = s.sealer.Seal(payload, name)
		if err != nil {
			return "", 0, false, err
		}
		mode = 0o600
	}

	path := filepath.Join(s.backupsDir, name)
	if err := writeFileAtomic(path, payload, mode); err != nil {
		return "", 0, false, err
	}
	return path, tag, sealed, nil
}

// pruneBackups removes the oldest backups of a category beyond the
// keep count. Pruning failures are logged, not returned: a save that
// wrote its data and its backup has succeeded.
func (s *Store) pruneBackups(category Category) {
	backups, err := s.ListBackups(category)
	if err != nil {
		s.logger.Warn("listing backups for pruning failed", "category", category, "error", err)
		return
	}

	for _, backup := range backups[min(s.keep, len(backups)):] {
		if err := os.Remove(backup.Path); err != nil {
			s.logger.Warn("pruning backup failed", "path", backup.Path, "error", err)
		}
	}
}

// ListBackups returns the category's backups, newest first. File names
// that carry the category prefix but do not parse as backups are
// skipped.
func (s *Store) ListBackups(category Category) ([]BackupInfo, error) {
	if _, ok := categoryTable[category]; !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	entries, err := os.ReadDir(s.backupsDir)
	if err != nil {
		return nil, fmt.Errorf("reading backups directory: %w", err)
	}

	prefix := category.BackupPrefix()
	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		timestamp, tag, sealed, err := parseBackupName(entry.Name(), prefix)
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Category:    category,
			Name:        entry.Name(),
			Path:        filepath.Join(s.backupsDir, entry.Name()),
			Timestamp:   timestamp,
			Compression: tag.String(),
			Sealed:      sealed,
			Size:        info.Size(),
			ModTime:     info.ModTime(),
		})
	}

	// The timestamp format sorts lexicographically in chronological
	// order; reverse for newest first.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// OpenBackup reads a backup file and returns its JSON payload,
// unsealing and decompressing as its name indicates. Opening a sealed
// backup requires the store to have been opened with the master key.
func (s *Store) OpenBackup(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)

	if strings.HasSuffix(name, ".sealed") {
		if s.sealer == nil {
			return nil, fmt.Errorf("%s is sealed and no backup key is configured", name)
		}
		data, err = s.sealer.Open(data, name)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		name = strings.TrimSuffix(name, ".sealed")
	}

	switch {
	case strings.HasSuffix(name, ".lz4"):
		return decodeContainer(data, CompressionLZ4)
	case strings.HasSuffix(name, ".zst"):
		return decodeContainer(data, CompressionZstd)
	default:
		return data, nil
	}
}

// encodeContainer prepends the backup header to a compressed payload.
func encodeContainer(tag CompressionTag, uncompressedSize int, payload []byte) []byte {
	output := make([]byte, backupHeaderSize+len(payload))
	output[0] = byte(tag)
	binary.BigEndian.PutUint64(output[1:backupHeaderSize], uint64(uncompressedSize))
	copy(output[backupHeaderSize:], payload)
	return output
}

// decodeContainer parses the backup header and decompresses the
// payload. The header tag must match what the file's suffix promised.
func decodeContainer(raw []byte, expectTag CompressionTag) ([]byte, error) {
	if len(raw) < backupHeaderSize {
		return nil, fmt.Errorf("backup is %d bytes, smaller than its %d byte header", len(raw), backupHeaderSize)
	}

	tag := CompressionTag(raw[0])
	if tag != expectTag {
		return nil, fmt.Errorf("backup header says %s but file suffix says %s", tag, expectTag)
	}

	uncompressedSize := binary.BigEndian.Uint64(raw[1:backupHeaderSize])
	if uncompressedSize > maxBackupPayload {
		return nil, fmt.Errorf("backup header claims %d uncompressed bytes, limit is %d", uncompressedSize, maxBackupPayload)
	}

	return Decompress(raw[backupHeaderSize:], tag, int(uncompressedSize))
}

// compressionSuffix returns the file suffix for a compression tag.
func compressionSuffix(tag CompressionTag) string {
	switch tag {
	case CompressionLZ4:
		return ".json.lz4"
	case CompressionZstd:
		return ".json.zst"
	default:
		return ".json"
	}
}

// parseBackupName splits a backup file name into its timestamp,
// compression tag, and sealed flag.
func parseBackupName(name, prefix string) (string, CompressionTag, bool, error) {
	rest := strings.TrimPrefix(name, prefix)

	sealed := strings.HasSuffix(rest, ".sealed")
	rest = strings.TrimSuffix(rest, ".sealed")

	tag := CompressionNone
	switch {
	case strings.HasSuffix(rest, ".json.lz4"):
		tag = CompressionLZ4
		rest = strings.TrimSuffix(rest, ".json.lz4")
	case strings.HasSuffix(rest, ".json.zst"):
		tag = CompressionZstd
		rest = strings.TrimSuffix(rest, ".json.zst")
	case strings.HasSuffix(rest, ".json"):
		rest = strings.TrimSuffix(rest, ".json")
	default:
		return "", 0, false, fmt.Errorf("unrecognized backup suffix in %q", name)
	}

	if _, err := time.Parse(timestampLayout, rest); err != nil {
		return "", 0, false, fmt.Errorf("unrecognized backup timestamp in %q", name)
	}

	return rest, tag, sealed, nil
}
