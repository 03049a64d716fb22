// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/facekiosk/facekiosk/lib/clock"
)

// timestampLayout formats save timestamps for backup file names and
// API responses: YYYYMMDD_HHMMSS, local time. The format sorts
// lexicographically in chronological order, which backup rotation
// relies on.
const timestampLayout = "20060102_150405"

// Options configures a Store.
type Options struct {
	// RecordsDir is where the current category files live.
	RecordsDir string

	// BackupsDir is where timestamped backups are rotated.
	BackupsDir string

	// Keep is how many backups to retain per category. Zero disables
	// backups entirely.
	Keep int

	// Compression selects the backup codec: "none", "lz4", "zstd", or
	// "auto" (probe each payload). Empty means "auto".
	Compression string

	// Sealer, when non-nil, seals every backup. The Store owns the
	// Sealer and closes it on Store.Close.
	Sealer *Sealer

	// Clock supplies save timestamps. Defaults to the wall clock.
	Clock clock.Clock

	// Logger receives warnings for best-effort failures (journal
	// writes, backup pruning). Defaults to slog.Default().
	Logger *slog.Logger
}

// Store persists the kiosk's record categories.
type Store struct {
	recordsDir string
	backupsDir string
	keep       int

	compressionAuto bool
	compressionTag  CompressionTag

	sealer  *Sealer
	clock   clock.Clock
	logger  *slog.Logger
	journal *journal
}

// SaveResult reports what a Save wrote.
type SaveResult struct {
	Category  Category `json:"category"`
	Count     int      `json:"count"`
	Timestamp string   `json:"timestamp"`
	Path      string   `json:"path"`

	// BackupPath is empty when backups are disabled (Keep is zero).
	BackupPath string `json:"backup_path,omitempty"`

	// Compression is the codec the backup was written with.
	Compression string `json:"compression,omitempty"`

	// Sealed reports whether the backup was encrypted.
	Sealed bool `json:"sealed,omitempty"`
}

// Open opens a record store, creating the records and backups
// directories if needed.
func Open(options Options) (*Store, error) {
	if options.RecordsDir == "" {
		return nil, fmt.Errorf("records directory is required")
	}
	if options.BackupsDir == "" {
		return nil, fmt.Errorf("backups directory is required")
	}
	if options.Keep < 0 {
		return nil, fmt.Errorf("keep count must not be negative, got %d", options.Keep)
	}

	store := &Store{
		recordsDir: options.RecordsDir,
		backupsDir: options.BackupsDir,
		keep:       options.Keep,
		sealer:     options.Sealer,
		clock:      options.Clock,
		logger:     options.Logger,
	}

	switch options.Compression {
	case "", "auto":
		store.compressionAuto = true
	default:
		tag, err := ParseCompressionTag(options.Compression)
		if err != nil {
			return nil, err
		}
		store.compressionTag = tag
	}

	if store.clock == nil {
		store.clock = clock.Real()
	}
	if store.logger == nil {
		store.logger = slog.Default()
	}

	for _, directory := range []string{store.recordsDir, store.backupsDir} {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", directory, err)
		}
	}

	journal, err := openJournal(filepath.Join(store.recordsDir, journalFileName))
	if err != nil {
		// The journal is an audit convenience, not the source of
		// truth. A store that cannot journal still saves records.
		store.logger.Warn("save journal unavailable", "error", err)
	} else {
		store.journal = journal
	}

	return store, nil
}

// Close releases the journal file handle and the sealing key.
func (s *Store) Close() error {
	var firstError error
	if s.journal != nil {
		if err := s.journal.close(); err != nil && firstError == nil {
			firstError = err
		}
	}
	if s.sealer != nil {
		if err := s.sealer.Close(); err != nil && firstError == nil {
			firstError = err
		}
	}
	return firstError
}

// Save replaces the category's record file with the given records and
// writes a timestamped backup. The current file is replaced atomically
// (temp file + rename in the same directory), so the browser page
// never observes a half-written file. Backups beyond the keep count
// are pruned, oldest first.
//
// The source describes where the records came from (a client address
// for uploads, "import" for bundle restores) and is recorded in the
// save journal.
func (s *Store) Save(category Category, records []json.RawMessage, source string) (*SaveResult, error) {
	if _, ok := categoryTable[category]; !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	// Null entries do not survive a round trip as records; reject
	// them rather than persisting "null" literals.
	for index, record := range records {
		if len(record) == 0 || string(record) == "null" {
			return nil, fmt.Errorf("record %d is null", index)
		}
	}

	// A nil slice marshals as "null"; the current file must always be
	// a JSON array (the browser page fetches and parses it directly).
	if records == nil {
		records = []json.RawMessage{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}

	timestamp := s.clock.Now().Format(timestampLayout)
	recordPath := filepath.Join(s.recordsDir, category.FileName())

	if err := writeFileAtomic(recordPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", recordPath, err)
	}

	result := &SaveResult{
		Category:  category,
		Count:     len(records),
		Timestamp: timestamp,
		Path:      recordPath,
	}

	if s.keep > 0 {
		backupPath, tag, sealed, err := s.writeBackup(category, data, timestamp)
		if err != nil {
			return nil, fmt.Errorf("writing backup: %w", err)
		}
		result.BackupPath = backupPath
		result.Compression = tag.String()
		result.Sealed = sealed

		s.pruneBackups(category)
	}

	s.appendJournal(JournalEntry{
		Time:      s.clock.Now(),
		Category:  category.String(),
		Count:     len(records),
		Timestamp: timestamp,
		Source:    source,
	})

	return result, nil
}

// Load reads the category's current records. A missing file is not an
// error: it returns an empty slice, matching a kiosk that has not
// saved that category yet.
func (s *Store) Load(category Category) ([]json.RawMessage, error) {
	if _, ok := categoryTable[category]; !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	data, err := os.ReadFile(filepath.Join(s.recordsDir, category.FileName()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []json.RawMessage{}, nil
		}
		return nil, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", category.FileName(), err)
	}
	return records, nil
}

// CategoryStatus summarizes one category's current file.
type CategoryStatus struct {
	Category Category  `json:"category"`
	Exists   bool      `json:"exists"`
	Count    int       `json:"count"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modified,omitempty"`
	Backups  int       `json:"backups"`
}

// Status reports every category's current file and backup count, in
// display order. Categories whose files are missing or unparsable are
// reported with Exists=false or Count=-1 rather than failing the whole
// listing.
func (s *Store) Status() []CategoryStatus {
	statuses := make([]CategoryStatus, 0, len(categoryOrder))
	for _, category := range categoryOrder {
		status := CategoryStatus{Category: category}

		info, err := os.Stat(filepath.Join(s.recordsDir, category.FileName()))
		if err == nil {
			status.Exists = true
			status.Size = info.Size()
			status.ModTime = info.ModTime()

			records, err := s.Load(category)
			if err != nil {
				status.Count = -1
			} else {
				status.Count = len(records)
			}
		}

		backups, err := s.ListBackups(category)
		if err == nil {
			status.Backups = len(backups)
		}

		statuses = append(statuses, status)
	}
	return statuses
}

// RecordsDir returns the directory holding the current category files.
func (s *Store) RecordsDir() string {
	return s.recordsDir
}

// JournalPath returns the save journal's file path, whether or not
// the journal opened successfully.
func (s *Store) JournalPath() string {
	return filepath.Join(s.recordsDir, journalFileName)
}

// BackupsDir returns the directory holding rotated backups.
func (s *Store) BackupsDir() string {
	return s.backupsDir
}

// Sealed reports whether backups are sealed with a master key.
func (s *Store) Sealed() bool {
	return s.sealer != nil
}

// appendJournal records a save in the journal, best effort. Journal
// failures never fail a save.
func (s *Store) appendJournal(entry JournalEntry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.append(entry); err != nil {
		s.logger.Warn("journal append failed", "category", entry.Category, "error", err)
	}
}

// writeFileAtomic writes data to path via a temp file in the same
// directory plus rename, so readers never observe a partial write.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	directory := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(directory, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Chmod(mode); err != nil {
		tmpFile.Close()
		return fmt.Errorf("setting mode on temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}

	success = true
	return nil
}
