// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/facekiosk/facekiosk/lib/codec"
)

// journalFileName is the save journal's file name inside the records
// directory.
const journalFileName = "journal.cbor"

// JournalEntry records one accepted save. Entries are appended to the
// journal as a CBOR sequence; the journal is an audit trail, never
// read back to serve records. The json tags also name the CBOR fields,
// per the lib/codec tag rules, and serve "records log --json" output.
type JournalEntry struct {
	Time      time.Time `json:"time"`
	Category  string    `json:"category"`
	Count     int       `json:"count"`
	Timestamp string    `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
}

// journal appends save entries to an open file handle. Appends are
// serialized: the kiosk server saves from concurrent request
// handlers.
type journal struct {
	mu      sync.Mutex
	file    *os.File
	encoder *codec.Encoder
}

// openJournal opens (or creates) the journal for appending.
func openJournal(path string) (*journal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &journal{
		file:    file,
		encoder: codec.NewEncoder(file),
	}, nil
}

func (j *journal) append(entry JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.encoder.Encode(entry)
}

func (j *journal) close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// ReadJournal decodes the journal at path. A truncated or corrupt
// tail is reported as an error alongside the entries that decoded
// cleanly, so an audit view can show what survives.
func ReadJournal(path string) ([]JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := codec.NewDecoder(file)
	var entries []JournalEntry
	for {
		var entry JournalEntry
		if err := decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return entries, fmt.Errorf("journal entry %d: %w", len(entries), err)
		}
		entries = append(entries, entry)
	}
}
