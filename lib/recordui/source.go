// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import (
	"encoding/json"
	"strings"

	"github.com/facekiosk/facekiosk/lib/recordstore"
)

// Row is one record prepared for list display. Name, Time, and Status
// are extracted from the record's conventional fields when present;
// Raw always carries the record exactly as stored so the detail pane
// can show fields the list does not know about.
type Row struct {
	Name   string
	Time   string
	Status string
	Raw    json.RawMessage
}

// rowFields covers the keys the capture page writes. Records are
// free-form JSON, so every field is optional.
type rowFields struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

// parseRow extracts display fields from a stored record. Object
// records use their name/time/status keys; bare string records (the
// currently-online file stores plain names) become the name directly.
// Records with no usable name render as "(unnamed)".
func parseRow(raw json.RawMessage) Row {
	row := Row{Raw: raw}

	var fields rowFields
	if err := json.Unmarshal(raw, &fields); err == nil {
		row.Name = strings.TrimSpace(fields.Name)
		row.Time = strings.TrimSpace(fields.Time)
		row.Status = strings.TrimSpace(fields.Status)
	} else {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			row.Name = strings.TrimSpace(name)
		}
	}

	if row.Name == "" {
		row.Name = "(unnamed)"
	}
	return row
}

// Source abstracts record access for the browser. The production
// implementation is [StoreSource]; tests substitute an in-memory one.
type Source interface {
	// Rows returns the display rows for one category, in file order.
	Rows(category recordstore.Category) ([]Row, error)

	// Counts returns the record count per category for the category
	// bar. Categories whose files are missing report zero; unparsable
	// files report a negative count.
	Counts() map[recordstore.Category]int

	// Subscribe returns a channel that receives the changed category
	// when the underlying data changes. Returns nil if live updates
	// are not available.
	Subscribe() <-chan recordstore.Category
}

// StoreSource adapts a recordstore.Store to the browser's Source
// interface.
type StoreSource struct {
	store  *recordstore.Store
	events <-chan recordstore.Category
	stop   func()
}

// NewStoreSource wraps an open store. Live updates stay off until
// StartWatch is called.
func NewStoreSource(store *recordstore.Store) *StoreSource {
	return &StoreSource{store: store}
}

// Rows loads one category's records and prepares them for display.
func (s *StoreSource) Rows(category recordstore.Category) ([]Row, error) {
	records, err := s.store.Load(category)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(records))
	for index, record := range records {
		rows[index] = parseRow(record)
	}
	return rows, nil
}

// Counts reports the per-category record counts from the store's
// status summary.
func (s *StoreSource) Counts() map[recordstore.Category]int {
	counts := make(map[recordstore.Category]int)
	for _, status := range s.store.Status() {
		counts[status.Category] = status.Count
	}
	return counts
}

// StartWatch begins monitoring the records directory so Subscribe
// delivers change events. Safe to skip: without it the browser still
// works, it just needs manual reloads.
func (s *StoreSource) StartWatch() error {
	events, stop, err := s.store.Watch()
	if err != nil {
		return err
	}
	s.events = events
	s.stop = stop
	return nil
}

// Subscribe returns the watch channel, or nil when StartWatch has not
// run (or failed).
func (s *StoreSource) Subscribe() <-chan recordstore.Category {
	return s.events
}

// Close stops the watcher if one is running.
func (s *StoreSource) Close() {
	if s.stop != nil {
		s.stop()
	}
}
