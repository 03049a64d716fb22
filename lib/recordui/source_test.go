// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/facekiosk/facekiosk/lib/recordstore"
	"github.com/facekiosk/facekiosk/lib/testutil"
)

// testStoreSource opens a real store in a temp directory and wraps it.
func testStoreSource(t *testing.T) (*StoreSource, *recordstore.Store) {
	t.Helper()

	root := t.TempDir()
	store, err := recordstore.Open(recordstore.Options{
		RecordsDir: filepath.Join(root, "Record"),
		BackupsDir: filepath.Join(root, "Record", "BackUP"),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	source := NewStoreSource(store)
	t.Cleanup(source.Close)
	return source, store
}

func saveNames(t *testing.T, store *recordstore.Store, category recordstore.Category, names ...string) {
	t.Helper()
	records := make([]json.RawMessage, len(names))
	for index, name := range names {
		records[index] = json.RawMessage(`{"name":"` + name + `","time":"2026-02-11 09:00:12"}`)
	}
	if _, err := store.Save(category, records, "test"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func TestParseRowObject(t *testing.T) {
	raw := json.RawMessage(`{"name":" Aarav Sharma ","time":"2026-02-11 09:00:12","status":"Present","extra":42}`)
	row := parseRow(raw)

	if row.Name != "Aarav Sharma" {
		t.Errorf("expected trimmed name, got %q", row.Name)
	}
	if row.Time != "2026-02-11 09:00:12" {
		t.Errorf("unexpected time %q", row.Time)
	}
	if row.Status != "Present" {
		t.Errorf("unexpected status %q", row.Status)
	}
	if string(row.Raw) != string(raw) {
		t.Error("Raw should carry the record unchanged")
	}
}

func TestParseRowBareString(t *testing.T) {
	row := parseRow(json.RawMessage(`"Priya Patel"`))
	if row.Name != "Priya Patel" {
		t.Errorf("bare string record should become the name, got %q", row.Name)
	}
}

func TestParseRowFallbacks(t *testing.T) {
	cases := []struct {
		label string
		raw   string
	}{
		{"empty object", `{}`},
		{"null", `null`},
		{"number", `42`},
		{"blank name", `{"name":"   "}`},
	}
	for _, testCase := range cases {
		row := parseRow(json.RawMessage(testCase.raw))
		if row.Name != "(unnamed)" {
			t.Errorf("%s: expected (unnamed), got %q", testCase.label, row.Name)
		}
	}
}

func TestStoreSourceRows(t *testing.T) {
	source, store := testStoreSource(t)
	saveNames(t, store, recordstore.CategoryAttendance, "Aarav Sharma", "Priya Patel")

	rows, err := source.Rows(recordstore.CategoryAttendance)
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "Aarav Sharma" || rows[1].Name != "Priya Patel" {
		t.Errorf("rows out of order: %q, %q", rows[0].Name, rows[1].Name)
	}
}

func TestStoreSourceRowsEmptyCategory(t *testing.T) {
	source, _ := testStoreSource(t)

	rows, err := source.Rows(recordstore.CategoryPunchIn)
	if err != nil {
		t.Fatalf("Rows on a missing file should not fail: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestStoreSourceCounts(t *testing.T) {
	source, store := testStoreSource(t)
	saveNames(t, store, recordstore.CategoryAttendance, "Aarav Sharma", "Priya Patel", "Vikram Rao")
	saveNames(t, store, recordstore.CategoryOnline, "Aarav Sharma")

	counts := source.Counts()
	if counts[recordstore.CategoryAttendance] != 3 {
		t.Errorf("expected 3 attendance records, got %d", counts[recordstore.CategoryAttendance])
	}
	if counts[recordstore.CategoryOnline] != 1 {
		t.Errorf("expected 1 online record, got %d", counts[recordstore.CategoryOnline])
	}
	if counts[recordstore.CategoryPunchIn] != 0 {
		t.Errorf("missing category should count 0, got %d", counts[recordstore.CategoryPunchIn])
	}
}

func TestStoreSourceSubscribeWithoutWatch(t *testing.T) {
	source, _ := testStoreSource(t)
	if source.Subscribe() != nil {
		t.Error("Subscribe should return nil before StartWatch")
	}
}

func TestStoreSourceWatchDeliversChanges(t *testing.T) {
	source, store := testStoreSource(t)

	if err := source.StartWatch(); err != nil {
		t.Fatalf("StartWatch failed: %v", err)
	}
	events := source.Subscribe()
	if events == nil {
		t.Fatal("Subscribe should return the watch channel after StartWatch")
	}

	saveNames(t, store, recordstore.CategoryPunchIn, "Aarav Sharma")

	category := testutil.RequireReceive(t, events, 5*time.Second, "waiting for change event")
	if category != recordstore.CategoryPunchIn {
		t.Errorf("expected punch-in event, got %s", category)
	}
}
