// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/facekiosk/facekiosk/lib/testutil"
)

// watchStore opens a store with the real clock: the watch loop's
// debounce sleeps on it.
func watchStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	store, err := Open(Options{
		RecordsDir: filepath.Join(root, "Record"),
		BackupsDir: filepath.Join(root, "Record", "BackUP"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWatchReportsSaves(t *testing.T) {
	store := watchStore(t)

	events, cleanup, err := store.Watch()
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer cleanup()

	if _, err := store.Save(CategoryAttendance, testRecords("Dana"), "test"); err != nil {
		t.Fatal(err)
	}
	got := testutil.RequireReceive(t, events, 5*time.Second, "waiting for attendance change")
	if got != CategoryAttendance {
		t.Errorf("event = %q, want attendance", got)
	}

	if _, err := store.Save(CategoryPunchIn, testRecords("Dana"), "test"); err != nil {
		t.Fatal(err)
	}
	got = testutil.RequireReceive(t, events, 5*time.Second, "waiting for punch-in change")
	if got != CategoryPunchIn {
		t.Errorf("event = %q, want punch-in", got)
	}
}

func TestWatchIgnoresForeignFiles(t *testing.T) {
	store := watchStore(t)

	events, cleanup, err := store.Watch()
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	// Files that are not category record files never produce events.
	testutil.WriteFile(t, filepath.Join(store.RecordsDir(), "scratch.txt"), "not a record file")

	select {
	case category := <-events:
		t.Fatalf("unexpected event for foreign file: %q", category)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchCleanupClosesChannel(t *testing.T) {
	store := watchStore(t)

	events, cleanup, err := store.Watch()
	if err != nil {
		t.Fatal(err)
	}

	// Idempotent: calling cleanup twice must not panic.
	cleanup()
	cleanup()

	// The loop notices the stop on its next poll tick and closes the
	// events channel.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel did not close after cleanup")
		}
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	store := watchStore(t)

	// Point a store at a directory that no longer exists.
	broken := &Store{
		recordsDir: filepath.Join(t.TempDir(), "gone"),
		clock:      store.clock,
		logger:     store.logger,
	}

	if _, _, err := broken.Watch(); err == nil {
		t.Fatal("Watch should fail when the records directory is missing")
	}
}
