// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package webapp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facekiosk/facekiosk/lib/clock"
)

// stubOpener installs a shell script as the browser opener that
// records its invocation by creating a marker file.
func stubOpener(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	marker := filepath.Join(dir, "opened")
	script := filepath.Join(dir, "opener.sh")

	content := "#!/bin/sh\ntouch " + marker + "\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}

	previous := browserOpener
	browserOpener = script
	t.Cleanup(func() { browserOpener = previous })
	return marker
}

func TestOpenBrowserWaitsForDelay(t *testing.T) {
	marker := stubOpener(t)
	fake := clock.Fake(time.Now())

	server := &Server{
		config: Config{
			BrowserDelay: time.Minute,
			Clock:        fake,
			Logger:       testLogger(),
		},
		url: "http://localhost:8000",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.openBrowser(ctx)

	// Wait until the goroutine is parked on the delay timer.
	for i := 0; i < 100 && fake.PendingWaiters() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	if fake.PendingWaiters() == 0 {
		t.Fatal("openBrowser never armed the delay timer")
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("opener ran before the delay elapsed")
	}

	fake.Advance(time.Minute)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("opener did not run after the delay elapsed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOpenBrowserCancelled(t *testing.T) {
	marker := stubOpener(t)
	fake := clock.Fake(time.Now())

	server := &Server{
		config: Config{
			BrowserDelay: time.Minute,
			Clock:        fake,
			Logger:       testLogger(),
		},
		url: "http://localhost:8000",
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		server.openBrowser(ctx)
		close(done)
	}()

	for i := 0; i < 100 && fake.PendingWaiters() == 0; i++ {
		time.Sleep(time.Millisecond)
	}

	// Cancelling before the delay elapses must skip the opener.
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("openBrowser did not return on cancellation")
	}

	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("opener ran despite cancellation")
	}
}
