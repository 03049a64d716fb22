// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

// setBuildVars overrides the ldflags variables for a test and restores
// them on cleanup.
func setBuildVars(t *testing.T, version, commit, dirty, builtAt string) {
	t.Helper()
	savedVersion, savedCommit := Version, GitCommit
	savedDirty, savedTime := GitDirty, BuildTime
	t.Cleanup(func() {
		Version, GitCommit = savedVersion, savedCommit
		GitDirty, BuildTime = savedDirty, savedTime
	})
	Version, GitCommit = version, commit
	GitDirty, BuildTime = dirty, builtAt
}

func TestInfoWithLdflags(t *testing.T) {
	setBuildVars(t, "1.2.3", "abc123def456", "false", "2026-01-02T15:04:05Z")

	got := Info()
	want := "1.2.3 (abc123def456, 2026-01-02T15:04:05Z)"
	if got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestInfoDirtySuffix(t *testing.T) {
	setBuildVars(t, "1.2.3", "abc123def456", "true", "2026-01-02T15:04:05Z")

	got := Info()
	if !strings.Contains(got, "abc123def456-dirty") {
		t.Errorf("Info() = %q, want -dirty suffix on the commit", got)
	}
}

func TestInfoUnsetValues(t *testing.T) {
	// With nothing injected and no VCS stamps (test binaries are not
	// stamped), the commit and build time render as "unknown" rather
	// than leaving empty slots in the string.
	setBuildVars(t, "1.2.3", "", "", "")

	got := Info()
	if !strings.HasPrefix(got, "1.2.3 (") {
		t.Errorf("Info() = %q, want %q prefix", got, "1.2.3 (")
	}
	if strings.Contains(got, "(,") || strings.Contains(got, ", )") {
		t.Errorf("Info() = %q has an empty field", got)
	}
}

func TestFullContainsPlatform(t *testing.T) {
	full := Full()
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q, want platform %s/%s", full, runtime.GOOS, runtime.GOARCH)
	}
	if !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() = %q, want Go version %s", full, runtime.Version())
	}
}

func TestShort(t *testing.T) {
	setBuildVars(t, "9.9.9", "", "", "")
	if got := Short(); got != "9.9.9" {
		t.Errorf("Short() = %q, want %q", got, "9.9.9")
	}
}
