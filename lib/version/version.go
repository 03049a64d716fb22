// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build metadata for the facekiosk binaries.
//
// Release builds inject values via -ldflags:
//
//	go build -ldflags "-X github.com/facekiosk/facekiosk/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Plain `go build` and `go install` builds fall back to the VCS stamps
// the toolchain embeds, so a checkout built without ldflags still
// reports its commit.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time. Empty values
// fall back to the module build info.
var (
	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"

	// GitCommit is the short git SHA of the build.
	GitCommit = ""

	// GitDirty is "true" when the build had uncommitted changes.
	GitDirty = ""

	// BuildTime is the UTC timestamp of the build.
	BuildTime = ""
)

// resolve fills any unset ldflags values from the toolchain's VCS
// stamps. Missing stamps (a tarball build, or a test binary) leave
// the fields empty for the callers to render as "unknown".
func resolve() (commit, dirty, builtAt string) {
	commit, dirty, builtAt = GitCommit, GitDirty, BuildTime

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, dirty, builtAt
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "" && len(setting.Value) >= 12 {
				commit = setting.Value[:12]
			}
		case "vcs.modified":
			if dirty == "" {
				dirty = setting.Value
			}
		case "vcs.time":
			if builtAt == "" {
				builtAt = setting.Value
			}
		}
	}
	return commit, dirty, builtAt
}

// Info returns a one-line version string suitable for --version output.
func Info() string {
	commit, dirty, builtAt := resolve()
	if commit == "" {
		commit = "unknown"
	}
	if builtAt == "" {
		builtAt = "unknown"
	}
	suffix := ""
	if dirty == "true" {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, builtAt)
}

// Full returns Info plus the Go version and target platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}
