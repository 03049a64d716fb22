// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordui implements the interactive terminal browser for
// attendance records, served by `facekiosk records browse`.
//
// The layout is two panes: a record list on the left (one row per
// record in the active category, fuzzy-filterable) and a detail pane
// on the right showing the selected record's full JSON with syntax
// highlighting. A category bar across the top switches between the
// attendance, punch-in, punch-out, and currently-online files.
//
// The browser reads through a [Source] rather than touching files
// directly. The production source wraps a recordstore.Store and feeds
// the store's inotify watch channel into the bubbletea event loop, so
// records saved by a running kiosk appear in the list without a manual
// reload.
package recordui
