// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"fmt"
)

// Category identifies one of the kiosk's record collections. Each
// category maps to a fixed JSON file name in the records directory and
// a backup file prefix in the backups directory. The file names are
// part of the contract with the browser page and must not change.
type Category string

const (
	// CategoryAttendance is the daily attendance log.
	CategoryAttendance Category = "attendance"

	// CategoryPunchIn holds punch-in events.
	CategoryPunchIn Category = "punch-in"

	// CategoryPunchOut holds punch-out events.
	CategoryPunchOut Category = "punch-out"

	// CategoryOnline tracks who is currently on site.
	CategoryOnline Category = "currently-online"
)

// categoryInfo holds the per-category file naming contract.
type categoryInfo struct {
	fileName     string
	backupPrefix string
}

var categoryTable = map[Category]categoryInfo{
	CategoryAttendance: {fileName: "Local.json", backupPrefix: "backup_"},
	CategoryPunchIn:    {fileName: "Punch_in.json", backupPrefix: "punch_in_backup_"},
	CategoryPunchOut:   {fileName: "Punch_out.json", backupPrefix: "punch_out_backup_"},
	CategoryOnline:     {fileName: "Currently_online.json", backupPrefix: "currently_online_backup_"},
}

// categoryOrder is the display and iteration order.
var categoryOrder = []Category{
	CategoryAttendance,
	CategoryPunchIn,
	CategoryPunchOut,
	CategoryOnline,
}

// Categories returns all categories in display order.
func Categories() []Category {
	result := make([]Category, len(categoryOrder))
	copy(result, categoryOrder)
	return result
}

// ParseCategory parses a category from its string name.
func ParseCategory(name string) (Category, error) {
	category := Category(name)
	if _, ok := categoryTable[category]; !ok {
		return "", fmt.Errorf("unknown category %q (valid: attendance, punch-in, punch-out, currently-online)", name)
	}
	return category, nil
}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// FileName returns the category's record file name, e.g. "Local.json"
// for attendance.
func (c Category) FileName() string {
	return categoryTable[c].fileName
}

// BackupPrefix returns the prefix used for the category's timestamped
// backup files, e.g. "backup_" for attendance.
func (c Category) BackupPrefix() string {
	return categoryTable[c].backupPrefix
}

// CategoryForFile returns the category whose record file has the given
// base name, if any. Used by the change watcher to map inotify events
// back to categories.
func CategoryForFile(fileName string) (Category, bool) {
	for category, info := range categoryTable {
		if info.fileName == fileName {
			return category, true
		}
	}
	return "", false
}
