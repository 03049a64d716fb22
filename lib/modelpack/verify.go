// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package modelpack

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// FileState is the verification outcome for one weight file.
type FileState int

const (
	// StateOK means the file exists and matches its pin.
	StateOK FileState = iota
	// StateMissing means the file is not on disk (whether or not it
	// was ever pinned).
	StateMissing
	// StateModified means the file exists but its digest does not
	// match the pin.
	StateModified
	// StateUnpinned means the file exists but has no recorded pin,
	// so there is nothing to verify it against.
	StateUnpinned
)

func (s FileState) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateMissing:
		return "missing"
	case StateModified:
		return "modified"
	case StateUnpinned:
		return "unpinned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FileStatus is the verification result for one weight file.
type FileStatus struct {
	Group    string
	Path     string // slash path relative to the models root
	State    FileState
	Required bool // from the group, so callers can grade severity
	Detail   string
}

// Verify checks every manifest file against the recorded pins and
// returns one status per file, in manifest order. Optional files
// that were never fetched are omitted; pins with no matching
// manifest entry are ignored. The error covers only I/O failures
// while reading files, never verification outcomes.
func (p *Pack) Verify() ([]FileStatus, error) {
	var statuses []FileStatus
	for _, group := range p.manifest.Groups {
		for _, file := range group.Files {
			pinPath := path.Join(group.Dir, file.Name)
			localPath := filepath.Join(p.modelsDir, group.Dir, file.Name)
			pin, pinned := p.sums[pinPath]

			_, statErr := os.Stat(localPath)
			exists := statErr == nil
			if statErr != nil && !os.IsNotExist(statErr) {
				return nil, fmt.Errorf("checking %s: %w", localPath, statErr)
			}

			status := FileStatus{Group: group.Name, Path: pinPath, Required: group.Required}
			switch {
			case exists && pinned:
				digest, _, err := DigestFile(localPath)
				if err != nil {
					return nil, fmt.Errorf("digesting %s: %w", localPath, err)
				}
				if digest == pin {
					status.State = StateOK
				} else {
					status.State = StateModified
					status.Detail = fmt.Sprintf("digest %s does not match pin %s",
						FormatDigest(digest)[:12], FormatDigest(pin)[:12])
				}
			case !exists && pinned:
				status.State = StateMissing
				status.Detail = "pinned but not on disk"
			case exists && !pinned:
				status.State = StateUnpinned
				status.Detail = "present but never pinned"
			default:
				if file.Optional {
					continue
				}
				status.State = StateMissing
				status.Detail = "never fetched"
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

// Problems splits the non-OK statuses by whether they belong to
// required groups. Required problems mean the kiosk page cannot
// start; optional problems are advisories.
func Problems(statuses []FileStatus) (required, optional []FileStatus) {
	for _, status := range statuses {
		if status.State == StateOK {
			continue
		}
		if status.Required {
			required = append(required, status)
		} else {
			optional = append(optional, status)
		}
	}
	return required, optional
}
