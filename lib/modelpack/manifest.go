// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package modelpack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// DefaultBaseURL is the upstream location of the face-api.js weight
// files. All files are published flat under this URL regardless of
// which network they belong to.
const DefaultBaseURL = "https://github.com/justadudewhohacks/face-api.js/raw/master/weights"

// ModelFile is a single weight file within a group. Optional files
// are fetched opportunistically: a 404 from upstream is recorded and
// skipped rather than failing the fetch. Upstream splits some models
// into a variable number of shards, so the trailing shard of a model
// may or may not exist.
type ModelFile struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional,omitempty"`
}

// Group is one neural network: a named set of weight files that
// face-api.js loads from a single directory under the models root.
// Required groups must be present and intact for the kiosk page to
// start; optional groups only serve auxiliary pages.
type Group struct {
	Name     string      `json:"name"`
	Dir      string      `json:"dir"`
	Files    []ModelFile `json:"files"`
	Required bool        `json:"required,omitempty"`
}

// Manifest lists every model group the kiosk can use.
type Manifest struct {
	Groups []Group `json:"groups"`
}

// Group returns the named group, or an error listing the known
// groups.
func (m *Manifest) Group(name string) (*Group, error) {
	for i := range m.Groups {
		if m.Groups[i].Name == name {
			return &m.Groups[i], nil
		}
	}
	names := make([]string, len(m.Groups))
	for i, group := range m.Groups {
		names[i] = group.Name
	}
	return nil, fmt.Errorf("unknown model group %q (known groups: %s)", name, strings.Join(names, ", "))
}

// Default returns the built-in manifest covering the networks the
// kiosk pages load. The detector, landmark, and recognition models
// are required by the recognition page; the SSD MobileNet detector
// is kept for the higher-accuracy capture page and is therefore not
// required.
func Default() *Manifest {
	return &Manifest{
		Groups: []Group{
			{
				Name:     "tiny_face_detector",
				Dir:      "tiny_face_detector",
				Required: true,
				Files: []ModelFile{
					{Name: "tiny_face_detector_model-weights_manifest.json"},
					{Name: "tiny_face_detector_model-shard1"},
				},
			},
			{
				Name:     "face_landmark_68",
				Dir:      "face_landmark_68",
				Required: true,
				Files: []ModelFile{
					{Name: "face_landmark_68_model-weights_manifest.json"},
					{Name: "face_landmark_68_model-shard1"},
				},
			},
			{
				Name:     "face_recognition",
				Dir:      "face_recognition",
				Required: true,
				Files: []ModelFile{
					{Name: "face_recognition_model-weights_manifest.json"},
					{Name: "face_recognition_model-shard1"},
					{Name: "face_recognition_model-shard2"},
				},
			},
			{
				Name: "ssd_mobilenetv1",
				Dir:  "ssd_mobilenetv1",
				Files: []ModelFile{
					{Name: "ssd_mobilenetv1_model-weights_manifest.json"},
					{Name: "ssd_mobilenetv1_model-shard1"},
					{Name: "ssd_mobilenetv1_model-shard2", Optional: true},
				},
			},
		},
	}
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals and validates the result. The on-disk manifest format is
// JSON extended with // line comments, /* block comments */, and
// trailing commas.
func Parse(data []byte) (*Manifest, error) {
	stripped := jsonc.ToJSON(data)

	var manifest Manifest
	if err := json.Unmarshal(stripped, &manifest); err != nil {
		return nil, fmt.Errorf("parsing model manifest: %w", err)
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// ReadFile reads a JSONC manifest from disk and parses it. The error
// wraps fs.ErrNotExist when the file is absent so callers can fall
// back to the built-in default.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	manifest, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, nil
}

// Load reads the manifest at path, falling back to the built-in
// default when path is empty or the file does not exist. The default
// path is created by no installer, so the fallback is the common
// case; a present-but-broken manifest is still an error.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return Default(), nil
	}
	manifest, err := ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return manifest, err
}

func (m *Manifest) validate() error {
	if len(m.Groups) == 0 {
		return fmt.Errorf("model manifest has no groups")
	}
	seenGroups := make(map[string]bool, len(m.Groups))
	for i, group := range m.Groups {
		if group.Name == "" {
			return fmt.Errorf("model group %d has no name", i)
		}
		if seenGroups[group.Name] {
			return fmt.Errorf("duplicate model group %q", group.Name)
		}
		seenGroups[group.Name] = true

		if err := validatePathComponent(group.Dir); err != nil {
			return fmt.Errorf("model group %q: dir: %w", group.Name, err)
		}
		if len(group.Files) == 0 {
			return fmt.Errorf("model group %q has no files", group.Name)
		}
		seenFiles := make(map[string]bool, len(group.Files))
		for _, file := range group.Files {
			if err := validatePathComponent(file.Name); err != nil {
				return fmt.Errorf("model group %q: file: %w", group.Name, err)
			}
			if seenFiles[file.Name] {
				return fmt.Errorf("model group %q: duplicate file %q", group.Name, file.Name)
			}
			seenFiles[file.Name] = true
		}
	}
	return nil
}

// validatePathComponent rejects names that could escape the models
// root or break the models.sum line format. Manifest entries become
// both local paths and URL path segments, so they must be plain
// names.
func validatePathComponent(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name is empty")
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("%q contains a path separator", name)
	case name == "." || name == "..":
		return fmt.Errorf("%q is not a file name", name)
	case strings.ContainsAny(name, " \t"):
		return fmt.Errorf("%q contains whitespace", name)
	}
	return nil
}
