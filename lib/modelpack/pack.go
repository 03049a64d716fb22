// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package modelpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/facekiosk/facekiosk/lib/netutil"
)

// maxWeightSize bounds a single downloaded weight file. The largest
// real face-api shard is about 4 MiB; anything approaching this limit
// is a broken or hostile origin, not a model.
const maxWeightSize int64 = 256 << 20

// Action classifies what happened to one weight file during a fetch.
type Action int

const (
	// ActionFetched means the file was downloaded and pinned.
	ActionFetched Action = iota
	// ActionSkipped means the file was already present and matched
	// its pin.
	ActionSkipped
	// ActionPinned means a file that existed locally without a pin
	// (copied in by hand, or left over from an interrupted run) was
	// digested and pinned as-is.
	ActionPinned
	// ActionMissing means an optional file is not published upstream.
	ActionMissing
)

func (a Action) String() string {
	switch a {
	case ActionFetched:
		return "fetched"
	case ActionSkipped:
		return "skipped"
	case ActionPinned:
		return "pinned"
	case ActionMissing:
		return "missing"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Event reports progress on a single weight file. Events are
// delivered synchronously from the fetching goroutine.
type Event struct {
	Group  string
	File   string
	Action Action
	// Bytes is the file size for fetched files, zero otherwise.
	Bytes int64
}

// Options configures a Pack.
type Options struct {
	// BaseURL is the upstream weights origin. Empty means
	// DefaultBaseURL.
	BaseURL string

	// ModelsDir is the local models root. Each group gets a
	// subdirectory here, and the models.sum pin file sits at the
	// top.
	ModelsDir string

	// Manifest lists the groups. Nil means Default().
	Manifest *Manifest

	// Client is the HTTP client for downloads. Nil means
	// http.DefaultClient; cancellation comes from the fetch
	// context either way.
	Client *http.Client

	// Logger is required.
	Logger *slog.Logger

	// Progress, when set, receives an Event per weight file.
	Progress func(Event)
}

// Pack manages the local model weights directory: fetching files
// from upstream, pinning their digests, and verifying the tree
// against the pins.
type Pack struct {
	baseURL   string
	modelsDir string
	manifest  *Manifest
	client    *http.Client
	logger    *slog.Logger
	progress  func(Event)
	sumsPath  string
	sums      Sums
}

// New creates a Pack and loads any existing pins from the models.sum
// file under options.ModelsDir.
func New(options Options) (*Pack, error) {
	if options.ModelsDir == "" {
		return nil, fmt.Errorf("models directory is required")
	}
	if options.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	pack := &Pack{
		baseURL:   strings.TrimSuffix(options.BaseURL, "/"),
		modelsDir: options.ModelsDir,
		manifest:  options.Manifest,
		client:    options.Client,
		logger:    options.Logger,
		progress:  options.Progress,
		sumsPath:  filepath.Join(options.ModelsDir, SumsFileName),
	}
	if pack.baseURL == "" {
		pack.baseURL = DefaultBaseURL
	}
	if pack.manifest == nil {
		pack.manifest = Default()
	}
	if pack.client == nil {
		pack.client = http.DefaultClient
	}

	sums, err := ReadSums(pack.sumsPath)
	if err != nil {
		return nil, err
	}
	pack.sums = sums
	return pack, nil
}

// Manifest returns the manifest the pack operates on.
func (p *Pack) Manifest() *Manifest {
	return p.manifest
}

// FetchAll fetches every group in the manifest, in manifest order.
func (p *Pack) FetchAll(ctx context.Context, force bool) error {
	for i := range p.manifest.Groups {
		if err := p.fetchGroup(ctx, &p.manifest.Groups[i], force); err != nil {
			return err
		}
	}
	return nil
}

// FetchGroup fetches a single named group. With force set, files are
// redownloaded even when they match their pins.
func (p *Pack) FetchGroup(ctx context.Context, name string, force bool) error {
	group, err := p.manifest.Group(name)
	if err != nil {
		return err
	}
	return p.fetchGroup(ctx, group, force)
}

func (p *Pack) fetchGroup(ctx context.Context, group *Group, force bool) error {
	dir := filepath.Join(p.modelsDir, group.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating model directory %s: %w", dir, err)
	}

	for _, file := range group.Files {
		if err := p.fetchFile(ctx, group, file, force); err != nil {
			return fmt.Errorf("model group %s: %w", group.Name, err)
		}
	}
	p.logger.Info("model group ready", "group", group.Name, "files", len(group.Files))
	return nil
}

func (p *Pack) fetchFile(ctx context.Context, group *Group, file ModelFile, force bool) error {
	pinPath := path.Join(group.Dir, file.Name)
	localPath := filepath.Join(p.modelsDir, group.Dir, file.Name)

	if !force {
		if _, err := os.Stat(localPath); err == nil {
			pin, pinned := p.sums[pinPath]
			if !pinned {
				// Trust on first use extends to files that arrived
				// by other means (offline copy, interrupted fetch):
				// pin what is present instead of redownloading over
				// it.
				digest, size, err := DigestFile(localPath)
				if err != nil {
					return fmt.Errorf("digesting existing %s: %w", localPath, err)
				}
				if err := p.pin(pinPath, digest); err != nil {
					return err
				}
				p.event(Event{Group: group.Name, File: file.Name, Action: ActionPinned, Bytes: size})
				return nil
			}
			digest, _, err := DigestFile(localPath)
			if err != nil {
				return fmt.Errorf("digesting existing %s: %w", localPath, err)
			}
			if digest == pin {
				p.event(Event{Group: group.Name, File: file.Name, Action: ActionSkipped})
				return nil
			}
			p.logger.Warn("weight file does not match its pin, refetching",
				"file", pinPath)
		}
	}

	size, digest, err := p.download(ctx, file.Name, localPath)
	if err != nil {
		if file.Optional && isNotFound(err) {
			p.event(Event{Group: group.Name, File: file.Name, Action: ActionMissing})
			return nil
		}
		return err
	}

	if err := p.pin(pinPath, digest); err != nil {
		return err
	}
	p.event(Event{Group: group.Name, File: file.Name, Action: ActionFetched, Bytes: size})
	return nil
}

// notFoundError marks a 404 so optional files can tolerate it.
type notFoundError struct {
	url string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("fetching %s: not found", e.url)
}

func isNotFound(err error) bool {
	var notFound *notFoundError
	return errors.As(err, &notFound)
}

// download streams one weight file to localPath via a temp file,
// hashing as it writes, and renames it into place on success.
func (p *Pack) download(ctx context.Context, name, localPath string) (int64, Digest, error) {
	url := p.baseURL + "/" + name
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, Digest{}, fmt.Errorf("building request for %s: %w", url, err)
	}

	response, err := p.client.Do(request)
	if err != nil {
		return 0, Digest{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return 0, Digest{}, &notFoundError{url: url}
	}
	if response.StatusCode != http.StatusOK {
		detail := netutil.ErrorBody(response.Body)
		if detail != "" {
			return 0, Digest{}, fmt.Errorf("fetching %s: %s: %s", url, response.Status, detail)
		}
		return 0, Digest{}, fmt.Errorf("fetching %s: %s", url, response.Status)
	}

	dir := filepath.Dir(localPath)
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return 0, Digest{}, fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	hasher := newHasher()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(response.Body, maxWeightSize+1))
	if err != nil {
		return 0, Digest{}, fmt.Errorf("downloading %s: %w", url, err)
	}
	if written > maxWeightSize {
		return 0, Digest{}, fmt.Errorf("downloading %s: response exceeds %d bytes", url, maxWeightSize)
	}

	if err := tmp.Chmod(0o644); err != nil {
		return 0, Digest{}, fmt.Errorf("setting mode on %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return 0, Digest{}, fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return 0, Digest{}, fmt.Errorf("renaming %s into place: %w", tmp.Name(), err)
	}
	success = true

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return written, digest, nil
}

// pin records a digest and rewrites the pin file. Writing after
// every file means an interrupted fetch keeps the pins for
// everything already downloaded.
func (p *Pack) pin(pinPath string, digest Digest) error {
	p.sums[pinPath] = digest
	if err := WriteSums(p.sumsPath, p.sums); err != nil {
		return fmt.Errorf("recording pin for %s: %w", pinPath, err)
	}
	return nil
}

func (p *Pack) event(event Event) {
	p.logger.Debug("model file "+event.Action.String(),
		"group", event.Group, "file", event.File, "bytes", event.Bytes)
	if p.progress != nil {
		p.progress(event)
	}
}
