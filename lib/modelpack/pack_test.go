// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package modelpack

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// weightsOrigin is a stand-in for the upstream weights host: a flat
// map of file names to contents served under /weights/.
type weightsOrigin struct {
	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

func newWeightsOrigin(files map[string][]byte) *weightsOrigin {
	return &weightsOrigin{files: files, hits: make(map[string]int)}
}

func (o *weightsOrigin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/weights/")
	o.mu.Lock()
	o.hits[name]++
	content, ok := o.files[name]
	o.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(content)
}

func (o *weightsOrigin) hitCount(name string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[name]
}

func testWeightFiles() map[string][]byte {
	return map[string][]byte{
		"tiny_face_detector_model-weights_manifest.json": []byte(`[{"weights": "tiny"}]`),
		"tiny_face_detector_model-shard1":                []byte("tiny shard one bytes"),
		"ssd_mobilenetv1_model-weights_manifest.json":    []byte(`[{"weights": "ssd"}]`),
		"ssd_mobilenetv1_model-shard1":                   []byte("ssd shard one bytes"),
		"ssd_mobilenetv1_model-shard2":                   []byte("ssd shard two bytes"),
	}
}

func packManifest() *Manifest {
	return &Manifest{Groups: []Group{
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
			Name: "ssd_mobilenetv1",
			Dir:  "ssd_mobilenetv1",
			Files: []ModelFile{
				{Name: "ssd_mobilenetv1_model-weights_manifest.json"},
				{Name: "ssd_mobilenetv1_model-shard1"},
				{Name: "ssd_mobilenetv1_model-shard2", Optional: true},
			},
		},
	}}
}

func testPack(t *testing.T, baseURL, modelsDir string, progress func(Event)) *Pack {
	t.Helper()
	pack, err := New(Options{
		BaseURL:   baseURL,
		ModelsDir: modelsDir,
		Manifest:  packManifest(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Progress:  progress,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pack
}

func countActions(events []Event, action Action) int {
	count := 0
	for _, event := range events {
		if event.Action == action {
			count++
		}
	}
	return count
}

func TestFetchAllDownloadsAndPins(t *testing.T) {
	origin := newWeightsOrigin(testWeightFiles())
	server := httptest.NewServer(origin)
	defer server.Close()

	modelsDir := t.TempDir()
	var events []Event
	pack := testPack(t, server.URL+"/weights", modelsDir, func(e Event) { events = append(events, e) })

	if err := pack.FetchAll(t.Context(), false); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	for name, want := range testWeightFiles() {
		var dir string
		if strings.HasPrefix(name, "tiny") {
			dir = "tiny_face_detector"
		} else {
			dir = "ssd_mobilenetv1"
		}
		got, err := os.ReadFile(filepath.Join(modelsDir, dir, name))
		if err != nil {
			t.Fatalf("reading fetched %s: %v", name, err)
		}
		if string(got) != string(want) {
			t.Fatalf("%s: content mismatch", name)
		}
	}

	sums, err := ReadSums(filepath.Join(modelsDir, SumsFileName))
	if err != nil {
		t.Fatalf("ReadSums: %v", err)
	}
	if len(sums) != 5 {
		t.Fatalf("pin count: got %d, want 5", len(sums))
	}
	wantPin := DigestBytes([]byte("tiny shard one bytes"))
	if sums["tiny_face_detector/tiny_face_detector_model-shard1"] != wantPin {
		t.Fatal("pin does not match the fetched content")
	}

	if got := countActions(events, ActionFetched); got != 5 {
		t.Fatalf("fetched events: got %d, want 5", got)
	}
}

func TestFetchSkipsPinnedFiles(t *testing.T) {
	origin := newWeightsOrigin(testWeightFiles())
	server := httptest.NewServer(origin)
	defer server.Close()

	modelsDir := t.TempDir()
	pack := testPack(t, server.URL+"/weights", modelsDir, nil)
	if err := pack.FetchAll(t.Context(), false); err != nil {
		t.Fatalf("first FetchAll: %v", err)
	}

	// A fresh Pack, as a second CLI invocation would create, must
	// pick the pins up from disk.
	var events []Event
	second := testPack(t, server.URL+"/weights", modelsDir, func(e Event) { events = append(events, e) })
	if err := second.FetchAll(t.Context(), false); err != nil {
		t.Fatalf("second FetchAll: %v", err)
	}

	if got := countActions(events, ActionSkipped); got != 5 {
		t.Fatalf("skipped events: got %d, want 5", got)
	}
	if hits := origin.hitCount("tiny_face_detector_model-shard1"); hits != 1 {
		t.Fatalf("shard fetched %d times, want 1", hits)
	}
}

func TestFetchForceRedownloads(t *testing.T) {
	origin := newWeightsOrigin(testWeightFiles())
	server := httptest.NewServer(origin)
	defer server.Close()

	modelsDir := t.TempDir()
	pack := testPack(t, server.URL+"/weights", modelsDir, nil)
	if err := pack.FetchAll(t.Context(), false); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if err := pack.FetchAll(t.Context(), true); err != nil {
		t.Fatalf("forced FetchAll: %v", err)
	}

	if hits := origin.hitCount("tiny_face_detector_model-shard1"); hits != 2 {
		t.Fatalf("shard fetched %d times, want 2", hits)
	}
}

func TestFetchRefetchesOnPinMismatch(t *testing.T) {
	origin := newWeightsOrigin(testWeightFiles())
	server := httptest.NewServer(origin)
	defer server.Close()

	modelsDir := t.TempDir()
	pack := testPack(t, server.URL+"/weights", modelsDir, nil)
	if err := pack.FetchGroup(t.Context(), "tiny_face_detector", false); err != nil {
		t.Fatalf("FetchGroup: %v", err)
	}

	shardPath := filepath.Join(modelsDir, "tiny_face_detector", "tiny_face_detector_model-shard1")
	if err := os.WriteFile(shardPath, []byte("bit rot"), 0o644); err != nil {
		t.Fatalf("corrupting shard: %v", err)
	}

	var events []Event
	second := testPack(t, server.URL+"/weights", modelsDir, func(e Event) { events = append(events, e) })
	if err := second.FetchGroup(t.Context(), "tiny_face_detector", false); err != nil {
		t.Fatalf("refetch: %v", err)
	}

	got, err := os.ReadFile(shardPath)
	if err != nil {
		t.Fatalf("reading shard: %v", err)
	}
	if string(got) != "tiny shard one bytes" {
		t.Fatalf("shard not restored, content %q", got)
	}
	if countActions(events, ActionFetched) != 1 {
		t.Fatal("expected exactly one fetched event for the corrupted shard")
	}
}

func TestFetchOptionalFileMissingUpstream(t *testing.T) {
	files := testWeightFiles()
	delete(files, "ssd_mobilenetv1_model-shard2")
	origin := newWeightsOrigin(files)
	server := httptest.NewServer(origin)
	defer server.Close()

	modelsDir := t.TempDir()
	var events []Event
	pack := testPack(t, server.URL+"/weights", modelsDir, func(e Event) { events = append(events, e) })

	if err := pack.FetchAll(t.Context(), false); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if countActions(events, ActionMissing) != 1 {
		t.Fatal("expected one missing event for the absent optional shard")
	}
	shard2 := filepath.Join(modelsDir, "ssd_mobilenetv1", "ssd_mobilenetv1_model-shard2")
	if _, err := os.Stat(shard2); !os.IsNotExist(err) {
		t.Fatal("optional shard should not exist locally")
	}
	sums, err := ReadSums(filepath.Join(modelsDir, SumsFileName))
	if err != nil {
		t.Fatalf("ReadSums: %v", err)
	}
	if _, pinned := sums["ssd_mobilenetv1/ssd_mobilenetv1_model-shard2"]; pinned {
		t.Fatal("absent optional file must not be pinned")
	}
}

func TestFetchRequiredFileMissingUpstream(t *testing.T) {
	files := testWeightFiles()
	delete(files, "tiny_face_detector_model-shard1")
	origin := newWeightsOrigin(files)
	server := httptest.NewServer(origin)
	defer server.Close()

	pack := testPack(t, server.URL+"/weights", t.TempDir(), nil)
	err := pack.FetchGroup(t.Context(), "tiny_face_detector", false)
	if err == nil {
		t.Fatal("expected error for missing required file")
	}
	if !strings.Contains(err.Error(), "tiny_face_detector_model-shard1") {
		t.Fatalf("error %q does not name the file", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("error %q does not say not found", err)
	}
}

func TestFetchPinsExistingLocalFile(t *testing.T) {
	origin := newWeightsOrigin(testWeightFiles())
	server := httptest.NewServer(origin)
	defer server.Close()

	modelsDir := t.TempDir()
	localBytes := []byte("hand-copied weights, not what upstream has")
	shardDir := filepath.Join(modelsDir, "tiny_face_detector")
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	shardPath := filepath.Join(shardDir, "tiny_face_detector_model-shard1")
	if err := os.WriteFile(shardPath, localBytes, 0o644); err != nil {
		t.Fatalf("placing local file: %v", err)
	}

	var events []Event
	pack := testPack(t, server.URL+"/weights", modelsDir, func(e Event) { events = append(events, e) })
	if err := pack.FetchGroup(t.Context(), "tiny_face_detector", false); err != nil {
		t.Fatalf("FetchGroup: %v", err)
	}

	if countActions(events, ActionPinned) != 1 {
		t.Fatal("expected one pinned event for the pre-existing file")
	}
	if hits := origin.hitCount("tiny_face_detector_model-shard1"); hits != 0 {
		t.Fatalf("pre-existing file fetched %d times, want 0", hits)
	}

	got, err := os.ReadFile(shardPath)
	if err != nil {
		t.Fatalf("reading shard: %v", err)
	}
	if string(got) != string(localBytes) {
		t.Fatal("pre-existing file was overwritten")
	}
	sums, err := ReadSums(filepath.Join(modelsDir, SumsFileName))
	if err != nil {
		t.Fatalf("ReadSums: %v", err)
	}
	if sums["tiny_face_detector/tiny_face_detector_model-shard1"] != DigestBytes(localBytes) {
		t.Fatal("pin does not match the local bytes")
	}
}

func TestFetchUnknownGroup(t *testing.T) {
	pack := testPack(t, "http://unused.invalid", t.TempDir(), nil)
	err := pack.FetchGroup(t.Context(), "mustache_detector", false)
	if err == nil {
		t.Fatal("expected error for unknown group")
	}
	if !strings.Contains(err.Error(), "unknown model group") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchServerErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "quota exhausted")
	}))
	defer server.Close()

	pack := testPack(t, server.URL+"/weights", t.TempDir(), nil)
	err := pack.FetchGroup(t.Context(), "tiny_face_detector", false)
	if err == nil {
		t.Fatal("expected error for server failure")
	}
	if !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("error %q does not include the response body", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := New(Options{Logger: logger}); err == nil {
		t.Fatal("expected error for missing models directory")
	}
	if _, err := New(Options{ModelsDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for missing logger")
	}
}
