// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package webapp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/facekiosk/facekiosk/lib/recordstore"
	"github.com/facekiosk/facekiosk/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serverStore(t *testing.T, root string) *recordstore.Store {
	t.Helper()
	store, err := recordstore.Open(recordstore.Options{
		RecordsDir: filepath.Join(root, "Record"),
		BackupsDir: filepath.Join(root, "Record", "BackUP"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewRequiresCompleteWebRoot(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "index.html"), "<html>")

	_, err := New(Config{
		WebRoot: root,
		Store:   serverStore(t, t.TempDir()),
		Logger:  testLogger(),
	})
	if err == nil {
		t.Fatal("New should fail on an incomplete web root")
	}
	// The error lists everything missing, not just the first entry.
	for _, name := range []string{"face-api.min.js", "models/tiny_face_detector", "Faces"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s, got: %v", name, err)
		}
	}
	if strings.Contains(err.Error(), "index.html") {
		t.Errorf("error should not list entries that exist, got: %v", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	root := scaffoldWebRoot(t)
	store := serverStore(t, root)

	tests := []struct {
		name   string
		config Config
	}{
		{"missing web root", Config{Store: store, Logger: testLogger()}},
		{"missing store", Config{WebRoot: root, Logger: testLogger()}},
		{"missing logger", Config{WebRoot: root, Store: store}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config); err == nil {
				t.Error("New should have failed")
			}
		})
	}
}

func TestTLSRequiresBothFiles(t *testing.T) {
	root := scaffoldWebRoot(t)
	certFile := filepath.Join(root, "localhost.pem")
	keyFile := filepath.Join(root, "localhost.key")

	newServer := func(cert, key string) *Server {
		server, err := New(Config{
			WebRoot:  root,
			Store:    serverStore(t, root),
			Logger:   testLogger(),
			CertFile: cert,
			KeyFile:  key,
		})
		if err != nil {
			t.Fatal(err)
		}
		return server
	}

	if newServer(certFile, keyFile).TLS() {
		t.Error("TLS() should be false when neither file exists")
	}

	testutil.WriteFile(t, certFile, "cert")
	if newServer(certFile, keyFile).TLS() {
		t.Error("TLS() should be false with only the certificate")
	}

	testutil.WriteFile(t, keyFile, "key")
	if !newServer(certFile, keyFile).TLS() {
		t.Error("TLS() should be true when both files exist")
	}
	if newServer("", "").TLS() {
		t.Error("TLS() should be false when unconfigured")
	}
}

func TestServerLifecycle(t *testing.T) {
	root := scaffoldWebRoot(t)
	store := serverStore(t, root)

	server, err := New(Config{
		WebRoot:         root,
		Store:           store,
		Port:            0, // OS-assigned
		ShutdownTimeout: 2 * time.Second,
		Logger:          testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	select {
	case <-server.Ready():
	case <-t.Context().Done():
		t.Fatal("server did not become ready before test deadline")
	}

	if !strings.HasPrefix(server.URL(), "http://localhost:") {
		t.Errorf("URL = %q, want http://localhost:<port>", server.URL())
	}

	// The static page is served.
	address := server.Addr().String()
	response, err := http.Get("http://" + address + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Errorf("GET /index.html status = %d, want 200", response.StatusCode)
	}
	if !strings.Contains(string(body), "kiosk") {
		t.Errorf("GET /index.html body = %q", body)
	}

	// A save lands in the store.
	response, err = http.Post("http://"+address+"/save-records", "application/json",
		strings.NewReader(`[{"name":"Dana"}]`))
	if err != nil {
		t.Fatalf("POST /save-records: %v", err)
	}
	io.Copy(io.Discard, response.Body)
	response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Errorf("POST /save-records status = %d, want 200", response.StatusCode)
	}

	records, err := store.Load(recordstore.CategoryAttendance)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("store holds %d records after POST, want 1", len(records))
	}

	cancel()
	select {
	case err := <-serveDone:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-t.Context().Done():
		t.Fatal("server did not shut down before test deadline")
	}
}

func TestServeRejectsInvalidPort(t *testing.T) {
	root := scaffoldWebRoot(t)
	server, err := New(Config{
		WebRoot: root,
		Store:   serverStore(t, root),
		Port:    80, // privileged
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := server.Serve(context.Background()); err == nil {
		t.Fatal("Serve should reject a privileged port")
	}
}
