// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package webapp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/facekiosk/facekiosk/lib/clock"
	"github.com/facekiosk/facekiosk/lib/netutil"
	"github.com/facekiosk/facekiosk/lib/recordstore"
)

// requiredFiles are the web root entries the kiosk page cannot run
// without. Missing model directories mean "facekiosk models fetch"
// has not been run; a missing Faces directory means no reference
// images are enrolled.
var requiredFiles = []string{
	"index.html",
	"face-api.min.js",
	"models/tiny_face_detector",
	"models/face_recognition",
	"models/face_landmark_68",
	"Faces",
}

// RequiredFiles returns the web root entries the kiosk needs, relative
// to the web root. Exposed for the doctor checklist.
func RequiredFiles() []string {
	result := make([]string, len(requiredFiles))
	copy(result, requiredFiles)
	return result
}

// CheckWebRoot verifies the web root holds everything the kiosk page
// needs. The error lists every missing entry, not just the first.
func CheckWebRoot(webRoot string) error {
	var missing []string
	for _, name := range requiredFiles {
		if _, err := os.Stat(filepath.Join(webRoot, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("web root %s is missing: %s", webRoot, strings.Join(missing, ", "))
	}
	return nil
}

// Config configures a kiosk server.
type Config struct {
	// WebRoot is the directory served to the browser. Required.
	WebRoot string

	// Store receives the records POSTed by the kiosk page. Required.
	Store *recordstore.Store

	// Port is the preferred TCP port. When taken, the next
	// ProbeSpan-1 ports are tried in order.
	Port int

	// Bind is the listen host. Defaults to "localhost".
	Bind string

	// ProbeSpan is how many ports to try starting at Port. Defaults
	// to 1 (only Port itself).
	ProbeSpan int

	// CertFile and KeyFile enable HTTPS when both exist on disk.
	CertFile string
	KeyFile  string

	// OpenBrowser launches the platform browser opener against the
	// kiosk URL once the server is ready.
	OpenBrowser bool

	// BrowserDelay is how long after readiness to wait before opening
	// the browser.
	BrowserDelay time.Duration

	// ShutdownTimeout is the maximum time to wait for active requests
	// to complete after the context is cancelled. Defaults to 10
	// seconds if zero.
	ShutdownTimeout time.Duration

	// Clock supplies the browser-delay timer. Defaults to the wall
	// clock.
	Clock clock.Clock

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Server serves the kiosk web application and its save endpoints.
//
// Follows the bind-then-signal lifecycle: Serve(ctx) blocks until the
// context is cancelled and active requests drain, and Ready() is
// closed once the listener is bound.
type Server struct {
	config  Config
	handler http.Handler

	// ready is closed after the listener is bound and the server is
	// accepting connections.
	ready chan struct{}

	// addr and url are the resolved listen address and the browser
	// URL, available after ready is closed.
	addr net.Addr
	url  string
}

// New creates a kiosk server. The web root preflight runs here so a
// broken deployment fails before binding the port.
func New(config Config) (*Server, error) {
	if config.WebRoot == "" {
		return nil, fmt.Errorf("web root is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := CheckWebRoot(config.WebRoot); err != nil {
		return nil, err
	}

	if config.Bind == "" {
		config.Bind = "localhost"
	}
	if config.ProbeSpan <= 0 {
		config.ProbeSpan = 1
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}

	return &Server{
		config:  config,
		handler: newHandler(config.WebRoot, config.Store, config.Logger),
		ready:   make(chan struct{}),
	}, nil
}

// Ready returns a channel that is closed once the server is bound and
// accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready()
// is closed: port probing may have moved the server off the
// configured port.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// URL returns the browser URL for the kiosk page. Only valid after
// Ready() is closed.
func (s *Server) URL() string {
	return s.url
}

// TLS reports whether the server will serve HTTPS: both the
// certificate and key files exist.
func (s *Server) TLS() bool {
	for _, path := range []string{s.config.CertFile, s.config.KeyFile} {
		if path == "" {
			return false
		}
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// Serve binds the kiosk port and serves until ctx is cancelled, then
// performs graceful shutdown: stops accepting new connections and
// waits up to ShutdownTimeout for active requests to complete.
func (s *Server) Serve(ctx context.Context) error {
	// Port 0 asks the OS for an ephemeral port and skips probing.
	// Useful in tests; the kiosk itself always configures a fixed
	// port so the browser URL is predictable.
	port := s.config.Port
	if port != 0 {
		if err := netutil.ValidatePort(port); err != nil {
			return err
		}

		found, err := netutil.FindAvailablePort(s.config.Bind, port, s.config.ProbeSpan)
		if err != nil {
			return err
		}
		if found != port {
			s.config.Logger.Warn("configured port is taken, moved to the next free one",
				"configured", port, "port", found)
		}
		port = found
	}

	address := net.JoinHostPort(s.config.Bind, strconv.Itoa(port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}

	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	scheme := "http"
	if s.TLS() {
		certificate, err := tls.LoadX509KeyPair(s.config.CertFile, s.config.KeyFile)
		if err != nil {
			listener.Close()
			return fmt.Errorf("loading TLS material: %w", err)
		}
		listener = tls.NewListener(listener, &tls.Config{
			Certificates: []tls.Certificate{certificate},
			MinVersion:   tls.VersionTLS12,
		})
		scheme = "https"
	}

	s.addr = listener.Addr()
	s.url = fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(s.config.Bind, strconv.Itoa(port)))
	close(s.ready)

	server := &http.Server{
		Handler: s.handler,

		// Timeouts protect against slow clients holding connections
		// open. The largest responses are model weight shards of a
		// few megabytes served from local disk, so these are
		// generous.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.config.Logger.Info("kiosk server listening",
		"url", s.url,
		"tls", scheme == "https",
		"web_root", s.config.WebRoot,
		"records", s.config.Store.RecordsDir())

	if s.config.OpenBrowser {
		go s.openBrowser(ctx)
	}

	// Serve in a goroutine so we can wait for the context.
	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.config.Logger.Info("kiosk server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.config.Logger.Error("kiosk server shutdown error", "error", err)
		return fmt.Errorf("kiosk server shutdown: %w", err)
	}

	s.config.Logger.Info("kiosk server stopped")
	return nil
}
