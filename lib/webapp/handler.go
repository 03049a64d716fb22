// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package webapp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/facekiosk/facekiosk/lib/netutil"
	"github.com/facekiosk/facekiosk/lib/recordstore"
)

// saveRoutes maps the kiosk page's POST paths onto store categories.
// The paths are part of the contract with the page's JavaScript and
// must not change.
var saveRoutes = map[string]recordstore.Category{
	"/save-records":          recordstore.CategoryAttendance,
	"/save-punch-in":         recordstore.CategoryPunchIn,
	"/save-punch-out":        recordstore.CategoryPunchOut,
	"/save-currently-online": recordstore.CategoryOnline,
}

// messageNouns phrase each category inside the success message the
// kiosk page displays verbatim. Attendance is bare "records": that
// endpoint predates the others and the page string matches it.
var messageNouns = map[recordstore.Category]string{
	recordstore.CategoryAttendance: "",
	recordstore.CategoryPunchIn:    "punch-in ",
	recordstore.CategoryPunchOut:   "punch-out ",
	recordstore.CategoryOnline:     "currently online ",
}

// saveResponse is the JSON body of every save endpoint response,
// success or error.
type saveResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

type handler struct {
	store  *recordstore.Store
	static http.Handler
	logger *slog.Logger

	// recordsPrefix is the URL prefix of the records directory when
	// it sits inside the web root (the default layout). Requests
	// under it are refused: record data is reachable only through
	// the CLI and the save endpoints.
	recordsPrefix string
}

// newHandler builds the full kiosk handler: save endpoints, CORS
// preflight, and static file serving, wrapped in CORS and request-log
// middleware.
func newHandler(webRoot string, store *recordstore.Store, logger *slog.Logger) http.Handler {
	h := &handler{
		store:  store,
		static: http.FileServer(http.Dir(webRoot)),
		logger: logger,
	}

	if rel, err := filepath.Rel(webRoot, store.RecordsDir()); err == nil {
		rel = filepath.ToSlash(rel)
		if rel != "." && rel != ".." && !strings.HasPrefix(rel, "../") {
			h.recordsPrefix = "/" + rel
		}
	}

	mux := http.NewServeMux()
	for route, category := range saveRoutes {
		mux.HandleFunc("POST "+route, h.saveHandler(category))
	}
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		h.sendError(w, http.StatusNotFound, "unknown save endpoint %s", r.URL.Path)
	})
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, r *http.Request) {
		// The CORS middleware has already set the headers the
		// preflight is asking about.
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", h.serveStatic)

	return h.withCORS(h.withRequestLog(mux))
}

// saveHandler accepts a JSON array of records for one category.
func (h *handler) saveHandler(category recordstore.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := netutil.ReadBody(r.Body)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "reading request body: %v", err)
			return
		}

		var records []json.RawMessage
		if err := json.Unmarshal(body, &records); err != nil {
			h.sendError(w, http.StatusBadRequest, "request body must be a JSON array: %v", err)
			return
		}
		// "null" unmarshals into a nil slice without error; only an
		// actual array is a valid upload.
		if records == nil {
			h.sendError(w, http.StatusBadRequest, "request body must be a JSON array, got null")
			return
		}

		result, err := h.store.Save(category, records, r.RemoteAddr)
		if err != nil {
			h.logger.Error("save failed", "category", category, "error", err)
			h.sendError(w, http.StatusInternalServerError, "saving %s records: %v", category, err)
			return
		}

		backup := "none"
		if result.BackupPath != "" {
			backup = filepath.Base(result.BackupPath)
		}
		h.logger.Info("records saved",
			"category", category,
			"count", result.Count,
			"backup", backup,
			"source", r.RemoteAddr)

		h.writeJSON(w, http.StatusOK, saveResponse{
			Status:    "success",
			Message:   fmt.Sprintf("Saved %d %srecords", result.Count, messageNouns[category]),
			Timestamp: result.Timestamp,
		})
	}
}

// serveStatic serves the web root, refusing the records directory and
// dotfiles.
func (h *handler) serveStatic(w http.ResponseWriter, r *http.Request) {
	if h.blockedPath(path.Clean(r.URL.Path)) {
		http.NotFound(w, r)
		return
	}
	h.static.ServeHTTP(w, r)
}

// blockedPath reports whether a cleaned request path points into the
// records directory or crosses a dotfile segment (.git, .facekiosk
// configs) that is never part of the kiosk page.
func (h *handler) blockedPath(cleaned string) bool {
	if h.recordsPrefix != "" &&
		(cleaned == h.recordsPrefix || strings.HasPrefix(cleaned, h.recordsPrefix+"/")) {
		return true
	}
	for _, segment := range strings.Split(cleaned, "/") {
		if len(segment) > 1 && segment[0] == '.' {
			return true
		}
	}
	return false
}

func (h *handler) sendError(w http.ResponseWriter, status int, format string, args ...any) {
	h.writeJSON(w, status, saveResponse{
		Status:  "error",
		Message: fmt.Sprintf(format, args...),
	})
}

// writeJSON encodes value as JSON into w, setting the Content-Type
// header. If encoding fails (typically because the client
// disconnected), the error is logged; the caller cannot send a
// corrective response to a dead client.
func (h *handler) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Warn("writing JSON response", "error", err)
	}
}

// withCORS adds the permissive CORS headers to every response,
// including errors and static files. The kiosk page is sometimes
// opened from file:// during development and needs them to reach the
// save endpoints.
func (h *handler) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

// withRequestLog logs one line per request with the response status.
func (h *handler) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
