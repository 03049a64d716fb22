// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package webapp serves the face recognition kiosk to the browser.
//
// The kiosk is a static web application (face-api.js runs entirely
// client-side); this server hands it the HTML, scripts, model weights,
// and reference face images, and accepts the recognition results it
// POSTs back. Four save endpoints map onto the record store's
// categories:
//
//	POST /save-records           -> attendance
//	POST /save-punch-in          -> punch-in
//	POST /save-punch-out         -> punch-out
//	POST /save-currently-online  -> currently-online
//
// Responses carry permissive CORS headers: the page is sometimes
// opened straight from disk during development, and a file:// origin
// needs them to reach the save endpoints.
//
// Browsers only expose the camera to secure contexts, so the server
// prefers HTTPS whenever the configured certificate and key exist and
// falls back to plain HTTP (which browsers treat as secure only on
// localhost).
package webapp
