// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package webapp

import (
	"context"
	"os/exec"
	"runtime"
)

// browserOpener names the platform command that hands a URL to the
// default browser. Overridden in tests.
var browserOpener = func() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}()

// openBrowser waits out the configured delay, then hands the kiosk
// URL to the platform opener. Failures are logged and otherwise
// ignored: the server is up either way, and the operator can open the
// printed URL by hand.
func (s *Server) openBrowser(ctx context.Context) {
	select {
	case <-s.config.Clock.After(s.config.BrowserDelay):
	case <-ctx.Done():
		return
	}

	s.config.Logger.Info("opening browser", "url", s.url, "opener", browserOpener)

	command := exec.CommandContext(ctx, browserOpener, s.url)
	if err := command.Start(); err != nil {
		s.config.Logger.Warn("opening browser failed", "opener", browserOpener, "error", err)
		return
	}

	// Release the opener: its exit status is uninteresting, and an
	// unwaited child would stay a zombie for the server's lifetime.
	go func() {
		_ = command.Wait()
	}()
}
