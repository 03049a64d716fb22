// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run() where the structured logger may not be
// initialized yet.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// ExitStatus extracts the exit status from an error returned by
// exec.Cmd.Run or Wait. Returns (status, true) when the command ran and
// exited (including non-zero), or (0, false) when err is nil or the
// command never ran (lookup failure, fork failure).
func ExitStatus(err error) (int, bool) {
	if err == nil {
		return 0, true
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode(), true
	}
	return 0, false
}
