// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package launchguard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/term"
)

// PathLocator returns the production RuntimeLocator: PATH lookup
// followed by a version probe with both output streams discarded. A
// runtime that resolves but cannot run --version (broken install,
// wrong architecture) counts as not found.
func PathLocator() RuntimeLocator {
	return pathLocator{}
}

type pathLocator struct{}

func (pathLocator) Resolve(ctx context.Context, name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s is not on PATH: %w", name, err)
	}

	probe := exec.CommandContext(ctx, path, "--version")
	probe.Stdout = io.Discard
	probe.Stderr = io.Discard
	if err := probe.Run(); err != nil {
		return "", fmt.Errorf("%s resolved to %s but failed its version check: %w", name, path, err)
	}
	return path, nil
}

// ExecRunner returns the production EntryRunner: the entry point runs
// with the guard's own standard streams so its output appears live in
// the terminal, and with the entry point's directory as working
// directory, matching what a double-click on the script itself would
// do.
func ExecRunner() EntryRunner {
	return execRunner{}
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, runtimePath, entryPath string) error {
	command := exec.CommandContext(ctx, runtimePath, entryPath)
	command.Dir = filepath.Dir(entryPath)
	command.Stdin = os.Stdin
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	return command.Run()
}

// TerminalAck returns the production UserAcknowledgment reading from
// input. On a terminal it takes a single raw keypress; otherwise it
// accepts a line (or EOF, so a closed stdin never wedges the guard).
func TerminalAck(input *os.File) UserAcknowledgment {
	return terminalAck{input: input}
}

type terminalAck struct {
	input *os.File
}

func (a terminalAck) AwaitAck() error {
	fd := int(a.input.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err == nil {
			defer term.Restore(fd, oldState)
			buffer := make([]byte, 1)
			_, err = a.input.Read(buffer)
			return err
		}
		// Raw mode can fail on odd pseudo-terminals; fall through to
		// the line read.
	}

	_, err := bufio.NewReader(a.input).ReadString('\n')
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
