// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCommandError_ErrorWithoutHint(t *testing.T) {
	err := Validation("missing required flag --category")
	if err.Error() != "missing required flag --category" {
		t.Errorf("Error() = %q, want %q", err.Error(), "missing required flag --category")
	}
}

func TestCommandError_ErrorWithHint(t *testing.T) {
	err := Validation("missing required flag --category").
		WithHint("Run 'facekiosk records list' to see the categories.")

	want := "missing required flag --category\n\nRun 'facekiosk records list' to see the categories."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError_WithHintReturnsReceiver(t *testing.T) {
	original := Validation("bad input")
	chained := original.WithHint("fix it")
	if original != chained {
		t.Error("WithHint should return the same pointer")
	}
}

func TestCommandError_WithHintPreservesCategory(t *testing.T) {
	err := NotFound("backup %q not found", "backup_20260101_120000.json").
		WithHint("Run 'facekiosk records backup' to list the backups on disk.")

	if err.Category != CategoryNotFound {
		t.Errorf("Category = %q, want %q", err.Category, CategoryNotFound)
	}
}

func TestCommandError_HintSurvivesErrorsAs(t *testing.T) {
	inner := Validation("bad category").WithHint("use one of: attendance, punch-in, punch-out, currently-online")
	wrapped := fmt.Errorf("listing records: %w", inner)

	var commandErr *CommandError
	if !errors.As(wrapped, &commandErr) {
		t.Fatal("errors.As should find CommandError in wrapped chain")
	}
	if !strings.Contains(commandErr.Hint, "attendance") {
		t.Errorf("Hint = %q after unwrap, want the category hint", commandErr.Hint)
	}
}

func TestCommandError_EmptyHintNotAppended(t *testing.T) {
	err := Internal("unexpected failure")
	if strings.Contains(err.Error(), "\n\n") {
		t.Error("empty hint should not add blank line to error message")
	}
}

func TestCommandError_AllCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *CommandError
		category ErrorCategory
	}{
		{"Validation", Validation("bad"), CategoryValidation},
		{"NotFound", NotFound("missing"), CategoryNotFound},
		{"Conflict", Conflict("duplicate"), CategoryConflict},
		{"Transient", Transient("timeout"), CategoryTransient},
		{"Internal", Internal("bug"), CategoryInternal},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.err.Category != test.category {
				t.Errorf("Category = %q, want %q", test.err.Category, test.category)
			}
			hinted := test.err.WithHint("try again")
			if hinted.Hint != "try again" {
				t.Errorf("Hint = %q after WithHint, want %q", hinted.Hint, "try again")
			}
		})
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 1}
	if err.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", err.ExitCode())
	}
	if !strings.Contains(err.Error(), "1") {
		t.Errorf("Error() = %q, should mention the code", err.Error())
	}
}
