// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"testing"

	"github.com/facekiosk/facekiosk/lib/modelpack"
)

func TestVerifyJSON(t *testing.T) {
	statuses := []modelpack.FileStatus{
		{Group: "detector", Path: "detector/weights.bin", State: modelpack.StateOK, Required: true},
		{Group: "extras", Path: "extras/extra.bin", State: modelpack.StateModified, Detail: "digest mismatch"},
	}

	out := verifyJSON(statuses)

	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].State != "ok" {
		t.Errorf("State = %q, want ok", out[0].State)
	}
	if !out[0].Required {
		t.Error("expected Required to carry over")
	}
	if out[1].State != "modified" || out[1].Detail != "digest mismatch" {
		t.Errorf("unexpected second entry: %+v", out[1])
	}
}
