// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"net"
	"strconv"
	"testing"
)

func TestValidatePort(t *testing.T) {
	t.Run("accepts unprivileged ports", func(t *testing.T) {
		for _, port := range []int{1024, 8000, 65535} {
			if err := ValidatePort(port); err != nil {
				t.Errorf("ValidatePort(%d): unexpected error: %v", port, err)
			}
		}
	})

	t.Run("rejects out-of-range ports", func(t *testing.T) {
		for _, port := range []int{0, 80, 1023, 65536, -1} {
			if err := ValidatePort(port); err == nil {
				t.Errorf("ValidatePort(%d): expected error", port)
			}
		}
	})
}

func TestFindAvailablePort(t *testing.T) {
	t.Run("skips a port already in use", func(t *testing.T) {
		// Grab an ephemeral port, hold it, and ask the probe to start
		// there. It must land on a different port.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("reserving port: %v", err)
		}
		defer listener.Close()

		_, portString, err := net.SplitHostPort(listener.Addr().String())
		if err != nil {
			t.Fatalf("parsing listener address: %v", err)
		}
		held, err := strconv.Atoi(portString)
		if err != nil {
			t.Fatalf("parsing port: %v", err)
		}

		found, err := FindAvailablePort("127.0.0.1", held, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found == held {
			t.Fatalf("probe returned held port %d", held)
		}
		if found < held || found >= held+10 {
			t.Fatalf("probe returned %d outside range %d-%d", found, held, held+9)
		}
	})

	t.Run("returns the start port when free", func(t *testing.T) {
		// Find a free port first, release it, then probe from it.
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("reserving port: %v", err)
		}
		_, portString, _ := net.SplitHostPort(listener.Addr().String())
		free, _ := strconv.Atoi(portString)
		listener.Close()

		found, err := FindAvailablePort("127.0.0.1", free, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found != free {
			t.Fatalf("got port %d, want %d", found, free)
		}
	})

	t.Run("rejects privileged start port", func(t *testing.T) {
		if _, err := FindAvailablePort("127.0.0.1", 80, 10); err == nil {
			t.Fatal("expected error for privileged port")
		}
	})
}

func TestIsAddrInUse(t *testing.T) {
	t.Run("detects a bind conflict", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("reserving port: %v", err)
		}
		defer listener.Close()

		_, err = net.Listen("tcp", listener.Addr().String())
		if err == nil {
			t.Fatal("expected second bind to fail")
		}
		if !IsAddrInUse(err) {
			t.Fatalf("IsAddrInUse(%v) = false, want true", err)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		if IsAddrInUse(nil) {
			t.Fatal("IsAddrInUse(nil) = true")
		}
	})
}
