// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
)

// ValidatePort reports whether port is usable for the kiosk server.
// Ports below 1024 require elevated privileges and are rejected rather
// than silently failing at bind time.
func ValidatePort(port int) error {
	if port < 1024 || port > 65535 {
		return fmt.Errorf("port %d out of range (must be 1024-65535)", port)
	}
	return nil
}

// IsAddrInUse reports whether err is a bind failure caused by another
// process already listening on the address. Probing distinguishes
// this (try the next port) from errors that make further probing
// pointless, such as an unresolvable bind host.
func IsAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EADDRINUSE
	}
	return false
}

// FindAvailablePort probes ports starting at start and returns the
// first one that can be bound on host. It tries up to span consecutive
// ports, skipping those already in use, so a lingering server instance
// does not block a fresh launch. Errors other than address-in-use
// abort the probe immediately.
func FindAvailablePort(host string, start, span int) (int, error) {
	if err := ValidatePort(start); err != nil {
		return 0, err
	}
	for port := start; port < start+span && port <= 65535; port++ {
		address := net.JoinHostPort(host, strconv.Itoa(port))
		listener, err := net.Listen("tcp", address)
		if err != nil {
			if IsAddrInUse(err) {
				continue
			}
			return 0, fmt.Errorf("probing %s: %w", address, err)
		}
		listener.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in range %d-%d on %s", start, start+span-1, host)
}
