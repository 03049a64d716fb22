// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// watchDebounce coalesces the write bursts produced by an atomic save
// (temp file write, rename) into a single notification.
const watchDebounce = 50 * time.Millisecond

// Watch monitors the records directory with inotify and reports which
// category's file changed. The returned channel carries one Category
// per detected change; the cleanup function stops the watcher and is
// safe to call more than once.
//
// Events are delivered best-effort: if the receiver falls behind, the
// watcher drops rather than stall, and the next change for that
// category produces a fresh event.
func (s *Store) Watch() (<-chan Category, func(), error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("creating inotify instance: %w", err)
	}

	// Watching the directory (not the files) catches atomic renames:
	// saves write a temp file and rename it over the target, which
	// reaches the directory watch as IN_MOVED_TO.
	_, err = unix.InotifyAddWatch(fd, s.recordsDir, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO)
	if err != nil {
		unix.Close(fd)
		return nil, nil, fmt.Errorf("watching %s: %w", s.recordsDir, err)
	}

	events := make(chan Category, 8)
	stopChannel := make(chan struct{})

	go s.watchLoop(fd, events, stopChannel)

	cleanedUp := false
	cleanup := func() {
		if cleanedUp {
			return
		}
		cleanedUp = true
		close(stopChannel)
	}

	return events, cleanup, nil
}

func (s *Store) watchLoop(fd int, events chan<- Category, stopChannel <-chan struct{}) {
	defer unix.Close(fd)
	defer close(events)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-stopChannel:
			return
		default:
		}

		// Poll with a timeout so the stop channel is checked
		// periodically even when the directory is quiet.
		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollFds, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			s.logger.Warn("record watch poll failed", "error", err)
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			s.logger.Warn("record watch read failed", "error", err)
			return
		}

		changed := make(map[Category]struct{})
		collectCategories(buffer[:bytesRead], changed)
		if len(changed) == 0 {
			continue
		}

		// Debounce: a save touches the directory several times in
		// quick succession. Wait briefly, then drain whatever else
		// arrived into the same notification.
		s.clock.Sleep(watchDebounce)
		drainWatchEvents(fd, buffer, changed)

		for _, category := range categoryOrder {
			if _, ok := changed[category]; !ok {
				continue
			}
			select {
			case events <- category:
			default:
				s.logger.Debug("record watch event dropped", "category", category)
			}
		}
	}
}

// collectCategories parses raw inotify events and records the
// category of every name that maps to a known records file.
func collectCategories(buffer []byte, into map[Category]struct{}) {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}

		nameBytes := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
		// The name field is null-padded to alignment.
		end := 0
		for end < len(nameBytes) && nameBytes[end] != 0 {
			end++
		}
		name := string(nameBytes[:end])

		if category, ok := CategoryForFile(name); ok {
			into[category] = struct{}{}
		}

		offset += eventSize
	}
}

// drainWatchEvents consumes any queued inotify events after the
// debounce interval, merging their categories into the pending set.
func drainWatchEvents(fd int, buffer []byte, into map[Category]struct{}) {
	for {
		bytesRead, err := unix.Read(fd, buffer)
		if err != nil || bytesRead == 0 {
			return
		}
		collectCategories(buffer[:bytesRead], into)
	}
}
