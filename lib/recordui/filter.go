// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// Slab allocation sizes for the fzf matcher, matching fzf's own
// defaults. One slab serves a whole filter pass.
const (
	slabSize16 = 100 * 1024
	slabSize32 = 2048
)

// FuzzyResult holds the outcome of matching a pattern against one
// text. A zero Score means no match.
type FuzzyResult struct {
	Score     int
	Positions []int // Rune indices of matched characters, ascending.
}

// fuzzyMatch runs fzf's V2 matcher over a single text. Both sides are
// lowercased so queries match case-insensitively. The slab may be nil;
// passing one avoids per-call allocations when matching many rows.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}
	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(true, false, true, &chars, lowered, true, slab)
	if result.Start < 0 {
		return FuzzyResult{}
	}
	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		match.Positions = append(match.Positions, *positions...)
		// fzf reports positions back-to-front.
		sort.Ints(match.Positions)
	}
	return match
}

// RowMatch pairs a row with its fuzzy match details for rendering.
type RowMatch struct {
	Row       Row
	Index     int // Position in the unfiltered row slice.
	Score     int
	Positions []int // Rune indices in Row.Name that matched.
}

// FilterModel implements fzf-style fuzzy matching over record rows.
// The category bar chooses the base set; the filter narrows it
// client-side.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the filter input has keyboard focus
	// (the user pressed / to start typing).
	Active bool
}

// ApplyFuzzy matches every row against the current query and returns
// the matches ordered best-first. An empty query returns all rows in
// file order with zero scores. Names match fuzzily with highlight
// positions; the time and status fields match as plain substrings so
// date prefixes narrow the list too.
func (filter *FilterModel) ApplyFuzzy(rows []Row) []RowMatch {
	if filter.Input == "" {
		matches := make([]RowMatch, len(rows))
		for index, row := range rows {
			matches[index] = RowMatch{Row: row, Index: index}
		}
		return matches
	}

	pattern := []rune(filter.Input)
	query := strings.ToLower(filter.Input)
	slab := util.MakeSlab(slabSize16, slabSize32)

	var matches []RowMatch
	for index, row := range rows {
		if result := fuzzyMatch(row.Name, pattern, slab); result.Score > 0 {
			matches = append(matches, RowMatch{
				Row:       row,
				Index:     index,
				Score:     result.Score,
				Positions: result.Positions,
			})
			continue
		}
		if strings.Contains(strings.ToLower(row.Time), query) ||
			strings.Contains(strings.ToLower(row.Status), query) {
			matches = append(matches, RowMatch{Row: row, Index: index, Score: 1})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// HandleRune processes a character typed while the filter is active.
func (filter *FilterModel) HandleRune(character rune) {
	filter.Input += string(character)
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar. When active, shows the input with a
// cursor. When inactive with text, shows the filter text. When
// inactive with no text, returns empty string (hidden).
func (filter *FilterModel) View(theme Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width)

	if filter.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + filter.Input + cursor)
	}

	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + filter.Input)
}
