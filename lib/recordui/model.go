// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/facekiosk/facekiosk/lib/recordstore"
)

// FocusRegion identifies which part of the UI receives keyboard input.
type FocusRegion int

const (
	// FocusList routes navigation keys to the record list.
	FocusList FocusRegion = iota

	// FocusDetail routes navigation keys to the detail viewport.
	FocusDetail

	// FocusFilter routes all typing to the filter input.
	FocusFilter
)

// sourceEventMsg wraps a changed-category notification for delivery
// through the bubbletea message loop.
type sourceEventMsg struct {
	category recordstore.Category
}

// Model is the bubbletea model for the records browser.
type Model struct {
	source Source
	theme  Theme
	keys   KeyMap

	// eventChannel delivers live-change notifications from the
	// source; nil when the source does not support them.
	eventChannel <-chan recordstore.Category

	categories []recordstore.Category
	active     int // Index into categories.
	counts     map[recordstore.Category]int

	rows    []Row      // Unfiltered rows for the active category.
	matches []RowMatch // Rows after filtering, in display order.

	cursor       int // Index into matches.
	scrollOffset int // First visible match index.

	width  int
	height int
	ready  bool

	focusRegion FocusRegion
	filter      FilterModel
	detail      DetailPane

	showHelp bool

	// Most recent load failure, shown in the help bar. Cleared by
	// the next successful load.
	loadError string
}

// NewModel creates a browser over the given source with the default
// theme and key bindings.
func NewModel(source Source) Model {
	model := Model{
		source:       source,
		theme:        DefaultTheme,
		keys:         DefaultKeyMap,
		eventChannel: source.Subscribe(),
		categories:   recordstore.Categories(),
		detail:       NewDetailPane(DefaultTheme),
	}
	model.reload()
	return model
}

// Init implements tea.Model. Starts listening for source events when
// the source supports them.
func (model Model) Init() tea.Cmd {
	if model.eventChannel == nil {
		return nil
	}
	return listenForSourceEvent(model.eventChannel)
}

// listenForSourceEvent returns a tea.Cmd that blocks until a change
// notification arrives, then delivers it as a sourceEventMsg.
func listenForSourceEvent(channel <-chan recordstore.Category) tea.Cmd {
	return func() tea.Msg {
		category, ok := <-channel
		if !ok {
			return nil
		}
		return sourceEventMsg{category: category}
	}
}

// Update implements tea.Model. Routes keyboard events based on the
// current focus region and handles layout changes.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if model.showHelp {
			// Any key dismisses the help overlay, but quitting
			// should not take two keystrokes.
			model.showHelp = false
			if key.Matches(message, model.keys.Quit) {
				return model, tea.Quit
			}
			return model, nil
		}
		if model.focusRegion == FocusFilter {
			return model.handleFilterKeys(message)
		}

		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.Help):
			model.showHelp = true

		case key.Matches(message, model.keys.FocusToggle):
			if model.focusRegion == FocusList {
				model.focusRegion = FocusDetail
			} else {
				model.focusRegion = FocusList
			}

		case key.Matches(message, model.keys.PrevCategory):
			model.switchCategory(model.active - 1)

		case key.Matches(message, model.keys.NextCategory):
			model.switchCategory(model.active + 1)

		case key.Matches(message, model.keys.Category):
			model.switchCategory(int(message.String()[0] - '1'))

		case key.Matches(message, model.keys.FilterActivate):
			model.focusRegion = FocusFilter
			model.filter.Active = true
			// Reset list position to the top so results read from
			// the beginning as the query narrows.
			model.cursor = 0
			model.scrollOffset = 0

		case key.Matches(message, model.keys.FilterClear):
			if model.filter.Input != "" {
				model.filter.Clear()
				model.applyFilter()
			}

		case key.Matches(message, model.keys.Reload):
			model.reload()

		default:
			if model.focusRegion == FocusList {
				model.handleListKeys(message)
			} else {
				model.handleDetailKeys(message)
			}
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updatePaneSizes()
		model.clampScroll()

	case sourceEventMsg:
		return model.handleSourceEvent(message)
	}
	return model, nil
}

// handleFilterKeys processes keystrokes while the filter input has
// focus. Regular characters go to the input, Esc clears or exits,
// Enter confirms and returns focus to the list.
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		// ctrl+c always quits, even in filter mode.
		if message.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
		// 'q' is a regular character in filter mode.
		model.filter.HandleRune('q')
		model.applyFilter()
		return model, nil

	case key.Matches(message, model.keys.FilterClear):
		// Esc: clear any filter text; if already empty, exit filter
		// mode.
		if model.filter.Input != "" {
			model.filter.Clear()
			model.applyFilter()
		}
		model.filter.Active = false
		model.focusRegion = FocusList
		return model, nil

	case message.Type == tea.KeyEnter:
		model.filter.Active = false
		model.focusRegion = FocusList
		return model, nil

	case message.Type == tea.KeyBackspace:
		if model.filter.HandleBackspace() {
			model.applyFilter()
		}
		return model, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, r := range message.Runes {
			model.filter.HandleRune(r)
		}
		model.applyFilter()
		return model, nil
	}

	return model, nil
}

// handleListKeys processes navigation keys while the list has focus.
func (model *Model) handleListKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveCursor(-model.visibleHeight())
	case key.Matches(message, model.keys.PageDown):
		model.moveCursor(model.visibleHeight())
	case key.Matches(message, model.keys.Home):
		model.moveCursor(-len(model.matches))
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.matches))
	}
}

// handleDetailKeys processes navigation keys while the detail pane
// has focus.
func (model *Model) handleDetailKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.detail.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.detail.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.detail.ScrollUp()
	case key.Matches(message, model.keys.PageDown):
		model.detail.ScrollDown()
	case key.Matches(message, model.keys.Home):
		model.detail.viewport.GotoTop()
	case key.Matches(message, model.keys.End):
		model.detail.viewport.GotoBottom()
	}
}

// handleSourceEvent refreshes state after the underlying files change.
// Counts always refresh; rows reload only when the active category
// changed. Re-arms the listener either way.
func (model Model) handleSourceEvent(message sourceEventMsg) (tea.Model, tea.Cmd) {
	if message.category == model.categories[model.active] {
		model.reload()
	} else {
		model.counts = model.source.Counts()
	}
	return model, listenForSourceEvent(model.eventChannel)
}

// switchCategory changes the active category, wrapping at both ends.
// The filter carries across so a query composes with the category
// bar.
func (model *Model) switchCategory(index int) {
	if len(model.categories) == 0 {
		return
	}
	if index < 0 {
		index = len(model.categories) - 1
	}
	if index >= len(model.categories) {
		index = 0
	}
	if index == model.active {
		return
	}
	model.active = index
	model.cursor = 0
	model.scrollOffset = 0
	model.reload()
}

// reload fetches counts and the active category's rows from the
// source, then re-applies the filter.
func (model *Model) reload() {
	model.counts = model.source.Counts()
	rows, err := model.source.Rows(model.categories[model.active])
	if err != nil {
		model.loadError = err.Error()
		model.rows = nil
	} else {
		model.loadError = ""
		model.rows = rows
	}
	model.applyFilter()
}

// applyFilter recomputes the match list from the current rows and
// query, then re-clamps the selection.
func (model *Model) applyFilter() {
	model.matches = model.filter.ApplyFuzzy(model.rows)
	if model.cursor >= len(model.matches) {
		model.cursor = len(model.matches) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.clampScroll()
	model.syncDetail()
}

// moveCursor shifts the selection by delta, clamped to the match
// list.
func (model *Model) moveCursor(delta int) {
	model.cursor += delta
	if model.cursor >= len(model.matches) {
		model.cursor = len(model.matches) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.clampScroll()
	model.syncDetail()
}

// clampScroll keeps the cursor inside the visible window.
func (model *Model) clampScroll() {
	visible := model.visibleHeight()
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
	if model.scrollOffset < 0 {
		model.scrollOffset = 0
	}
}

// syncDetail pushes the selected record into the detail pane.
func (model *Model) syncDetail() {
	if len(model.matches) == 0 {
		model.detail.Clear()
		return
	}
	model.detail.SetRow(model.matches[model.cursor].Row)
}

// updatePaneSizes recomputes the detail pane dimensions after a
// resize.
func (model *Model) updatePaneSizes() {
	detailWidth := model.width - model.listWidth() - 1
	if detailWidth < 1 {
		detailWidth = 1
	}
	model.detail.SetSize(detailWidth, model.visibleHeight())
}

// listWidth returns the list pane width: two fifths of the terminal,
// clamped so both panes stay usable.
func (model Model) listWidth() int {
	width := model.width * 2 / 5
	if width > 56 {
		width = 56
	}
	if width < 24 {
		width = 24
	}
	if width > model.width-2 {
		width = model.width - 2
	}
	if width < 1 {
		width = 1
	}
	return width
}

// visibleHeight returns the number of list rows that fit between the
// top chrome line and the bottom separator plus help bar.
func (model Model) visibleHeight() int {
	result := model.height - 3
	if result < 1 {
		result = 1
	}
	return result
}
