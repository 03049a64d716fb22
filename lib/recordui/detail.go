// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// detailHeaderLines is the fixed number of lines consumed by the
// detail pane header (name, time/status, separator). Constant so the
// scrollable body never shifts vertically when switching records.
const detailHeaderLines = 3

// HighlightJSON pretty-prints a record and syntax-highlights it for
// 256-color terminals. Returns an error only when the input is not
// valid JSON; highlighting failures fall back to the plain
// pretty-printed text. Also used by `records show` for TTY output.
func HighlightJSON(raw json.RawMessage) (string, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return "", fmt.Errorf("formatting record: %w", err)
	}

	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, pretty.String(), "json", "terminal256", "monokai"); err != nil {
		return pretty.String(), nil
	}
	return highlighted.String(), nil
}

// DetailPane wraps a bubbles viewport for scrollable record content.
// The pane has a fixed header (name, time/status) rendered above the
// viewport and the record's highlighted JSON scrolling below.
type DetailPane struct {
	viewport viewport.Model
	theme    Theme
	width    int
	height   int

	// Set by SetRow, cleared by Clear. Retained so SetSize can keep
	// the header width correct on resize.
	hasRow bool
	row    Row
	header string
}

// NewDetailPane creates an empty detail pane.
func NewDetailPane(theme Theme) DetailPane {
	return DetailPane{theme: theme}
}

// bodyHeight returns the number of lines available for the scrollable
// viewport body.
func (pane DetailPane) bodyHeight() int {
	result := pane.height - detailHeaderLines
	if result < 1 {
		result = 1
	}
	return result
}

// contentWidth returns the usable width for text content (total width
// minus the left padding column).
func (pane DetailPane) contentWidth() int {
	result := pane.width - 1
	if result < 1 {
		result = 1
	}
	return result
}

// SetSize updates the detail pane dimensions. When the width changes
// with a record displayed, the header is rebuilt at the new width.
func (pane *DetailPane) SetSize(width, height int) {
	previousWidth := pane.width
	pane.width = width
	pane.height = height
	pane.viewport.Width = pane.contentWidth()
	pane.viewport.Height = pane.bodyHeight()

	if pane.hasRow && width != previousWidth {
		pane.header = pane.renderHeader(pane.row)
	}
}

// SetRow updates the detail pane with one record's rendered content
// and scrolls back to the top.
func (pane *DetailPane) SetRow(row Row) {
	pane.hasRow = true
	pane.row = row
	pane.header = pane.renderHeader(row)

	body, err := HighlightJSON(row.Raw)
	if err != nil {
		body = lipgloss.NewStyle().
			Foreground(pane.theme.ErrorText).
			Render(err.Error())
	}
	pane.viewport.SetContent(strings.TrimRight(body, "\n"))
	pane.viewport.GotoTop()
}

// Clear empties the pane, returning it to the placeholder state.
func (pane *DetailPane) Clear() {
	pane.hasRow = false
	pane.row = Row{}
	pane.header = ""
	pane.viewport.SetContent("")
}

// ScrollUp moves the body up half a page.
func (pane *DetailPane) ScrollUp() {
	pane.viewport.HalfViewUp()
}

// ScrollDown moves the body down half a page.
func (pane *DetailPane) ScrollDown() {
	pane.viewport.HalfViewDown()
}

// renderHeader builds the fixed header: name line and time/status
// line. The separator below them is drawn by View, whose color tracks
// pane focus.
func (pane DetailPane) renderHeader(row Row) string {
	contentWidth := pane.contentWidth()

	nameStyle := lipgloss.NewStyle().
		Foreground(pane.theme.HeaderForeground).
		Bold(true).
		MaxWidth(contentWidth)
	nameLine := nameStyle.Render(row.Name)

	meta := row.Time
	if row.Status != "" {
		if meta != "" {
			meta += "  "
		}
		meta += row.Status
	}
	metaStyle := lipgloss.NewStyle().
		Foreground(pane.theme.FaintText).
		MaxWidth(contentWidth)
	metaLine := metaStyle.Render(meta)

	return nameLine + "\n" + metaLine
}

// View renders the detail pane with a fixed header and scrollable
// body, padded one column from the divider. When the pane has focus,
// the header separator takes the accent color as the focus cue,
// matching the list's selection indicator.
func (pane DetailPane) View(focused bool) string {
	paddingStyle := lipgloss.NewStyle().
		PaddingLeft(1).
		Width(pane.width)

	if !pane.hasRow {
		emptyStyle := lipgloss.NewStyle().
			Foreground(pane.theme.FaintText)
		return paddingStyle.Height(pane.height).Render(
			lipgloss.Place(
				pane.contentWidth(), pane.height,
				lipgloss.Center, lipgloss.Center,
				emptyStyle.Render("Select a record to view it"),
			),
		)
	}

	separatorColor := pane.theme.BorderColor
	if focused {
		separatorColor = pane.theme.CategoryActive
	}
	separator := lipgloss.NewStyle().
		Foreground(separatorColor).
		Render(strings.Repeat("─", pane.contentWidth()))

	headerView := paddingStyle.Height(detailHeaderLines).Render(pane.header + "\n" + separator)
	bodyView := paddingStyle.Height(pane.bodyHeight()).Render(pane.viewport.View())
	return headerView + "\n" + bodyView
}
