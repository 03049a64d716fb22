// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/facekiosk/facekiosk/lib/recordstore"
)

// displayName returns the human label for a category in the bar.
func displayName(category recordstore.Category) string {
	switch category {
	case recordstore.CategoryAttendance:
		return "Attendance"
	case recordstore.CategoryPunchIn:
		return "Punch in"
	case recordstore.CategoryPunchOut:
		return "Punch out"
	case recordstore.CategoryOnline:
		return "Online"
	default:
		return string(category)
	}
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	var sections []string

	// Top chrome line: either the category bar or the filter bar. The
	// filter bar replaces the category bar so the layout doesn't
	// shift.
	filterView := model.filter.View(model.theme, model.width)
	if filterView != "" {
		sections = append(sections, filterView)
	} else {
		sections = append(sections, model.renderCategoryBar())
	}

	if model.showHelp {
		sections = append(sections, renderHelpOverlay(model.theme, model.width, model.visibleHeight()))
	} else {
		listView := model.renderListPane()
		divider := model.renderDivider()
		detailView := model.detail.View(model.focusRegion == FocusDetail)
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, listView, divider, detailView))
	}

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
	sections = append(sections, separator)

	sections = append(sections, model.renderHelpBar())

	return strings.Join(sections, "\n")
}

// renderCategoryBar renders the top line: one numbered segment per
// category with its record count, the active one highlighted.
func (model Model) renderCategoryBar() string {
	activeStyle := lipgloss.NewStyle().
		Foreground(model.theme.CategoryActive).
		Bold(true)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(model.theme.CategoryInactive)

	var segments []string
	for index, category := range model.categories {
		count := "0"
		if n, ok := model.counts[category]; ok {
			if n < 0 {
				count = "?"
			} else {
				count = fmt.Sprintf("%d", n)
			}
		}
		segment := fmt.Sprintf("%d %s (%s)", index+1, displayName(category), count)
		if index == model.active {
			segments = append(segments, activeStyle.Render(segment))
		} else {
			segments = append(segments, inactiveStyle.Render(segment))
		}
	}

	return lipgloss.NewStyle().
		MaxWidth(model.width).
		Render(" " + strings.Join(segments, "   "))
}

// renderListPane renders the record rows for the active category.
func (model Model) renderListPane() string {
	listWidth := model.listWidth()
	visible := model.visibleHeight()

	if len(model.matches) == 0 {
		message := "No records in this category"
		if model.filter.Input != "" {
			message = "No records match the filter"
		}
		emptyStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		return lipgloss.NewStyle().
			Width(listWidth).
			Height(visible).
			Render(lipgloss.Place(
				listWidth, visible,
				lipgloss.Center, lipgloss.Center,
				emptyStyle.Render(message),
			))
	}

	// Reserve 1 column for the focus indicator so content stays at a
	// fixed position regardless of focus state.
	focused := model.focusRegion == FocusList
	rowWidth := listWidth - 1

	var rows []string
	for index := model.scrollOffset; index < model.scrollOffset+visible && index < len(model.matches); index++ {
		selected := index == model.cursor
		indicator := " "
		if selected && focused {
			indicator = lipgloss.NewStyle().
				Foreground(model.theme.CategoryActive).
				Render("▌")
		}
		rows = append(rows, indicator+model.renderRow(model.matches[index], selected, rowWidth))
	}

	return lipgloss.NewStyle().
		Width(listWidth).
		Height(visible).
		Render(strings.Join(rows, "\n"))
}

// renderRow renders one record as "name ... time". Characters that
// matched the fuzzy filter are highlighted; the selected row gets the
// selection background across its full width.
func (model Model) renderRow(match RowMatch, selected bool, rowWidth int) string {
	baseStyle := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	timeStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	matchStyle := lipgloss.NewStyle().
		Foreground(model.theme.MatchForeground).
		Bold(true)
	if selected {
		baseStyle = baseStyle.
			Foreground(model.theme.SelectedForeground).
			Background(model.theme.SelectedBackground)
		timeStyle = timeStyle.Background(model.theme.SelectedBackground)
		matchStyle = matchStyle.Background(model.theme.SelectedBackground)
	}

	// Time column on the right when there is room for it.
	timeText := match.Row.Time
	timeWidth := 0
	if rowWidth >= 40 && timeText != "" {
		timeWidth = len([]rune(timeText)) + 2
		if timeWidth > rowWidth/2 {
			timeWidth = rowWidth / 2
			timeText = truncateRunes(timeText, timeWidth-2)
		}
	} else {
		timeText = ""
	}

	nameWidth := rowWidth - timeWidth
	name := truncateRunes(match.Row.Name, nameWidth)

	positions := make(map[int]bool, len(match.Positions))
	for _, position := range match.Positions {
		positions[position] = true
	}

	var line strings.Builder
	for index, r := range []rune(name) {
		if positions[index] {
			line.WriteString(matchStyle.Render(string(r)))
		} else {
			line.WriteString(baseStyle.Render(string(r)))
		}
	}

	padding := nameWidth - len([]rune(name))
	if padding > 0 {
		line.WriteString(baseStyle.Render(strings.Repeat(" ", padding)))
	}
	if timeText != "" {
		gap := timeWidth - len([]rune(timeText))
		if gap > 0 {
			line.WriteString(timeStyle.Render(strings.Repeat(" ", gap)))
		}
		line.WriteString(timeStyle.Render(timeText))
	}
	return line.String()
}

// truncateRunes cuts text to at most width cells, appending an
// ellipsis when something was dropped.
func truncateRunes(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	if width < 1 {
		return ""
	}
	return string(runes[:width-1]) + "…"
}

// renderDivider renders the vertical line between the panes.
func (model Model) renderDivider() string {
	visible := model.visibleHeight()
	dividerStyle := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor)

	lines := make([]string, visible)
	for index := range lines {
		lines[index] = "│"
	}
	return dividerStyle.Width(1).Height(visible).Render(strings.Join(lines, "\n"))
}

// renderHelpBar renders the bottom status line: focus indicator, key
// hints, selection position, and any load error.
func (model Model) renderHelpBar() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	focusIndicator := "LIST"
	switch model.focusRegion {
	case FocusDetail:
		focusIndicator = "DETAIL"
	case FocusFilter:
		focusIndicator = "FILTER"
	}

	help := fmt.Sprintf(" [%s] q quit  ↑↓ navigate  ←→ category  Tab focus  / filter  r reload  ? help",
		focusIndicator)
	if len(model.matches) > 0 {
		help += fmt.Sprintf("  %d/%d", model.cursor+1, len(model.matches))
	}

	line := style.Render(help)
	if model.loadError != "" {
		errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
		line += errorStyle.Render("  " + model.loadError)
	}
	return lipgloss.NewStyle().MaxWidth(model.width).Render(line)
}
