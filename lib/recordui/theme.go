// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the records browser. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Category bar.
	CategoryActive   lipgloss.Color
	CategoryInactive lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Filter match highlighting.
	MatchForeground lipgloss.Color

	// Load and watch failures shown in the status line.
	ErrorText lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	CategoryActive:   lipgloss.Color("114"), // green
	CategoryInactive: lipgloss.Color("245"), // gray

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	MatchForeground: lipgloss.Color("214"), // amber

	ErrorText: lipgloss.Color("203"), // soft red
}
