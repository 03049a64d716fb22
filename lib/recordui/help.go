// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

package recordui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// helpText is the overlay shown on '?'. Markdown, rendered at the
// current terminal width.
const helpText = `# Records browser

Browse the kiosk's attendance files without leaving the terminal.
While a kiosk is running, saves appear in the list as they happen.

## Keys

- ` + "`j`/`k`" + ` or arrows move the selection
- ` + "`C-d`/`C-u`" + ` page down and up, ` + "`g`/`G`" + ` jump to the ends
- ` + "`h`/`l`" + ` or ` + "`1`-`4`" + ` switch category
- ` + "`Tab`" + ` moves focus between the list and the record detail
- ` + "`/`" + ` filters the list, ` + "`Esc`" + ` clears the filter
- ` + "`r`" + ` reloads the active category from disk
- ` + "`q`" + ` quits

## Filtering

Queries match names fuzzily: characters in order, case-insensitive,
best matches first. Plain substrings also match the time and status
fields, so a date like ` + "`2026-02-11`" + ` narrows the list to one day.`

// helpParserInstance is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share; actual parsing creates per-call state via Parse(reader).
var (
	helpParserInstance goldmark.Markdown
	helpParserOnce     sync.Once
)

func getHelpParser() goldmark.Markdown {
	helpParserOnce.Do(func() {
		helpParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return helpParserInstance
}

// renderHelpMarkdown parses markdown and renders it as styled terminal
// text. Soft line breaks become spaces so the hard-wrapped source
// reflows at any terminal width.
func renderHelpMarkdown(input string, theme Theme, width int) string {
	if input == "" {
		return ""
	}
	source := []byte(input)
	reader := text.NewReader(source)
	document := getHelpParser().Parser().Parse(reader)

	// Force the ANSI256 color profile: this output is always for
	// terminal display, so bypass auto-detection, which would produce
	// uncolored output in test environments with no TTY.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &helpRenderer{
		source:      source,
		theme:       theme,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	return strings.TrimRight(renderer.output.String(), "\n")
}

// helpRenderer walks a goldmark AST and produces styled terminal text.
// It uses a direct ast.Walk rather than goldmark's renderer interface
// because terminal rendering needs accumulate-then-wrap semantics:
// paragraph inline content collects in a buffer and gets word-wrapped
// as a unit when the paragraph closes.
type helpRenderer struct {
	source []byte
	theme  Theme
	width  int

	// Final rendered output.
	output strings.Builder

	// Inline accumulator, flushed with word-wrap when the containing
	// block closes.
	inline strings.Builder

	// Indent prefix for list nesting.
	linePrefix string

	// Pending bullet: replaces linePrefix for the very next emitted
	// line, then clears.
	pendingBullet string

	// Bold nesting depth. A counter (not a boolean) so nested
	// emphasis unwinds correctly.
	boldCount int

	listDepth int

	// lipgloss renderer with forced color profile.
	lipRenderer *lipgloss.Renderer

	// Trailing newlines at the end of output, for blank line
	// management between blocks.
	trailingNewlines int
}

func (renderer *helpRenderer) newStyle() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *helpRenderer) currentWidth() int {
	result := renderer.width - len(renderer.linePrefix)
	if result < 20 {
		result = 20
	}
	return result
}

func (renderer *helpRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	renderer.output.WriteString(s)

	newTrailing := 0
	entirelyNewlines := true
	for index := len(s) - 1; index >= 0; index-- {
		if s[index] == '\n' {
			newTrailing++
		} else {
			entirelyNewlines = false
			break
		}
	}
	if entirelyNewlines {
		renderer.trailingNewlines += newTrailing
	} else {
		renderer.trailingNewlines = newTrailing
	}
}

func (renderer *helpRenderer) ensureNewline() {
	if renderer.trailingNewlines < 1 {
		renderer.writeOutput("\n")
	}
}

func (renderer *helpRenderer) ensureBlankLine() {
	for renderer.trailingNewlines < 2 {
		renderer.writeOutput("\n")
	}
}

// applyPrefixes prepends the line prefix to each line. The first line
// uses the pending bullet when one is set.
func (renderer *helpRenderer) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	var result strings.Builder
	for index, line := range lines {
		if index == 0 && renderer.pendingBullet != "" {
			result.WriteString(renderer.pendingBullet)
			renderer.pendingBullet = ""
		} else {
			result.WriteString(renderer.linePrefix)
		}
		result.WriteString(line)
		if index < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// flushInline word-wraps the accumulated inline content to the
// current width, applies line prefixes, and resets the buffer.
func (renderer *helpRenderer) flushInline() string {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return ""
	}
	content = ansi.Wrap(content, renderer.currentWidth(), " ,.;-+|")
	return renderer.applyPrefixes(content)
}

// styledText applies the current inline style to a text fragment.
func (renderer *helpRenderer) styledText(content string) string {
	style := renderer.newStyle().Foreground(renderer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	return style.Render(content)
}

func (renderer *helpRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindDocument:
		// No action on entering or leaving.

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			renderer.inline.Reset()
		} else {
			flushed := renderer.flushInline()
			if flushed != "" {
				renderer.writeOutput(flushed)
				renderer.ensureNewline()
				if renderer.listDepth == 0 {
					renderer.ensureBlankLine()
				}
			}
		}

	case ast.KindHeading:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			renderer.renderFencedCodeBlock(node.(*ast.FencedCodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindList:
		if entering {
			renderer.listDepth++
		} else {
			renderer.listDepth--
			if renderer.listDepth == 0 {
				renderer.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			renderer.pendingBullet = renderer.linePrefix + "• "
			renderer.linePrefix += "  "
		} else {
			renderer.linePrefix = renderer.linePrefix[:len(renderer.linePrefix)-2]
		}

	case ast.KindText:
		if entering {
			renderer.handleText(node.(*ast.Text))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		if emphasis.Level == 2 {
			if entering {
				renderer.boldCount++
			} else {
				renderer.boldCount--
			}
		}

	case ast.KindCodeSpan:
		if entering {
			renderer.renderCodeSpan(node)
			return ast.WalkSkipChildren, nil
		}
	}

	return ast.WalkContinue, nil
}

func (renderer *helpRenderer) handleText(node *ast.Text) {
	segment := node.Segment
	content := string(renderer.source[segment.Start:segment.Stop])
	renderer.inline.WriteString(renderer.styledText(content))
	if node.SoftLineBreak() || node.HardLineBreak() {
		renderer.inline.WriteString(" ")
	}
}

func (renderer *helpRenderer) renderCodeSpan(node ast.Node) {
	var content strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			segment := textNode.Segment
			content.Write(renderer.source[segment.Start:segment.Stop])
		}
	}
	styled := renderer.newStyle().
		Foreground(renderer.theme.MatchForeground).
		Render(content.String())
	renderer.inline.WriteString(styled)
}

func (renderer *helpRenderer) leaveHeading(heading *ast.Heading) {
	content := renderer.inline.String()
	renderer.inline.Reset()

	style := renderer.newStyle().
		Foreground(renderer.theme.HeaderForeground).
		Bold(true)
	plain := ansi.Strip(content)
	if heading.Level == 1 {
		plain = strings.ToUpper(plain)
	}
	renderer.ensureBlankLine()
	renderer.writeOutput(style.Render(plain))
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

func (renderer *helpRenderer) renderFencedCodeBlock(node *ast.FencedCodeBlock) {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		line := lines.At(index)
		code.Write(renderer.source[line.Start:line.Stop])
	}

	style := renderer.newStyle().Foreground(renderer.theme.FaintText)
	renderer.ensureBlankLine()
	for _, codeLine := range strings.Split(strings.TrimRight(code.String(), "\n"), "\n") {
		renderer.writeOutput(renderer.linePrefix + "  " + style.Render(codeLine))
		renderer.ensureNewline()
	}
	renderer.ensureBlankLine()
}

// renderHelpOverlay renders the help text inside a rounded border box
// sized to the given terminal dimensions.
func renderHelpOverlay(theme Theme, width, height int) string {
	boxWidth := width - 8
	if boxWidth > 72 {
		boxWidth = 72
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	body := renderHelpMarkdown(helpText, theme, boxWidth-4)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(0, 2).
		Width(boxWidth).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
