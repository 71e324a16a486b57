package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/vanderheijden86/storytour/pkg/debug"
)

// markdownRenderer renders step descriptions with Glamour. The term
// renderer is rebuilt only when the wrap width changes.
type markdownRenderer struct {
	style string // "auto", or a glamour standard style name
	width int
	tr    *glamour.TermRenderer
}

func newMarkdownRenderer(style string) *markdownRenderer {
	if style == "" {
		style = "auto"
	}
	return &markdownRenderer{style: style}
}

func (m *markdownRenderer) renderer(width int) *glamour.TermRenderer {
	if m.tr != nil && m.width == width {
		return m.tr
	}
	styleOpt := glamour.WithStandardStyle(m.style)
	if m.style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		debug.Log("ui: glamour renderer (%s, %d): %v", m.style, width, err)
		tr = nil
	}
	m.tr, m.width = tr, width
	return tr
}

// Render renders text to at most width cells per line. Plain wrapping is
// used when Glamour is unavailable.
func (m *markdownRenderer) Render(text string, width int) string {
	if strings.TrimSpace(text) == "" || width <= 0 {
		return ""
	}
	if m != nil {
		if tr := m.renderer(width); tr != nil {
			if out, err := tr.Render(text); err == nil {
				return clampWidth(trimBlankLines(dedent(out)), width)
			}
		}
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// dedent strips the left margin Glamour puts around documents.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	margin := -1
	for _, l := range lines {
		plain := ansi.Strip(l)
		if strings.TrimSpace(plain) == "" {
			continue
		}
		n := len(plain) - len(strings.TrimLeft(plain, " "))
		if margin < 0 || n < margin {
			margin = n
		}
	}
	if margin <= 0 {
		return s
	}
	for i, l := range lines {
		lines[i] = ansi.TruncateLeft(l, margin, "")
	}
	return strings.Join(lines, "\n")
}

func clampWidth(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if ansi.StringWidth(l) > width {
			lines[i] = ansi.Truncate(l, width, "")
		}
	}
	return strings.Join(lines, "\n")
}
