package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

var (
	ColorText      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorBackdrop  = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"}
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// Theme holds the pre-built styles of the storybook page and the tour chrome.
type Theme struct {
	Renderer *lipgloss.Renderer

	Page      lipgloss.Style // Regions with no overlay
	Backdrop  lipgloss.Style // Regions dimmed behind the overlay
	Highlight lipgloss.Style // The highlighted target, above the overlay

	Tooltip      lipgloss.Style
	TooltipTitle lipgloss.Style
	Counter      lipgloss.Style
	Arrow        lipgloss.Style
	Button       lipgloss.Style
	PrimaryBtn   lipgloss.Style
	Progress     lipgloss.Style
	ProgressRest lipgloss.Style

	Toast  lipgloss.Style
	Prompt lipgloss.Style
	Status lipgloss.Style
	Help   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{Renderer: r}

	t.Page = r.NewStyle().Foreground(ColorText)
	t.Backdrop = r.NewStyle().Foreground(ColorBackdrop).Faint(true)
	t.Highlight = r.NewStyle().Foreground(ColorHighlight).Bold(true)

	t.Tooltip = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)
	t.TooltipTitle = r.NewStyle().Bold(true).Foreground(ColorPrimary)
	t.Counter = r.NewStyle().Foreground(ColorSubtext)
	t.Arrow = r.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Button = r.NewStyle().Foreground(ColorSubtext)
	t.PrimaryBtn = r.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Progress = r.NewStyle().Foreground(ColorSuccess)
	t.ProgressRest = r.NewStyle().Foreground(ColorMuted)

	t.Toast = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Foreground(ColorSuccess).
		Padding(0, 1)
	t.Prompt = r.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2)
	t.Status = r.NewStyle().Foreground(ColorSubtext).Italic(true)
	t.Help = r.NewStyle().Foreground(ColorMuted)

	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
