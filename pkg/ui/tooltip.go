package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

const (
	tooltipMaxInner = 40
	tooltipMinInner = 24 // Skip, Back and Next side by side
)

// button is a clickable label inside the tooltip, in tooltip-local cells.
type button struct {
	label  string
	signal tour.Signal
	row    int
	col    int
	width  int
}

// tooltip renders the step card the sequencer places next to its target.
type tooltip struct {
	theme    Theme
	md       *markdownRenderer
	maxWidth int

	view     tour.StepView
	has      bool
	rendered string
	buttons  []button
}

func newTooltip(theme Theme, md *markdownRenderer) *tooltip {
	return &tooltip{theme: theme, md: md}
}

func (t *tooltip) setMaxWidth(w int) {
	t.maxWidth = w
	if t.has {
		t.build()
	}
}

func (t *tooltip) setContent(v tour.StepView) {
	t.view = v
	t.has = true
	t.build()
}

func (t *tooltip) innerWidth() int {
	inner := t.maxWidth - 6
	if inner > tooltipMaxInner {
		inner = tooltipMaxInner
	}
	if inner < tooltipMinInner {
		inner = tooltipMinInner
	}
	return inner
}

func (t *tooltip) build() {
	inner := t.innerWidth()
	v := t.view

	var lines []string
	lines = append(lines, t.theme.TooltipTitle.Render(truncate(v.Step.Title, inner)))
	if desc := t.md.Render(v.Step.Description, inner); desc != "" {
		lines = append(lines, "")
		lines = append(lines, strings.Split(desc, "\n")...)
	}
	lines = append(lines, "", t.progressLine(inner))

	skip := button{label: "[Skip]", signal: tour.SignalSkipClick}
	next := button{label: "[" + v.AdvanceLabel + " >]", signal: tour.SignalAdvanceClick}
	if v.AdvanceLabel == "Finish" {
		next.label = "[Finish]"
	}
	row := []*button{&skip}
	var back button
	if v.CanGoBack {
		back = button{label: "[< Back]", signal: tour.SignalBack}
		row = append(row, &back)
	}
	row = append(row, &next)

	// Skip sits on the left, Back and Next on the right.
	next.col = inner - runewidth.StringWidth(next.label)
	if v.CanGoBack {
		back.col = next.col - 1 - runewidth.StringWidth(back.label)
	}
	buttonRow := len(lines)
	var b strings.Builder
	cursor := 0
	t.buttons = t.buttons[:0]
	for _, btn := range row {
		if btn.col > cursor {
			b.WriteString(strings.Repeat(" ", btn.col-cursor))
			cursor = btn.col
		}
		style := t.theme.Button
		if btn.signal == tour.SignalAdvanceClick {
			style = t.theme.PrimaryBtn
		}
		b.WriteString(style.Render(btn.label))
		btn.width = runewidth.StringWidth(btn.label)
		cursor += btn.width
		// Border and left padding offset the body by one row and two columns.
		t.buttons = append(t.buttons, button{
			label:  btn.label,
			signal: btn.signal,
			row:    buttonRow + 1,
			col:    btn.col + 2,
			width:  btn.width,
		})
	}
	lines = append(lines, b.String())

	t.rendered = t.theme.Tooltip.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

func (t *tooltip) progressLine(inner int) string {
	counter := t.view.Counter
	barW := inner - runewidth.StringWidth(counter) - 1
	if barW < 1 {
		return t.theme.Counter.Render(truncate(counter, inner))
	}
	filled := int(t.view.Progress*float64(barW) + 0.5)
	if filled > barW {
		filled = barW
	}
	return t.theme.Progress.Render(strings.Repeat("█", filled)) +
		t.theme.ProgressRest.Render(strings.Repeat("░", barW-filled)) +
		" " + t.theme.Counter.Render(counter)
}

func (t *tooltip) render() string {
	return t.rendered
}

func (t *tooltip) size() tour.Size {
	if !t.has {
		return tour.Size{}
	}
	w, h := blockSize(t.rendered)
	return tour.Size{Width: float64(w), Height: float64(h)}
}

// hit returns the button at tooltip-local cell (x, y).
func (t *tooltip) hit(x, y int) (tour.Signal, bool) {
	for _, b := range t.buttons {
		if y == b.row && x >= b.col && x < b.col+b.width {
			return b.signal, true
		}
	}
	return 0, false
}

func blockSize(s string) (int, int) {
	return lipgloss.Width(s), lipgloss.Height(s)
}
