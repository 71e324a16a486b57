package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

func stepView(index, total int) tour.StepView {
	label := "Next"
	if index == total-1 {
		label = "Finish"
	}
	return tour.StepView{
		Index:        index,
		Total:        total,
		Step:         tour.Step{ID: "s", Target: "#nav", Title: "Navigation"},
		Counter:      fmt.Sprintf("%d of %d", index+1, total),
		Progress:     float64(index+1) / float64(total),
		AdvanceLabel: label,
		CanGoBack:    index > 0,
	}
}

func TestTooltipEmptyHasNoSize(t *testing.T) {
	tt := newTooltip(TestTheme(), nil)
	if got := tt.size(); got != (tour.Size{}) {
		t.Errorf("Expected zero size before content, got %+v", got)
	}
	if _, ok := tt.hit(0, 0); ok {
		t.Error("Expected no buttons before content")
	}
}

func TestTooltipSize(t *testing.T) {
	tt := newTooltip(TestTheme(), nil)
	tt.setMaxWidth(100)
	tt.setContent(stepView(1, 3))

	// 40 cells of body, one cell of padding and border on each side.
	got := tt.size()
	if got.Width != 44 {
		t.Errorf("Expected width 44, got %v", got.Width)
	}
	// Border, title, blank, progress, buttons, border.
	if got.Height != 6 {
		t.Errorf("Expected height 6, got %v", got.Height)
	}

	tt.setMaxWidth(10)
	if got := tt.size(); got.Width != 28 {
		t.Errorf("Expected narrow tooltip to keep its minimum width 28, got %v", got.Width)
	}
}

func TestTooltipButtons(t *testing.T) {
	tt := newTooltip(TestTheme(), nil)
	tt.setMaxWidth(100)
	tt.setContent(stepView(1, 3))

	tests := []struct {
		name string
		x, y int
		want tour.Signal
		ok   bool
	}{
		{"skip first cell", 2, 4, tour.SignalSkipClick, true},
		{"skip last cell", 7, 4, tour.SignalSkipClick, true},
		{"gap after skip", 10, 4, 0, false},
		{"back", 25, 4, tour.SignalBack, true},
		{"next first cell", 34, 4, tour.SignalAdvanceClick, true},
		{"next last cell", 41, 4, tour.SignalAdvanceClick, true},
		{"right padding", 42, 4, 0, false},
		{"row above", 34, 3, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tt.hit(tc.x, tc.y)
			if ok != tc.ok || got != tc.want {
				t.Errorf("hit(%d, %d) = %v, %v; want %v, %v", tc.x, tc.y, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestTooltipFirstAndLastStepButtons(t *testing.T) {
	tt := newTooltip(TestTheme(), nil)
	tt.setMaxWidth(100)

	tt.setContent(stepView(0, 3))
	if len(tt.buttons) != 2 {
		t.Fatalf("Expected Skip and Next on the first step, got %d buttons", len(tt.buttons))
	}
	for _, b := range tt.buttons {
		if b.signal == tour.SignalBack {
			t.Error("First step should not offer Back")
		}
	}

	tt.setContent(stepView(2, 3))
	last := tt.buttons[len(tt.buttons)-1]
	if last.label != "[Finish]" {
		t.Errorf("Expected [Finish] on the last step, got %q", last.label)
	}
	if !strings.Contains(ansi.Strip(tt.render()), "3 of 3") {
		t.Error("Expected counter in rendered tooltip")
	}
}

func TestTooltipProgressBar(t *testing.T) {
	tt := newTooltip(TestTheme(), nil)
	tt.setMaxWidth(100)
	tt.setContent(stepView(0, 2))

	line := ansi.Strip(tt.progressLine(40))
	if got := ansi.StringWidth(line); got != 40 {
		t.Errorf("Expected progress line of 40 cells, got %d (%q)", got, line)
	}
	filled := strings.Count(line, "█")
	rest := strings.Count(line, "░")
	// "1 of 2" leaves 33 cells of bar, half of them filled.
	if filled != 17 || rest != 16 {
		t.Errorf("Expected 17 filled and 16 empty cells, got %d and %d", filled, rest)
	}
}

func TestTooltipRerendersOnWidthChange(t *testing.T) {
	tt := newTooltip(TestTheme(), nil)
	tt.setMaxWidth(34)
	tt.setContent(stepView(1, 3))
	if got := tt.size().Width; got != 32 {
		t.Fatalf("Expected width 32 at max 34, got %v", got)
	}
	tt.setMaxWidth(100)
	if got := tt.size().Width; got != 44 {
		t.Errorf("Expected width 44 after widening, got %v", got)
	}
}
