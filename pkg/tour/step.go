package tour

import "fmt"

// Position is the preferred side of the target a tooltip is anchored to.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

// Valid reports whether p is one of the four placement sides.
func (p Position) Valid() bool {
	switch p {
	case PositionTop, PositionBottom, PositionLeft, PositionRight:
		return true
	}
	return false
}

// Opposite returns the side facing p. Unrecognized positions place like
// bottom, so their opposite is top.
func (p Position) Opposite() Position {
	switch p {
	case PositionTop:
		return PositionBottom
	case PositionLeft:
		return PositionRight
	case PositionRight:
		return PositionLeft
	default:
		return PositionTop
	}
}

// Step is one unit of the guided tour.
type Step struct {
	ID          string   `yaml:"id,omitempty" json:"id,omitempty"`
	Target      string   `yaml:"target" json:"target"` // Locator for zero-or-one element
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Position    Position `yaml:"position,omitempty" json:"position,omitempty"`
}

// Key returns the step's ID, or a stable index-based key when none was given.
func (s Step) Key(index int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("step-%d", index+1)
}

// State is a snapshot of the sequencer's mutable state.
type State struct {
	CurrentIndex int
	Total        int
	Active       bool
	Completed    bool
	NoticeShown  bool
	PromptShown  bool
}

// StepView is everything a host needs to paint the tooltip for one step.
type StepView struct {
	Index        int
	Total        int
	Step         Step
	Counter      string  // "2 of 5"
	Progress     float64 // (Index+1)/Total
	AdvanceLabel string  // "Next", or "Finish" on the last step
	CanGoBack    bool
}

func newStepView(steps []Step, index int) StepView {
	total := len(steps)
	label := "Next"
	if index == total-1 {
		label = "Finish"
	}
	return StepView{
		Index:        index,
		Total:        total,
		Step:         steps[index],
		Counter:      fmt.Sprintf("%d of %d", index+1, total),
		Progress:     float64(index+1) / float64(total),
		AdvanceLabel: label,
		CanGoBack:    index > 0,
	}
}
