package tour

import (
	"time"

	"github.com/vanderheijden86/storytour/pkg/persist"
)

// Element is a resolved step target. Hosts return their own handle types;
// the sequencer only passes them back to the same host.
type Element interface {
	Locator() string
}

// Document resolves step targets and reports geometry.
type Document interface {
	// Resolve returns the element matched by locator, or false when the
	// locator matches nothing.
	Resolve(locator string) (Element, bool)
	BoundingBox(el Element) Rect
	Viewport() Size
}

// HighlightSink marks at most one element at a time.
type HighlightSink interface {
	Highlight(el Element)
	ClearHighlight()
}

// View is the host page's overlay, tooltip, notice and prompt.
type View interface {
	ShowOverlay()
	HideOverlay()

	// SetContent fills the tooltip's title, description, counter and
	// button labels. TooltipSize is read after SetContent.
	SetContent(v StepView)
	TooltipSize() Size
	PlaceTooltip(p Placement)

	ShowNotice()
	HideNotice()

	ShowPrompt()
	HidePrompt()
}

// Scheduler runs fn once after d. Hosts with a single UI thread deliver fn
// on that thread.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

// After implements Scheduler.
func (TimerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Env bundles the collaborators a Sequencer is built against. Document,
// Highlight and View are required. A nil Store means completion is never
// remembered; a nil Scheduler uses TimerScheduler; a nil Tracker drops
// events.
type Env struct {
	Document  Document
	Highlight HighlightSink
	View      View
	Store     persist.Store
	Scheduler Scheduler
	Tracker   Tracker
}
