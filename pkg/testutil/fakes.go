// Package testutil provides fakes for the tour collaborators plus step and
// layout generators. The fakes record every call so tests can assert on
// ordering (highlight cleared before the next one is applied, content set
// before the tooltip is measured, and so on).
package testutil

import (
	"time"

	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// FakeElement is the Element handle returned by FakeDocument.
type FakeElement struct {
	ID string
}

// Locator implements tour.Element.
func (e FakeElement) Locator() string { return e.ID }

// FakeDocument resolves locators against a fixed map of bounding boxes.
type FakeDocument struct {
	Boxes    map[string]tour.Rect
	Size     tour.Size
	Resolved []string // every locator passed to Resolve
}

// NewFakeDocument returns an 800x600 document with the given boxes.
func NewFakeDocument(boxes map[string]tour.Rect) *FakeDocument {
	if boxes == nil {
		boxes = make(map[string]tour.Rect)
	}
	return &FakeDocument{Boxes: boxes, Size: tour.Size{Width: 800, Height: 600}}
}

// Resolve implements tour.Document.
func (d *FakeDocument) Resolve(locator string) (tour.Element, bool) {
	d.Resolved = append(d.Resolved, locator)
	if _, ok := d.Boxes[locator]; !ok {
		return nil, false
	}
	return FakeElement{ID: locator}, true
}

// BoundingBox implements tour.Document.
func (d *FakeDocument) BoundingBox(el tour.Element) tour.Rect {
	return d.Boxes[el.Locator()]
}

// Viewport implements tour.Document.
func (d *FakeDocument) Viewport() tour.Size {
	return d.Size
}

// FakeHighlighter records highlight calls. Violations counts highlights
// applied while another element was still marked.
type FakeHighlighter struct {
	Current    string
	Calls      []string
	Violations int
}

// Highlight implements tour.HighlightSink.
func (h *FakeHighlighter) Highlight(el tour.Element) {
	if h.Current != "" {
		h.Violations++
	}
	h.Current = el.Locator()
	h.Calls = append(h.Calls, "highlight:"+el.Locator())
}

// ClearHighlight implements tour.HighlightSink.
func (h *FakeHighlighter) ClearHighlight() {
	h.Current = ""
	h.Calls = append(h.Calls, "clear")
}

// FakeView records what the sequencer asked the host to draw.
type FakeView struct {
	Tooltip      tour.Size
	OverlayShown bool
	NoticeShown  bool
	PromptShown  bool
	Content      tour.StepView
	Placement    tour.Placement
	Contents     []tour.StepView
	Placements   []tour.Placement
	NoticeCount  int
}

// NewFakeView returns a view whose tooltip measures 200x100.
func NewFakeView() *FakeView {
	return &FakeView{Tooltip: tour.Size{Width: 200, Height: 100}}
}

func (v *FakeView) ShowOverlay() { v.OverlayShown = true }
func (v *FakeView) HideOverlay() { v.OverlayShown = false }

func (v *FakeView) SetContent(sv tour.StepView) {
	v.Content = sv
	v.Contents = append(v.Contents, sv)
}

func (v *FakeView) TooltipSize() tour.Size { return v.Tooltip }

func (v *FakeView) PlaceTooltip(p tour.Placement) {
	v.Placement = p
	v.Placements = append(v.Placements, p)
}

func (v *FakeView) ShowNotice() {
	v.NoticeShown = true
	v.NoticeCount++
}

func (v *FakeView) HideNotice() { v.NoticeShown = false }
func (v *FakeView) ShowPrompt() { v.PromptShown = true }
func (v *FakeView) HidePrompt() { v.PromptShown = false }

type scheduled struct {
	delay time.Duration
	fn    func()
}

// ManualScheduler queues callbacks until the test fires them.
type ManualScheduler struct {
	queue []scheduled
}

// After implements tour.Scheduler.
func (s *ManualScheduler) After(d time.Duration, fn func()) {
	s.queue = append(s.queue, scheduled{delay: d, fn: fn})
}

// Pending returns the number of queued callbacks.
func (s *ManualScheduler) Pending() int { return len(s.queue) }

// Delays returns the delay of each queued callback, in order.
func (s *ManualScheduler) Delays() []time.Duration {
	out := make([]time.Duration, len(s.queue))
	for i, q := range s.queue {
		out[i] = q.delay
	}
	return out
}

// FireNext runs the oldest queued callback. It reports false when the
// queue is empty.
func (s *ManualScheduler) FireNext() bool {
	if len(s.queue) == 0 {
		return false
	}
	q := s.queue[0]
	s.queue = s.queue[1:]
	q.fn()
	return true
}

// FireAll runs every callback queued so far. Callbacks they schedule stay
// queued.
func (s *ManualScheduler) FireAll() {
	queue := s.queue
	s.queue = nil
	for _, q := range queue {
		q.fn()
	}
}

// RecordingTracker keeps every event.
type RecordingTracker struct {
	Events []tour.Event
}

// Track implements tour.Tracker.
func (r *RecordingTracker) Track(e tour.Event) {
	r.Events = append(r.Events, e)
}

// Kinds returns the event kinds in order.
func (r *RecordingTracker) Kinds() []tour.EventKind {
	out := make([]tour.EventKind, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *RecordingTracker) Count(kind tour.EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Fixture wires a full set of fakes around a MemoryStore.
type Fixture struct {
	Doc       *FakeDocument
	Highlight *FakeHighlighter
	View      *FakeView
	Store     *persist.MemoryStore
	Scheduler *ManualScheduler
	Tracker   *RecordingTracker
}

// NewFixture builds fakes over the given target boxes.
func NewFixture(boxes map[string]tour.Rect) *Fixture {
	return &Fixture{
		Doc:       NewFakeDocument(boxes),
		Highlight: &FakeHighlighter{},
		View:      NewFakeView(),
		Store:     persist.NewMemoryStore(),
		Scheduler: &ManualScheduler{},
		Tracker:   &RecordingTracker{},
	}
}

// Env returns the tour environment over the fixture's fakes.
func (f *Fixture) Env() tour.Env {
	return tour.Env{
		Document:  f.Doc,
		Highlight: f.Highlight,
		View:      f.View,
		Store:     f.Store,
		Scheduler: f.Scheduler,
		Tracker:   f.Tracker,
	}
}

// EnvWithStore is Env with a different store.
func (f *Fixture) EnvWithStore(s persist.Store) tour.Env {
	env := f.Env()
	env.Store = s
	return env
}
