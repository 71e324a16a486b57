package tour

import "time"

// EventKind names a tour analytics event.
type EventKind string

const (
	EventStarted     EventKind = "started"
	EventStepViewed  EventKind = "step_viewed"
	EventStepMissing EventKind = "step_missing"
	EventSkipped     EventKind = "skipped"
	EventCompleted   EventKind = "completed"
	EventClosed      EventKind = "closed"
	EventDeclined    EventKind = "declined"
)

// Event is one analytics record. Step is -1 for tour-level events.
type Event struct {
	Kind   EventKind
	Step   int
	StepID string
	At     time.Time
}

// Tracker receives tour events.
type Tracker interface {
	Track(e Event)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(Event)

// Track implements Tracker.
func (f TrackerFunc) Track(e Event) { f(e) }

type nopTracker struct{}

func (nopTracker) Track(Event) {}

// Trackers fans events out to every non-nil tracker, in order.
func Trackers(ts ...Tracker) Tracker {
	var out multiTracker
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

type multiTracker []Tracker

func (m multiTracker) Track(e Event) {
	for _, t := range m {
		t.Track(e)
	}
}
