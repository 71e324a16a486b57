package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

var eventKinds = []tour.EventKind{
	tour.EventStarted,
	tour.EventStepViewed,
	tour.EventStepMissing,
	tour.EventSkipped,
	tour.EventCompleted,
	tour.EventClosed,
	tour.EventDeclined,
}

// Recorder is a tour.Tracker that counts events and measures how long each
// step stayed on screen. A step's dwell ends when the next step is viewed
// or the tour closes.
type Recorder struct {
	counts map[tour.EventKind]*int64

	mu        sync.Mutex
	dwell     map[string]*TimingMetric
	order     []string
	current   string
	viewedAt  time.Time
	startedAt time.Time
	runs      *TimingMetric
	missing   map[string]int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{
		counts:  make(map[tour.EventKind]*int64, len(eventKinds)),
		dwell:   make(map[string]*TimingMetric),
		runs:    NewTimingMetric("tour_duration"),
		missing: make(map[string]int),
	}
	for _, k := range eventKinds {
		r.counts[k] = new(int64)
	}
	return r
}

// Track implements tour.Tracker.
func (r *Recorder) Track(e tour.Event) {
	if c, ok := r.counts[e.Kind]; ok {
		atomic.AddInt64(c, 1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Kind {
	case tour.EventStarted:
		r.startedAt = e.At
		r.current = ""
	case tour.EventStepViewed:
		r.endDwell(e.At)
		r.current = e.StepID
		r.viewedAt = e.At
	case tour.EventStepMissing:
		r.missing[e.StepID]++
	case tour.EventClosed:
		r.endDwell(e.At)
		if !r.startedAt.IsZero() {
			r.runs.Record(e.At.Sub(r.startedAt))
			r.startedAt = time.Time{}
		}
	}
}

func (r *Recorder) endDwell(at time.Time) {
	if r.current == "" {
		return
	}
	m, ok := r.dwell[r.current]
	if !ok {
		m = NewTimingMetric("dwell:" + r.current)
		r.dwell[r.current] = m
		r.order = append(r.order, r.current)
	}
	m.Record(at.Sub(r.viewedAt))
	r.current = ""
}

// Count returns how many events of kind were tracked.
func (r *Recorder) Count(kind tour.EventKind) int64 {
	c, ok := r.counts[kind]
	if !ok {
		return 0
	}
	return atomic.LoadInt64(c)
}

// StepStats is the dwell summary of one step.
type StepStats struct {
	StepID  string      `json:"step_id"`
	Dwell   TimingStats `json:"dwell"`
	Missing int         `json:"missing,omitempty"`
}

// Summary is a snapshot of everything a Recorder has seen.
type Summary struct {
	Events map[tour.EventKind]int64 `json:"events"`
	Steps  []StepStats              `json:"steps,omitempty"`
	Runs   TimingStats              `json:"runs"`
	Hosts  []TimingStats            `json:"hosts,omitempty"`
}

// Summary returns a snapshot. Steps are listed in first-viewed order, then
// steps that were only ever missing, by ID.
func (r *Recorder) Summary() Summary {
	s := Summary{Events: make(map[tour.EventKind]int64, len(eventKinds))}
	for _, k := range eventKinds {
		if n := r.Count(k); n > 0 {
			s.Events[k] = n
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		s.Steps = append(s.Steps, StepStats{StepID: id, Dwell: r.dwell[id].Stats(), Missing: r.missing[id]})
	}
	var onlyMissing []string
	for id := range r.missing {
		if _, seen := r.dwell[id]; !seen {
			onlyMissing = append(onlyMissing, id)
		}
	}
	sort.Strings(onlyMissing)
	for _, id := range onlyMissing {
		s.Steps = append(s.Steps, StepStats{StepID: id, Missing: r.missing[id]})
	}
	s.Runs = r.runs.Stats()
	s.Hosts = AllTimingStats()
	return s
}

// WriteJSON writes the summary as indented JSON.
func (r *Recorder) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
