// Package tour implements the guided-tour step sequencer.
//
// A Sequencer owns an ordered, immutable list of steps and walks the user
// through them one target at a time. Everything environment-specific is
// injected through Env: the document that resolves targets, the sink that
// highlights them, the view that draws the overlay and tooltip, and the
// store that remembers completion across sessions. The same sequencer runs
// against a terminal page (pkg/ui) and a live browser page (pkg/browser).
//
// Lifecycle:
//
//	New -> Init (page ready) -> Start -> NextStep/PreviousStep ... -> Complete
//
// Completion is durable. A sequencer built against a store that already
// holds the completion marker is inert until Reset.
package tour

import (
	"errors"
	"sync"

	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/persist"
)

var (
	ErrNoSteps             = errors.New("tour has no steps")
	ErrMissingCollaborator = errors.New("tour environment is missing a document, highlight sink or view")
)

// Sequencer is the tour state machine. Methods are safe to call from a
// scheduler goroutine; collaborators must not call back into it.
type Sequencer struct {
	steps []Step
	env   Env
	opts  options

	mu          sync.Mutex
	index       int
	active      bool
	completed   bool
	placement   Placement
	placed      bool
	noticeShown bool
	noticeGen   int
	promptShown bool
	promptGen   int
}

// New builds a sequencer over steps. If the store already holds the
// completion marker the sequencer is inert.
func New(steps []Step, env Env, opts ...Option) (*Sequencer, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	if env.Document == nil || env.Highlight == nil || env.View == nil {
		return nil, ErrMissingCollaborator
	}
	if env.Store == nil {
		env.Store = persist.NewMemoryStore()
	}
	if env.Scheduler == nil {
		env.Scheduler = TimerScheduler{}
	}
	if env.Tracker == nil {
		env.Tracker = nopTracker{}
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Sequencer{
		steps: append([]Step(nil), steps...),
		env:   env,
		opts:  o,
	}
	s.completed = s.readCompleted()
	debug.LogIf(s.completed, "tour: %q already completed (marker %q), staying inert", o.storageKey, o.marker)
	return s, nil
}

// Steps returns a copy of the step list.
func (s *Sequencer) Steps() []Step {
	return append([]Step(nil), s.steps...)
}

// State returns a snapshot of the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		CurrentIndex: s.index,
		Total:        len(s.steps),
		Active:       s.active,
		Completed:    s.completed,
		NoticeShown:  s.noticeShown,
		PromptShown:  s.promptShown,
	}
}

// CurrentStep returns the view of the step on screen, if the tour is active.
func (s *Sequencer) CurrentStep() (StepView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return StepView{}, false
	}
	return newStepView(s.steps, s.index), true
}

// Placement returns the last tooltip placement written to the view.
func (s *Sequencer) Placement() (Placement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placement, s.active && s.placed
}

// Init is the page-ready hook. Unless the tour is already completed it
// either shows the welcome prompt or schedules Start.
func (s *Sequencer) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
}

func (s *Sequencer) init() {
	if s.completed {
		return
	}
	switch {
	case s.opts.prompt:
		s.showPrompt()
	case s.opts.autoStart && s.opts.startDelay <= 0:
		s.start()
	case s.opts.autoStart:
		s.env.Scheduler.After(s.opts.startDelay, s.Start)
	}
}

// Start activates the tour at the first resolvable step. It is a no-op
// while active or once completed.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start()
}

func (s *Sequencer) start() {
	if s.active || s.completed {
		return
	}
	if s.promptShown {
		s.hidePrompt()
	}
	s.active = true
	s.index = 0
	s.placed = false
	s.env.View.ShowOverlay()
	s.track(EventStarted, -1)
	s.showForward()
}

// NextStep advances one step, or completes the tour from the last step.
func (s *Sequencer) NextStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.next()
	}
}

func (s *Sequencer) next() {
	if s.index < len(s.steps)-1 {
		s.index++
		s.showForward()
		return
	}
	s.complete(EventCompleted)
}

// PreviousStep moves back to the nearest earlier step whose target
// resolves. It is a no-op at the first step.
func (s *Sequencer) PreviousStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.previous()
	}
}

func (s *Sequencer) previous() {
	for i := s.index - 1; i >= 0; i-- {
		if el, ok := s.env.Document.Resolve(s.steps[i].Target); ok {
			s.index = i
			s.display(el)
			return
		}
	}
}

// Skip ends the tour. It is recorded exactly like a natural completion.
func (s *Sequencer) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete(EventSkipped)
}

// Complete ends the tour, marks it completed in the store and shows the
// completion notice. Calling it again rewrites the same marker.
func (s *Sequencer) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complete(EventCompleted)
}

func (s *Sequencer) complete(kind EventKind) {
	if s.active {
		s.active = false
		s.placed = false
		s.env.View.HideOverlay()
		s.env.Highlight.ClearHighlight()
		s.track(EventClosed, s.index)
	}
	s.markCompleted()
	s.track(kind, -1)
	s.showNotice()
}

// Resize recomputes the tooltip placement for the step on screen without
// moving the cursor.
func (s *Sequencer) Resize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.resize()
	}
}

func (s *Sequencer) resize() {
	el, ok := s.env.Document.Resolve(s.steps[s.index].Target)
	if !ok {
		debug.Log("tour: target %q vanished on resize, keeping previous placement", s.steps[s.index].Target)
		return
	}
	s.place(el)
}

// Reset removes the completion marker and replays the page lifecycle as if
// the page had been reloaded.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removeErr := s.env.Store.Remove(s.opts.storageKey)
	if removeErr != nil {
		debug.Log("tour: removing %q: %v", s.opts.storageKey, removeErr)
	}
	if s.active {
		s.active = false
		s.env.View.HideOverlay()
		s.env.Highlight.ClearHighlight()
	}
	if s.noticeShown {
		s.hideNotice()
	}
	if s.promptShown {
		s.hidePrompt()
	}
	s.index = 0
	s.placed = false
	// A marker that could not be removed is ignored for this session.
	s.completed = removeErr == nil && s.readCompleted()
	s.init()
}

// DismissNotice hides the completion notice before its timer fires.
func (s *Sequencer) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noticeShown {
		s.hideNotice()
	}
}

// AcceptWelcome answers the welcome prompt with yes and starts the tour.
func (s *Sequencer) AcceptWelcome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.promptShown {
		return
	}
	s.hidePrompt()
	s.start()
}

// DeclineWelcome answers the welcome prompt with no. The tour is marked
// completed without being shown.
func (s *Sequencer) DeclineWelcome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.promptShown {
		return
	}
	s.hidePrompt()
	s.track(EventDeclined, -1)
	s.markCompleted()
}

// showForward displays the step at the cursor, skipping forward past
// steps whose target is missing. Running off the end completes the tour.
func (s *Sequencer) showForward() {
	for ; s.index < len(s.steps); s.index++ {
		step := s.steps[s.index]
		if el, ok := s.env.Document.Resolve(step.Target); ok {
			s.display(el)
			return
		}
		debug.Log("tour: step %d target %q not found, skipping", s.index, step.Target)
		s.track(EventStepMissing, s.index)
	}
	s.index = len(s.steps) - 1
	s.complete(EventCompleted)
}

func (s *Sequencer) display(el Element) {
	s.env.Highlight.ClearHighlight()
	s.env.Highlight.Highlight(el)
	s.env.View.SetContent(newStepView(s.steps, s.index))
	s.place(el)
	s.track(EventStepViewed, s.index)
}

func (s *Sequencer) place(el Element) {
	target := s.env.Document.BoundingBox(el)
	tooltip := s.env.View.TooltipSize()
	p := Place(target, tooltip, s.steps[s.index].Position, s.env.Document.Viewport(), s.opts.geometry)
	s.env.View.PlaceTooltip(p)
	s.placement = p
	s.placed = true
}

func (s *Sequencer) readCompleted() bool {
	v, err := s.env.Store.Get(s.opts.storageKey)
	if err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			debug.Log("tour: reading %q: %v", s.opts.storageKey, err)
		}
		return false
	}
	return v == s.opts.marker
}

func (s *Sequencer) markCompleted() {
	if err := s.env.Store.Set(s.opts.storageKey, s.opts.marker); err != nil {
		debug.Log("tour: marking %q completed: %v", s.opts.storageKey, err)
	}
	s.completed = true
}

func (s *Sequencer) showNotice() {
	s.noticeGen++
	gen := s.noticeGen
	s.noticeShown = true
	s.env.View.ShowNotice()
	s.env.Scheduler.After(s.opts.noticeDuration, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.noticeShown && s.noticeGen == gen {
			s.hideNotice()
		}
	})
}

func (s *Sequencer) hideNotice() {
	s.noticeShown = false
	s.env.View.HideNotice()
}

func (s *Sequencer) showPrompt() {
	s.promptGen++
	gen := s.promptGen
	s.promptShown = true
	s.env.View.ShowPrompt()
	s.env.Scheduler.After(s.opts.promptTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.promptShown && s.promptGen == gen {
			s.hidePrompt()
		}
	})
}

func (s *Sequencer) hidePrompt() {
	s.promptShown = false
	s.env.View.HidePrompt()
}

func (s *Sequencer) track(kind EventKind, index int) {
	e := Event{Kind: kind, Step: index, At: s.opts.now()}
	if index >= 0 && index < len(s.steps) {
		e.StepID = s.steps[index].Key(index)
	}
	s.env.Tracker.Track(e)
}
