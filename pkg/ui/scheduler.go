package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// scheduledMsg carries a sequencer callback back onto the Update goroutine.
type scheduledMsg struct {
	gen int
	fn  func()
}

// teaScheduler implements tour.Scheduler on top of tea.Tick. Callbacks are
// queued as commands and run from Update, so the sequencer is only ever
// driven from one goroutine.
type teaScheduler struct {
	gen     int
	pending []tea.Cmd
}

// After implements tour.Scheduler.
func (s *teaScheduler) After(d time.Duration, fn func()) {
	gen := s.gen
	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return scheduledMsg{gen: gen, fn: fn}
	}))
}

// drain returns the queued commands and clears the queue.
func (s *teaScheduler) drain() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

// invalidate drops every callback scheduled so far.
func (s *teaScheduler) invalidate() {
	s.gen++
	s.pending = nil
}

func (s *teaScheduler) current(msg scheduledMsg) bool {
	return msg.gen == s.gen
}
