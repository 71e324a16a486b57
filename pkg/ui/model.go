// Package ui hosts the tour in a terminal. A bubbletea Model draws the
// storybook home page, feeds keys, mouse clicks and resizes to a
// tour.Sequencer, and renders the overlay, tooltip, notice and welcome
// prompt the sequencer asks for.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// TerminalGeometry is the tooltip gap and edge padding, in cells, used
// unless a tour option overrides it.
var TerminalGeometry = tour.Geometry{Gap: 1, Padding: 1}

type modelOptions struct {
	tourOpts []tour.Option
	tracker  tour.Tracker
	changes  <-chan struct{}
	load     func() ([]tour.Step, error)
	mdStyle  string
	width    int
	height   int
	copy     func(string) error
	theme    *Theme
}

// ModelOption configures a Model.
type ModelOption func(*modelOptions)

// WithTourOptions passes options through to the sequencer.
func WithTourOptions(opts ...tour.Option) ModelOption {
	return func(o *modelOptions) {
		o.tourOpts = append(o.tourOpts, opts...)
	}
}

// WithTracker receives every tour event.
func WithTracker(t tour.Tracker) ModelOption {
	return func(o *modelOptions) {
		o.tracker = t
	}
}

// WithStepsSource reloads the steps with load each time changes fires.
// A reload that arrives while the tour is on screen waits until it ends.
func WithStepsSource(changes <-chan struct{}, load func() ([]tour.Step, error)) ModelOption {
	return func(o *modelOptions) {
		o.changes = changes
		o.load = load
	}
}

// WithMarkdownStyle selects the glamour style for step descriptions.
func WithMarkdownStyle(style string) ModelOption {
	return func(o *modelOptions) {
		o.mdStyle = style
	}
}

// WithSize lays the page out immediately instead of waiting for the first
// WindowSizeMsg.
func WithSize(width, height int) ModelOption {
	return func(o *modelOptions) {
		o.width, o.height = width, height
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) ModelOption {
	return func(o *modelOptions) {
		o.copy = fn
	}
}

// WithTheme replaces the default theme.
func WithTheme(t Theme) ModelOption {
	return func(o *modelOptions) {
		o.theme = &t
	}
}

// stepsLoadedMsg carries a reloaded steps file.
type stepsLoadedMsg struct {
	steps []tour.Step
	err   error
}

// Model is the terminal tour host.
type Model struct {
	seq   *tour.Sequencer
	env   tour.Env
	page  *Page
	sched *teaScheduler
	opts  modelOptions

	keys  keyMap
	help  help.Model
	theme Theme

	width, height int
	ready         bool
	showHelp      bool
	status        string
	pending       []tour.Step
}

// NewModel builds the storybook page and a sequencer over steps. The
// sequencer reads and writes completion through store.
func NewModel(steps []tour.Step, store persist.Store, opts ...ModelOption) (Model, error) {
	o := modelOptions{copy: clipboard.WriteAll}
	for _, opt := range opts {
		opt(&o)
	}
	o.tourOpts = append([]tour.Option{tour.WithGeometry(TerminalGeometry)}, o.tourOpts...)

	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if o.theme != nil {
		theme = *o.theme
	}
	page := NewPage(0, 0, theme, newMarkdownRenderer(o.mdStyle))
	sched := &teaScheduler{}
	env := tour.Env{
		Document:  page,
		Highlight: page,
		View:      page,
		Store:     store,
		Scheduler: sched,
		Tracker:   o.tracker,
	}
	seq, err := tour.New(steps, env, o.tourOpts...)
	if err != nil {
		return Model{}, fmt.Errorf("building tour: %w", err)
	}

	m := Model{
		seq:   seq,
		env:   env,
		page:  page,
		sched: sched,
		opts:  o,
		keys:  defaultKeyMap(),
		help:  help.New(),
		theme: theme,
	}
	if o.width > 0 && o.height > 0 {
		m.resize(o.width, o.height)
	}
	return m, nil
}

// Sequencer returns the tour driven by this model.
func (m Model) Sequencer() *tour.Sequencer { return m.seq }

// Page returns the rendered storybook page.
func (m Model) Page() *Page { return m.page }

// Status returns the status line message, if any.
func (m Model) Status() string { return m.status }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sched.drain(), m.waitForSteps())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case scheduledMsg:
		if m.sched.current(msg) {
			msg.fn()
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		m.handleMouse(msg)

	case stepsLoadedMsg:
		m.handleSteps(msg)
		cmds = append(cmds, m.waitForSteps())
	}

	m.applyPendingSteps()
	cmds = append(cmds, m.sched.drain())
	return m, tea.Batch(cmds...)
}

func pageHeight(h int) int {
	if h > 2 {
		return h - 1
	}
	return 1
}

// resize lays the page out. The first size is the page-ready moment the
// sequencer's Init waits for; later sizes recompute the placement.
func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.help.Width = w
	m.page.SetSize(w, pageHeight(h))
	if !m.ready {
		m.ready = true
		m.seq.Init()
		return
	}
	m.seq.Handle(tour.SignalResize)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	st := m.seq.State()

	if st.PromptShown {
		switch {
		case key.Matches(msg, m.keys.Accept):
			m.seq.AcceptWelcome()
		case key.Matches(msg, m.keys.Decline):
			m.seq.DeclineWelcome()
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit
		}
		return nil
	}

	if m.showHelp {
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		m.showHelp = false
		m.help.ShowAll = false
		return nil
	}

	if st.Active {
		switch {
		case key.Matches(msg, m.keys.Next):
			sig := tour.SignalAdvance
			if msg.Type == tea.KeyEnter {
				sig = tour.SignalEnter
			}
			m.seq.Handle(sig)
			return nil
		case key.Matches(msg, m.keys.Back):
			m.seq.Handle(tour.SignalBack)
			return nil
		case key.Matches(msg, m.keys.Skip):
			m.seq.Handle(tour.SignalEscape)
			return nil
		case key.Matches(msg, m.keys.Copy):
			m.copyTarget()
			return nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Start):
		if st.Completed {
			m.status = "Tour already completed. Press R to replay."
			return nil
		}
		m.seq.Start()
	case key.Matches(msg, m.keys.Reset):
		m.seq.Reset()
		m.seq.Start()
		m.status = ""
	case key.Matches(msg, m.keys.Dismiss):
		m.seq.DismissNotice()
		m.status = ""
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.ShowAll = true
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	}
	return nil
}

func (m *Model) copyTarget() {
	view, ok := m.seq.CurrentStep()
	if !ok {
		return
	}
	if err := m.opts.copy(view.Step.Target); err != nil {
		debug.Log("ui: clipboard: %v", err)
		m.status = fmt.Sprintf("Clipboard error: %v", err)
		return
	}
	m.status = fmt.Sprintf("📋 Copied %s to clipboard", view.Step.Target)
}

// handleMouse maps a left click to a tooltip button, a click on the
// highlighted target (ignored) or a backdrop click.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	st := m.seq.State()
	if !st.Active {
		return
	}
	if sig, ok := m.page.HitButton(msg.X, msg.Y); ok {
		m.seq.Handle(sig)
		return
	}
	x, y := float64(msg.X), float64(msg.Y)
	if r, ok := m.page.TooltipRect(); ok && r.Contains(x, y) {
		return
	}
	if hl, ok := m.page.Highlighted(); ok && hl.Rect.Contains(x, y) {
		return
	}
	m.seq.Handle(tour.SignalBackdropClick)
}

func (m Model) waitForSteps() tea.Cmd {
	if m.opts.changes == nil || m.opts.load == nil {
		return nil
	}
	changes, load := m.opts.changes, m.opts.load
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		steps, err := load()
		return stepsLoadedMsg{steps: steps, err: err}
	}
}

func (m *Model) handleSteps(msg stepsLoadedMsg) {
	if msg.err != nil {
		debug.Log("ui: reloading steps: %v", msg.err)
		m.status = fmt.Sprintf("Steps file: %v", msg.err)
		return
	}
	m.pending = msg.steps
	if st := m.seq.State(); st.Active || st.PromptShown {
		m.status = "Steps changed; they apply when the tour closes"
	}
}

// applyPendingSteps swaps in a reloaded step list once the tour is off
// screen. The new sequencer replays the page-ready hook.
func (m *Model) applyPendingSteps() {
	if m.pending == nil {
		return
	}
	st := m.seq.State()
	if st.Active || st.PromptShown {
		return
	}
	steps := m.pending
	m.pending = nil

	seq, err := tour.New(steps, m.env, m.opts.tourOpts...)
	if err != nil {
		debug.Log("ui: rebuilding tour: %v", err)
		m.status = fmt.Sprintf("Steps file: %v", err)
		return
	}
	if st.NoticeShown {
		m.seq.DismissNotice()
	}
	m.sched.invalidate()
	m.seq = seq
	if m.ready {
		seq.Init()
	}
	debug.Dump("ui: tour state after reload", seq.State())
	m.status = fmt.Sprintf("Loaded %d steps", len(steps))
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading storybook..."
	}
	body := m.page.Render()
	if m.showHelp {
		lines := strings.Split(body, "\n")
		lines = m.page.drawCentered(lines, m.theme.Prompt.Render(m.help.View(m.keys)))
		body = strings.Join(lines, "\n")
	}
	return body + "\n" + m.footer()
}

func (m Model) footer() string {
	if m.status != "" {
		return m.theme.Status.Render(truncate(m.status, m.width))
	}
	if m.seq.State().PromptShown {
		return m.theme.Help.Render(truncate("y take the tour • n no thanks", m.width))
	}
	short := m.help
	short.ShowAll = false
	return short.View(m.keys)
}
