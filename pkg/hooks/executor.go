package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// queueSize bounds the events waiting for the worker. Events arriving
// while the queue is full are dropped.
const queueSize = 64

// Result is the outcome of one hook run.
type Result struct {
	Hook     Hook
	Event    tour.EventKind
	Success  bool
	Error    error
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs configured hooks. It is a tour.Tracker: Track queues the
// event and a single worker runs its hooks in order, off the caller's
// goroutine.
type Executor struct {
	config *Config

	mu      sync.Mutex
	results []Result
	events  chan tour.Event
	closed  bool
	done    chan struct{}
}

// NewExecutor creates an executor for config.
func NewExecutor(config *Config) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config}
}

// Track implements tour.Tracker.
func (e *Executor) Track(ev tour.Event) {
	if len(e.config.Hooks.Get(ev.Kind)) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.events == nil {
		e.events = make(chan tour.Event, queueSize)
		e.done = make(chan struct{})
		go e.worker(e.events, e.done)
	}
	select {
	case e.events <- ev:
	default:
		debug.Log("hooks: queue full, dropping %s event", ev.Kind)
	}
}

func (e *Executor) worker(events <-chan tour.Event, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		if err := e.Run(ContextFor(ev)); err != nil {
			debug.Log("hooks: %v", err)
		}
	}
}

// Close stops accepting events and waits for queued hooks to finish.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	events, done := e.events, e.done
	e.mu.Unlock()

	if events != nil {
		close(events)
		<-done
	}
}

// Run executes the hooks for ec.Event in order and returns the first
// failure. A failing hook with on_error "fail" stops the rest.
func (e *Executor) Run(ec EventContext) error {
	var first error
	for _, hook := range e.config.Hooks.Get(ec.Event) {
		result := e.runHook(hook, ec)
		e.mu.Lock()
		e.results = append(e.results, result)
		e.mu.Unlock()

		if result.Success {
			continue
		}
		if first == nil {
			first = fmt.Errorf("%s hook %q failed: %w", ec.Event, hook.Name, result.Error)
		}
		if hook.OnError == OnErrorFail {
			break
		}
	}
	return first
}

func (e *Executor) runHook(hook Hook, ec EventContext) Result {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", hook.Command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", hook.Command)
	}

	env := append(os.Environ(), ec.ToEnv()...)
	for k, v := range hook.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, os.ExpandEnv(v)))
	}
	cmd.Env = env
	// Children that outlive a killed shell must not hold Run open.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Hook:     hook,
		Event:    ec.Event,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %v", timeout)
		}
		result.Error = err
	}
	debug.LogTiming("hook "+hook.Name, result.Duration)
	return result
}

// Results returns a copy of every result so far.
func (e *Executor) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Result(nil), e.results...)
}

// Summary describes the runs so far, with stderr of failed hooks.
func (e *Executor) Summary() string {
	results := e.Results()
	if len(results) == 0 {
		return ""
	}

	var ok, failed int
	var b strings.Builder
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&b, "  %s (%s): %v\n", r.Hook.Name, r.Event, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "    stderr: %s\n", truncate(r.Stderr, 200))
		}
	}
	return fmt.Sprintf("Hooks: %d succeeded, %d failed\n%s", ok, failed, b.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// Load reads hooks.yaml from dir and returns an executor, or nil when no
// hooks are configured. Loader warnings are logged.
func Load(dir string) (*Executor, error) {
	loader := NewLoader(WithDir(dir))
	if err := loader.Load(); err != nil {
		return nil, err
	}
	for _, w := range loader.Warnings() {
		debug.Log("hooks: %s", w)
	}
	if !loader.HasHooks() {
		return nil, nil
	}
	return NewExecutor(loader.Config()), nil
}
