// Package hooks runs user commands when tour events fire.
// Hooks are configured in hooks.yaml next to config.yaml and are keyed by
// event kind (started, step_viewed, completed, ...).
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/storytour/pkg/tour"
)

// On-error policies. "fail" stops the remaining hooks for the same event.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// Hook defines a single hook configuration
type Hook struct {
	Name    string            `yaml:"name" json:"name"`                             // Human-readable name
	Command string            `yaml:"command" json:"command"`                       // Shell command to run
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`   // Execution timeout (default: 30s)
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`           // Additional environment variables
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"` // "continue" (default) or "fail"
}

// Config holds all hook configurations
type Config struct {
	Hooks HooksByEvent `yaml:"hooks" json:"hooks"`
}

// HooksByEvent organizes hooks by the event that triggers them.
type HooksByEvent struct {
	Started     []Hook `yaml:"started,omitempty" json:"started,omitempty"`
	StepViewed  []Hook `yaml:"step_viewed,omitempty" json:"step_viewed,omitempty"`
	StepMissing []Hook `yaml:"step_missing,omitempty" json:"step_missing,omitempty"`
	Skipped     []Hook `yaml:"skipped,omitempty" json:"skipped,omitempty"`
	Completed   []Hook `yaml:"completed,omitempty" json:"completed,omitempty"`
	Closed      []Hook `yaml:"closed,omitempty" json:"closed,omitempty"`
	Declined    []Hook `yaml:"declined,omitempty" json:"declined,omitempty"`
}

func (h *HooksByEvent) slot(kind tour.EventKind) *[]Hook {
	switch kind {
	case tour.EventStarted:
		return &h.Started
	case tour.EventStepViewed:
		return &h.StepViewed
	case tour.EventStepMissing:
		return &h.StepMissing
	case tour.EventSkipped:
		return &h.Skipped
	case tour.EventCompleted:
		return &h.Completed
	case tour.EventClosed:
		return &h.Closed
	case tour.EventDeclined:
		return &h.Declined
	default:
		return nil
	}
}

// Get returns the hooks for kind.
func (h *HooksByEvent) Get(kind tour.EventKind) []Hook {
	if s := h.slot(kind); s != nil {
		return *s
	}
	return nil
}

// Len returns the number of configured hooks.
func (h *HooksByEvent) Len() int {
	n := 0
	for _, k := range eventKinds {
		n += len(h.Get(k))
	}
	return n
}

var eventKinds = []tour.EventKind{
	tour.EventStarted,
	tour.EventStepViewed,
	tour.EventStepMissing,
	tour.EventSkipped,
	tour.EventCompleted,
	tour.EventClosed,
	tour.EventDeclined,
}

// EventContext is passed to hooks via environment variables
type EventContext struct {
	Event     tour.EventKind // STORYTOUR_EVENT
	Step      int            // STORYTOUR_STEP: 1-based, 0 for tour-level events
	StepID    string         // STORYTOUR_STEP_ID
	Timestamp time.Time      // STORYTOUR_TIMESTAMP (RFC3339)
}

// ContextFor builds the hook context for e.
func ContextFor(e tour.Event) EventContext {
	ts := e.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return EventContext{Event: e.Kind, Step: e.Step + 1, StepID: e.StepID, Timestamp: ts}
}

// ToEnv converts the event context to environment variables
func (c EventContext) ToEnv() []string {
	return []string{
		fmt.Sprintf("STORYTOUR_EVENT=%s", c.Event),
		fmt.Sprintf("STORYTOUR_STEP=%d", c.Step),
		fmt.Sprintf("STORYTOUR_STEP_ID=%s", c.StepID),
		fmt.Sprintf("STORYTOUR_TIMESTAMP=%s", c.Timestamp.Format(time.RFC3339)),
	}
}

// DefaultTimeout is the default hook execution timeout
const DefaultTimeout = 30 * time.Second

// FileName is the hooks file looked up in the loader's directory.
const FileName = "hooks.yaml"

// Loader loads hook configuration from hooks.yaml
type Loader struct {
	dir      string
	config   *Config
	warnings []string
}

// LoaderOption configures the loader
type LoaderOption func(*Loader)

// WithDir sets the directory holding hooks.yaml
func WithDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.dir = dir
	}
}

// NewLoader creates a new hook loader with options
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the hooks file location, or "" when no directory is known.
func (l *Loader) Path() string {
	if l.dir == "" {
		return ""
	}
	return filepath.Join(l.dir, FileName)
}

// Load reads hooks.yaml. A missing file means no hooks.
func (l *Loader) Load() error {
	path := l.Path()
	if path == "" {
		l.config = &Config{}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.config = &Config{}
			return nil
		}
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, kind := range eventKinds {
		s := config.Hooks.slot(kind)
		*s, l.warnings = normalizeHooks(*s, kind, l.warnings)
	}

	l.config = &config
	return nil
}

// normalizeHooks applies defaults, drops empty commands, and accumulates warnings.
func normalizeHooks(hooks []Hook, kind tour.EventKind, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i := range hooks {
		hook := hooks[i]
		if strings.TrimSpace(hook.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", kind, i+1))
			continue
		}
		if hook.Timeout == 0 {
			hook.Timeout = DefaultTimeout
		}
		switch hook.OnError {
		case "":
			hook.OnError = OnErrorContinue
		case OnErrorContinue, OnErrorFail:
		default:
			warnings = append(warnings, fmt.Sprintf("%s hook %d has unknown on_error %q; using continue", kind, i+1, hook.OnError))
			hook.OnError = OnErrorContinue
		}
		if hook.Name == "" {
			hook.Name = fmt.Sprintf("%s-%d", kind, i+1)
		}
		out = append(out, hook)
	}
	return out, warnings
}

// Config returns the loaded configuration (or empty if not loaded)
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// HasHooks returns true if any hooks are configured
func (l *Loader) HasHooks() bool {
	return l.config != nil && l.config.Hooks.Len() > 0
}

// GetHooks returns hooks for a specific event kind
func (l *Loader) GetHooks(kind tour.EventKind) []Hook {
	if l.config == nil {
		return nil
	}
	return l.config.Hooks.Get(kind)
}

// Warnings returns any warnings from loading
func (l *Loader) Warnings() []string {
	return l.warnings
}

// UnmarshalYAML implements custom YAML unmarshalling for Duration
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	// Mirrors Hook except that Timeout is a string.
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}

	h.Name = dto.Name
	h.Command = dto.Command
	h.Env = dto.Env
	h.OnError = dto.OnError

	if dto.Timeout != "" {
		d, err := time.ParseDuration(dto.Timeout)
		if err == nil {
			h.Timeout = d
		} else {
			// Bare numbers are seconds.
			var seconds float64
			if _, scanErr := fmt.Sscanf(dto.Timeout, "%f", &seconds); scanErr == nil {
				h.Timeout = time.Duration(seconds * float64(time.Second))
			} else {
				return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
			}
		}
	}

	return nil
}
