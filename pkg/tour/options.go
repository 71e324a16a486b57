package tour

import "time"

// Defaults for the tour lifecycle. Storage key and marker follow the
// browser tutorials this package replaces, so existing completions carry
// over.
const (
	DefaultStorageKey     = "onboarding-tutorial-completed"
	DefaultMarker         = "1.0"
	DefaultStartDelay     = time.Second
	DefaultNoticeDuration = 4 * time.Second
	DefaultPromptTimeout  = 10 * time.Second
)

type options struct {
	storageKey     string
	marker         string
	geometry       Geometry
	autoStart      bool
	startDelay     time.Duration
	noticeDuration time.Duration
	prompt         bool
	promptTimeout  time.Duration
	now            func() time.Time
}

func defaultOptions() options {
	return options{
		storageKey:     DefaultStorageKey,
		marker:         DefaultMarker,
		geometry:       DefaultGeometry(),
		autoStart:      true,
		startDelay:     DefaultStartDelay,
		noticeDuration: DefaultNoticeDuration,
		promptTimeout:  DefaultPromptTimeout,
		now:            time.Now,
	}
}

// Option configures a Sequencer.
type Option func(*options)

// WithStorageKey sets the key the completion marker is stored under.
func WithStorageKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.storageKey = key
		}
	}
}

// WithMarker sets the completion marker value. Changing it invalidates
// completions recorded under an older marker.
func WithMarker(marker string) Option {
	return func(o *options) {
		if marker != "" {
			o.marker = marker
		}
	}
}

// WithGeometry sets the tooltip gap and viewport padding.
func WithGeometry(g Geometry) Option {
	return func(o *options) {
		o.geometry = g
	}
}

// WithAutoStart controls whether Init starts the tour, and after what delay.
func WithAutoStart(enabled bool, delay time.Duration) Option {
	return func(o *options) {
		o.autoStart = enabled
		if delay >= 0 {
			o.startDelay = delay
		}
	}
}

// WithNoticeDuration sets how long the completion notice stays up.
func WithNoticeDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.noticeDuration = d
		}
	}
}

// WithWelcomePrompt makes Init ask before starting. An unanswered prompt
// hides itself after timeout.
func WithWelcomePrompt(enabled bool, timeout time.Duration) Option {
	return func(o *options) {
		o.prompt = enabled
		if timeout > 0 {
			o.promptTimeout = timeout
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
