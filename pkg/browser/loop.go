package browser

import (
	"context"
	"time"

	"github.com/vanderheijden86/storytour/pkg/debug"
)

// DefaultQueueSize bounds the callbacks waiting on a Loop.
const DefaultQueueSize = 64

// Loop runs callbacks one at a time, in the order they were posted. Page
// input and tour timers share one Loop so the sequencer sees them in
// sequence. A Loop is also a tour.Scheduler.
type Loop struct {
	queue chan func()
}

// NewLoop creates a loop holding up to size pending callbacks.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{queue: make(chan func(), size)}
}

// Post queues fn without blocking. It reports false when the queue is full
// and fn was dropped.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.queue <- fn:
		return true
	default:
		debug.Log("browser: input queue full, dropping callback")
		return false
	}
}

// After implements tour.Scheduler. fn is posted to the loop once d has
// elapsed.
func (l *Loop) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { l.Post(fn) })
}

// Run handles callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}
