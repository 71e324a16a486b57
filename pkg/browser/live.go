package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/chromedp"
	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// LiveOptions configures Run.
type LiveOptions struct {
	Width    int64 // viewport, CSS pixels
	Height   int64
	Fallback persist.Store // consulted after the page's localStorage
	Tracker  tour.Tracker
	Tour     []tour.Option
}

// Run loads url in the tab ctx and plays the tour there for a person to
// click through. Completion goes to the page's localStorage first, then
// to o.Fallback. Input and timers are handled on one Loop. Run returns
// when ctx is done or the tab goes away.
func Run(ctx context.Context, url string, steps []tour.Step, o LiveOptions) error {
	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("loading %s: %w", url, err)
	}
	if o.Width > 0 && o.Height > 0 {
		if err := chromedp.Run(ctx, chromedp.EmulateViewport(o.Width, o.Height)); err != nil {
			return fmt.Errorf("sizing viewport: %w", err)
		}
	}

	page := NewPage(ctx)
	if err := page.EnsureHost(); err != nil {
		return err
	}

	loop := NewLoop(DefaultQueueSize)
	seq, err := tour.New(steps, tour.Env{
		Document:  page,
		Highlight: page,
		View:      page,
		Store:     persist.NewChain(NewLocalStorage(page), o.Fallback),
		Scheduler: loop,
		Tracker:   o.Tracker,
	}, o.Tour...)
	if err != nil {
		return err
	}
	if err := page.Bind(seq, loop); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	chromedp.ListenTarget(ctx, func(ev any) {
		if _, ok := ev.(*inspector.EventDetached); ok {
			debug.Log("browser: tab detached, ending live tour")
			cancel()
		}
	})

	loop.Post(seq.Init)
	loop.Run(ctx)
	return nil
}
