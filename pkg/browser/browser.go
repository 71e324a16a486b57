// Package browser hosts the tour in a real web page through the Chrome
// DevTools protocol.
//
// Page implements tour.Document, tour.HighlightSink and tour.View against
// the live DOM of a chromedp tab, LocalStorage implements persist.Store on
// top of window.localStorage, and Audit walks a step list against a URL
// and reports which targets resolve and where each tooltip lands. Run plays
// the tour for a person, with page input and timers serialized on a Loop.
//
// The host page contract is a set of stable element IDs (see EnsureHost).
// Pages that do not ship the markup get a minimal injected version.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/goccy/go-json"
	"github.com/vanderheijden86/storytour/pkg/debug"
)

// Host page contract.
const (
	OverlayID       = "tutorial-overlay"
	BackdropClass   = "tutorial-backdrop"
	TooltipID       = "tutorial-tooltip"
	TitleID         = "tooltip-title"
	DescriptionID   = "tooltip-description"
	CounterID       = "step-counter"
	NextID          = "next-step"
	BackID          = "prev-step"
	SkipID          = "skip-tutorial"
	ArrowID         = "tooltip-arrow"
	NoticeID        = "tutorial-notice"
	PromptID        = "tutorial-prompt"
	AcceptID        = "tutorial-accept"
	DeclineID       = "tutorial-decline"
	HighlightClass  = "tutorial-highlight"
	HiddenClass     = "hidden"
	ArrowBaseClass  = "tooltip-arrow"
	DefaultTimeout  = 5 * time.Second
)

// LaunchOptions configures a local Chrome instance.
type LaunchOptions struct {
	Headless bool
	Width    int
	Height   int
	ExecPath string // empty uses chromedp's lookup
}

// Launch starts Chrome and returns a tab context. Cancel releases the tab
// and the browser process.
func Launch(ctx context.Context, o LaunchOptions) (context.Context, context.CancelFunc) {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.WindowSize(o.Width, o.Height),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(debug.Log),
		chromedp.WithErrorf(debug.Log),
	)
	return tabCtx, func() {
		tabCancel()
		allocCancel()
	}
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
