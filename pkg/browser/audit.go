package browser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/goccy/go-json"
	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// AuditStep is what happened to one step during an audit.
type AuditStep struct {
	Index   int           `json:"index"`
	ID      string        `json:"id"`
	Target  string        `json:"target"`
	Found   bool          `json:"found"`
	Box     tour.Rect     `json:"box"`
	Tooltip tour.Rect     `json:"tooltip"`
	Side    tour.Position `json:"side,omitempty"`
	Arrow   tour.Position `json:"arrow,omitempty"`
}

// AuditReport is the result of walking a tour against a live page.
type AuditReport struct {
	URL      string      `json:"url"`
	Viewport tour.Size   `json:"viewport"`
	Steps    []AuditStep `json:"steps"`
	Console  []string    `json:"console,omitempty"`
}

// Missing returns the number of steps whose target did not resolve.
func (r *AuditReport) Missing() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Found {
			n++
		}
	}
	return n
}

// WriteText prints one line per step.
func (r *AuditReport) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%gx%g)\n", r.URL, r.Viewport.Width, r.Viewport.Height)
	for _, s := range r.Steps {
		if !s.Found {
			fmt.Fprintf(&b, "  %d. %-18s %-28s MISSING\n", s.Index+1, s.ID, s.Target)
			continue
		}
		fmt.Fprintf(&b, "  %d. %-18s %-28s tooltip %s at (%.0f, %.0f) %.0fx%.0f\n",
			s.Index+1, s.ID, s.Target, s.Side, s.Tooltip.Left, s.Tooltip.Top, s.Tooltip.Width, s.Tooltip.Height)
	}
	fmt.Fprintf(&b, "%d of %d steps resolved\n", len(r.Steps)-r.Missing(), len(r.Steps))
	for _, c := range r.Console {
		fmt.Fprintf(&b, "  console: %s\n", c)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *AuditReport) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding audit report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// AuditOptions configures Audit.
type AuditOptions struct {
	Width    int64 // viewport, CSS pixels
	Height   int64
	Geometry tour.Geometry
	Tracker  tour.Tracker
}

// discardScheduler drops callbacks. Audits never wait for timers.
type discardScheduler struct{}

func (discardScheduler) After(time.Duration, func()) {}

// Audit loads url in the tab ctx, installs the tour markup if needed and
// walks steps with a real sequencer. Completion is kept in memory so the
// site's own storage is left alone.
func Audit(ctx context.Context, url string, steps []tour.Step, o AuditOptions) (*AuditReport, error) {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.Geometry == (tour.Geometry{}) {
		o.Geometry = tour.DefaultGeometry()
	}

	report := &AuditReport{URL: url}
	var mu sync.Mutex
	chromedp.ListenTarget(ctx, func(ev any) {
		var line string
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			if ev.Type != runtime.APITypeError {
				return
			}
			parts := make([]string, 0, len(ev.Args))
			for _, arg := range ev.Args {
				parts = append(parts, string(arg.Value))
			}
			line = strings.Join(parts, " ")
		case *runtime.EventExceptionThrown:
			line = ev.ExceptionDetails.Text
		default:
			return
		}
		mu.Lock()
		report.Console = append(report.Console, line)
		mu.Unlock()
	})

	if err := chromedp.Run(ctx,
		chromedp.EmulateViewport(o.Width, o.Height),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("loading %s: %w", url, err)
	}

	page := NewPage(ctx)
	if err := page.EnsureHost(); err != nil {
		return nil, err
	}
	report.Viewport = page.Viewport()

	missing := make(map[int]bool)
	record := tour.TrackerFunc(func(e tour.Event) {
		if e.Kind == tour.EventStepMissing {
			missing[e.Step] = true
		}
	})
	seq, err := tour.New(steps, tour.Env{
		Document:  page,
		Highlight: page,
		View:      page,
		Store:     persist.NewMemoryStore(),
		Scheduler: discardScheduler{},
		Tracker:   tour.Trackers(record, o.Tracker),
	}, tour.WithAutoStart(false, 0), tour.WithGeometry(o.Geometry))
	if err != nil {
		return nil, err
	}

	seen := make(map[int]AuditStep)
	seq.Start()
	for seq.State().Active {
		view, _ := seq.CurrentStep()
		pl, _ := seq.Placement()
		seen[view.Index] = AuditStep{
			Found:   true,
			Box:     page.BoundingBox(element{locator: view.Step.Target}),
			Tooltip: pl.Rect(page.TooltipSize()),
			Side:    pl.Side,
			Arrow:   pl.Arrow,
		}
		seq.NextStep()
	}

	for i, s := range steps {
		entry := seen[i]
		entry.Index, entry.ID, entry.Target = i, s.Key(i), s.Target
		entry.Found = entry.Found && !missing[i]
		report.Steps = append(report.Steps, entry)
	}

	mu.Lock()
	defer mu.Unlock()
	report.Console = append([]string(nil), report.Console...)
	return report, nil
}
