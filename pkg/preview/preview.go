// Package preview renders a storyboard of a tour: one panel per step
// showing the page, the highlighted target and where the tooltip lands.
package preview

import (
	"fmt"
	"time"

	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
	"github.com/vanderheijden86/storytour/pkg/ui"
)

// Frame is the state of the page while one step is displayed.
type Frame struct {
	Index   int
	ID      string
	Title   string
	Counter string
	Target  string
	Found   bool
	Box     tour.Rect // highlighted region, in cells
	Tooltip tour.Rect // tooltip box, in cells
	Side    tour.Position
	Arrow   tour.Position
}

// Storyboard is every frame of a tour walked on a page of Width x Height
// cells.
type Storyboard struct {
	Width   int
	Height  int
	Regions []ui.Region
	Frames  []Frame
}

// Resolved returns the number of frames whose target was found.
func (sb *Storyboard) Resolved() int {
	n := 0
	for _, f := range sb.Frames {
		if f.Found {
			n++
		}
	}
	return n
}

type discardScheduler struct{}

func (discardScheduler) After(time.Duration, func()) {}

// Build walks steps from first to last on a terminal page of the given
// size. Steps whose target is missing get a frame with Found unset.
func Build(steps []tour.Step, width, height int, g tour.Geometry) (*Storyboard, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %dx%d", width, height)
	}
	page := ui.NewPlainPage(width, height, ui.TestTheme())

	missing := make(map[int]bool)
	seq, err := tour.New(steps, tour.Env{
		Document:  page,
		Highlight: page,
		View:      page,
		Store:     persist.NewMemoryStore(),
		Scheduler: discardScheduler{},
		Tracker: tour.TrackerFunc(func(e tour.Event) {
			if e.Kind == tour.EventStepMissing {
				missing[e.Step] = true
			}
		}),
	}, tour.WithAutoStart(false, 0), tour.WithGeometry(g))
	if err != nil {
		return nil, fmt.Errorf("building tour: %w", err)
	}

	seen := make(map[int]Frame, len(steps))
	seq.Start()
	for seq.State().Active {
		view, _ := seq.CurrentStep()
		pl, _ := seq.Placement()
		f := Frame{Found: true, Side: pl.Side, Arrow: pl.Arrow}
		if r, ok := page.Highlighted(); ok {
			f.Box = r.Rect
		}
		if r, ok := page.TooltipRect(); ok {
			f.Tooltip = r
		}
		seen[view.Index] = f
		seq.NextStep()
	}

	sb := &Storyboard{Width: width, Height: height, Regions: page.Regions()}
	for i, s := range steps {
		f := seen[i]
		f.Index, f.ID, f.Title, f.Target = i, s.Key(i), s.Title, s.Target
		f.Counter = fmt.Sprintf("%d of %d", i+1, len(steps))
		f.Found = f.Found && !missing[i]
		sb.Frames = append(sb.Frames, f)
	}
	return sb, nil
}
