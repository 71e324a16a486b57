package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/testutil"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

func TestJSString(t *testing.T) {
	for _, s := range []string{"", "#nav", `a"b'c`, "</script><b>", "line\nbreak", "ڤާހކައިން"} {
		quoted := jsString(s)
		require.True(t, strings.HasPrefix(quoted, `"`), "quoted %q", quoted)
		assert.NotContains(t, quoted, "</script>")

		var back string
		require.NoError(t, json.Unmarshal([]byte(quoted), &back))
		assert.Equal(t, s, back)
	}
}

func TestListenerScriptCoversContract(t *testing.T) {
	for _, id := range []string{NextID, SkipID, BackID, AcceptID, DeclineID, BackdropClass, bindingName} {
		assert.Contains(t, listenerScript, id)
	}
	for _, sig := range []tour.Signal{tour.SignalEscape, tour.SignalEnter, tour.SignalAdvanceClick, tour.SignalSkipClick, tour.SignalResize} {
		assert.Contains(t, listenerScript, sig.String())
	}
}

func TestHostMarkupCoversContract(t *testing.T) {
	for _, id := range []string{OverlayID, TooltipID, TitleID, DescriptionID, CounterID, NextID, BackID, SkipID, ArrowID, NoticeID, PromptID, AcceptID, DeclineID} {
		assert.Contains(t, hostMarkup, `id="`+id+`"`)
	}
	assert.Contains(t, hostStyle, "."+HighlightClass)
	assert.Contains(t, hostStyle, "."+HiddenClass)
}

func dispatchFixture(t *testing.T, opts ...tour.Option) *tour.Sequencer {
	t.Helper()
	f := testutil.NewFixture(map[string]tour.Rect{
		"#a": {Top: 10, Left: 10, Width: 50, Height: 20},
		"#b": {Top: 100, Left: 10, Width: 50, Height: 20},
	})
	seq, err := tour.New([]tour.Step{
		{Target: "#a", Title: "A"},
		{Target: "#b", Title: "B"},
	}, f.Env(), append([]tour.Option{tour.WithAutoStart(false, 0)}, opts...)...)
	require.NoError(t, err)
	return seq
}

func TestDispatch(t *testing.T) {
	seq := dispatchFixture(t)

	assert.False(t, Dispatch(seq, "advance"), "signals are ignored while inactive")
	seq.Start()
	assert.True(t, Dispatch(seq, "advance"))
	assert.Equal(t, 1, seq.State().CurrentIndex)
	assert.True(t, Dispatch(seq, "back"))
	assert.Equal(t, 0, seq.State().CurrentIndex)
	assert.False(t, Dispatch(seq, "bogus"))
	assert.True(t, Dispatch(seq, "skip-click"))
	assert.True(t, seq.State().Completed)
}

func TestDispatchPromptAnswers(t *testing.T) {
	seq := dispatchFixture(t, tour.WithWelcomePrompt(true, time.Minute))
	seq.Init()
	require.True(t, seq.State().PromptShown)

	Dispatch(seq, "accept")
	st := seq.State()
	assert.True(t, st.Active)
	assert.False(t, st.PromptShown)

	declined := dispatchFixture(t, tour.WithWelcomePrompt(true, time.Minute))
	declined.Init()
	Dispatch(declined, "decline")
	assert.True(t, declined.State().Completed)
	assert.False(t, declined.State().Active)
}

func TestLoopKeepsPostOrder(t *testing.T) {
	f := testutil.NewFixture(map[string]tour.Rect{
		"#a": {Top: 10, Left: 10, Width: 50, Height: 20},
		"#b": {Top: 100, Left: 10, Width: 50, Height: 20},
	})
	seq, err := tour.New([]tour.Step{
		{Target: "#a", Title: "A"},
		{Target: "#b", Title: "B"},
	}, f.Env(), tour.WithAutoStart(false, 0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := NewLoop(0)
	seq.Start()
	for _, name := range []string{"advance", "back", "advance", "escape"} {
		require.True(t, loop.Post(func() { Dispatch(seq, name) }))
	}
	loop.Post(cancel)
	loop.Run(ctx)

	assert.Equal(t, []tour.EventKind{
		tour.EventStarted,
		tour.EventStepViewed, // a
		tour.EventStepViewed, // b
		tour.EventStepViewed, // a
		tour.EventStepViewed, // b
		tour.EventClosed,
		tour.EventSkipped,
	}, f.Tracker.Kinds())
	assert.True(t, seq.State().Completed)
}

func TestLoopDropsWhenFull(t *testing.T) {
	loop := NewLoop(2)
	assert.True(t, loop.Post(func() {}))
	assert.True(t, loop.Post(func() {}))
	assert.False(t, loop.Post(func() {}))
}

func TestLoopAfterPostsToLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	loop := NewLoop(0)
	ran := make(chan struct{})
	loop.After(10*time.Millisecond, func() {
		close(ran)
		cancel()
	})
	loop.Run(ctx)
	select {
	case <-ran:
	default:
		t.Fatal("Expected the timer callback to run on the loop")
	}
}

func sampleReport() *AuditReport {
	return &AuditReport{
		URL:      "http://localhost/",
		Viewport: tour.Size{Width: 1280, Height: 800},
		Steps: []AuditStep{
			{Index: 0, ID: "welcome", Target: "#welcome", Found: true, Side: tour.PositionBottom, Arrow: tour.PositionTop,
				Tooltip: tour.Rect{Top: 120, Left: 400, Width: 320, Height: 160}},
			{Index: 1, ID: "night-toggle", Target: "#night-toggle"},
		},
		Console: []string{`"boom"`},
	}
}

func TestAuditReportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteText(&buf))
	out := buf.String()

	assert.Contains(t, out, "http://localhost/ (1280x800)")
	assert.Contains(t, out, "tooltip bottom at (400, 120) 320x160")
	assert.Contains(t, out, "MISSING")
	assert.Contains(t, out, "1 of 2 steps resolved")
	assert.Contains(t, out, `console: "boom"`)
}

func TestAuditReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteJSON(&buf))

	var back AuditReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, 1, back.Missing())
	assert.Equal(t, tour.PositionTop, back.Steps[0].Arrow)
}

// Chrome-backed tests.

const fixtureHTML = `<!doctype html>
<html><head><title>storybook</title>
<style>
body { margin: 0; font-family: sans-serif; }
nav { height: 60px; }
#welcome { margin: 40px; height: 120px; }
.stories-grid { display: flex; gap: 20px; margin: 40px; }
.story-card { width: 200px; height: 240px; }
footer { height: 80px; }
</style></head>
<body>
<nav id="nav" class="main-nav"><a href="#">Home</a> <a href="#">Stories</a></nav>
<section id="welcome" class="hero"><h1>Welcome</h1></section>
<div class="stories-grid">
  <article class="story-card">The Moon Fisher</article>
  <article class="story-card">Salt and Coral</article>
</div>
<footer class="social-links">Follow us</footer>
</body></html>`

func findChrome() string {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func setupChrome(t *testing.T) (context.Context, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	chrome := findChrome()
	if chrome == "" {
		t.Skip("Chrome not available, skipping browser test")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, fixtureHTML)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := Launch(context.Background(), LaunchOptions{Headless: true, Width: 1280, Height: 800, ExecPath: chrome})
	t.Cleanup(cancel)
	ctx, timeoutCancel := context.WithTimeout(ctx, 60*time.Second)
	t.Cleanup(timeoutCancel)
	return ctx, srv.URL
}

func TestAuditAgainstChrome(t *testing.T) {
	ctx, url := setupChrome(t)

	steps := []tour.Step{
		{ID: "welcome", Target: "#welcome", Title: "Welcome", Position: tour.PositionBottom},
		{ID: "night", Target: "#night-toggle", Title: "Night mode", Position: tour.PositionLeft},
		{ID: "card", Target: ".story-card:first-child", Title: "Cards", Position: tour.PositionRight},
		{ID: "social", Target: "footer", Title: "Follow us", Position: tour.PositionTop},
	}
	tracker := &testutil.RecordingTracker{}
	report, err := Audit(ctx, url, steps, AuditOptions{Width: 1280, Height: 800, Tracker: tracker})
	require.NoError(t, err)
	require.Len(t, report.Steps, 4)

	assert.Equal(t, 1, report.Missing())
	assert.False(t, report.Steps[1].Found)
	assert.Equal(t, 1, tracker.Count(tour.EventStepMissing))
	assert.Equal(t, 1, tracker.Count(tour.EventCompleted))

	g := tour.DefaultGeometry()
	for _, s := range report.Steps {
		if !s.Found {
			continue
		}
		assert.Greater(t, s.Box.Width, 0.0, s.ID)
		assert.Greater(t, s.Tooltip.Width, 0.0, s.ID)
		assert.GreaterOrEqual(t, s.Tooltip.Left, g.Padding, s.ID)
		assert.GreaterOrEqual(t, s.Tooltip.Top, g.Padding, s.ID)
		assert.Equal(t, s.Side.Opposite(), s.Arrow, s.ID)
	}
}

func TestPageAgainstChrome(t *testing.T) {
	ctx, url := setupChrome(t)
	_, err := Audit(ctx, url, []tour.Step{{Target: "#nav", Title: "Nav"}}, AuditOptions{})
	require.NoError(t, err)

	p := NewPage(ctx, WithEvalTimeout(10*time.Second))

	el, ok := p.Resolve(".main-nav")
	require.True(t, ok)
	_, ok = p.Resolve("#does-not-exist")
	assert.False(t, ok)
	_, ok = p.Resolve("###")
	assert.False(t, ok, "invalid selectors resolve to nothing")

	box := p.BoundingBox(el)
	assert.Greater(t, box.Width, 0.0)
	assert.InDelta(t, 60, box.Height, 1)

	p.ClearHighlight()
	p.Highlight(el)
	assert.Equal(t, []string{"#nav"}, p.HighlightedLocators())
	p.ClearHighlight()
	assert.Empty(t, p.HighlightedLocators())

	p.HideNotice()
	p.ShowOverlay()
	assert.True(t, p.Visible(OverlayID))
	p.SetContent(tour.StepView{
		Step:         tour.Step{Title: "Navigation", Description: "Top menu"},
		Counter:      "2 of 5",
		AdvanceLabel: "Next",
		CanGoBack:    true,
	})
	assert.Equal(t, "Navigation", p.Text(TitleID))
	assert.Equal(t, "2 of 5", p.Text(CounterID))
	assert.True(t, p.Visible(BackID))

	size := p.TooltipSize()
	assert.Greater(t, size.Width, 0.0)
	p.PlaceTooltip(tour.Placement{Top: 40, Left: 60, Side: tour.PositionBottom, Arrow: tour.PositionTop})
	var arrowClass string
	require.NoError(t, p.eval(`document.getElementById('tooltip-arrow').className`, &arrowClass))
	assert.Equal(t, "tooltip-arrow top", arrowClass)

	p.HideOverlay()
	assert.False(t, p.Visible(OverlayID))
}

func TestLocalStorageAgainstChrome(t *testing.T) {
	ctx, url := setupChrome(t)
	_, err := Audit(ctx, url, []tour.Step{{Target: "#nav", Title: "Nav"}}, AuditOptions{})
	require.NoError(t, err)

	store := NewLocalStorage(NewPage(ctx))
	_, err = store.Get(tour.DefaultStorageKey)
	require.ErrorIs(t, err, persist.ErrNotFound)

	require.NoError(t, store.Set(tour.DefaultStorageKey, tour.DefaultMarker))
	v, err := store.Get(tour.DefaultStorageKey)
	require.NoError(t, err)
	assert.Equal(t, tour.DefaultMarker, v)

	require.NoError(t, store.Remove(tour.DefaultStorageKey))
	_, err = store.Get(tour.DefaultStorageKey)
	require.ErrorIs(t, err, persist.ErrNotFound)
}

func TestBindAgainstChrome(t *testing.T) {
	ctx, url := setupChrome(t)
	_, err := Audit(ctx, url, []tour.Step{{Target: "#nav", Title: "Nav"}}, AuditOptions{})
	require.NoError(t, err)

	p := NewPage(ctx)
	seq, err := tour.New([]tour.Step{
		{Target: "#nav", Title: "Nav"},
		{Target: "#welcome", Title: "Welcome"},
	}, tour.Env{Document: p, Highlight: p, View: p, Scheduler: discardScheduler{}}, tour.WithAutoStart(false, 0))
	require.NoError(t, err)
	loop := NewLoop(0)
	require.NoError(t, p.Bind(seq, loop))
	go loop.Run(ctx)

	seq.Start()
	require.NoError(t, p.eval(`document.getElementById('next-step').click()`, nil))
	assert.Eventually(t, func() bool {
		return seq.State().CurrentIndex == 1
	}, 5*time.Second, 50*time.Millisecond)
}
