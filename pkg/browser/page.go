package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/metrics"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// element is a resolved target. The DOM node is looked up again on every
// use, so a node replaced by the page resolves to its replacement.
type element struct {
	locator string
}

func (e element) Locator() string { return e.locator }

// Option configures a Page.
type Option func(*Page)

// WithEvalTimeout bounds each script evaluation.
func WithEvalTimeout(d time.Duration) Option {
	return func(p *Page) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// Page drives a chromedp tab. Evaluation failures are logged and treated
// as absent elements or no-ops.
type Page struct {
	ctx     context.Context
	timeout time.Duration
}

// NewPage wraps a chromedp tab context.
func NewPage(ctx context.Context, opts ...Option) *Page {
	p := &Page{ctx: ctx, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Page) eval(script string, out any) error {
	defer metrics.Timer(metrics.BrowserEval)()
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Evaluate(script, out))
}

func (p *Page) exec(what, script string) {
	if err := p.eval(script, nil); err != nil {
		debug.Log("browser: %s: %v", what, err)
	}
}

// Resolve implements tour.Document. Invalid selectors resolve to nothing.
func (p *Page) Resolve(locator string) (tour.Element, bool) {
	var found bool
	script := fmt.Sprintf(`(() => {
		try { return document.querySelector(%s) !== null; } catch (e) { return false; }
	})()`, jsString(locator))
	if err := p.eval(script, &found); err != nil {
		debug.Log("browser: resolving %q: %v", locator, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return element{locator: locator}, true
}

// BoundingBox implements tour.Document.
func (p *Page) BoundingBox(el tour.Element) tour.Rect {
	var r tour.Rect
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return {top: 0, left: 0, width: 0, height: 0};
		const r = el.getBoundingClientRect();
		return {top: r.top, left: r.left, width: r.width, height: r.height};
	})()`, jsString(el.Locator()))
	if err := p.eval(script, &r); err != nil {
		debug.Log("browser: bounding box of %q: %v", el.Locator(), err)
	}
	return r
}

// Viewport implements tour.Document.
func (p *Page) Viewport() tour.Size {
	var s tour.Size
	if err := p.eval(`({width: window.innerWidth, height: window.innerHeight})`, &s); err != nil {
		debug.Log("browser: viewport: %v", err)
	}
	return s
}

// Highlight implements tour.HighlightSink.
func (p *Page) Highlight(el tour.Element) {
	p.exec("highlight", fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return;
		el.classList.add(%s);
		el.scrollIntoView({block: 'nearest', inline: 'nearest'});
	})()`, jsString(el.Locator()), jsString(HighlightClass)))
}

// ClearHighlight implements tour.HighlightSink.
func (p *Page) ClearHighlight() {
	p.exec("clear highlight", fmt.Sprintf(
		`document.querySelectorAll('.' + %[1]s).forEach(el => el.classList.remove(%[1]s))`,
		jsString(HighlightClass)))
}

// HighlightedLocators returns the IDs or tag names of the elements
// carrying the highlight class.
func (p *Page) HighlightedLocators() []string {
	var out []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll('.' + %s)).map(el => el.id ? '#' + el.id : el.tagName.toLowerCase())`,
		jsString(HighlightClass))
	if err := p.eval(script, &out); err != nil {
		debug.Log("browser: listing highlights: %v", err)
	}
	return out
}

func (p *Page) setHidden(id string, hidden bool) {
	p.exec("toggle #"+id, fmt.Sprintf(`(() => {
		const el = document.getElementById(%s);
		if (el) el.classList.toggle(%s, %t);
	})()`, jsString(id), jsString(HiddenClass), hidden))
}

// ShowOverlay implements tour.View.
func (p *Page) ShowOverlay() { p.setHidden(OverlayID, false) }

// HideOverlay implements tour.View.
func (p *Page) HideOverlay() { p.setHidden(OverlayID, true) }

// SetContent implements tour.View.
func (p *Page) SetContent(v tour.StepView) {
	p.exec("set content", fmt.Sprintf(`(() => {
		const set = (id, text) => { const el = document.getElementById(id); if (el) el.textContent = text; };
		set(%s, %s);
		set(%s, %s);
		set(%s, %s);
		set(%s, %s);
		const back = document.getElementById(%s);
		if (back) back.classList.toggle(%s, %t);
	})()`,
		jsString(TitleID), jsString(v.Step.Title),
		jsString(DescriptionID), jsString(v.Step.Description),
		jsString(CounterID), jsString(v.Counter),
		jsString(NextID), jsString(v.AdvanceLabel),
		jsString(BackID), jsString(HiddenClass), !v.CanGoBack,
	))
}

// TooltipSize implements tour.View.
func (p *Page) TooltipSize() tour.Size {
	var s tour.Size
	script := fmt.Sprintf(`(() => {
		const el = document.getElementById(%s);
		if (!el) return {width: 0, height: 0};
		const r = el.getBoundingClientRect();
		return {width: r.width, height: r.height};
	})()`, jsString(TooltipID))
	if err := p.eval(script, &s); err != nil {
		debug.Log("browser: tooltip size: %v", err)
	}
	return s
}

// PlaceTooltip implements tour.View. The arrow element's class names the
// side of the tooltip it is drawn on.
func (p *Page) PlaceTooltip(pl tour.Placement) {
	p.exec("place tooltip", fmt.Sprintf(`(() => {
		const tip = document.getElementById(%s);
		if (tip) { tip.style.top = '%.2fpx'; tip.style.left = '%.2fpx'; }
		const arrow = document.getElementById(%s);
		if (arrow) arrow.className = %s + ' ' + %s;
	})()`,
		jsString(TooltipID), pl.Top, pl.Left,
		jsString(ArrowID), jsString(ArrowBaseClass), jsString(string(pl.Arrow)),
	))
}

// ShowNotice implements tour.View.
func (p *Page) ShowNotice() { p.setHidden(NoticeID, false) }

// HideNotice implements tour.View.
func (p *Page) HideNotice() { p.setHidden(NoticeID, true) }

// ShowPrompt implements tour.View.
func (p *Page) ShowPrompt() { p.setHidden(PromptID, false) }

// HidePrompt implements tour.View.
func (p *Page) HidePrompt() { p.setHidden(PromptID, true) }

// Visible reports whether the element with the given ID exists and is not
// hidden by the contract's hidden class.
func (p *Page) Visible(id string) bool {
	var ok bool
	script := fmt.Sprintf(`(() => {
		const el = document.getElementById(%s);
		return !!el && !el.classList.contains(%s);
	})()`, jsString(id), jsString(HiddenClass))
	if err := p.eval(script, &ok); err != nil {
		debug.Log("browser: visibility of #%s: %v", id, err)
		return false
	}
	return ok
}

// Text returns the text content of the element with the given ID.
func (p *Page) Text(id string) string {
	var s *string
	script := fmt.Sprintf(`(() => { const el = document.getElementById(%s); return el ? el.textContent : null; })()`, jsString(id))
	if err := p.eval(script, &s); err != nil || s == nil {
		return ""
	}
	return *s
}
