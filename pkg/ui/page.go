package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/vanderheijden86/storytour/pkg/metrics"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// Region is one addressable block of the storybook page.
type Region struct {
	Locators []string // First entry is the canonical locator
	Label    string
	Rect     tour.Rect
	Bar      float64 // Single-row regions render as a bar filled to this fraction
}

// Matches reports whether locator addresses this region.
func (r Region) Matches(locator string) bool {
	for _, l := range r.Locators {
		if l == locator {
			return true
		}
	}
	return false
}

// element is the tour.Element handed out by Page.
type element struct {
	locator string
	index   int
}

func (e element) Locator() string { return e.locator }

// Page is a terminal rendition of the storybook home page. It is the
// document, highlight sink and view the sequencer drives.
type Page struct {
	width, height int
	regions       []Region
	hidden        map[string]bool

	theme   Theme
	tooltip *tooltip

	highlighted int // region index, -1 when nothing is highlighted
	overlay     bool
	placement   tour.Placement
	placed      bool
	notice      bool
	prompt      bool
}

// NewPage lays out a page of width x height cells.
func NewPage(width, height int, theme Theme, md *markdownRenderer) *Page {
	p := &Page{
		hidden:      make(map[string]bool),
		theme:       theme,
		tooltip:     newTooltip(theme, md),
		highlighted: -1,
	}
	p.SetSize(width, height)
	return p
}

// NewPlainPage lays out a page whose tooltip wraps descriptions as plain
// text instead of rendering markdown.
func NewPlainPage(width, height int, theme Theme) *Page {
	return NewPage(width, height, theme, nil)
}

// SetSize re-lays out the page. Content already on the tooltip is
// re-rendered for the new width.
func (p *Page) SetSize(width, height int) {
	p.width, p.height = width, height
	p.regions = layout(width, height)
	p.tooltip.setMaxWidth(width)
}

// Size returns the page size in cells.
func (p *Page) Size() (int, int) { return p.width, p.height }

// Regions returns the laid out regions in drawing order.
func (p *Page) Regions() []Region {
	return append([]Region(nil), p.regions...)
}

// Hide removes every region matching locator from the page, as if the
// element were not rendered.
func (p *Page) Hide(locator string) { p.hidden[locator] = true }

// Show undoes Hide.
func (p *Page) Show(locator string) { delete(p.hidden, locator) }

func (p *Page) isHidden(r Region) bool {
	for _, l := range r.Locators {
		if p.hidden[l] {
			return true
		}
	}
	return false
}

// Resolve implements tour.Document. The first region in drawing order
// that matches wins.
func (p *Page) Resolve(locator string) (tour.Element, bool) {
	defer metrics.Timer(metrics.TargetResolve)()
	for i, r := range p.regions {
		if r.Matches(locator) && !p.isHidden(r) {
			return element{locator: locator, index: i}, true
		}
	}
	return nil, false
}

// BoundingBox implements tour.Document.
func (p *Page) BoundingBox(el tour.Element) tour.Rect {
	if e, ok := el.(element); ok && e.index < len(p.regions) {
		return p.regions[e.index].Rect
	}
	return tour.Rect{}
}

// Viewport implements tour.Document.
func (p *Page) Viewport() tour.Size {
	return tour.Size{Width: float64(p.width), Height: float64(p.height)}
}

// Highlight implements tour.HighlightSink.
func (p *Page) Highlight(el tour.Element) {
	if e, ok := el.(element); ok {
		p.highlighted = e.index
	}
}

// ClearHighlight implements tour.HighlightSink.
func (p *Page) ClearHighlight() { p.highlighted = -1 }

// Highlighted returns the highlighted region, if any.
func (p *Page) Highlighted() (Region, bool) {
	if p.highlighted < 0 || p.highlighted >= len(p.regions) {
		return Region{}, false
	}
	return p.regions[p.highlighted], true
}

func (p *Page) ShowOverlay() { p.overlay = true }

func (p *Page) HideOverlay() {
	p.overlay = false
	p.placed = false
}

// SetContent implements tour.View.
func (p *Page) SetContent(v tour.StepView) { p.tooltip.setContent(v) }

// TooltipSize implements tour.View.
func (p *Page) TooltipSize() tour.Size { return p.tooltip.size() }

// PlaceTooltip implements tour.View.
func (p *Page) PlaceTooltip(pl tour.Placement) {
	p.placement = pl
	p.placed = true
}

func (p *Page) ShowNotice() { p.notice = true }
func (p *Page) HideNotice() { p.notice = false }
func (p *Page) ShowPrompt() { p.prompt = true }
func (p *Page) HidePrompt() { p.prompt = false }

// OverlayShown reports whether the backdrop is up.
func (p *Page) OverlayShown() bool { return p.overlay }

// NoticeShown reports whether the completion toast is up.
func (p *Page) NoticeShown() bool { return p.notice }

// PromptShown reports whether the welcome prompt is up.
func (p *Page) PromptShown() bool { return p.prompt }

// TooltipRect returns where the tooltip is drawn, in whole cells.
func (p *Page) TooltipRect() (tour.Rect, bool) {
	if !p.overlay || !p.placed {
		return tour.Rect{}, false
	}
	return cellRect(p.placement.Rect(p.tooltip.size())), true
}

// HitButton returns the tooltip button under (x, y).
func (p *Page) HitButton(x, y int) (tour.Signal, bool) {
	r, ok := p.TooltipRect()
	if !ok {
		return 0, false
	}
	return p.tooltip.hit(x-int(r.Left), y-int(r.Top))
}

// cellRect snaps a rect to the cell grid. A tooltip larger than the page
// is pinned to the top left corner, where overlay draws it.
func cellRect(r tour.Rect) tour.Rect {
	return tour.Rect{
		Top:    float64(max(int(r.Top), 0)),
		Left:   float64(max(int(r.Left), 0)),
		Width:  r.Width,
		Height: r.Height,
	}
}

// layout places the storybook regions for a width x height page.
func layout(w, h int) []Region {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	gridTop := 8
	gridH := h - 4 - gridTop
	if gridH < 4 {
		gridH = 4
	}
	innerW := w - 8
	cardW := (innerW - 4) / 3
	if cardW < 6 {
		cardW = 6
	}
	cardH := gridH - 2
	if cardH > 7 {
		cardH = 7
	}
	if cardH < 2 {
		cardH = 2
	}

	fw, fh := float64(w), float64(h)
	regions := []Region{
		{Locators: []string{"#nav", ".main-nav", "nav"}, Label: "VAAHAKAINN    Home    Stories    About", Rect: tour.Rect{Top: 0, Left: 0, Width: fw, Height: 3}},
		{Locators: []string{"#night-toggle"}, Label: "Night", Rect: tour.Rect{Top: 0, Left: fw - 12, Width: 10, Height: 3}},
		{Locators: []string{"#reading-progress"}, Label: "read", Rect: tour.Rect{Top: 3, Left: 0, Width: fw, Height: 1}, Bar: 0.35},
		{Locators: []string{"#welcome", ".hero"}, Label: "Welcome, reader! Stories and tales from the islands.", Rect: tour.Rect{Top: 4, Left: 2, Width: fw - 4, Height: 3}},
		{Locators: []string{".stories-grid", "#stories"}, Label: "Featured stories", Rect: tour.Rect{Top: float64(gridTop), Left: 2, Width: fw - 4, Height: float64(gridH)}},
	}
	titles := []string{"The Moon Fisher", "Salt and Coral", "The Lantern Boat"}
	for i, title := range titles {
		locators := []string{".story-card"}
		if i == 0 {
			locators = []string{".story-card:first-child", ".story-card"}
		}
		regions = append(regions, Region{
			Locators: locators,
			Label:    title,
			Rect: tour.Rect{
				Top:    float64(gridTop + 1),
				Left:   float64(4 + i*(cardW+2)),
				Width:  float64(cardW),
				Height: float64(cardH),
			},
		})
	}
	regions = append(regions, Region{
		Locators: []string{"footer", ".social-links"},
		Label:    "Follow us  |  @vaahakainn  |  Newsletter",
		Rect:     tour.Rect{Top: fh - 3, Left: 0, Width: fw, Height: 3},
	})
	return regions
}

// canvas is a grid of cells. A zero rune marks the right half of a wide
// character.
type canvas struct {
	w, h  int
	cells [][]rune
	lit   [][]bool
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h), lit: make([][]bool, h)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", w))
		c.lit[y] = make([]bool, w)
	}
	return c
}

func (c *canvas) set(x, y int, r rune) {
	if y < 0 || y >= c.h || x < 0 || x >= c.w {
		return
	}
	c.cells[y][x] = r
}

func (c *canvas) text(x, y int, s string, max int) {
	s = truncate(s, max)
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > c.w {
			return
		}
		c.set(x, y, r)
		if rw == 2 {
			c.set(x+1, y, 0)
		}
		x += rw
	}
}

var (
	lightBox = [6]rune{'┌', '┐', '└', '┘', '─', '│'}
	heavyBox = [6]rune{'┏', '┓', '┗', '┛', '━', '┃'}
)

func (c *canvas) region(r Region, box [6]rune) {
	top, left := int(r.Rect.Top), int(r.Rect.Left)
	w, h := int(r.Rect.Width), int(r.Rect.Height)
	if w <= 0 || h <= 0 {
		return
	}
	if h == 1 {
		c.bar(left, top, w, r.Bar, r.Label)
		return
	}
	right, bottom := left+w-1, top+h-1
	for x := left + 1; x < right; x++ {
		c.set(x, top, box[4])
		c.set(x, bottom, box[4])
	}
	for y := top + 1; y < bottom; y++ {
		c.set(left, y, box[5])
		c.set(right, y, box[5])
	}
	c.set(left, top, box[0])
	c.set(right, top, box[1])
	c.set(left, bottom, box[2])
	c.set(right, bottom, box[3])
	if h > 2 {
		c.text(left+2, top+1, r.Label, w-4)
	} else {
		c.text(left+2, top, r.Label, w-4)
	}
}

func (c *canvas) bar(x, y, w int, fill float64, label string) {
	suffix := " " + label
	barW := w - runewidth.StringWidth(suffix) - 6
	if barW < 1 {
		barW = w
		suffix = ""
	}
	filled := int(fill * float64(barW))
	for i := 0; i < barW; i++ {
		r := '─'
		if i < filled {
			r = '━'
		}
		c.set(x+i, y, r)
	}
	if suffix != "" {
		c.text(x+barW+1, y, percent(fill)+suffix, w-barW-1)
	}
}

func percent(f float64) string {
	return fmt.Sprintf("%d%%", int(f*100+0.5))
}

func (c *canvas) light(r tour.Rect) {
	for y := int(r.Top); y < int(r.Top+r.Height); y++ {
		for x := int(r.Left); x < int(r.Left+r.Width); x++ {
			if y >= 0 && y < c.h && x >= 0 && x < c.w {
				c.lit[y][x] = true
			}
		}
	}
}

// lines renders the canvas, styling runs of lit and unlit cells.
func (c *canvas) lines(t Theme, dim bool) []string {
	normal := t.Page
	if dim {
		normal = t.Backdrop
	}
	out := make([]string, c.h)
	for y := 0; y < c.h; y++ {
		var b, run strings.Builder
		runLit := false
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runLit {
				b.WriteString(t.Highlight.Render(run.String()))
			} else {
				b.WriteString(normal.Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < c.w; x++ {
			r := c.cells[y][x]
			if r == 0 {
				continue
			}
			if c.lit[y][x] != runLit {
				flush()
				runLit = c.lit[y][x]
			}
			run.WriteRune(r)
		}
		flush()
		out[y] = b.String()
	}
	return out
}

// Render draws the page with the tour chrome on top.
func (p *Page) Render() string {
	defer metrics.Timer(metrics.UIRender)()
	if p.width <= 0 || p.height <= 0 {
		return ""
	}

	c := newCanvas(p.width, p.height)
	for _, r := range p.regions {
		if !p.isHidden(r) {
			c.region(r, lightBox)
		}
	}
	if hl, ok := p.Highlighted(); ok {
		c.region(hl, heavyBox)
		c.light(hl.Rect)
	}
	lines := c.lines(p.theme, p.overlay)

	if r, ok := p.TooltipRect(); ok {
		lines = overlay(lines, p.tooltip.render(), int(r.Left), int(r.Top))
		if glyph, x, y, ok := arrowCell(p.placement.Arrow, r); ok && x < p.width && y < p.height {
			lines = overlay(lines, p.theme.Arrow.Render(glyph), x, y)
		}
	}
	if p.prompt {
		lines = p.drawCentered(lines, p.theme.Prompt.Render(promptText))
	}
	if p.notice {
		toast := p.theme.Toast.Render(noticeText)
		w, h := blockSize(toast)
		lines = overlay(lines, toast, p.width-w-2, p.height-h-3)
	}
	return strings.Join(lines, "\n")
}

const (
	promptText = "Take a quick tour of the storybook?\n\n[y] Yes, show me    [n] No thanks"
	noticeText = "Tour complete! Press R to replay."
)

func (p *Page) drawCentered(lines []string, block string) []string {
	w, h := blockSize(block)
	x := (p.width - w) / 2
	y := (p.height - h) / 2
	if y < 0 {
		y = 0
	}
	return overlay(lines, block, x, y)
}

// arrowCell returns the arrow glyph and the cell just outside the tooltip
// on the arrow side, centered along that side.
func arrowCell(side tour.Position, r tour.Rect) (string, int, int, bool) {
	left, top := int(r.Left), int(r.Top)
	w, h := int(r.Width), int(r.Height)
	switch side {
	case tour.PositionTop:
		return "▲", left + w/2, top - 1, top > 0
	case tour.PositionBottom:
		return "▼", left + w/2, top + h, true
	case tour.PositionLeft:
		return "◀", left - 1, top + h/2, left > 0
	case tour.PositionRight:
		return "▶", left + w, top + h/2, true
	}
	return "", 0, 0, false
}
