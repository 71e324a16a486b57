package preview

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/storytour/pkg/tour"
)

// Cell size in pixels. basicfont.Face7x13 fills one cell per rune.
const (
	cellW = 7
	cellH = 14
)

const (
	margin     = 16
	titleH     = 40
	panelHead  = 22
	maxColumns = 2
	arrowSize  = 6
)

var (
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorPanel     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorRegion    = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorStroke    = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorHighlight = color.RGBA{0xbd, 0x93, 0xf9, 0xff}
	colorTooltip   = color.RGBA{0x28, 0x2a, 0x36, 0xff}
	colorTipText   = color.RGBA{0xf8, 0xf8, 0xf2, 0xff}
	colorMissing   = color.RGBA{0xff, 0xcd, 0xd2, 0xff}
)

// dimAlpha is the backdrop opacity drawn over the page while a step shows.
const dimAlpha = 0.45

// box is a rectangle in canvas pixels.
type box struct {
	X, Y, W, H float64
}

type panel struct {
	X, Y  float64
	Frame Frame
}

type boardLayout struct {
	Width, Height int
	PanelW        float64
	PanelH        float64
	Panels        []panel
}

func layoutBoard(sb *Storyboard) boardLayout {
	pw := float64(sb.Width * cellW)
	ph := float64(sb.Height * cellH)
	cols := maxColumns
	if len(sb.Frames) < cols {
		cols = len(sb.Frames)
	}
	if cols < 1 {
		cols = 1
	}
	rows := (len(sb.Frames) + cols - 1) / cols
	if rows < 1 {
		rows = 1
	}

	l := boardLayout{
		Width:  margin + cols*(int(pw)+margin),
		Height: titleH + rows*(panelHead+int(ph)+margin) + margin,
		PanelW: pw,
		PanelH: ph,
	}
	for i, f := range sb.Frames {
		col, row := i%cols, i/cols
		l.Panels = append(l.Panels, panel{
			X:     float64(margin + col*(int(pw)+margin)),
			Y:     float64(titleH + row*(panelHead+int(ph)+margin) + panelHead),
			Frame: f,
		})
	}
	return l
}

// toPixels maps a cell rect inside a panel to canvas pixels.
func toPixels(p panel, r tour.Rect) box {
	return box{
		X: p.X + r.Left*cellW,
		Y: p.Y + r.Top*cellH,
		W: r.Width * cellW,
		H: r.Height * cellH,
	}
}

// arrowPoints returns the triangle drawn on the given side of the tooltip,
// pointing away from it.
func arrowPoints(b box, side tour.Position) (xs, ys [3]float64) {
	cx, cy := b.X+b.W/2, b.Y+b.H/2
	switch side {
	case tour.PositionTop:
		return [3]float64{cx - arrowSize, cx + arrowSize, cx}, [3]float64{b.Y, b.Y, b.Y - arrowSize}
	case tour.PositionLeft:
		return [3]float64{b.X, b.X, b.X - arrowSize}, [3]float64{cy - arrowSize, cy + arrowSize, cy}
	case tour.PositionRight:
		r := b.X + b.W
		return [3]float64{r, r, r + arrowSize}, [3]float64{cy - arrowSize, cy + arrowSize, cy}
	default:
		bt := b.Y + b.H
		return [3]float64{cx - arrowSize, cx + arrowSize, cx}, [3]float64{bt, bt, bt + arrowSize}
	}
}

func panelCaption(f Frame) string {
	if !f.Found {
		return fmt.Sprintf("%s  %s  %s  (target missing)", f.Counter, f.ID, f.Target)
	}
	return fmt.Sprintf("%s  %s  %s  tooltip %s", f.Counter, f.ID, f.Target, f.Side)
}

func boardTitle(sb *Storyboard) string {
	return fmt.Sprintf("Tour storyboard  %dx%d cells  %d of %d steps resolved",
		sb.Width, sb.Height, sb.Resolved(), len(sb.Frames))
}

// fitCells returns how many runes fit in w pixels.
func fitCells(w float64) int {
	return int(w) / cellW
}

// --- PNG -------------------------------------------------------------------

// WritePNG encodes the storyboard as a PNG image.
func (sb *Storyboard) WritePNG(w io.Writer) error {
	return drawPNG(sb).EncodePNG(w)
}

func drawPNG(sb *Storyboard) *gg.Context {
	l := layoutBoard(sb)
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(boardTitle(sb), margin, titleH/2, 0, 0.5)

	for _, p := range l.Panels {
		drawPanel(dc, sb, l, p)
	}
	return dc
}

func drawPanel(dc *gg.Context, sb *Storyboard, l boardLayout, p panel) {
	f := p.Frame
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(truncate(panelCaption(f), fitCells(l.PanelW)), p.X, p.Y-panelHead/2, 0, 0.5)

	bg := colorPanel
	if !f.Found {
		bg = colorMissing
	}
	dc.SetColor(bg)
	dc.DrawRectangle(p.X, p.Y, l.PanelW, l.PanelH)
	dc.Fill()

	dc.SetLineWidth(1)
	for _, r := range sb.Regions {
		b := toPixels(p, r.Rect)
		dc.SetColor(colorRegion)
		dc.DrawRectangle(b.X+1, b.Y+1, b.W-2, b.H-2)
		dc.FillPreserve()
		dc.SetColor(colorStroke)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(truncate(r.Label, fitCells(b.W)-2), b.X+cellW, b.Y+cellH/2+2, 0, 0.5)
	}
	if !f.Found {
		return
	}

	dc.SetRGBA(0, 0, 0, dimAlpha)
	dc.DrawRectangle(p.X, p.Y, l.PanelW, l.PanelH)
	dc.Fill()

	hb := toPixels(p, f.Box)
	dc.SetColor(colorPanel)
	dc.DrawRectangle(hb.X, hb.Y, hb.W, hb.H)
	dc.Fill()
	dc.SetColor(colorHighlight)
	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(hb.X, hb.Y, hb.W, hb.H, 4)
	dc.Stroke()

	tb := toPixels(p, f.Tooltip)
	dc.SetColor(colorTooltip)
	dc.DrawRoundedRectangle(tb.X, tb.Y, tb.W, tb.H, 6)
	dc.Fill()
	xs, ys := arrowPoints(tb, f.Arrow)
	dc.MoveTo(xs[0], ys[0])
	dc.LineTo(xs[1], ys[1])
	dc.LineTo(xs[2], ys[2])
	dc.ClosePath()
	dc.Fill()

	dc.SetColor(colorTipText)
	dc.DrawStringAnchored(truncate(f.Title, fitCells(tb.W)-2), tb.X+cellW, tb.Y+cellH, 0, 0.5)
	dc.DrawStringAnchored(f.Counter, tb.X+tb.W-cellW, tb.Y+tb.H-cellH, 1, 0.5)
}

// --- SVG -------------------------------------------------------------------

// WriteSVG writes the storyboard as an SVG document.
func (sb *Storyboard) WriteSVG(w io.Writer) error {
	l := layoutBoard(sb)
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Title(boardTitle(sb))
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Text(margin, titleH/2+4, boardTitle(sb), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorText)))

	for _, p := range l.Panels {
		drawPanelSVG(canvas, sb, l, p)
	}
	canvas.End()
	return nil
}

func drawPanelSVG(canvas *svg.SVG, sb *Storyboard, l boardLayout, p panel) {
	f := p.Frame
	canvas.Gid(fmt.Sprintf("step-%d", f.Index+1))
	defer canvas.Gend()

	canvas.Text(int(p.X), int(p.Y)-panelHead/2+4, truncate(panelCaption(f), fitCells(l.PanelW)),
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	bg := colorPanel
	if !f.Found {
		bg = colorMissing
	}
	canvas.Rect(int(p.X), int(p.Y), int(l.PanelW), int(l.PanelH), fmt.Sprintf("fill:%s", css(bg)))

	for _, r := range sb.Regions {
		b := toPixels(p, r.Rect)
		canvas.Rect(int(b.X)+1, int(b.Y)+1, int(b.W)-2, int(b.H)-2,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorRegion), css(colorStroke)))
		canvas.Text(int(b.X)+cellW, int(b.Y)+cellH, truncate(r.Label, fitCells(b.W)-2),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}
	if !f.Found {
		return
	}

	canvas.Rect(int(p.X), int(p.Y), int(l.PanelW), int(l.PanelH), fmt.Sprintf("fill:#000000;fill-opacity:%.2f", dimAlpha))

	hb := toPixels(p, f.Box)
	canvas.Roundrect(int(hb.X), int(hb.Y), int(hb.W), int(hb.H), 4, 4,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:3", css(colorPanel), css(colorHighlight)))

	tb := toPixels(p, f.Tooltip)
	canvas.Roundrect(int(tb.X), int(tb.Y), int(tb.W), int(tb.H), 6, 6, fmt.Sprintf("fill:%s", css(colorTooltip)))
	xs, ys := arrowPoints(tb, f.Arrow)
	canvas.Polygon(
		[]int{int(xs[0]), int(xs[1]), int(xs[2])},
		[]int{int(ys[0]), int(ys[1]), int(ys[2])},
		fmt.Sprintf("fill:%s", css(colorTooltip)),
	)
	canvas.Text(int(tb.X)+cellW, int(tb.Y)+cellH+4, truncate(f.Title, fitCells(tb.W)-2),
		fmt.Sprintf("fill:%s;font-size:12px;font-weight:bold;font-family:monospace", css(colorTipText)))
	canvas.Text(int(tb.X+tb.W)-cellW, int(tb.Y+tb.H)-cellH+4, f.Counter,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:end", css(colorTipText)))
}

// --- files -----------------------------------------------------------------

// Format infers the output format from a file name.
func Format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".svg":
		return "svg", nil
	case ".png":
		return "png", nil
	default:
		return "", fmt.Errorf("unsupported preview format %q (use .svg or .png)", ext)
	}
}

// Save writes the storyboard to path in the format its extension names.
func (sb *Storyboard) Save(path string) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview dir: %w", err)
		}
	}
	if format == "png" {
		return drawPNG(sb).SavePNG(path)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sb.WriteSVG(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveAll writes the storyboard to every path concurrently. Formats are
// checked before anything is written.
func (sb *Storyboard) SaveAll(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if _, err := Format(p); err != nil {
			return err
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sb.Save(p); err != nil {
				return fmt.Errorf("writing %s: %w", p, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
