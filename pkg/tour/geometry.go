package tour

// DefaultGap is the distance between the target edge and the tooltip.
const DefaultGap = 20

// DefaultPadding is the minimum distance between the tooltip and the
// viewport edges.
const DefaultPadding = 20

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Contains reports whether the point (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Right() && y >= r.Top && y < r.Bottom()
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Geometry holds the spacing constants used by Place. Units are whatever
// the host measures in: CSS pixels in a browser, cells in a terminal.
type Geometry struct {
	Gap     float64
	Padding float64
}

// DefaultGeometry returns the 20-unit gap and padding.
func DefaultGeometry() Geometry {
	return Geometry{Gap: DefaultGap, Padding: DefaultPadding}
}

// Placement is the computed tooltip position for one step.
type Placement struct {
	Top   float64
	Left  float64
	Side  Position // side of the target the tooltip sits on
	Arrow Position // side of the tooltip the arrow is drawn on
}

// Rect returns the tooltip's box for the given size.
func (p Placement) Rect(tooltip Size) Rect {
	return Rect{Top: p.Top, Left: p.Left, Width: tooltip.Width, Height: tooltip.Height}
}

// Place computes where a tooltip of the given size goes relative to target,
// then clamps it into the viewport. Clamping never changes Side or Arrow.
func Place(target Rect, tooltip Size, pos Position, viewport Size, g Geometry) Placement {
	var p Placement

	switch pos {
	case PositionTop:
		p.Top = target.Top - tooltip.Height - g.Gap
		p.Left = target.Left + (target.Width-tooltip.Width)/2
		p.Side = PositionTop
	case PositionLeft:
		p.Top = target.Top + (target.Height-tooltip.Height)/2
		p.Left = target.Left - tooltip.Width - g.Gap
		p.Side = PositionLeft
	case PositionRight:
		p.Top = target.Top + (target.Height-tooltip.Height)/2
		p.Left = target.Right() + g.Gap
		p.Side = PositionRight
	default:
		p.Top = target.Bottom() + g.Gap
		p.Left = target.Left + (target.Width-tooltip.Width)/2
		p.Side = PositionBottom
	}
	p.Arrow = p.Side.Opposite()

	p.Left = clampAxis(p.Left, tooltip.Width, viewport.Width, g.Padding)
	p.Top = clampAxis(p.Top, tooltip.Height, viewport.Height, g.Padding)
	return p
}

// clampAxis keeps [v, v+extent] inside [padding, limit-padding]. The low
// edge wins when the tooltip is larger than the available space.
func clampAxis(v, extent, limit, padding float64) float64 {
	if v < padding {
		return padding
	} else if v+extent > limit-padding {
		return limit - extent - padding
	}
	return v
}
