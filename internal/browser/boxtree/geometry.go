// internal/browser/boxtree/geometry.go
package boxtree

// Axis represents the primary layout direction.
type Axis int

const (
	// Horizontal axis for layout calculations.
	Horizontal Axis = iota
	// Vertical axis for layout calculations.
	Vertical
)

// Cross returns the other axis.
func (a Axis) Cross() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

// Dimensions defines the geometry of a box.
type Dimensions struct {
	// Content area (x, y) relative to the viewport origin.
	Content Rect

	Padding Edges
	Border  Edges
	Margin  Edges
}

// MarginBox returns the rectangle enclosing the margin area.
func (d Dimensions) MarginBox() Rect {
	return d.BorderBox().ExpandedBy(d.Margin)
}

// BorderBox returns the rectangle enclosing the border area.
func (d Dimensions) BorderBox() Rect {
	return d.PaddingBox().ExpandedBy(d.Border)
}

// PaddingBox returns the rectangle enclosing the padding area.
func (d Dimensions) PaddingBox() Rect {
	return d.Content.ExpandedBy(d.Padding)
}

// MainSize is an axis-agnostic helper for Dimensions.
func (d *Dimensions) MainSize(axis Axis) float64 {
	if axis == Horizontal {
		return d.Content.Width
	}
	return d.Content.Height
}

// SetMainSize is an axis-agnostic helper for Dimensions.
func (d *Dimensions) SetMainSize(axis Axis, size float64) {
	if axis == Horizontal {
		d.Content.Width = size
	} else {
		d.Content.Height = size
	}
}

// CrossSize is an axis-agnostic helper for Dimensions.
func (d *Dimensions) CrossSize(axis Axis) float64 {
	return d.MainSize(axis.Cross())
}

// SetCrossSize is an axis-agnostic helper for Dimensions.
func (d *Dimensions) SetCrossSize(axis Axis, size float64) {
	d.SetMainSize(axis.Cross(), size)
}

// MainStatic returns the total size occupied by margins, borders, and paddings on the axis.
func (d *Dimensions) MainStatic(axis Axis) float64 {
	if axis == Horizontal {
		return d.Margin.Left + d.Margin.Right + d.Border.Left + d.Border.Right + d.Padding.Left + d.Padding.Right
	}
	return d.Margin.Top + d.Margin.Bottom + d.Border.Top + d.Border.Bottom + d.Padding.Top + d.Padding.Bottom
}

// CrossStatic is MainStatic for the cross axis.
func (d *Dimensions) CrossStatic(axis Axis) float64 {
	return d.MainStatic(axis.Cross())
}

// Translate moves the box by dx, dy without changing its size.
func (d *Dimensions) Translate(dx, dy float64) {
	d.Content.X += dx
	d.Content.Y += dy
}

type Rect struct {
	X, Y, Width, Height float64
}

// ExpandedBy returns a new rectangle expanded by the edge sizes.
func (r Rect) ExpandedBy(e Edges) Rect {
	return Rect{
		X:      r.X - e.Left,
		Y:      r.Y - e.Top,
		Width:  r.Width + e.Left + e.Right,
		Height: r.Height + e.Top + e.Bottom,
	}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports a rectangle without area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// MainStart is an axis-agnostic helper for Rect.
func (r *Rect) MainStart(axis Axis) float64 {
	if axis == Horizontal {
		return r.X
	}
	return r.Y
}

// SetMainStart is an axis-agnostic helper for Rect.
func (r *Rect) SetMainStart(axis Axis, pos float64) {
	if axis == Horizontal {
		r.X = pos
	} else {
		r.Y = pos
	}
}

// CrossStart is an axis-agnostic helper for Rect.
func (r *Rect) CrossStart(axis Axis) float64 {
	return r.MainStart(axis.Cross())
}

// SetCrossStart is an axis-agnostic helper for Rect.
func (r *Rect) SetCrossStart(axis Axis, pos float64) {
	r.SetMainStart(axis.Cross(), pos)
}

type Edges struct {
	Top, Right, Bottom, Left float64
}

// MainStart is an axis-agnostic helper for Edges.
func (e *Edges) MainStart(axis Axis) float64 {
	if axis == Horizontal {
		return e.Left
	}
	return e.Top
}

// MainEnd is an axis-agnostic helper for Edges.
func (e *Edges) MainEnd(axis Axis) float64 {
	if axis == Horizontal {
		return e.Right
	}
	return e.Bottom
}

// CrossStart is an axis-agnostic helper for Edges.
func (e *Edges) CrossStart(axis Axis) float64 {
	return e.MainStart(axis.Cross())
}

// CrossEnd is an axis-agnostic helper for Edges.
func (e *Edges) CrossEnd(axis Axis) float64 {
	return e.MainEnd(axis.Cross())
}

// Horizontal returns left plus right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns top plus bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }
