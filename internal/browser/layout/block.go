// internal/browser/layout/block.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// setContaining records the containing block size of b. An indefinite
// height is stored as -1.
func setContaining(b *boxtree.Box, width, height float64, definite bool) {
	b.Layout.ContainingWidth = width
	if !definite {
		height = -1
	}
	b.Layout.ContainingHeight = height
}

// layoutBlock lays out a block-level box in normal flow at the cursor. cb is
// the content box of the containing block; only its X and Width are used.
func (p *pass) layoutBlock(id boxtree.BoxID, cur *Cursor, fl *floatList, cb boxtree.Rect, cbHeight float64, cbDefinite bool) {
	b := p.box(id)
	setContaining(b, cb.Width, cbHeight, cbDefinite)
	independent := p.establishesContext(b)
	d := &b.Layout.Dimensions

	switch {
	case b.Kind == boxtree.KindReplaced:
		auto := resolveEdges(b, cb.Width)
		w, h := replacedSize(b, cb.Width, cbHeight, cbDefinite)
		p.solveFixedWidth(b, cb.Width, w, auto)
		d.Content.Height = h
	case isTable(b):
		auto := resolveEdges(b, cb.Width)
		p.solveFixedWidth(b, cb.Width, p.tableWidth(id, cb.Width-d.Margin.Horizontal()), auto)
	default:
		blockWidth(b, cb.Width)
	}

	cur.AddMargin(d.Margin.Top)
	if clear := b.Style.Clear(); clear != style.ClearNone {
		if y, ok := fl.clearance(clear); ok && cur.Y+cur.TotalMargin() < y {
			// Clearance stops the margin collapsing with anything above.
			cur.ApplyMargin()
			cur.Y = y
		}
	}
	if independent || d.Border.Top > 0 || d.Padding.Top > 0 {
		cur.ApplyMargin()
	}

	x := cb.X
	if independent && b.Parent != boxtree.NoBox && len(fl.floats) > 0 {
		// The border box of a formatting context root never overlaps floats.
		left, right := fl.edges(cur.Y, 1, cb.X, cb.Width)
		if left > cb.X || right < cb.X+cb.Width {
			if _, ok := specifiedWidth(b, cb.Width); !ok && b.Kind == boxtree.KindElement && !isTable(b) {
				blockWidth(b, right-left)
			}
			x = left
		}
	}

	cur.Y += d.Border.Top + d.Padding.Top
	before := cur.Y
	collapseTop := !independent && d.Border.Top == 0 && d.Padding.Top == 0
	mark := cur.mark()
	d.Content.X = x + d.Margin.Left + d.Border.Left + d.Padding.Left
	d.Content.Y = cur.Y + cur.TotalMargin()

	h, definite := specifiedHeight(b, cbHeight, cbDefinite)
	if b.Kind == boxtree.KindReplaced {
		h, definite = d.Content.Height, true
	}
	lo, hi := heightLimits(b, cbHeight, cbDefinite)
	if definite && b.Kind != boxtree.KindReplaced {
		h = clampTo(h, lo, hi)
	}
	delete(p.heights, id)
	if definite {
		d.Content.Height = h
		p.heights[id] = h
	}

	if independent {
		height := p.layoutContext(id)
		if definite {
			height = h
		} else {
			height = clampTo(height, lo, hi)
		}
		d.Content.Height = clampSize(height)
		cur.Y = d.Content.Y + d.Content.Height
	} else {
		saveX := cur.X
		cur.X = d.Content.X
		p.layoutFlow(id, cur, fl)
		cur.X = saveX
		if definite && h > 0 {
			cur.ApplyMargin()
		}
		if top, ok := cur.firstTop(mark); ok && collapseTop {
			// The top margin collapsed with the first child's.
			d.Content.Y = top
		}
		if definite {
			cur.Y = d.Content.Y + h
		} else {
			if d.Border.Bottom > 0 || d.Padding.Bottom > 0 {
				cur.ApplyMargin()
			}
			height := 0.0
			if cur.Y != before {
				height = math.Max(0, cur.Y-d.Content.Y)
			}
			height = clampTo(height, lo, hi)
			if height > 0 && cur.Y < d.Content.Y+height {
				cur.ResetMargin()
				cur.Y = d.Content.Y + height
			}
			d.Content.Height = clampSize(height)
		}
	}

	if d.Border.Bottom > 0 || d.Padding.Bottom > 0 {
		cur.ApplyMargin()
		cur.Y += d.Padding.Bottom + d.Border.Bottom
	}
	cur.AddMargin(d.Margin.Bottom)
	p.finish(id)
}

func isTable(b *boxtree.Box) bool {
	return b.Display == style.DisplayTable || b.Display == style.DisplayInlineTable
}

// solveFixedWidth resolves the horizontal margins of a block-level box
// whose width is already known.
func (p *pass) solveFixedWidth(b *boxtree.Box, cbWidth, width float64, auto autoMargins) {
	d := &b.Layout.Dimensions
	edges := d.Padding.Horizontal() + d.Border.Horizontal()
	w, ml, mr := solveWidth(cbWidth, edges, width, false, d.Margin.Left, d.Margin.Right, auto.left, auto.right, b.Style.IsRTL())
	d.Content.Width = clampSize(w)
	d.Margin.Left, d.Margin.Right = finite(ml), finite(mr)
}

// layoutFlow lays out the children of a block container that shares its
// parent's formatting context.
func (p *pass) layoutFlow(id boxtree.BoxID, cur *Cursor, fl *floatList) {
	b := p.box(id)
	b.Layout.Lines = nil
	if p.hasInlineContent(b) {
		p.layoutInline(id, cur, fl)
		return
	}
	p.layoutBlockChildren(id, cur, fl)
}

// layoutContext lays out the content of a box that establishes a new
// formatting context and returns its content height. The content box
// position and width must be set.
func (p *pass) layoutContext(id boxtree.BoxID) float64 {
	b := p.box(id)
	d := &b.Layout.Dimensions
	switch {
	case b.Kind == boxtree.KindReplaced:
		return d.Content.Height
	case b.Display == style.DisplayFlex || b.Display == style.DisplayInlineFlex:
		return p.layoutFlex(id)
	case isTable(b):
		return p.layoutTable(id)
	}
	fl := &floatList{}
	cur := &Cursor{X: d.Content.X, Y: d.Content.Y}
	p.layoutFlow(id, cur, fl)
	cur.ApplyMargin()
	return math.Max(cur.Y, fl.maxExtent()) - d.Content.Y
}

// layoutIndependent lays out a formatting context root whose edges and
// width are resolved, with its content box at x, y. A fixed height replaces
// the specified one. It returns the content height.
func (p *pass) layoutIndependent(id boxtree.BoxID, x, y, width, height float64, fixed bool) float64 {
	b := p.box(id)
	d := &b.Layout.Dimensions
	d.Content = boxtree.Rect{X: x, Y: y, Width: clampSize(width)}
	cbHeight, cbDefinite := p.containingHeight(b)
	if !fixed {
		height, fixed = specifiedHeight(b, cbHeight, cbDefinite)
	}
	if b.Kind == boxtree.KindReplaced && !fixed {
		_, height = replacedSize(b, b.Layout.ContainingWidth, cbHeight, cbDefinite)
		fixed = true
	}
	lo, hi := heightLimits(b, cbHeight, cbDefinite)
	if fixed && b.Kind != boxtree.KindReplaced {
		height = clampTo(height, lo, hi)
	}
	delete(p.heights, id)
	if fixed {
		height = clampSize(height)
		d.Content.Height = height
		p.heights[id] = height
	}
	content := p.layoutContext(id)
	if !fixed {
		d.Content.Height = clampSize(clampTo(content, lo, hi))
	}
	p.finish(id)
	return d.Content.Height
}

// layoutBlockChildren stacks the block-level children of a container.
func (p *pass) layoutBlockChildren(id boxtree.BoxID, cur *Cursor, fl *floatList) {
	b := p.box(id)
	cb := b.Layout.Content
	cbHeight, cbDefinite := p.heights[id]
	for _, c := range b.Children {
		child := p.box(c)
		switch {
		case child.Kind == boxtree.KindAbsoluteOrFixed:
			child.Layout.StaticX = cb.X
			child.Layout.StaticY = cur.Y + cur.TotalMargin()
		case child.Kind == boxtree.KindFloat:
			p.layoutFloat(c, fl, cb, cur.Y+cur.TotalMargin())
		default:
			p.layoutBlock(c, cur, fl, cb, cbHeight, cbDefinite)
		}
	}
}

// layoutFloat lays out a float and places it at or below y.
func (p *pass) layoutFloat(id boxtree.BoxID, fl *floatList, cb boxtree.Rect, y float64) {
	p.measureFloat(id, cb)
	p.placeFloat(id, fl, cb, y)
}

// measureFloat lays out a float with its margin box at the origin and
// returns the margin box.
func (p *pass) measureFloat(id boxtree.BoxID, cb boxtree.Rect) boxtree.Rect {
	b := p.box(id)
	cbHeight, cbDefinite := p.heights[b.Parent]
	setContaining(b, cb.Width, cbHeight, cbDefinite)
	width := p.shrinkToFitWidth(b, cb.Width)
	d := b.Layout.Dimensions
	p.layoutIndependent(id, d.Margin.Left+d.Border.Left+d.Padding.Left, d.Margin.Top+d.Border.Top+d.Padding.Top, width, 0, false)
	return b.Layout.MarginBox()
}

// placeFloat moves a measured float to the highest position at or below y
// where it fits, and adds it to the float list.
func (p *pass) placeFloat(id boxtree.BoxID, fl *floatList, cb boxtree.Rect, y float64) {
	b := p.box(id)
	mb := b.Layout.MarginBox()
	side := b.Style.Float()
	if clear := b.Style.Clear(); clear != style.ClearNone {
		if bottom, ok := fl.clearance(clear); ok {
			y = math.Max(y, bottom)
		}
	}
	x, top := fl.place(mb.Width, mb.Height, side, y, cb.X, cb.Width)
	p.translate(id, x-mb.X+b.Layout.RelativeX, top-mb.Y+b.Layout.RelativeY)
	mb = b.Layout.MarginBox()
	mb.X -= b.Layout.RelativeX
	mb.Y -= b.Layout.RelativeY
	fl.add(mb, side)
}

// shrinkToFitWidth resolves the edges of a float, inline-block or absolutely
// positioned box and returns its content width: the specified width, or
// min(max(minimum, available), preferred) for auto.
func (p *pass) shrinkToFitWidth(b *boxtree.Box, cbWidth float64) float64 {
	resolveEdges(b, cbWidth)
	d := &b.Layout.Dimensions
	if b.Kind == boxtree.KindReplaced {
		cbHeight, definite := p.containingHeight(b)
		w, _ := replacedSize(b, cbWidth, cbHeight, definite)
		return w
	}
	var w float64
	if isTable(b) {
		w = p.tableWidth(b.ID, cbWidth-d.Margin.Horizontal())
	} else if sw, ok := specifiedWidth(b, cbWidth); ok {
		w = sw
	} else {
		avail := cbWidth - d.Margin.Horizontal() - d.Padding.Horizontal() - d.Border.Horizontal()
		lo, pref := p.intrinsic(b.ID)
		w = math.Min(math.Max(lo, avail), pref)
	}
	wlo, whi := widthLimits(b, cbWidth)
	return clampSize(clampTo(w, wlo, whi))
}

// finish completes a box once its size is final: it places the list
// marker, lays out the absolutely positioned boxes it contains and applies
// its relative offset.
func (p *pass) finish(id boxtree.BoxID) {
	b := p.box(id)
	if b.Marker != "" || b.MarkerImage != "" {
		p.placeMarker(b)
	}
	for _, pos := range b.Positioned {
		p.layoutAbsolute(pos, b.Layout.PaddingBox())
	}
	if dx, dy := relativeOffset(b); dx != 0 || dy != 0 {
		b.Layout.RelativeX, b.Layout.RelativeY = dx, dy
		p.translate(id, dx, dy)
	}
}

// placeMarker positions an outside list marker beside the first line.
func (p *pass) placeMarker(b *boxtree.Box) {
	face := FaceOf(b.Style)
	ascent, descent := p.metrics.Extents(face)
	w := p.metrics.Measure(b.Marker, face)
	if b.Marker == "" {
		w = ascent / 2
	}
	gap := p.metrics.Measure(" ", face)
	c := b.Layout.Content
	r := boxtree.Rect{X: c.X - gap - w, Width: w, Y: c.Y, Height: ascent + descent}
	if b.Style.IsRTL() {
		r.X = c.Right() + gap
	}
	if baseline, ok := p.firstBaseline(b.ID); ok {
		r.Y = baseline - ascent
	}
	b.Layout.MarkerRect = r
}

// firstBaseline returns the first line baseline inside a box.
func (p *pass) firstBaseline(id boxtree.BoxID) (float64, bool) {
	b := p.box(id)
	if len(b.Layout.Lines) > 0 {
		return b.Layout.Lines[0].Baseline, true
	}
	for _, c := range b.Children {
		if child := p.box(c); !child.IsOutOfFlow() && child.Kind != boxtree.KindText {
			if y, ok := p.firstBaseline(c); ok {
				return y, true
			}
		}
	}
	return 0, false
}

// lastBaseline returns the last line baseline inside a box, which is the
// baseline of an inline-block.
func (p *pass) lastBaseline(id boxtree.BoxID) (float64, bool) {
	b := p.box(id)
	if ov := b.Style.Box.Overflow; ov.IsSet() && !ov.Is("visible") {
		return 0, false
	}
	if n := len(b.Layout.Lines); n > 0 {
		return b.Layout.Lines[n-1].Baseline, true
	}
	for i := len(b.Children) - 1; i >= 0; i-- {
		c := b.Children[i]
		if child := p.box(c); !child.IsOutOfFlow() && child.Kind != boxtree.KindText {
			if y, ok := p.lastBaseline(c); ok {
				return y, true
			}
		}
	}
	return 0, false
}
