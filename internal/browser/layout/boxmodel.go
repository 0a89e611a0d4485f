// internal/browser/layout/boxmodel.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// autoMargins records which margins were specified as auto.
type autoMargins struct {
	top, right, bottom, left bool
}

// resolveEdges computes the padding, border and margin edges of b. Every
// percentage, vertical ones included, refers to the containing block width.
// Auto margins resolve to zero and are reported.
func resolveEdges(b *boxtree.Box, cbWidth float64) autoMargins {
	d := &b.Layout.Dimensions
	var auto autoMargins
	d.Padding, d.Border, d.Margin, auto = edgesOf(b, cbWidth)
	return auto
}

// edgesOf is resolveEdges without storing the result.
func edgesOf(b *boxtree.Box, cbWidth float64) (padding, border, margin boxtree.Edges, auto autoMargins) {
	if b.Kind == boxtree.KindText {
		return
	}
	cv := b.Style
	pad := func(s style.Side) float64 { return clampSize(cv.Padding[s].ResolveOr(cbWidth, 0)) }
	padding = boxtree.Edges{Top: pad(style.Top), Right: pad(style.Right), Bottom: pad(style.Bottom), Left: pad(style.Left)}
	border = boxtree.Edges{
		Top:    clampSize(cv.BorderWidth(style.Top)),
		Right:  clampSize(cv.BorderWidth(style.Right)),
		Bottom: clampSize(cv.BorderWidth(style.Bottom)),
		Left:   clampSize(cv.BorderWidth(style.Left)),
	}
	m := func(s style.Side, isAuto *bool) float64 {
		v := cv.Margin[s]
		if v.IsAuto() {
			*isAuto = true
			return 0
		}
		return finite(v.ResolveOr(cbWidth, 0))
	}
	margin = boxtree.Edges{
		Top:    m(style.Top, &auto.top),
		Right:  m(style.Right, &auto.right),
		Bottom: m(style.Bottom, &auto.bottom),
		Left:   m(style.Left, &auto.left),
	}
	return
}

// specifiedWidth returns the used content width from width, false for auto.
func specifiedWidth(b *boxtree.Box, cbWidth float64) (float64, bool) {
	n, ok := b.Style.Box.Width.Resolve(cbWidth)
	if !ok {
		return 0, false
	}
	if b.Style.BoxSizing() == style.BorderBox {
		d := b.Layout.Dimensions
		n -= d.Padding.Horizontal() + d.Border.Horizontal()
	}
	return clampSize(n), true
}

// widthLimits returns the content widths min-width and max-width allow.
func widthLimits(b *boxtree.Box, cbWidth float64) (lo, hi float64) {
	return limits(b, b.Style.Box.MinWidth, b.Style.Box.MaxWidth, cbWidth, true,
		b.Layout.Padding.Horizontal()+b.Layout.Border.Horizontal())
}

// heightLimits is widthLimits for heights. Percentages of an indefinite
// containing block height are ignored.
func heightLimits(b *boxtree.Box, cbHeight float64, definite bool) (lo, hi float64) {
	return limits(b, b.Style.Box.MinHeight, b.Style.Box.MaxHeight, cbHeight, definite,
		b.Layout.Padding.Vertical()+b.Layout.Border.Vertical())
}

func limits(b *boxtree.Box, minV, maxV properties.Value, ref float64, definite bool, edges float64) (lo, hi float64) {
	hi = math.Inf(1)
	if b.Style.BoxSizing() != style.BorderBox {
		edges = 0
	}
	if minV.Type != properties.TypePercentage || definite {
		if n, ok := minV.Resolve(ref); ok {
			lo = clampSize(n - edges)
		}
	}
	if maxV.Type != properties.TypePercentage || definite {
		if n, ok := maxV.Resolve(ref); ok {
			hi = clampSize(n - edges)
		}
	}
	return lo, hi
}

// clampTo applies min and max, min winning when they conflict (CSS 2.1 §10.4).
func clampTo(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// specifiedHeight returns the used content height from height, false when
// the height depends on the content.
func specifiedHeight(b *boxtree.Box, cbHeight float64, definite bool) (float64, bool) {
	v := b.Style.Box.Height
	if v.Type == properties.TypePercentage && !definite {
		return 0, false
	}
	n, ok := v.Resolve(cbHeight)
	if !ok {
		return 0, false
	}
	if b.Style.BoxSizing() == style.BorderBox {
		d := b.Layout.Dimensions
		n -= d.Padding.Vertical() + d.Border.Vertical()
	}
	return clampSize(n), true
}

// solveWidth resolves the width and horizontal margins of a block-level box
// in normal flow so they add up to the containing block width (CSS 2.1
// §10.3.3). An over-constrained box gives up its end margin.
func solveWidth(cb, edges, width float64, widthAuto bool, ml, mr float64, mlAuto, mrAuto, rtl bool) (float64, float64, float64) {
	if widthAuto {
		width = cb - edges - ml - mr
		if width < 0 {
			width = 0
			if rtl {
				ml = cb - edges - mr
			} else {
				mr = cb - edges - ml
			}
		}
		return width, ml, mr
	}
	used := edges + width
	if !mlAuto {
		used += ml
	}
	if !mrAuto {
		used += mr
	}
	if used > cb {
		mlAuto, mrAuto = false, false
	}
	rest := cb - edges - width
	switch {
	case mlAuto && mrAuto:
		ml, mr = rest/2, rest/2
	case mlAuto:
		ml = rest - mr
	case mrAuto:
		mr = rest - ml
	case rtl:
		ml = rest - mr
	default:
		mr = rest - ml
	}
	return width, ml, mr
}

// blockWidth lays out the horizontal box model of a block-level,
// non-replaced box in normal flow.
func blockWidth(b *boxtree.Box, cbWidth float64) {
	auto := resolveEdges(b, cbWidth)
	d := &b.Layout.Dimensions
	edges := d.Padding.Horizontal() + d.Border.Horizontal()
	width, specified := specifiedWidth(b, cbWidth)
	rtl := b.Style.IsRTL()
	w, ml, mr := solveWidth(cbWidth, edges, width, !specified, d.Margin.Left, d.Margin.Right, auto.left, auto.right, rtl)

	lo, hi := widthLimits(b, cbWidth)
	if w > hi {
		w, ml, mr = solveWidth(cbWidth, edges, hi, false, d.Margin.Left, d.Margin.Right, auto.left, auto.right, rtl)
	}
	if w < lo {
		w, ml, mr = solveWidth(cbWidth, edges, lo, false, d.Margin.Left, d.Margin.Right, auto.left, auto.right, rtl)
	}
	d.Content.Width = clampSize(w)
	d.Margin.Left, d.Margin.Right = finite(ml), finite(mr)
}

// replacedSize computes the used size of replaced content from width,
// height and the intrinsic size (CSS 2.1 §10.3.2, §10.6.2).
func replacedSize(b *boxtree.Box, cbWidth, cbHeight float64, definite bool) (float64, float64) {
	iw, ih := 0.0, 0.0
	if b.Replaced != nil {
		iw, ih = b.Replaced.Width, b.Replaced.Height
	}
	w, hasW := specifiedWidth(b, cbWidth)
	h, hasH := specifiedHeight(b, cbHeight, definite)
	switch {
	case hasW && hasH:
	case hasW:
		h = ih
		if iw > 0 {
			h = w * ih / iw
		}
	case hasH:
		w = iw
		if ih > 0 {
			w = h * iw / ih
		}
	default:
		w, h = iw, ih
	}
	wlo, whi := widthLimits(b, cbWidth)
	hlo, hhi := heightLimits(b, cbHeight, definite)
	return clampSize(clampTo(w, wlo, whi)), clampSize(clampTo(h, hlo, hhi))
}

// relativeOffset returns the offset position: relative applies to b.
func relativeOffset(b *boxtree.Box) (dx, dy float64) {
	if b.Style.Position() != style.PositionRelative {
		return 0, 0
	}
	cv := b.Style
	l := b.Layout
	if n, ok := cv.Box.Left.Resolve(l.ContainingWidth); ok {
		dx = n
	} else if n, ok := cv.Box.Right.Resolve(l.ContainingWidth); ok {
		dx = -n
	}
	top, bottom := cv.Box.Top, cv.Box.Bottom
	heightKnown := l.ContainingHeight >= 0
	if top.Type != properties.TypePercentage || heightKnown {
		if n, ok := top.Resolve(l.ContainingHeight); ok {
			return finite(dx), finite(n)
		}
	}
	if bottom.Type != properties.TypePercentage || heightKnown {
		if n, ok := bottom.Resolve(l.ContainingHeight); ok {
			dy = -n
		}
	}
	return finite(dx), finite(dy)
}

// establishesContext reports boxes that lay out their content in a new block
// formatting context.
func (p *pass) establishesContext(b *boxtree.Box) bool {
	if b.Parent == boxtree.NoBox || b.IsOutOfFlow() {
		return true
	}
	switch b.Display {
	case style.DisplayInlineBlock, style.DisplayTableCell, style.DisplayTableCaption,
		style.DisplayTable, style.DisplayInlineTable, style.DisplayFlex, style.DisplayInlineFlex:
		return true
	}
	if parent := p.box(b.Parent); parent != nil {
		if parent.Display == style.DisplayFlex || parent.Display == style.DisplayInlineFlex {
			return true
		}
	}
	if b.Kind == boxtree.KindReplaced {
		return true
	}
	ov := b.Style.Box.Overflow
	return ov.IsSet() && !ov.Is("visible")
}

// containingHeight returns the height percentages of b's height resolve
// against, and whether it is definite.
func (p *pass) containingHeight(b *boxtree.Box) (float64, bool) {
	if b.Kind == boxtree.KindAbsoluteOrFixed {
		return b.Layout.ContainingHeight, true
	}
	h, ok := p.heights[b.Parent]
	return h, ok
}
