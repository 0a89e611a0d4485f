// internal/browser/layout/positioned.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
)

// axis holds the constraint of one axis of an absolutely positioned box:
// start + margins + edges + size + end = cb. NaN marks auto.
type axis struct {
	start, size, end       float64
	marginStart, marginEnd float64
	startAuto, endAuto     bool
	edges                  float64
	static                 float64
	cb                     float64
}

// solve resolves the axis following CSS 2.1 §10.3.7 and §10.6.4. fit
// returns the content-based size for the available space. When reverse is
// set an over-constrained axis gives up its start offset instead of its end.
// It returns the offset of the margin edge and the used size and margins.
func (a axis) solve(fit func(avail float64) float64, reverse bool) (start, size, ms, me float64) {
	auto := math.IsNaN
	start, size, end := a.start, a.size, a.end
	ms, me = a.marginStart, a.marginEnd
	if auto(start) && auto(size) && auto(end) {
		start = a.static
	}
	if !auto(start) && !auto(size) && !auto(end) {
		rest := a.cb - start - end - size - a.edges
		switch {
		case a.startAuto && a.endAuto:
			ms, me = rest/2, rest/2
			if ms < 0 {
				if reverse {
					ms, me = rest, 0
				} else {
					ms, me = 0, rest
				}
			}
		case a.startAuto:
			ms = rest - me
		case a.endAuto:
			me = rest - ms
		case reverse:
			start = a.cb - end - size - a.edges - ms - me
		}
		return start, size, ms, me
	}

	avail := a.cb - a.edges - ms - me
	switch {
	case auto(start) && auto(size):
		size = fit(avail - end)
		start = a.cb - end - size - a.edges - ms - me
	case auto(start) && auto(end):
		start = a.static
	case auto(size) && auto(end):
		size = fit(avail - start)
	case auto(start):
		start = a.cb - end - size - a.edges - ms - me
	case auto(size):
		size = math.Max(0, avail-start-end)
	}
	return start, size, ms, me
}

// offset resolves top, right, bottom or left, NaN for auto.
func offset(v properties.Value, ref float64) float64 {
	if n, ok := v.Resolve(ref); ok {
		return finite(n)
	}
	return math.NaN()
}

// layoutAbsolute lays out an absolutely positioned box in cb, the padding
// box of its containing block.
func (p *pass) layoutAbsolute(id boxtree.BoxID, cb boxtree.Rect) {
	b := p.box(id)
	setContaining(b, cb.Width, cb.Height, true)
	auto := resolveEdges(b, cb.Width)
	d := &b.Layout.Dimensions
	cv := b.Style
	rtl := cv.IsRTL()

	h := axis{
		start:       offset(cv.Box.Left, cb.Width),
		size:        math.NaN(),
		end:         offset(cv.Box.Right, cb.Width),
		marginStart: d.Margin.Left,
		marginEnd:   d.Margin.Right,
		startAuto:   auto.left,
		endAuto:     auto.right,
		edges:       d.Padding.Horizontal() + d.Border.Horizontal(),
		static:      b.Layout.StaticX - cb.X,
		cb:          cb.Width,
	}
	replacedW, replacedH := 0.0, 0.0
	if b.Kind == boxtree.KindReplaced {
		replacedW, replacedH = replacedSize(b, cb.Width, cb.Height, true)
		h.size = replacedW
	} else if isTable(b) {
		h.size = p.tableWidth(id, cb.Width-d.Margin.Horizontal())
	} else if w, ok := specifiedWidth(b, cb.Width); ok {
		h.size = w
	}
	fitWidth := func(avail float64) float64 {
		lo, pref := p.intrinsic(id)
		return math.Min(math.Max(lo, avail), pref)
	}
	left, width, ml, mr := h.solve(fitWidth, rtl)
	lo, hi := widthLimits(b, cb.Width)
	if c := clampTo(width, lo, hi); c != width && b.Kind != boxtree.KindReplaced {
		h.size = c
		left, width, ml, mr = h.solve(fitWidth, rtl)
	}
	d.Margin.Left, d.Margin.Right = finite(ml), finite(mr)
	width = clampSize(width)
	x := cb.X + finite(left) + d.Margin.Left + d.Border.Left + d.Padding.Left

	v := axis{
		start:       offset(cv.Box.Top, cb.Height),
		size:        math.NaN(),
		end:         offset(cv.Box.Bottom, cb.Height),
		marginStart: d.Margin.Top,
		marginEnd:   d.Margin.Bottom,
		startAuto:   auto.top,
		endAuto:     auto.bottom,
		edges:       d.Padding.Vertical() + d.Border.Vertical(),
		static:      b.Layout.StaticY - cb.Y,
		cb:          cb.Height,
	}
	if b.Kind == boxtree.KindReplaced {
		v.size = replacedH
	} else if hh, ok := specifiedHeight(b, cb.Height, true); ok {
		v.size = hh
	}
	contentHeight := 0.0
	if math.IsNaN(v.size) {
		contentHeight = p.layoutIndependent(id, x, 0, width, 0, false)
	}
	fitHeight := func(float64) float64 { return contentHeight }
	top, height, mt, mb := v.solve(fitHeight, false)
	hlo, hhi := heightLimits(b, cb.Height, true)
	if c := clampTo(height, hlo, hhi); c != height && b.Kind != boxtree.KindReplaced {
		v.size = c
		top, height, mt, mb = v.solve(fitHeight, false)
	}
	d.Margin.Top, d.Margin.Bottom = finite(mt), finite(mb)
	height = clampSize(height)
	if !math.IsNaN(v.size) || height != contentHeight {
		p.layoutIndependent(id, x, 0, width, height, true)
	}

	y := cb.Y + finite(top) + d.Margin.Top + d.Border.Top + d.Padding.Top
	p.translate(id, 0, y-d.Content.Y)
}
