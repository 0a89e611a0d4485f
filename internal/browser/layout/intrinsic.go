// internal/browser/layout/intrinsic.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// intrinsic returns the min-content and max-content widths of the content
// box of id. Percentages count as zero.
func (p *pass) intrinsic(id boxtree.BoxID) (float64, float64) {
	if v, ok := p.intrinsics[id]; ok {
		return v[0], v[1]
	}
	lo, pref := p.contentIntrinsic(p.box(id))
	pref = math.Max(lo, pref)
	p.intrinsics[id] = [2]float64{lo, pref}
	return lo, pref
}

func (p *pass) contentIntrinsic(b *boxtree.Box) (lo, pref float64) {
	switch {
	case b.Kind == boxtree.KindReplaced:
		w := fixedReplacedWidth(b)
		return w, w
	case isTable(b):
		return p.tableIntrinsic(b.ID)
	case b.Display == style.DisplayFlex || b.Display == style.DisplayInlineFlex:
		return p.flexIntrinsic(b)
	case p.hasInlineContent(b):
		return p.inlineIntrinsic(b)
	}
	for _, c := range b.Children {
		child := p.box(c)
		if child.Kind == boxtree.KindAbsoluteOrFixed || child.Kind == boxtree.KindText {
			continue
		}
		clo, cpref := p.outerIntrinsic(c)
		lo = math.Max(lo, clo)
		pref = math.Max(pref, cpref)
	}
	return lo, pref
}

// lengthOnly resolves a length, ignoring percentages.
func lengthOnly(v properties.Value) (float64, bool) {
	if v.Type != properties.TypeLength {
		return 0, false
	}
	return v.Px(), true
}

// fixedReplacedWidth is the width of replaced content when percentages
// resolve to nothing.
func fixedReplacedWidth(b *boxtree.Box) float64 {
	padding, border, _, _ := edgesOf(b, 0)
	sizing := 0.0
	if b.Style.BoxSizing() == style.BorderBox {
		sizing = padding.Horizontal() + border.Horizontal()
	}
	if w, ok := lengthOnly(b.Style.Box.Width); ok {
		return clampSize(w - sizing)
	}
	if b.Replaced == nil {
		return 0
	}
	if h, ok := lengthOnly(b.Style.Box.Height); ok && b.Replaced.Height > 0 {
		if b.Style.BoxSizing() == style.BorderBox {
			h -= padding.Vertical() + border.Vertical()
		}
		return clampSize(h * b.Replaced.Width / b.Replaced.Height)
	}
	return b.Replaced.Width
}

// outerIntrinsic returns the intrinsic widths of the margin box of id.
func (p *pass) outerIntrinsic(id boxtree.BoxID) (float64, float64) {
	b := p.box(id)
	padding, border, margin, _ := edgesOf(b, 0)
	edges := padding.Horizontal() + border.Horizontal()
	sizing := 0.0
	if b.Style.BoxSizing() == style.BorderBox {
		sizing = edges
	}

	var lo, pref float64
	if w, ok := lengthOnly(b.Style.Box.Width); ok && b.Kind != boxtree.KindReplaced && !isTable(b) {
		lo, pref = clampSize(w-sizing), clampSize(w-sizing)
	} else {
		lo, pref = p.intrinsic(id)
	}
	if n, ok := lengthOnly(b.Style.Box.MaxWidth); ok {
		hi := clampSize(n - sizing)
		lo, pref = math.Min(lo, hi), math.Min(pref, hi)
	}
	if n, ok := lengthOnly(b.Style.Box.MinWidth); ok {
		floor := clampSize(n - sizing)
		lo, pref = math.Max(lo, floor), math.Max(pref, floor)
	}
	outer := edges + margin.Horizontal()
	return clampSize(lo + outer), clampSize(pref + outer)
}

// inlineIntrinsic measures inline content: the widest unbreakable run and
// the widest line between forced breaks.
func (p *pass) inlineIntrinsic(b *boxtree.Box) (lo, pref float64) {
	var line, word, trailing float64
	lastCollapsible := true
	endLine := func() {
		pref = math.Max(pref, line-trailing)
		lo = math.Max(lo, word)
		line, word, trailing = 0, 0, 0
		lastCollapsible = true
	}
	for _, it := range p.collectItems(b, nil) {
		switch it.kind {
		case itemWord:
			line += it.width
			word += it.width
			trailing, lastCollapsible = 0, false
		case itemSpace:
			if it.collapsible && lastCollapsible {
				continue
			}
			line += it.width
			if it.wraps {
				lo = math.Max(lo, word)
				word = 0
			} else {
				word += it.width
			}
			trailing = 0
			if it.collapsible {
				trailing = it.width
			}
			lastCollapsible = it.collapsible
		case itemOpen:
			child := p.box(it.box)
			padding, border, margin, _ := edgesOf(child, 0)
			w := padding.Left + border.Left + margin.Left
			line += w
			word += w
		case itemClose:
			child := p.box(it.box)
			padding, border, margin, _ := edgesOf(child, 0)
			w := padding.Right + border.Right + margin.Right
			line += w
			word += w
		case itemAtomic, itemFloat:
			alo, apref := p.outerIntrinsic(it.box)
			if it.wraps || it.kind == itemFloat {
				lo = math.Max(lo, word)
				word = 0
				lo = math.Max(lo, alo)
			} else {
				word += alo
			}
			line += apref
			trailing, lastCollapsible = 0, false
		case itemBreak:
			endLine()
		}
	}
	endLine()
	indent, _ := lengthOnly(b.Style.Text.Indent)
	return lo, math.Max(0, pref+indent)
}

// flexIntrinsic sums the items of a row container and takes the widest
// item of a column container.
func (p *pass) flexIntrinsic(b *boxtree.Box) (lo, pref float64) {
	row := b.Style.FlexDirection() == style.FlexDirectionRow || b.Style.FlexDirection() == style.FlexDirectionRowReverse
	wraps := b.Style.FlexWrap() != style.FlexNoWrap
	for _, c := range b.Children {
		if p.box(c).IsOutOfFlow() {
			continue
		}
		clo, cpref := p.outerIntrinsic(c)
		switch {
		case !row:
			lo, pref = math.Max(lo, clo), math.Max(pref, cpref)
		case wraps:
			lo, pref = math.Max(lo, clo), pref+cpref
		default:
			lo, pref = lo+clo, pref+cpref
		}
	}
	return lo, pref
}
