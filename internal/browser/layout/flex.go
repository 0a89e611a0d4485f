// internal/browser/layout/flex.go
package layout

import (
	"math"
	"sort"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// flexItem tracks one item through the flex layout algorithm. Main sizes
// are content-box sizes; outer is the margin, border and padding on the
// main axis.
type flexItem struct {
	id           boxtree.BoxID
	base, hypo   float64
	target       float64
	lo, hi       float64
	outer        float64
	grow, shrink float64
	frozen       bool
	// cross is the margin-box cross size and baseline the distance from the
	// cross start of the margin box to the first baseline.
	cross    float64
	baseline float64
	// mainPos and crossPos locate the margin box inside its line.
	mainPos, crossPos float64
}

func (it *flexItem) outerHypo() float64   { return it.hypo + it.outer }
func (it *flexItem) outerTarget() float64 { return it.target + it.outer }

type flexLine struct {
	items []*flexItem
	main  float64
	cross float64
	start float64
}

// flexContext is the per-container state of a flex layout.
type flexContext struct {
	p         *pass
	b         *boxtree.Box
	main      boxtree.Axis
	reverse   bool
	wrap      style.FlexWrap
	mainSpace float64
	// crossSpace is the definite cross size of the container, NaN when it
	// depends on the content.
	crossSpace float64
}

// layoutFlex lays out the items of a flex container whose content box
// position and width are set, and returns its content height.
func (p *pass) layoutFlex(id boxtree.BoxID) float64 {
	b := p.box(id)
	d := &b.Layout.Dimensions
	fc := &flexContext{p: p, b: b, wrap: b.Style.FlexWrap(), crossSpace: math.NaN()}

	height, heightDefinite := p.heights[id]
	switch b.Style.FlexDirection() {
	case style.FlexDirectionRow, style.FlexDirectionRowReverse:
		fc.main = boxtree.Horizontal
		fc.mainSpace = d.Content.Width
		if heightDefinite {
			fc.crossSpace = height
		}
	default:
		fc.main = boxtree.Vertical
		fc.mainSpace = math.Inf(1)
		if heightDefinite {
			fc.mainSpace = height
		}
		fc.crossSpace = d.Content.Width
	}
	dir := b.Style.FlexDirection()
	fc.reverse = dir == style.FlexDirectionRowReverse || dir == style.FlexDirectionColumnReverse

	items := fc.collect()
	if len(items) == 0 {
		if heightDefinite {
			return height
		}
		return 0
	}
	lines := fc.lines(items)
	for _, line := range lines {
		fc.resolveFlexibleLengths(line)
	}
	if math.IsInf(fc.mainSpace, 1) {
		fc.mainSpace = 0
		for _, line := range lines {
			used := 0.0
			for _, it := range line.items {
				used += it.outerTarget()
			}
			fc.mainSpace = math.Max(fc.mainSpace, used)
		}
	}
	for _, line := range lines {
		fc.crossSizes(line)
	}
	total := fc.alignLines(lines)
	for _, line := range lines {
		fc.alignItems(line)
		fc.justify(line)
	}
	fc.place(lines, total)

	if fc.main == boxtree.Horizontal {
		if heightDefinite {
			return height
		}
		return total
	}
	return fc.mainSpace
}

// collect builds the flex items in order-modified document order and
// records the static position of absolutely positioned children.
func (fc *flexContext) collect() []*flexItem {
	p, b := fc.p, fc.b
	content := b.Layout.Content
	cbHeight, cbDefinite := p.heights[b.ID]

	var children []boxtree.BoxID
	for _, c := range b.Children {
		child := p.box(c)
		if child.IsOutOfFlow() {
			child.Layout.StaticX, child.Layout.StaticY = content.X, content.Y
			continue
		}
		children = append(children, c)
	}
	sort.SliceStable(children, func(i, j int) bool {
		return p.box(children[i]).Style.Flex.Order.Int() < p.box(children[j]).Style.Flex.Order.Int()
	})

	items := make([]*flexItem, 0, len(children))
	for _, c := range children {
		child := p.box(c)
		setContaining(child, content.Width, cbHeight, cbDefinite)
		resolveEdges(child, content.Width)
		it := &flexItem{
			id:     c,
			outer:  child.Layout.MainStatic(fc.main),
			grow:   math.Max(0, child.Style.Flex.Grow.ResolveOr(0, 0)),
			shrink: math.Max(0, child.Style.Flex.Shrink.ResolveOr(0, 1)),
		}
		it.base = fc.baseSize(child)
		if fc.main == boxtree.Horizontal {
			it.lo, it.hi = widthLimits(child, content.Width)
		} else {
			it.lo, it.hi = heightLimits(child, cbHeight, cbDefinite)
		}
		it.hypo = clampTo(it.base, it.lo, it.hi)
		items = append(items, it)
	}
	return items
}

// baseSize determines the flex base size of an item: flex-basis, then the
// main size property, then the size of the content.
func (fc *flexContext) baseSize(child *boxtree.Box) float64 {
	p := fc.p
	basis := child.Style.Flex.Basis
	mainDefinite := !math.IsInf(fc.mainSpace, 1)
	if !basis.IsAuto() && !basis.Is("content") && (basis.Type != properties.TypePercentage || mainDefinite) {
		if n, ok := basis.Resolve(fc.mainSpace); ok {
			if child.Style.BoxSizing() == style.BorderBox {
				l := child.Layout
				if fc.main == boxtree.Horizontal {
					n -= l.Padding.Horizontal() + l.Border.Horizontal()
				} else {
					n -= l.Padding.Vertical() + l.Border.Vertical()
				}
			}
			return clampSize(n)
		}
	}
	cbWidth := fc.b.Layout.Content.Width
	if fc.main == boxtree.Horizontal {
		if child.Kind == boxtree.KindReplaced {
			w, _ := replacedSize(child, cbWidth, fc.crossSpace, !math.IsNaN(fc.crossSpace))
			return w
		}
		if w, ok := specifiedWidth(child, cbWidth); ok {
			return w
		}
		if isTable(child) {
			return p.tableWidth(child.ID, cbWidth-child.Layout.Margin.Horizontal())
		}
		_, pref := p.intrinsic(child.ID)
		return pref
	}
	cbHeight, cbDefinite := p.heights[fc.b.ID]
	if child.Kind == boxtree.KindReplaced {
		_, h := replacedSize(child, cbWidth, cbHeight, cbDefinite)
		return h
	}
	if h, ok := specifiedHeight(child, cbHeight, cbDefinite); ok {
		return h
	}
	return fc.measure(child.ID, fc.columnWidth(child, child.Style.AlignSelf(fc.b.Style)), 0, false)
}

// columnWidth is the content width of an item of a column container.
func (fc *flexContext) columnWidth(child *boxtree.Box, align style.AlignItems) float64 {
	p := fc.p
	cbWidth := fc.b.Layout.Content.Width
	l := child.Layout
	avail := cbWidth - l.Margin.Horizontal() - l.Padding.Horizontal() - l.Border.Horizontal()
	var w float64
	switch {
	case child.Kind == boxtree.KindReplaced:
		w, _ = replacedSize(child, cbWidth, 0, false)
	case isTable(child):
		w = p.tableWidth(child.ID, cbWidth-l.Margin.Horizontal())
	default:
		if sw, ok := specifiedWidth(child, cbWidth); ok {
			w = sw
		} else if align == style.AlignStretch && !child.Style.Margin[style.Left].IsAuto() && !child.Style.Margin[style.Right].IsAuto() {
			w = avail
		} else {
			lo, pref := p.intrinsic(child.ID)
			w = math.Min(math.Max(lo, avail), pref)
		}
	}
	lo, hi := widthLimits(child, cbWidth)
	return clampSize(clampTo(w, lo, hi))
}

// measure lays out an item with its margin box at the origin and returns
// its content height.
func (fc *flexContext) measure(id boxtree.BoxID, width, height float64, fixed bool) float64 {
	l := fc.p.box(id).Layout
	return fc.p.layoutIndependent(id, l.Margin.Left+l.Border.Left+l.Padding.Left, l.Margin.Top+l.Border.Top+l.Padding.Top, width, height, fixed)
}

// lines collects items into flex lines.
func (fc *flexContext) lines(items []*flexItem) []*flexLine {
	if fc.wrap == style.FlexNoWrap {
		line := &flexLine{items: items}
		for _, it := range items {
			line.main += it.outerHypo()
		}
		return []*flexLine{line}
	}
	var lines []*flexLine
	line := &flexLine{}
	for _, it := range items {
		if len(line.items) > 0 && line.main+it.outerHypo() > fc.mainSpace+epsilon {
			lines = append(lines, line)
			line = &flexLine{}
		}
		line.items = append(line.items, it)
		line.main += it.outerHypo()
	}
	return append(lines, line)
}

// resolveFlexibleLengths grows or shrinks the items of a line to fill the
// main space, freezing items that hit their min or max size.
func (fc *flexContext) resolveFlexibleLengths(line *flexLine) {
	growing := line.main < fc.mainSpace
	for _, it := range line.items {
		it.target = it.hypo
		it.frozen = math.IsInf(fc.mainSpace, 1) ||
			growing && (it.grow == 0 || it.base > it.hypo) ||
			!growing && (it.shrink == 0 || it.base < it.hypo)
	}

	for {
		free := fc.mainSpace
		var factors float64
		active := 0
		for _, it := range line.items {
			if it.frozen {
				free -= it.outerTarget()
				continue
			}
			free -= it.base + it.outer
			active++
			if growing {
				factors += it.grow
			} else {
				factors += it.shrink * it.base
			}
		}
		if active == 0 {
			return
		}

		violation := 0.0
		for _, it := range line.items {
			if it.frozen {
				continue
			}
			it.target = it.base
			if factors > 0 {
				if growing {
					it.target += free * it.grow / factors
				} else {
					it.target += free * it.shrink * it.base / factors
				}
			}
			clamped := math.Max(0, clampTo(it.target, it.lo, it.hi))
			violation += clamped - it.target
			it.target = clamped
		}

		for _, it := range line.items {
			if it.frozen {
				continue
			}
			switch {
			case math.Abs(violation) < epsilon:
				it.frozen = true
			case violation > 0 && it.target <= it.lo+epsilon:
				it.frozen = true
			case violation < 0 && it.target >= it.hi-epsilon:
				it.frozen = true
			}
		}
	}
}

// crossSizes lays out each item at its main size to find its cross size,
// and sets the line's cross size.
func (fc *flexContext) crossSizes(line *flexLine) {
	p := fc.p
	var above, below float64
	for _, it := range line.items {
		child := p.box(it.id)
		if fc.main == boxtree.Horizontal {
			fc.measure(it.id, it.target, 0, false)
		} else {
			fc.measure(it.id, fc.columnWidth(child, child.Style.AlignSelf(fc.b.Style)), it.target, true)
		}
		mb := child.Layout.MarginBox()
		it.cross = mb.Height
		if fc.main == boxtree.Vertical {
			it.cross = mb.Width
		}
		if fc.main == boxtree.Horizontal && child.Style.AlignSelf(fc.b.Style) == style.AlignBaseline {
			baseline, ok := p.firstBaseline(it.id)
			if !ok {
				baseline = child.Layout.BorderBox().Bottom()
			}
			it.baseline = baseline - mb.Y
			above = math.Max(above, it.baseline)
			below = math.Max(below, it.cross-it.baseline)
		}
		line.cross = math.Max(line.cross, it.cross)
	}
	line.cross = math.Max(line.cross, above+below)
	if fc.wrap == style.FlexNoWrap && !math.IsNaN(fc.crossSpace) {
		line.cross = fc.crossSpace
	}
}

// alignLines distributes the lines over the cross axis following
// align-content and returns the cross size they take.
func (fc *flexContext) alignLines(lines []*flexLine) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.cross
	}
	space := fc.crossSpace
	if math.IsNaN(space) {
		space = total
	}
	var start, gap float64
	if fc.wrap != style.FlexNoWrap {
		mode := fc.b.Style.AlignContent()
		if mode == style.AlignContentStretch && space > total {
			extra := (space - total) / float64(len(lines))
			for _, line := range lines {
				line.cross += extra
			}
			total = space
		}
		start, gap = alignmentOffsets(len(lines), space-total, contentBehavior(mode))
	}
	pos := start
	for _, line := range lines {
		line.start = pos
		pos += line.cross + gap
	}
	return space
}

// alignItems places each item inside its line following align-self,
// stretching auto-sized items to the line.
func (fc *flexContext) alignItems(line *flexLine) {
	p := fc.p
	maxBaseline := 0.0
	for _, it := range line.items {
		if p.box(it.id).Style.AlignSelf(fc.b.Style) == style.AlignBaseline {
			maxBaseline = math.Max(maxBaseline, it.baseline)
		}
	}
	for _, it := range line.items {
		child := p.box(it.id)
		align := child.Style.AlignSelf(fc.b.Style)
		free := line.cross - it.cross
		switch align {
		case style.AlignStretch:
			if fc.stretch(child, it, line.cross) {
				it.cross = line.cross
			}
			it.crossPos = 0
		case style.AlignFlexEnd:
			it.crossPos = free
		case style.AlignCenter:
			it.crossPos = free / 2
		case style.AlignBaseline:
			it.crossPos = maxBaseline - it.baseline
		default:
			it.crossPos = 0
		}
		if fc.wrap == style.FlexWrapReverse {
			it.crossPos = line.cross - it.crossPos - it.cross
		}
	}
}

// stretch re-lays out an item whose cross size is auto at the line's cross size.
func (fc *flexContext) stretch(child *boxtree.Box, it *flexItem, lineCross float64) bool {
	l := child.Layout
	if fc.main == boxtree.Horizontal {
		if !child.Style.Box.Height.IsAuto() || child.Style.Margin[style.Top].IsAuto() || child.Style.Margin[style.Bottom].IsAuto() {
			return false
		}
		h := lineCross - l.Margin.Vertical() - l.Padding.Vertical() - l.Border.Vertical()
		cbHeight, cbDefinite := fc.p.heights[fc.b.ID]
		lo, hi := heightLimits(child, cbHeight, cbDefinite)
		fc.measure(it.id, it.target, clampSize(clampTo(h, lo, hi)), true)
		return true
	}
	// Column items were laid out at the stretched width already.
	return child.Style.Box.Width.IsAuto()
}

// justify positions the items of a line along the main axis.
func (fc *flexContext) justify(line *flexLine) {
	used := 0.0
	for _, it := range line.items {
		used += it.outerTarget()
	}
	start, gap := alignmentOffsets(len(line.items), fc.mainSpace-used, justifyBehavior(fc.b.Style.JustifyContent()))
	pos := start
	for _, it := range line.items {
		it.mainPos = pos
		if fc.reverse {
			it.mainPos = fc.mainSpace - pos - it.outerTarget()
		}
		pos += it.outerTarget() + gap
	}
}

// place moves every item to its final position in the content box.
func (fc *flexContext) place(lines []*flexLine, crossTotal float64) {
	p := fc.p
	content := fc.b.Layout.Content
	for _, line := range lines {
		lineStart := line.start
		if fc.wrap == style.FlexWrapReverse {
			lineStart = crossTotal - line.start - line.cross
		}
		for _, it := range line.items {
			child := p.box(it.id)
			l := child.Layout
			mb := l.MarginBox()
			var x, y float64
			if fc.main == boxtree.Horizontal {
				x, y = it.mainPos, lineStart+it.crossPos
			} else {
				x, y = lineStart+it.crossPos, it.mainPos
			}
			p.translate(it.id, content.X+x+l.RelativeX-mb.X, content.Y+y+l.RelativeY-mb.Y)
		}
	}
}

// alignBehavior is the distribution shared by justify-content and align-content.
type alignBehavior int

const (
	alignStart alignBehavior = iota
	alignEnd
	alignCenter
	alignBetween
	alignAround
	alignEvenly
)

func justifyBehavior(j style.JustifyContent) alignBehavior {
	switch j {
	case style.JustifyFlexEnd:
		return alignEnd
	case style.JustifyCenter:
		return alignCenter
	case style.JustifySpaceBetween:
		return alignBetween
	case style.JustifySpaceAround:
		return alignAround
	case style.JustifySpaceEvenly:
		return alignEvenly
	}
	return alignStart
}

func contentBehavior(a style.AlignContent) alignBehavior {
	switch a {
	case style.AlignContentFlexEnd:
		return alignEnd
	case style.AlignContentCenter:
		return alignCenter
	case style.AlignContentSpaceBetween:
		return alignBetween
	case style.AlignContentSpaceAround:
		return alignAround
	case style.AlignContentSpaceEvenly:
		return alignEvenly
	}
	return alignStart
}

// alignmentOffsets returns the offset of the first of count items and the
// gap between items for free space distributed by behavior. Negative free
// space overflows at the end except for centering.
func alignmentOffsets(count int, free float64, behavior alignBehavior) (start, gap float64) {
	if free <= epsilon {
		if behavior == alignCenter {
			return free / 2, 0
		}
		if behavior == alignEnd {
			return free, 0
		}
		return 0, 0
	}
	switch behavior {
	case alignEnd:
		return free, 0
	case alignCenter:
		return free / 2, 0
	case alignBetween:
		if count > 1 {
			return 0, free / float64(count-1)
		}
	case alignAround:
		if count > 0 {
			gap = free / float64(count)
			return gap / 2, gap
		}
		return free / 2, 0
	case alignEvenly:
		if count > 0 {
			gap = free / float64(count+1)
			return gap, gap
		}
		return free / 2, 0
	}
	return 0, 0
}
