// internal/browser/layout/inline.go
package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

const epsilon = 1e-6

type itemKind int

const (
	itemWord itemKind = iota
	itemSpace
	itemOpen
	itemClose
	itemAtomic
	itemBreak
	itemFloat
	itemAbsolute
)

// item is one unit of inline content.
type item struct {
	kind  itemKind
	box   boxtree.BoxID
	text  string
	width float64
	// collapsible spaces vanish at the start and end of a line.
	collapsible bool
	// wraps is set on spaces and atomic inlines next to which a line may break.
	wraps bool
}

// hasInlineContent reports block containers whose children are laid out in lines.
func (p *pass) hasInlineContent(b *boxtree.Box) bool {
	for _, c := range b.Children {
		if p.box(c).IsInlineLevel() {
			return true
		}
	}
	return false
}

// collectItems flattens the inline-level descendants of b.
func (p *pass) collectItems(b *boxtree.Box, items []item) []item {
	for _, c := range b.Children {
		child := p.box(c)
		switch {
		case child.Kind == boxtree.KindAbsoluteOrFixed:
			items = append(items, item{kind: itemAbsolute, box: c})
		case child.Kind == boxtree.KindFloat:
			items = append(items, item{kind: itemFloat, box: c})
		case child.Break:
			items = append(items, item{kind: itemBreak, box: c})
		case child.Kind == boxtree.KindText:
			items = p.textItems(child, items)
		case child.IsAtomicInline():
			items = append(items, item{kind: itemAtomic, box: c, wraps: boxtree.Wraps(b.Style.WhiteSpace())})
		default:
			items = append(items, item{kind: itemOpen, box: c})
			items = p.collectItems(child, items)
			items = append(items, item{kind: itemClose, box: c})
		}
	}
	return items
}

func spacing(v properties.Value) float64 {
	if v.Type == properties.TypeLength {
		return v.Px()
	}
	return 0
}

// textItems splits the text of a text box into words, spaces and forced breaks.
func (p *pass) textItems(b *boxtree.Box, items []item) []item {
	ws := b.Style.WhiteSpace()
	wraps := boxtree.Wraps(ws)
	collapsible := !boxtree.PreservesSpaces(ws)
	newlines := boxtree.PreservesNewlines(ws)
	face := FaceOf(b.Style)
	letter := spacing(b.Style.Text.LetterSpacing)
	word := spacing(b.Style.Text.WordSpacing)
	space := p.metrics.Measure(" ", face) + letter + word

	text := b.Text
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		switch {
		case r == '\n' && newlines:
			items = append(items, item{kind: itemBreak, box: b.ID})
			text = text[size:]
		case r == ' ' || r == '\t' || r == '\n':
			n := 1
			if r == '\t' && !collapsible {
				n = 8
			}
			items = append(items, item{kind: itemSpace, box: b.ID, text: " ", width: float64(n) * space, collapsible: collapsible, wraps: wraps})
			text = text[size:]
		default:
			end := strings.IndexAny(text, " \t\n")
			if end < 0 {
				end = len(text)
			}
			w := text[:end]
			width := p.metrics.Measure(w, face) + letter*float64(utf8.RuneCountInString(w))
			items = append(items, item{kind: itemWord, box: b.ID, text: w, width: width})
			text = text[end:]
		}
	}
	return items
}

// chunkEnd returns the end of the unbreakable run of items starting at i.
func chunkEnd(items []item, i int) int {
	for k := i; k < len(items); k++ {
		switch it := items[k]; it.kind {
		case itemFloat, itemAbsolute, itemBreak:
			return k
		case itemAtomic:
			if k == i {
				return k + 1
			}
			if it.wraps {
				return k
			}
		case itemSpace:
			if it.wraps {
				return k + 1
			}
		}
	}
	return len(items)
}

// fitWidth is the width a chunk needs on a line. Trailing spaces hang and
// leading collapsible spaces vanish at the start of a line.
func fitWidth(chunk []item, lineStart bool) float64 {
	end := len(chunk)
	for end > 0 && (chunk[end-1].kind == itemSpace || chunk[end-1].kind == itemClose) {
		if chunk[end-1].kind == itemSpace {
			chunk = chunk[:end-1]
		}
		end--
	}
	w := 0.0
	for i, it := range chunk {
		if lineStart && i == 0 && it.kind == itemSpace && it.collapsible {
			continue
		}
		w += it.width
	}
	return w
}

type openBox struct {
	id         boxtree.BoxID
	shift      float64
	relX, relY float64
	edge       string
}

type placedItem struct {
	item
	x          float64
	shift      float64
	relX, relY float64
	edge       string
	// style is the style the item's glyphs and strut use.
	style *style.ComputedValues
}

// lineBuilder breaks the inline content of one block container into lines.
type lineBuilder struct {
	p         *pass
	container *boxtree.Box
	fl        *floatList
	cur       *Cursor
	content   boxtree.Rect
	strut     float64
	indent    float64

	y, left, width, x float64
	items             []placedItem
	first             bool
	canBreak          bool
	stack             []openBox
	lineStack         []openBox
	deferred          []boxtree.BoxID
	lines             []boxtree.LineBox
}

// layoutInline lays out the inline content of a block container in line
// boxes, starting at the cursor.
func (p *pass) layoutInline(id boxtree.BoxID, cur *Cursor, fl *floatList) {
	b := p.box(id)
	lb := &lineBuilder{
		p:         p,
		container: b,
		fl:        fl,
		cur:       cur,
		content:   b.Layout.Content,
		strut:     b.Style.LineHeight(),
		indent:    finite(b.Style.Text.Indent.ResolveOr(b.Layout.Content.Width, 0)),
		first:     true,
	}
	items := p.collectItems(b, nil)
	for i := range items {
		if items[i].kind == itemAtomic {
			p.layoutAtomic(items[i].box, lb.content.Width)
			items[i].width = p.box(items[i].box).Layout.MarginBox().Width
		}
	}
	lb.run(items)
	b.Layout.Lines = lb.lines
	if len(lb.lines) > 0 {
		b.Layout.Baseline = lb.lines[0].Baseline
	}
	p.finishInlineBoxes(b)
}

// layoutAtomic lays out an inline-block, inline table or replaced inline
// with its margin box at the origin.
func (p *pass) layoutAtomic(id boxtree.BoxID, cbWidth float64) {
	b := p.box(id)
	setContaining(b, cbWidth, 0, false)
	width := p.shrinkToFitWidth(b, cbWidth)
	d := b.Layout.Dimensions
	p.layoutIndependent(id, d.Margin.Left+d.Border.Left+d.Padding.Left, d.Margin.Top+d.Border.Top+d.Padding.Top, width, 0, false)
}

func (lb *lineBuilder) run(items []item) {
	lb.startLine()
	for i := 0; i < len(items); {
		switch it := items[i]; it.kind {
		case itemFloat:
			lb.float(it.box)
			i++
			continue
		case itemAbsolute:
			l := &lb.p.box(it.box).Layout
			l.StaticX, l.StaticY = lb.x, lb.y
			i++
			continue
		case itemBreak:
			lb.place(it)
			lb.endLine(true)
			lb.startLine()
			i++
			continue
		}
		j := chunkEnd(items, i)
		chunk := items[i:j]
		empty := !lb.hasInk()
		if !empty && lb.canBreak && lb.x+fitWidth(chunk, false) > lb.left+lb.width+epsilon {
			lb.endLine(false)
			lb.startLine()
			empty = true
		}
		if empty {
			lb.avoidFloats(fitWidth(chunk, true))
		}
		for _, it := range chunk {
			lb.place(it)
		}
		last := chunk[len(chunk)-1]
		lb.canBreak = last.wraps && (last.kind == itemSpace || last.kind == itemAtomic) ||
			j < len(items) && items[j].kind == itemAtomic && items[j].wraps
		i = j
	}
	lb.endLine(true)
}

func (lb *lineBuilder) startLine() {
	lb.y = lb.cur.Y + lb.cur.TotalMargin()
	lb.items = lb.items[:0]
	lb.lineStack = append(lb.lineStack[:0], lb.stack...)
	lb.canBreak = false
	lb.setEdges()
	deferred := lb.deferred
	lb.deferred = nil
	for _, f := range deferred {
		lb.placeFloat(f)
	}
}

func (lb *lineBuilder) setEdges() {
	left, right := lb.fl.edges(lb.y, lb.strut, lb.content.X, lb.content.Width)
	lb.left, lb.width = left, math.Max(0, right-left)
	lb.x = lb.left
	if lb.first {
		lb.x += lb.indent
	}
	for i := range lb.items {
		lb.items[i].x = lb.x
		lb.x += lb.items[i].width
	}
}

// avoidFloats moves an empty line down past floats until w fits.
func (lb *lineBuilder) avoidFloats(w float64) {
	for w > lb.width+epsilon && lb.fl.intrudes(lb.y, lb.strut, lb.content.X, lb.content.Width) {
		next := lb.fl.nextBottom(lb.y)
		if math.IsInf(next, 1) {
			return
		}
		lb.y = next
		lb.setEdges()
	}
}

// hasInk reports whether the line holds anything that must be rendered.
func (lb *lineBuilder) hasInk() bool {
	for _, it := range lb.items {
		switch it.kind {
		case itemWord, itemAtomic, itemBreak:
			return true
		case itemSpace:
			if !it.collapsible {
				return true
			}
		}
	}
	return false
}

func (lb *lineBuilder) parentStyle() (*style.ComputedValues, openBox) {
	if n := len(lb.stack); n > 0 {
		top := lb.stack[n-1]
		return lb.p.box(top.id).Style, top
	}
	return lb.container.Style, openBox{id: boxtree.NoBox}
}

func (lb *lineBuilder) place(it item) {
	parent, top := lb.parentStyle()
	pi := placedItem{item: it, x: lb.x, shift: top.shift, relX: top.relX, relY: top.relY, edge: top.edge, style: parent}
	switch it.kind {
	case itemSpace:
		if it.collapsible && lb.skipSpace() {
			return
		}
		pi.style = lb.p.box(it.box).Style
	case itemWord, itemBreak:
		pi.style = lb.p.box(it.box).Style
	case itemOpen:
		b := lb.p.box(it.box)
		resolveEdges(b, lb.content.Width)
		setContaining(b, lb.content.Width, 0, false)
		pi.width = b.Layout.Margin.Left + b.Layout.Border.Left + b.Layout.Padding.Left
		above, below := lb.p.extents(b.Style)
		shift, edge := lb.p.verticalShift(b.Style, parent, above, below)
		dx, dy := relativeOffset(b)
		b.Layout.RelativeX, b.Layout.RelativeY = dx, dy
		ob := openBox{id: it.box, shift: top.shift + shift, relX: top.relX + dx, relY: top.relY + dy, edge: edge}
		if edge == "" {
			ob.edge = top.edge
		}
		lb.stack = append(lb.stack, ob)
		pi.shift, pi.relX, pi.relY, pi.edge, pi.style = ob.shift, ob.relX, ob.relY, ob.edge, b.Style
	case itemClose:
		b := lb.p.box(it.box)
		pi.width = b.Layout.Margin.Right + b.Layout.Border.Right + b.Layout.Padding.Right
		pi.style = b.Style
		if n := len(lb.stack); n > 0 {
			lb.stack = lb.stack[:n-1]
		}
	case itemAtomic:
		b := lb.p.box(it.box)
		above, below := lb.p.atomicExtents(b)
		shift, edge := lb.p.verticalShift(b.Style, parent, above, below)
		pi.shift += shift
		if edge != "" {
			pi.edge = edge
		}
		pi.style = b.Style
	}
	lb.items = append(lb.items, pi)
	lb.x += pi.width
}

// skipSpace reports whether a collapsible space at the current position
// collapses away: at the start of a line or after another collapsible space.
func (lb *lineBuilder) skipSpace() bool {
	for i := len(lb.items) - 1; i >= 0; i-- {
		switch it := lb.items[i]; it.kind {
		case itemOpen, itemClose:
			continue
		case itemSpace:
			return it.collapsible
		default:
			return false
		}
	}
	return true
}

// float places a float met in the inline content: on the current line when
// it fits, otherwise below it.
func (lb *lineBuilder) float(id boxtree.BoxID) {
	mb := lb.p.measureFloat(id, lb.content)
	if lb.hasInk() && mb.Width > lb.left+lb.width-lb.x+epsilon {
		lb.deferred = append(lb.deferred, id)
		return
	}
	lb.placeFloat(id)
}

func (lb *lineBuilder) placeFloat(id boxtree.BoxID) {
	lb.p.placeFloat(id, lb.fl, lb.content, lb.y)
	lb.setEdges()
}

// extents returns the space a strut of style cv takes above and below its
// baseline, half-leading included.
func (p *pass) extents(cv *style.ComputedValues) (above, below float64) {
	a, d := p.metrics.Extents(FaceOf(cv))
	half := (cv.LineHeight() - (a + d)) / 2
	return a + half, d + half
}

// atomicExtents returns the extent of an atomic inline's margin box around
// its baseline: the last line box inside it, or its bottom margin edge.
func (p *pass) atomicExtents(b *boxtree.Box) (above, below float64) {
	mb := b.Layout.MarginBox()
	baseline := mb.Bottom()
	if b.Kind != boxtree.KindReplaced {
		if y, ok := p.lastBaseline(b.ID); ok {
			baseline = y
		}
	}
	return baseline - mb.Y, mb.Bottom() - baseline
}

// verticalShift returns how far vertical-align raises a box above its
// parent's baseline, or the line edge it aligns to for top and bottom.
func (p *pass) verticalShift(cv, parent *style.ComputedValues, above, below float64) (float64, string) {
	va := cv.Box.VerticalAlign
	if va.Type == properties.TypeLength {
		return va.Px(), ""
	}
	size := parent.FontSize()
	switch va.Keyword {
	case "sub":
		return -size / 5, ""
	case "super":
		return size / 3, ""
	case "text-top":
		pa, _ := p.metrics.Extents(FaceOf(parent))
		return pa - above, ""
	case "text-bottom":
		_, pd := p.metrics.Extents(FaceOf(parent))
		return below - pd, ""
	case "middle":
		return size/4 - (above-below)/2, ""
	case "top", "bottom":
		return 0, va.Keyword
	}
	return 0, ""
}

// endLine closes the current line. Lines holding nothing to render take no
// space unless a forced break ends them.
func (lb *lineBuilder) endLine(forced bool) {
	brk := false
	for _, it := range lb.items {
		brk = brk || it.kind == itemBreak
	}
	// Trailing collapsible spaces hang.
	for i := len(lb.items) - 1; i >= 0; i-- {
		it := &lb.items[i]
		if it.kind == itemOpen || it.kind == itemClose {
			continue
		}
		if it.kind != itemSpace || !it.collapsible {
			break
		}
		it.width = 0
	}
	if !lb.hasInk() && !lb.hasEdges() {
		lb.items = lb.items[:0]
		return
	}

	lb.setEdges()
	height, baseline := lb.verticalMetrics()
	lb.align(forced || brk)

	line := boxtree.LineBox{
		Rect:     boxtree.Rect{X: lb.left, Y: lb.y, Width: lb.width, Height: height},
		Baseline: baseline,
	}
	line.Fragments = lb.fragments(line)
	lb.lines = append(lb.lines, line)

	lb.cur.ApplyMargin()
	lb.cur.Y = lb.y + height
	lb.first = false
	lb.items = lb.items[:0]
}

// hasEdges reports inline boxes on the line with horizontal padding,
// borders or margins, which keep an otherwise empty line.
func (lb *lineBuilder) hasEdges() bool {
	for _, it := range lb.items {
		if (it.kind == itemOpen || it.kind == itemClose) && it.width > 0 {
			return true
		}
	}
	return false
}

// itemExtents returns the space an item takes above and below its own baseline.
func (lb *lineBuilder) itemExtents(it placedItem) (above, below float64) {
	if it.kind == itemAtomic {
		return lb.p.atomicExtents(lb.p.box(it.box))
	}
	return lb.p.extents(it.style)
}

// verticalMetrics computes the line height and baseline from the strut and
// every item on the line (CSS 2.1 §10.8).
func (lb *lineBuilder) verticalMetrics() (height, baseline float64) {
	above, below := lb.p.extents(lb.container.Style)
	edgeHeight := 0.0
	for _, it := range lb.items {
		a, b := lb.itemExtents(it)
		if it.edge != "" {
			edgeHeight = math.Max(edgeHeight, a+b)
			continue
		}
		above = math.Max(above, it.shift+a)
		below = math.Max(below, b-it.shift)
	}
	height = math.Max(above+below, edgeHeight)
	return clampSize(height), lb.y + above
}

// align applies text-align to the items of the line.
func (lb *lineBuilder) align(last bool) {
	end, first := lb.left, -1
	for i, it := range lb.items {
		if it.kind == itemSpace && it.width == 0 {
			continue
		}
		if it.kind != itemOpen && it.kind != itemClose && first < 0 {
			first = i
		}
		end = math.Max(end, it.x+it.width)
	}
	free := lb.left + lb.width - end
	if free <= 0 {
		return
	}
	rtl := lb.container.Style.IsRTL()
	mode := lb.container.Style.Text.Align.Keyword
	switch mode {
	case "start":
		mode = "left"
		if rtl {
			mode = "right"
		}
	case "end":
		mode = "right"
		if rtl {
			mode = "left"
		}
	case "justify":
		if last {
			mode = "left"
			if rtl {
				mode = "right"
			}
		}
	}
	switch mode {
	case "right":
		lb.shiftItems(0, free)
	case "center":
		lb.shiftItems(0, free/2)
	case "justify":
		lb.justify(first, free)
	}
}

func (lb *lineBuilder) shiftItems(from int, dx float64) {
	for i := from; i < len(lb.items); i++ {
		lb.items[i].x += dx
	}
}

// justify spreads free space over the spaces between the first and last word.
func (lb *lineBuilder) justify(first int, free float64) {
	if first < 0 {
		return
	}
	var spaces []int
	for i := first; i < len(lb.items); i++ {
		if it := lb.items[i]; it.kind == itemSpace && it.width > 0 {
			spaces = append(spaces, i)
		}
	}
	if len(spaces) == 0 {
		return
	}
	extra := free / float64(len(spaces))
	for _, i := range spaces {
		lb.items[i].width += extra
		lb.shiftItems(i+1, extra)
	}
}

// fragments turns the placed items into fragments with final coordinates,
// moving atomic inlines into place.
func (lb *lineBuilder) fragments(line boxtree.LineBox) []boxtree.Fragment {
	p := lb.p
	justified := lb.container.Style.Text.Align.Is("justify")
	var frags []boxtree.Fragment
	open := map[boxtree.BoxID]int{}

	baselineOf := func(it placedItem, a, b float64) float64 {
		switch it.edge {
		case "top":
			return line.Y + a
		case "bottom":
			return line.Bottom() - b
		}
		return line.Baseline - it.shift
	}
	boxFragment := func(id boxtree.BoxID, x, shift, relX, relY float64, edge string) {
		b := p.box(id)
		a, d := p.metrics.Extents(FaceOf(b.Style))
		above, below := p.extents(b.Style)
		base := baselineOf(placedItem{shift: shift, edge: edge}, above, below)
		l := b.Layout
		open[id] = len(frags)
		frags = append(frags, boxtree.Fragment{
			Box: id,
			Rect: boxtree.Rect{
				X:      x + relX,
				Y:      base - a - l.Padding.Top - l.Border.Top + relY,
				Height: a + d + l.Padding.Vertical() + l.Border.Vertical(),
			},
			Baseline: base + relY,
		})
	}
	closeFragment := func(id boxtree.BoxID, x float64) {
		if i, ok := open[id]; ok {
			f := &frags[i]
			f.Rect.Width = math.Max(0, x-f.Rect.X)
			delete(open, id)
		}
	}

	start := lb.left
	if len(lb.items) > 0 {
		start = lb.items[0].x
	}
	for _, ob := range lb.lineStack {
		boxFragment(ob.id, start, ob.shift, ob.relX, ob.relY, ob.edge)
	}
	lineEnd := lb.left
	for _, it := range lb.items {
		lineEnd = math.Max(lineEnd, it.x+it.width)
		switch it.kind {
		case itemOpen:
			b := p.box(it.box)
			boxFragment(it.box, it.x+b.Layout.Margin.Left, it.shift, it.relX, it.relY, it.edge)
		case itemClose:
			b := p.box(it.box)
			closeFragment(it.box, it.x+it.width-b.Layout.Margin.Right+it.relX)
		case itemWord, itemSpace:
			if it.width == 0 && it.kind == itemSpace {
				continue
			}
			a, d := p.metrics.Extents(FaceOf(it.style))
			above, below := p.extents(it.style)
			base := baselineOf(it, above, below) + it.relY
			x := it.x + it.relX
			if n := len(frags); n > 0 && !justified {
				if prev := &frags[n-1]; prev.Box == it.box && math.Abs(prev.Rect.Right()-x) < epsilon && prev.Baseline == base {
					prev.Text += it.text
					prev.Rect.Width += it.width
					continue
				}
			}
			frags = append(frags, boxtree.Fragment{
				Box:      it.box,
				Text:     it.text,
				Rect:     boxtree.Rect{X: x, Y: base - a, Width: it.width, Height: a + d},
				Baseline: base,
			})
		case itemAtomic:
			b := p.box(it.box)
			above, below := p.atomicExtents(b)
			top := baselineOf(it, above, below) - above
			mb := b.Layout.MarginBox()
			l := b.Layout
			p.translate(it.box, it.x+it.relX+l.RelativeX-mb.X, top+it.relY+l.RelativeY-mb.Y)
			frags = append(frags, boxtree.Fragment{
				Box:      it.box,
				Rect:     b.Layout.BorderBox(),
				Baseline: top + above + it.relY,
			})
		case itemBreak:
			b := p.box(it.box)
			if b.Break {
				b.Layout.Content = boxtree.Rect{X: it.x, Y: line.Y, Height: line.Height}
			}
		}
	}
	for id, i := range open {
		ob := frags[i]
		closeFragment(id, math.Max(lineEnd, ob.Rect.X))
	}
	return frags
}

// finishInlineBoxes gives inline element and text boxes the bounding box of
// their fragments, then lays out the positioned boxes inline boxes contain.
func (p *pass) finishInlineBoxes(b *boxtree.Box) {
	bounds := map[boxtree.BoxID]boxtree.Rect{}
	for _, line := range b.Layout.Lines {
		for _, f := range line.Fragments {
			if r, ok := bounds[f.Box]; ok {
				bounds[f.Box] = union(r, f.Rect)
			} else {
				bounds[f.Box] = f.Rect
			}
		}
	}
	var walk func(id boxtree.BoxID)
	walk = func(id boxtree.BoxID) {
		for _, c := range p.box(id).Children {
			child := p.box(c)
			if child.IsOutOfFlow() || child.IsAtomicInline() || child.Break {
				continue
			}
			if r, ok := bounds[c]; ok {
				l := &child.Layout
				if child.Kind == boxtree.KindText {
					l.Content = r
				} else {
					l.Content = boxtree.Rect{
						X:      r.X + l.Border.Left + l.Padding.Left,
						Y:      r.Y + l.Border.Top + l.Padding.Top,
						Width:  math.Max(0, r.Width-l.Border.Horizontal()-l.Padding.Horizontal()),
						Height: math.Max(0, r.Height-l.Border.Vertical()-l.Padding.Vertical()),
					}
				}
			}
			if child.Kind != boxtree.KindText {
				walk(c)
				for _, pos := range child.Positioned {
					p.layoutAbsolute(pos, child.Layout.PaddingBox())
				}
			}
		}
	}
	walk(b.ID)
}

func union(a, b boxtree.Rect) boxtree.Rect {
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	return boxtree.Rect{X: x, Y: y, Width: math.Max(a.Right(), b.Right()) - x, Height: math.Max(a.Bottom(), b.Bottom()) - y}
}
