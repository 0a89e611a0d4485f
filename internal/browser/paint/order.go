// internal/browser/paint/order.go
package paint

import (
	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// ItemKind is what a paint item draws.
type ItemKind int

const (
	// ItemBackground fills the background color and image of Rect.
	ItemBackground ItemKind = iota
	ItemBorder
	ItemText
	// ItemImage draws replaced content into Rect.
	ItemImage
	ItemMarker
	ItemOutline
)

func (k ItemKind) String() string {
	switch k {
	case ItemBackground:
		return "background"
	case ItemBorder:
		return "border"
	case ItemText:
		return "text"
	case ItemImage:
		return "image"
	case ItemMarker:
		return "marker"
	case ItemOutline:
		return "outline"
	}
	return "unknown"
}

// Item is one drawing operation of the paint list.
type Item struct {
	Kind ItemKind
	Box  boxtree.BoxID
	// Rect is the border box for backgrounds, borders and outlines, the
	// content box for images and the fragment box for text.
	Rect boxtree.Rect
	// Border holds the border widths to draw. Inline fragments drop the
	// left or right side where the box continues on another line.
	Border   boxtree.Edges
	Text     string
	Baseline float64
	Opacity  float64
}

// Order flattens the tree into the sequence the boxes paint in
// (CSS 2.1 Appendix E).
func Order(t *boxtree.Tree) []Item {
	sc := Build(t)
	if sc == nil {
		return nil
	}
	o := &orderer{t: t}
	o.layer(sc)
	return o.items
}

type orderer struct {
	t     *boxtree.Tree
	items []Item
}

func (o *orderer) emit(it Item) { o.items = append(o.items, it) }

func visible(b *boxtree.Box) bool {
	v := b.Style.Box.Visibility.Keyword
	return v != "hidden" && v != "collapse"
}

func (o *orderer) layer(sc *StackingContext) {
	root := o.t.Box(sc.Box)
	if !root.IsInlineLevel() || root.IsAtomicInline() {
		o.boxDecorations(root, sc.Opacity)
	}
	for _, c := range sc.Negative {
		o.layer(c)
	}
	for _, id := range sc.Blocks {
		o.boxDecorations(o.t.Box(id), sc.Opacity)
	}
	for _, c := range sc.Floats {
		o.layer(c)
	}
	for _, run := range sc.Inlines {
		o.inlines(sc, run)
	}
	for _, c := range sc.Positioned {
		o.layer(c)
	}
	for _, c := range sc.Positive {
		o.layer(c)
	}
	if sc.Real {
		o.outlines(sc)
	}
}

// boxDecorations emits the background, border, replaced content and list
// marker of a block-level or atomic box.
func (o *orderer) boxDecorations(b *boxtree.Box, opacity float64) {
	if b.Kind == boxtree.KindText || !visible(b) {
		return
	}
	if hideEmptyCell(b) {
		return
	}
	l := b.Layout
	if hasBackground(b) {
		o.emit(Item{Kind: ItemBackground, Box: b.ID, Rect: l.BorderBox(), Opacity: opacity})
	}
	if l.Border != (boxtree.Edges{}) {
		o.emit(Item{Kind: ItemBorder, Box: b.ID, Rect: l.BorderBox(), Border: l.Border, Opacity: opacity})
	}
	if b.Replaced != nil && b.Replaced.Source != "" {
		o.emit(Item{Kind: ItemImage, Box: b.ID, Rect: l.Content, Opacity: opacity})
	}
	if b.Marker != "" || b.MarkerImage != "" {
		o.emit(Item{Kind: ItemMarker, Box: b.ID, Rect: l.MarkerRect, Text: b.Marker, Baseline: l.Baseline, Opacity: opacity})
	}
}

func hasBackground(b *boxtree.Box) bool {
	bg := b.Style.Background
	return (bg.Color.Type == properties.TypeColor && bg.Color.Color.A > 0) || bg.Image.Type == properties.TypeURI
}

// layered reports inline boxes that paint in a layer of their own.
func layered(b *boxtree.Box) bool {
	if b.Kind == boxtree.KindText || !b.IsInlineLevel() || b.IsAtomicInline() {
		return false
	}
	_, ok := creates(b)
	return ok || positioned(b)
}

// hideEmptyCell reports cells with empty-cells: hide and no content.
func hideEmptyCell(b *boxtree.Box) bool {
	if b.Display != style.DisplayTableCell || !b.Style.Table.EmptyCells.Is("hide") {
		return false
	}
	return len(b.Children) == 0
}

// owner returns the nearest layered inline box between id and container,
// or NoBox when there is none.
func (o *orderer) owner(id, container boxtree.BoxID) boxtree.BoxID {
	for b := o.t.Box(id); b != nil && b.ID != container; b = o.t.Box(b.Parent) {
		if layered(b) {
			return b.ID
		}
	}
	return boxtree.NoBox
}

// inlines emits the line box content of run's container: inline box
// decorations, text and atomic inlines, in line order.
func (o *orderer) inlines(sc *StackingContext, run inlineRun) {
	c := o.t.Box(run.container)
	if c == nil {
		return
	}
	counts := map[boxtree.BoxID]int{}
	for _, line := range c.Layout.Lines {
		for _, f := range line.Fragments {
			counts[f.Box]++
		}
	}
	seen := map[boxtree.BoxID]int{}
	for _, line := range c.Layout.Lines {
		for _, f := range line.Fragments {
			seen[f.Box]++
			if o.owner(f.Box, run.container) != run.owner {
				continue
			}
			b := o.t.Box(f.Box)
			if layer, ok := sc.atomics[f.Box]; ok {
				o.layer(layer)
				continue
			}
			if b.IsAtomicInline() || !visible(b) {
				// Positioned atomics paint with their own layer.
				continue
			}
			switch {
			case b.Kind == boxtree.KindText:
				if f.Text != "" {
					o.emit(Item{Kind: ItemText, Box: b.ID, Rect: f.Rect, Text: f.Text, Baseline: f.Baseline, Opacity: sc.Opacity})
				}
			case b.Break:
			default:
				border := b.Layout.Border
				if seen[f.Box] > 1 {
					border.Left = 0
				}
				if seen[f.Box] < counts[f.Box] {
					border.Right = 0
				}
				if hasBackground(b) {
					o.emit(Item{Kind: ItemBackground, Box: b.ID, Rect: f.Rect, Opacity: sc.Opacity})
				}
				if border != (boxtree.Edges{}) {
					o.emit(Item{Kind: ItemBorder, Box: b.ID, Rect: f.Rect, Border: border, Opacity: sc.Opacity})
				}
			}
		}
	}
}

// outlines emits the outlines of every box painted in sc's layer tree,
// after everything else in the context.
func (o *orderer) outlines(sc *StackingContext) {
	o.t.Walk(sc.Box, func(b *boxtree.Box) bool {
		if b.ID != sc.Box {
			if _, ok := creates(b); ok {
				return false
			}
		}
		if b.Kind == boxtree.KindText || !visible(b) {
			return true
		}
		if w := b.Style.Outline.Width.Px(); w > 0 && !b.Style.Outline.Style.Is("none") {
			o.emit(Item{Kind: ItemOutline, Box: b.ID, Rect: b.Layout.BorderBox(), Opacity: sc.Opacity})
		}
		return true
	})
}
