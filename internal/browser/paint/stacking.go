// internal/browser/paint/stacking.go
package paint

import (
	"sort"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// StackingContext is one layer of the paint order. Real contexts are the
// root, positioned boxes with an integer z-index and boxes with opacity
// below one. Positioned boxes with z-index auto, floats and inline-blocks
// paint atomically like a context, but the real contexts and positioned
// boxes inside them belong to the enclosing real context.
type StackingContext struct {
	Box boxtree.BoxID
	Z   int
	// Real is false for the atomic layers described above.
	Real    bool
	Opacity float64

	Negative []*StackingContext
	// Blocks are the in-flow block-level boxes painting their backgrounds
	// and borders, in tree order.
	Blocks []boxtree.BoxID
	Floats []*StackingContext
	// Inlines are the block containers whose line boxes paint in this layer.
	Inlines []inlineRun
	// Positioned holds positioned descendants with z-index auto or 0 and
	// opacity contexts, in tree order.
	Positioned []*StackingContext
	Positive   []*StackingContext

	atomics map[boxtree.BoxID]*StackingContext
}

// inlineRun selects the fragments of container's lines that belong to owner.
// owner is NoBox for fragments not inside any positioned inline box.
type inlineRun struct {
	container boxtree.BoxID
	owner     boxtree.BoxID
}

// creates reports whether b starts a real stacking context, and its level.
func creates(b *boxtree.Box) (int, bool) {
	if b.Parent == boxtree.NoBox {
		return 0, true
	}
	if z, ok := b.Style.ZIndex(); ok && b.Style.Position() != style.PositionStatic {
		return z, true
	}
	return 0, b.Style.Opacity() < 1
}

func positioned(b *boxtree.Box) bool {
	return b.Style.Position() != style.PositionStatic
}

type builder struct {
	t       *boxtree.Tree
	atomics map[boxtree.BoxID]*StackingContext
}

// Build groups the laid out tree into stacking contexts, rooted at the
// root box. It returns nil for an empty tree.
func Build(t *boxtree.Tree) *StackingContext {
	root := t.Box(t.Root())
	if root == nil {
		return nil
	}
	b := &builder{t: t, atomics: make(map[boxtree.BoxID]*StackingContext)}
	return b.context(root, 1)
}

// context builds a real stacking context. Its z lists are complete once
// the walk returns, so they are sorted here; equal levels keep tree order.
func (b *builder) context(box *boxtree.Box, opacity float64) *StackingContext {
	sc := b.layer(box, true, opacity*box.Style.Opacity())
	sc.Z, _ = creates(box)
	b.walk(sc, sc, box)
	byZ := func(list []*StackingContext) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Z < list[j].Z })
	}
	byZ(sc.Negative)
	byZ(sc.Positive)
	return sc
}

// atomic builds a layer painted as a unit whose real contexts go to real.
func (b *builder) atomic(box *boxtree.Box, real *StackingContext) *StackingContext {
	sc := b.layer(box, false, real.Opacity)
	b.walk(sc, real, box)
	return sc
}

func (b *builder) layer(box *boxtree.Box, real bool, opacity float64) *StackingContext {
	sc := &StackingContext{Box: box.ID, Real: real, Opacity: opacity, atomics: b.atomics}
	if box.IsInlineLevel() && !box.IsAtomicInline() {
		// A positioned inline box paints its own fragments.
		sc.Inlines = append(sc.Inlines, inlineRun{container: b.container(box), owner: box.ID})
	} else if len(box.Layout.Lines) > 0 {
		sc.Inlines = append(sc.Inlines, inlineRun{container: box.ID, owner: boxtree.NoBox})
	}
	return sc
}

// container returns the block container whose lines hold the inline box.
func (b *builder) container(box *boxtree.Box) boxtree.BoxID {
	for p := b.t.Box(box.Parent); p != nil; p = b.t.Box(p.Parent) {
		if len(p.Layout.Lines) > 0 || !p.IsInlineLevel() {
			return p.ID
		}
	}
	return boxtree.NoBox
}

// walk sorts the descendants of box into sc, the layer they paint in, and
// real, the nearest real context.
func (b *builder) walk(sc, real *StackingContext, box *boxtree.Box) {
	for _, id := range box.Children {
		c := b.t.Box(id)
		if c == nil {
			continue
		}
		if z, ok := creates(c); ok {
			if c.Style.Opacity() <= 0 {
				continue
			}
			child := b.context(c, real.Opacity)
			switch {
			case z < 0:
				real.Negative = append(real.Negative, child)
			case z > 0:
				real.Positive = append(real.Positive, child)
			default:
				real.Positioned = append(real.Positioned, child)
			}
			continue
		}
		switch {
		case positioned(c):
			real.Positioned = append(real.Positioned, b.atomic(c, real))
		case c.Kind == boxtree.KindFloat:
			sc.Floats = append(sc.Floats, b.atomic(c, real))
		case c.IsAtomicInline():
			b.atomics[c.ID] = b.atomic(c, real)
		default:
			if c.IsBlockLevel() {
				sc.Blocks = append(sc.Blocks, c.ID)
				if len(c.Layout.Lines) > 0 {
					sc.Inlines = append(sc.Inlines, inlineRun{container: c.ID, owner: boxtree.NoBox})
				}
			}
			b.walk(sc, real, c)
		}
	}
}
