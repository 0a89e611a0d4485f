// internal/browser/boxtree/box.go
package boxtree

import (
	"errors"

	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// ErrUnsupportedRoot is returned when the document has no element to root a box tree at.
var ErrUnsupportedRoot = errors.New("boxtree: document root is not an element")

// BoxID addresses a box inside its Tree. IDs are stable for the tree's lifetime.
type BoxID int32

// NoBox is the absent box.
const NoBox BoxID = -1

// Kind classifies a box for layout dispatch.
type Kind int

const (
	KindElement Kind = iota
	KindText
	// KindAnonymousBlock covers every box the builder generates without an
	// element: block wrappers around inline runs and missing table parts.
	KindAnonymousBlock
	KindFloat
	KindAbsoluteOrFixed
	KindReplaced
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindAnonymousBlock:
		return "anonymous"
	case KindFloat:
		return "float"
	case KindAbsoluteOrFixed:
		return "positioned"
	case KindReplaced:
		return "replaced"
	}
	return "unknown"
}

// Replaced describes content with intrinsic dimensions, such as an image.
type Replaced struct {
	// Source is the resource key of the content, empty when there is none.
	Source string
	Width  float64
	Height float64
}

// Box is one node of the box tree. Structure fields are written by Build;
// Layout is written by the layout engine during a pass.
type Box struct {
	ID   BoxID
	Kind Kind
	// Node is the element the box was generated for, or the text node of a
	// text box. Anonymous boxes carry their nearest element ancestor.
	Node dom.NodeID
	// Pseudo is "before" or "after" for generated content boxes.
	Pseudo string
	Style  *style.ComputedValues
	// Display is the used display of the box, which for flex items and
	// anonymous boxes differs from the computed value.
	Display  style.DisplayType
	Parent   BoxID
	Children []BoxID

	// ContainingBlock is the box whose padding box an absolutely positioned
	// box is placed in, NoBox for the initial containing block.
	ContainingBlock BoxID
	// Positioned lists, in tree order, the absolutely positioned boxes this
	// box is the containing block of.
	Positioned []BoxID

	Text string
	// Break is set for forced line breaks such as <br>.
	Break    bool
	Replaced *Replaced

	// Marker is the list item marker text for outside markers.
	Marker      string
	MarkerImage string

	ColSpan int
	RowSpan int

	Layout Layout
}

// Layout is the per-pass geometry of a box.
type Layout struct {
	Dimensions
	// RelativeX and RelativeY are the offsets applied by position: relative.
	RelativeX, RelativeY float64
	// ContainingWidth and ContainingHeight are the sizes percentages resolved
	// against. ContainingHeight is -1 when the containing block's height is
	// indefinite.
	ContainingWidth, ContainingHeight float64
	// StaticX and StaticY are where an absolutely positioned box would have
	// been placed in normal flow.
	StaticX, StaticY float64
	// Baseline is the y coordinate of the first baseline, 0 when there is none.
	Baseline float64
	Lines    []LineBox
	// MarkerRect is where an outside list marker is drawn.
	MarkerRect Rect
}

// LineBox is one line of an inline formatting context.
type LineBox struct {
	Rect
	Baseline  float64
	Fragments []Fragment
}

// Fragment is the part of an inline-level box placed on one line.
type Fragment struct {
	Box BoxID
	// Text is the slice of a text box's content on this line.
	Text     string
	Rect     Rect
	Baseline float64
}

// IsOutOfFlow reports floats and absolutely positioned boxes.
func (b *Box) IsOutOfFlow() bool {
	return b.Kind == KindFloat || b.Kind == KindAbsoluteOrFixed
}

// IsBlockLevel reports whether the box takes part in a block formatting context.
func (b *Box) IsBlockLevel() bool {
	if b.Kind == KindText || b.Break {
		return false
	}
	return b.Display.IsBlockLevel() || b.Display.IsTablePart()
}

// IsInlineLevel reports whether the box is laid out in line boxes.
func (b *Box) IsInlineLevel() bool {
	return !b.IsOutOfFlow() && !b.IsBlockLevel()
}

// IsAtomicInline reports inline-level boxes laid out as one unbreakable unit.
func (b *Box) IsAtomicInline() bool {
	if !b.IsInlineLevel() || b.Kind == KindText {
		return false
	}
	return b.Replaced != nil || b.Display == style.DisplayInlineBlock ||
		b.Display == style.DisplayInlineTable || b.Display == style.DisplayInlineFlex
}

// Tree is the arena holding every box generated for a document.
type Tree struct {
	DOM   *dom.Tree
	boxes []Box
	root  BoxID
	// viewport lists absolutely positioned boxes placed in the initial containing block.
	viewport []BoxID
	byNode   map[dom.NodeID]BoxID
}

// Root returns the root box, NoBox for a document whose root generates no box.
func (t *Tree) Root() BoxID { return t.root }

// Len returns the number of boxes.
func (t *Tree) Len() int { return len(t.boxes) }

// Box returns the box with the given id. The pointer is valid until the tree
// is rebuilt.
func (t *Tree) Box(id BoxID) *Box {
	if id < 0 || int(id) >= len(t.boxes) {
		return nil
	}
	return &t.boxes[id]
}

// ViewportPositioned returns the boxes whose containing block is the initial one.
func (t *Tree) ViewportPositioned() []BoxID { return t.viewport }

// BoxFor returns the principal box generated for an element.
func (t *Tree) BoxFor(node dom.NodeID) (BoxID, bool) {
	id, ok := t.byNode[node]
	return id, ok
}

// Walk visits the boxes below and including id in tree order. Returning
// false from fn skips the children of that box.
func (t *Tree) Walk(id BoxID, fn func(b *Box) bool) {
	b := t.Box(id)
	if b == nil {
		return
	}
	if !fn(b) {
		return
	}
	for _, c := range b.Children {
		t.Walk(c, fn)
	}
}

// ResetLayout clears the geometry of every box so the tree can be laid out again.
func (t *Tree) ResetLayout() {
	for i := range t.boxes {
		t.boxes[i].Layout = Layout{}
	}
}
