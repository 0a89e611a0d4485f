// internal/browser/boxtree/build.go
package boxtree

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// Default intrinsic size of replaced content nothing else sizes.
const (
	DefaultReplacedWidth  = 300
	DefaultReplacedHeight = 150
)

// replacedSources maps replaced HTML elements to the attribute naming their content.
var replacedSources = map[string]string{
	"img":    "src",
	"object": "data",
	"embed":  "src",
	"video":  "poster",
	"canvas": "",
	"iframe": "",
}

// ImageSizer reports the intrinsic pixel size of the resource at key.
type ImageSizer interface {
	ImageSize(key string) (width, height int, err error)
}

// PseudoStyler returns the computed values of the before or after box of an
// element, nil when it generates none.
type PseudoStyler func(node dom.NodeID, pseudo string, element *style.ComputedValues) *style.ComputedValues

// Options configures Build. Every field is optional.
type Options struct {
	Images ImageSizer
	Pseudo PseudoStyler
	Logger *zap.Logger
}

type builder struct {
	dom    *dom.Tree
	styles style.Styles
	opts   Options
	logger *zap.Logger
	t      *Tree

	counters   *counterStack
	quoteDepth int
	// positioned is the stack of ancestors that are containing blocks for
	// absolutely positioned descendants.
	positioned []BoxID
}

// Build generates the box tree of a styled document. Elements without
// computed values inherit from their parent; the tree is built as far as the
// document allows.
func Build(d *dom.Tree, styles style.Styles, opts Options) (*Tree, error) {
	if d == nil {
		return nil, ErrUnsupportedRoot
	}
	root := d.DocumentElement()
	if !d.IsElement(root) {
		return nil, ErrUnsupportedRoot
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &builder{
		dom:      d,
		styles:   styles,
		opts:     opts,
		logger:   logger.Named("boxtree"),
		t:        &Tree{DOM: d, root: NoBox, byNode: make(map[dom.NodeID]BoxID)},
		counters: newCounterStack(),
	}

	rootBox := b.element(root, nil)
	if rootBox != NoBox {
		b.t.boxes[rootBox].Parent = NoBox
	}
	b.t.root = rootBox
	b.logger.Debug("Box tree built.", zap.Int("boxes", b.t.Len()), zap.Int("viewport_positioned", len(b.t.viewport)))
	return b.t, nil
}

func (b *builder) newBox(kind Kind, node dom.NodeID, cv *style.ComputedValues, display style.DisplayType) BoxID {
	id := BoxID(len(b.t.boxes))
	b.t.boxes = append(b.t.boxes, Box{
		ID:              id,
		Kind:            kind,
		Node:            node,
		Style:           cv,
		Display:         display,
		Parent:          NoBox,
		ContainingBlock: NoBox,
		ColSpan:         1,
		RowSpan:         1,
	})
	return id
}

// anonymous creates an anonymous box of the given display inside parent.
func (b *builder) anonymous(parent BoxID, display string) BoxID {
	p := &b.t.boxes[parent]
	cv := style.InheritFrom(p.Style)
	cv.Set(properties.Display, properties.Keyword(properties.Display, display))
	return b.newBox(KindAnonymousBlock, p.Node, cv, cv.Display())
}

func (b *builder) isHTML() bool { return b.dom.Format() == dom.FormatHTML }

// boxKind picks the kind of an element box. Positioning wins over floating,
// and both win over replaced content, which the box keeps in Replaced.
func boxKind(cv *style.ComputedValues, replaced bool) Kind {
	switch {
	case cv.Position().IsOutOfFlow():
		return KindAbsoluteOrFixed
	case cv.Float() != style.FloatNone:
		return KindFloat
	case replaced:
		return KindReplaced
	}
	return KindElement
}

func (b *builder) element(node dom.NodeID, parentStyle *style.ComputedValues) BoxID {
	cv := b.styles[node]
	if cv == nil {
		b.logger.Debug("Element has no computed values, inheriting.", zap.String("path", b.dom.UniquePath(node)))
		cv = style.InheritFrom(parentStyle)
	}
	display := cv.Display()
	if display == style.DisplayNone {
		return NoBox
	}
	n := b.dom.Node(node)

	var replaced *Replaced
	if attr, ok := replacedSources[n.Tag]; ok && b.isHTML() {
		replaced = b.replaced(node, attr)
	}
	id := b.newBox(boxKind(cv, replaced != nil), node, cv, display)
	b.t.byNode[node] = id
	b.t.boxes[id].Replaced = replaced
	if b.t.boxes[id].Kind == KindAbsoluteOrFixed {
		b.registerPositioned(id, cv.Position())
	}

	b.applyCounters(node, n.Tag, cv, display)
	var inlineMarker BoxID = NoBox
	if display == style.DisplayListItem {
		inlineMarker = b.marker(id, cv)
	}
	if b.isHTML() {
		switch n.Tag {
		case "br":
			b.t.boxes[id].Break = true
			return id
		case "td", "th":
			b.t.boxes[id].ColSpan = spanAttr(b.dom, node, "colspan", 1000)
			b.t.boxes[id].RowSpan = spanAttr(b.dom, node, "rowspan", 65534)
		case "col", "colgroup":
			b.t.boxes[id].ColSpan = spanAttr(b.dom, node, "span", 1000)
		}
	}
	if replaced != nil {
		return id
	}

	pushed := false
	if cv.Position() != style.PositionStatic {
		b.positioned = append(b.positioned, id)
		pushed = true
	}

	var children []BoxID
	if inlineMarker != NoBox {
		children = append(children, inlineMarker)
	}
	b.counters.descend()
	if before := b.pseudo(node, "before", cv); before != NoBox {
		children = append(children, before)
	}
	for _, c := range b.dom.Children(node) {
		switch b.dom.Node(c).Kind {
		case dom.KindElement:
			if child := b.element(c, cv); child != NoBox {
				children = append(children, child)
			}
		case dom.KindText:
			if child := b.text(c, b.dom.Node(c).Text, node, cv); child != NoBox {
				children = append(children, child)
			}
		}
	}
	if after := b.pseudo(node, "after", cv); after != NoBox {
		children = append(children, after)
	}
	b.counters.ascend()

	if pushed {
		b.positioned = b.positioned[:len(b.positioned)-1]
	}
	b.t.boxes[id].Children = b.normalize(id, children)
	return id
}

// text creates a text box for a run of character data. owner is the element
// whose language and style the text uses.
func (b *builder) text(node dom.NodeID, raw string, owner dom.NodeID, cv *style.ComputedValues) BoxID {
	s := collapseWhitespace(raw, cv.WhiteSpace())
	s = transformText(s, cv.Text.Transform.Keyword, b.dom.Lang(owner))
	if s == "" {
		return NoBox
	}
	id := b.newBox(KindText, node, cv, style.DisplayInline)
	b.t.boxes[id].Text = s
	return id
}

// registerPositioned links an absolutely positioned box to its containing
// block: the nearest positioned ancestor, or the initial containing block
// for fixed boxes and boxes without one.
func (b *builder) registerPositioned(id BoxID, position style.PositionType) {
	cb := NoBox
	if position == style.PositionAbsolute && len(b.positioned) > 0 {
		cb = b.positioned[len(b.positioned)-1]
	}
	b.t.boxes[id].ContainingBlock = cb
	if cb == NoBox {
		b.t.viewport = append(b.t.viewport, id)
		return
	}
	b.t.boxes[cb].Positioned = append(b.t.boxes[cb].Positioned, id)
}

// replaced computes the intrinsic size of replaced content from the width
// and height attributes, then the resource, then the default.
func (b *builder) replaced(node dom.NodeID, srcAttr string) *Replaced {
	r := &Replaced{}
	if srcAttr != "" {
		r.Source, _ = b.dom.Attr(node, srcAttr)
	}
	w, hasW := dimensionAttr(b.dom, node, "width")
	h, hasH := dimensionAttr(b.dom, node, "height")
	if hasW && hasH {
		r.Width, r.Height = w, h
		return r
	}

	if r.Source != "" && b.opts.Images != nil {
		iw, ih, err := b.opts.Images.ImageSize(r.Source)
		if err != nil {
			b.logger.Warn("Intrinsic size unavailable, using defaults.", zap.String("source", r.Source), zap.Error(err))
		} else if iw > 0 && ih > 0 {
			r.Width, r.Height = float64(iw), float64(ih)
			switch {
			case hasW:
				r.Width, r.Height = w, w*float64(ih)/float64(iw)
			case hasH:
				r.Width, r.Height = h*float64(iw)/float64(ih), h
			}
			return r
		}
	}

	r.Width, r.Height = DefaultReplacedWidth, DefaultReplacedHeight
	if hasW {
		r.Width = w
	}
	if hasH {
		r.Height = h
	}
	return r
}

func dimensionAttr(d *dom.Tree, node dom.NodeID, name string) (float64, bool) {
	v, ok := d.Attr(node, name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func spanAttr(d *dom.Tree, node dom.NodeID, name string, limit int) int {
	v, ok := d.Attr(node, name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}

// applyCounters runs counter-reset and counter-increment for an element,
// plus the implicit list-item counter of lists and list items.
func (b *builder) applyCounters(node dom.NodeID, tag string, cv *style.ComputedValues, display style.DisplayType) {
	listReset := false
	for _, c := range cv.Counter.Reset.Counters {
		b.counters.reset(c.Name, c.Value)
		listReset = listReset || c.Name == listItemCounter
	}
	if !listReset && b.isHTML() {
		switch tag {
		case "ol":
			start := 1
			if v, ok := b.dom.Attr(node, "start"); ok {
				if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					start = n
				}
			}
			b.counters.reset(listItemCounter, start-1)
		case "ul", "menu", "dir":
			b.counters.reset(listItemCounter, 0)
		}
	}

	listIncrement := false
	for _, c := range cv.Counter.Increment.Counters {
		b.counters.increment(c.Name, c.Value)
		listIncrement = listIncrement || c.Name == listItemCounter
	}
	if display != style.DisplayListItem || listIncrement {
		return
	}
	if v, ok := b.dom.Attr(node, "value"); ok && b.isHTML() {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			b.counters.set(listItemCounter, n)
			return
		}
	}
	b.counters.increment(listItemCounter, 1)
}

// marker records the list marker of a list item. Inside markers become a
// text box returned for the caller to place first among the children.
func (b *builder) marker(id BoxID, cv *style.ComputedValues) BoxID {
	text := markerText(b.counters.value(listItemCounter), cv.ListStyle.Type.Keyword)
	if cv.ListStyle.Image.Type == properties.TypeURI {
		b.t.boxes[id].MarkerImage = cv.ListStyle.Image.Text
	}
	if cv.ListStyle.Position.Keyword == "inside" {
		if text == "" {
			return NoBox
		}
		m := b.newBox(KindText, b.t.boxes[id].Node, cv, style.DisplayInline)
		b.t.boxes[m].Text = text + " "
		return m
	}
	b.t.boxes[id].Marker = text
	return NoBox
}

// pseudo creates the before or after box of an element.
func (b *builder) pseudo(node dom.NodeID, which string, element *style.ComputedValues) BoxID {
	if b.opts.Pseudo == nil {
		return NoBox
	}
	cv := b.opts.Pseudo(node, which, element)
	if cv == nil || cv.Display() == style.DisplayNone {
		return NoBox
	}
	b.applyCounters(node, "", cv, cv.Display())
	text := b.content(node, cv)

	id := b.newBox(boxKind(cv, false), node, cv, cv.Display())
	b.t.boxes[id].Pseudo = which
	if b.t.boxes[id].Kind == KindAbsoluteOrFixed {
		b.registerPositioned(id, cv.Position())
	}
	var children []BoxID
	if t := b.text(node, text, node, cv); t != NoBox {
		children = append(children, t)
	}
	b.t.boxes[id].Children = b.normalize(id, children)
	return id
}

// content evaluates the content property of a pseudo-element.
func (b *builder) content(node dom.NodeID, cv *style.ComputedValues) string {
	quotes := cv.Misc.Quotes.Components
	quote := func(open bool) string {
		if len(quotes) < 2 {
			return ""
		}
		level := b.quoteDepth
		if !open {
			level--
		}
		if level < 0 {
			return ""
		}
		pair := level
		if last := len(quotes)/2 - 1; pair > last {
			pair = last
		}
		if open {
			return quotes[2*pair].Text
		}
		return quotes[2*pair+1].Text
	}

	var sb strings.Builder
	for _, item := range cv.Misc.Content.Components {
		switch item.Type {
		case properties.TypeString:
			sb.WriteString(item.Text)
		case properties.TypeAttr:
			v, _ := b.dom.Attr(node, item.Text)
			sb.WriteString(v)
		case properties.TypeCounter:
			if item.Name == "" {
				sb.WriteString(FormatCounter(b.counters.value(item.Text), item.Keyword))
				continue
			}
			values := b.counters.values(item.Text)
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = FormatCounter(v, item.Keyword)
			}
			sb.WriteString(strings.Join(parts, item.Name))
		case properties.TypeKeyword:
			switch item.Keyword {
			case "open-quote":
				sb.WriteString(quote(true))
				b.quoteDepth++
			case "close-quote":
				sb.WriteString(quote(false))
				if b.quoteDepth > 0 {
					b.quoteDepth--
				}
			case "no-open-quote":
				b.quoteDepth++
			case "no-close-quote":
				if b.quoteDepth > 0 {
					b.quoteDepth--
				}
			}
		case properties.TypeURI:
			b.logger.Debug("Image content is not generated.", zap.String("uri", item.Text))
		}
	}
	return sb.String()
}
