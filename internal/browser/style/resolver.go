// internal/browser/style/resolver.go
package style

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
)

// Viewport is the per-run metrics lengths are resolved against.
type Viewport struct {
	Width           float64
	Height          float64
	DefaultFontSize float64
	DPI             float64
}

func (v Viewport) withDefaults() Viewport {
	if v.DefaultFontSize <= 0 {
		v.DefaultFontSize = properties.DefaultFontSize
	}
	if v.DPI <= 0 {
		v.DPI = properties.DefaultDPI
	}
	return v
}

// computeOrder lists every property in the order an element computes them.
// Font size feeds every em length, display depends on position and float,
// border and outline widths depend on their styles, vertical-align on the
// line height.
var computeOrder = func() []properties.PropertyID {
	first := []properties.PropertyID{
		properties.FontSize,
		properties.FontWeight,
		properties.Color,
		properties.Position,
		properties.Float,
		properties.Display,
		properties.BorderTopStyle, properties.BorderRightStyle,
		properties.BorderBottomStyle, properties.BorderLeftStyle,
		properties.OutlineStyle,
		properties.LineHeight,
	}
	seen := make(map[properties.PropertyID]bool, len(first))
	for _, id := range first {
		seen[id] = true
	}
	order := append([]properties.PropertyID(nil), first...)
	for _, id := range properties.All() {
		if !seen[id] {
			order = append(order, id)
		}
	}
	return order
}()

// Styles holds the computed values of every styled element of a tree.
type Styles map[dom.NodeID]*ComputedValues

// Resolver turns the declarations a Document selects into ComputedValues.
// A resolver belongs to one document and one run.
type Resolver struct {
	registry *properties.Registry
	doc      *Document
	viewport Viewport
	logger   *zap.Logger

	parsed   map[*parser.Declaration][]properties.Value
	rootFont float64
	errs     error
}

// NewResolver creates a resolver. The registry is shared and only read.
func NewResolver(registry *properties.Registry, doc *Document, viewport Viewport, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = properties.NewRegistry()
	}
	return &Resolver{
		registry: registry,
		doc:      doc,
		viewport: viewport.withDefaults(),
		logger:   logger.Named("resolver"),
		parsed:   make(map[*parser.Declaration][]properties.Value),
	}
}

// Err returns the declarations dropped as invalid, combined with multierr.
func (r *Resolver) Err() error { return r.errs }

// Viewport returns the metrics the resolver computes against.
func (r *Resolver) Viewport() Viewport { return r.viewport }

// parse runs the registry over a declaration once and remembers the result.
func (r *Resolver) parse(decl *parser.Declaration) []properties.Value {
	if vs, ok := r.parsed[decl]; ok {
		return vs
	}
	vs := r.registry.Parse(decl.Property, decl.Value)
	if len(vs) == 0 {
		r.logger.Debug("Dropping invalid declaration.",
			zap.String("property", decl.Property),
			zap.String("value", parser.TokensString(decl.Value)))
		r.errs = multierr.Append(r.errs,
			fmt.Errorf("invalid value %q for %s", parser.TokensString(decl.Value), decl.Property))
	}
	r.parsed[decl] = vs
	return vs
}

// declared collects the winning declared value of every property for id.
// Select already ranks declarations highest first, so the first value seen
// for a property wins.
func (r *Resolver) declared(matched []Matched) (values [properties.Count]properties.Value, generic map[string]properties.Value) {
	for _, m := range matched {
		for _, v := range r.parse(m.Decl) {
			if v.Property == properties.PropertyGeneric {
				if generic == nil {
					generic = make(map[string]properties.Value)
				}
				if _, ok := generic[v.Name]; !ok {
					generic[v.Name] = v
				}
				continue
			}
			if !values[v.Property].IsSet() {
				values[v.Property] = v
			}
		}
	}
	return values, generic
}

// Resolve computes the values of element id. parent is the computed style of
// its parent element, nil for the root.
func (r *Resolver) Resolve(id dom.NodeID, parent *ComputedValues) *ComputedValues {
	return r.resolve(r.doc.Select(id), parent)
}

// ResolvePseudo computes the values of the before or after pseudo-element of
// id, whose parent is the element itself. It returns nil when the
// pseudo-element generates no box because its content is none or normal.
func (r *Resolver) ResolvePseudo(id dom.NodeID, pseudo string, element *ComputedValues) *ComputedValues {
	matched := r.doc.SelectPseudo(id, pseudo)
	if len(matched) == 0 {
		return nil
	}
	cv := r.resolve(matched, element)
	if cv.Misc.Content.Type != properties.TypeList {
		return nil
	}
	return cv
}

func (r *Resolver) resolve(matched []Matched, parent *ComputedValues) *ComputedValues {
	values, generic := r.declared(matched)
	cv := r.compute(values, parent)

	if len(generic) > 0 {
		cv.Generic = make(map[string]properties.Value, len(generic))
		for name, v := range generic {
			if v.Type == properties.TypeInherit {
				if parent != nil {
					if pv, ok := parent.Generic[name]; ok {
						cv.Generic[name] = pv
					}
				}
				continue
			}
			cv.Generic[name] = v
		}
	}
	return cv
}

func (r *Resolver) context(parent *ComputedValues, cv *ComputedValues) *properties.ComputeContext {
	ctx := &properties.ComputeContext{
		BaseFontSize:   r.viewport.DefaultFontSize,
		RootFontSize:   r.rootFont,
		ViewportWidth:  r.viewport.Width,
		ViewportHeight: r.viewport.Height,
		DPI:            r.viewport.DPI,
		Current:        cv.Get,
	}
	if parent != nil {
		ctx.ParentFontSize = parent.FontSize()
		ctx.ParentFontWeight = parent.FontWeight()
		ctx.Color = parent.Color()
	} else {
		ctx.ParentFontSize = r.viewport.DefaultFontSize
		ctx.ParentFontWeight = 400
		ctx.Color = properties.Color.Initial().Color
	}
	ctx.FontSize = ctx.ParentFontSize
	return ctx
}

func (r *Resolver) compute(values [properties.Count]properties.Value, parent *ComputedValues) *ComputedValues {
	cv := &ComputedValues{}
	ctx := r.context(parent, cv)

	for _, id := range computeOrder {
		v := values[id]
		var computed properties.Value
		switch {
		case v.IsSet() && v.Type != properties.TypeInherit:
			computed = ctx.Compute(v)
		case parent != nil && (v.Type == properties.TypeInherit || id.Inherited()):
			computed = parent.Get(id)
		default:
			computed = ctx.Compute(id.Initial())
		}
		cv.set(id, computed)

		switch id {
		case properties.FontSize:
			ctx.FontSize = cv.FontSize()
			if parent == nil {
				r.rootFont = ctx.FontSize
				ctx.RootFontSize = ctx.FontSize
			}
		case properties.Color:
			ctx.Color = cv.Color()
		case properties.Display:
			blockify(cv, parent == nil)
		case properties.LineHeight:
			ctx.LineHeight = cv.LineHeight()
		}
	}
	return cv
}

// blockify applies CSS 2.1 §9.7: absolutely positioned boxes do not float,
// and floated, absolutely positioned and root boxes are block-level.
func blockify(cv *ComputedValues, isRoot bool) {
	if cv.Display() == DisplayNone {
		return
	}
	if cv.Position().IsOutOfFlow() {
		cv.set(properties.Float, properties.Keyword(properties.Float, "none"))
	} else if cv.Float() == FloatNone && !isRoot {
		return
	}

	switch cv.Display() {
	case DisplayInlineTable:
		cv.set(properties.Display, properties.Keyword(properties.Display, "table"))
	case DisplayInlineFlex:
		cv.set(properties.Display, properties.Keyword(properties.Display, "flex"))
	case DisplayInline, DisplayRunIn, DisplayInlineBlock, DisplayTableRowGroup, DisplayTableHeaderGroup,
		DisplayTableFooterGroup, DisplayTableRow, DisplayTableColumnGroup, DisplayTableColumn,
		DisplayTableCell, DisplayTableCaption:
		cv.set(properties.Display, properties.Keyword(properties.Display, "block"))
	}
}

// ResolveTree resolves every element of the document top-down. Elements
// under a display:none ancestor are still resolved; the box tree builder
// decides what produces boxes.
func (r *Resolver) ResolveTree() Styles {
	tree := r.doc.Tree()
	styles := make(Styles, tree.Len())
	root := tree.DocumentElement()
	if root == dom.NoNode {
		return styles
	}

	var walk func(id dom.NodeID, parent *ComputedValues)
	walk = func(id dom.NodeID, parent *ComputedValues) {
		cv := r.Resolve(id, parent)
		styles[id] = cv
		for _, c := range tree.Children(id) {
			if tree.IsElement(c) {
				walk(c, cv)
			}
		}
	}
	walk(root, nil)

	if r.errs != nil {
		r.logger.Debug("Style resolution dropped declarations.",
			zap.Int("count", len(multierr.Errors(r.errs))))
	}
	return styles
}

// InheritFrom returns values for an anonymous box inside parent: inherited
// properties are copied and all others take their initial values.
func InheritFrom(parent *ComputedValues) *ComputedValues {
	cv := &ComputedValues{}
	ctx := &properties.ComputeContext{Current: cv.Get}
	if parent != nil {
		ctx.FontSize = parent.FontSize()
		ctx.ParentFontSize = ctx.FontSize
		ctx.ParentFontWeight = parent.FontWeight()
		ctx.Color = parent.Color()
	}
	for _, id := range computeOrder {
		if parent != nil && id.Inherited() {
			cv.set(id, parent.Get(id))
			continue
		}
		cv.set(id, ctx.Compute(id.Initial()))
		if id == properties.Color {
			ctx.Color = cv.Color()
		}
	}
	return cv
}

// Set overrides one value. It is meant for code that creates values, such
// as the box tree builder giving an anonymous block its display.
func (cv *ComputedValues) Set(id properties.PropertyID, v properties.Value) {
	cv.set(id, v)
}
