// internal/browser/properties/compute.go
package properties

import "image/color"

// ComputeContext carries what an element's values are computed against.
// The resolver fills it as it goes: FontSize is the parent's size until
// font-size itself is computed, Color is the parent's color until color is
// computed, and Current sees the element's values computed so far.
type ComputeContext struct {
	FontSize         float64
	ParentFontSize   float64
	RootFontSize     float64
	ParentFontWeight float64
	// LineHeight is the element's used line height in pixels once
	// line-height is computed.
	LineHeight float64
	// BaseFontSize is the size 'medium' maps to.
	BaseFontSize   float64
	ViewportWidth  float64
	ViewportHeight float64
	DPI            float64
	Color          color.RGBA
	// Current returns the element's already computed value for a property.
	Current func(PropertyID) Value
}

// fontSizeKeywordPx holds the sizes of the absolute font-size keywords for a
// 16px medium.
var fontSizeKeywordPx = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32,
}

// fontSizeScale is the ratio between adjacent sizes for larger and smaller.
const fontSizeScale = 1.2

// NormalLineHeight is the factor 'line-height: normal' uses.
const NormalLineHeight = 1.2

type computeFunc func(c *ComputeContext, v Value) Value

var computers [propertyCount]computeFunc

func init() {
	for id := range computers {
		computers[id] = computeLength
	}
	computers[FontSize] = computeFontSize
	computers[FontWeight] = computeFontWeight
	computers[LineHeight] = computeLineHeight
	computers[Color] = computeColor
	computers[VerticalAlign] = computeVerticalAlign
	computers[BackgroundColor] = computeColor
	computers[OutlineColor] = computeColor
	computers[BackgroundPosition] = computeList
	computers[BorderSpacing] = computeList
	computers[OutlineWidth] = lineWidth(OutlineStyle)
	for i, id := range []PropertyID{BorderTopWidth, BorderRightWidth, BorderBottomWidth, BorderLeftWidth} {
		computers[id] = lineWidth(BorderTopStyle + PropertyID(i))
		computers[BorderTopColor+PropertyID(i)] = computeColor
	}
}

// Compute turns a declared value into its computed form. Lengths become
// pixels, keywords with a fixed meaning are resolved, and percentages stay
// percentages except for font-size and line-height. Inherit must be
// handled by the caller.
func (c *ComputeContext) Compute(v Value) Value {
	if v.Property <= PropertyGeneric || v.Property >= propertyCount {
		return v
	}
	switch v.Type {
	case TypeInherit, TypeUnset:
		return v
	}
	return computers[v.Property](c, v)
}

func (c *ComputeContext) baseFontSize() float64 {
	if c.BaseFontSize > 0 {
		return c.BaseFontSize
	}
	return DefaultFontSize
}

func (c *ComputeContext) current(id PropertyID) Value {
	if c.Current == nil {
		return id.Initial()
	}
	return c.Current(id)
}

func computeLength(c *ComputeContext, v Value) Value {
	if v.Type == TypeLength {
		return withID(v.Property, px(c.ToPx(v.Length, c.FontSize)))
	}
	return v
}

func computeList(c *ComputeContext, v Value) Value {
	if v.Type != TypeList {
		return computeLength(c, v)
	}
	out := v
	out.Components = make([]Value, len(v.Components))
	for i, part := range v.Components {
		out.Components[i] = computeLength(c, part)
	}
	return out
}

func computeFontSize(c *ComputeContext, v Value) Value {
	parent := c.ParentFontSize
	if parent <= 0 {
		parent = c.baseFontSize()
	}
	var size float64
	switch v.Type {
	case TypeKeyword:
		switch v.Keyword {
		case "larger":
			size = parent * fontSizeScale
		case "smaller":
			size = parent / fontSizeScale
		default:
			n, ok := fontSizeKeywordPx[v.Keyword]
			if !ok {
				return v
			}
			size = n * c.baseFontSize() / DefaultFontSize
		}
	case TypeLength:
		size = c.ToPx(v.Length, parent)
	case TypePercentage:
		size = parent * v.Number / 100
	default:
		return v
	}
	if size < 0 {
		size = 0
	}
	return withID(FontSize, px(size))
}

func computeFontWeight(c *ComputeContext, v Value) Value {
	if v.Type != TypeKeyword {
		return v
	}
	parent := c.ParentFontWeight
	if parent <= 0 {
		parent = 400
	}
	var w float64
	switch v.Keyword {
	case "bolder":
		switch {
		case parent < 400:
			w = 400
		case parent < 600:
			w = 700
		default:
			w = 900
		}
	case "lighter":
		switch {
		case parent < 600:
			w = 100
		case parent < 800:
			w = 400
		default:
			w = 700
		}
	default:
		return v
	}
	out := withID(FontWeight, number(w))
	switch w {
	case 400:
		out.Keyword = "normal"
	case 700:
		out.Keyword = "bold"
	}
	return out
}

func computeLineHeight(c *ComputeContext, v Value) Value {
	switch v.Type {
	case TypeLength:
		return withID(LineHeight, px(c.ToPx(v.Length, c.FontSize)))
	case TypePercentage:
		return withID(LineHeight, px(c.FontSize*v.Number/100))
	}
	return v
}

// UsedLineHeight turns a computed line-height into pixels for fontSize.
func UsedLineHeight(v Value, fontSize float64) float64 {
	switch v.Type {
	case TypeLength:
		return v.Length.Value
	case TypeNumber:
		return v.Number * fontSize
	}
	return NormalLineHeight * fontSize
}

func computeVerticalAlign(c *ComputeContext, v Value) Value {
	if v.Type == TypePercentage {
		return withID(VerticalAlign, px(c.LineHeight*v.Number/100))
	}
	return computeLength(c, v)
}

func computeColor(c *ComputeContext, v Value) Value {
	if v.Is("currentcolor") {
		return withID(v.Property, rgba(c.Color))
	}
	return v
}

func lineWidth(style PropertyID) computeFunc {
	return func(c *ComputeContext, v Value) Value {
		if s := c.current(style); s.Is("none") || s.Is("hidden") {
			return withID(v.Property, px(0))
		}
		if n, ok := borderWidthKeywords[v.Keyword]; ok && v.Type == TypeKeyword {
			return withID(v.Property, px(n))
		}
		return computeLength(c, v)
	}
}
