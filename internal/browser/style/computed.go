// internal/browser/style/computed.go
package style

import (
	"image/color"

	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
)

// Side indexes the four-sided property groups.
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

// Edges holds one value per side, in top, right, bottom, left order.
type Edges [4]properties.Value

type BoxValues struct {
	Display, Position, Float, Clear, Visibility, Overflow, BoxSizing, ZIndex properties.Value
	Width, Height, MinWidth, MinHeight, MaxWidth, MaxHeight                 properties.Value
	Top, Right, Bottom, Left                                                properties.Value
	VerticalAlign, Direction, UnicodeBidi                                   properties.Value
}

type BorderValues struct {
	Width, Style, Color Edges
	// Radius is ordered top-left, top-right, bottom-right, bottom-left.
	Radius Edges
}

type FontValues struct {
	Family, Size, Style, Variant, Weight, LineHeight properties.Value
}

type TextValues struct {
	Color, LetterSpacing, WordSpacing, Align, Decoration, Indent, Transform, WhiteSpace properties.Value
}

type FlexValues struct {
	Direction, Wrap, Grow, Shrink, Basis, Order            properties.Value
	JustifyContent, AlignItems, AlignSelf, AlignContent properties.Value
}

type TableValues struct {
	Layout, BorderCollapse, BorderSpacing, CaptionSide, EmptyCells properties.Value
}

type BackgroundValues struct {
	Color, Image, Repeat, Attachment, Position properties.Value
}

type OutlineValues struct {
	Width, Style, Color properties.Value
}

type ListStyleValues struct {
	Type, Position, Image properties.Value
}

type MiscValues struct {
	Opacity, Cursor, Orphans, Widows                   properties.Value
	PageBreakBefore, PageBreakAfter, PageBreakInside properties.Value
	Content, Quotes                                  properties.Value
}

type CounterValues struct {
	Reset, Increment properties.Value
}

// ComputedValues is the computed style of one element or anonymous box,
// split into fixed property groups. It is written once by the resolver and
// read-only afterwards.
type ComputedValues struct {
	Box        BoxValues
	Border     BorderValues
	Margin     Edges
	Padding    Edges
	Font       FontValues
	Text       TextValues
	Flex       FlexValues
	Table      TableValues
	Background BackgroundValues
	Outline    OutlineValues
	ListStyle  ListStyleValues
	Misc       MiscValues
	Counter    CounterValues
	// Generic holds properties without a dedicated parser, by name.
	Generic map[string]properties.Value
}

// slot returns the storage for id inside its group.
func (cv *ComputedValues) slot(id properties.PropertyID) *properties.Value {
	switch {
	case id >= properties.BorderTopWidth && id <= properties.BorderLeftWidth:
		return &cv.Border.Width[id-properties.BorderTopWidth]
	case id >= properties.BorderTopStyle && id <= properties.BorderLeftStyle:
		return &cv.Border.Style[id-properties.BorderTopStyle]
	case id >= properties.BorderTopColor && id <= properties.BorderLeftColor:
		return &cv.Border.Color[id-properties.BorderTopColor]
	case id >= properties.BorderTopLeftRadius && id <= properties.BorderBottomLeftRadius:
		return &cv.Border.Radius[id-properties.BorderTopLeftRadius]
	case id >= properties.MarginTop && id <= properties.MarginLeft:
		return &cv.Margin[id-properties.MarginTop]
	case id >= properties.PaddingTop && id <= properties.PaddingLeft:
		return &cv.Padding[id-properties.PaddingTop]
	}

	switch id {
	case properties.Display:
		return &cv.Box.Display
	case properties.Position:
		return &cv.Box.Position
	case properties.Float:
		return &cv.Box.Float
	case properties.Clear:
		return &cv.Box.Clear
	case properties.Visibility:
		return &cv.Box.Visibility
	case properties.Overflow:
		return &cv.Box.Overflow
	case properties.BoxSizing:
		return &cv.Box.BoxSizing
	case properties.ZIndex:
		return &cv.Box.ZIndex
	case properties.Width:
		return &cv.Box.Width
	case properties.Height:
		return &cv.Box.Height
	case properties.MinWidth:
		return &cv.Box.MinWidth
	case properties.MinHeight:
		return &cv.Box.MinHeight
	case properties.MaxWidth:
		return &cv.Box.MaxWidth
	case properties.MaxHeight:
		return &cv.Box.MaxHeight
	case properties.Top:
		return &cv.Box.Top
	case properties.Right:
		return &cv.Box.Right
	case properties.Bottom:
		return &cv.Box.Bottom
	case properties.Left:
		return &cv.Box.Left
	case properties.VerticalAlign:
		return &cv.Box.VerticalAlign
	case properties.Direction:
		return &cv.Box.Direction
	case properties.UnicodeBidi:
		return &cv.Box.UnicodeBidi

	case properties.FontFamily:
		return &cv.Font.Family
	case properties.FontSize:
		return &cv.Font.Size
	case properties.FontStyle:
		return &cv.Font.Style
	case properties.FontVariant:
		return &cv.Font.Variant
	case properties.FontWeight:
		return &cv.Font.Weight
	case properties.LineHeight:
		return &cv.Font.LineHeight

	case properties.Color:
		return &cv.Text.Color
	case properties.LetterSpacing:
		return &cv.Text.LetterSpacing
	case properties.WordSpacing:
		return &cv.Text.WordSpacing
	case properties.TextAlign:
		return &cv.Text.Align
	case properties.TextDecoration:
		return &cv.Text.Decoration
	case properties.TextIndent:
		return &cv.Text.Indent
	case properties.TextTransform:
		return &cv.Text.Transform
	case properties.WhiteSpace:
		return &cv.Text.WhiteSpace

	case properties.FlexDirection:
		return &cv.Flex.Direction
	case properties.FlexWrap:
		return &cv.Flex.Wrap
	case properties.FlexGrow:
		return &cv.Flex.Grow
	case properties.FlexShrink:
		return &cv.Flex.Shrink
	case properties.FlexBasis:
		return &cv.Flex.Basis
	case properties.Order:
		return &cv.Flex.Order
	case properties.JustifyContent:
		return &cv.Flex.JustifyContent
	case properties.AlignItems:
		return &cv.Flex.AlignItems
	case properties.AlignSelf:
		return &cv.Flex.AlignSelf
	case properties.AlignContent:
		return &cv.Flex.AlignContent

	case properties.TableLayout:
		return &cv.Table.Layout
	case properties.BorderCollapse:
		return &cv.Table.BorderCollapse
	case properties.BorderSpacing:
		return &cv.Table.BorderSpacing
	case properties.CaptionSide:
		return &cv.Table.CaptionSide
	case properties.EmptyCells:
		return &cv.Table.EmptyCells

	case properties.BackgroundColor:
		return &cv.Background.Color
	case properties.BackgroundImage:
		return &cv.Background.Image
	case properties.BackgroundRepeat:
		return &cv.Background.Repeat
	case properties.BackgroundAttachment:
		return &cv.Background.Attachment
	case properties.BackgroundPosition:
		return &cv.Background.Position

	case properties.OutlineWidth:
		return &cv.Outline.Width
	case properties.OutlineStyle:
		return &cv.Outline.Style
	case properties.OutlineColor:
		return &cv.Outline.Color

	case properties.ListStyleType:
		return &cv.ListStyle.Type
	case properties.ListStylePosition:
		return &cv.ListStyle.Position
	case properties.ListStyleImage:
		return &cv.ListStyle.Image

	case properties.Opacity:
		return &cv.Misc.Opacity
	case properties.Cursor:
		return &cv.Misc.Cursor
	case properties.Orphans:
		return &cv.Misc.Orphans
	case properties.Widows:
		return &cv.Misc.Widows
	case properties.PageBreakBefore:
		return &cv.Misc.PageBreakBefore
	case properties.PageBreakAfter:
		return &cv.Misc.PageBreakAfter
	case properties.PageBreakInside:
		return &cv.Misc.PageBreakInside
	case properties.Content:
		return &cv.Misc.Content
	case properties.Quotes:
		return &cv.Misc.Quotes

	case properties.CounterReset:
		return &cv.Counter.Reset
	case properties.CounterIncrement:
		return &cv.Counter.Increment
	}
	return nil
}

// Get returns the computed value of id.
func (cv *ComputedValues) Get(id properties.PropertyID) properties.Value {
	if s := cv.slot(id); s != nil {
		return *s
	}
	return properties.Value{}
}

func (cv *ComputedValues) set(id properties.PropertyID, v properties.Value) {
	if s := cv.slot(id); s != nil {
		v.Property = id
		*s = v
	}
}

// -- Typed accessors used by the box tree and layout --

type DisplayType int

const (
	DisplayInline DisplayType = iota
	DisplayBlock
	DisplayListItem
	DisplayRunIn
	DisplayInlineBlock
	DisplayTable
	DisplayInlineTable
	DisplayTableRowGroup
	DisplayTableHeaderGroup
	DisplayTableFooterGroup
	DisplayTableRow
	DisplayTableColumnGroup
	DisplayTableColumn
	DisplayTableCell
	DisplayTableCaption
	DisplayFlex
	DisplayInlineFlex
	DisplayNone
)

var displayKeywords = map[string]DisplayType{
	"inline": DisplayInline, "block": DisplayBlock, "list-item": DisplayListItem, "run-in": DisplayRunIn,
	"inline-block": DisplayInlineBlock, "table": DisplayTable, "inline-table": DisplayInlineTable,
	"table-row-group": DisplayTableRowGroup, "table-header-group": DisplayTableHeaderGroup,
	"table-footer-group": DisplayTableFooterGroup, "table-row": DisplayTableRow,
	"table-column-group": DisplayTableColumnGroup, "table-column": DisplayTableColumn,
	"table-cell": DisplayTableCell, "table-caption": DisplayTableCaption,
	"flex": DisplayFlex, "inline-flex": DisplayInlineFlex, "none": DisplayNone,
}

func (d DisplayType) String() string {
	for k, v := range displayKeywords {
		if v == d {
			return k
		}
	}
	return "unknown"
}

func (cv *ComputedValues) Display() DisplayType {
	if d, ok := displayKeywords[cv.Box.Display.Keyword]; ok {
		return d
	}
	return DisplayInline
}

// IsBlockLevel reports whether the display participates in a block
// formatting context as a block.
func (d DisplayType) IsBlockLevel() bool {
	switch d {
	case DisplayBlock, DisplayListItem, DisplayTable, DisplayFlex, DisplayRunIn:
		return true
	}
	return false
}

// IsInlineLevel reports whether the display produces an inline-level box.
func (d DisplayType) IsInlineLevel() bool {
	switch d {
	case DisplayInline, DisplayInlineBlock, DisplayInlineTable, DisplayInlineFlex:
		return true
	}
	return false
}

// IsTablePart reports whether the display is an internal table display.
func (d DisplayType) IsTablePart() bool {
	return d >= DisplayTableRowGroup && d <= DisplayTableCaption
}

type PositionType int

const (
	PositionStatic PositionType = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
)

func (cv *ComputedValues) Position() PositionType {
	switch cv.Box.Position.Keyword {
	case "relative":
		return PositionRelative
	case "absolute":
		return PositionAbsolute
	case "fixed":
		return PositionFixed
	default:
		return PositionStatic
	}
}

// IsOutOfFlow reports absolute and fixed positioning.
func (p PositionType) IsOutOfFlow() bool {
	return p == PositionAbsolute || p == PositionFixed
}

type FloatType int

const (
	FloatNone FloatType = iota
	FloatLeft
	FloatRight
)

func (cv *ComputedValues) Float() FloatType {
	switch cv.Box.Float.Keyword {
	case "left":
		return FloatLeft
	case "right":
		return FloatRight
	default:
		return FloatNone
	}
}

type ClearType int

const (
	ClearNone ClearType = iota
	ClearLeft
	ClearRight
	ClearBoth
)

func (cv *ComputedValues) Clear() ClearType {
	switch cv.Box.Clear.Keyword {
	case "left":
		return ClearLeft
	case "right":
		return ClearRight
	case "both":
		return ClearBoth
	default:
		return ClearNone
	}
}

type BoxSizingType int

const (
	ContentBox BoxSizingType = iota
	BorderBox
)

func (cv *ComputedValues) BoxSizing() BoxSizingType {
	if cv.Box.BoxSizing.Keyword == "border-box" {
		return BorderBox
	}
	return ContentBox
}

type FlexDirection int

const (
	FlexDirectionRow FlexDirection = iota
	FlexDirectionRowReverse
	FlexDirectionColumn
	FlexDirectionColumnReverse
)

func (cv *ComputedValues) FlexDirection() FlexDirection {
	switch cv.Flex.Direction.Keyword {
	case "column":
		return FlexDirectionColumn
	case "row-reverse":
		return FlexDirectionRowReverse
	case "column-reverse":
		return FlexDirectionColumnReverse
	default:
		return FlexDirectionRow
	}
}

type FlexWrap int

const (
	FlexNoWrap FlexWrap = iota
	FlexWrapValue
	FlexWrapReverse
)

func (cv *ComputedValues) FlexWrap() FlexWrap {
	switch cv.Flex.Wrap.Keyword {
	case "wrap":
		return FlexWrapValue
	case "wrap-reverse":
		return FlexWrapReverse
	default:
		return FlexNoWrap
	}
}

type JustifyContent int

const (
	JustifyFlexStart JustifyContent = iota
	JustifyFlexEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

func (cv *ComputedValues) JustifyContent() JustifyContent {
	switch cv.Flex.JustifyContent.Keyword {
	case "flex-end":
		return JustifyFlexEnd
	case "center":
		return JustifyCenter
	case "space-between":
		return JustifySpaceBetween
	case "space-around":
		return JustifySpaceAround
	case "space-evenly":
		return JustifySpaceEvenly
	default:
		return JustifyFlexStart
	}
}

type AlignItems int

const (
	AlignStretch AlignItems = iota
	AlignFlexStart
	AlignCenter
	AlignFlexEnd
	AlignBaseline
)

func alignKeyword(k string) AlignItems {
	switch k {
	case "flex-start":
		return AlignFlexStart
	case "center":
		return AlignCenter
	case "flex-end":
		return AlignFlexEnd
	case "baseline":
		return AlignBaseline
	default:
		return AlignStretch
	}
}

func (cv *ComputedValues) AlignItems() AlignItems {
	return alignKeyword(cv.Flex.AlignItems.Keyword)
}

// AlignSelf resolves align-self: auto against the container's align-items.
func (cv *ComputedValues) AlignSelf(container *ComputedValues) AlignItems {
	if cv.Flex.AlignSelf.IsAuto() || !cv.Flex.AlignSelf.IsSet() {
		if container == nil {
			return AlignStretch
		}
		return container.AlignItems()
	}
	return alignKeyword(cv.Flex.AlignSelf.Keyword)
}

type AlignContent int

const (
	AlignContentStretch AlignContent = iota
	AlignContentFlexStart
	AlignContentFlexEnd
	AlignContentCenter
	AlignContentSpaceBetween
	AlignContentSpaceAround
	AlignContentSpaceEvenly
)

func (cv *ComputedValues) AlignContent() AlignContent {
	switch cv.Flex.AlignContent.Keyword {
	case "flex-start":
		return AlignContentFlexStart
	case "flex-end":
		return AlignContentFlexEnd
	case "center":
		return AlignContentCenter
	case "space-between":
		return AlignContentSpaceBetween
	case "space-around":
		return AlignContentSpaceAround
	case "space-evenly":
		return AlignContentSpaceEvenly
	default:
		return AlignContentStretch
	}
}

// IsVisible reports whether the box paints at all.
func (cv *ComputedValues) IsVisible() bool {
	if cv.Display() == DisplayNone {
		return false
	}
	if v := cv.Box.Visibility.Keyword; v == "hidden" || v == "collapse" {
		return false
	}
	return cv.Opacity() > 0
}

// FontSize returns the computed font size in pixels.
func (cv *ComputedValues) FontSize() float64 {
	if cv.Font.Size.Type == properties.TypeLength {
		return cv.Font.Size.Px()
	}
	return properties.DefaultFontSize
}

// LineHeight returns the used line height in pixels.
func (cv *ComputedValues) LineHeight() float64 {
	return properties.UsedLineHeight(cv.Font.LineHeight, cv.FontSize())
}

// FontWeight returns the numeric font weight.
func (cv *ComputedValues) FontWeight() float64 {
	if cv.Font.Weight.Type == properties.TypeNumber {
		return cv.Font.Weight.Number
	}
	return 400
}

// Color returns the foreground color.
func (cv *ComputedValues) Color() color.RGBA {
	return cv.Text.Color.Color
}

// Opacity returns the opacity in [0, 1].
func (cv *ComputedValues) Opacity() float64 {
	if cv.Misc.Opacity.Type == properties.TypeNumber {
		return cv.Misc.Opacity.Number
	}
	return 1
}

// ZIndex returns the stacking level and whether it is not auto.
func (cv *ComputedValues) ZIndex() (int, bool) {
	if cv.Box.ZIndex.Type == properties.TypeInteger {
		return cv.Box.ZIndex.Int(), true
	}
	return 0, false
}

// IsRTL reports direction: rtl.
func (cv *ComputedValues) IsRTL() bool {
	return cv.Box.Direction.Keyword == "rtl"
}

// WhiteSpace returns the white-space keyword.
func (cv *ComputedValues) WhiteSpace() string {
	return cv.Text.WhiteSpace.Keyword
}

// BorderWidth returns the used border width of a side; zero when the style is none or hidden.
func (cv *ComputedValues) BorderWidth(s Side) float64 {
	return cv.Border.Width[s].Px()
}
