// internal/browser/properties/ids.go
package properties

import (
	"image/color"
	"strings"
)

// PropertyID identifies a longhand CSS property. Shorthands never appear as
// IDs; their parsers expand into the longhands they cover.
type PropertyID int

const (
	PropertyGeneric PropertyID = iota

	// Box
	Display
	Position
	Float
	Clear
	Visibility
	Overflow
	BoxSizing
	ZIndex
	Width
	Height
	MinWidth
	MinHeight
	MaxWidth
	MaxHeight
	Top
	Right
	Bottom
	Left
	VerticalAlign
	Direction
	UnicodeBidi

	// Border
	BorderTopWidth
	BorderRightWidth
	BorderBottomWidth
	BorderLeftWidth
	BorderTopStyle
	BorderRightStyle
	BorderBottomStyle
	BorderLeftStyle
	BorderTopColor
	BorderRightColor
	BorderBottomColor
	BorderLeftColor
	BorderTopLeftRadius
	BorderTopRightRadius
	BorderBottomRightRadius
	BorderBottomLeftRadius

	// Margin, Padding
	MarginTop
	MarginRight
	MarginBottom
	MarginLeft
	PaddingTop
	PaddingRight
	PaddingBottom
	PaddingLeft

	// Font
	FontFamily
	FontSize
	FontStyle
	FontVariant
	FontWeight
	LineHeight

	// Text
	Color
	LetterSpacing
	WordSpacing
	TextAlign
	TextDecoration
	TextIndent
	TextTransform
	WhiteSpace

	// Flex
	FlexDirection
	FlexWrap
	FlexGrow
	FlexShrink
	FlexBasis
	Order
	JustifyContent
	AlignItems
	AlignSelf
	AlignContent

	// Table
	TableLayout
	BorderCollapse
	BorderSpacing
	CaptionSide
	EmptyCells

	// Background
	BackgroundColor
	BackgroundImage
	BackgroundRepeat
	BackgroundAttachment
	BackgroundPosition

	// Outline
	OutlineWidth
	OutlineStyle
	OutlineColor

	// List style
	ListStyleType
	ListStylePosition
	ListStyleImage

	// Misc
	Opacity
	Cursor
	Orphans
	Widows
	PageBreakBefore
	PageBreakAfter
	PageBreakInside
	Content
	Quotes

	// Counter
	CounterReset
	CounterIncrement

	propertyCount
)

// Count is the number of property IDs, PropertyGeneric included.
const Count = int(propertyCount)

// Group names the ComputedValues sub-object a property lives in.
type Group int

const (
	GroupGeneric Group = iota
	GroupBox
	GroupBorder
	GroupMargin
	GroupPadding
	GroupFont
	GroupText
	GroupFlex
	GroupTable
	GroupBackground
	GroupOutline
	GroupListStyle
	GroupMisc
	GroupCounter
)

type propertyInfo struct {
	name      string
	group     Group
	inherited bool
	initial   Value
}

var (
	black       = color.RGBA{A: 255}
	transparent = color.RGBA{}
)

var propertyTable = [propertyCount]propertyInfo{
	PropertyGeneric: {"", GroupGeneric, false, Value{Type: TypeNone}},

	Display:       {"display", GroupBox, false, keyword("inline")},
	Position:      {"position", GroupBox, false, keyword("static")},
	Float:         {"float", GroupBox, false, keyword("none")},
	Clear:         {"clear", GroupBox, false, keyword("none")},
	Visibility:    {"visibility", GroupBox, true, keyword("visible")},
	Overflow:      {"overflow", GroupBox, false, keyword("visible")},
	BoxSizing:     {"box-sizing", GroupBox, false, keyword("content-box")},
	ZIndex:        {"z-index", GroupBox, false, auto()},
	Width:         {"width", GroupBox, false, auto()},
	Height:        {"height", GroupBox, false, auto()},
	MinWidth:      {"min-width", GroupBox, false, px(0)},
	MinHeight:     {"min-height", GroupBox, false, px(0)},
	MaxWidth:      {"max-width", GroupBox, false, none()},
	MaxHeight:     {"max-height", GroupBox, false, none()},
	Top:           {"top", GroupBox, false, auto()},
	Right:         {"right", GroupBox, false, auto()},
	Bottom:        {"bottom", GroupBox, false, auto()},
	Left:          {"left", GroupBox, false, auto()},
	VerticalAlign: {"vertical-align", GroupBox, false, keyword("baseline")},
	Direction:     {"direction", GroupBox, true, keyword("ltr")},
	UnicodeBidi:   {"unicode-bidi", GroupBox, false, keyword("normal")},

	BorderTopWidth:          {"border-top-width", GroupBorder, false, px(3)},
	BorderRightWidth:        {"border-right-width", GroupBorder, false, px(3)},
	BorderBottomWidth:       {"border-bottom-width", GroupBorder, false, px(3)},
	BorderLeftWidth:         {"border-left-width", GroupBorder, false, px(3)},
	BorderTopStyle:          {"border-top-style", GroupBorder, false, keyword("none")},
	BorderRightStyle:        {"border-right-style", GroupBorder, false, keyword("none")},
	BorderBottomStyle:       {"border-bottom-style", GroupBorder, false, keyword("none")},
	BorderLeftStyle:         {"border-left-style", GroupBorder, false, keyword("none")},
	BorderTopColor:          {"border-top-color", GroupBorder, false, currentColor()},
	BorderRightColor:        {"border-right-color", GroupBorder, false, currentColor()},
	BorderBottomColor:       {"border-bottom-color", GroupBorder, false, currentColor()},
	BorderLeftColor:         {"border-left-color", GroupBorder, false, currentColor()},
	BorderTopLeftRadius:     {"border-top-left-radius", GroupBorder, false, px(0)},
	BorderTopRightRadius:    {"border-top-right-radius", GroupBorder, false, px(0)},
	BorderBottomRightRadius: {"border-bottom-right-radius", GroupBorder, false, px(0)},
	BorderBottomLeftRadius:  {"border-bottom-left-radius", GroupBorder, false, px(0)},

	MarginTop:     {"margin-top", GroupMargin, false, px(0)},
	MarginRight:   {"margin-right", GroupMargin, false, px(0)},
	MarginBottom:  {"margin-bottom", GroupMargin, false, px(0)},
	MarginLeft:    {"margin-left", GroupMargin, false, px(0)},
	PaddingTop:    {"padding-top", GroupPadding, false, px(0)},
	PaddingRight:  {"padding-right", GroupPadding, false, px(0)},
	PaddingBottom: {"padding-bottom", GroupPadding, false, px(0)},
	PaddingLeft:   {"padding-left", GroupPadding, false, px(0)},

	FontFamily:  {"font-family", GroupFont, true, Value{Type: TypeList, Components: []Value{{Type: TypeKeyword, Keyword: "serif"}}}},
	FontSize:    {"font-size", GroupFont, true, keyword("medium")},
	FontStyle:   {"font-style", GroupFont, true, keyword("normal")},
	FontVariant: {"font-variant", GroupFont, true, keyword("normal")},
	FontWeight:  {"font-weight", GroupFont, true, Value{Type: TypeNumber, Keyword: "normal", Number: 400}},
	LineHeight:  {"line-height", GroupFont, true, normal()},

	Color:          {"color", GroupText, true, Value{Type: TypeColor, Color: black}},
	LetterSpacing:  {"letter-spacing", GroupText, true, normal()},
	WordSpacing:    {"word-spacing", GroupText, true, normal()},
	TextAlign:      {"text-align", GroupText, true, keyword("start")},
	TextDecoration: {"text-decoration", GroupText, false, none()},
	TextIndent:     {"text-indent", GroupText, true, px(0)},
	TextTransform:  {"text-transform", GroupText, true, keyword("none")},
	WhiteSpace:     {"white-space", GroupText, true, keyword("normal")},

	FlexDirection:  {"flex-direction", GroupFlex, false, keyword("row")},
	FlexWrap:       {"flex-wrap", GroupFlex, false, keyword("nowrap")},
	FlexGrow:       {"flex-grow", GroupFlex, false, number(0)},
	FlexShrink:     {"flex-shrink", GroupFlex, false, number(1)},
	FlexBasis:      {"flex-basis", GroupFlex, false, auto()},
	Order:          {"order", GroupFlex, false, Value{Type: TypeInteger}},
	JustifyContent: {"justify-content", GroupFlex, false, keyword("flex-start")},
	AlignItems:     {"align-items", GroupFlex, false, keyword("stretch")},
	AlignSelf:      {"align-self", GroupFlex, false, auto()},
	AlignContent:   {"align-content", GroupFlex, false, keyword("stretch")},

	TableLayout:    {"table-layout", GroupTable, false, auto()},
	BorderCollapse: {"border-collapse", GroupTable, true, keyword("separate")},
	BorderSpacing:  {"border-spacing", GroupTable, true, Value{Type: TypeList, Components: []Value{px(0), px(0)}}},
	CaptionSide:    {"caption-side", GroupTable, true, keyword("top")},
	EmptyCells:     {"empty-cells", GroupTable, true, keyword("show")},

	BackgroundColor:      {"background-color", GroupBackground, false, Value{Type: TypeColor, Color: transparent}},
	BackgroundImage:      {"background-image", GroupBackground, false, none()},
	BackgroundRepeat:     {"background-repeat", GroupBackground, false, keyword("repeat")},
	BackgroundAttachment: {"background-attachment", GroupBackground, false, keyword("scroll")},
	BackgroundPosition:   {"background-position", GroupBackground, false, Value{Type: TypeList, Components: []Value{percent(0), percent(0)}}},

	OutlineWidth: {"outline-width", GroupOutline, false, px(3)},
	OutlineStyle: {"outline-style", GroupOutline, false, keyword("none")},
	OutlineColor: {"outline-color", GroupOutline, false, keyword("invert")},

	ListStyleType:     {"list-style-type", GroupListStyle, true, keyword("disc")},
	ListStylePosition: {"list-style-position", GroupListStyle, true, keyword("outside")},
	ListStyleImage:    {"list-style-image", GroupListStyle, true, none()},

	Opacity:         {"opacity", GroupMisc, false, number(1)},
	Cursor:          {"cursor", GroupMisc, true, auto()},
	Orphans:         {"orphans", GroupMisc, true, Value{Type: TypeInteger, Number: 2}},
	Widows:          {"widows", GroupMisc, true, Value{Type: TypeInteger, Number: 2}},
	PageBreakBefore: {"page-break-before", GroupMisc, false, auto()},
	PageBreakAfter:  {"page-break-after", GroupMisc, false, auto()},
	PageBreakInside: {"page-break-inside", GroupMisc, false, auto()},
	Content:         {"content", GroupMisc, false, normal()},
	Quotes:          {"quotes", GroupMisc, true, Value{Type: TypeList, Components: []Value{str("“"), str("”"), str("‘"), str("’")}}},

	CounterReset:     {"counter-reset", GroupCounter, false, none()},
	CounterIncrement: {"counter-increment", GroupCounter, false, none()},
}

var propertyByName = func() map[string]PropertyID {
	m := make(map[string]PropertyID, propertyCount)
	for id := PropertyID(1); id < propertyCount; id++ {
		m[propertyTable[id].name] = id
	}
	return m
}()

// Lookup finds the longhand with the given name, case-insensitively.
func Lookup(name string) (PropertyID, bool) {
	id, ok := propertyByName[strings.ToLower(name)]
	return id, ok
}

// String returns the CSS name of the property.
func (id PropertyID) String() string {
	if id < 0 || id >= propertyCount {
		return "unknown"
	}
	if id == PropertyGeneric {
		return "generic"
	}
	return propertyTable[id].name
}

// Inherited reports whether the property inherits by default.
func (id PropertyID) Inherited() bool {
	if id < 0 || id >= propertyCount {
		return false
	}
	return propertyTable[id].inherited
}

// Group returns the ComputedValues group holding the property.
func (id PropertyID) Group() Group {
	if id < 0 || id >= propertyCount {
		return GroupGeneric
	}
	return propertyTable[id].group
}

// Initial returns the initial value of the property in specified form; keywords
// such as font-size medium or currentColor still need computing.
func (id PropertyID) Initial() Value {
	if id < 0 || id >= propertyCount {
		return Value{Type: TypeNone}
	}
	v := propertyTable[id].initial
	v.Property = id
	return v
}

// All returns every longhand ID in definition order.
func All() []PropertyID {
	ids := make([]PropertyID, 0, propertyCount-1)
	for id := PropertyID(1); id < propertyCount; id++ {
		ids = append(ids, id)
	}
	return ids
}
