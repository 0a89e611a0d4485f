// internal/browser/properties/parsers.go
package properties

import (
	"math"
	"sort"
	"strings"

	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

// Parser converts the value tokens of one declaration into longhand values.
// A parser that cannot consume every token returns nothing: the declaration
// is dropped, which is not an error.
type Parser interface {
	// Names lists the lowercase property names the parser accepts.
	Names() []string
	Parse(name string, tokens []parser.Token) []Value
}

// shorthands maps a shorthand name to the longhands it sets, in the order
// they are emitted.
var shorthands = map[string][]PropertyID{
	"margin":         {MarginTop, MarginRight, MarginBottom, MarginLeft},
	"padding":        {PaddingTop, PaddingRight, PaddingBottom, PaddingLeft},
	"border-width":   {BorderTopWidth, BorderRightWidth, BorderBottomWidth, BorderLeftWidth},
	"border-style":   {BorderTopStyle, BorderRightStyle, BorderBottomStyle, BorderLeftStyle},
	"border-color":   {BorderTopColor, BorderRightColor, BorderBottomColor, BorderLeftColor},
	"border-top":     {BorderTopWidth, BorderTopStyle, BorderTopColor},
	"border-right":   {BorderRightWidth, BorderRightStyle, BorderRightColor},
	"border-bottom":  {BorderBottomWidth, BorderBottomStyle, BorderBottomColor},
	"border-left":    {BorderLeftWidth, BorderLeftStyle, BorderLeftColor},
	"border-radius":  {BorderTopLeftRadius, BorderTopRightRadius, BorderBottomRightRadius, BorderBottomLeftRadius},
	"outline":        {OutlineWidth, OutlineStyle, OutlineColor},
	"font":           {FontStyle, FontVariant, FontWeight, FontSize, LineHeight, FontFamily},
	"background":     {BackgroundColor, BackgroundImage, BackgroundRepeat, BackgroundAttachment, BackgroundPosition},
	"list-style":     {ListStyleType, ListStylePosition, ListStyleImage},
	"flex":           {FlexGrow, FlexShrink, FlexBasis},
	"flex-flow":      {FlexDirection, FlexWrap},
	"border-spacing": {BorderSpacing},
	"border": {
		BorderTopWidth, BorderRightWidth, BorderBottomWidth, BorderLeftWidth,
		BorderTopStyle, BorderRightStyle, BorderBottomStyle, BorderLeftStyle,
		BorderTopColor, BorderRightColor, BorderBottomColor, BorderLeftColor,
	},
}

// Longhands returns the longhands a property name sets: itself for a
// longhand, its expansion for a shorthand, nothing for unknown names.
func Longhands(name string) []PropertyID {
	name = strings.ToLower(name)
	if ids, ok := shorthands[name]; ok {
		return ids
	}
	if id, ok := Lookup(name); ok {
		return []PropertyID{id}
	}
	return nil
}

// parseInherit handles the one value every property accepts.
func parseInherit(name string, tokens []parser.Token) ([]Value, bool) {
	tokens = parser.TrimWhitespace(tokens)
	if len(tokens) != 1 || !tokens[0].Is("inherit") {
		return nil, false
	}
	ids := Longhands(name)
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		out = append(out, withID(id, inherit()))
	}
	return out, true
}

// components splits a value at top-level whitespace. Commas and slashes are
// returned as single-token components of their own; function calls and
// parenthesized groups are kept whole.
func components(tokens []parser.Token) [][]parser.Token {
	var out [][]parser.Token
	start, depth := -1, 0
	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, tokens[start:end])
		}
		start = -1
	}
	for i, t := range tokens {
		if depth > 0 {
			switch t.Type {
			case parser.TokenFunction, parser.TokenParenOpen, parser.TokenBracketOpen:
				depth++
			case parser.TokenParenClose, parser.TokenBracketClose:
				depth--
			}
			continue
		}
		switch {
		case t.Type == parser.TokenWhitespace:
			flush(i)
		case t.Type == parser.TokenComma || t.IsDelim("/"):
			flush(i)
			out = append(out, tokens[i:i+1])
		default:
			if start < 0 {
				start = i
			}
			if t.Type == parser.TokenFunction || t.Type == parser.TokenParenOpen || t.Type == parser.TokenBracketOpen {
				depth++
			}
		}
	}
	flush(len(tokens))
	return out
}

func isComma(comp []parser.Token) bool {
	return len(comp) == 1 && comp[0].Type == parser.TokenComma
}

func isSlash(comp []parser.Token) bool {
	return len(comp) == 1 && comp[0].IsDelim("/")
}

// identOf returns the lowercase identifier of a single-ident component.
func identOf(comp []parser.Token) (string, bool) {
	if len(comp) != 1 || comp[0].Type != parser.TokenIdent {
		return "", false
	}
	return strings.ToLower(comp[0].Value), true
}

// keywordValue builds the value for a bare keyword, choosing the dedicated
// type for auto, none and normal.
func keywordValue(k string) Value {
	switch k {
	case "auto":
		return auto()
	case "none":
		return none()
	case "normal":
		return normal()
	}
	return keyword(k)
}

// lengthRule describes which forms a length-like property accepts.
type lengthRule struct {
	percent  bool
	negative bool
	auto     bool
	none     bool
	normal   bool
	// widths accepts thin, medium and thick.
	widths bool
	// unitless accepts plain numbers as pixel lengths.
	unitless bool
}

var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

// parseLength parses one component under rule r.
func parseLength(comp []parser.Token, r lengthRule) (Value, bool) {
	if len(comp) != 1 {
		return Value{}, false
	}
	t := comp[0]
	switch t.Type {
	case parser.TokenIdent:
		k := strings.ToLower(t.Value)
		switch {
		case k == "auto" && r.auto, k == "none" && r.none, k == "normal" && r.normal:
			return keywordValue(k), true
		case r.widths:
			if _, ok := borderWidthKeywords[k]; ok {
				return keyword(k), true
			}
		}
	case parser.TokenDimension:
		unit, ok := ParseUnit(t.Unit)
		if !ok || !finite(t.Number) || (!r.negative && t.Number < 0) {
			return Value{}, false
		}
		return lengthOf(Length{Value: t.Number, Unit: unit}), true
	case parser.TokenNumber:
		if !finite(t.Number) || (!r.negative && t.Number < 0) {
			return Value{}, false
		}
		if t.Number == 0 || r.unitless {
			return px(t.Number), true
		}
	case parser.TokenPercentage:
		if !r.percent || !finite(t.Number) || (!r.negative && t.Number < 0) {
			return Value{}, false
		}
		return percent(t.Number), true
	}
	return Value{}, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseNumber parses a single number component.
func parseNumber(comp []parser.Token, negative bool) (float64, bool) {
	if len(comp) != 1 || comp[0].Type != parser.TokenNumber || !finite(comp[0].Number) {
		return 0, false
	}
	if !negative && comp[0].Number < 0 {
		return 0, false
	}
	return comp[0].Number, true
}

// parseInteger parses a single integral number component.
func parseInteger(comp []parser.Token) (int, bool) {
	n, ok := parseNumber(comp, true)
	if !ok || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// parseURI accepts url(...) tokens and url("...") functions.
func parseURI(comp []parser.Token) (string, bool) {
	if len(comp) == 1 && comp[0].Type == parser.TokenURI {
		return comp[0].Value, true
	}
	if len(comp) >= 2 && comp[0].Type == parser.TokenFunction && strings.EqualFold(comp[0].Value, "url") {
		args, ok := functionArgs(comp)
		if ok && len(args) == 1 && len(args[0]) == 1 && args[0][0].Type == parser.TokenString {
			return args[0][0].Value, true
		}
	}
	return "", false
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// single parses a declaration made of exactly one component for a longhand.
func single(name string, tokens []parser.Token, parse func(comp []parser.Token) (Value, bool)) []Value {
	id, ok := Lookup(name)
	if !ok {
		return nil
	}
	comps := components(tokens)
	if len(comps) != 1 {
		return nil
	}
	v, ok := parse(comps[0])
	if !ok {
		return nil
	}
	return []Value{withID(id, v)}
}

// -- Keyword properties --

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var (
	borderStyleKeywords = set("none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset")
	listStyleTypes      = set("disc", "circle", "square", "decimal", "decimal-leading-zero", "lower-roman", "upper-roman",
		"lower-greek", "lower-latin", "upper-latin", "armenian", "georgian", "lower-alpha", "upper-alpha", "none")
	listStylePositions = set("inside", "outside")
	backgroundRepeats  = set("repeat", "repeat-x", "repeat-y", "no-repeat")
	backgroundAttach   = set("scroll", "fixed")
	fontStyles         = set("normal", "italic", "oblique")
	fontVariants       = set("normal", "small-caps")
	pageBreaks         = set("auto", "always", "avoid", "left", "right")
)

// keywordParser handles every property whose value is one keyword.
type keywordParser struct {
	keywords map[string]map[string]bool
}

func newKeywordParser() *keywordParser {
	return &keywordParser{keywords: map[string]map[string]bool{
		"display": set("inline", "block", "list-item", "run-in", "inline-block", "table", "inline-table",
			"table-row-group", "table-header-group", "table-footer-group", "table-row", "table-column-group",
			"table-column", "table-cell", "table-caption", "none", "flex", "inline-flex"),
		"position":              set("static", "relative", "absolute", "fixed"),
		"float":                 set("left", "right", "none"),
		"clear":                 set("none", "left", "right", "both"),
		"visibility":            set("visible", "hidden", "collapse"),
		"overflow":              set("visible", "hidden", "scroll", "auto"),
		"box-sizing":            set("content-box", "border-box"),
		"direction":             set("ltr", "rtl"),
		"unicode-bidi":          set("normal", "embed", "bidi-override"),
		"text-align":            set("left", "right", "center", "justify", "start", "end"),
		"text-transform":        set("capitalize", "uppercase", "lowercase", "none"),
		"white-space":           set("normal", "pre", "nowrap", "pre-wrap", "pre-line"),
		"flex-direction":        set("row", "row-reverse", "column", "column-reverse"),
		"flex-wrap":             set("nowrap", "wrap", "wrap-reverse"),
		"justify-content":       set("flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly"),
		"align-items":           set("flex-start", "flex-end", "center", "baseline", "stretch"),
		"align-self":            set("auto", "flex-start", "flex-end", "center", "baseline", "stretch"),
		"align-content":         set("flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly", "stretch"),
		"table-layout":          set("auto", "fixed"),
		"border-collapse":       set("collapse", "separate"),
		"caption-side":          set("top", "bottom"),
		"empty-cells":           set("show", "hide"),
		"background-repeat":     backgroundRepeats,
		"background-attachment": backgroundAttach,
		"list-style-type":       listStyleTypes,
		"list-style-position":   listStylePositions,
		"font-style":            fontStyles,
		"font-variant":          fontVariants,
		"page-break-before":     pageBreaks,
		"page-break-after":      pageBreaks,
		"page-break-inside":     set("auto", "avoid"),
		"outline-style":         borderStyleKeywords,
		"cursor": set("auto", "crosshair", "default", "pointer", "move", "e-resize", "ne-resize", "nw-resize",
			"n-resize", "se-resize", "sw-resize", "s-resize", "w-resize", "text", "wait", "help", "progress"),
	}}
}

func (p *keywordParser) Names() []string { return sortedNames(p.keywords) }

func (p *keywordParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	allowed := p.keywords[name]
	return single(name, tokens, func(comp []parser.Token) (Value, bool) {
		k, ok := identOf(comp)
		if !ok || !allowed[k] {
			return Value{}, false
		}
		if k == "auto" {
			return auto(), true
		}
		return keyword(k), true
	})
}

// -- Length properties --

type lengthParser struct {
	rules map[string]lengthRule
}

func newLengthParser() *lengthParser {
	size := lengthRule{percent: true, auto: true}
	minSize := lengthRule{percent: true}
	maxSize := lengthRule{percent: true, none: true}
	offset := lengthRule{percent: true, negative: true, auto: true}
	spacing := lengthRule{negative: true, normal: true}
	return &lengthParser{rules: map[string]lengthRule{
		"width": size, "height": size,
		"min-width": minSize, "min-height": minSize,
		"max-width": maxSize, "max-height": maxSize,
		"top": offset, "right": offset, "bottom": offset, "left": offset,
		"letter-spacing": spacing, "word-spacing": spacing,
		"text-indent":   {percent: true, negative: true},
		"flex-basis":    {percent: true, auto: true},
		"outline-width": {widths: true},
	}}
}

func (p *lengthParser) Names() []string { return sortedNames(p.rules) }

func (p *lengthParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	rule := p.rules[name]
	return single(name, tokens, func(comp []parser.Token) (Value, bool) {
		return parseLength(comp, rule)
	})
}

// -- Numeric properties --

type numberRule struct {
	integer  bool
	negative bool
	auto     bool
	clamp01  bool
}

type numberParser struct {
	rules map[string]numberRule
}

func newNumberParser() *numberParser {
	return &numberParser{rules: map[string]numberRule{
		"opacity":     {negative: true, clamp01: true},
		"flex-grow":   {},
		"flex-shrink": {},
		"z-index":     {integer: true, negative: true, auto: true},
		"order":       {integer: true, negative: true},
		"orphans":     {integer: true},
		"widows":      {integer: true},
	}}
}

func (p *numberParser) Names() []string { return sortedNames(p.rules) }

func (p *numberParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	rule := p.rules[name]
	return single(name, tokens, func(comp []parser.Token) (Value, bool) {
		if k, ok := identOf(comp); ok {
			if k == "auto" && rule.auto {
				return auto(), true
			}
			return Value{}, false
		}
		if rule.integer {
			n, ok := parseInteger(comp)
			if !ok || (!rule.negative && n < 0) {
				return Value{}, false
			}
			return integer(n), true
		}
		n, ok := parseNumber(comp, rule.negative)
		if !ok {
			return Value{}, false
		}
		if rule.clamp01 {
			n = clamp01(n)
		}
		return number(n), true
	})
}

// -- Color properties --

type colorParser struct{}

func (colorParser) Names() []string { return []string{"background-color", "color", "outline-color"} }

func (colorParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	return single(name, tokens, func(comp []parser.Token) (Value, bool) {
		if name == "outline-color" {
			if k, ok := identOf(comp); ok && k == "invert" {
				return keyword(k), true
			}
		}
		return parseColor(comp)
	})
}

// -- Fallback --

// genericParser keeps the raw tokens of properties without a dedicated parser.
type genericParser struct{}

func (genericParser) Names() []string { return nil }

func (genericParser) Parse(name string, tokens []parser.Token) []Value {
	name = strings.ToLower(name)
	tokens = parser.TrimWhitespace(tokens)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) == 1 && tokens[0].Is("inherit") {
		return []Value{{Property: PropertyGeneric, Type: TypeInherit, Keyword: "inherit", Name: name}}
	}
	kept := make([]parser.Token, len(tokens))
	copy(kept, tokens)
	return []Value{{Property: PropertyGeneric, Type: TypeTokens, Tokens: kept, Name: name}}
}
