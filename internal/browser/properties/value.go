// internal/browser/properties/value.go
package properties

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

// ValueType distinguishes the keyword forms of a value from its data forms.
type ValueType int

const (
	// TypeUnset is the zero value: nothing was declared.
	TypeUnset ValueType = iota
	TypeInherit
	TypeAuto
	TypeNone
	TypeNormal
	TypeKeyword
	TypeLength
	TypePercentage
	TypeNumber
	TypeInteger
	TypeColor
	TypeString
	TypeURI
	// TypeCounter is a counter() or counters() reference inside content.
	TypeCounter
	// TypeAttr is an attr() reference inside content.
	TypeAttr
	TypeList
	TypeCounters
	TypeTokens
)

var valueTypeNames = [...]string{
	TypeUnset:      "unset",
	TypeInherit:    "inherit",
	TypeAuto:       "auto",
	TypeNone:       "none",
	TypeNormal:     "normal",
	TypeKeyword:    "keyword",
	TypeLength:     "length",
	TypePercentage: "percentage",
	TypeNumber:     "number",
	TypeInteger:    "integer",
	TypeColor:      "color",
	TypeString:     "string",
	TypeURI:        "uri",
	TypeCounter:    "counter",
	TypeAttr:       "attr",
	TypeList:       "list",
	TypeCounters:   "counters",
	TypeTokens:     "tokens",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// Length is a number with a unit. Computed lengths always carry UnitPx.
type Length struct {
	Value float64
	Unit  Unit
}

// Counter is one entry of counter-reset or counter-increment.
type Counter struct {
	Name  string
	Value int
}

// Value is a single property value. It is a closed sum type: Type selects
// which of the data fields is meaningful. Values are treated as immutable
// once built; computing one produces a copy.
type Value struct {
	Property PropertyID
	Type     ValueType

	// Keyword holds the lowercase keyword for every keyword-like type
	// (inherit, auto, none, normal, keyword) and for named font weights.
	Keyword string
	Length  Length
	// Number holds numbers, integers and percentages (50% is 50).
	Number float64
	Color  color.RGBA
	// Text holds strings, URIs, and the name of counter() or attr() references.
	Text       string
	Counters   []Counter
	Components []Value
	// Tokens and Name are used by the generic fallback for unknown properties.
	// Name also holds the separator of a counters() reference.
	Tokens []parser.Token
	Name   string
}

func keyword(k string) Value { return Value{Type: TypeKeyword, Keyword: k} }
func auto() Value { return Value{Type: TypeAuto, Keyword: "auto"} }
func none() Value { return Value{Type: TypeNone, Keyword: "none"} }
func normal() Value { return Value{Type: TypeNormal, Keyword: "normal"} }
func inherit() Value { return Value{Type: TypeInherit, Keyword: "inherit"} }
func number(n float64) Value { return Value{Type: TypeNumber, Number: n} }
func percent(n float64) Value { return Value{Type: TypePercentage, Number: n} }
func str(s string) Value { return Value{Type: TypeString, Text: s} }
func currentColor() Value { return Value{Type: TypeKeyword, Keyword: "currentcolor"} }
func px(n float64) Value { return Value{Type: TypeLength, Length: Length{Value: n, Unit: UnitPx}} }
func rgba(c color.RGBA) Value { return Value{Type: TypeColor, Color: c} }
func lengthOf(l Length) Value { return Value{Type: TypeLength, Length: l} }
func integer(n int) Value { return Value{Type: TypeInteger, Number: float64(n)} }
func uri(s string) Value { return Value{Type: TypeURI, Text: s} }
func list(vs ...Value) Value { return Value{Type: TypeList, Components: vs} }

func withID(id PropertyID, v Value) Value {
	v.Property = id
	return v
}

// Px builds a computed pixel length for id.
func Px(id PropertyID, n float64) Value { return withID(id, px(n)) }

// Keyword builds a keyword value for id.
func Keyword(id PropertyID, k string) Value { return withID(id, keyword(strings.ToLower(k))) }

// Is reports whether the value is a keyword-like value spelled k.
func (v Value) Is(k string) bool {
	switch v.Type {
	case TypeInherit, TypeAuto, TypeNone, TypeNormal, TypeKeyword:
		return v.Keyword == k
	}
	return false
}

// IsSet reports whether the value holds anything.
func (v Value) IsSet() bool { return v.Type != TypeUnset }

// IsAuto reports whether the value is 'auto'.
func (v Value) IsAuto() bool { return v.Type == TypeAuto }

// Px returns a computed length in pixels. Non-length values yield 0.
func (v Value) Px() float64 {
	if v.Type == TypeLength {
		return v.Length.Value
	}
	return 0
}

// Resolve turns a computed length or percentage into pixels against ref.
// The second result is false for auto, none and other non-numeric values.
func (v Value) Resolve(ref float64) (float64, bool) {
	switch v.Type {
	case TypeLength:
		return v.Length.Value, true
	case TypePercentage:
		return v.Number * ref / 100, true
	case TypeNumber, TypeInteger:
		return v.Number, true
	}
	return 0, false
}

// ResolveOr is Resolve with a fallback for non-numeric values.
func (v Value) ResolveOr(ref, fallback float64) float64 {
	if n, ok := v.Resolve(ref); ok {
		return n
	}
	return fallback
}

// Int returns integer and number values truncated to int.
func (v Value) Int() int {
	return int(v.Number)
}

// String serializes the value back to CSS text.
func (v Value) String() string {
	switch v.Type {
	case TypeUnset:
		return ""
	case TypeInherit, TypeAuto, TypeNone, TypeNormal, TypeKeyword:
		return v.Keyword
	case TypeLength:
		return formatFloat(v.Length.Value) + string(v.Length.Unit)
	case TypePercentage:
		return formatFloat(v.Number) + "%"
	case TypeNumber:
		if v.Keyword != "" {
			return v.Keyword
		}
		return formatFloat(v.Number)
	case TypeInteger:
		return strconv.Itoa(int(v.Number))
	case TypeColor:
		if v.Color.A == 255 {
			return fmt.Sprintf("#%02x%02x%02x", v.Color.R, v.Color.G, v.Color.B)
		}
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", v.Color.R, v.Color.G, v.Color.B, formatFloat(float64(v.Color.A)/255))
	case TypeString:
		return strconv.Quote(v.Text)
	case TypeURI:
		return "url(" + v.Text + ")"
	case TypeCounter:
		if v.Name != "" {
			args := v.Text + ", " + strconv.Quote(v.Name)
			if v.Keyword != "" && v.Keyword != "decimal" {
				args += ", " + v.Keyword
			}
			return "counters(" + args + ")"
		}
		if v.Keyword != "" && v.Keyword != "decimal" {
			return "counter(" + v.Text + ", " + v.Keyword + ")"
		}
		return "counter(" + v.Text + ")"
	case TypeAttr:
		return "attr(" + v.Text + ")"
	case TypeList:
		parts := make([]string, len(v.Components))
		for i, c := range v.Components {
			parts[i] = c.String()
		}
		sep := " "
		if v.Property == FontFamily {
			sep = ", "
		}
		return strings.Join(parts, sep)
	case TypeCounters:
		parts := make([]string, len(v.Counters))
		for i, c := range v.Counters {
			parts[i] = c.Name + " " + strconv.Itoa(c.Value)
		}
		return strings.Join(parts, " ")
	case TypeTokens:
		return parser.TokensString(v.Tokens)
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
