// internal/browser/properties/parsers_font.go
package properties

import (
	"strings"

	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

var (
	fontSizeKeywords = set("xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large", "larger", "smaller")
	genericFamilies  = set("serif", "sans-serif", "monospace", "cursive", "fantasy")
	systemFonts      = set("caption", "icon", "menu", "message-box", "small-caption", "status-bar")
)

func parseFontSize(c []parser.Token) (Value, bool) {
	if k, ok := identOf(c); ok {
		if fontSizeKeywords[k] {
			return keyword(k), true
		}
		return Value{}, false
	}
	return parseLength(c, lengthRule{percent: true})
}

func parseFontWeight(c []parser.Token) (Value, bool) {
	if k, ok := identOf(c); ok {
		switch k {
		case "normal":
			return Value{Type: TypeNumber, Number: 400, Keyword: k}, true
		case "bold":
			return Value{Type: TypeNumber, Number: 700, Keyword: k}, true
		case "bolder", "lighter":
			return keyword(k), true
		}
		return Value{}, false
	}
	n, ok := parseInteger(c)
	if !ok || n < 100 || n > 900 || n%100 != 0 {
		return Value{}, false
	}
	return number(float64(n)), true
}

func parseLineHeight(c []parser.Token) (Value, bool) {
	if k, ok := identOf(c); ok && k == "normal" {
		return normal(), true
	}
	if n, ok := parseNumber(c, false); ok {
		return number(n), true
	}
	return parseLength(c, lengthRule{percent: true})
}

// parseFamilies parses a comma separated family list. Unquoted names made of
// several identifiers are joined with single spaces.
func parseFamilies(comps [][]parser.Token) (Value, bool) {
	var families []Value
	var words []string
	quoted := false
	flush := func() bool {
		if len(words) == 0 {
			return false
		}
		name := strings.Join(words, " ")
		switch {
		case quoted:
			families = append(families, str(name))
		case len(words) == 1 && genericFamilies[strings.ToLower(name)]:
			families = append(families, keyword(strings.ToLower(name)))
		default:
			families = append(families, str(name))
		}
		words, quoted = nil, false
		return true
	}
	for _, c := range comps {
		switch {
		case isComma(c):
			if !flush() {
				return Value{}, false
			}
		case len(c) == 1 && c[0].Type == parser.TokenString:
			if len(words) > 0 {
				return Value{}, false
			}
			words, quoted = []string{c[0].Value}, true
		case len(c) == 1 && c[0].Type == parser.TokenIdent:
			if quoted || c[0].Is("inherit") {
				return Value{}, false
			}
			words = append(words, c[0].Value)
		default:
			return Value{}, false
		}
	}
	if !flush() {
		return Value{}, false
	}
	return list(families...), true
}

// fontParser covers the font shorthand and the font longhands that need more
// than a keyword set.
type fontParser struct{}

func (fontParser) Names() []string {
	return []string{"font", "font-family", "font-size", "font-weight", "line-height"}
}

func (fontParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	switch name {
	case "font-size":
		return single(name, tokens, parseFontSize)
	case "font-weight":
		return single(name, tokens, parseFontWeight)
	case "line-height":
		return single(name, tokens, parseLineHeight)
	case "font-family":
		v, ok := parseFamilies(components(tokens))
		if !ok {
			return nil
		}
		return []Value{withID(FontFamily, v)}
	}
	return parseFontShorthand(components(tokens))
}

func parseFontShorthand(comps [][]parser.Token) []Value {
	var fontStyle, variant, weight, size, lineHeight Value
	emit := func(family Value) []Value {
		return []Value{
			orInitial(fontStyle, FontStyle),
			orInitial(variant, FontVariant),
			orInitial(weight, FontWeight),
			withID(FontSize, size),
			orInitial(lineHeight, LineHeight),
			withID(FontFamily, family),
		}
	}
	if len(comps) == 1 {
		if k, ok := identOf(comps[0]); ok && systemFonts[k] {
			size = keyword("small")
			return emit(list(keyword("sans-serif")))
		}
	}

	// Up to three of style, variant and weight in any order. Each normal
	// stands for one of them.
	i, normals := 0, 0
prefix:
	for ; i < len(comps) && i < 3; i++ {
		c := comps[i]
		k, _ := identOf(c)
		switch {
		case k == "normal":
			normals++
		case !fontStyle.IsSet() && fontStyles[k]:
			fontStyle = keyword(k)
		case !variant.IsSet() && fontVariants[k]:
			variant = keyword(k)
		case !weight.IsSet():
			w, ok := parseFontWeight(c)
			if !ok {
				break prefix
			}
			weight = w
		default:
			break prefix
		}
	}
	given := normals
	for _, v := range []Value{fontStyle, variant, weight} {
		if v.IsSet() {
			given++
		}
	}
	if given > 3 || i >= len(comps) {
		return nil
	}
	var ok bool
	if size, ok = parseFontSize(comps[i]); !ok {
		return nil
	}
	i++
	if i < len(comps) && isSlash(comps[i]) {
		if i+1 >= len(comps) {
			return nil
		}
		if lineHeight, ok = parseLineHeight(comps[i+1]); !ok {
			return nil
		}
		i += 2
	}
	if i >= len(comps) {
		return nil
	}
	family, ok := parseFamilies(comps[i:])
	if !ok {
		return nil
	}
	return emit(family)
}

// -- vertical-align and text-decoration --

var verticalAlignKeywords = set("baseline", "sub", "super", "top", "text-top", "middle", "bottom", "text-bottom")

type textParser struct{}

func (textParser) Names() []string { return []string{"text-decoration", "vertical-align"} }

func (textParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	if name == "vertical-align" {
		return single(name, tokens, func(c []parser.Token) (Value, bool) {
			if k, ok := identOf(c); ok {
				if verticalAlignKeywords[k] {
					return keyword(k), true
				}
				return Value{}, false
			}
			return parseLength(c, lengthRule{percent: true, negative: true})
		})
	}
	comps := components(tokens)
	if len(comps) == 1 {
		if k, ok := identOf(comps[0]); ok && k == "none" {
			return []Value{withID(TextDecoration, none())}
		}
	}
	if len(comps) == 0 || len(comps) > 4 {
		return nil
	}
	seen := map[string]bool{}
	lines := make([]Value, 0, len(comps))
	for _, c := range comps {
		k, ok := identOf(c)
		if !ok || seen[k] {
			return nil
		}
		switch k {
		case "underline", "overline", "line-through", "blink":
		default:
			return nil
		}
		seen[k] = true
		lines = append(lines, keyword(k))
	}
	return []Value{withID(TextDecoration, list(lines...))}
}
