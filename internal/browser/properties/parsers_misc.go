// internal/browser/properties/parsers_misc.go
package properties

import (
	"strings"

	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

// -- background --

var positionKeywords = map[string]float64{"left": 0, "top": 0, "center": 50, "right": 100, "bottom": 100}

func parseImage(c []parser.Token) (Value, bool) {
	if k, ok := identOf(c); ok {
		if k == "none" {
			return none(), true
		}
		return Value{}, false
	}
	if u, ok := parseURI(c); ok {
		return uri(u), true
	}
	return Value{}, false
}

func isPositionComponent(c []parser.Token) bool {
	if k, ok := identOf(c); ok {
		_, known := positionKeywords[k]
		return known
	}
	_, ok := parseLength(c, lengthRule{percent: true, negative: true})
	return ok
}

// parsePosition parses one or two background-position components into an
// x, y list. Keywords become percentages.
func parsePosition(comps [][]parser.Token) (Value, bool) {
	if len(comps) < 1 || len(comps) > 2 {
		return Value{}, false
	}
	type part struct {
		v  Value
		kw string
	}
	parts := make([]part, len(comps))
	for i, c := range comps {
		if k, ok := identOf(c); ok {
			pct, known := positionKeywords[k]
			if !known {
				return Value{}, false
			}
			parts[i] = part{v: percent(pct), kw: k}
			continue
		}
		v, ok := parseLength(c, lengthRule{percent: true, negative: true})
		if !ok {
			return Value{}, false
		}
		parts[i] = part{v: v}
	}
	vertical := func(k string) bool { return k == "top" || k == "bottom" }
	horizontal := func(k string) bool { return k == "left" || k == "right" }
	if len(parts) == 1 {
		if vertical(parts[0].kw) {
			return list(percent(50), parts[0].v), true
		}
		return list(parts[0].v, percent(50)), true
	}
	x, y := parts[0], parts[1]
	if vertical(x.kw) || horizontal(y.kw) {
		if x.kw == "" || y.kw == "" {
			return Value{}, false
		}
		x, y = y, x
	}
	if vertical(x.kw) || horizontal(y.kw) {
		return Value{}, false
	}
	return list(x.v, y.v), true
}

type backgroundParser struct{}

func (backgroundParser) Names() []string {
	return []string{"background", "background-image", "background-position"}
}

func (backgroundParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	switch name {
	case "background-image":
		return single(name, tokens, parseImage)
	case "background-position":
		v, ok := parsePosition(components(tokens))
		if !ok {
			return nil
		}
		return []Value{withID(BackgroundPosition, v)}
	}

	var bgColor, image, repeat, attachment, position Value
	comps := components(tokens)
	if len(comps) == 0 {
		return nil
	}
	for i := 0; i < len(comps); i++ {
		c := comps[i]
		k, _ := identOf(c)
		switch {
		case !repeat.IsSet() && backgroundRepeats[k]:
			repeat = keyword(k)
		case !attachment.IsSet() && backgroundAttach[k]:
			attachment = keyword(k)
		case !position.IsSet() && isPositionComponent(c):
			n := 1
			if i+1 < len(comps) && isPositionComponent(comps[i+1]) {
				n = 2
			}
			v, ok := parsePosition(comps[i : i+n])
			if !ok {
				return nil
			}
			position = v
			i += n - 1
		default:
			if v, ok := parseImage(c); ok && !image.IsSet() {
				image = v
				continue
			}
			if v, ok := parseColor(c); ok && !bgColor.IsSet() {
				bgColor = v
				continue
			}
			return nil
		}
	}
	return []Value{
		orInitial(bgColor, BackgroundColor),
		orInitial(image, BackgroundImage),
		orInitial(repeat, BackgroundRepeat),
		orInitial(attachment, BackgroundAttachment),
		orInitial(position, BackgroundPosition),
	}
}

// -- list-style --

type listStyleParser struct{}

func (listStyleParser) Names() []string { return []string{"list-style", "list-style-image"} }

func (listStyleParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	if name == "list-style-image" {
		return single(name, tokens, parseImage)
	}
	comps := components(tokens)
	if len(comps) < 1 || len(comps) > 3 {
		return nil
	}
	var typ, pos, image Value
	nones := 0
	for _, c := range comps {
		k, _ := identOf(c)
		switch {
		case k == "none":
			nones++
		case !typ.IsSet() && listStyleTypes[k]:
			typ = keyword(k)
		case !pos.IsSet() && listStylePositions[k]:
			pos = keyword(k)
		default:
			v, ok := parseImage(c)
			if !ok || image.IsSet() {
				return nil
			}
			image = v
		}
	}
	// none sets whichever of type and image is still free.
	for ; nones > 0; nones-- {
		switch {
		case !typ.IsSet():
			typ = keyword("none")
		case !image.IsSet():
			image = none()
		default:
			return nil
		}
	}
	return []Value{orInitial(typ, ListStyleType), orInitial(pos, ListStylePosition), orInitial(image, ListStyleImage)}
}

// -- counters --

type counterParser struct{}

func (counterParser) Names() []string { return []string{"counter-increment", "counter-reset"} }

func (counterParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	id, _ := Lookup(name)
	comps := components(tokens)
	if len(comps) == 1 {
		if k, ok := identOf(comps[0]); ok && k == "none" {
			return []Value{withID(id, none())}
		}
	}
	if len(comps) == 0 {
		return nil
	}
	step := 0
	if id == CounterIncrement {
		step = 1
	}
	var counters []Counter
	for i := 0; i < len(comps); i++ {
		c := comps[i]
		if len(c) != 1 || c[0].Type != parser.TokenIdent {
			return nil
		}
		switch strings.ToLower(c[0].Value) {
		case "none", "inherit", "initial":
			return nil
		}
		entry := Counter{Name: c[0].Value, Value: step}
		if i+1 < len(comps) {
			if n, ok := parseInteger(comps[i+1]); ok {
				entry.Value = n
				i++
			}
		}
		counters = append(counters, entry)
	}
	return []Value{withID(id, Value{Type: TypeCounters, Counters: counters})}
}

// -- content and quotes --

var quoteKeywords = set("open-quote", "close-quote", "no-open-quote", "no-close-quote")

// parseContentItem parses one generated content item.
func parseContentItem(c []parser.Token) (Value, bool) {
	if len(c) == 1 {
		switch c[0].Type {
		case parser.TokenString:
			return str(c[0].Value), true
		case parser.TokenURI:
			return uri(c[0].Value), true
		case parser.TokenIdent:
			k := strings.ToLower(c[0].Value)
			if quoteKeywords[k] {
				return keyword(k), true
			}
			return Value{}, false
		}
		return Value{}, false
	}
	if c[0].Type != parser.TokenFunction {
		return Value{}, false
	}
	args, ok := functionArgs(c)
	if !ok {
		return Value{}, false
	}
	identArg := func(a []parser.Token) (string, bool) {
		if len(a) != 1 || a[0].Type != parser.TokenIdent {
			return "", false
		}
		return a[0].Value, true
	}
	styleArg := func(a []parser.Token) (string, bool) {
		k, ok := identOf(a)
		if !ok || !listStyleTypes[k] {
			return "", false
		}
		return k, true
	}
	switch strings.ToLower(c[0].Value) {
	case "counter":
		if len(args) < 1 || len(args) > 2 {
			return Value{}, false
		}
		name, ok := identArg(args[0])
		if !ok {
			return Value{}, false
		}
		v := Value{Type: TypeCounter, Text: name, Keyword: "decimal"}
		if len(args) == 2 {
			if v.Keyword, ok = styleArg(args[1]); !ok {
				return Value{}, false
			}
		}
		return v, true
	case "counters":
		if len(args) < 2 || len(args) > 3 {
			return Value{}, false
		}
		name, ok := identArg(args[0])
		if !ok || len(args[1]) != 1 || args[1][0].Type != parser.TokenString {
			return Value{}, false
		}
		v := Value{Type: TypeCounter, Text: name, Keyword: "decimal", Name: args[1][0].Value}
		if len(args) == 3 {
			if v.Keyword, ok = styleArg(args[2]); !ok {
				return Value{}, false
			}
		}
		return v, true
	case "attr":
		if len(args) != 1 {
			return Value{}, false
		}
		name, ok := identArg(args[0])
		if !ok {
			return Value{}, false
		}
		return Value{Type: TypeAttr, Text: name}, true
	case "url":
		if u, ok := parseURI(c); ok {
			return uri(u), true
		}
	}
	return Value{}, false
}

type contentParser struct{}

func (contentParser) Names() []string { return []string{"content", "quotes"} }

func (contentParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	comps := components(tokens)
	if len(comps) == 0 {
		return nil
	}
	id, _ := Lookup(name)
	if len(comps) == 1 {
		if k, ok := identOf(comps[0]); ok {
			switch {
			case k == "none":
				return []Value{withID(id, none())}
			case k == "normal" && id == Content:
				return []Value{withID(id, normal())}
			}
		}
	}
	items := make([]Value, 0, len(comps))
	for _, c := range comps {
		if id == Quotes {
			if len(c) != 1 || c[0].Type != parser.TokenString {
				return nil
			}
			items = append(items, str(c[0].Value))
			continue
		}
		v, ok := parseContentItem(c)
		if !ok {
			return nil
		}
		items = append(items, v)
	}
	if id == Quotes && len(items)%2 != 0 {
		return nil
	}
	return []Value{withID(id, list(items...))}
}

// -- flex --

type flexParser struct{}

func (flexParser) Names() []string { return []string{"flex", "flex-flow"} }

func (flexParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	comps := components(tokens)
	if name == "flex-flow" {
		if len(comps) < 1 || len(comps) > 2 {
			return nil
		}
		var dir, wrap Value
		for _, c := range comps {
			k, _ := identOf(c)
			switch {
			case !dir.IsSet() && (k == "row" || k == "row-reverse" || k == "column" || k == "column-reverse"):
				dir = keyword(k)
			case !wrap.IsSet() && (k == "nowrap" || k == "wrap" || k == "wrap-reverse"):
				wrap = keyword(k)
			default:
				return nil
			}
		}
		return []Value{orInitial(dir, FlexDirection), orInitial(wrap, FlexWrap)}
	}

	emit := func(grow, shrink float64, basis Value) []Value {
		return []Value{withID(FlexGrow, number(grow)), withID(FlexShrink, number(shrink)), withID(FlexBasis, basis)}
	}
	if len(comps) == 1 {
		if k, ok := identOf(comps[0]); ok {
			switch k {
			case "none":
				return emit(0, 0, auto())
			case "auto":
				return emit(1, 1, auto())
			}
		}
	}
	if len(comps) < 1 || len(comps) > 3 {
		return nil
	}
	// <grow> <shrink>? || <basis>: the numbers may come before or after the basis.
	var nums []float64
	var basis Value
	numbersDone := false
	for _, c := range comps {
		if n, ok := parseNumber(c, false); ok && !numbersDone && len(nums) < 2 {
			nums = append(nums, n)
			continue
		}
		if basis.IsSet() {
			return nil
		}
		v, ok := parseLength(c, lengthRule{percent: true, auto: true})
		if !ok {
			if k, isIdent := identOf(c); !isIdent || k != "content" {
				return nil
			}
			v = keyword("content")
		}
		basis = v
		numbersDone = len(nums) > 0
	}
	if len(nums) == 0 {
		return emit(1, 1, basis)
	}
	shrink := 1.0
	if len(nums) == 2 {
		shrink = nums[1]
	}
	if !basis.IsSet() {
		basis = percent(0)
	}
	return emit(nums[0], shrink, basis)
}

// -- border-spacing --

type spacingParser struct{}

func (spacingParser) Names() []string { return []string{"border-spacing"} }

func (spacingParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	comps := components(tokens)
	if len(comps) < 1 || len(comps) > 2 {
		return nil
	}
	vs := make([]Value, 0, 2)
	for _, c := range comps {
		v, ok := parseLength(c, lengthRule{})
		if !ok {
			return nil
		}
		vs = append(vs, v)
	}
	if len(vs) == 1 {
		vs = append(vs, vs[0])
	}
	return []Value{withID(BorderSpacing, list(vs...))}
}
