// internal/browser/properties/parsers_box.go
package properties

import (
	"strings"

	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

var sides = [4]string{"top", "right", "bottom", "left"}

// expandBox applies the 1 to 4 value box shorthand rule (top, right, bottom, left).
func expandBox(vs []Value) [4]Value {
	switch len(vs) {
	case 1:
		return [4]Value{vs[0], vs[0], vs[0], vs[0]}
	case 2:
		return [4]Value{vs[0], vs[1], vs[0], vs[1]}
	case 3:
		return [4]Value{vs[0], vs[1], vs[2], vs[1]}
	}
	return [4]Value{vs[0], vs[1], vs[2], vs[3]}
}

func parseBoxValues(tokens []parser.Token, parse func([]parser.Token) (Value, bool)) ([4]Value, bool) {
	return parseBoxComponents(components(tokens), parse)
}

// parseBoxComponents parses 1 to 4 components with parse and expands them.
func parseBoxComponents(comps [][]parser.Token, parse func([]parser.Token) (Value, bool)) ([4]Value, bool) {
	if len(comps) < 1 || len(comps) > 4 {
		return [4]Value{}, false
	}
	vs := make([]Value, 0, len(comps))
	for _, c := range comps {
		v, ok := parse(c)
		if !ok {
			return [4]Value{}, false
		}
		vs = append(vs, v)
	}
	return expandBox(vs), true
}

func emitBox(ids []PropertyID, vs [4]Value) []Value {
	out := make([]Value, 4)
	for i := range out {
		out[i] = withID(ids[i], vs[i])
	}
	return out
}

// -- margin and padding --

type boxEdgeParser struct{}

func (boxEdgeParser) Names() []string {
	names := []string{"margin", "padding"}
	for _, s := range sides {
		names = append(names, "margin-"+s, "padding-"+s)
	}
	return names
}

func (boxEdgeParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	rule := lengthRule{percent: true}
	if strings.HasPrefix(name, "margin") {
		rule = lengthRule{percent: true, negative: true, auto: true}
	}
	parse := func(c []parser.Token) (Value, bool) { return parseLength(c, rule) }
	if name == "margin" || name == "padding" {
		vs, ok := parseBoxValues(tokens, parse)
		if !ok {
			return nil
		}
		return emitBox(shorthands[name], vs)
	}
	return single(name, tokens, parse)
}

// -- borders --

func parseBorderWidth(c []parser.Token) (Value, bool) {
	return parseLength(c, lengthRule{widths: true})
}

func parseBorderStyle(c []parser.Token) (Value, bool) {
	k, ok := identOf(c)
	if !ok || !borderStyleKeywords[k] {
		return Value{}, false
	}
	return keyword(k), true
}

// parseLineShorthand parses the "<width> || <style> || <color>" form shared
// by border sides and outline. Omitted parts are returned unset.
func parseLineShorthand(tokens []parser.Token, parseColorPart func([]parser.Token) (Value, bool)) (width, style, col Value, ok bool) {
	comps := components(tokens)
	if len(comps) < 1 || len(comps) > 3 {
		return width, style, col, false
	}
	for _, c := range comps {
		if v, ok := parseBorderWidth(c); ok && !width.IsSet() {
			width = v
			continue
		}
		if v, ok := parseBorderStyle(c); ok && !style.IsSet() {
			style = v
			continue
		}
		if v, ok := parseColorPart(c); ok && !col.IsSet() {
			col = v
			continue
		}
		return width, style, col, false
	}
	return width, style, col, true
}

func orInitial(v Value, id PropertyID) Value {
	if v.IsSet() {
		return withID(id, v)
	}
	return id.Initial()
}

// borderParser covers border, the per-side shorthands, the per-kind
// shorthands and every border longhand except the radii.
type borderParser struct{}

func (borderParser) Names() []string {
	names := []string{"border", "border-width", "border-style", "border-color"}
	for _, s := range sides {
		names = append(names, "border-"+s, "border-"+s+"-width", "border-"+s+"-style", "border-"+s+"-color")
	}
	return names
}

func (borderParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	switch name {
	case "border":
		w, s, c, ok := parseLineShorthand(tokens, parseColor)
		if !ok {
			return nil
		}
		ids := shorthands[name]
		out := make([]Value, 0, len(ids))
		for i, id := range ids {
			part := w
			switch i / 4 {
			case 1:
				part = s
			case 2:
				part = c
			}
			out = append(out, orInitial(part, id))
		}
		return out
	case "border-width", "border-style", "border-color":
		parse := parseBorderWidth
		switch name {
		case "border-style":
			parse = parseBorderStyle
		case "border-color":
			parse = parseColor
		}
		vs, ok := parseBoxValues(tokens, parse)
		if !ok {
			return nil
		}
		return emitBox(shorthands[name], vs)
	case "border-top", "border-right", "border-bottom", "border-left":
		w, s, c, ok := parseLineShorthand(tokens, parseColor)
		if !ok {
			return nil
		}
		ids := shorthands[name]
		return []Value{orInitial(w, ids[0]), orInitial(s, ids[1]), orInitial(c, ids[2])}
	}
	switch {
	case strings.HasSuffix(name, "-width"):
		return single(name, tokens, parseBorderWidth)
	case strings.HasSuffix(name, "-style"):
		return single(name, tokens, parseBorderStyle)
	case strings.HasSuffix(name, "-color"):
		return single(name, tokens, parseColor)
	}
	return nil
}

// -- outline --

type outlineParser struct{}

func (outlineParser) Names() []string { return []string{"outline"} }

func (outlineParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	w, s, c, ok := parseLineShorthand(tokens, func(comp []parser.Token) (Value, bool) {
		if k, ok := identOf(comp); ok && k == "invert" {
			return keyword(k), true
		}
		return parseColor(comp)
	})
	if !ok {
		return nil
	}
	return []Value{orInitial(w, OutlineWidth), orInitial(s, OutlineStyle), orInitial(c, OutlineColor)}
}

// -- radii --

// radiusParser handles border-radius and its longhands. Elliptical radii are
// accepted but only the horizontal radius is kept.
type radiusParser struct{}

func (radiusParser) Names() []string {
	return []string{"border-radius", "border-top-left-radius", "border-top-right-radius",
		"border-bottom-right-radius", "border-bottom-left-radius"}
}

func parseRadius(c []parser.Token) (Value, bool) {
	return parseLength(c, lengthRule{percent: true})
}

func (radiusParser) Parse(name string, tokens []parser.Token) []Value {
	if vs, ok := parseInherit(name, tokens); ok {
		return vs
	}
	comps := components(tokens)
	horizontal, vertical := comps, [][]parser.Token(nil)
	for i, c := range comps {
		if isSlash(c) {
			horizontal, vertical = comps[:i], comps[i+1:]
			if len(vertical) == 0 {
				return nil
			}
			break
		}
	}
	for _, c := range vertical {
		if _, ok := parseRadius(c); !ok {
			return nil
		}
	}
	if name == "border-radius" {
		if len(vertical) > 4 {
			return nil
		}
		vs, ok := parseBoxComponents(horizontal, parseRadius)
		if !ok {
			return nil
		}
		return emitBox(shorthands[name], vs)
	}
	// A longhand takes one or two space separated radii.
	if vertical != nil || len(horizontal) < 1 || len(horizontal) > 2 {
		return nil
	}
	id, _ := Lookup(name)
	var first Value
	for i, c := range horizontal {
		v, ok := parseRadius(c)
		if !ok {
			return nil
		}
		if i == 0 {
			first = v
		}
	}
	return []Value{withID(id, first)}
}
