// internal/browser/boxtree/counters.go
package boxtree

import (
	"strconv"
	"strings"
)

// listItemCounter is the counter list items number themselves with.
const listItemCounter = "list-item"

type counterScope struct {
	level int
	value int
}

// counterStack tracks CSS counter instances while the builder walks the
// document. A counter reset by an element is visible to the element, its
// descendants and its following siblings, so an instance lives until the
// builder leaves the reset element's parent.
type counterStack struct {
	depth  int
	scopes map[string][]counterScope
}

func newCounterStack() *counterStack {
	return &counterStack{scopes: make(map[string][]counterScope)}
}

// reset creates an instance of name at the current level. A sibling that
// already reset the counter is replaced instead of nested.
func (c *counterStack) reset(name string, value int) {
	stack := c.scopes[name]
	if n := len(stack); n > 0 && stack[n-1].level == c.depth {
		stack[n-1].value = value
		return
	}
	c.scopes[name] = append(stack, counterScope{level: c.depth, value: value})
}

// increment adds by to the innermost instance, creating one at zero when the
// counter is not in scope.
func (c *counterStack) increment(name string, by int) {
	if len(c.scopes[name]) == 0 {
		c.reset(name, 0)
	}
	stack := c.scopes[name]
	stack[len(stack)-1].value += by
}

// set overrides the innermost instance, creating one when needed.
func (c *counterStack) set(name string, value int) {
	if len(c.scopes[name]) == 0 {
		c.reset(name, value)
		return
	}
	stack := c.scopes[name]
	stack[len(stack)-1].value = value
}

// value returns the innermost instance of name, 0 when it is not in scope.
func (c *counterStack) value(name string) int {
	stack := c.scopes[name]
	if len(stack) == 0 {
		return 0
	}
	return stack[len(stack)-1].value
}

// values returns every instance of name, outermost first.
func (c *counterStack) values(name string) []int {
	stack := c.scopes[name]
	if len(stack) == 0 {
		return []int{0}
	}
	out := make([]int, len(stack))
	for i, s := range stack {
		out[i] = s.value
	}
	return out
}

// descend is called before visiting an element's children.
func (c *counterStack) descend() { c.depth++ }

// ascend is called after them. Instances created by the children go out of scope.
func (c *counterStack) ascend() {
	for name, stack := range c.scopes {
		n := len(stack)
		for n > 0 && stack[n-1].level >= c.depth {
			n--
		}
		if n == 0 {
			delete(c.scopes, name)
		} else {
			c.scopes[name] = stack[:n]
		}
	}
	c.depth--
}

var (
	lowerGreek = []rune("αβγδεζηθικλμνξοπρστυφχψω")
	romanTable = []struct {
		value int
		digit string
	}{
		{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"}, {100, "c"}, {90, "xc"},
		{50, "l"}, {40, "xl"}, {10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
	}
)

// FormatCounter renders n in a list-style-type. Styles without a
// representation for n fall back to decimal.
func FormatCounter(n int, listStyle string) string {
	switch listStyle {
	case "none":
		return ""
	case "disc":
		return "•"
	case "circle":
		return "◦"
	case "square":
		return "▪"
	case "decimal-leading-zero":
		if n >= 0 && n < 10 {
			return "0" + strconv.Itoa(n)
		}
	case "lower-roman":
		if s, ok := roman(n); ok {
			return s
		}
	case "upper-roman":
		if s, ok := roman(n); ok {
			return strings.ToUpper(s)
		}
	case "lower-alpha", "lower-latin":
		if s, ok := alphabetic(n, []rune("abcdefghijklmnopqrstuvwxyz")); ok {
			return s
		}
	case "upper-alpha", "upper-latin":
		if s, ok := alphabetic(n, []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")); ok {
			return s
		}
	case "lower-greek":
		if s, ok := alphabetic(n, lowerGreek); ok {
			return s
		}
	}
	return strconv.Itoa(n)
}

func roman(n int) (string, bool) {
	if n <= 0 || n >= 4000 {
		return "", false
	}
	var sb strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			sb.WriteString(r.digit)
			n -= r.value
		}
	}
	return sb.String(), true
}

// alphabetic renders n in bijective base len(digits): a..z, aa, ab, ...
func alphabetic(n int, digits []rune) (string, bool) {
	if n <= 0 {
		return "", false
	}
	base := len(digits)
	var out []rune
	for n > 0 {
		n--
		out = append([]rune{digits[n%base]}, out...)
		n /= base
	}
	return string(out), true
}

// markerText returns the marker of a list item numbered n.
func markerText(n int, listStyle string) string {
	s := FormatCounter(n, listStyle)
	switch listStyle {
	case "none":
		return ""
	case "disc", "circle", "square":
		return s
	}
	return s + "."
}
