// internal/browser/style/matcher.go
package style

import (
	"strings"

	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

// matches reports whether a selector of group matches the element under s,
// along with the best specificity among the matching selectors.
func matches(s *dom.SelectNode, group []parser.ComplexSelector) (parser.Specificity, bool) {
	return matchesPseudo(s, group, "")
}

// matchesPseudo is matches for the ::before or ::after box of the element
// under s. Only selectors ending in that pseudo-element apply.
func matchesPseudo(s *dom.SelectNode, group []parser.ComplexSelector, pseudo string) (parser.Specificity, bool) {
	var best parser.Specificity
	found := false
	for _, complexSelector := range group {
		last := len(complexSelector.Selectors) - 1
		if last < 0 || complexSelector.Selectors[last].SimpleSelector.PseudoElement != pseudo {
			continue
		}
		target := complexSelector
		if pseudo != "" {
			target.Selectors = append([]parser.SimpleSelectorWithCombinator(nil), complexSelector.Selectors...)
			target.Selectors[last].SimpleSelector.PseudoElement = ""
		}
		if recursiveMatch(s, target, last) {
			spec := complexSelector.CalculateSpecificity()
			if !found || best.Less(spec) {
				best = spec
			}
			found = true
		}
	}
	return best, found
}

// recursiveMatch matches Selectors[index] against the cursor position and
// then walks right to left through the combinators. The cursor is restored
// before returning.
func recursiveMatch(s *dom.SelectNode, complexSelector parser.ComplexSelector, index int) bool {
	if index < 0 {
		return false
	}
	current := complexSelector.Selectors[index]
	if !matchesSimple(s, current.SimpleSelector) {
		return false
	}
	if index == 0 {
		return true
	}

	s.Push()
	defer s.Pop()

	next := index - 1
	switch current.Combinator {
	case parser.CombinatorDescendant:
		for s.MoveToParent() {
			if recursiveMatch(s, complexSelector, next) {
				return true
			}
		}
		return false
	case parser.CombinatorChild:
		return s.MoveToParent() && recursiveMatch(s, complexSelector, next)
	case parser.CombinatorAdjacentSibling:
		return s.MoveToPrevSibling() && recursiveMatch(s, complexSelector, next)
	case parser.CombinatorGeneralSibling:
		for s.MoveToPrevSibling() {
			if recursiveMatch(s, complexSelector, next) {
				return true
			}
		}
		return false
	case parser.CombinatorNone:
		return true
	}
	return false
}

func matchesSimple(s *dom.SelectNode, selector parser.SimpleSelector) bool {
	if selector.PseudoElement != "" {
		return false
	}
	if selector.TagName != "" && selector.TagName != "*" && s.TagName() != selector.TagName {
		return false
	}
	if selector.ID != "" && s.ID() != selector.ID {
		return false
	}
	for _, class := range selector.Classes {
		if !s.HasClass(class) {
			return false
		}
	}
	for _, attrSel := range selector.Attributes {
		if !matchesAttribute(s, attrSel) {
			return false
		}
	}
	for _, pc := range selector.PseudoClasses {
		if !matchesPseudoClass(s, pc) {
			return false
		}
	}
	return true
}

func matchesAttribute(s *dom.SelectNode, sel parser.AttributeSelector) bool {
	actualValue, found := s.Attr(sel.Name)
	if !found {
		return false
	}

	switch sel.Operator {
	case "":
		return true
	case "=":
		return actualValue == sel.Value
	case "~=":
		for _, word := range strings.Fields(actualValue) {
			if word == sel.Value {
				return true
			}
		}
		return false
	case "|=":
		return actualValue == sel.Value || strings.HasPrefix(actualValue, sel.Value+"-")
	case "^=":
		return sel.Value != "" && strings.HasPrefix(actualValue, sel.Value)
	case "$=":
		return sel.Value != "" && strings.HasSuffix(actualValue, sel.Value)
	case "*=":
		return sel.Value != "" && strings.Contains(actualValue, sel.Value)
	default:
		return false
	}
}

func matchesPseudoClass(s *dom.SelectNode, pc parser.PseudoClass) bool {
	switch pc.Name {
	case "first-child":
		index, _ := s.ChildIndex(false)
		return index == 1
	case "last-child":
		index, count := s.ChildIndex(false)
		return index == count
	case "only-child":
		_, count := s.ChildIndex(false)
		return count == 1
	case "first-of-type":
		index, _ := s.ChildIndex(true)
		return index == 1
	case "last-of-type":
		index, count := s.ChildIndex(true)
		return index == count
	case "only-of-type":
		_, count := s.ChildIndex(true)
		return count == 1
	case "nth-child":
		index, _ := s.ChildIndex(false)
		return nthMatch(index, pc.A, pc.B)
	case "nth-last-child":
		index, count := s.ChildIndex(false)
		return nthMatch(count-index+1, pc.A, pc.B)
	case "nth-of-type":
		index, _ := s.ChildIndex(true)
		return nthMatch(index, pc.A, pc.B)
	case "nth-last-of-type":
		index, count := s.ChildIndex(true)
		return nthMatch(count-index+1, pc.A, pc.B)
	case "root":
		return s.IsRoot()
	case "empty":
		return s.IsEmpty()
	case "lang":
		lang := strings.ToLower(s.Lang())
		want := strings.ToLower(pc.Argument)
		return lang == want || strings.HasPrefix(lang, want+"-")
	case "not":
		return pc.Not != nil && !matchesSimple(s, *pc.Not)
	case "link", "visited", "hover", "active", "focus":
		return s.HasState(pc.Name)
	}
	return false
}

// nthMatch reports whether a 1-based index satisfies an+b for some n >= 0.
func nthMatch(index, a, b int) bool {
	if a == 0 {
		return index == b
	}
	diff := index - b
	if diff%a != 0 {
		return false
	}
	return diff/a >= 0
}
