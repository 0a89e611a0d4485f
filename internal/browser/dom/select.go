// internal/browser/dom/select.go
package dom

import "strings"

// SelectNode is a cursor over the elements of a Tree used by selector
// matching. Navigation moves the cursor, never the tree; Push and Pop save
// and restore positions so a matcher can backtrack.
type SelectNode struct {
	tree  *Tree
	cur   NodeID
	stack []NodeID
}

// Select returns a cursor positioned on id.
func (t *Tree) Select(id NodeID) *SelectNode {
	return &SelectNode{tree: t, cur: id}
}

// Reset moves the cursor to id and drops any saved positions.
func (s *SelectNode) Reset(id NodeID) {
	s.cur = id
	s.stack = s.stack[:0]
}

// Node returns the element under the cursor.
func (s *SelectNode) Node() NodeID { return s.cur }

// Push saves the current position.
func (s *SelectNode) Push() { s.stack = append(s.stack, s.cur) }

// Pop restores the last saved position.
func (s *SelectNode) Pop() {
	if n := len(s.stack); n > 0 {
		s.cur = s.stack[n-1]
		s.stack = s.stack[:n-1]
	}
}

// TagName returns the lowercase element name.
func (s *SelectNode) TagName() string {
	if n := s.tree.Node(s.cur); n != nil {
		return n.Tag
	}
	return ""
}

// ID returns the id attribute.
func (s *SelectNode) ID() string {
	v, _ := s.tree.Attr(s.cur, "id")
	return v
}

// HasClass reports whether the class attribute lists name.
func (s *SelectNode) HasClass(name string) bool {
	v, ok := s.tree.Attr(s.cur, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == name {
			return true
		}
	}
	return false
}

// Attr looks up an attribute on the current element.
func (s *SelectNode) Attr(name string) (string, bool) {
	return s.tree.Attr(s.cur, name)
}

// Lang returns the inherited language of the current element.
func (s *SelectNode) Lang() string { return s.tree.Lang(s.cur) }

// IsRoot reports whether the current element is the document element.
func (s *SelectNode) IsRoot() bool {
	return s.tree.ParentElement(s.cur) == NoNode
}

// HasState reports whether a dynamic pseudo-class applies. :link is derived
// from the element itself: an anchor with an href that is not visited.
func (s *SelectNode) HasState(name string) bool {
	n := s.tree.Node(s.cur)
	if n == nil {
		return false
	}
	switch name {
	case "hover":
		return n.State&StateHover != 0
	case "active":
		return n.State&StateActive != 0
	case "focus":
		return n.State&StateFocus != 0
	case "visited":
		return n.State&StateVisited != 0
	case "link":
		_, href := s.tree.Attr(s.cur, "href")
		return n.Tag == "a" && href && n.State&StateVisited == 0
	}
	return false
}

// ChildIndex returns the 1-based position of the current element among its
// element siblings and the number of such siblings. With ofType set only
// siblings with the same tag count.
func (s *SelectNode) ChildIndex(ofType bool) (index, count int) {
	parent := s.tree.Parent(s.cur)
	if parent == NoNode {
		return 1, 1
	}
	tag := s.TagName()
	for _, c := range s.tree.Children(parent) {
		n := s.tree.Node(c)
		if n.Kind != KindElement || (ofType && n.Tag != tag) {
			continue
		}
		count++
		if c == s.cur {
			index = count
		}
	}
	return index, count
}

// IsEmpty reports whether the element has no element children and no text.
func (s *SelectNode) IsEmpty() bool {
	for _, c := range s.tree.Children(s.cur) {
		n := s.tree.Node(c)
		if n.Kind == KindElement || (n.Kind == KindText && n.Text != "") {
			return false
		}
	}
	return true
}

// MoveToParent moves to the parent element. It returns false, leaving the
// cursor in place, when there is none.
func (s *SelectNode) MoveToParent() bool {
	p := s.tree.ParentElement(s.cur)
	if p == NoNode {
		return false
	}
	s.cur = p
	return true
}

// MoveToPrevSibling moves to the previous element sibling. It returns false,
// leaving the cursor in place, when there is none.
func (s *SelectNode) MoveToPrevSibling() bool {
	parent := s.tree.Parent(s.cur)
	if parent == NoNode {
		return false
	}
	prev := NoNode
	for _, c := range s.tree.Children(parent) {
		if c == s.cur {
			break
		}
		if s.tree.IsElement(c) {
			prev = c
		}
	}
	if prev == NoNode {
		return false
	}
	s.cur = prev
	return true
}
