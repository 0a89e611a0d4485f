// internal/browser/dom/tree.go
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// NodeID addresses a node inside a Tree. IDs are stable for the lifetime of
// the tree and are what boxes keep as back-references.
type NodeID int32

// NoNode is the null NodeID.
const NoNode NodeID = -1

// Kind is the node type.
type Kind uint8

const (
	KindDocument Kind = iota
	KindElement
	KindText
)

// Format records which parser produced the tree.
type Format int

const (
	FormatHTML Format = iota
	FormatXML
)

func (f Format) String() string {
	if f == FormatXML {
		return "xml"
	}
	return "html"
}

// State holds the dynamic pseudo-class flags of an element. The DOM is
// static, so callers set these explicitly.
type State uint8

const (
	StateHover State = 1 << iota
	StateActive
	StateFocus
	StateVisited
)

// Attribute is a name/value pair. Names keep their namespace prefix (xml:lang).
type Attribute struct {
	Name  string
	Value string
}

// Node is one entry of the arena.
type Node struct {
	Kind Kind
	// Tag is the lowercase element name.
	Tag      string
	Text     string
	Attrs    []Attribute
	Parent   NodeID
	Children []NodeID
	State    State
}

// Tree is a read-only arena view of an HTML or XML document.
type Tree struct {
	nodes  []Node
	format Format

	htmlDoc   *html.Node
	htmlIndex map[*html.Node]NodeID
	xmlDoc    *etree.Document
	xmlIndex  map[*etree.Element]NodeID
}

// ParseHTML parses an HTML document into a Tree.
func ParseHTML(r io.Reader) (*Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return FromHTML(doc), nil
}

// FromHTML builds a Tree from an x/net/html node. The node does not have to
// be a document; whatever it is becomes the root.
func FromHTML(root *html.Node) *Tree {
	t := &Tree{format: FormatHTML, htmlDoc: root, htmlIndex: make(map[*html.Node]NodeID)}
	t.addHTML(root, NoNode)
	return t
}

func (t *Tree) addHTML(n *html.Node, parent NodeID) {
	var node Node
	switch n.Type {
	case html.DocumentNode:
		node.Kind = KindDocument
	case html.ElementNode:
		node.Kind = KindElement
		node.Tag = strings.ToLower(n.Data)
		node.Attrs = make([]Attribute, 0, len(n.Attr))
		for _, a := range n.Attr {
			name := strings.ToLower(a.Key)
			if a.Namespace != "" {
				name = a.Namespace + ":" + name
			}
			node.Attrs = append(node.Attrs, Attribute{Name: name, Value: a.Val})
		}
	case html.TextNode:
		node.Kind = KindText
		node.Text = n.Data
	default:
		// Comments, doctypes and raw nodes carry nothing to lay out.
		return
	}
	id := t.add(node, parent)
	t.htmlIndex[n] = id
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.addHTML(c, id)
	}
}

// ParseXML parses an XML document into a Tree.
func ParseXML(r io.Reader) (*Tree, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse xml: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to parse xml: no root element")
	}
	return FromXML(doc), nil
}

// FromXML builds a Tree from an etree document.
func FromXML(doc *etree.Document) *Tree {
	t := &Tree{format: FormatXML, xmlDoc: doc, xmlIndex: make(map[*etree.Element]NodeID)}
	id := t.add(Node{Kind: KindDocument}, NoNode)
	t.addXMLChildren(doc.Child, id)
	return t
}

func (t *Tree) addXMLChildren(tokens []etree.Token, parent NodeID) {
	for _, tok := range tokens {
		switch v := tok.(type) {
		case *etree.Element:
			node := Node{Kind: KindElement, Tag: strings.ToLower(v.Tag)}
			for _, a := range v.Attr {
				node.Attrs = append(node.Attrs, Attribute{Name: a.FullKey(), Value: a.Value})
			}
			id := t.add(node, parent)
			t.xmlIndex[v] = id
			t.addXMLChildren(v.Child, id)
		case *etree.CharData:
			t.add(Node{Kind: KindText, Text: v.Data}, parent)
		}
	}
}

func (t *Tree) add(n Node, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	n.Parent = parent
	t.nodes = append(t.nodes, n)
	if parent != NoNode {
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	}
	return id
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Format reports which parser produced the tree.
func (t *Tree) Format() Format { return t.format }

// Root returns the first node, normally the document.
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Node returns the node for id. The returned pointer must not be used to
// modify the tree.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// IsElement reports whether id is an element.
func (t *Tree) IsElement(id NodeID) bool {
	n := t.Node(id)
	return n != nil && n.Kind == KindElement
}

// DocumentElement returns the first element child of the root, or the root
// itself when it is an element.
func (t *Tree) DocumentElement() NodeID {
	root := t.Node(t.Root())
	if root == nil {
		return NoNode
	}
	if root.Kind == KindElement {
		return t.Root()
	}
	for _, c := range root.Children {
		if t.IsElement(c) {
			return c
		}
	}
	return NoNode
}

// Attr looks up an attribute by name. HTML names are case-insensitive.
func (t *Tree) Attr(id NodeID, name string) (string, bool) {
	n := t.Node(id)
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name || (t.format == FormatHTML && strings.EqualFold(a.Name, name)) {
			return a.Value, true
		}
	}
	return "", false
}

// Parent returns the parent of id, or NoNode.
func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

// ParentElement returns the closest element ancestor of id, or NoNode.
func (t *Tree) ParentElement(id NodeID) NodeID {
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		if t.IsElement(p) {
			return p
		}
	}
	return NoNode
}

// Children returns the children of id in document order.
func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

// SetState replaces the dynamic pseudo-class flags of an element. It is the
// only mutation a Tree allows and must happen before styles are resolved.
func (t *Tree) SetState(id NodeID, s State) {
	if n := t.Node(id); n != nil {
		n.State = s
	}
}

// TextContent concatenates the text of every descendant of id.
func (t *Tree) TextContent(id NodeID) string {
	var b strings.Builder
	var walk func(NodeID)
	walk = func(n NodeID) {
		node := t.Node(n)
		if node == nil {
			return
		}
		if node.Kind == KindText {
			b.WriteString(node.Text)
			return
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(id)
	return b.String()
}

// Lang returns the language of id from the nearest lang or xml:lang attribute.
func (t *Tree) Lang(id NodeID) string {
	for n := id; n != NoNode; n = t.Parent(n) {
		if v, ok := t.Attr(n, "xml:lang"); ok {
			return v
		}
		if v, ok := t.Attr(n, "lang"); ok {
			return v
		}
	}
	return ""
}
