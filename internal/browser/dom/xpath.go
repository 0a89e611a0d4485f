// internal/browser/dom/xpath.go
package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/beevik/etree"
)

// UniquePath generates an XPath expression that selects exactly id.
// It anchors on the closest ancestor-or-self with an id attribute.
func (t *Tree) UniquePath(id NodeID) string {
	var path []string
	for n := id; n != NoNode; n = t.Parent(n) {
		node := t.Node(n)
		if node == nil || node.Kind != KindElement {
			continue
		}

		if v, ok := t.Attr(n, "id"); ok && v != "" {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, v))
			break
		}

		// XPath indices are 1-based and count same-tag siblings only.
		index := 1
		if parent := t.Parent(n); parent != NoNode {
			for _, c := range t.Children(parent) {
				if c == n {
					break
				}
				if sib := t.Node(c); sib.Kind == KindElement && sib.Tag == node.Tag {
					index++
				}
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", node.Tag, index))
	}

	if len(path) == 0 {
		return "/"
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}

// Find evaluates a path expression against the source document: XPath for
// HTML trees, etree path syntax for XML trees. Matches come back in document
// order as NodeIDs.
func (t *Tree) Find(expr string) ([]NodeID, error) {
	switch t.format {
	case FormatHTML:
		if t.htmlDoc == nil {
			return nil, nil
		}
		nodes, err := htmlquery.QueryAll(t.htmlDoc, expr)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
		}
		ids := make([]NodeID, 0, len(nodes))
		for _, n := range nodes {
			if id, ok := t.htmlIndex[n]; ok {
				ids = append(ids, id)
			}
		}
		return ids, nil
	case FormatXML:
		if t.xmlDoc == nil {
			return nil, nil
		}
		path, err := etree.CompilePath(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", expr, err)
		}
		elems := t.xmlDoc.FindElementsPath(path)
		ids := make([]NodeID, 0, len(elems))
		for _, e := range elems {
			if id, ok := t.xmlIndex[e]; ok {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}
	return nil, fmt.Errorf("unknown tree format %d", t.format)
}
