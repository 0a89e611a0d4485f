// internal/engine/result.go
package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/paint"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// ErrUnsupportedFormat is returned for document and output formats the
// engine does not handle.
var ErrUnsupportedFormat = errors.New("engine: unsupported format")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is the laid out state of one document.
type Result struct {
	RunID    string
	Name     string
	Viewport style.Viewport
	DOM      *dom.Tree
	Boxes    *boxtree.Tree
	// Items is the paint list in painting order.
	Items []paint.Item
	// Diagnostics combines the recoverable stylesheet problems of the run.
	Diagnostics error
}

// Find returns the principal boxes of the elements expr selects: an XPath
// expression for HTML documents, an etree path for XML documents. Selected
// elements that generate no box are left out.
func (r *Result) Find(expr string) ([]boxtree.BoxID, error) {
	nodes, err := r.DOM.Find(expr)
	if err != nil {
		return nil, err
	}
	var boxes []boxtree.BoxID
	for _, n := range nodes {
		if b, ok := r.Boxes.BoxFor(n); ok {
			boxes = append(boxes, b)
		}
	}
	return boxes, nil
}

type rectJSON struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func rectOf(r boxtree.Rect) rectJSON {
	return rectJSON{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

type edgesJSON struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

func edgesOf(e boxtree.Edges) edgesJSON {
	return edgesJSON{Top: e.Top, Right: e.Right, Bottom: e.Bottom, Left: e.Left}
}

type fragmentJSON struct {
	Box  boxtree.BoxID `json:"box"`
	Text string        `json:"text,omitempty"`
	Rect rectJSON      `json:"rect"`
}

type lineJSON struct {
	Rect      rectJSON       `json:"rect"`
	Baseline  float64        `json:"baseline"`
	Fragments []fragmentJSON `json:"fragments"`
}

type boxJSON struct {
	ID       boxtree.BoxID `json:"id"`
	Kind     string        `json:"kind"`
	Display  string        `json:"display"`
	Tag      string        `json:"tag,omitempty"`
	Path     string        `json:"path,omitempty"`
	Pseudo   string        `json:"pseudo,omitempty"`
	Text     string        `json:"text,omitempty"`
	Marker   string        `json:"marker,omitempty"`
	Content  rectJSON      `json:"content"`
	Padding  edgesJSON     `json:"padding"`
	Border   edgesJSON     `json:"border"`
	Margin   edgesJSON     `json:"margin"`
	Baseline float64       `json:"baseline,omitempty"`
	Lines    []lineJSON    `json:"lines,omitempty"`
	Children []*boxJSON    `json:"children,omitempty"`
}

type itemJSON struct {
	Kind string        `json:"kind"`
	Box  boxtree.BoxID `json:"box"`
	Rect rectJSON      `json:"rect"`
	Text string        `json:"text,omitempty"`
}

type viewportJSON struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type resultJSON struct {
	RunID       string       `json:"run_id"`
	Document    string       `json:"document"`
	Viewport    viewportJSON `json:"viewport"`
	Root        *boxJSON     `json:"root"`
	Paint       []itemJSON   `json:"paint"`
	Diagnostics []string     `json:"diagnostics,omitempty"`
}

func (r *Result) boxJSON(id boxtree.BoxID) *boxJSON {
	b := r.Boxes.Box(id)
	out := &boxJSON{
		ID:       b.ID,
		Kind:     b.Kind.String(),
		Display:  b.Display.String(),
		Pseudo:   b.Pseudo,
		Text:     b.Text,
		Marker:   b.Marker,
		Content:  rectOf(b.Layout.Content),
		Padding:  edgesOf(b.Layout.Padding),
		Border:   edgesOf(b.Layout.Border),
		Margin:   edgesOf(b.Layout.Margin),
		Baseline: b.Layout.Baseline,
	}
	if b.Kind != boxtree.KindText && b.Kind != boxtree.KindAnonymousBlock && b.Pseudo == "" {
		if n := r.DOM.Node(b.Node); n != nil {
			out.Tag = n.Tag
			out.Path = r.DOM.UniquePath(b.Node)
		}
	}
	for _, l := range b.Layout.Lines {
		lj := lineJSON{Rect: rectOf(l.Rect), Baseline: l.Baseline}
		for _, f := range l.Fragments {
			lj.Fragments = append(lj.Fragments, fragmentJSON{Box: f.Box, Text: f.Text, Rect: rectOf(f.Rect)})
		}
		out.Lines = append(out.Lines, lj)
	}
	for _, c := range b.Children {
		out.Children = append(out.Children, r.boxJSON(c))
	}
	return out
}

// WriteJSON dumps the geometry of every box and the paint list as JSON.
func WriteJSON(w io.Writer, r *Result) error {
	out := resultJSON{
		RunID:    r.RunID,
		Document: r.Name,
		Viewport: viewportJSON{Width: r.Viewport.Width, Height: r.Viewport.Height},
		Paint:    make([]itemJSON, 0, len(r.Items)),
	}
	if root := r.Boxes.Root(); root != boxtree.NoBox {
		out.Root = r.boxJSON(root)
	}
	for _, it := range r.Items {
		out.Paint = append(out.Paint, itemJSON{Kind: it.Kind.String(), Box: it.Box, Rect: rectOf(it.Rect), Text: it.Text})
	}
	for _, err := range multierr.Errors(r.Diagnostics) {
		out.Diagnostics = append(out.Diagnostics, err.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// WriteTree prints the box tree as indented text, one box per line with its
// border box.
func WriteTree(w io.Writer, r *Result) error {
	var b strings.Builder
	root := r.Boxes.Root()
	if root == boxtree.NoBox {
		b.WriteString("(no boxes)\n")
	} else {
		r.writeTree(&b, root, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Result) writeTree(b *strings.Builder, id boxtree.BoxID, depth int) {
	box := r.Boxes.Box(id)
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(box.Kind.String())
	b.WriteString(" ")
	b.WriteString(box.Display.String())
	switch {
	case box.Kind == boxtree.KindText:
		fmt.Fprintf(b, " %q", box.Text)
	case box.Pseudo != "":
		fmt.Fprintf(b, " ::%s", box.Pseudo)
	case box.Kind != boxtree.KindAnonymousBlock:
		b.WriteString(" <" + r.describe(box.Node) + ">")
	}
	bb := box.Layout.BorderBox()
	fmt.Fprintf(b, " (%s, %s) %sx%s\n", num(bb.X), num(bb.Y), num(bb.Width), num(bb.Height))
	for _, c := range box.Children {
		r.writeTree(b, c, depth+1)
	}
}

// describe renders an element as tag#id.class.
func (r *Result) describe(id dom.NodeID) string {
	n := r.DOM.Node(id)
	if n == nil {
		return "?"
	}
	s := n.Tag
	if v, ok := r.DOM.Attr(id, "id"); ok && v != "" {
		s += "#" + v
	}
	if v, ok := r.DOM.Attr(id, "class"); ok {
		for _, c := range strings.Fields(v) {
			s += "." + c
		}
	}
	return s
}

// num formats a coordinate rounded to hundredths.
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
