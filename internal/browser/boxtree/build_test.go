// internal/browser/boxtree/build_test.go
package boxtree

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

type fakeSizer map[string][2]int

func (f fakeSizer) ImageSize(key string) (int, int, error) {
	if s, ok := f[key]; ok {
		return s[0], s[1], nil
	}
	return 0, 0, errors.New("not found")
}

// buildTree styles h with the user agent sheet plus css and builds its boxes.
func buildTree(t *testing.T, h, css string, opts Options) *Tree {
	t.Helper()
	tree, err := dom.ParseHTML(strings.NewReader(h))
	require.NoError(t, err)
	doc := style.NewDocument(tree, nil)
	doc.AddSheet(style.UserAgentSheet(), style.OriginUserAgent)
	require.NoError(t, doc.AddCSS(css, style.OriginAuthor))
	r := style.NewResolver(properties.NewRegistry(), doc, style.Viewport{Width: 800, Height: 600}, nil)
	styles := r.ResolveTree()
	opts.Pseudo = r.ResolvePseudo
	bt, err := Build(tree, styles, opts)
	require.NoError(t, err)
	return bt
}

// boxOf returns the principal box of the element with the given id attribute.
func boxOf(t *testing.T, bt *Tree, id string) *Box {
	t.Helper()
	ids, err := bt.DOM.Find("//*[@id='" + id + "']")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	b, ok := bt.BoxFor(ids[0])
	require.True(t, ok, "no box for %q", id)
	return bt.Box(b)
}

func kinds(bt *Tree, b *Box) []Kind {
	var out []Kind
	for _, c := range b.Children {
		out = append(out, bt.Box(c).Kind)
	}
	return out
}

func TestBuildRejectsMissingRoot(t *testing.T) {
	_, err := Build(nil, nil, Options{})
	assert.True(t, errors.Is(err, ErrUnsupportedRoot))
}

func TestDisplayNoneGeneratesNoBox(t *testing.T) {
	bt := buildTree(t, `<div id="a" style="display:none"><p id="b">x</p></div><p id="c">y</p>`, ``, Options{})
	ids, err := bt.DOM.Find("//*[@id='a']")
	require.NoError(t, err)
	_, ok := bt.BoxFor(ids[0])
	assert.False(t, ok)
	assert.NotNil(t, boxOf(t, bt, "c"))
}

func TestAnonymousBlocks(t *testing.T) {
	t.Run("Mixed Content Is Wrapped", func(t *testing.T) {
		bt := buildTree(t, `<div id="d">text<p>para</p>more <b>bold</b></div>`, ``, Options{})
		d := boxOf(t, bt, "d")
		require.Equal(t, []Kind{KindAnonymousBlock, KindElement, KindAnonymousBlock}, kinds(bt, d))

		first := bt.Box(d.Children[0])
		assert.Equal(t, style.DisplayBlock, first.Display)
		assert.Equal(t, d.ID, first.Parent)
		require.Len(t, first.Children, 1)
		assert.Equal(t, "text", bt.Box(first.Children[0]).Text)
		assert.Equal(t, first.ID, bt.Box(first.Children[0]).Parent)
		assert.Len(t, bt.Box(d.Children[2]).Children, 2)
	})

	t.Run("Whitespace Between Blocks Is Dropped", func(t *testing.T) {
		bt := buildTree(t, "<div id=\"d\">\n  <p>a</p>\n  <p>b</p>\n</div>", ``, Options{})
		assert.Equal(t, []Kind{KindElement, KindElement}, kinds(bt, boxOf(t, bt, "d")))
	})

	t.Run("Inline Only Content Is Not Wrapped", func(t *testing.T) {
		bt := buildTree(t, `<p id="p">a <i>b</i> c</p>`, ``, Options{})
		assert.Equal(t, []Kind{KindText, KindElement, KindText}, kinds(bt, boxOf(t, bt, "p")))
	})

	t.Run("Inline Containing Block Becomes Block", func(t *testing.T) {
		bt := buildTree(t, `<div><span id="s">a<div>x</div></span></div>`, ``, Options{})
		s := boxOf(t, bt, "s")
		assert.Equal(t, style.DisplayBlock, s.Display)
		assert.Equal(t, []Kind{KindAnonymousBlock, KindElement}, kinds(bt, s))
	})

	t.Run("Floats Between Blocks Stay Direct Children", func(t *testing.T) {
		bt := buildTree(t, `<div id="d"><p>a</p> <span style="float:left">f</span> <p>b</p></div>`, ``, Options{})
		assert.Equal(t, []Kind{KindElement, KindFloat, KindElement}, kinds(bt, boxOf(t, bt, "d")))
	})
}

func TestWhitespaceCollapsing(t *testing.T) {
	tests := []struct {
		whiteSpace string
		in         string
		expected   string
	}{
		{"normal", "a  \n\t b", "a b"},
		{"normal", "  a  ", " a "},
		{"nowrap", "a \n b", "a b"},
		{"pre", "a  \r\n b", "a  \n b"},
		{"pre-wrap", "a\tb", "a\tb"},
		{"pre-line", "a  \n  b   c", "a\nb c"},
	}
	for _, tt := range tests {
		t.Run(tt.whiteSpace+" "+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, collapseWhitespace(tt.in, tt.whiteSpace))
		})
	}

	t.Run("Applied By The Builder", func(t *testing.T) {
		bt := buildTree(t, "<p id=\"p\">a   b</p><pre id=\"pre\">a   b</pre>", ``, Options{})
		assert.Equal(t, "a b", bt.Box(boxOf(t, bt, "p").Children[0]).Text)
		assert.Equal(t, "a   b", bt.Box(boxOf(t, bt, "pre").Children[0]).Text)
	})
}

func TestTextTransform(t *testing.T) {
	assert.Equal(t, "STRASSE", transformText("straße", "uppercase", ""))
	assert.Equal(t, "Hello World", transformText("hello world", "capitalize", "en"))
	assert.Equal(t, "ı", transformText("I", "lowercase", "tr"))
	assert.Equal(t, "i", transformText("I", "lowercase", "en"))
	assert.Equal(t, "As Is", transformText("As Is", "none", ""))

	bt := buildTree(t, `<p id="p" style="text-transform: uppercase">shout</p>`, ``, Options{})
	assert.Equal(t, "SHOUT", bt.Box(boxOf(t, bt, "p").Children[0]).Text)
}

func TestPositionedRegistration(t *testing.T) {
	bt := buildTree(t,
		`<div id="rel" style="position:relative"><span id="span"><b id="abs" style="position:absolute">x</b></span></div>`+
			`<p id="fixed" style="position:fixed">f</p><p id="orphan" style="position:absolute">o</p>`+
			`<p id="float" style="float:right">g</p>`, ``, Options{})

	rel, abs, span := boxOf(t, bt, "rel"), boxOf(t, bt, "abs"), boxOf(t, bt, "span")
	assert.Equal(t, KindAbsoluteOrFixed, abs.Kind)
	assert.Equal(t, rel.ID, abs.ContainingBlock)
	assert.Equal(t, []BoxID{abs.ID}, rel.Positioned)
	assert.Equal(t, span.ID, abs.Parent, "positioned boxes stay in their flow parent")
	assert.Equal(t, style.DisplayInline, span.Display)

	fixed, orphan := boxOf(t, bt, "fixed"), boxOf(t, bt, "orphan")
	assert.Equal(t, NoBox, fixed.ContainingBlock)
	assert.Equal(t, []BoxID{fixed.ID, orphan.ID}, bt.ViewportPositioned())

	assert.Equal(t, KindFloat, boxOf(t, bt, "float").Kind)
}

func TestReplacedSizes(t *testing.T) {
	sizer := fakeSizer{"photo.png": {40, 30}}
	bt := buildTree(t,
		`<img id="attrs" src="photo.png" width="10" height="20">`+
			`<img id="resource" src="photo.png">`+
			`<img id="scaled" src="photo.png" width="80">`+
			`<img id="default">`+
			`<img id="missing" src="gone.png" width="50">`+
			`<canvas id="canvas">fallback</canvas>`, ``, Options{Images: sizer})

	tests := []struct {
		id   string
		w, h float64
	}{
		{"attrs", 10, 20},
		{"resource", 40, 30},
		{"scaled", 80, 60},
		{"default", 300, 150},
		{"missing", 50, 150},
		{"canvas", 300, 150},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			b := boxOf(t, bt, tt.id)
			assert.Equal(t, KindReplaced, b.Kind)
			require.NotNil(t, b.Replaced)
			assert.Equal(t, tt.w, b.Replaced.Width)
			assert.Equal(t, tt.h, b.Replaced.Height)
			assert.Empty(t, b.Children)
		})
	}
	assert.Equal(t, "photo.png", boxOf(t, bt, "resource").Replaced.Source)
}

func TestTableFixup(t *testing.T) {
	t.Run("Parsed Table", func(t *testing.T) {
		bt := buildTree(t, `<table id="t"><caption>c</caption><tr><td id="a" colspan="2">a</td><td rowspan="0">b</td></tr></table>`, ``, Options{})
		table := boxOf(t, bt, "t")
		require.Len(t, table.Children, 2)
		assert.Equal(t, style.DisplayTableCaption, bt.Box(table.Children[0]).Display)
		assert.Equal(t, style.DisplayTableRowGroup, bt.Box(table.Children[1]).Display)
		a := boxOf(t, bt, "a")
		assert.Equal(t, 2, a.ColSpan)
		assert.Equal(t, 1, bt.Box(bt.Box(a.Parent).Children[1]).RowSpan)
	})

	t.Run("Orphan Cells Get An Anonymous Table", func(t *testing.T) {
		bt := buildTree(t, `<div id="d"><span style="display:table-cell">a</span> <span style="display:table-cell">b</span></div>`, ``, Options{})
		d := boxOf(t, bt, "d")
		require.Len(t, d.Children, 1)
		table := bt.Box(d.Children[0])
		assert.Equal(t, KindAnonymousBlock, table.Kind)
		assert.Equal(t, style.DisplayTable, table.Display)
		require.Len(t, table.Children, 1)
		group := bt.Box(table.Children[0])
		assert.Equal(t, style.DisplayTableRowGroup, group.Display)
		require.Len(t, group.Children, 1)
		row := bt.Box(group.Children[0])
		assert.Equal(t, style.DisplayTableRow, row.Display)
		assert.Len(t, row.Children, 2)
	})

	t.Run("Loose Content Gets Rows And Cells", func(t *testing.T) {
		bt := buildTree(t, `<div id="t" style="display:table">text</div>`, ``, Options{})
		b := boxOf(t, bt, "t")
		var displays []style.DisplayType
		for b != nil && len(b.Children) == 1 {
			b = bt.Box(b.Children[0])
			displays = append(displays, b.Display)
		}
		assert.Equal(t, []style.DisplayType{
			style.DisplayTableRowGroup, style.DisplayTableRow, style.DisplayTableCell, style.DisplayInline,
		}, displays)
		assert.Equal(t, "text", b.Text)
	})
}

func TestFlexItemsAreBlockified(t *testing.T) {
	bt := buildTree(t, `<div id="f" style="display:flex">text<span id="s">x</span><em id="e" style="float:left">y</em></div>`, ``, Options{})
	f := boxOf(t, bt, "f")
	require.Len(t, f.Children, 3)
	assert.Equal(t, KindAnonymousBlock, bt.Box(f.Children[0]).Kind)
	assert.Equal(t, style.DisplayBlock, boxOf(t, bt, "s").Display)
	e := boxOf(t, bt, "e")
	assert.Equal(t, KindElement, e.Kind)
	assert.Equal(t, style.DisplayBlock, e.Display)
}

func TestForcedBreaks(t *testing.T) {
	bt := buildTree(t, `<p id="p">a<br>b</p>`, ``, Options{})
	p := boxOf(t, bt, "p")
	require.Len(t, p.Children, 3)
	assert.True(t, bt.Box(p.Children[1]).Break)
	assert.True(t, bt.Box(p.Children[1]).IsInlineLevel())
}

func TestListMarkers(t *testing.T) {
	bt := buildTree(t,
		`<ol start="3"><li id="a">a</li><li id="b" value="10">b</li><li id="c">c</li></ol>`+
			`<ul><li id="u">u</li></ul>`+
			`<ol style="list-style-type: upper-roman"><li>1</li><li>2</li><li>3</li><li id="iv">4</li></ol>`+
			`<ul style="list-style-position: inside"><li id="in">in</li></ul>`, ``, Options{})

	assert.Equal(t, "3.", boxOf(t, bt, "a").Marker)
	assert.Equal(t, "10.", boxOf(t, bt, "b").Marker)
	assert.Equal(t, "11.", boxOf(t, bt, "c").Marker)
	assert.Equal(t, "•", boxOf(t, bt, "u").Marker)
	assert.Equal(t, "IV.", boxOf(t, bt, "iv").Marker)

	in := boxOf(t, bt, "in")
	assert.Empty(t, in.Marker)
	require.NotEmpty(t, in.Children)
	assert.Equal(t, "• ", bt.Box(in.Children[0]).Text)
}

// generated returns the text of every before and after box in tree order.
func generated(bt *Tree) []string {
	var out []string
	bt.Walk(bt.Root(), func(b *Box) bool {
		if b.Pseudo != "" {
			text := ""
			for _, c := range b.Children {
				text += bt.Box(c).Text
			}
			out = append(out, text)
		}
		return true
	})
	return out
}

func TestGeneratedContent(t *testing.T) {
	t.Run("Nested Counters", func(t *testing.T) {
		bt := buildTree(t,
			`<ol><li>a<ol><li>b</li><li>c</li></ol></li><li>d</li></ol>`,
			`ol { counter-reset: item } li { display: block; counter-increment: item } li::before { content: counters(item, ".") " " }`,
			Options{})
		assert.Equal(t, []string{"1 ", "1.1 ", "1.2 ", "2 "}, generated(bt))
	})

	t.Run("Counter And Attr", func(t *testing.T) {
		bt := buildTree(t,
			`<h2 title="T">x</h2><h2 title="U">y</h2>`,
			`body { counter-reset: sec 4 } h2 { counter-increment: sec } h2:before { content: counter(sec, lower-alpha) ") " attr(title) }`,
			Options{})
		assert.Equal(t, []string{"e) T", "f) U"}, generated(bt))
	})

	t.Run("Quotes", func(t *testing.T) {
		bt := buildTree(t,
			`<p><q>a <q>b</q></q></p>`,
			`q::before { content: open-quote } q::after { content: close-quote }`,
			Options{})
		assert.Equal(t, []string{"“", "‘", "’", "”"}, generated(bt))
	})

	t.Run("No Content No Box", func(t *testing.T) {
		bt := buildTree(t, `<p>x</p>`, `p::before { color: red } p::after { content: none }`, Options{})
		assert.Empty(t, generated(bt))
	})
}

func TestFormatCounter(t *testing.T) {
	tests := []struct {
		n        int
		style    string
		expected string
	}{
		{4, "lower-roman", "iv"},
		{1999, "upper-roman", "MCMXCIX"},
		{0, "lower-roman", "0"},
		{28, "lower-alpha", "ab"},
		{27, "upper-latin", "AA"},
		{3, "decimal-leading-zero", "03"},
		{-3, "decimal-leading-zero", "-3"},
		{2, "lower-greek", "β"},
		{5, "armenian", "5"},
		{1, "disc", "•"},
		{1, "none", ""},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCounter(tt.n, tt.style))
		})
	}
}

func TestCounterScopes(t *testing.T) {
	c := newCounterStack()
	c.reset("x", 1)
	c.descend()
	c.increment("x", 2)
	assert.Equal(t, 3, c.value("x"))
	c.reset("x", 10)
	assert.Equal(t, []int{3, 10}, c.values("x"))
	c.ascend()
	assert.Equal(t, []int{3}, c.values("x"))
	assert.Equal(t, 0, c.value("missing"))
	c.increment("y", 1)
	assert.Equal(t, 1, c.value("y"))
}
