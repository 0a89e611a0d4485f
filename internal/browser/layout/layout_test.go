// internal/browser/layout/layout_test.go
package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/fonts"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// layoutHTML styles and lays out a document with the fixed font metric:
// glyphs are 0.6em wide and normal lines 1.2em tall.
func layoutHTML(t *testing.T, h, css string, width, height float64) *boxtree.Tree {
	t.Helper()
	tree, err := dom.ParseHTML(strings.NewReader(h))
	require.NoError(t, err)
	doc := style.NewDocument(tree, nil)
	doc.AddSheet(style.UserAgentSheet(), style.OriginUserAgent)
	require.NoError(t, doc.AddCSS(css, style.OriginAuthor))
	vp := style.Viewport{Width: width, Height: height}
	r := style.NewResolver(properties.NewRegistry(), doc, vp, nil)
	bt, err := boxtree.Build(tree, r.ResolveTree(), boxtree.Options{Pseudo: r.ResolvePseudo})
	require.NoError(t, err)
	NewEngine(vp, fonts.Fixed{}, nil).Layout(bt)
	return bt
}

func boxByID(t *testing.T, bt *boxtree.Tree, id string) *boxtree.Box {
	t.Helper()
	ids, err := bt.DOM.Find("//*[@id='" + id + "']")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	b, ok := bt.BoxFor(ids[0])
	require.True(t, ok, "no box for %q", id)
	return bt.Box(b)
}

func TestCursorMargins(t *testing.T) {
	t.Run("Positive Margins Collapse To The Largest", func(t *testing.T) {
		c := &Cursor{}
		c.AddMargin(3)
		c.AddMargin(7)
		c.AddMargin(2)
		assert.Equal(t, 7.0, c.TotalMargin())
	})
	t.Run("Negative Margins Subtract", func(t *testing.T) {
		c := &Cursor{Y: 10}
		c.AddMargin(3)
		c.AddMargin(-5)
		assert.Equal(t, -2.0, c.TotalMargin())
		mark := c.mark()
		c.ApplyMargin()
		assert.Equal(t, 8.0, c.Y)
		assert.Zero(t, c.TotalMargin())
		top, ok := c.firstTop(mark)
		require.True(t, ok)
		assert.Equal(t, 8.0, top)
	})
}

func TestSolveWidth(t *testing.T) {
	testCases := []struct {
		name           string
		width          float64
		widthAuto      bool
		ml, mr         float64
		mlAuto, mrAuto bool
		rtl            bool
		want           [3]float64
	}{
		{name: "Auto Width Fills", widthAuto: true, ml: 10, mr: 10, want: [3]float64{80, 10, 10}},
		{name: "Auto Margins Center", width: 50, mlAuto: true, mrAuto: true, want: [3]float64{50, 25, 25}},
		{name: "Auto Left Margin", width: 50, mr: 10, mlAuto: true, want: [3]float64{50, 40, 10}},
		{name: "Over Constrained Drops Right Margin", width: 50, ml: 10, mr: 10, want: [3]float64{50, 10, 40}},
		{name: "Over Constrained RTL Drops Left Margin", width: 50, ml: 10, mr: 10, rtl: true, want: [3]float64{50, 40, 10}},
		{name: "Too Wide Ignores Auto Margins", width: 150, mlAuto: true, mrAuto: true, want: [3]float64{150, 0, -50}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, ml, mr := solveWidth(100, 0, tc.width, tc.widthAuto, tc.ml, tc.mr, tc.mlAuto, tc.mrAuto, tc.rtl)
			assert.Equal(t, tc.want, [3]float64{w, ml, mr})
		})
	}
}

func TestFloatList(t *testing.T) {
	fl := &floatList{}
	place := func(w, h float64, side style.FloatType) (float64, float64) {
		x, y := fl.place(w, h, side, 0, 0, 300)
		fl.add(boxtree.Rect{X: x, Y: y, Width: w, Height: h}, side)
		return x, y
	}

	x, y := place(100, 50, style.FloatLeft)
	assert.Equal(t, [2]float64{0, 0}, [2]float64{x, y})
	x, y = place(100, 20, style.FloatRight)
	assert.Equal(t, [2]float64{200, 0}, [2]float64{x, y})

	// 150 does not fit in the 100 left between the two floats.
	x, y = place(150, 10, style.FloatLeft)
	assert.Equal(t, [2]float64{100, 20}, [2]float64{x, y})

	left, right := fl.edges(5, 1, 0, 300)
	assert.Equal(t, 100.0, left)
	assert.Equal(t, 200.0, right)
	assert.False(t, fl.intrudes(60, 10, 0, 300))

	bottom, ok := fl.clearance(style.ClearRight)
	require.True(t, ok)
	assert.Equal(t, 20.0, bottom)
	bottom, ok = fl.clearance(style.ClearBoth)
	require.True(t, ok)
	assert.Equal(t, 50.0, bottom)
	assert.Equal(t, 20.0, fl.nextBottom(0))
	assert.True(t, math.IsInf(fl.nextBottom(50), 1))
}

func TestBlockLayout(t *testing.T) {
	t.Run("Widths Resolve Against The Containing Block", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="o"><div id="i"></div></div>`,
			`body{margin:0} #o{width:200px} #i{width:50%}`, 800, 600)
		assert.Equal(t, 200.0, boxByID(t, bt, "o").Layout.Content.Width)
		assert.Equal(t, 100.0, boxByID(t, bt, "i").Layout.Content.Width)
	})

	t.Run("Sibling Margins Collapse", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div><div id="b"></div>`,
			`body{margin:0} #a{height:10px;margin-bottom:20px} #b{height:10px;margin-top:30px}`, 800, 600)
		a, b := boxByID(t, bt, "a"), boxByID(t, bt, "b")
		assert.Equal(t, 30.0, b.Layout.Content.Y-a.Layout.Content.Bottom())
	})

	t.Run("Parent And First Child Margins Collapse", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="o"><div id="i"></div></div>`,
			`body{margin:0} #o{margin-top:20px} #i{margin-top:30px;height:10px}`, 800, 600)
		o, i := boxByID(t, bt, "o"), boxByID(t, bt, "i")
		assert.Equal(t, 30.0, i.Layout.Content.Y)
		assert.Equal(t, 30.0, o.Layout.Content.Y)
		assert.Equal(t, 10.0, o.Layout.Content.Height)
	})

	t.Run("Padding Blocks Collapse", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="o"><div id="i"></div></div>`,
			`body{margin:0} #o{margin-top:20px;padding-top:5px} #i{margin-top:30px;height:10px}`, 800, 600)
		o, i := boxByID(t, bt, "o"), boxByID(t, bt, "i")
		assert.Equal(t, 25.0, o.Layout.Content.Y)
		assert.Equal(t, 55.0, i.Layout.Content.Y)
		assert.Equal(t, 40.0, o.Layout.Content.Height)
	})

	t.Run("Min And Max Width", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div><div id="b"></div>`,
			`body{margin:0} #a{max-width:100px} #b{width:10px;min-width:60px}`, 800, 600)
		assert.Equal(t, 100.0, boxByID(t, bt, "a").Layout.Content.Width)
		assert.Equal(t, 60.0, boxByID(t, bt, "b").Layout.Content.Width)
	})

	t.Run("Min And Max Height Clamp A Specified Height", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"><div id="c"></div></div><div id="b"></div><div id="f"></div>`,
			`body{margin:0} #a{height:100px;max-height:40px} #c{height:50%} #b{height:10px;min-height:60px} #f{float:left;width:10px;height:100px;max-height:40px}`, 800, 600)
		assert.Equal(t, 40.0, boxByID(t, bt, "a").Layout.Content.Height)
		assert.Equal(t, 20.0, boxByID(t, bt, "c").Layout.Content.Height)
		assert.Equal(t, 60.0, boxByID(t, bt, "b").Layout.Content.Height)
		assert.Equal(t, 40.0, boxByID(t, bt, "f").Layout.Content.Height)
	})

	t.Run("Border Box Sizing", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div>`,
			`body{margin:0} #a{box-sizing:border-box;width:100px;height:50px;padding:10px;border:5px solid}`, 800, 600)
		a := boxByID(t, bt, "a")
		assert.Equal(t, 70.0, a.Layout.Content.Width)
		assert.Equal(t, 20.0, a.Layout.Content.Height)
		assert.Equal(t, 100.0, a.Layout.BorderBox().Width)
	})

	t.Run("Relative Offset", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div>`,
			`body{margin:0} #a{position:relative;left:5px;top:7px;height:10px}`, 800, 600)
		a := boxByID(t, bt, "a")
		assert.Equal(t, 5.0, a.Layout.Content.X)
		assert.Equal(t, 7.0, a.Layout.Content.Y)
		assert.Equal(t, 5.0, a.Layout.RelativeX)
	})
}

func TestInlineLayout(t *testing.T) {
	css := `body{margin:0;font-size:10px}`

	t.Run("Line Metrics", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">hello world</div>`, css, 800, 600)
		p := boxByID(t, bt, "p")
		require.Len(t, p.Layout.Lines, 1)
		line := p.Layout.Lines[0]
		assert.Equal(t, 12.0, line.Height)
		assert.Equal(t, 9.0, line.Baseline)
		require.Len(t, line.Fragments, 1)
		assert.Equal(t, "hello world", line.Fragments[0].Text)
		assert.Equal(t, 66.0, line.Fragments[0].Rect.Width)
		assert.Equal(t, 12.0, p.Layout.Content.Height)
	})

	t.Run("Lines Wrap At Spaces", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">aaaa aaaa aaaa</div>`, css+` #p{width:50px}`, 800, 600)
		p := boxByID(t, bt, "p")
		require.Len(t, p.Layout.Lines, 3)
		assert.Equal(t, 36.0, p.Layout.Content.Height)
		assert.Equal(t, 24.0, p.Layout.Lines[2].Y)
	})

	t.Run("Forced Breaks", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">a<br>b<br><br>c</div>`, css, 800, 600)
		assert.Len(t, boxByID(t, bt, "p").Layout.Lines, 4)
	})

	t.Run("Nowrap Never Breaks", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">aaaa aaaa aaaa</div>`, css+` #p{width:50px;white-space:nowrap}`, 800, 600)
		assert.Len(t, boxByID(t, bt, "p").Layout.Lines, 1)
	})

	testCases := []struct {
		align string
		want  float64
	}{
		{"left", 0},
		{"right", 76},
		{"center", 38},
	}
	for _, tc := range testCases {
		t.Run("Text Align "+tc.align, func(t *testing.T) {
			bt := layoutHTML(t, `<div id="p">aaaa</div>`, css+` #p{width:100px;text-align:`+tc.align+`}`, 800, 600)
			line := boxByID(t, bt, "p").Layout.Lines[0]
			require.Len(t, line.Fragments, 1)
			assert.Equal(t, tc.want, line.Fragments[0].Rect.X)
		})
	}

	t.Run("Justify Fills All But The Last Line", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">aa aa aa aa</div>`, css+` #p{width:50px;text-align:justify}`, 800, 600)
		lines := boxByID(t, bt, "p").Layout.Lines
		require.Len(t, lines, 2)
		frags := lines[0].Fragments
		assert.InDelta(t, 50.0, frags[len(frags)-1].Rect.Right(), 1e-9)
		assert.Equal(t, 12.0, lines[1].Fragments[0].Rect.Right())
	})

	t.Run("Text Indent", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">aaaa</div>`, css+` #p{text-indent:20px}`, 800, 600)
		assert.Equal(t, 20.0, boxByID(t, bt, "p").Layout.Lines[0].Fragments[0].Rect.X)
	})

	t.Run("Inline Box Fragments", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">aa <span id="s">bb</span></div>`, css+` #s{padding:0 4px}`, 800, 600)
		s := boxByID(t, bt, "s")
		assert.Equal(t, 22.0, s.Layout.Content.X)
		assert.Equal(t, 12.0, s.Layout.Content.Width)
	})

	t.Run("Inline Block Is Atomic", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="p">aa<span id="s"></span></div>`, css+` #s{display:inline-block;width:30px;height:30px}`, 800, 600)
		s := boxByID(t, bt, "s")
		assert.Equal(t, 12.0, s.Layout.Content.X)
		// The bottom margin edge sits on the baseline.
		line := boxByID(t, bt, "p").Layout.Lines[0]
		assert.Equal(t, line.Baseline, s.Layout.Content.Bottom())
		assert.Equal(t, 33.0, line.Height)
	})
}

func TestFloatIntrusion(t *testing.T) {
	text := strings.Repeat("aaaa ", 30)
	bt := layoutHTML(t, `<div id="c"><div id="f"></div>`+text+`</div>`,
		`body{margin:0;font-size:10px} #c{width:300px} #f{float:left;width:100px;height:30px}`, 800, 600)
	c, f := boxByID(t, bt, "c"), boxByID(t, bt, "f")
	assert.Equal(t, boxtree.Rect{Width: 100, Height: 30}, f.Layout.Content)

	lines := c.Layout.Lines
	require.Len(t, lines, 5)
	for _, line := range lines[:3] {
		assert.Equal(t, 100.0, line.X)
		assert.Equal(t, 200.0, line.Width)
	}
	assert.Equal(t, 36.0, lines[3].Y)
	assert.Equal(t, 0.0, lines[3].X)
	assert.Equal(t, 300.0, lines[3].Width)
	assert.Equal(t, 60.0, c.Layout.Content.Height)
}

func TestClearance(t *testing.T) {
	bt := layoutHTML(t, `<div id="f"></div><div id="c"></div>`,
		`body{margin:0} #f{float:right;width:10px;height:40px} #c{clear:right;height:10px}`, 800, 600)
	f, c := boxByID(t, bt, "f"), boxByID(t, bt, "c")
	assert.Equal(t, 790.0, f.Layout.Content.X)
	assert.Equal(t, 40.0, c.Layout.Content.Y)
}

func TestAbsolutePositioning(t *testing.T) {
	t.Run("Relative Containing Block", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="r"><div id="a"></div></div>`,
			`body{margin:0} #r{position:relative;left:50px;top:50px;width:200px;height:200px}
			 #a{position:absolute;top:10px;left:10px;width:20px;height:20px}`, 800, 600)
		a := boxByID(t, bt, "a")
		assert.Equal(t, boxtree.Rect{X: 60, Y: 60, Width: 20, Height: 20}, a.Layout.Content)
	})

	t.Run("Right And Bottom", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div>`,
			`#a{position:absolute;right:10px;bottom:20px;width:30px;height:40px}`, 800, 600)
		a := boxByID(t, bt, "a")
		assert.Equal(t, boxtree.Rect{X: 760, Y: 540, Width: 30, Height: 40}, a.Layout.Content)
	})

	t.Run("Left And Right Stretch", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div>`,
			`#a{position:absolute;left:10px;right:30px;top:0;bottom:0}`, 800, 600)
		a := boxByID(t, bt, "a")
		assert.Equal(t, boxtree.Rect{X: 10, Y: 0, Width: 760, Height: 600}, a.Layout.Content)
	})

	t.Run("Auto Margins Center", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div>`,
			`#a{position:absolute;left:0;right:0;width:100px;height:10px;margin:0 auto}`, 800, 600)
		a := boxByID(t, bt, "a")
		assert.Equal(t, 350.0, a.Layout.Content.X)
	})

	t.Run("Static Position", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="b"></div><div id="a"></div>`,
			`body{margin:0} #b{height:25px} #a{position:absolute;width:10px;height:10px}`, 800, 600)
		a := boxByID(t, bt, "a")
		assert.Equal(t, 0.0, a.Layout.Content.X)
		assert.Equal(t, 25.0, a.Layout.Content.Y)
	})
}

func TestFlexLayout(t *testing.T) {
	t.Run("Justify And Align", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a" class="i"></div><div id="b" class="i"></div><div id="d" class="i"></div></div>`,
			`body{margin:0} #c{display:flex;width:300px;height:100px;justify-content:space-between;align-items:center}
			 .i{width:50px;height:20px}`, 800, 600)
		for id, x := range map[string]float64{"a": 0, "b": 125, "d": 250} {
			l := boxByID(t, bt, id).Layout
			assert.Equal(t, x, l.Content.X, id)
			assert.Equal(t, 40.0, l.Content.Y, id)
		}
	})

	t.Run("Grow Fills Free Space", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex;width:300px} #a{flex-grow:1} #b{width:100px}`, 800, 600)
		a, b := boxByID(t, bt, "a"), boxByID(t, bt, "b")
		assert.Equal(t, 200.0, a.Layout.Content.Width)
		assert.Equal(t, 200.0, b.Layout.Content.X)
	})

	t.Run("Shrink Is Weighted By Base Size", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex;width:200px} #a{width:200px} #b{width:100px}`, 800, 600)
		assert.InDelta(t, 133.333, boxByID(t, bt, "a").Layout.Content.Width, 0.01)
		assert.InDelta(t, 66.667, boxByID(t, bt, "b").Layout.Content.Width, 0.01)
	})

	t.Run("Max Width Freezes", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex;width:300px} #a{flex-grow:1;max-width:50px} #b{flex-grow:1}`, 800, 600)
		assert.Equal(t, 50.0, boxByID(t, bt, "a").Layout.Content.Width)
		assert.Equal(t, 250.0, boxByID(t, bt, "b").Layout.Content.Width)
	})

	t.Run("Stretch Fills The Line", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex;width:300px} #a{width:10px;height:40px} #b{width:10px}`, 800, 600)
		assert.Equal(t, 40.0, boxByID(t, bt, "b").Layout.Content.Height)
		assert.Equal(t, 40.0, boxByID(t, bt, "c").Layout.Content.Height)
	})

	t.Run("Wrap And Reverse", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex;flex-wrap:wrap;width:100px} #a,#b{width:60px;height:10px}`, 800, 600)
		assert.Equal(t, 10.0, boxByID(t, bt, "b").Layout.Content.Y)
		assert.Equal(t, 20.0, boxByID(t, bt, "c").Layout.Content.Height)

		bt = layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex;flex-direction:row-reverse;width:100px} #a,#b{width:30px;height:10px}`, 800, 600)
		assert.Equal(t, 70.0, boxByID(t, bt, "a").Layout.Content.X)
		assert.Equal(t, 40.0, boxByID(t, bt, "b").Layout.Content.X)
	})

	t.Run("Column Direction", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex;flex-direction:column;width:100px} #a{height:10px} #b{height:20px}`, 800, 600)
		b := boxByID(t, bt, "b")
		assert.Equal(t, 10.0, b.Layout.Content.Y)
		assert.Equal(t, 100.0, b.Layout.Content.Width)
		assert.Equal(t, 30.0, boxByID(t, bt, "c").Layout.Content.Height)
	})

	t.Run("Order", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="c"><div id="a"></div><div id="b"></div></div>`,
			`body{margin:0} #c{display:flex} #a,#b{width:10px} #a{order:2}`, 800, 600)
		assert.Equal(t, 10.0, boxByID(t, bt, "a").Layout.Content.X)
		assert.Equal(t, 0.0, boxByID(t, bt, "b").Layout.Content.X)
	})
}

func TestAlignmentOffsets(t *testing.T) {
	testCases := []struct {
		name       string
		behavior   alignBehavior
		start, gap float64
	}{
		{"Start", alignStart, 0, 0},
		{"End", alignEnd, 60, 0},
		{"Center", alignCenter, 30, 0},
		{"Between", alignBetween, 0, 30},
		{"Around", alignAround, 10, 20},
		{"Evenly", alignEvenly, 15, 15},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			start, gap := alignmentOffsets(3, 60, tc.behavior)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.gap, gap)
		})
	}
}

func TestTableLayout(t *testing.T) {
	t.Run("Column Widths From Cells", func(t *testing.T) {
		bt := layoutHTML(t, `<table id="t"><tr><td id="a"></td><td id="b"></td></tr></table>`,
			`body{margin:0} table{border-spacing:0} #a{width:100px;height:30px} #b{width:50px}`, 800, 600)
		a, b := boxByID(t, bt, "a"), boxByID(t, bt, "b")
		assert.Equal(t, 0.0, a.Layout.Content.X)
		assert.Equal(t, 100.0, b.Layout.Content.X)
		assert.Equal(t, 150.0, boxByID(t, bt, "t").Layout.Content.Width)
		assert.Equal(t, 30.0, boxByID(t, bt, "t").Layout.Content.Height)
		assert.Equal(t, 30.0, b.Layout.Content.Height)
	})

	t.Run("Border Spacing", func(t *testing.T) {
		bt := layoutHTML(t, `<table id="t"><tr><td id="a"></td><td id="b"></td></tr></table>`,
			`body{margin:0} table{border-spacing:5px 3px} td{width:10px;height:10px}`, 800, 600)
		assert.Equal(t, 5.0, boxByID(t, bt, "a").Layout.Content.X)
		assert.Equal(t, 20.0, boxByID(t, bt, "b").Layout.Content.X)
		assert.Equal(t, 3.0, boxByID(t, bt, "a").Layout.Content.Y)
		assert.Equal(t, 35.0, boxByID(t, bt, "t").Layout.Content.Width)
		assert.Equal(t, 16.0, boxByID(t, bt, "t").Layout.Content.Height)
	})

	t.Run("Spans", func(t *testing.T) {
		bt := layoutHTML(t, `<table><tr><td id="a" rowspan="2"></td><td id="b"></td></tr><tr><td id="c"></td></tr><tr><td id="d" colspan="2"></td></tr></table>`,
			`body{margin:0} table{border-spacing:0} td{width:10px;height:10px} #d{width:auto}`, 800, 600)
		assert.Equal(t, 10.0, boxByID(t, bt, "c").Layout.Content.X)
		assert.Equal(t, 10.0, boxByID(t, bt, "c").Layout.Content.Y)
		assert.Equal(t, 20.0, boxByID(t, bt, "a").Layout.Content.Height)
		assert.Equal(t, 20.0, boxByID(t, bt, "d").Layout.Content.Width)
	})

	t.Run("Fixed Layout Splits Remaining Width", func(t *testing.T) {
		bt := layoutHTML(t, `<table id="t"><tr><td id="a"></td><td id="b"></td><td id="c"></td></tr></table>`,
			`body{margin:0} table{table-layout:fixed;width:300px;border-spacing:0} #a{width:100px}`, 800, 600)
		assert.Equal(t, 100.0, boxByID(t, bt, "b").Layout.Content.X)
		assert.Equal(t, 100.0, boxByID(t, bt, "b").Layout.Content.Width)
		assert.Equal(t, 200.0, boxByID(t, bt, "c").Layout.Content.X)
	})

	t.Run("Surplus Width Goes To Auto Columns", func(t *testing.T) {
		bt := layoutHTML(t, `<table id="t"><tr><td id="a"></td><td id="b"></td></tr></table>`,
			`body{margin:0} table{width:200px;border-spacing:0} #a{width:50px}`, 800, 600)
		a, b := boxByID(t, bt, "a"), boxByID(t, bt, "b")
		assert.Equal(t, 50.0, a.Layout.Content.Width)
		assert.Equal(t, 50.0, b.Layout.Content.X)
		assert.Equal(t, 150.0, b.Layout.Content.Width)
	})

	t.Run("Surplus Width Spreads When Every Column Is Sized", func(t *testing.T) {
		bt := layoutHTML(t, `<table id="t"><tr><td id="a"></td><td id="b"></td></tr></table>`,
			`body{margin:0} table{width:300px;border-spacing:0} #a{width:100px} #b{width:50px}`, 800, 600)
		assert.Equal(t, 200.0, boxByID(t, bt, "a").Layout.Content.Width)
		assert.Equal(t, 100.0, boxByID(t, bt, "b").Layout.Content.Width)
	})

	t.Run("Captions Add To The Height", func(t *testing.T) {
		bt := layoutHTML(t, `<table id="t"><caption id="cap"></caption><tr><td id="a"></td></tr></table>`,
			`body{margin:0} table{border-spacing:0} #cap{height:15px} td{width:10px;height:10px}`, 800, 600)
		assert.Equal(t, 15.0, boxByID(t, bt, "a").Layout.Content.Y)
		assert.Equal(t, 25.0, boxByID(t, bt, "t").Layout.Content.Height)
	})
}

func TestListMarker(t *testing.T) {
	bt := layoutHTML(t, `<ul><li id="li">item</li></ul>`, `body{margin:0;font-size:10px}`, 800, 600)
	li := boxByID(t, bt, "li")
	marker := li.Layout.MarkerRect
	assert.Less(t, marker.Right(), li.Layout.Content.X)
	assert.Equal(t, li.Layout.Lines[0].Baseline-8, marker.Y)
}

func TestLayoutIsRepeatable(t *testing.T) {
	tree, err := dom.ParseHTML(strings.NewReader(`<div id="a">text <b>bold</b></div><div style="float:left;width:20px;height:20px"></div>`))
	require.NoError(t, err)
	doc := style.NewDocument(tree, nil)
	doc.AddSheet(style.UserAgentSheet(), style.OriginUserAgent)
	vp := style.Viewport{Width: 400, Height: 300}
	r := style.NewResolver(properties.NewRegistry(), doc, vp, nil)
	bt, err := boxtree.Build(tree, r.ResolveTree(), boxtree.Options{})
	require.NoError(t, err)

	e := NewEngine(vp, nil, nil)
	e.Layout(bt)
	first := make([]boxtree.Layout, bt.Len())
	for i := range first {
		first[i] = bt.Box(boxtree.BoxID(i)).Layout
	}
	e.Layout(bt)
	for i := range first {
		assert.Equal(t, first[i], bt.Box(boxtree.BoxID(i)).Layout)
	}
}

func TestDegenerateInput(t *testing.T) {
	bt := layoutHTML(t, `<div id="a"></div>`, `#a{width:-50px;margin-left:-20px}`, 0, 0)
	a := boxByID(t, bt, "a")
	assert.False(t, math.IsNaN(a.Layout.Content.X))
	assert.GreaterOrEqual(t, a.Layout.Content.Width, 0.0)
}
