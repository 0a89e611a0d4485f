// internal/browser/paint/paint_test.go
package paint

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/fonts"
	"github.com/xkilldash9x/boxlayout/internal/browser/layout"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

type fakeImages map[string]image.Image

func (f fakeImages) Image(key string) (image.Image, error) {
	if img, ok := f[key]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func (f fakeImages) ImageSize(key string) (int, int, error) {
	img, err := f.Image(key)
	if err != nil {
		return 0, 0, err
	}
	s := img.Bounds().Size()
	return s.X, s.Y, nil
}

func layoutHTML(t *testing.T, h, css string, images fakeImages) *boxtree.Tree {
	t.Helper()
	tree, err := dom.ParseHTML(strings.NewReader(h))
	require.NoError(t, err)
	doc := style.NewDocument(tree, nil)
	doc.AddSheet(style.UserAgentSheet(), style.OriginUserAgent)
	require.NoError(t, doc.AddCSS("body { margin: 0 } "+css, style.OriginAuthor))
	vp := style.Viewport{Width: 200, Height: 100}
	r := style.NewResolver(properties.NewRegistry(), doc, vp, nil)
	bt, err := boxtree.Build(tree, r.ResolveTree(), boxtree.Options{Images: images, Pseudo: r.ResolvePseudo})
	require.NoError(t, err)
	layout.NewEngine(vp, fonts.Fixed{}, nil).Layout(bt)
	return bt
}

func nodeID(t *testing.T, bt *boxtree.Tree, id string) boxtree.BoxID {
	t.Helper()
	ids, err := bt.DOM.Find("//*[@id='" + id + "']")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	b, ok := bt.BoxFor(ids[0])
	require.True(t, ok)
	return b
}

// idsOf returns the element ids of the items of kind, in paint order.
func idsOf(t *testing.T, bt *boxtree.Tree, items []Item, kind ItemKind) []string {
	t.Helper()
	var out []string
	for _, it := range items {
		if it.Kind != kind {
			continue
		}
		id, _ := bt.DOM.Attr(bt.Box(it.Box).Node, "id")
		out = append(out, id)
	}
	return out
}

type op struct {
	kind  string
	rect  boxtree.Rect
	color color.Color
	text  string
	at    Point
}

type recorder struct{ ops []op }

func (r *recorder) FillRect(rect boxtree.Rect, c color.Color) {
	r.ops = append(r.ops, op{kind: "fill", rect: rect, color: c})
}

func (r *recorder) DrawText(run TextRun, pt Point) {
	r.ops = append(r.ops, op{kind: "text", text: run.Text, color: run.Color, at: pt})
}

func (r *recorder) DrawImage(rect boxtree.Rect, img image.Image) {
	r.ops = append(r.ops, op{kind: "image", rect: rect})
}

func TestOrder(t *testing.T) {
	t.Run("Stacking Levels Follow Appendix E", func(t *testing.T) {
		bt := layoutHTML(t,
			`<div id="a"></div><div id="b"></div><div id="c"></div><div id="d"></div><div id="f"></div>`,
			`div { height: 10px; width: 10px }
			#a { position: relative; z-index: -1; background: red }
			#b { background: blue }
			#c { position: absolute; z-index: 2; background: green }
			#d { position: relative; background: yellow }
			#f { float: left; background: black }`, nil)
		items := Order(bt)
		assert.Equal(t, []string{"a", "b", "f", "d", "c"}, idsOf(t, bt, items, ItemBackground))
	})

	t.Run("Positive Levels Sort By Z", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="x"></div><div id="y"></div><div id="z"></div>`,
			`div { position: absolute; width: 5px; height: 5px; background: red }
			#x { z-index: 3 } #y { z-index: 1 } #z { z-index: 1 }`, nil)
		assert.Equal(t, []string{"y", "z", "x"}, idsOf(t, bt, Order(bt), ItemBackground))
	})

	t.Run("Inline Content Paints In Line Order", func(t *testing.T) {
		bt := layoutHTML(t, `<p id="p">hi <span id="s">there</span></p>`,
			`p { margin: 0 } #s { background: red }`, nil)
		var kinds []ItemKind
		var texts []string
		for _, it := range Order(bt) {
			kinds = append(kinds, it.Kind)
			texts = append(texts, it.Text)
		}
		assert.Equal(t, []ItemKind{ItemText, ItemBackground, ItemText}, kinds)
		assert.Equal(t, []string{"hi ", "", "there"}, texts)
	})

	t.Run("Opacity Applies To Descendants", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="o"><div id="i"></div></div>`,
			`#o { opacity: 0.5; background: red } #i { height: 5px; background: blue }`, nil)
		items := Order(bt)
		require.Len(t, items, 2)
		for _, it := range items {
			assert.Equal(t, 0.5, it.Opacity)
		}
	})

	t.Run("Hidden Boxes Do Not Paint", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="h"><div id="v"></div></div>`,
			`#h { visibility: hidden; background: red; height: 5px }
			#v { visibility: visible; background: blue; height: 5px }`, nil)
		assert.Equal(t, []string{"v"}, idsOf(t, bt, Order(bt), ItemBackground))
	})

	t.Run("Outlines Come Last", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div><div id="b"></div>`,
			`div { height: 5px; background: red } #a { outline: 1px solid blue }`, nil)
		items := Order(bt)
		require.NotEmpty(t, items)
		last := items[len(items)-1]
		assert.Equal(t, ItemOutline, last.Kind)
		assert.Equal(t, nodeID(t, bt, "a"), last.Box)
	})

	t.Run("Positioned Inline Paints In Its Own Layer", func(t *testing.T) {
		bt := layoutHTML(t, `<p>a <span id="s">b</span> c</p><div id="d"></div>`,
			`p { margin: 0 } #s { position: relative; background: red }
			#d { height: 5px; background: blue }`, nil)
		var seq []string
		for _, it := range Order(bt) {
			if it.Kind == ItemText {
				seq = append(seq, strings.TrimSpace(it.Text))
				continue
			}
			id, _ := bt.DOM.Attr(bt.Box(it.Box).Node, "id")
			seq = append(seq, id)
		}
		assert.Equal(t, []string{"d", "a", "c", "s", "b"}, seq)
	})

	t.Run("Empty Tree", func(t *testing.T) {
		bt := layoutHTML(t, `<html></html>`, `html { display: none }`, nil)
		assert.Empty(t, Order(bt))
	})
}

func TestPaint(t *testing.T) {
	t.Run("Background And Border", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div>`,
			`#a { width: 10px; height: 10px; background: #ff0000; border: 2px solid #0000ff }`, nil)
		rec := &recorder{}
		require.NoError(t, Paint(bt, Order(bt), rec, nil))
		require.Len(t, rec.ops, 5)
		assert.Equal(t, boxtree.Rect{Width: 14, Height: 14}, rec.ops[0].rect)
		assert.Equal(t, color.NRGBA{R: 255, A: 255}, rec.ops[0].color)
		assert.Equal(t, boxtree.Rect{Width: 14, Height: 2}, rec.ops[1].rect)
		assert.Equal(t, boxtree.Rect{Y: 12, Width: 14, Height: 2}, rec.ops[2].rect)
		assert.Equal(t, boxtree.Rect{Y: 2, Width: 2, Height: 10}, rec.ops[3].rect)
		assert.Equal(t, boxtree.Rect{X: 12, Y: 2, Width: 2, Height: 10}, rec.ops[4].rect)
		for _, o := range rec.ops[1:] {
			assert.Equal(t, color.NRGBA{B: 255, A: 255}, o.color)
		}
	})

	t.Run("Opacity Fades Colors", func(t *testing.T) {
		bt := layoutHTML(t, `<div id="a"></div>`,
			`#a { height: 10px; background: #ff0000; opacity: 0.5 }`, nil)
		rec := &recorder{}
		require.NoError(t, Paint(bt, Order(bt), rec, nil))
		require.Len(t, rec.ops, 1)
		assert.Equal(t, color.NRGBA{R: 255, A: 128}, rec.ops[0].color)
	})

	t.Run("Text On Its Baseline", func(t *testing.T) {
		bt := layoutHTML(t, `<p>hi</p>`, `p { margin: 0; font-size: 10px; color: #00ff00 }`, nil)
		rec := &recorder{}
		require.NoError(t, Paint(bt, Order(bt), rec, nil))
		require.Len(t, rec.ops, 1)
		assert.Equal(t, "hi", rec.ops[0].text)
		assert.Equal(t, Point{X: 0, Y: 9}, rec.ops[0].at)
		assert.Equal(t, color.NRGBA{G: 255, A: 255}, rec.ops[0].color)
	})

	t.Run("Underline", func(t *testing.T) {
		bt := layoutHTML(t, `<p>hi</p>`, `p { margin: 0; font-size: 10px; text-decoration: underline }`, nil)
		rec := &recorder{}
		require.NoError(t, Paint(bt, Order(bt), rec, nil))
		require.Len(t, rec.ops, 2)
		assert.Equal(t, "fill", rec.ops[1].kind)
		assert.Equal(t, 12.0, rec.ops[1].rect.Width)
		assert.Equal(t, 10.0, rec.ops[1].rect.Y)
	})

	t.Run("Replaced Content", func(t *testing.T) {
		images := fakeImages{"a.png": image.NewRGBA(image.Rect(0, 0, 4, 2))}
		bt := layoutHTML(t, `<img src="a.png">`, ``, images)
		rec := &recorder{}
		require.NoError(t, Paint(bt, Order(bt), rec, images))
		require.Len(t, rec.ops, 1)
		assert.Equal(t, "image", rec.ops[0].kind)
		assert.Equal(t, 4.0, rec.ops[0].rect.Width)
		assert.Equal(t, 2.0, rec.ops[0].rect.Height)
	})

	t.Run("Missing Images Are Reported", func(t *testing.T) {
		bt := layoutHTML(t, `<img src="missing.png"><div id="a"></div>`,
			`#a { height: 5px; background: red }`, fakeImages{})
		rec := &recorder{}
		err := Paint(bt, Order(bt), rec, fakeImages{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing.png")
		require.Len(t, rec.ops, 1)
		assert.Equal(t, "fill", rec.ops[0].kind)
	})

	t.Run("Background Tiles Are Cropped", func(t *testing.T) {
		images := fakeImages{"t.png": image.NewRGBA(image.Rect(0, 0, 4, 4))}
		bt := layoutHTML(t, `<div></div>`,
			`div { width: 10px; height: 4px; background: url(t.png) repeat-x }`, images)
		rec := &recorder{}
		require.NoError(t, Paint(bt, Order(bt), rec, images))
		var widths []float64
		for _, o := range rec.ops {
			require.Equal(t, "image", o.kind)
			widths = append(widths, o.rect.Width)
		}
		assert.Equal(t, []float64{4, 4, 2}, widths)
	})
}

func TestRasterCanvas(t *testing.T) {
	gf, err := fonts.NewGoFonts()
	require.NoError(t, err)
	c := NewRasterCanvas(20, 20, gf, color.White, zap.NewNop())
	defer c.Close()

	c.FillRect(boxtree.Rect{X: 5, Y: 5, Width: 10, Height: 10}, color.NRGBA{R: 255, A: 255})
	img := c.Image()
	r, g, b, _ := img.At(7, 7).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
	r, g, b, _ = img.At(1, 1).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})

	c.DrawText(TextRun{Text: "H", Face: fonts.Face{Size: 16}, Color: color.Black}, Point{X: 1, Y: 19})
	dark := false
	bounds := c.Image().Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && !dark; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if r, _, _, _ := c.Image().At(x, y).RGBA(); r < 0x8000 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "text left no ink")

	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), decoded.Bounds())
}
