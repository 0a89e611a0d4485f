// internal/engine/engine_test.go
package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/layout"
	"github.com/xkilldash9x/boxlayout/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Test Helpers --

// newTestEngine builds an engine with fixed font metrics over a temporary
// resource root, which is returned for the test to populate.
func newTestEngine(t *testing.T, mutate func(c *config.Config)) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.LayoutCfg.FontMetrics = "fixed"
	cfg.LayoutCfg.ResourceRoot = root
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	e, err := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e, root
}

func htmlInput(name, source string, css ...string) Input {
	return Input{Name: name, Source: []byte(source), Format: dom.FormatHTML, CSS: css}
}

func render(t *testing.T, e *Engine, in Input) *Result {
	t.Helper()
	res, err := e.Render(context.Background(), in)
	require.NoError(t, err)
	return res
}

// boxOf returns the single box expr selects.
func boxOf(t *testing.T, res *Result, expr string) *boxtree.Box {
	t.Helper()
	ids, err := res.Find(expr)
	require.NoError(t, err)
	require.Len(t, ids, 1, "expected one box for %s", expr)
	return res.Boxes.Box(ids[0])
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

// -- Pipeline Tests --

func TestRender(t *testing.T) {
	e, root := newTestEngine(t, nil)

	t.Run("Percentages Resolve Against The Parent", func(t *testing.T) {
		res := render(t, e, htmlInput("nested.html",
			`<div id="outer"><div id="inner"></div></div>`,
			`#outer { width: 200px; background-color: red } #inner { width: 50% }`))
		assert.Equal(t, 200.0, boxOf(t, res, "//*[@id='outer']").Layout.Content.Width)
		assert.Equal(t, 100.0, boxOf(t, res, "//*[@id='inner']").Layout.Content.Width)
		assert.Equal(t, 800.0, res.Viewport.Width)
		assert.NotEmpty(t, res.RunID)
		assert.NotEmpty(t, res.Items)
	})

	t.Run("Absolute Boxes Offset From Their Containing Block", func(t *testing.T) {
		res := render(t, e, htmlInput("abs.html",
			`<div id="cb"><div id="abs"></div></div>`,
			`body { margin: 0 }
			#cb { position: absolute; left: 50px; top: 50px; width: 100px; height: 100px }
			#abs { position: absolute; left: 10px; top: 10px; width: 5px; height: 5px }`))
		c := boxOf(t, res, "//*[@id='abs']").Layout.Content
		assert.Equal(t, 60.0, c.X)
		assert.Equal(t, 60.0, c.Y)
	})

	t.Run("Embedded And Linked Sheets Apply", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "site.css"), []byte("#a { width: 40px }"), 0o644))
		res := render(t, e, htmlInput("sheets.html", `<html><head>
			<link rel="stylesheet" href="site.css">
			<link rel="stylesheet" href="absent.css">
			<link rel="icon" href="site.css">
			<style>#b { width: 30px }</style>
			<style type="text/x-other">#b { width: 1px }</style>
			</head><body><div id="a"></div><div id="b"></div></body></html>`,
			`#b { height: 5px }`))
		assert.Equal(t, 40.0, boxOf(t, res, "//*[@id='a']").Layout.Content.Width)
		b := boxOf(t, res, "//*[@id='b']").Layout.Content
		assert.Equal(t, 30.0, b.Width)
		assert.Equal(t, 5.0, b.Height)
	})

	t.Run("Author Sheets Win Over Embedded Ones", func(t *testing.T) {
		res := render(t, e, htmlInput("order.html",
			`<style>#a { width: 30px }</style><div id="a"></div>`,
			`#a { width: 20px }`))
		assert.Equal(t, 20.0, boxOf(t, res, "//*[@id='a']").Layout.Content.Width)
	})

	t.Run("Invalid Declarations Become Diagnostics", func(t *testing.T) {
		res := render(t, e, htmlInput("bad.html", `<div id="a"></div>`,
			`#a { width: 12px extra; height: 4px }`))
		require.Error(t, res.Diagnostics)
		assert.NotEmpty(t, multierr.Errors(res.Diagnostics))
		a := boxOf(t, res, "//*[@id='a']").Layout.Content
		assert.Equal(t, 4.0, a.Height, "the valid declaration still applies")
		assert.Equal(t, 800.0-16, a.Width, "the invalid one is dropped")
	})

	t.Run("Images Are Sized From Resources", func(t *testing.T) {
		writePNG(t, root, "pic.png", 3, 2)
		res := render(t, e, htmlInput("img.html", `<img id="i" src="pic.png">`))
		c := boxOf(t, res, "//*[@id='i']").Layout.Content
		assert.Equal(t, 3.0, c.Width)
		assert.Equal(t, 2.0, c.Height)
	})

	t.Run("XML Documents", func(t *testing.T) {
		res := render(t, e, Input{
			Name:   "doc.xml",
			Source: []byte(`<doc><item/><item/></doc>`),
			Format: dom.FormatXML,
			CSS:    []string{`doc { display: block } item { display: block; height: 10px }`},
		})
		ids, err := res.Find("//item")
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, 10.0, res.Boxes.Box(ids[1]).Layout.Content.Y)
	})

	t.Run("Viewport Override", func(t *testing.T) {
		in := htmlInput("vp.html", `<div id="a"></div>`, `body { margin: 0 }`)
		in.Viewport.Width = 320
		in.Viewport.Height = 200
		res := render(t, e, in)
		assert.Equal(t, 320.0, boxOf(t, res, "//*[@id='a']").Layout.Content.Width)
	})

	t.Run("Hidden Root Has No Boxes", func(t *testing.T) {
		res := render(t, e, htmlInput("none.html", `<p>x</p>`, `html { display: none }`))
		assert.Equal(t, boxtree.NoBox, res.Boxes.Root())
		assert.Empty(t, res.Items)
	})

	t.Run("Unsupported Document Format", func(t *testing.T) {
		_, err := e.Render(context.Background(), Input{Name: "x", Format: dom.Format(9)})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("Malformed XML", func(t *testing.T) {
		_, err := e.Render(context.Background(), Input{Name: "x.xml", Source: []byte("<a>"), Format: dom.FormatXML})
		assert.Error(t, err)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.Render(ctx, htmlInput("c.html", `<p>x</p>`))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew(t *testing.T) {
	t.Run("Custom User Agent Sheet And Font Family", func(t *testing.T) {
		ua := filepath.Join(t.TempDir(), "ua.css")
		require.NoError(t, os.WriteFile(ua, []byte("html, body, span { display: block } span { height: 7px }"), 0o644))
		e, _ := newTestEngine(t, func(c *config.Config) {
			c.LayoutCfg.UserAgentStylesheet = ua
			c.LayoutCfg.FontFamily = "monospace"
		})
		res := render(t, e, htmlInput("ua.html", `<span id="s"></span>`))
		s := boxOf(t, res, "//*[@id='s']")
		assert.Equal(t, 7.0, s.Layout.Content.Height)
		assert.True(t, layout.FaceOf(s.Style).Monospace())
	})

	t.Run("Missing User Agent Sheet", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.LayoutCfg.UserAgentStylesheet = filepath.Join(t.TempDir(), "absent.css")
		_, err := New(cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user agent stylesheet")
	})
}

func TestRenderAll(t *testing.T) {
	e, _ := newTestEngine(t, func(c *config.Config) { c.EngineCfg.Concurrency = 2 })

	t.Run("Results Keep Input Order", func(t *testing.T) {
		widths := []string{"10px", "20px", "30px", "40px", "50px"}
		inputs := make([]Input, len(widths))
		for i, w := range widths {
			inputs[i] = htmlInput(w, `<div id="a"></div>`, "#a { width: "+w+" }")
		}
		results, err := e.RenderAll(context.Background(), inputs)
		require.NoError(t, err)
		require.Len(t, results, len(inputs))

		seen := make(map[string]bool)
		for i, res := range results {
			assert.Equal(t, widths[i], res.Name)
			assert.Equal(t, float64(10*(i+1)), boxOf(t, res, "//*[@id='a']").Layout.Content.Width)
			assert.False(t, seen[res.RunID], "run ids are unique")
			seen[res.RunID] = true
		}
	})

	t.Run("First Failure Is Returned", func(t *testing.T) {
		inputs := []Input{
			htmlInput("ok.html", `<p>x</p>`),
			{Name: "broken", Format: dom.Format(9)},
		}
		_, err := e.RenderAll(context.Background(), inputs)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("Empty Input", func(t *testing.T) {
		results, err := e.RenderAll(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

// -- Output Tests --

func TestWrite(t *testing.T) {
	e, root := newTestEngine(t, func(c *config.Config) {
		c.ViewportCfg.Width = 40
		c.ViewportCfg.Height = 30
		c.RenderCfg.Background = "black"
	})
	res := render(t, e, htmlInput("out.html",
		`<div id="a" class="x y">hi</div>`,
		`body { margin: 0 } #a { width: 20px; height: 10px; background: #ff0000 }`))

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, e.Write(&buf, res, "json"))

		var out resultJSON
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, res.RunID, out.RunID)
		assert.Equal(t, "out.html", out.Document)
		assert.Equal(t, 40.0, out.Viewport.Width)
		require.NotNil(t, out.Root)
		assert.Equal(t, "html", out.Root.Tag)
		assert.Equal(t, "block", out.Root.Display)
		require.NotEmpty(t, out.Paint)
		assert.Equal(t, len(res.Items), len(out.Paint))

		body := out.Root.Children[len(out.Root.Children)-1]
		require.NotEmpty(t, body.Children)
		div := body.Children[0]
		assert.Equal(t, "div", div.Tag)
		assert.Equal(t, "//*[@id='a']", div.Path)
		assert.Equal(t, 20.0, div.Content.Width)
		require.NotEmpty(t, div.Lines)
		assert.Equal(t, "hi", div.Lines[0].Fragments[0].Text)
	})

	t.Run("Tree", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, e.Write(&buf, res, "tree"))
		out := buf.String()
		assert.Contains(t, out, "element block <html>")
		assert.Contains(t, out, "  element block <body>")
		assert.Contains(t, out, "element block <div#a.x.y> (0, 0) 20x10")
		assert.Contains(t, out, `text inline "hi"`)
	})

	t.Run("PNG", func(t *testing.T) {
		block := render(t, e, htmlInput("block.html", `<div id="a"></div>`,
			`body { margin: 0 } #a { width: 20px; height: 10px; background: #ff0000 }`))
		var buf bytes.Buffer
		require.NoError(t, e.Write(&buf, block, "png"))
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
		assert.Equal(t, color.RGBAModel.Convert(color.RGBA{R: 255, A: 255}), color.RGBAModel.Convert(img.At(15, 8)))
		assert.Equal(t, color.RGBAModel.Convert(color.Black), color.RGBAModel.Convert(img.At(30, 20)))
	})

	t.Run("PNG With Missing Image Still Encodes", func(t *testing.T) {
		writePNG(t, root, "present.png", 2, 2)
		res := render(t, e, htmlInput("img.html",
			`<img src="present.png"><div id="d" style="width:5px;height:5px;background-image:url(gone.png)"></div>`))
		var buf bytes.Buffer
		err := e.Write(&buf, res, "png")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gone.png")
		_, decodeErr := png.Decode(&buf)
		assert.NoError(t, decodeErr)
	})

	t.Run("Unsupported Output", func(t *testing.T) {
		err := e.Write(&bytes.Buffer{}, res, "svg")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("Empty Tree", func(t *testing.T) {
		empty := render(t, e, htmlInput("none.html", `<p>x</p>`, `html { display: none }`))
		var buf bytes.Buffer
		require.NoError(t, WriteTree(&buf, empty))
		assert.Equal(t, "(no boxes)\n", buf.String())
		buf.Reset()
		require.NoError(t, WriteJSON(&buf, empty))
		assert.Contains(t, buf.String(), `"root": null`)
	})
}
