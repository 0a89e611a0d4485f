// internal/browser/paint/canvas.go
package paint

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"go.uber.org/multierr"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/fonts"
	"github.com/xkilldash9x/boxlayout/internal/browser/layout"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// TextRun is a piece of text set in one face and color.
type TextRun struct {
	Text  string
	Face  fonts.Face
	Color color.Color
}

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

// Canvas is the drawing capability the paint list is replayed onto.
type Canvas interface {
	FillRect(r boxtree.Rect, c color.Color)
	// DrawText draws run with its baseline starting at pt.
	DrawText(run TextRun, pt Point)
	// DrawImage draws img scaled into r.
	DrawImage(r boxtree.Rect, img image.Image)
}

// Images resolves image references found in styles and replaced content.
type Images interface {
	Image(key string) (image.Image, error)
}

// Paint replays items onto c. Images that fail to load are skipped and
// their errors returned together once every item is drawn. images may be nil.
func Paint(t *boxtree.Tree, items []Item, c Canvas, images Images) error {
	p := &painter{t: t, c: c, images: images}
	for _, it := range items {
		b := t.Box(it.Box)
		if b == nil {
			continue
		}
		switch it.Kind {
		case ItemBackground:
			p.background(b, it)
		case ItemBorder:
			p.border(b, it)
		case ItemText:
			p.text(b, it)
		case ItemImage:
			if img := p.image(b.Replaced.Source); img != nil {
				c.DrawImage(it.Rect, img)
			}
		case ItemMarker:
			p.marker(b, it)
		case ItemOutline:
			p.outline(b, it)
		}
	}
	return p.err
}

type painter struct {
	t      *boxtree.Tree
	c      Canvas
	images Images
	err    error
}

func (p *painter) image(key string) image.Image {
	if p.images == nil || key == "" {
		return nil
	}
	img, err := p.images.Image(key)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("loading image %q: %w", key, err))
		return nil
	}
	return img
}

// colorOf converts a computed color to a straight alpha color faded by opacity.
func colorOf(v properties.Value, fallback color.RGBA, opacity float64) color.NRGBA {
	c := fallback
	if v.Type == properties.TypeColor {
		c = v.Color
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(float64(c.A) * opacity))}
}

func (p *painter) background(b *boxtree.Box, it Item) {
	bg := b.Style.Background
	if bg.Color.Type == properties.TypeColor && bg.Color.Color.A > 0 {
		p.c.FillRect(it.Rect, colorOf(bg.Color, color.RGBA{}, it.Opacity))
	}
	if bg.Image.Type != properties.TypeURI {
		return
	}
	img := p.image(bg.Image.Text)
	if img == nil {
		return
	}
	area := it.Rect.ExpandedBy(boxtree.Edges{
		Top: -b.Layout.Border.Top, Right: -b.Layout.Border.Right,
		Bottom: -b.Layout.Border.Bottom, Left: -b.Layout.Border.Left,
	})
	p.tile(img, area, bg)
}

// tile draws img over area following background-repeat and
// background-position. Tiles are cropped to area.
func (p *painter) tile(img image.Image, area boxtree.Rect, bg style.BackgroundValues) {
	size := img.Bounds().Size()
	w, h := float64(size.X), float64(size.Y)
	if w <= 0 || h <= 0 || area.Empty() {
		return
	}
	x, y := area.X, area.Y
	if pos := bg.Position.Components; len(pos) == 2 {
		x += pos[0].ResolveOr(area.Width-w, 0)
		y += pos[1].ResolveOr(area.Height-h, 0)
	}
	repeat := bg.Repeat.Keyword
	repeatX := repeat == "repeat" || repeat == "repeat-x" || repeat == ""
	repeatY := repeat == "repeat" || repeat == "repeat-y" || repeat == ""
	startX, endX := x, x+w
	if repeatX {
		startX = x - math.Ceil((x-area.X)/w)*w
		endX = area.Right()
	}
	startY, endY := y, y+h
	if repeatY {
		startY = y - math.Ceil((y-area.Y)/h)*h
		endY = area.Bottom()
	}
	for ty := startY; ty < endY; ty += h {
		for tx := startX; tx < endX; tx += w {
			p.drawClipped(img, boxtree.Rect{X: tx, Y: ty, Width: w, Height: h}, area)
		}
	}
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// drawClipped draws img at r, cropping the parts outside clip. Images that
// cannot be cropped are drawn whole.
func (p *painter) drawClipped(img image.Image, r, clip boxtree.Rect) {
	x0, y0 := math.Max(r.X, clip.X), math.Max(r.Y, clip.Y)
	x1, y1 := math.Min(r.Right(), clip.Right()), math.Min(r.Bottom(), clip.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return
	}
	if x0 == r.X && y0 == r.Y && x1 == r.Right() && y1 == r.Bottom() {
		p.c.DrawImage(r, img)
		return
	}
	sub, ok := img.(subImager)
	if !ok {
		p.c.DrawImage(r, img)
		return
	}
	bounds := img.Bounds()
	crop := image.Rect(
		bounds.Min.X+int(math.Round(x0-r.X)), bounds.Min.Y+int(math.Round(y0-r.Y)),
		bounds.Min.X+int(math.Round(x1-r.X)), bounds.Min.Y+int(math.Round(y1-r.Y)),
	)
	if crop.Empty() {
		return
	}
	p.c.DrawImage(boxtree.Rect{X: x0, Y: y0, Width: float64(crop.Dx()), Height: float64(crop.Dy())}, sub.SubImage(crop))
}

// border draws each side as a filled strip. Every line style is drawn solid.
func (p *painter) border(b *boxtree.Box, it Item) {
	r, e := it.Rect, it.Border
	cv := b.Style
	side := func(s style.Side, rect boxtree.Rect, width float64) {
		if width <= 0 || cv.Border.Style[s].Is("none") || cv.Border.Style[s].Is("hidden") {
			return
		}
		p.c.FillRect(rect, colorOf(cv.Border.Color[s], cv.Color(), it.Opacity))
	}
	side(style.Top, boxtree.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: e.Top}, e.Top)
	side(style.Bottom, boxtree.Rect{X: r.X, Y: r.Bottom() - e.Bottom, Width: r.Width, Height: e.Bottom}, e.Bottom)
	side(style.Left, boxtree.Rect{X: r.X, Y: r.Y + e.Top, Width: e.Left, Height: r.Height - e.Top - e.Bottom}, e.Left)
	side(style.Right, boxtree.Rect{X: r.Right() - e.Right, Y: r.Y + e.Top, Width: e.Right, Height: r.Height - e.Top - e.Bottom}, e.Right)
}

func (p *painter) text(b *boxtree.Box, it Item) {
	cv := b.Style
	col := colorOf(cv.Text.Color, color.RGBA{A: 255}, it.Opacity)
	p.c.DrawText(TextRun{Text: it.Text, Face: layout.FaceOf(cv), Color: col}, Point{X: it.Rect.X, Y: it.Baseline})

	size := cv.FontSize()
	thickness := math.Max(1, size/14)
	for _, line := range cv.Text.Decoration.Components {
		var y float64
		switch line.Keyword {
		case "underline":
			y = it.Baseline + size/10
		case "overline":
			y = it.Rect.Y
		case "line-through":
			y = it.Baseline - size*0.3
		default:
			continue
		}
		p.c.FillRect(boxtree.Rect{X: it.Rect.X, Y: y, Width: it.Rect.Width, Height: thickness}, col)
	}
}

func (p *painter) marker(b *boxtree.Box, it Item) {
	if img := p.image(b.MarkerImage); img != nil {
		p.c.DrawImage(it.Rect, img)
		return
	}
	if it.Text == "" {
		return
	}
	baseline := it.Baseline
	if baseline == 0 {
		baseline = it.Rect.Bottom()
	}
	col := colorOf(b.Style.Text.Color, color.RGBA{A: 255}, it.Opacity)
	p.c.DrawText(TextRun{Text: it.Text, Face: layout.FaceOf(b.Style), Color: col}, Point{X: it.Rect.X, Y: baseline})
}

// outline draws outside the border box. invert is drawn in the text color.
func (p *painter) outline(b *boxtree.Box, it Item) {
	o := b.Style.Outline
	w := o.Width.Px()
	r := it.Rect.ExpandedBy(boxtree.Edges{Top: w, Right: w, Bottom: w, Left: w})
	col := colorOf(o.Color, b.Style.Color(), it.Opacity)
	p.c.FillRect(boxtree.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: w}, col)
	p.c.FillRect(boxtree.Rect{X: r.X, Y: r.Bottom() - w, Width: r.Width, Height: w}, col)
	p.c.FillRect(boxtree.Rect{X: r.X, Y: r.Y + w, Width: w, Height: r.Height - 2*w}, col)
	p.c.FillRect(boxtree.Rect{X: r.Right() - w, Y: r.Y + w, Width: w, Height: r.Height - 2*w}, col)
}
