// internal/browser/fonts/gofonts.go
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// variant selects one of the embedded Go font files.
type variant int

const (
	regular variant = iota
	bold
	italic
	boldItalic
	mono
	monoBold
	variantCount
)

var variantData = [variantCount][]byte{
	regular:    goregular.TTF,
	bold:       gobold.TTF,
	italic:     goitalic.TTF,
	boldItalic: gobolditalic.TTF,
	mono:       gomono.TTF,
	monoBold:   gomonobold.TTF,
}

func variantOf(f Face) variant {
	switch {
	case f.Monospace() && f.Bold():
		return monoBold
	case f.Monospace():
		return mono
	case f.Bold() && f.Italic:
		return boldItalic
	case f.Bold():
		return bold
	case f.Italic:
		return italic
	}
	return regular
}

type faceKey struct {
	v    variant
	size float64
}

// GoFonts measures text with the Go font family. Sized faces are cached
// behind a mutex, so one GoFonts serves concurrent runs.
type GoFonts struct {
	fonts [variantCount]*opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// NewGoFonts parses the embedded Go fonts.
func NewGoFonts() (*GoFonts, error) {
	g := &GoFonts{faces: make(map[faceKey]font.Face)}
	for v, data := range variantData {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing embedded font %d: %w", v, err)
		}
		g.fonts[v] = f
	}
	return g, nil
}

func faceSize(f Face) float64 {
	if f.Size <= 0 {
		return 16
	}
	return f.Size
}

// NewFace returns a new sized face for f that the caller owns, for
// rasterizing. Pixel sizes map one to one onto points at 72 DPI.
func (g *GoFonts) NewFace(f Face) (font.Face, error) {
	size := faceSize(f)
	face, err := opentype.NewFace(g.fonts[variantOf(f)], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face of size %g: %w", size, err)
	}
	return face, nil
}

// cachedFace returns the shared face for f. Callers hold g.mu.
func (g *GoFonts) cachedFace(f Face) (font.Face, error) {
	key := faceKey{v: variantOf(f), size: faceSize(f)}
	if face, ok := g.faces[key]; ok {
		return face, nil
	}
	face, err := g.NewFace(f)
	if err != nil {
		return nil, err
	}
	g.faces[key] = face
	return face, nil
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Measure returns the advance width of text. Faces that cannot be created
// fall back to the Fixed metric.
func (g *GoFonts) Measure(text string, f Face) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	face, err := g.cachedFace(f)
	if err != nil {
		return Fixed{}.Measure(text, f)
	}
	return toFloat(font.MeasureString(face, text))
}

func (g *GoFonts) Extents(f Face) (ascent, descent float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	face, err := g.cachedFace(f)
	if err != nil {
		return Fixed{}.Extents(f)
	}
	m := face.Metrics()
	return toFloat(m.Ascent), toFloat(m.Descent)
}
