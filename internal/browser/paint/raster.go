// internal/browser/paint/raster.go
package paint

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/fogleman/gg"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/fonts"
)

// RasterCanvas draws into an RGBA image through gg.
type RasterCanvas struct {
	dc     *gg.Context
	fonts  *fonts.GoFonts
	faces  map[string]font.Face
	logger *zap.Logger
}

// NewRasterCanvas returns a width by height canvas cleared to background.
func NewRasterCanvas(width, height int, gf *fonts.GoFonts, background color.Color, logger *zap.Logger) *RasterCanvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(background)
	dc.Clear()
	return &RasterCanvas{
		dc:     dc,
		fonts:  gf,
		faces:  make(map[string]font.Face),
		logger: logger.Named("raster"),
	}
}

func (r *RasterCanvas) FillRect(rect boxtree.Rect, c color.Color) {
	if rect.Empty() {
		return
	}
	r.dc.SetColor(c)
	r.dc.DrawRectangle(rect.X, rect.Y, rect.Width, rect.Height)
	r.dc.Fill()
}

func faceKey(f fonts.Face) string {
	return fmt.Sprintf("%s/%g/%g/%t", strings.Join(f.Families, ","), f.Size, f.Weight, f.Italic)
}

func (r *RasterCanvas) face(f fonts.Face) (font.Face, error) {
	key := faceKey(f)
	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	face, err := r.fonts.NewFace(f)
	if err != nil {
		return nil, err
	}
	r.faces[key] = face
	return face, nil
}

func (r *RasterCanvas) DrawText(run TextRun, pt Point) {
	if strings.TrimSpace(run.Text) == "" {
		return
	}
	face, err := r.face(run.Face)
	if err != nil {
		r.logger.Warn("Skipping text, no face available.", zap.Error(err))
		return
	}
	r.dc.SetFontFace(face)
	r.dc.SetColor(run.Color)
	r.dc.DrawString(run.Text, pt.X, pt.Y)
}

func (r *RasterCanvas) DrawImage(rect boxtree.Rect, img image.Image) {
	size := img.Bounds().Size()
	if size.X == 0 || size.Y == 0 || rect.Empty() {
		return
	}
	r.dc.Push()
	defer r.dc.Pop()
	r.dc.Translate(rect.X, rect.Y)
	r.dc.Scale(rect.Width/float64(size.X), rect.Height/float64(size.Y))
	b := img.Bounds()
	r.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
}

// Image returns the rendered image.
func (r *RasterCanvas) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the rendered image as PNG.
func (r *RasterCanvas) EncodePNG(w io.Writer) error {
	if err := r.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// Close releases the cached font faces.
func (r *RasterCanvas) Close() error {
	var err error
	for key, face := range r.faces {
		err = multierr.Append(err, face.Close())
		delete(r.faces, key)
	}
	return err
}
