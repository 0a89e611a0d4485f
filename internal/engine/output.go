// internal/engine/output.go
package engine

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/paint"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
)

// Write renders res to w in format: json, tree or png.
func (e *Engine) Write(w io.Writer, res *Result, format string) error {
	switch format {
	case "json":
		return WriteJSON(w, res)
	case "tree":
		return WriteTree(w, res)
	case "png":
		return e.WritePNG(w, res)
	}
	return fmt.Errorf("%w: output %q", ErrUnsupportedFormat, format)
}

func (e *Engine) background() color.Color {
	name := e.cfg.Render().Background
	if c, ok := properties.ParseColor(name); ok {
		return c
	}
	e.logger.Warn("Invalid render background, using white.", zap.String("background", name))
	return color.White
}

// WritePNG rasterizes the paint list of res at the viewport size. Images
// that fail to load are skipped and reported after the PNG is written.
func (e *Engine) WritePNG(w io.Writer, res *Result) (err error) {
	width := int(math.Ceil(res.Viewport.Width))
	height := int(math.Ceil(res.Viewport.Height))
	canvas := paint.NewRasterCanvas(width, height, e.fonts, e.background(), e.logger)
	defer func() {
		err = multierr.Append(err, canvas.Close())
	}()

	paintErr := paint.Paint(res.Boxes, res.Items, canvas, e.cache)
	if paintErr != nil {
		e.logger.Warn("Painted with missing resources.", zap.String("run_id", res.RunID), zap.Error(paintErr))
	}
	if err := canvas.EncodePNG(w); err != nil {
		return err
	}
	return paintErr
}
