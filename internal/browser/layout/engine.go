// internal/browser/layout/engine.go
package layout

import (
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/fonts"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// Engine computes the geometry of box trees for one viewport.
type Engine struct {
	viewport style.Viewport
	metrics  fonts.Metrics
	logger   *zap.Logger
}

// NewEngine creates a layout engine. A nil metrics measures with fonts.Fixed.
func NewEngine(viewport style.Viewport, metrics fonts.Metrics, logger *zap.Logger) *Engine {
	if metrics == nil {
		metrics = fonts.Fixed{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		viewport: viewport,
		metrics:  metrics,
		logger:   logger.Named("layout"),
	}
}

// Viewport returns the initial containing block size.
func (e *Engine) Viewport() style.Viewport { return e.viewport }

// pass is the state of one layout of one tree.
type pass struct {
	e       *Engine
	t       *boxtree.Tree
	metrics fonts.Metrics
	logger  *zap.Logger
	// heights records the content heights known before a box lays out its
	// children, which percentages of the children resolve against.
	heights map[boxtree.BoxID]float64
	// intrinsics memoizes min-content and max-content widths.
	intrinsics map[boxtree.BoxID][2]float64
	grids      map[boxtree.BoxID]*tableGrid
}

// Layout lays out every box of t, replacing any previous geometry. The
// initial containing block is the viewport. Layout never fails: degenerate
// sizes clamp to zero.
func (e *Engine) Layout(t *boxtree.Tree) {
	t.ResetLayout()
	root := t.Root()
	if root == boxtree.NoBox {
		return
	}
	p := &pass{
		e:          e,
		t:          t,
		metrics:    e.metrics,
		logger:     e.logger,
		heights:    make(map[boxtree.BoxID]float64),
		intrinsics: make(map[boxtree.BoxID][2]float64),
	}
	icb := p.icb()
	cur := &Cursor{}
	p.layoutFlowRoot(root, cur, icb)
	for _, id := range t.ViewportPositioned() {
		p.layoutAbsolute(id, icb)
	}
	e.logger.Debug("Layout finished.",
		zap.Int("boxes", t.Len()),
		zap.Float64("height", t.Box(root).Layout.MarginBox().Height))
}

func (p *pass) icb() boxtree.Rect {
	return boxtree.Rect{Width: clampSize(p.e.viewport.Width), Height: clampSize(p.e.viewport.Height)}
}

func (p *pass) box(id boxtree.BoxID) *boxtree.Box { return p.t.Box(id) }

// layoutFlowRoot lays out the root box in the initial containing block.
func (p *pass) layoutFlowRoot(id boxtree.BoxID, cur *Cursor, icb boxtree.Rect) {
	p.heights[boxtree.NoBox] = icb.Height
	fl := &floatList{}
	p.layoutBlock(id, cur, fl, icb, icb.Height, true)
}

// clampSize maps NaN, infinite and negative sizes to zero.
func clampSize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// finite maps NaN and infinite coordinates to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// translate moves a box and everything laid out inside it.
func (p *pass) translate(id boxtree.BoxID, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	p.t.Walk(id, func(b *boxtree.Box) bool {
		l := &b.Layout
		l.Translate(dx, dy)
		l.StaticX += dx
		l.StaticY += dy
		if len(l.Lines) > 0 {
			l.Baseline += dy
		}
		for i := range l.Lines {
			line := &l.Lines[i]
			line.X += dx
			line.Y += dy
			line.Baseline += dy
			for j := range line.Fragments {
				f := &line.Fragments[j]
				f.Rect.X += dx
				f.Rect.Y += dy
				f.Baseline += dy
			}
		}
		l.MarkerRect.X += dx
		l.MarkerRect.Y += dy
		return true
	})
}

// FaceOf maps computed font properties onto a font face.
func FaceOf(cv *style.ComputedValues) fonts.Face {
	f := fonts.Face{
		Size:   cv.FontSize(),
		Weight: cv.FontWeight(),
		Italic: cv.Font.Style.Is("italic") || cv.Font.Style.Is("oblique"),
	}
	for _, c := range cv.Font.Family.Components {
		if c.Keyword != "" {
			f.Families = append(f.Families, c.Keyword)
		} else if c.Text != "" {
			f.Families = append(f.Families, c.Text)
		}
	}
	return f
}
