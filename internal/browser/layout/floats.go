// internal/browser/layout/floats.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

type placedFloat struct {
	// rect is the margin box.
	rect boxtree.Rect
	side style.FloatType
}

// floatList holds the floats placed in one block formatting context.
type floatList struct {
	floats []placedFloat
}

func (fl *floatList) add(rect boxtree.Rect, side style.FloatType) {
	fl.floats = append(fl.floats, placedFloat{rect: rect, side: side})
}

// clearance returns the y coordinate below every float the clear value
// applies to, and false when no such float exists.
func (fl *floatList) clearance(clear style.ClearType) (float64, bool) {
	bottom, found := 0.0, false
	for _, f := range fl.floats {
		applies := clear == style.ClearBoth ||
			(clear == style.ClearLeft && f.side == style.FloatLeft) ||
			(clear == style.ClearRight && f.side == style.FloatRight)
		if applies && (!found || f.rect.Bottom() > bottom) {
			bottom, found = f.rect.Bottom(), true
		}
	}
	return bottom, found
}

// edges returns the left and right edges of the space left by the floats
// intersecting the band [y, y+h) of a container spanning [x, x+width).
func (fl *floatList) edges(y, h, x, width float64) (left, right float64) {
	left, right = x, x+width
	if h <= 0 {
		h = 1e-9
	}
	for _, f := range fl.floats {
		if f.rect.Height <= 0 || f.rect.Y >= y+h || f.rect.Bottom() <= y {
			continue
		}
		if f.side == style.FloatLeft {
			left = math.Max(left, f.rect.Right())
		} else {
			right = math.Min(right, f.rect.X)
		}
	}
	return left, right
}

// intrudes reports whether any float narrows the band.
func (fl *floatList) intrudes(y, h, x, width float64) bool {
	left, right := fl.edges(y, h, x, width)
	return left > x || right < x+width
}

// nextBottom returns the smallest float bottom below y, +Inf when there is none.
func (fl *floatList) nextBottom(y float64) float64 {
	next := math.Inf(1)
	for _, f := range fl.floats {
		if b := f.rect.Bottom(); b > y && b < next {
			next = b
		}
	}
	return next
}

// maxExtent returns the lowest float bottom.
func (fl *floatList) maxExtent() float64 {
	bottom := 0.0
	for _, f := range fl.floats {
		bottom = math.Max(bottom, f.rect.Bottom())
	}
	return bottom
}

// place finds the position of a float margin box of size w x h at or below
// y. The top of a float is never above an earlier float, and a float that
// does not fit beside the earlier ones drops below them.
func (fl *floatList) place(w, h float64, side style.FloatType, y, x, width float64) (float64, float64) {
	for _, f := range fl.floats {
		y = math.Max(y, f.rect.Y)
	}
	for {
		left, right := fl.edges(y, h, x, width)
		if w <= right-left || !fl.intrudes(y, h, x, width) {
			if side == style.FloatLeft {
				return left, y
			}
			return right - w, y
		}
		next := fl.nextBottom(y)
		if math.IsInf(next, 1) {
			return left, y
		}
		y = next
	}
}
