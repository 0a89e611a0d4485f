// internal/browser/properties/units.go
package properties

import "math"

// Unit is a CSS length unit.
type Unit string

const (
	UnitPx   Unit = "px"
	UnitEm   Unit = "em"
	UnitEx   Unit = "ex"
	UnitCh   Unit = "ch"
	UnitRem  Unit = "rem"
	UnitIn   Unit = "in"
	UnitCm   Unit = "cm"
	UnitMm   Unit = "mm"
	UnitPt   Unit = "pt"
	UnitPc   Unit = "pc"
	UnitVw   Unit = "vw"
	UnitVh   Unit = "vh"
	UnitVmin Unit = "vmin"
	UnitVmax Unit = "vmax"
)

var knownUnits = map[string]Unit{
	"px": UnitPx, "em": UnitEm, "ex": UnitEx, "ch": UnitCh, "rem": UnitRem,
	"in": UnitIn, "cm": UnitCm, "mm": UnitMm, "pt": UnitPt, "pc": UnitPc,
	"vw": UnitVw, "vh": UnitVh, "vmin": UnitVmin, "vmax": UnitVmax,
}

// ParseUnit maps a lowercase unit name to a Unit.
func ParseUnit(s string) (Unit, bool) {
	u, ok := knownUnits[s]
	return u, ok
}

// DefaultDPI makes 1in equal 96px, as CSS defines it.
const DefaultDPI = 96.0

// DefaultFontSize is the font size of the root when nothing else is configured.
const DefaultFontSize = 16.0

// ToPx converts a length to pixels. fontSize is the em basis (the parent's
// font size when computing font-size itself, the element's otherwise).
func (c *ComputeContext) ToPx(l Length, fontSize float64) float64 {
	dpi := c.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	var v float64
	switch l.Unit {
	case UnitPx, "":
		v = l.Value
	case UnitEm:
		v = l.Value * fontSize
	case UnitEx, UnitCh:
		v = l.Value * fontSize * 0.5
	case UnitRem:
		v = l.Value * c.rootFontSize()
	case UnitIn:
		v = l.Value * dpi
	case UnitCm:
		v = l.Value * dpi / 2.54
	case UnitMm:
		v = l.Value * dpi / 25.4
	case UnitPt:
		v = l.Value * dpi / 72
	case UnitPc:
		v = l.Value * dpi / 6
	case UnitVw:
		v = l.Value * c.ViewportWidth / 100
	case UnitVh:
		v = l.Value * c.ViewportHeight / 100
	case UnitVmin:
		v = l.Value * math.Min(c.ViewportWidth, c.ViewportHeight) / 100
	case UnitVmax:
		v = l.Value * math.Max(c.ViewportWidth, c.ViewportHeight) / 100
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (c *ComputeContext) rootFontSize() float64 {
	if c.RootFontSize > 0 {
		return c.RootFontSize
	}
	return DefaultFontSize
}
