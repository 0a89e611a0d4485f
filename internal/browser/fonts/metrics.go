// internal/browser/fonts/metrics.go
package fonts

import "strings"

// Face describes the font a run of text is set in.
type Face struct {
	// Families is the font-family list in preference order, generic names included.
	Families []string
	Size     float64
	Weight   float64
	Italic   bool
}

// Bold reports weights of 600 and above.
func (f Face) Bold() bool { return f.Weight >= 600 }

// Monospace reports whether the first family resolves to a monospace font.
func (f Face) Monospace() bool {
	for _, fam := range f.Families {
		switch strings.ToLower(fam) {
		case "monospace", "courier", "courier new", "go mono", "consolas", "menlo":
			return true
		case "serif", "sans-serif", "cursive", "fantasy":
			return false
		}
	}
	return false
}

// Metrics is the font-metrics capability layout measures text through.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// Measure returns the advance width of text in pixels.
	Measure(text string, face Face) float64
	// Extents returns the ascent and descent of face in pixels, both positive.
	Extents(face Face) (ascent, descent float64)
}

// Fixed is a deterministic metric: every glyph advances 0.6 em, ascent is
// 0.8 em and descent 0.2 em. Tests use it to get exact geometry.
type Fixed struct{}

func (Fixed) Measure(text string, face Face) float64 {
	return float64(len([]rune(text))) * face.Size * 0.6
}

func (Fixed) Extents(face Face) (ascent, descent float64) {
	return face.Size * 0.8, face.Size * 0.2
}
