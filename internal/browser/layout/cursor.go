// internal/browser/layout/cursor.go
package layout

// Cursor tracks the flow position inside a block formatting context. Vertical
// margins are not applied when they are added; they stay pending until
// content is placed so adjoining margins collapse (CSS 2.1 §8.3.1).
type Cursor struct {
	X, Y float64
	// MarginY is the largest pending positive margin, NegativeMarginY the
	// most negative one.
	MarginY         float64
	NegativeMarginY float64

	// tops logs the position after every ApplyMargin.
	tops []float64
}

// AddMargin adds a margin to the set of adjoining margins.
func (c *Cursor) AddMargin(m float64) {
	if m > 0 {
		if m > c.MarginY {
			c.MarginY = m
		}
	} else if m < c.NegativeMarginY {
		c.NegativeMarginY = m
	}
}

// TotalMargin returns the collapsed value of the pending margins.
func (c *Cursor) TotalMargin() float64 {
	return c.MarginY + c.NegativeMarginY
}

// ApplyMargin moves the cursor past the pending margins and clears them.
func (c *Cursor) ApplyMargin() {
	c.Y += c.TotalMargin()
	c.ResetMargin()
	c.tops = append(c.tops, c.Y)
}

// ResetMargin drops the pending margins without moving.
func (c *Cursor) ResetMargin() {
	c.MarginY = 0
	c.NegativeMarginY = 0
}

func (c *Cursor) mark() int { return len(c.tops) }

// firstTop returns where margins were first applied after mark: the top
// of the content a collapsing parent shares with its first child.
func (c *Cursor) firstTop(mark int) (float64, bool) {
	if mark < len(c.tops) {
		return c.tops[mark], true
	}
	return 0, false
}
