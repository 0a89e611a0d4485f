// internal/browser/boxtree/normalize.go
package boxtree

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

// normalize fixes up the children of a box so every container holds a
// consistent child list: table parts get their missing parents, flex items
// are blockified, and block containers with block children wrap their inline
// runs in anonymous blocks. It returns the final child list with parent links set.
func (b *builder) normalize(id BoxID, children []BoxID) []BoxID {
	switch display := b.t.boxes[id].Display; display {
	case style.DisplayTable, style.DisplayInlineTable:
		children = b.tableChildren(id, children)
	case style.DisplayTableRowGroup, style.DisplayTableHeaderGroup, style.DisplayTableFooterGroup:
		children = b.group(id, children, func(c *Box) bool { return c.Display == style.DisplayTableRow }, "table-row")
	case style.DisplayTableRow:
		children = b.group(id, children, func(c *Box) bool { return c.Display == style.DisplayTableCell }, "table-cell")
	case style.DisplayTableColumnGroup, style.DisplayTableColumn:
		children = b.columns(children)
	case style.DisplayFlex, style.DisplayInlineFlex:
		children = b.flexItems(id, b.orphanTableParts(id, children))
	default:
		children = b.flowChildren(id, b.orphanTableParts(id, children))
	}
	for _, c := range children {
		b.t.boxes[c].Parent = id
	}
	return children
}

// isWhitespaceText reports text boxes that collapse away at block boundaries.
func (b *builder) isWhitespaceText(c *Box) bool {
	return c.Kind == KindText && !PreservesSpaces(c.Style.WhiteSpace()) && IsWhitespace(c.Text)
}

// hasContent reports whether a run of inline-level children renders anything.
func (b *builder) hasContent(run []BoxID) bool {
	for _, c := range run {
		box := &b.t.boxes[c]
		if !box.IsOutOfFlow() && !b.isWhitespaceText(box) {
			return true
		}
	}
	return false
}

// renders reports whether a run holds anything but collapsible whitespace.
func (b *builder) renders(run []BoxID) bool {
	for _, c := range run {
		if !b.isWhitespaceText(&b.t.boxes[c]) {
			return true
		}
	}
	return false
}

// group wraps each maximal run of children that proper rejects in an
// anonymous box of display. Runs of nothing but collapsible whitespace are dropped.
func (b *builder) group(parent BoxID, children []BoxID, proper func(*Box) bool, display string) []BoxID {
	var out, run []BoxID
	flush := func() {
		if len(run) == 0 {
			return
		}
		if b.renders(run) {
			w := b.anonymous(parent, display)
			b.t.boxes[w].Children = b.normalize(w, run)
			out = append(out, w)
		}
		run = nil
	}
	for _, c := range children {
		box := &b.t.boxes[c]
		if proper(box) && !box.IsOutOfFlow() {
			flush()
			out = append(out, c)
			continue
		}
		run = append(run, c)
	}
	flush()
	return out
}

func isTableChild(c *Box) bool {
	switch c.Display {
	case style.DisplayTableCaption, style.DisplayTableColumnGroup, style.DisplayTableColumn,
		style.DisplayTableRowGroup, style.DisplayTableHeaderGroup, style.DisplayTableFooterGroup,
		style.DisplayTableRow:
		return true
	}
	return false
}

// tableChildren gives a table only captions, columns and row groups:
// anything else is wrapped in anonymous rows, and rows sitting directly in
// the table are gathered into anonymous row groups.
func (b *builder) tableChildren(id BoxID, children []BoxID) []BoxID {
	children = b.group(id, children, isTableChild, "table-row")
	return b.group(id, children, func(c *Box) bool { return c.Display != style.DisplayTableRow }, "table-row-group")
}

// columns keeps only column boxes inside column groups.
func (b *builder) columns(children []BoxID) []BoxID {
	var out []BoxID
	for _, c := range children {
		if b.t.boxes[c].Display == style.DisplayTableColumn {
			out = append(out, c)
		}
	}
	return out
}

// orphanTableParts wraps runs of table parts found outside a table in an
// anonymous table. Whitespace between the parts joins the run.
func (b *builder) orphanTableParts(id BoxID, children []BoxID) []BoxID {
	found := false
	for _, c := range children {
		if box := &b.t.boxes[c]; box.Display.IsTablePart() && !box.IsOutOfFlow() && box.Kind != KindText {
			found = true
			break
		}
	}
	if !found {
		return children
	}

	var out, run []BoxID
	flush := func() {
		// Trailing whitespace belongs to the flow, not the table.
		tail := len(run)
		for tail > 0 && b.isWhitespaceText(&b.t.boxes[run[tail-1]]) {
			tail--
		}
		if tail > 0 {
			table := b.anonymous(id, "table")
			b.t.boxes[table].Children = b.normalize(table, run[:tail])
			out = append(out, table)
		}
		out = append(out, run[tail:]...)
		run = nil
	}
	for _, c := range children {
		box := &b.t.boxes[c]
		switch {
		case box.Kind != KindText && box.Display.IsTablePart() && !box.IsOutOfFlow():
			run = append(run, c)
		case len(run) > 0 && b.isWhitespaceText(box):
			run = append(run, c)
		default:
			if len(run) > 0 {
				flush()
			}
			out = append(out, c)
		}
	}
	if len(run) > 0 {
		flush()
	}
	b.logger.Debug("Wrapped table parts in an anonymous table.", zap.Int("parent", int(id)))
	return out
}

// blockified maps the display of a flex item to its block-level equivalent.
func blockified(d style.DisplayType) style.DisplayType {
	switch d {
	case style.DisplayInlineTable:
		return style.DisplayTable
	case style.DisplayInlineFlex:
		return style.DisplayFlex
	case style.DisplayListItem, style.DisplayTable, style.DisplayFlex:
		return d
	}
	return style.DisplayBlock
}

// flexItems makes every in-flow child of a flex container a block-level
// flex item. Runs of text are wrapped in anonymous blocks and floats are ignored.
func (b *builder) flexItems(id BoxID, children []BoxID) []BoxID {
	var out, run []BoxID
	flush := func() {
		if len(run) > 0 && b.hasContent(run) {
			w := b.anonymous(id, "block")
			b.t.boxes[w].Children = b.normalize(w, run)
			out = append(out, w)
		}
		run = nil
	}
	for _, c := range children {
		box := &b.t.boxes[c]
		switch {
		case box.Kind == KindAbsoluteOrFixed:
			flush()
			out = append(out, c)
		case box.Kind == KindText:
			run = append(run, c)
		default:
			flush()
			box = &b.t.boxes[c]
			if box.Kind == KindFloat {
				box.Kind = KindElement
				if box.Replaced != nil {
					box.Kind = KindReplaced
				}
			}
			box.Display = blockified(box.Display)
			out = append(out, c)
		}
	}
	flush()
	return out
}

// flowChildren handles block containers and inline boxes. A container whose
// in-flow children mix block-level and inline-level boxes wraps each inline
// run in an anonymous block. An inline box containing blocks is laid out as
// a block.
func (b *builder) flowChildren(id BoxID, children []BoxID) []BoxID {
	hasBlock := false
	for _, c := range children {
		if box := &b.t.boxes[c]; box.IsBlockLevel() && !box.IsOutOfFlow() {
			hasBlock = true
			break
		}
	}
	if !hasBlock {
		return children
	}

	box := &b.t.boxes[id]
	if box.Kind == KindText {
		return children
	}
	if box.Display == style.DisplayInline || box.Display == style.DisplayRunIn {
		b.logger.Debug("Inline box contains blocks, laying it out as a block.", zap.Int("box", int(id)))
		box.Display = style.DisplayBlock
	}

	var out, run []BoxID
	flush := func() {
		if len(run) == 0 {
			return
		}
		if b.hasContent(run) {
			w := b.anonymous(id, "block")
			b.t.boxes[w].Children = b.normalize(w, run)
			out = append(out, w)
		} else {
			// Out-of-flow boxes between blocks stay direct children.
			for _, c := range run {
				if b.t.boxes[c].IsOutOfFlow() {
					out = append(out, c)
				}
			}
		}
		run = nil
	}
	for _, c := range children {
		if cb := &b.t.boxes[c]; cb.IsBlockLevel() && !cb.IsOutOfFlow() {
			flush()
			out = append(out, c)
			continue
		}
		run = append(run, c)
	}
	flush()
	return out
}
