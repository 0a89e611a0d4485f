// internal/browser/layout/table.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxlayout/internal/browser/boxtree"
	"github.com/xkilldash9x/boxlayout/internal/browser/properties"
	"github.com/xkilldash9x/boxlayout/internal/browser/style"
)

type gridCell struct {
	id               boxtree.BoxID
	row, col         int
	rowSpan, colSpan int
}

// tableGrid is the cell grid of a table with row groups in display order:
// header groups first and footer groups last.
type tableGrid struct {
	captions []boxtree.BoxID
	groups   []boxtree.BoxID
	// groupRows holds the first row index and row count of each group.
	groupRows [][2]int
	rows      []boxtree.BoxID
	cells     []gridCell
	// at maps a grid slot to the index of the cell covering it, -1 when empty.
	at        [][]int
	columns   []boxtree.BoxID
	colGroups []boxtree.BoxID
	cols      int
	hspacing  float64
	vspacing  float64
	collapse  bool
	fixed     bool
}

// tableGrid builds, once per pass, the grid of a table box.
func (p *pass) tableGrid(id boxtree.BoxID) *tableGrid {
	if g, ok := p.grids[id]; ok {
		return g
	}
	b := p.box(id)
	g := &tableGrid{
		collapse: b.Style.Table.BorderCollapse.Is("collapse"),
		fixed:    b.Style.Table.Layout.Is("fixed") && !b.Style.Box.Width.IsAuto(),
	}
	if !g.collapse {
		g.hspacing, g.vspacing = borderSpacing(b.Style.Table.BorderSpacing)
	}

	var headers, bodies, footers []boxtree.BoxID
	for _, c := range b.Children {
		child := p.box(c)
		if child.IsOutOfFlow() {
			continue
		}
		switch child.Display {
		case style.DisplayTableCaption:
			g.captions = append(g.captions, c)
		case style.DisplayTableColumnGroup:
			g.colGroups = append(g.colGroups, c)
			if len(child.Children) == 0 {
				for i := 0; i < span(child.ColSpan); i++ {
					g.columns = append(g.columns, boxtree.NoBox)
				}
			}
			for _, col := range child.Children {
				for i := 0; i < span(p.box(col).ColSpan); i++ {
					g.columns = append(g.columns, col)
				}
			}
		case style.DisplayTableColumn:
			for i := 0; i < span(child.ColSpan); i++ {
				g.columns = append(g.columns, c)
			}
		case style.DisplayTableHeaderGroup:
			headers = append(headers, c)
		case style.DisplayTableFooterGroup:
			footers = append(footers, c)
		default:
			bodies = append(bodies, c)
		}
	}
	g.groups = append(append(headers, bodies...), footers...)

	for _, group := range g.groups {
		first := len(g.rows)
		for _, r := range p.box(group).Children {
			if p.box(r).Display == style.DisplayTableRow {
				g.rows = append(g.rows, r)
			}
		}
		g.groupRows = append(g.groupRows, [2]int{first, len(g.rows) - first})
		g.placeCells(p, first, len(g.rows))
	}
	g.cols = max(g.cols, len(g.columns))
	for r := range g.at {
		for len(g.at[r]) < g.cols {
			g.at[r] = append(g.at[r], -1)
		}
	}
	if p.grids == nil {
		p.grids = make(map[boxtree.BoxID]*tableGrid)
	}
	p.grids[id] = g
	return g
}

func span(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// placeCells assigns grid slots to the cells of rows [first, end). Row
// spans stop at the end of their row group.
func (g *tableGrid) placeCells(p *pass, first, end int) {
	for len(g.at) < end {
		g.at = append(g.at, nil)
	}
	taken := func(r, c int) bool { return c < len(g.at[r]) && g.at[r][c] >= 0 }
	for r := first; r < end; r++ {
		col := 0
		for _, c := range p.box(g.rows[r]).Children {
			cell := p.box(c)
			if cell.IsOutOfFlow() {
				continue
			}
			for taken(r, col) {
				col++
			}
			gc := gridCell{id: c, row: r, col: col, rowSpan: span(cell.RowSpan), colSpan: span(cell.ColSpan)}
			if r+gc.rowSpan > end {
				gc.rowSpan = end - r
			}
			idx := len(g.cells)
			g.cells = append(g.cells, gc)
			for rr := r; rr < r+gc.rowSpan; rr++ {
				for len(g.at[rr]) < col+gc.colSpan {
					g.at[rr] = append(g.at[rr], -1)
				}
				for cc := col; cc < col+gc.colSpan; cc++ {
					g.at[rr][cc] = idx
				}
			}
			col += gc.colSpan
			g.cols = max(g.cols, col)
		}
	}
}

func borderSpacing(v properties.Value) (h, vert float64) {
	if v.Type == properties.TypeList && len(v.Components) == 2 {
		return clampSize(v.Components[0].Px()), clampSize(v.Components[1].Px())
	}
	n := clampSize(v.Px())
	return n, n
}

// spacingWidth is the horizontal spacing taken by n columns.
func (g *tableGrid) spacingWidth() float64 {
	if g.cols == 0 {
		return 0
	}
	return g.hspacing * float64(g.cols+1)
}

// cellEdges resolves the edges of a cell. In the collapsing border model
// each side takes half of the wider of the borders meeting there.
func (p *pass) cellEdges(g *tableGrid, table *boxtree.Box, gc gridCell, cbWidth float64) {
	cell := p.box(gc.id)
	resolveEdges(cell, cbWidth)
	cell.Layout.Margin = boxtree.Edges{}
	if !g.collapse {
		return
	}
	neighbor := func(r, c int, side style.Side) (float64, bool) {
		if r < 0 || r >= len(g.at) || c < 0 || c >= len(g.at[r]) || g.at[r][c] < 0 {
			return 0, false
		}
		return p.box(g.cells[g.at[r][c]].id).Style.BorderWidth(side), true
	}
	widest := func(own float64, r, c int, side, opposite style.Side) float64 {
		other, ok := neighbor(r, c, opposite)
		if !ok {
			other = table.Style.BorderWidth(side)
		}
		return math.Max(own, other) / 2
	}
	cv := cell.Style
	cell.Layout.Border = boxtree.Edges{
		Top:    widest(cv.BorderWidth(style.Top), gc.row-1, gc.col, style.Top, style.Bottom),
		Bottom: widest(cv.BorderWidth(style.Bottom), gc.row+gc.rowSpan, gc.col, style.Bottom, style.Top),
		Left:   widest(cv.BorderWidth(style.Left), gc.row, gc.col-1, style.Left, style.Right),
		Right:  widest(cv.BorderWidth(style.Right), gc.row, gc.col+gc.colSpan, style.Right, style.Left),
	}
}

// columnLimits returns the min-content and max-content widths of every
// column, cell borders and padding included.
func (p *pass) columnLimits(g *tableGrid) (mins, maxs []float64) {
	mins = make([]float64, g.cols)
	maxs = make([]float64, g.cols)
	for i, col := range g.columns {
		if col == boxtree.NoBox {
			continue
		}
		if w, ok := lengthOnly(p.box(col).Style.Box.Width); ok {
			mins[i], maxs[i] = math.Max(mins[i], w), math.Max(maxs[i], w)
		}
	}
	var spanning []gridCell
	for _, gc := range g.cells {
		if gc.colSpan > 1 {
			spanning = append(spanning, gc)
			continue
		}
		lo, pref := p.outerIntrinsic(gc.id)
		mins[gc.col] = math.Max(mins[gc.col], lo)
		maxs[gc.col] = math.Max(maxs[gc.col], pref)
	}
	for _, gc := range spanning {
		lo, pref := p.outerIntrinsic(gc.id)
		spacing := g.hspacing * float64(gc.colSpan-1)
		spread(mins[gc.col:gc.col+gc.colSpan], lo-spacing)
		spread(maxs[gc.col:gc.col+gc.colSpan], pref-spacing)
	}
	for i := range maxs {
		maxs[i] = math.Max(maxs[i], mins[i])
	}
	return mins, maxs
}

// autoColumns returns the columns with no length width on their column box
// or on any cell that starts in them without spanning. Surplus table width
// goes to these first.
func (p *pass) autoColumns(g *tableGrid) []int {
	fixed := make([]bool, g.cols)
	for i, col := range g.columns {
		if col == boxtree.NoBox {
			continue
		}
		if _, ok := lengthOnly(p.box(col).Style.Box.Width); ok {
			fixed[i] = true
		}
	}
	for _, gc := range g.cells {
		if gc.colSpan > 1 {
			continue
		}
		if _, ok := lengthOnly(p.box(gc.id).Style.Box.Width); ok {
			fixed[gc.col] = true
		}
	}
	var auto []int
	for i, f := range fixed {
		if !f {
			auto = append(auto, i)
		}
	}
	return auto
}

// spread grows widths evenly until they sum to at least total.
func spread(widths []float64, total float64) {
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	if sum >= total || len(widths) == 0 {
		return
	}
	extra := (total - sum) / float64(len(widths))
	for i := range widths {
		widths[i] += extra
	}
}

func sum(vs []float64) float64 {
	t := 0.0
	for _, v := range vs {
		t += v
	}
	return t
}

// tableIntrinsic returns the min-content and max-content widths of a table.
func (p *pass) tableIntrinsic(id boxtree.BoxID) (float64, float64) {
	g := p.tableGrid(id)
	mins, maxs := p.columnLimits(g)
	lo := sum(mins) + g.spacingWidth()
	pref := sum(maxs) + g.spacingWidth()
	for _, c := range g.captions {
		clo, _ := p.outerIntrinsic(c)
		lo = math.Max(lo, clo)
		pref = math.Max(pref, lo)
	}
	return lo, pref
}

// tableWidth returns the content width of a table with avail horizontal
// space for its border box. The edges of the table must be resolved.
func (p *pass) tableWidth(id boxtree.BoxID, avail float64) float64 {
	b := p.box(id)
	g := p.tableGrid(id)
	edges := b.Layout.Padding.Horizontal() + b.Layout.Border.Horizontal()
	lo, pref := p.tableIntrinsic(id)
	if g.fixed {
		lo = g.spacingWidth()
	}
	if w, ok := specifiedWidth(b, avail+edges); ok {
		return math.Max(w, lo)
	}
	return math.Max(lo, math.Min(avail-edges, pref))
}

// columnWidths distributes the width of the table's content box over its columns.
func (p *pass) columnWidths(g *tableGrid, width float64) []float64 {
	avail := math.Max(0, width-g.spacingWidth())
	if g.fixed {
		return p.fixedColumnWidths(g, avail)
	}
	mins, maxs := p.columnLimits(g)
	widths := make([]float64, g.cols)
	sumMin, sumMax := sum(mins), sum(maxs)
	switch {
	case avail >= sumMax:
		copy(widths, maxs)
		grow := p.autoColumns(g)
		if len(grow) == 0 {
			for i := range widths {
				grow = append(grow, i)
			}
		}
		weight := 0.0
		for _, i := range grow {
			weight += maxs[i]
		}
		for _, i := range grow {
			switch {
			case weight > 0:
				widths[i] += (avail - sumMax) * maxs[i] / weight
			default:
				widths[i] += (avail - sumMax) / float64(len(grow))
			}
		}
	case avail > sumMin && sumMax > sumMin:
		f := (avail - sumMin) / (sumMax - sumMin)
		for i := range widths {
			widths[i] = mins[i] + (maxs[i]-mins[i])*f
		}
	default:
		copy(widths, mins)
	}
	return widths
}

// fixedColumnWidths sizes columns from column boxes and the first row only.
func (p *pass) fixedColumnWidths(g *tableGrid, avail float64) []float64 {
	widths := make([]float64, g.cols)
	set := make([]bool, g.cols)
	for i, col := range g.columns {
		if col == boxtree.NoBox {
			continue
		}
		if w, ok := lengthOnly(p.box(col).Style.Box.Width); ok {
			widths[i], set[i] = w, true
		}
	}
	for _, gc := range g.cells {
		if gc.row != 0 || set[gc.col] {
			continue
		}
		cell := p.box(gc.id)
		if w, ok := lengthOnly(cell.Style.Box.Width); ok {
			padding, border, _, _ := edgesOf(cell, 0)
			if cell.Style.BoxSizing() != style.BorderBox {
				w += padding.Horizontal() + border.Horizontal()
			}
			for c := gc.col; c < gc.col+gc.colSpan; c++ {
				widths[c], set[c] = w/float64(gc.colSpan), true
			}
		}
	}
	used, free := 0.0, 0
	for i, w := range widths {
		if set[i] {
			used += w
		} else {
			free++
		}
	}
	rest := math.Max(0, avail-used)
	switch {
	case free > 0:
		for i := range widths {
			if !set[i] {
				widths[i] = rest / float64(free)
			}
		}
	case used > 0 && rest > 0:
		for i := range widths {
			widths[i] += rest * widths[i] / used
		}
	}
	return widths
}

// layoutTable lays out captions, rows and cells of a table whose content
// box position and width are set, and returns its content height.
func (p *pass) layoutTable(id boxtree.BoxID) float64 {
	b := p.box(id)
	content := b.Layout.Content
	g := p.tableGrid(id)
	widths := p.columnWidths(g, content.Width)

	colX := make([]float64, g.cols+1)
	x := content.X + g.hspacing
	for i, w := range widths {
		colX[i] = x
		x += w + g.hspacing
	}
	colX[g.cols] = x
	gridWidth := x - content.X
	if g.cols == 0 {
		gridWidth = 0
	}

	y := p.layoutCaptions(g, content, content.Y, "top")
	gridTop := y

	rowHeights, rowBaselines := p.layoutCells(g, b, widths, content.Width)
	if h, ok := p.heights[id]; ok && len(g.rows) > 0 {
		captions := gridTop - content.Y
		gridHeight := sum(rowHeights) + g.vspacing*float64(len(g.rows)+1)
		if extra := h - captions - gridHeight; extra > 0 {
			for r := range rowHeights {
				rowHeights[r] += extra / float64(len(rowHeights))
			}
		}
	}

	rowY := make([]float64, len(g.rows)+1)
	y = gridTop + g.vspacing
	for r, h := range rowHeights {
		rowY[r] = y
		y += h + g.vspacing
	}
	rowY[len(g.rows)] = y
	if len(g.rows) == 0 {
		y = gridTop
	}
	gridBottom := y

	for _, gc := range g.cells {
		p.placeCell(g, gc, colX, rowY, rowBaselines)
	}
	for r, row := range g.rows {
		l := &p.box(row).Layout
		l.Padding, l.Border, l.Margin = boxtree.Edges{}, boxtree.Edges{}, boxtree.Edges{}
		l.Content = boxtree.Rect{X: content.X, Y: rowY[r], Width: gridWidth, Height: rowHeights[r]}
		l.Baseline = rowY[r] + rowBaselines[r]
	}
	for i, group := range g.groups {
		l := &p.box(group).Layout
		l.Padding, l.Border, l.Margin = boxtree.Edges{}, boxtree.Edges{}, boxtree.Edges{}
		first, n := g.groupRows[i][0], g.groupRows[i][1]
		l.Content = boxtree.Rect{X: content.X, Y: rowY[first]}
		if n > 0 {
			l.Content = boxtree.Rect{X: content.X, Y: rowY[first], Width: gridWidth, Height: rowY[first+n-1] + rowHeights[first+n-1] - rowY[first]}
		}
	}
	columns := map[boxtree.BoxID]boxtree.Rect{}
	for i, col := range g.columns {
		if col == boxtree.NoBox {
			continue
		}
		r := boxtree.Rect{X: colX[i], Y: gridTop + g.vspacing, Width: widths[i], Height: math.Max(0, gridBottom-gridTop-2*g.vspacing)}
		if prev, ok := columns[col]; ok {
			r = union(prev, r)
		}
		columns[col] = r
	}
	for col, r := range columns {
		l := &p.box(col).Layout
		l.Padding, l.Border, l.Margin = boxtree.Edges{}, boxtree.Edges{}, boxtree.Edges{}
		l.Content = r
	}
	for _, cg := range g.colGroups {
		group := p.box(cg)
		var r boxtree.Rect
		for i, c := range group.Children {
			if i == 0 {
				r = p.box(c).Layout.Content
			} else {
				r = union(r, p.box(c).Layout.Content)
			}
		}
		group.Layout.Content = r
	}

	for _, part := range append(append([]boxtree.BoxID(nil), g.rows...), g.groups...) {
		for _, pos := range p.box(part).Positioned {
			p.layoutAbsolute(pos, p.box(part).Layout.PaddingBox())
		}
	}
	y = p.layoutCaptions(g, content, gridBottom, "bottom")
	return y - content.Y
}

// layoutCaptions stacks the captions on one side of the table from y and
// returns the y below them.
func (p *pass) layoutCaptions(g *tableGrid, content boxtree.Rect, y float64, side string) float64 {
	cur := &Cursor{X: content.X, Y: y}
	fl := &floatList{}
	for _, c := range g.captions {
		s := p.box(c).Style.Table.CaptionSide
		if s.Is("bottom") != (side == "bottom") {
			continue
		}
		p.layoutBlock(c, cur, fl, content, 0, false)
	}
	cur.ApplyMargin()
	return cur.Y
}

// layoutCells lays out every cell at the origin with its column width and
// returns the height and baseline offset of every row.
func (p *pass) layoutCells(g *tableGrid, table *boxtree.Box, widths []float64, cbWidth float64) ([]float64, []float64) {
	heights := make([]float64, len(g.rows))
	above := make([]float64, len(g.rows))
	below := make([]float64, len(g.rows))
	for r, row := range g.rows {
		if h, ok := lengthOnly(p.box(row).Style.Box.Height); ok {
			heights[r] = clampSize(h)
		}
	}

	var spanning []gridCell
	for _, gc := range g.cells {
		cell := p.box(gc.id)
		p.cellEdges(g, table, gc, cbWidth)
		setContaining(cell, cbWidth, 0, false)
		w := sum(widths[gc.col:gc.col+gc.colSpan]) + g.hspacing*float64(gc.colSpan-1)
		l := &cell.Layout
		w = clampSize(w - l.Padding.Horizontal() - l.Border.Horizontal())
		p.layoutIndependent(gc.id, l.Border.Left+l.Padding.Left, l.Border.Top+l.Padding.Top, w, 0, false)
		outer := l.BorderBox().Height
		if gc.rowSpan > 1 {
			spanning = append(spanning, gc)
			continue
		}
		if cellAlign(cell) == "baseline" {
			baseline := p.cellBaseline(cell)
			above[gc.row] = math.Max(above[gc.row], baseline)
			below[gc.row] = math.Max(below[gc.row], outer-baseline)
		}
		heights[gc.row] = math.Max(heights[gc.row], outer)
	}
	for r := range heights {
		heights[r] = math.Max(heights[r], above[r]+below[r])
	}
	for _, gc := range spanning {
		outer := p.box(gc.id).Layout.BorderBox().Height
		have := sum(heights[gc.row:gc.row+gc.rowSpan]) + g.vspacing*float64(gc.rowSpan-1)
		if outer > have {
			heights[gc.row+gc.rowSpan-1] += outer - have
		}
	}
	return heights, above
}

// cellAlign returns the vertical-align keyword that positions the content of a cell.
func cellAlign(cell *boxtree.Box) string {
	switch k := cell.Style.Box.VerticalAlign.Keyword; k {
	case "top", "middle", "bottom":
		return k
	}
	return "baseline"
}

// cellBaseline is the distance from the top of a cell's border box to its
// first baseline, or to the bottom of its content box when it has none.
func (p *pass) cellBaseline(cell *boxtree.Box) float64 {
	top := cell.Layout.BorderBox().Y
	if y, ok := p.firstBaseline(cell.ID); ok {
		return y - top
	}
	return cell.Layout.Content.Bottom() - top
}

// placeCell moves a cell to its grid slot, stretches it over its rows and
// shifts its content for vertical-align.
func (p *pass) placeCell(g *tableGrid, gc gridCell, colX, rowY, rowBaselines []float64) {
	cell := p.box(gc.id)
	l := &cell.Layout
	last := gc.row + gc.rowSpan - 1
	height := rowY[last+1] - g.vspacing - rowY[gc.row]
	bb := l.BorderBox()
	natural := bb.Height
	shift := 0.0
	switch cellAlign(cell) {
	case "middle":
		shift = (height - natural) / 2
	case "bottom":
		shift = height - natural
	case "baseline":
		if gc.rowSpan == 1 {
			shift = rowBaselines[gc.row] - p.cellBaseline(cell)
		}
	}
	shift = math.Max(0, shift)
	p.translate(gc.id, colX[gc.col]-bb.X, rowY[gc.row]-bb.Y+shift)
	l.Content.Y -= shift
	l.Content.Height = clampSize(height - l.Padding.Vertical() - l.Border.Vertical())
}
