package layout

import (
	"strconv"
	"strings"

	"github.com/archvision/reportpdf/internal/parser/html"
	"github.com/archvision/reportpdf/internal/style"
)

// tableRows returns <tr> elements of a table in document order, looking
// through thead, tbody and tfoot sections.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch c.Tag() {
		case "tr":
			rows = append(rows, c)
		case "thead", "tbody", "tfoot":
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.IsElement("tr") {
					rows = append(rows, tr)
				}
			}
		}
	}
	return rows
}

func rowCells(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.IsElement("td") || c.IsElement("th") {
			cells = append(cells, c)
		}
	}
	return cells
}

func colspan(cell *html.Node) int {
	if v, ok := cell.AttrValue("colspan"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
			return n
		}
	}
	return 1
}

// columnWidths determines consistent column widths for the table. Widths
// declared on the first row (CSS width or the width attribute, px or %) are
// honored and split evenly across spanned columns; the rest share what is left.
func (e *Engine) columnWidths(rows []*html.Node, tableWidth, spacing float64) []float64 {
	cols := 0
	for _, tr := range rows {
		n := 0
		for _, c := range rowCells(tr) {
			n += colspan(c)
		}
		cols = max(cols, n)
	}
	if cols == 0 {
		return nil
	}
	totalWidth := max(0, tableWidth-spacing*float64(cols+1))

	widths := make([]float64, cols)
	declared := 0.0
	idx := 0
	for _, c := range rowCells(rows[0]) {
		span := colspan(c)
		w, ok := dimension(c, e.styleOf(c), "width", totalWidth)
		for j := 0; j < span && idx < cols; j++ {
			if ok {
				widths[idx] = w / float64(span)
				declared += widths[idx]
			}
			idx++
		}
	}

	remaining := max(0, totalWidth-declared)
	free := 0
	for _, w := range widths {
		if w == 0 {
			free++
		}
	}
	if free > 0 {
		each := remaining / float64(free)
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = each
			}
		}
	}
	return widths
}

// layoutTable lays out rows of cells on a grid and returns the content height.
// Cells in a row are stretched to the tallest cell.
func (e *Engine) layoutTable(table *BlockBox) float64 {
	x, y, width := table.ContentX(), table.ContentY(), table.ContentWidth()

	spacing := 0.0
	if table.Style.Get("border-collapse") != "collapse" {
		if f := strings.Fields(table.Style.Get("border-spacing")); len(f) > 0 {
			spacing, _ = style.Length(f[0], table.Style.FontSize(), width)
		}
	}

	rows := tableRows(table.Node)
	if len(rows) == 0 {
		return 0
	}
	widths := e.columnWidths(rows, width, spacing)

	cursor := y + spacing
	for _, tr := range rows {
		row := &BlockBox{Node: tr, Style: e.styleOf(tr), X: x, Y: cursor, Width: width}
		cx := x + spacing
		col := 0
		rowHeight := 0.0
		for _, c := range rowCells(tr) {
			span := colspan(c)
			w := spacing * float64(span-1)
			for j := col; j < col+span && j < len(widths); j++ {
				w += widths[j]
			}
			cell := e.layoutBlock(c, cx, cursor, w)
			row.Children = append(row.Children, cell)
			rowHeight = max(rowHeight, cell.Height)
			cx += w + spacing
			col += span
		}
		for _, c := range row.Children {
			c.(*BlockBox).Height = rowHeight
		}
		row.Height = rowHeight
		table.Children = append(table.Children, row)
		cursor += rowHeight + spacing
	}
	return cursor - y
}
