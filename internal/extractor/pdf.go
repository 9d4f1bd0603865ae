// Package extractor implements the table-extraction capability on top of
// the ledongthuc/pdf library. It reconstructs table rows from positioned
// page text: text pieces are grouped into rows by Y coordinate, split into
// cells on large X gaps, and aligned into columns against the per-page
// anchor positions. The first reconstructed row of a page or region carries
// the column labels; columns with no header text get the pandas-style
// unnamed sentinel so the parser's shape classifier can see them.
package extractor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

// Gap thresholds in PDF points. cellGapStream splits cells aggressively the
// way stream-mode table detection does; cellGapLattice tolerates wider gaps
// inside one cell.
const (
	cellGapStream  = 15.0
	cellGapLattice = 28.0
	columnSlack    = 20.0
)

// Engine is the default rowsource.Source backed by ledongthuc/pdf.
type Engine struct{}

// New returns a ready Engine.
func New() *Engine { return &Engine{} }

var _ rowsource.Source = (*Engine)(nil)

// textItem is one positioned text piece. Y is measured from the page top so
// rows sort naturally.
type textItem struct {
	x, y float64
	s    string
}

// cell is a reconstructed table cell with its left edge.
type cell struct {
	x    float64
	text string
}

// Pages extracts every page of the document as one auto-detected table,
// using stream-style cell splitting.
func (e *Engine) Pages(path string) ([]rowsource.Table, error) {
	var tables []rowsource.Table
	err := withReader(path, func(r *pdf.Reader) error {
		for i := 1; i <= r.NumPage(); i++ {
			page := r.Page(i)
			if page.V.IsNull() {
				continue
			}
			items := pageTextItems(page)
			tables = append(tables, buildTable(clusterRows(items, cellGapStream)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// Region extracts one fixed template region of a single page.
func (e *Engine) Region(path string, tpl rowsource.Template, pageNr int, stream bool) (rowsource.Table, error) {
	region, ok := templateRegions[tpl]
	if !ok {
		return rowsource.Table{}, fmt.Errorf("unknown template %q", tpl)
	}

	gap := cellGapLattice
	if stream {
		gap = cellGapStream
	}

	var table rowsource.Table
	err := withReader(path, func(r *pdf.Reader) error {
		if pageNr < 1 || pageNr > r.NumPage() {
			return fmt.Errorf("page %d out of range (document has %d)", pageNr, r.NumPage())
		}
		page := r.Page(pageNr)
		if page.V.IsNull() {
			return fmt.Errorf("page %d has no content", pageNr)
		}
		items := pageTextItems(page)
		table = buildTable(clusterRows(region.clip(items), gap))
		return nil
	})
	return table, err
}

// PageCount reports the number of pages in the document.
func (e *Engine) PageCount(path string) (int, error) {
	n := 0
	err := withReader(path, func(r *pdf.Reader) error {
		n = r.NumPage()
		return nil
	})
	return n, err
}

// withReader opens the document, runs fn and converts library panics into
// errors; the underlying parser is known to crash on malformed files.
func withReader(path string, fn func(r *pdf.Reader) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	if r.NumPage() == 0 {
		return fmt.Errorf("PDF has no pages")
	}
	return fn(r)
}

// pageTextItems collects the page's text pieces with Y flipped to a
// top-origin coordinate system.
func pageTextItems(page pdf.Page) []textItem {
	height := pageHeight(page)
	content := page.Content()
	items := make([]textItem, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		items = append(items, textItem{x: t.X, y: height - t.Y, s: t.S})
	}
	return items
}

// pageHeight reads the page's MediaBox height, defaulting to A4 when the
// box is missing or inherited in a way the library does not resolve.
func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() == pdf.Array && box.Len() == 4 {
		return box.Index(3).Float64() - box.Index(1).Float64()
	}
	return 842
}

// clusterRows groups text items into rows by rounded Y, orders them top to
// bottom and left to right, and splits each row into cells wherever the
// horizontal gap between adjacent pieces exceeds the threshold.
func clusterRows(items []textItem, gap float64) [][]cell {
	rowMap := make(map[int][]textItem)
	for _, it := range items {
		yKey := int(math.Round(it.y))
		rowMap[yKey] = append(rowMap[yKey], it)
	}

	yKeys := make([]int, 0, len(rowMap))
	for y := range rowMap {
		yKeys = append(yKeys, y)
	}
	sort.Ints(yKeys)

	var rows [][]cell
	for _, y := range yKeys {
		rowItems := rowMap[y]
		sort.Slice(rowItems, func(a, b int) bool { return rowItems[a].x < rowItems[b].x })
		if cells := splitCells(rowItems, gap); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// splitCells merges adjacent text items of one row into cells, breaking at
// horizontal gaps wider than the threshold. Pieces within a cell are joined
// with single spaces.
func splitCells(items []textItem, gap float64) []cell {
	var cells []cell
	var parts []string
	var start, prevEnd float64

	flush := func() {
		if len(parts) > 0 {
			cells = append(cells, cell{x: start, text: strings.TrimSpace(strings.Join(parts, " "))})
			parts = nil
		}
	}

	for i, it := range items {
		if i > 0 && it.x-prevEnd > gap {
			flush()
		}
		if len(parts) == 0 {
			start = it.x
		}
		parts = append(parts, it.s)
		// Approximate the piece's right edge from its glyph count.
		prevEnd = it.x + float64(len(it.s))*5.0
	}
	flush()
	return cells
}

// buildTable aligns reconstructed rows into a table. Column anchors are the
// clustered left edges seen across all rows; the first row provides the
// column labels, with the unnamed sentinel filling anchors the header row
// does not cover. Data rows are padded with empty strings where a column has
// no cell.
func buildTable(rows [][]cell) rowsource.Table {
	if len(rows) == 0 {
		return rowsource.Table{}
	}

	anchors := columnAnchors(rows)

	columns := make([]string, len(anchors))
	assigned := assignToAnchors(rows[0], anchors)
	unnamed := 0
	for i := range anchors {
		if assigned[i] == "" {
			columns[i] = rowsource.UnnamedColumn(unnamed)
			unnamed++
		} else {
			columns[i] = assigned[i]
		}
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, assignToAnchors(row, anchors))
	}

	return rowsource.Table{Columns: columns, Records: records}
}

// columnAnchors clusters the left edges of all cells into column positions.
func columnAnchors(rows [][]cell) []float64 {
	var xs []float64
	for _, row := range rows {
		for _, c := range row {
			xs = append(xs, c.x)
		}
	}
	sort.Float64s(xs)

	var anchors []float64
	for _, x := range xs {
		if len(anchors) == 0 || x-anchors[len(anchors)-1] > columnSlack {
			anchors = append(anchors, x)
		}
	}
	return anchors
}

// assignToAnchors maps a row's cells onto the column anchors by nearest left
// edge. Collisions concatenate, missing columns stay empty.
func assignToAnchors(row []cell, anchors []float64) []string {
	values := make([]string, len(anchors))
	for _, c := range row {
		idx := nearestAnchor(c.x, anchors)
		if values[idx] == "" {
			values[idx] = c.text
		} else {
			values[idx] += " " + c.text
		}
	}
	return values
}

func nearestAnchor(x float64, anchors []float64) int {
	best := 0
	bestDist := math.Abs(anchors[0] - x)
	for i, a := range anchors[1:] {
		if d := math.Abs(a - x); d < bestDist {
			best = i + 1
			bestDist = d
		}
	}
	return best
}
