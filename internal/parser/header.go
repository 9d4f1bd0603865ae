package parser

import (
	"fmt"
	"strings"

	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

// Sentinel labels of the transaction-table layout.
const (
	recapMarker          = "Rekapitulace transakcí na účtu"
	openingBalanceMarker = "POČÁTEČNÍ ZŮSTATEK"
	finalBalanceMarker   = "KONEČNÝ ZŮSTATEK"
	continuationMarker   = "Pokračování na další straně"
	dataStartMarker      = "transakce"

	headerDateDesc     = "Datum Popis transakce"
	headerDate         = "Datum"
	headerDesc         = "Popis transakce"
	headerCounterparty = "Název protiúčtu / Číslo a typ karty"
	headerVS           = "VS"
	headerAmount       = "Připsáno"
)

// Statement pages must settle into four logical columns before page data
// can be parsed.
const logicalColumnCount = 4

// columnShape is the closed set of column-splitting variants the extraction
// engine produces for a transaction page. Each variant maps to an explicit
// row normalizer that restores the four logical columns.
type columnShape int

const (
	// shapePassthrough: the page already has the four logical columns.
	shapePassthrough columnShape = iota
	// shapeDropLast: a spurious unnamed fifth column trails the real four.
	shapeDropLast
	// shapeMergeMiddle: the counterparty column split in two; cells two and
	// three belong together.
	shapeMergeMiddle
	// shapeMergeLeading: the date and description columns split; cells one
	// and two belong together.
	shapeMergeLeading
)

// normalize restores a raw row to the four logical columns of its page
// shape. Rows shorter than the physical column count (end markers, exhausted
// pages) pass through untouched so the end-of-data tests still see them.
func (s columnShape) normalize(row rowsource.Row) rowsource.Row {
	if s == shapePassthrough || row.Len() < 5 {
		return row
	}
	cols, vals := row.Columns, row.Values
	switch s {
	case shapeDropLast:
		return rowsource.Row{Columns: cols[:4], Values: vals[:4]}
	case shapeMergeMiddle:
		return rowsource.Row{
			Columns: []string{cols[0], cols[1], cols[3], cols[4]},
			Values:  []string{vals[0], vals[1] + vals[2], vals[3], vals[4]},
		}
	case shapeMergeLeading:
		return rowsource.Row{
			Columns: []string{cols[0] + " " + cols[1], cols[2], cols[3], cols[4]},
			Values:  []string{vals[0] + " " + vals[1], vals[2], vals[3], vals[4]},
		}
	}
	return row
}

// classifyPageShape is a pure classifier from (column count, unnamed-column
// sentinel positions, leading label) to the page's column shape.
func classifyPageShape(first rowsource.Row) (columnShape, error) {
	cols := first.Columns
	switch {
	case first.Len() == 4:
		return shapePassthrough, nil
	case first.Len() == 5 && cols[0] == headerDateDesc && rowsource.IsUnnamedColumn(cols[4]):
		return shapeDropLast, nil
	case first.Len() == 5 && cols[0] == headerDateDesc && rowsource.IsUnnamedColumn(cols[1]):
		return shapeMergeMiddle, nil
	case first.Len() == 5 && cols[0] == headerDate:
		return shapeMergeLeading, nil
	}
	return shapePassthrough, newErrorf(
		"Statement Page Header has different amount of columns [%d] than expected", first.Len())
}

// Expected header labels per position, for the merged (four column) and
// unmerged (five column) layouts. Positions with more than one entry accept
// either label; the unnamed sentinel matches any unnamed column.
var (
	headerLabels4 = [][]string{
		{headerDateDesc},
		{headerCounterparty, rowsource.UnnamedColumn(0)},
		{headerVS, headerCounterparty},
		{headerAmount, headerVS},
	}
	headerLabels5 = [][]string{
		{headerDate, headerDateDesc},
		{headerDesc, rowsource.UnnamedColumn(0)},
		{headerCounterparty},
		{headerVS},
		{headerAmount},
	}
)

func labelMatches(label string, allowed []string) bool {
	for _, a := range allowed {
		if label == a {
			return true
		}
		if rowsource.IsUnnamedColumn(a) && rowsource.IsUnnamedColumn(label) {
			return true
		}
	}
	return false
}

// validateHeaderLabels checks the header labels positionally against the
// known sets. Every mismatched position is collected and reported together.
func validateHeaderLabels(names []string, columnCount int) error {
	var expected [][]string
	switch columnCount {
	case 5:
		expected = headerLabels5
	case 4:
		expected = headerLabels4
	default:
		return newErrorf("Statement Page Header has different amount of columns [%d] than expected", columnCount)
	}

	var errs []string
	for idx, allowed := range expected {
		if idx >= len(names) || !labelMatches(names[idx], allowed) {
			found := ""
			if idx < len(names) {
				found = names[idx]
			}
			errs = append(errs, fmt.Sprintf("Column '%s' is expected on %d. position. '%s' found instead",
				strings.Join(allowed, "' or '"), idx, found))
		}
	}
	if len(errs) > 0 {
		return newErrorf("Failed to parse the statement transactions header. Found errors: \n%s",
			strings.Join(errs, "; "))
	}
	return nil
}

// skipPageHeader inspects and consumes the header rows of one transaction
// page. It returns the page's column shape and whether the page must be
// skipped entirely (the trailing recap page, terminal for the file).
//
// The header spans up to four rows; the data rows start right after the row
// whose first cell is the "transakce" sentinel.
func skipPageHeader(reader *rowsource.RowReader) (columnShape, bool, error) {
	first, ok := reader.Next()
	if !ok {
		return shapePassthrough, false, newErrorf(
			"Statement Page Header has different amount of columns [0] than expected")
	}

	// Some reports end with a recap page; nothing after it is transaction data.
	if len(first.Columns) > 0 && first.Columns[0] == recapMarker {
		return shapePassthrough, true, nil
	}

	shape, err := classifyPageShape(first)
	if err != nil {
		return shape, false, err
	}

	first = shape.normalize(first)

	// On pages opening with the balance-carried-over row the real header
	// labels sit in the row values, not the column labels.
	headerNames := first.Columns
	if len(first.Columns) > 0 && first.Columns[0] == openingBalanceMarker {
		headerNames = first.Values
	}
	if err := validateHeaderLabels(headerNames, first.Len()); err != nil {
		return shape, false, err
	}

	skippedRows := 1
	for {
		row, ok := reader.Next()
		if !ok {
			return shape, false, newErrorf("The Statement Page Header has more rows than expected!")
		}
		skippedRows++
		if skippedRows > 4 {
			return shape, false, newErrorf("The Statement Page Header has more rows than expected!")
		}
		if row.Len() > 0 && row.Values[0] == dataStartMarker {
			break
		}
	}

	return shape, false, nil
}
