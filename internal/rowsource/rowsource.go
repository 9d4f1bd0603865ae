// Package rowsource defines the contract between the statement parser and
// the table-extraction engine. The engine turns PDF pages into ordered rows
// of column-label → cell-text pairs; this package carries that shape and the
// sentinel conventions the parser relies on, without binding to any concrete
// extraction backend.
package rowsource

import (
	"strconv"
	"strings"
)

// UnnamedColumnPrefix marks columns the extraction engine could not find a
// header label for. Labels take the form "Unnamed: 0", "Unnamed: 1", ...
// in the order the unnamed columns appear on the page.
const UnnamedColumnPrefix = "Unnamed:"

// UnnamedColumn builds the sentinel label for the n-th unnamed column.
func UnnamedColumn(n int) string {
	return UnnamedColumnPrefix + " " + strconv.Itoa(n)
}

// IsUnnamedColumn reports whether a column label is the unnamed sentinel.
func IsUnnamedColumn(label string) bool {
	return strings.HasPrefix(label, UnnamedColumnPrefix)
}

// Row is one extracted table row: an ordered set of cells sharing the
// column labels of the table it came from. Missing cells are empty strings.
type Row struct {
	Columns []string
	Values  []string
}

// Len returns the number of cells in the row.
func (r Row) Len() int { return len(r.Values) }

// IsZero reports whether the row is the empty row, used by consumers as the
// end-of-rows value.
func (r Row) IsZero() bool { return len(r.Values) == 0 && len(r.Columns) == 0 }

// Table is one extracted table: the column labels plus the data rows in
// page order. The extraction engine emits one Table per detected page table.
type Table struct {
	Columns []string
	Records [][]string
}

// Rows returns a pull reader over the table's rows.
func (t Table) Rows() *RowReader {
	return &RowReader{table: t}
}

// RowReader yields a table's rows one at a time. Exhaustion returns the zero
// Row with ok=false, matching the "empty row as end marker" convention the
// transaction assembler depends on.
type RowReader struct {
	table Table
	pos   int
}

// Next returns the next row, or (Row{}, false) when the table is exhausted.
func (r *RowReader) Next() (Row, bool) {
	if r.pos >= len(r.table.Records) {
		return Row{}, false
	}
	row := Row{Columns: r.table.Columns, Values: r.table.Records[r.pos]}
	r.pos++
	return row, true
}

// Template names a fixed first-page (or last-page) sub-region the engine can
// extract with a predefined position instead of layout auto-detection.
type Template string

// The section templates of the supported statement layout.
const (
	TemplateAccountType   Template = "account_type_header"
	TemplateReportMeta    Template = "report_metadata_header"
	TemplateTotalBalance  Template = "total_balance_header"
	TemplateAccountEntity Template = "account_entity_header"
	TemplateLastPage      Template = "last_page"
)

// Source is the extraction-engine capability consumed by the parser.
//
// Pages runs whole-document extraction with auto-detected table layout and
// returns one Table per page, in page order. Region extracts a single named
// sub-region of one page with a fixed template; stream selects the engine's
// stream extraction mode. PageCount reports the number of pages in the file.
type Source interface {
	Pages(path string) ([]Table, error)
	Region(path string, tpl Template, page int, stream bool) (Table, error)
	PageCount(path string) (int, error)
}
