package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

// Statement dates are day.month.year with or without zero padding.
const dateLayout = "2.1.2006"

var whitespacePattern = regexp.MustCompile(`\s+`)

// parseDecimal converts an extracted amount cell to a decimal. The layout
// uses a comma decimal separator and groups digits with embedded whitespace
// (including non-breaking spaces), all of which is stripped before parsing.
func parseDecimal(s string) (decimal.Decimal, error) {
	formatted := strings.ReplaceAll(s, ",", ".")
	formatted = whitespacePattern.ReplaceAllString(formatted, "")
	return decimal.NewFromString(formatted)
}

// splitDateFromText splits a "<date> <text>" cell into its parts. The date
// must parse as day.month.year; the remainder after the first space is kept
// whole. Cells without both parts fail.
func splitDateFromText(s string) (date, text string, err error) {
	parts := strings.SplitN(s, " ", 2)
	if len(parts) != 2 {
		return "", "", newErrorf("cell %q does not split into date and text", s)
	}
	if _, err := time.Parse(dateLayout, parts[0]); err != nil {
		return "", "", newErrorf("cell %q does not start with a d.m.yyyy date", s)
	}
	return parts[0], parts[1], nil
}

// isDateTextSplit reports whether a cell looks like the first cell of a new
// transaction, i.e. a leading parseable date followed by text.
func isDateTextSplit(s string) bool {
	_, _, err := splitDateFromText(s)
	return err == nil
}

// validateRowStructure checks the exact cell count of a row and returns its
// column labels.
func validateRowStructure(row rowsource.Row, columnCount int, sectionName string) ([]string, error) {
	if row.Len() != columnCount {
		return nil, newErrorf("%s has different amount of columns %d than expected %d!",
			sectionName, row.Len(), columnCount)
	}
	return row.Columns, nil
}

// tableValueStrict reads the value cell of a row after checking that the
// label cell carries the expected section label. A mismatch is recorded in
// the errors buffer instead of failing immediately, so a section reports
// every missing label at once.
func tableValueStrict(row rowsource.Row, labelIdx, valueIdx int, expectedLabel string, errs *[]string) string {
	if labelIdx < row.Len() && row.Values[labelIdx] == expectedLabel {
		return row.Values[valueIdx]
	}
	*errs = append(*errs, "Missing '"+expectedLabel+"' section.")
	return ""
}
