package parser

import (
	"strings"

	"github.com/finparse/kb-statement-converter/internal/models"
	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

// Section name used for structural errors on transaction pages.
const pageDataSection = "Statement Page Data"

// nextTransformed pulls the next raw row and normalizes it to the page's
// column shape. An exhausted page yields the zero row, which the end-of-data
// test treats as a terminal marker.
func nextTransformed(reader *rowsource.RowReader, shape columnShape) rowsource.Row {
	row, ok := reader.Next()
	if !ok {
		return rowsource.Row{}
	}
	return shape.normalize(row)
}

// isEndOfData reports whether a row terminates the transaction data of a
// page: an empty row, the final-balance row, or the continued-on-next-page
// marker anywhere in the row.
func isEndOfData(row rowsource.Row) bool {
	if row.Len() == 0 {
		return true
	}
	if row.Values[0] == finalBalanceMarker {
		return true
	}
	return strings.Contains(strings.Join(row.Values, " "), continuationMarker)
}

func firstValue(row rowsource.Row) string {
	if row.Len() > 0 {
		return row.Values[0]
	}
	return ""
}

// belongsToNext reports whether a row opens the next transaction rather than
// continuing the current one.
func belongsToNext(row rowsource.Row) bool {
	return isDateTextSplit(firstValue(row))
}

// parseFirstRowPart fills the fields carried by a transaction's opening row:
// accounting date and description (one cell, space separated), account or
// card display name, the VS code and the signed amount.
func parseFirstRowPart(values []string, rec *models.StatementRow) error {
	date, description, err := splitDateFromText(values[0])
	if err != nil {
		return newErrorf("The first statement row part has invalid structure: %s", values[0])
	}

	amount, err := parseDecimal(values[3])
	if err != nil {
		return newErrorf("The first statement row part has invalid structure: %s", values[0])
	}

	rec.AccountingDate = date
	rec.TransactionDescription = description
	rec.AccountNameCardType = values[1]
	rec.VS = values[2]
	rec.Amount = amount
	rec.TransactionType = models.TransactionType(amount)
	return nil
}

// parseSecondRowPart fills the transaction date and identification text
// (both from the first cell when it date-splits, identification only when it
// does not), the counterparty account or merchant, and the KS code.
func parseSecondRowPart(values []string, rec *models.StatementRow) {
	date, identification, err := splitDateFromText(values[0])
	if err != nil {
		date = ""
		identification = values[0]
	}

	rec.TransactionDate = date
	rec.TransactionIdentification = identification
	rec.AccountNumberMerchant = values[1]
	rec.KS = values[2]
}

// parseThirdRowPart appends another identification line and fills the SS code.
func parseThirdRowPart(values []string, rec *models.StatementRow) {
	rec.TransactionIdentification += "\n" + values[0]
	rec.SS = values[2]
}

// parseNextStatementRow assembles one logical transaction from 2 to N raw
// rows. The lookahead argument is the first row of this transaction when the
// previous call already read it; the returned lookahead is the first row of
// the NEXT transaction, or nil when a true end-of-data marker was reached.
// Every call either consumes the buffered lookahead or refills it, never
// both, so a page's rows flow through without loss or re-reads.
func parseNextStatementRow(reader *rowsource.RowReader, shape columnShape, lookahead *rowsource.Row) (models.StatementRow, *rowsource.Row, error) {
	var rec models.StatementRow

	first := rowsource.Row{}
	if lookahead != nil {
		first = *lookahead
	} else {
		first = nextTransformed(reader, shape)
	}

	if _, err := validateRowStructure(first, logicalColumnCount, pageDataSection); err != nil {
		return rec, nil, err
	}
	if err := parseFirstRowPart(first.Values, &rec); err != nil {
		return rec, nil, err
	}

	// There is always a second part.
	second := nextTransformed(reader, shape)
	if _, err := validateRowStructure(second, logicalColumnCount, pageDataSection); err != nil {
		return rec, nil, err
	}
	parseSecondRowPart(second.Values, &rec)

	// The third part is conditional: the record may already be complete.
	current := nextTransformed(reader, shape)
	done := isEndOfData(current) || belongsToNext(current)
	if !done {
		if _, err := validateRowStructure(current, logicalColumnCount, pageDataSection); err != nil {
			return rec, nil, err
		}
		parseThirdRowPart(current.Values, &rec)

		// Remaining identification continuation lines.
		current = nextTransformed(reader, shape)
		done = isEndOfData(current) || belongsToNext(current)
		for !done {
			if _, err := validateRowStructure(current, logicalColumnCount, pageDataSection); err != nil {
				return rec, nil, err
			}
			rec.TransactionIdentification += "\n" + current.Values[1]
			current = nextTransformed(reader, shape)
			done = isEndOfData(current) || belongsToNext(current)
		}
	}

	// A terminal marker is discarded; the first row of the next transaction
	// is handed back as the lookahead.
	if isEndOfData(current) {
		return rec, nil, nil
	}
	return rec, &current, nil
}
