package parser

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finparse/kb-statement-converter/internal/models"
	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

// StatementReader parses one statement file into a lazy, single-pass
// sequence of transaction rows. The statement metadata is parsed eagerly at
// construction, before any transaction page is touched; rows are assembled
// on demand by Next. A reader cannot be restarted; construct a new one to
// re-parse.
//
// After the last transaction the reader reconciles the running debit/credit
// totals against the balance delta declared in the metadata. On a mismatch
// it retries the last page once with a fixed-position template; a second
// mismatch surfaces as a ParserError from Next.
type StatementReader struct {
	src  rowsource.Source
	path string
	log  *zap.Logger

	meta  models.StatementMetadata
	pages []rowsource.Table

	pageIdx   int
	current   *rowsource.RowReader
	shape     columnShape
	lookahead *rowsource.Row

	pagesProcessed int
	debitTotal     decimal.Decimal
	creditTotal    decimal.Decimal
	retried        bool
	done           bool
}

// NewStatementReader parses the statement metadata of the file at path and
// prepares the transaction pages for reading. A nil logger disables logging.
func NewStatementReader(src rowsource.Source, path string, log *zap.Logger) (*StatementReader, error) {
	if log == nil {
		log = zap.NewNop()
	}

	meta, err := ParseStatementMetadata(src, path)
	if err != nil {
		return nil, err
	}

	pages, err := src.Pages(path)
	if err != nil {
		return nil, fmt.Errorf("statement row extraction failed: %w", err)
	}

	return &StatementReader{
		src:   src,
		path:  path,
		log:   log,
		meta:  meta,
		pages: pages,
	}, nil
}

// Metadata returns the statement metadata parsed at construction.
func (r *StatementReader) Metadata() models.StatementMetadata { return r.meta }

// PagesProcessed returns the number of transaction pages consumed so far.
func (r *StatementReader) PagesProcessed() int { return r.pagesProcessed }

// Totals returns the running debit and credit sums over the rows emitted so
// far.
func (r *StatementReader) Totals() (debit, credit decimal.Decimal) {
	return r.debitTotal, r.creditTotal
}

// Next returns the next transaction row. It returns io.EOF after the last
// row once reconciliation has passed, and a ParserError on any structural
// failure or on a reconciliation mismatch that survives the last-page retry.
func (r *StatementReader) Next() (models.StatementRow, error) {
	for {
		if r.done {
			return models.StatementRow{}, io.EOF
		}

		if r.current == nil {
			if r.pageIdx >= len(r.pages) {
				if err := r.finish(); err != nil {
					return models.StatementRow{}, err
				}
				continue
			}

			table := r.pages[r.pageIdx]
			r.pageIdx++
			r.pagesProcessed++
			r.log.Info("processing statement page", zap.Int("page", r.pagesProcessed))

			reader := table.Rows()
			shape, skip, err := skipPageHeader(reader)
			if err != nil {
				return models.StatementRow{}, err
			}
			if skip {
				// Recap page: nothing after it is transaction data.
				r.pageIdx = len(r.pages)
				continue
			}
			r.current = reader
			r.shape = shape
			r.lookahead = nil
		}

		rec, next, err := parseNextStatementRow(r.current, r.shape, r.lookahead)
		if err != nil {
			return models.StatementRow{}, err
		}
		r.lookahead = next
		if next == nil {
			r.current = nil
		}

		if rec.Amount.IsNegative() {
			r.debitTotal = r.debitTotal.Add(rec.Amount)
		} else {
			r.creditTotal = r.creditTotal.Add(rec.Amount)
		}
		return rec, nil
	}
}

// finish reconciles the accumulated totals against the declared balance
// delta using the integer-ceiling rule. On the first mismatch it swaps in a
// template extraction of the last page and lets Next continue; on the second
// it fails. Sets done when the statement reconciles.
func (r *StatementReader) finish() error {
	total := r.debitTotal.Add(r.creditTotal)
	check := r.meta.EndBalance.Sub(r.meta.StartBalance)

	if total.Ceil().Equal(check.Ceil()) {
		r.done = true
		return nil
	}

	if !r.retried {
		// The last page's auto-detected extraction is the usual culprit;
		// retry it once from the fixed-position template.
		r.retried = true
		r.log.Warn("the end sum does not match, trying to reprocess last page from template",
			zap.String("computed", total.String()),
			zap.String("expected", check.String()))

		r.pagesProcessed--
		pageCount, err := r.src.PageCount(r.path)
		if err != nil {
			return fmt.Errorf("last page reprocessing failed: %w", err)
		}
		table, err := r.src.Region(r.path, rowsource.TemplateLastPage, pageCount, true)
		if err != nil {
			return newErrorf("Statement %s does not contain the last_page on expected position!",
				filepath.Base(r.path))
		}
		r.pages = []rowsource.Table{table}
		r.pageIdx = 0
		return nil
	}

	return newErrorf("Parsed result ended with inconsistent data. The transaction sum from totals %s "+
		"is not equal to sum of individual transactions %s", check, total)
}
