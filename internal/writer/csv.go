// Package writer produces the two sliced output tables of a parsed
// statement: one transaction-rows CSV and one metadata CSV per input file,
// each row enriched with its primary key. Column order is fixed by the
// record struct declarations.
package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/finparse/kb-statement-converter/internal/models"
	"github.com/finparse/kb-statement-converter/internal/parser"
)

// Output table directory names under the output root.
const (
	StatementsDir = "statements"
	MetadataDir   = "statements_metadata"
)

// RowRecord is one output transaction row: key columns first, then the
// statement row fields.
type RowRecord struct {
	PK                  string `csv:"pk"`
	StatementMetadataPK string `csv:"statement_metadata_pk"`
	RowNr               int    `csv:"row_nr"`
	models.StatementRow
}

// MetadataRecord is one output metadata row.
type MetadataRecord struct {
	PK string `csv:"pk"`
	models.StatementMetadata
}

// BuildRowRecords enriches parsed rows with primary keys and row numbers.
func BuildRowRecords(meta models.StatementMetadata, rows []models.StatementRow) []RowRecord {
	metaKey := models.MetadataKey(meta)
	records := make([]RowRecord, 0, len(rows))
	for i, row := range rows {
		records = append(records, RowRecord{
			PK:                  models.RowKey(i, row.TransactionDate, metaKey),
			StatementMetadataPK: metaKey,
			RowNr:               i,
			StatementRow:        row,
		})
	}
	return records
}

// RowsCSV renders the enriched rows as a CSV document.
func RowsCSV(meta models.StatementMetadata, rows []models.StatementRow) (string, error) {
	return gocsv.MarshalString(BuildRowRecords(meta, rows))
}

// SlicedWriter writes per-file CSV slices under OutDir.
type SlicedWriter struct {
	OutDir string
}

// WriteStatement drains the reader and writes the file's transaction-row and
// metadata slices. Nothing is written when parsing fails; the parse error is
// returned instead. Returns the number of rows written.
func (w *SlicedWriter) WriteStatement(fileName string, rd *parser.StatementReader) (int, error) {
	var rows []models.StatementRow
	for {
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	meta := rd.Metadata()
	records := BuildRowRecords(meta, rows)

	rowsPath := filepath.Join(w.OutDir, StatementsDir, fileName+".csv")
	if err := writeCSVFile(rowsPath, records); err != nil {
		return 0, err
	}

	metaPath := filepath.Join(w.OutDir, MetadataDir, fileName+".csv")
	metaRecords := []MetadataRecord{{PK: models.MetadataKey(meta), StatementMetadata: meta}}
	if err := writeCSVFile(metaPath, metaRecords); err != nil {
		return 0, err
	}

	return len(records), nil
}

func writeCSVFile(path string, records any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %q: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("failed to write CSV %q: %w", path, err)
	}
	return nil
}
