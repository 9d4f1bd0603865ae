package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finparse/kb-statement-converter/internal/models"
	"github.com/finparse/kb-statement-converter/internal/parser"
	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

const rowsHeader = "pk,statement_metadata_pk,row_nr,accounting_date,transaction_date," +
	"transaction_description,transaction_identification,account_name_card_type," +
	"account_number_merchant,vs,ks,ss,transaction_type,amount"

func sampleMetadata() models.StatementMetadata {
	return models.StatementMetadata{
		AccountNumber:   "115-1234560287",
		StatementType:   "BĚŽNÝ V CZK",
		IBAN:            "CZ6501000001151234560287",
		AccountType:     "Běžný účet",
		Currency:        "CZK",
		StatementDate:   "1.1.2024 - 31.1.2024",
		StatementNumber: "1",
		StartBalance:    decimal.NewFromInt(1000),
		EndBalance:      decimal.NewFromInt(850),
	}
}

func sampleRow(date string, amount int64) models.StatementRow {
	a := decimal.NewFromInt(amount)
	return models.StatementRow{
		AccountingDate:         date,
		TransactionDate:        date,
		TransactionDescription: "Payment",
		AccountNameCardType:    "Acme Corp",
		VS:                     "123",
		TransactionType:        models.TransactionType(a),
		Amount:                 a,
	}
}

func TestBuildRowRecords(t *testing.T) {
	meta := sampleMetadata()
	rows := []models.StatementRow{
		sampleRow("01.01.2024", -150),
		sampleRow("02.01.2024", 200),
	}

	records := BuildRowRecords(meta, rows)
	require.Len(t, records, 2)

	metaKey := models.MetadataKey(meta)
	for i, rec := range records {
		assert.Equal(t, metaKey, rec.StatementMetadataPK, "every row links to its statement")
		assert.Equal(t, i, rec.RowNr)
		assert.Equal(t, models.RowKey(i, rows[i].TransactionDate, metaKey), rec.PK)
	}
	assert.NotEqual(t, records[0].PK, records[1].PK)
}

func TestRowsCSV(t *testing.T) {
	meta := sampleMetadata()
	csvText, err := RowsCSV(meta, []models.StatementRow{sampleRow("01.01.2024", -150)})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, rowsHeader, lines[0])
	assert.Contains(t, lines[1], "01.01.2024")
	assert.Contains(t, lines[1], "debit")
	assert.Contains(t, lines[1], "-150")
}

func TestRowsCSVEmpty(t *testing.T) {
	csvText, err := RowsCSV(sampleMetadata(), nil)
	require.NoError(t, err)
	assert.Equal(t, rowsHeader, strings.TrimSpace(csvText))
}

// staticSource serves canned tables so the writer can be exercised through
// a real statement reader.
type staticSource struct {
	regions map[rowsource.Template]rowsource.Table
	pages   []rowsource.Table
}

func (s *staticSource) Pages(string) ([]rowsource.Table, error) { return s.pages, nil }

func (s *staticSource) Region(_ string, tpl rowsource.Template, _ int, _ bool) (rowsource.Table, error) {
	return s.regions[tpl], nil
}

func (s *staticSource) PageCount(string) (int, error) { return len(s.pages), nil }

func reconcilableSource() *staticSource {
	return &staticSource{
		regions: map[rowsource.Template]rowsource.Table{
			rowsource.TemplateAccountType: {
				Columns: []string{"Výpis z účtu", "BĚŽNÝ V CZK"},
				Records: [][]string{
					{"k účtu:", "115-1234560287"},
					{"IBAN:", "CZ6501000001151234560287"},
					{"typ:", "Běžný účet"},
					{"měna:", "CZK"},
				},
			},
			rowsource.TemplateReportMeta: {
				Columns: []string{"Za období", "1.1.2024 - 31.1.2024"},
				Records: [][]string{
					{"Číslo výpisu:", "1"},
					{"Periodicita:", "měsíčně"},
					{"Forma:", "elektronicky"},
				},
			},
			rowsource.TemplateTotalBalance: {
				Columns: []string{"Počáteční zůstatek", "1 000,00"},
				Records: [][]string{{"Konečný zůstatek", "850,00"}},
			},
			rowsource.TemplateAccountEntity: {
				Columns: []string{"Adresát", ""},
				Records: [][]string{{"ACME TRADING s.r.o.", ""}},
			},
		},
		pages: []rowsource.Table{{
			Columns: []string{
				"Datum Popis transakce",
				"Název protiúčtu / Číslo a typ karty",
				"VS",
				"Připsáno",
			},
			Records: [][]string{
				{"zaúčtování", "", "", "KS Odepsáno"},
				{"transakce", "", "", ""},
				{"01.01.2024 Payment", "Acme Corp", "123", "-150,00"},
				{"02.01.2024 invoice 42", "CZ000111", "456", ""},
				{"KONEČNÝ ZŮSTATEK", "850,00", "", ""},
			},
		}},
	}
}

func TestSlicedWriterWriteStatement(t *testing.T) {
	rd, err := parser.NewStatementReader(reconcilableSource(), "statement.pdf", nil)
	require.NoError(t, err)

	outDir := t.TempDir()
	w := &SlicedWriter{OutDir: outDir}

	count, err := w.WriteStatement("statement", rd)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rowsData, err := os.ReadFile(filepath.Join(outDir, StatementsDir, "statement.csv"))
	require.NoError(t, err)
	rowLines := strings.Split(strings.TrimSpace(string(rowsData)), "\n")
	require.Len(t, rowLines, 2)
	assert.Equal(t, rowsHeader, rowLines[0])
	assert.Contains(t, rowLines[1], "01.01.2024")

	metaData, err := os.ReadFile(filepath.Join(outDir, MetadataDir, "statement.csv"))
	require.NoError(t, err)
	metaLines := strings.Split(strings.TrimSpace(string(metaData)), "\n")
	require.Len(t, metaLines, 2)
	assert.True(t, strings.HasPrefix(metaLines[0], "pk,account_number,statement_type,iban,"))
	assert.Contains(t, metaLines[1], "115-1234560287")
}

func TestSlicedWriterWritesNothingOnParseError(t *testing.T) {
	src := reconcilableSource()
	// Break the page data so row assembly fails mid-statement.
	src.pages[0].Records[2][0] = "no leading date"

	rd, err := parser.NewStatementReader(src, "statement.pdf", nil)
	require.NoError(t, err)

	outDir := t.TempDir()
	w := &SlicedWriter{OutDir: outDir}

	_, err = w.WriteStatement("statement", rd)
	require.Error(t, err)
	assert.True(t, parser.IsParserError(err))

	_, statErr := os.Stat(filepath.Join(outDir, StatementsDir, "statement.csv"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(outDir, MetadataDir, "statement.csv"))
	assert.True(t, os.IsNotExist(statErr))
}
