package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

// fakeSource serves canned tables instead of extracting a real PDF.
type fakeSource struct {
	regions   map[rowsource.Template]rowsource.Table
	pages     []rowsource.Table
	lastPage  rowsource.Table
	pageCount int

	pagesErr error
}

func (f *fakeSource) Pages(string) ([]rowsource.Table, error) {
	if f.pagesErr != nil {
		return nil, f.pagesErr
	}
	return f.pages, nil
}

func (f *fakeSource) Region(_ string, tpl rowsource.Template, _ int, _ bool) (rowsource.Table, error) {
	if tpl == rowsource.TemplateLastPage {
		if len(f.lastPage.Columns) == 0 {
			return rowsource.Table{}, fmt.Errorf("no last page template")
		}
		return f.lastPage, nil
	}
	table, ok := f.regions[tpl]
	if !ok {
		return rowsource.Table{}, fmt.Errorf("region not found")
	}
	return table, nil
}

func (f *fakeSource) PageCount(string) (int, error) { return f.pageCount, nil }

// metadataRegions builds the four first-page header sections of a well-formed
// statement with the given balances.
func metadataRegions(start, end string) map[rowsource.Template]rowsource.Table {
	return map[rowsource.Template]rowsource.Table{
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
			Columns: []string{"Počáteční zůstatek", start},
			Records: [][]string{
				{"Konečný zůstatek", end},
			},
		},
		rowsource.TemplateAccountEntity: {
			Columns: []string{"Adresát", ""},
			Records: [][]string{
				{"ACME TRADING s.r.o.", ""},
				{"Dlouhá 123", ""},
				{"110 00", "Praha 1"},
			},
		},
	}
}

func TestParseStatementMetadata(t *testing.T) {
	src := &fakeSource{regions: metadataRegions("1 000,00", "850,00")}

	meta, err := ParseStatementMetadata(src, "statement.pdf")
	require.NoError(t, err)

	assert.Equal(t, "BĚŽNÝ V CZK", meta.StatementType)
	assert.Equal(t, "115-1234560287", meta.AccountNumber)
	assert.Equal(t, "CZ6501000001151234560287", meta.IBAN)
	assert.Equal(t, "Běžný účet", meta.AccountType)
	assert.Equal(t, "CZK", meta.Currency)
	assert.Equal(t, "1.1.2024 - 31.1.2024", meta.StatementDate)
	assert.Equal(t, "1", meta.StatementNumber)
	assert.Equal(t, "1000", meta.StartBalance.String())
	assert.Equal(t, "850", meta.EndBalance.String())
	assert.Equal(t, "Adresát \n\nACME TRADING s.r.o.\nDlouhá 123\n110 00 Praha 1", meta.AccountEntity)
}

func TestParseStatementMetadataMissingRegion(t *testing.T) {
	regions := metadataRegions("1 000,00", "850,00")
	delete(regions, rowsource.TemplateReportMeta)
	src := &fakeSource{regions: regions}

	_, err := ParseStatementMetadata(src, "/tmp/statement.pdf")
	require.Error(t, err)
	assert.True(t, IsParserError(err))
	assert.Equal(t,
		"Statement statement.pdf does not contain the Report Metadata section on expected position!",
		err.Error())
}

func TestParseAccountTypeSectionErrors(t *testing.T) {
	t.Run("missing rows", func(t *testing.T) {
		regions := metadataRegions("1 000,00", "850,00")
		table := regions[rowsource.TemplateAccountType]
		table.Records = table.Records[:2]
		regions[rowsource.TemplateAccountType] = table

		_, err := ParseStatementMetadata(&fakeSource{regions: regions}, "s.pdf")
		require.Error(t, err)
		assert.Equal(t, "Header Account type section is missing some rows!", err.Error())
	})

	t.Run("every missing label is reported", func(t *testing.T) {
		regions := metadataRegions("1 000,00", "850,00")
		regions[rowsource.TemplateAccountType] = rowsource.Table{
			Columns: []string{"Výpis z účtu", "BĚŽNÝ V CZK"},
			Records: [][]string{
				{"wrong:", "a"},
				{"wrong:", "b"},
				{"typ:", "Běžný účet"},
				{"wrong:", "d"},
			},
		}

		_, err := ParseStatementMetadata(&fakeSource{regions: regions}, "s.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Header Account type section parsing failed with errors:")
		assert.Contains(t, err.Error(), "Missing 'k účtu:' section.")
		assert.Contains(t, err.Error(), "Missing 'IBAN:' section.")
		assert.Contains(t, err.Error(), "Missing 'měna:' section.")
		assert.NotContains(t, err.Error(), "Missing 'typ:' section.")
	})

	t.Run("wrong column count", func(t *testing.T) {
		regions := metadataRegions("1 000,00", "850,00")
		regions[rowsource.TemplateAccountType] = rowsource.Table{
			Columns: []string{"a", "b", "c"},
			Records: [][]string{
				{"k účtu:", "x", "y"},
				{"IBAN:", "x", "y"},
				{"typ:", "x", "y"},
				{"měna:", "x", "y"},
			},
		}

		_, err := ParseStatementMetadata(&fakeSource{regions: regions}, "s.pdf")
		require.Error(t, err)
		assert.Equal(t, "Header Account type section has different amount of columns 3 than expected!", err.Error())
	})
}

func TestParseBalanceSectionErrors(t *testing.T) {
	t.Run("unparseable start balance", func(t *testing.T) {
		regions := metadataRegions("n/a", "850,00")

		_, err := ParseStatementMetadata(&fakeSource{regions: regions}, "s.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `start balance "n/a" is not a number`)
	})

	t.Run("missing end balance label", func(t *testing.T) {
		regions := metadataRegions("1 000,00", "850,00")
		regions[rowsource.TemplateTotalBalance] = rowsource.Table{
			Columns: []string{"Počáteční zůstatek", "1 000,00"},
			Records: [][]string{{"wrong label", "850,00"}},
		}

		_, err := ParseStatementMetadata(&fakeSource{regions: regions}, "s.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Missing 'Konečný zůstatek' section.")
	})
}

func TestParseEntitySectionTooManyColumns(t *testing.T) {
	regions := metadataRegions("1 000,00", "850,00")
	regions[rowsource.TemplateAccountEntity] = rowsource.Table{
		Columns: []string{"a", "b", "c"},
		Records: [][]string{{"x", "y", "z"}},
	}

	_, err := ParseStatementMetadata(&fakeSource{regions: regions}, "s.pdf")
	require.Error(t, err)
	assert.Equal(t, "Account Entity section has different amount of columns 3 than expected!", err.Error())
}
