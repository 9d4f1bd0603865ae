package parser

import (
	"path/filepath"
	"strings"

	"github.com/finparse/kb-statement-converter/internal/models"
	"github.com/finparse/kb-statement-converter/internal/rowsource"
)

// Strict labels of the first-page header sections.
const (
	labelAccountNumber   = "k účtu:"
	labelIBAN            = "IBAN:"
	labelAccountType     = "typ:"
	labelCurrency        = "měna:"
	labelStatementNumber = "Číslo výpisu:"
	labelEndBalance      = "Konečný zůstatek"
)

// ParseStatementMetadata extracts the statement metadata from the four fixed
// first-page sections. It runs before any transaction page is read and the
// result is never mutated afterwards.
func ParseStatementMetadata(src rowsource.Source, path string) (models.StatementMetadata, error) {
	var meta models.StatementMetadata
	if err := parseAccountTypeSection(src, path, &meta); err != nil {
		return meta, err
	}
	if err := parseReportMetadataSection(src, path, &meta); err != nil {
		return meta, err
	}
	if err := parseBalanceSection(src, path, &meta); err != nil {
		return meta, err
	}
	if err := parseEntitySection(src, path, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// loadSection extracts a templated first-page region as rows.
func loadSection(src rowsource.Source, path, sectionName string, tpl rowsource.Template) ([]rowsource.Row, error) {
	table, err := src.Region(path, tpl, 1, false)
	if err != nil || len(table.Columns) == 0 {
		return nil, newErrorf("Statement %s does not contain the %s on expected position!",
			filepath.Base(path), sectionName)
	}
	rows := make([]rowsource.Row, 0, len(table.Records))
	reader := table.Rows()
	for {
		row, ok := reader.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseAccountTypeSection reads the account identity block: account number,
// IBAN, account type and currency. The header text of the value column is the
// statement type — a quirk of the source layout, not a parsing accident.
func parseAccountTypeSection(src rowsource.Source, path string, meta *models.StatementMetadata) error {
	rows, err := loadSection(src, path, "Account type section", rowsource.TemplateAccountType)
	if err != nil {
		return err
	}

	if len(rows) < 4 {
		return newErrorf("Header Account type section is missing some rows!")
	}
	if rows[0].Len() != 2 {
		return newErrorf("Header Account type section has different amount of columns %d than expected!",
			rows[0].Len())
	}

	var parseErrors []string
	meta.StatementType = rows[0].Columns[1]
	meta.AccountNumber = tableValueStrict(rows[0], 0, 1, labelAccountNumber, &parseErrors)
	meta.IBAN = tableValueStrict(rows[1], 0, 1, labelIBAN, &parseErrors)
	meta.AccountType = tableValueStrict(rows[2], 0, 1, labelAccountType, &parseErrors)
	meta.Currency = tableValueStrict(rows[3], 0, 1, labelCurrency, &parseErrors)

	if len(parseErrors) > 0 {
		return newErrorf("Header Account type section parsing failed with errors: %s",
			strings.Join(parseErrors, "; "))
	}
	return nil
}

// parseReportMetadataSection reads the statement number; the statement date
// is the header text of the value column, same quirk as the statement type.
func parseReportMetadataSection(src rowsource.Source, path string, meta *models.StatementMetadata) error {
	const sectionName = "Report Metadata section"
	rows, err := loadSection(src, path, sectionName, rowsource.TemplateReportMeta)
	if err != nil {
		return err
	}

	if len(rows) < 3 {
		return newErrorf("%s is missing some rows!", sectionName)
	}
	if rows[0].Len() != 2 {
		return newErrorf("%s has different amount of columns %d than expected!", sectionName, rows[0].Len())
	}

	var parseErrors []string
	meta.StatementDate = rows[0].Columns[1]
	meta.StatementNumber = tableValueStrict(rows[0], 0, 1, labelStatementNumber, &parseErrors)

	if len(parseErrors) > 0 {
		return newErrorf("%s parsing failed with errors: %s", sectionName, strings.Join(parseErrors, "; "))
	}
	return nil
}

// parseBalanceSection reads the opening and closing balances. The opening
// balance is the header text of the value column.
func parseBalanceSection(src rowsource.Source, path string, meta *models.StatementMetadata) error {
	const sectionName = "Report Balance section"
	rows, err := loadSection(src, path, sectionName, rowsource.TemplateTotalBalance)
	if err != nil {
		return err
	}

	if len(rows) < 1 {
		return newErrorf("%s is missing some rows!", sectionName)
	}
	if rows[0].Len() != 2 {
		return newErrorf("%s has different amount of columns %d than expected!", sectionName, rows[0].Len())
	}

	start, err := parseDecimal(rows[0].Columns[1])
	if err != nil {
		return newErrorf("%s start balance %q is not a number", sectionName, rows[0].Columns[1])
	}
	meta.StartBalance = start

	var parseErrors []string
	endStr := tableValueStrict(rows[0], 0, 1, labelEndBalance, &parseErrors)
	if endStr != "" {
		end, err := parseDecimal(endStr)
		if err != nil {
			return newErrorf("%s end balance %q is not a number", sectionName, endStr)
		}
		meta.EndBalance = end
	}

	if len(parseErrors) > 0 {
		return newErrorf("%s parsing failed with errors: %s", sectionName, strings.Join(parseErrors, "; "))
	}
	return nil
}

// parseEntitySection reads the free-text account holder block. The region
// sometimes splits into two physical columns; all non-missing cell texts per
// row are joined into lines under the label line.
func parseEntitySection(src rowsource.Source, path string, meta *models.StatementMetadata) error {
	const sectionName = "Account Entity section"
	rows, err := loadSection(src, path, sectionName, rowsource.TemplateAccountEntity)
	if err != nil {
		return err
	}

	if len(rows) < 1 {
		return newErrorf("%s is missing some rows!", sectionName)
	}
	if rows[0].Len() > 2 {
		return newErrorf("%s has different amount of columns %d than expected!", sectionName, rows[0].Len())
	}

	firstLabel := rows[0].Columns[0]
	secondLabel := ""
	if rows[0].Len() == 2 {
		secondLabel = rows[0].Columns[1]
	}

	entityLines := []string{firstLabel + " " + secondLabel + "\n"}
	for _, row := range rows {
		var cells []string
		for _, v := range row.Values {
			if v != "" {
				cells = append(cells, v)
			}
		}
		entityLines = append(entityLines, strings.Join(cells, " "))
	}
	meta.AccountEntity = strings.Join(entityLines, "\n")

	return nil
}
