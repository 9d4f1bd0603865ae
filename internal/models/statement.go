// Package models holds the two record types the converter produces per
// statement file, plus their primary-key functions. CSV column order is
// fixed by struct declaration order and the csv tags.
package models

import "github.com/shopspring/decimal"

// Transaction type values derived from the amount sign.
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// TransactionType classifies an amount: negative is a debit, anything else
// (including zero) is a credit.
func TransactionType(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return TypeDebit
	}
	return TypeCredit
}

// StatementMetadata describes one statement file, parsed once from the
// first-page header sections before any transaction row. Immutable after
// construction.
type StatementMetadata struct {
	AccountNumber   string          `csv:"account_number" json:"accountNumber"`
	StatementType   string          `csv:"statement_type" json:"statementType"`
	IBAN            string          `csv:"iban" json:"iban"`
	AccountType     string          `csv:"account_type" json:"accountType"`
	Currency        string          `csv:"currency" json:"currency"`
	StatementDate   string          `csv:"statement_date" json:"statementDate"`
	StatementNumber string          `csv:"statement_number" json:"statementNumber"`
	AccountEntity   string          `csv:"account_entity" json:"accountEntity"`
	StartBalance    decimal.Decimal `csv:"start_balance" json:"startBalance"`
	EndBalance      decimal.Decimal `csv:"end_balance" json:"endBalance"`
}

// StatementRow is one logical transaction, assembled from 2 to N raw table
// rows. Never mutated after the assembler emits it.
type StatementRow struct {
	AccountingDate            string          `csv:"accounting_date" json:"accountingDate"`
	TransactionDate           string          `csv:"transaction_date" json:"transactionDate"`
	TransactionDescription    string          `csv:"transaction_description" json:"transactionDescription"`
	TransactionIdentification string          `csv:"transaction_identification" json:"transactionIdentification"`
	AccountNameCardType       string          `csv:"account_name_card_type" json:"accountNameCardType"`
	AccountNumberMerchant     string          `csv:"account_number_merchant" json:"accountNumberMerchant"`
	VS                        string          `csv:"vs" json:"vs"`
	KS                        string          `csv:"ks" json:"ks"`
	SS                        string          `csv:"ss" json:"ss"`
	TransactionType           string          `csv:"transaction_type" json:"transactionType"`
	Amount                    decimal.Decimal `csv:"amount" json:"amount"`
}
