package models

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// RowKey builds the primary key of a statement row from its position in the
// file, its transaction date and the owning metadata key. Pure function of
// its inputs.
func RowKey(rowNr int, transactionDate, metadataKey string) string {
	return hashKey(strconv.Itoa(rowNr), transactionDate, metadataKey)
}

// MetadataKey builds the primary key of a statement's metadata record.
func MetadataKey(m StatementMetadata) string {
	return hashKey(m.StatementDate, m.AccountNumber, m.StatementNumber, m.StatementType, m.Currency)
}

func hashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
