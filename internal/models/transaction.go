package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DisplayDateLayout is the layout of Transaction.Date
const DisplayDateLayout = "1/2/2006"

// TransactionType is either an expense or an income
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// Transaction is a single ledger entry. It is never mutated after creation, only deleted.
type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // Always positive, the type carries the sign
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`               // Display formatted, see DisplayDateLayout
	FullDate    *time.Time      `json:"fullDate,omitempty"` // Used for month bucketing
}

// fallback layouts accepted when FullDate is missing
var dateLayouts = []string{
	DisplayDateLayout,
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"Jan 2, 2006",
}

// Timestamp returns FullDate, falling back to parsing Date.
func (t Transaction) Timestamp() (time.Time, bool) {
	if t.FullDate != nil && !t.FullDate.IsZero() {
		return *t.FullDate, true
	}

	date := strings.TrimSpace(t.Date)
	if date == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, date); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// IsExpense reports whether the transaction is an expense
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// IsIncome reports whether the transaction is an income
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}
