package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction is one recorded income or expense event as seen by the
// insight engine. Sources map their storage rows into this shape; the engine
// never mutates it.
type Transaction struct {
	ID     string
	Type   TransactionType
	Amount decimal.Decimal // non-negative, currency agnostic

	// CategoryID is only set for expenses that were tagged with a category.
	CategoryID *string

	// IncomeSourceID is only set for income records.
	IncomeSourceID *string

	Date time.Time // calendar date; the time part is not meaningful
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// IsIncome reports whether the transaction is income.
func (t Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}

// HasCategory reports whether a non-empty category reference is present.
func (t Transaction) HasCategory() bool {
	return t.CategoryID != nil && *t.CategoryID != ""
}

// ParseTransactionType maps a stored type string to a TransactionType.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, true
	case TransactionTypeExpense:
		return TransactionTypeExpense, true
	}
	return "", false
}
