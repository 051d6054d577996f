package bigquery

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale is the fractional precision of a BigQuery NUMERIC column.
const numericScale = 9

// TransactionRow is the subset of finance.transactions the insight engine reads.
type TransactionRow struct {
	TransactionID   string              `bigquery:"transaction_id"`   // REQUIRED
	TransactionDate civil.Date          `bigquery:"transaction_date"` // REQUIRED
	Amount          *big.Rat            `bigquery:"amount"`           // REQUIRED NUMERIC, IN positive / OUT negative
	Direction       bigquery.NullString `bigquery:"direction"`        // NULLABLE
	CategoryID      bigquery.NullString `bigquery:"category_id"`      // NULLABLE
}

// ToDomain maps a stored row into an engine transaction.
// The direction column wins when present; otherwise the amount sign decides.
func (r *TransactionRow) ToDomain() (domain.Transaction, error) {
	if r.Amount == nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: missing amount", r.TransactionID)
	}
	if !r.TransactionDate.IsValid() {
		return domain.Transaction{}, fmt.Errorf("transaction %s: invalid date %s", r.TransactionID, r.TransactionDate)
	}

	amount := ratToDecimal(r.Amount)

	typ := domain.TransactionTypeExpense
	switch {
	case r.Direction.Valid:
		switch strings.ToUpper(strings.TrimSpace(r.Direction.StringVal)) {
		case "IN", "CREDIT":
			typ = domain.TransactionTypeIncome
		}
	case amount.IsPositive():
		typ = domain.TransactionTypeIncome
	}

	tx := domain.Transaction{
		ID:     r.TransactionID,
		Type:   typ,
		Amount: amount.Abs(),
		Date:   r.TransactionDate.In(time.UTC),
	}
	if typ == domain.TransactionTypeExpense && r.CategoryID.Valid && r.CategoryID.StringVal != "" {
		id := r.CategoryID.StringVal
		tx.CategoryID = &id
	}
	return tx, nil
}

func ratToDecimal(r *big.Rat) decimal.Decimal {
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	return num.DivRound(den, numericScale)
}
