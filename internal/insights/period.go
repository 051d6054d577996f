package insights

import (
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// monthStart returns midnight on the first day of t's calendar month, in t's location.
func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// previousMonth returns the first day of the calendar month before t's.
func previousMonth(t time.Time) time.Time {
	return monthStart(t).AddDate(0, -1, 0)
}

// sameMonth compares calendar year and month, each value read in its own
// location so a transaction keeps the calendar date it was recorded on.
func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func expensesOf(transactions []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.IsExpense() {
			out = append(out, tx)
		}
	}
	return out
}

func sumInMonth(transactions []domain.Transaction, month time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if sameMonth(tx.Date, month) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// percentOf returns part / whole * 100. whole must be non-zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	return part.Div(whole).Mul(hundred)
}
