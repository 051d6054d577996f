package insights

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	budgetHighRatio    = decimal.NewFromInt(90)
	budgetHealthyRatio = decimal.NewFromInt(50)
)

// BudgetWarningRule compares this month's expenses against this month's income.
// Ratios above 90% warn, ratios below 50% congratulate, anything between is silent.
type BudgetWarningRule struct{}

// Type implements Rule.
func (BudgetWarningRule) Type() domain.InsightType {
	return domain.InsightBudgetWarning
}

// Generate implements Rule.
func (r BudgetWarningRule) Generate(transactions []domain.Transaction, now time.Time) *domain.Insight {
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range transactions {
		if !sameMonth(tx.Date, now) {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			expense = expense.Add(tx.Amount)
		}
	}
	if income.IsZero() {
		return nil
	}

	ratio := percentOf(expense, income)
	metadata := map[string]any{
		"income":        income.InexactFloat64(),
		"expense":       expense.InexactFloat64(),
		"expense_ratio": ratio.InexactFloat64(),
		"remaining":     income.Sub(expense).InexactFloat64(),
	}

	switch {
	case ratio.GreaterThan(budgetHighRatio):
		return NewInsight(
			r.Type(),
			"High Spending Alert",
			fmt.Sprintf("You've spent %s%% of your monthly income. Consider reviewing your expenses.", ratio.StringFixed(0)),
			domain.SeverityWarning,
			metadata,
			now,
		)
	case ratio.LessThan(budgetHealthyRatio):
		return NewInsight(
			r.Type(),
			"Great Savings Rate",
			fmt.Sprintf("You're saving %s%% of your income this month. Keep it up!", hundred.Sub(ratio).StringFixed(0)),
			domain.SeveritySuccess,
			metadata,
			now,
		)
	}
	return nil
}
