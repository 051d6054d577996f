package insights

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

const anomalyMinExpenses = 10

var anomalyThreshold = decimal.NewFromInt(20)

// SpendingAnomalyRule compares this calendar month's spending with the
// previous calendar month and reports swings larger than 20%.
type SpendingAnomalyRule struct{}

// Type implements Rule.
func (SpendingAnomalyRule) Type() domain.InsightType {
	return domain.InsightSpendingAnomaly
}

// Generate implements Rule.
func (r SpendingAnomalyRule) Generate(transactions []domain.Transaction, now time.Time) *domain.Insight {
	expenses := expensesOf(transactions)
	if len(expenses) < anomalyMinExpenses {
		return nil
	}

	current := sumInMonth(expenses, now)
	previous := sumInMonth(expenses, previousMonth(now))
	if previous.IsZero() {
		return nil
	}

	change := percentOf(current.Sub(previous), previous)
	if change.Abs().LessThanOrEqual(anomalyThreshold) {
		return nil
	}

	direction, severity := "increased", domain.SeverityWarning
	if change.IsNegative() {
		direction, severity = "decreased", domain.SeveritySuccess
	}

	return NewInsight(
		r.Type(),
		"Spending Pattern Changed",
		fmt.Sprintf("Your spending has %s by %s%% compared to last month.", direction, change.Abs().StringFixed(0)),
		severity,
		map[string]any{
			"percentage_change":      change.InexactFloat64(),
			"current_month_expenses": current.InexactFloat64(),
			"last_month_expenses":    previous.InexactFloat64(),
		},
		now,
	)
}
