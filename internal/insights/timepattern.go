package insights

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

const timePatternMinExpenses = 7

var weekendThreshold = decimal.NewFromInt(60)

// TimePatternRule flags histories where most spending happens on Saturdays
// and Sundays. It looks at the whole history, not just the current month.
type TimePatternRule struct{}

// Type implements Rule.
func (TimePatternRule) Type() domain.InsightType {
	return domain.InsightTimePattern
}

// Generate implements Rule.
func (r TimePatternRule) Generate(transactions []domain.Transaction, now time.Time) *domain.Insight {
	expenses := expensesOf(transactions)
	if len(expenses) < timePatternMinExpenses {
		return nil
	}

	weekend, weekday := decimal.Zero, decimal.Zero
	for _, tx := range expenses {
		if isWeekend(tx.Date) {
			weekend = weekend.Add(tx.Amount)
		} else {
			weekday = weekday.Add(tx.Amount)
		}
	}

	total := weekend.Add(weekday)
	if total.IsZero() {
		return nil
	}

	share := percentOf(weekend, total)
	if share.LessThanOrEqual(weekendThreshold) {
		return nil
	}

	return NewInsight(
		r.Type(),
		"Weekend Spending Trend",
		fmt.Sprintf("You spend %s%% of your budget on weekends. Planning ahead might help.", share.StringFixed(0)),
		domain.SeverityInfo,
		map[string]any{
			"weekend_spending":   weekend.InexactFloat64(),
			"weekday_spending":   weekday.InexactFloat64(),
			"weekend_percentage": share.InexactFloat64(),
		},
		now,
	)
}
