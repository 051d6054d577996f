package insights

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

const frequencyMinTagged = 5

// CategoryFrequencyRule reports which category most expense records fall into.
//
// When several categories share the highest count, the one that reached
// that count first in snapshot order wins. Sources order snapshots by date
// descending, so ties are not meaningful to callers.
type CategoryFrequencyRule struct{}

type categoryTally struct {
	id    string
	count int
	total decimal.Decimal
}

// Type implements Rule.
func (CategoryFrequencyRule) Type() domain.InsightType {
	return domain.InsightCategoryFrequency
}

// Generate implements Rule.
func (r CategoryFrequencyRule) Generate(transactions []domain.Transaction, now time.Time) *domain.Insight {
	var (
		tallies []*categoryTally
		byID    = make(map[string]*categoryTally)
		tagged  int
	)
	for _, tx := range transactions {
		if !tx.IsExpense() || !tx.HasCategory() {
			continue
		}
		tagged++
		t, ok := byID[*tx.CategoryID]
		if !ok {
			t = &categoryTally{id: *tx.CategoryID, total: decimal.Zero}
			byID[t.id] = t
			tallies = append(tallies, t)
		}
		t.count++
		t.total = t.total.Add(tx.Amount)
	}
	if tagged < frequencyMinTagged {
		return nil
	}

	top := tallies[0]
	for _, t := range tallies[1:] {
		if t.count > top.count {
			top = t
		}
	}

	percentage := percentOf(decimal.NewFromInt(int64(top.count)), decimal.NewFromInt(int64(tagged)))

	return NewInsight(
		r.Type(),
		"Top Spending Category",
		fmt.Sprintf("%s%% of your transactions are in one category. Consider if this aligns with your priorities.", percentage.StringFixed(0)),
		domain.SeverityInfo,
		map[string]any{
			"category_id": top.id,
			"count":       top.count,
			"total":       top.total.InexactFloat64(),
			"percentage":  percentage.InexactFloat64(),
		},
		now,
	)
}
