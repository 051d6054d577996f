package insights

import (
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/google/uuid"
)

// Rule derives at most one insight from a transaction snapshot.
//
// Generate must not modify the snapshot and must return nil instead of
// failing on empty or small inputs. now is the instant the engine uses for
// "current month" calculations; every rule in a pass sees the same value.
type Rule interface {
	// Type returns the fixed tag used for registry lookups and stamped on
	// the produced insight.
	Type() domain.InsightType

	Generate(transactions []domain.Transaction, now time.Time) *domain.Insight
}

// RuleFunc adapts a plain function into a Rule. Handy for custom rules
// registered through Engine.AddRule.
type RuleFunc struct {
	RuleType domain.InsightType
	Fn       func(transactions []domain.Transaction, now time.Time) *domain.Insight
}

// Type implements Rule.
func (f RuleFunc) Type() domain.InsightType {
	return f.RuleType
}

// Generate implements Rule.
func (f RuleFunc) Generate(transactions []domain.Transaction, now time.Time) *domain.Insight {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(transactions, now)
}

// DefaultRules returns the built-in rules in their registration order.
func DefaultRules() []Rule {
	return []Rule{
		SpendingAnomalyRule{},
		CategoryFrequencyRule{},
		TimePatternRule{},
		BudgetWarningRule{},
	}
}

// NewInsight builds a fully formed insight with a fresh random id.
func NewInsight(typ domain.InsightType, title, description string, severity domain.Severity, metadata map[string]any, now time.Time) *domain.Insight {
	return &domain.Insight{
		ID:          uuid.NewString(),
		Type:        typ,
		Title:       title,
		Description: description,
		Severity:    severity,
		Metadata:    metadata,
		CreatedAt:   now,
	}
}

var (
	_ Rule = SpendingAnomalyRule{}
	_ Rule = CategoryFrequencyRule{}
	_ Rule = TimePatternRule{}
	_ Rule = BudgetWarningRule{}
	_ Rule = RuleFunc{}
)
