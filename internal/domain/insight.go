package domain

import "time"

// InsightType identifies the rule family that produced an insight.
type InsightType string

const (
	InsightSpendingAnomaly   InsightType = "spending_anomaly"
	InsightCategoryFrequency InsightType = "category_frequency"
	InsightTimePattern       InsightType = "time_pattern"
	InsightBudgetWarning     InsightType = "budget_warning"

	// InsightGoalProgress is reserved; no built-in rule emits it.
	InsightGoalProgress InsightType = "goal_progress"
)

// Severity drives display styling only.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Insight is a display-ready observation about spending behaviour.
// It is built once by a rule and treated as read-only afterwards.
type Insight struct {
	ID          string         `json:"id"`
	Type        InsightType    `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
