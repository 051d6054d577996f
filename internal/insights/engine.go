package insights

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/rs/zerolog"
)

// ErrSnapshot wraps failures reading the transaction snapshot.
var ErrSnapshot = errors.New("reading transaction snapshot")

// TransactionSource supplies the complete transaction history for one
// generation pass. Implementations must return a slice the caller may keep.
type TransactionSource interface {
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// Engine owns an ordered registry of rules and evaluates them against a
// fresh transaction snapshot on every call. It keeps no state between calls
// besides the registry itself.
type Engine struct {
	source TransactionSource
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	rules []Rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used to decide the current month.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRules replaces the built-in rule set.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		e.rules = append([]Rule(nil), rules...)
	}
}

// NewEngine creates an engine seeded with DefaultRules.
func NewEngine(source TransactionSource, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		log:    log,
		now:    time.Now,
		rules:  DefaultRules(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRule appends a rule. Duplicate types are allowed and simply run twice.
// Rules added while a generation is in flight take effect on the next call.
func (e *Engine) AddRule(rule Rule) {
	if rule == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rule)
}

// RemoveRule drops every rule with the given type. Unknown types are a no-op.
func (e *Engine) RemoveRule(typ domain.InsightType) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Type() != typ {
			kept = append(kept, r)
		}
	}
	e.rules = kept
}

// RuleTypes lists the registered rule types in registration order.
func (e *Engine) RuleTypes() []domain.InsightType {
	e.mu.RLock()
	defer e.mu.RUnlock()

	types := make([]domain.InsightType, len(e.rules))
	for i, r := range e.rules {
		types[i] = r.Type()
	}
	return types
}

// Generate reads the snapshot and evaluates every rule. It never fails:
// a snapshot error is logged and reported as an empty list.
func (e *Engine) Generate(ctx context.Context) []domain.Insight {
	insights, err := e.Evaluate(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to generate insights")
		return []domain.Insight{}
	}
	return insights
}

// Evaluate is the strict form of Generate. It returns an error wrapping
// ErrSnapshot when the transaction source fails, so callers can tell
// "nothing to report" apart from "could not look".
func (e *Engine) Evaluate(ctx context.Context) ([]domain.Insight, error) {
	if e.source == nil {
		return nil, fmt.Errorf("Evaluate: %w: no transaction source configured", ErrSnapshot)
	}

	transactions, err := e.source.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("Evaluate: %w: %w", ErrSnapshot, err)
	}

	return e.Apply(transactions, e.now()), nil
}

// Apply evaluates the registered rules against an explicit snapshot and
// instant. Output order follows registration order with absent results
// dropped. A rule that panics is logged and skipped.
func (e *Engine) Apply(transactions []domain.Transaction, now time.Time) []domain.Insight {
	e.mu.RLock()
	rules := append([]Rule(nil), e.rules...)
	e.mu.RUnlock()

	insights := make([]domain.Insight, 0, len(rules))
	for _, rule := range rules {
		if insight := e.runRule(rule, transactions, now); insight != nil {
			insights = append(insights, *insight)
		}
	}

	e.log.Debug().
		Int("transactions", len(transactions)).
		Int("rules", len(rules)).
		Int("insights", len(insights)).
		Msg("Insights generated")

	return insights
}

func (e *Engine) runRule(rule Rule, transactions []domain.Transaction, now time.Time) (insight *domain.Insight) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().
				Str("rule", string(rule.Type())).
				Interface("panic", rec).
				Msg("Insight rule failed, skipping")
			insight = nil
		}
	}()
	return rule.Generate(transactions, now)
}
