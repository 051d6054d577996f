package insights

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/rs/zerolog"
)

// mockSource is a TransactionSource driven by a function field.
type mockSource struct {
	ListTransactionsFunc func(ctx context.Context) ([]domain.Transaction, error)
	calls                int
}

func (m *mockSource) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	m.calls++
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx)
	}
	return nil, nil
}

func staticSource(txs []domain.Transaction) *mockSource {
	return &mockSource{
		ListTransactionsFunc: func(ctx context.Context) ([]domain.Transaction, error) {
			return txs, nil
		},
	}
}

func newTestEngine(src TransactionSource, buf *bytes.Buffer, opts ...Option) *Engine {
	log := zerolog.Nop()
	if buf != nil {
		log = zerolog.New(buf)
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewEngine(src, log, opts...)
}

func fixedRule(typ domain.InsightType, title string) Rule {
	return RuleFunc{
		RuleType: typ,
		Fn: func(_ []domain.Transaction, now time.Time) *domain.Insight {
			return NewInsight(typ, title, title, domain.SeverityInfo, nil, now)
		},
	}
}

func titles(insights []domain.Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.Title
	}
	return out
}

// stripVolatile clears the fields that differ between otherwise equal runs.
func stripVolatile(insights []domain.Insight) []domain.Insight {
	out := make([]domain.Insight, len(insights))
	for i, in := range insights {
		in.ID = ""
		in.CreatedAt = time.Time{}
		out[i] = in
	}
	return out
}

func TestEngine_DefaultRuleOrder(t *testing.T) {
	engine := newTestEngine(staticSource(nil), nil)

	want := []domain.InsightType{
		domain.InsightSpendingAnomaly,
		domain.InsightCategoryFrequency,
		domain.InsightTimePattern,
		domain.InsightBudgetWarning,
	}
	if got := engine.RuleTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("RuleTypes() = %v, want %v", got, want)
	}
}

func TestEngine_GenerateEmptyHistory(t *testing.T) {
	src := staticSource(nil)
	engine := newTestEngine(src, nil)

	got := engine.Generate(context.Background())
	if got == nil {
		t.Fatal("Generate() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Generate() returned %d insights, want 0", len(got))
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
}

func TestEngine_SnapshotFailure(t *testing.T) {
	boom := errors.New("connection refused")
	src := &mockSource{
		ListTransactionsFunc: func(ctx context.Context) ([]domain.Transaction, error) {
			return nil, boom
		},
	}
	buf := &bytes.Buffer{}
	engine := newTestEngine(src, buf)

	got := engine.Generate(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("Generate() = %v, want empty slice", got)
	}
	if !strings.Contains(buf.String(), "connection refused") {
		t.Errorf("expected failure to be logged, got: %s", buf.String())
	}

	_, err := engine.Evaluate(context.Background())
	if !errors.Is(err, ErrSnapshot) {
		t.Errorf("Evaluate() error = %v, want ErrSnapshot", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Evaluate() error = %v, want wrapped source error", err)
	}
}

func TestEngine_NilSource(t *testing.T) {
	engine := newTestEngine(nil, nil)

	if got := engine.Generate(context.Background()); len(got) != 0 {
		t.Errorf("Generate() = %v, want empty", got)
	}
	if _, err := engine.Evaluate(context.Background()); !errors.Is(err, ErrSnapshot) {
		t.Errorf("Evaluate() error = %v, want ErrSnapshot", err)
	}
}

func TestEngine_OutputFollowsRegistrationOrder(t *testing.T) {
	// Frequency and budget both fire; anomaly and time pattern stay silent.
	var txs []domain.Transaction
	txs = append(txs, income("1000", day(2024, time.June, 3)))
	txs = append(txs, repeat(5, categorized("20", day(2024, time.June, 4), "food"))...)

	engine := newTestEngine(staticSource(txs), nil)
	got := engine.Generate(context.Background())

	want := []string{"Top Spending Category", "Great Savings Rate"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("titles = %v, want %v", titles(got), want)
	}

	// Re-registering frequency at the end moves its output to the end.
	engine.RemoveRule(domain.InsightCategoryFrequency)
	engine.AddRule(CategoryFrequencyRule{})
	got = engine.Generate(context.Background())

	want = []string{"Great Savings Rate", "Top Spending Category"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Errorf("titles after re-register = %v, want %v", titles(got), want)
	}
}

func TestEngine_AddAndRemoveRules(t *testing.T) {
	engine := newTestEngine(staticSource(nil), nil, WithRules())

	engine.AddRule(fixedRule("custom", "first"))
	engine.AddRule(fixedRule("other", "second"))
	engine.AddRule(fixedRule("custom", "third"))
	engine.AddRule(nil)

	got := engine.Generate(context.Background())
	if want := []string{"first", "second", "third"}; !reflect.DeepEqual(titles(got), want) {
		t.Fatalf("titles = %v, want %v", titles(got), want)
	}

	engine.RemoveRule("custom")
	if want := []domain.InsightType{"other"}; !reflect.DeepEqual(engine.RuleTypes(), want) {
		t.Errorf("RuleTypes() = %v, want %v", engine.RuleTypes(), want)
	}

	engine.RemoveRule("missing")
	if len(engine.RuleTypes()) != 1 {
		t.Errorf("removing an unknown type changed the registry: %v", engine.RuleTypes())
	}
}

func TestEngine_RulePanicIsIsolated(t *testing.T) {
	buf := &bytes.Buffer{}
	engine := newTestEngine(staticSource(nil), buf, WithRules(
		fixedRule("before", "before"),
		RuleFunc{
			RuleType: "broken",
			Fn: func([]domain.Transaction, time.Time) *domain.Insight {
				panic("malformed date")
			},
		},
		fixedRule("after", "after"),
	))

	got := engine.Generate(context.Background())
	if want := []string{"before", "after"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("titles = %v, want %v", titles(got), want)
	}
	if !strings.Contains(buf.String(), `"rule":"broken"`) {
		t.Errorf("expected rule failure to be logged, got: %s", buf.String())
	}
}

func TestEngine_Idempotent(t *testing.T) {
	txs := monthlyExpenses(
		[]string{"62.5", "62.5", "62.5", "62.5", "62.5", "62.5", "62.5", "62.5"},
		[]string{"175", "175", "175", "175"},
	)
	txs = append(txs, income("800", day(2024, time.June, 1)))
	engine := newTestEngine(staticSource(txs), nil)

	first := engine.Generate(context.Background())
	second := engine.Generate(context.Background())

	if len(first) == 0 {
		t.Fatal("expected insights")
	}
	if !reflect.DeepEqual(stripVolatile(first), stripVolatile(second)) {
		t.Errorf("second run differs:\n first=%+v\nsecond=%+v", first, second)
	}
	for i := range first {
		if first[i].ID == second[i].ID {
			t.Errorf("insight %d reused id %s across runs", i, first[i].ID)
		}
	}
}

func TestEngine_IDsUniqueWithinBatch(t *testing.T) {
	engine := newTestEngine(staticSource(nil), nil, WithRules(
		fixedRule("dup", "a"), fixedRule("dup", "b"), fixedRule("dup", "c"),
	))

	seen := make(map[string]bool)
	for _, in := range engine.Generate(context.Background()) {
		if seen[in.ID] {
			t.Errorf("duplicate id %s", in.ID)
		}
		seen[in.ID] = true
	}
	if len(seen) != 3 {
		t.Errorf("got %d insights, want 3", len(seen))
	}
}

func TestEngine_ScenarioA(t *testing.T) {
	txs := monthlyExpenses(
		[]string{"62.5", "62.5", "62.5", "62.5", "62.5", "62.5", "62.5", "62.5"},
		[]string{"175", "175", "175", "175"},
	)
	engine := newTestEngine(staticSource(txs), nil)

	got := engine.Generate(context.Background())
	if len(got) != 1 {
		t.Fatalf("got %d insights (%v), want 1", len(got), titles(got))
	}
	if got[0].Type != domain.InsightSpendingAnomaly || got[0].Severity != domain.SeverityWarning {
		t.Errorf("got %s/%s, want spending_anomaly/warning", got[0].Type, got[0].Severity)
	}
}
