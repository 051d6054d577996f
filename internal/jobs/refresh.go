package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/rs/zerolog"
)

// Evaluator runs a strict generation pass. *insights.Engine satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context) ([]domain.Insight, error)
}

// InsightSink receives the list a successful refresh produced.
type InsightSink interface {
	Replace(list []domain.Insight)
}

// NewRefreshHandler returns a JobHandler that evaluates the engine and
// replaces the sink's list. Snapshot failures are returned so the queue retries;
// the sink keeps its previous list until an attempt succeeds.
func NewRefreshHandler(eval Evaluator, sink InsightSink, log zerolog.Logger) JobHandler {
	return func(ctx context.Context, job Job) error {
		refresh, ok := job.(*RefreshInsightsJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", refresh.JobID).
			Str("reason", refresh.Reason).
			Msg("Processing refresh job")

		list, err := eval.Evaluate(ctx)
		if err != nil {
			return fmt.Errorf("refresh job %s: %w", refresh.JobID, err)
		}

		sink.Replace(list)
		refresh.InsightCount = len(list)
		return nil
	}
}
