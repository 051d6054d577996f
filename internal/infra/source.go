// Package infra opens the transaction source selected by configuration.
package infra

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/infra/memory"
	"github.com/dvloznov/finance-insights/internal/infra/postgres"
	"github.com/dvloznov/finance-insights/internal/insights"
)

// OpenTransactionSource connects the configured source. The returned close
// function releases its connections and is never nil.
func OpenTransactionSource(ctx context.Context, cfg *config.Config) (insights.TransactionSource, func(), error) {
	noop := func() {}

	switch cfg.TransactionSource {
	case config.SourceMemory, "":
		if cfg.TransactionsFile == "" {
			return memory.NewSource(), noop, nil
		}
		src, err := memory.LoadFile(cfg.TransactionsFile)
		if err != nil {
			return nil, noop, fmt.Errorf("OpenTransactionSource: %w", err)
		}
		return src, noop, nil

	case config.SourceBigQuery:
		src, err := bigquery.NewBigQueryTransactionSource(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			return nil, noop, fmt.Errorf("OpenTransactionSource: %w", err)
		}
		return src, func() { _ = src.Close() }, nil

	case config.SourcePostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, noop, fmt.Errorf("OpenTransactionSource: %w", err)
		}
		return postgres.NewTransactionSource(db), db.Close, nil

	default:
		return nil, noop, fmt.Errorf("OpenTransactionSource: unknown source %q", cfg.TransactionSource)
	}
}
