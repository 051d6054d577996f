package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
)

// DefaultDatasetID is the dataset the finance tracker ingests statements into.
const DefaultDatasetID = "finance"

// BigQueryTransactionSource is the TransactionSource backed by BigQuery.
// It holds a shared client to avoid creating a new connection per generation.
type BigQueryTransactionSource struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryTransactionSource creates a source reading projectID.datasetID.
func NewBigQueryTransactionSource(ctx context.Context, projectID, datasetID string) (*BigQueryTransactionSource, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewBigQueryTransactionSource: project ID is required")
	}
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTransactionSource: creating client: %w", err)
	}
	return &BigQueryTransactionSource{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (s *BigQueryTransactionSource) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ListTransactions implements insights.TransactionSource.
func (s *BigQueryTransactionSource) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := ListTransactionRowsWithClient(ctx, s.client, s.projectID, s.datasetID)
	if err != nil {
		return nil, err
	}
	return RowsToDomain(rows)
}

// RowsToDomain maps rows in order, failing on the first malformed row.
func RowsToDomain(rows []*TransactionRow) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := r.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("RowsToDomain: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

var _ insights.TransactionSource = (*BigQueryTransactionSource)(nil)
