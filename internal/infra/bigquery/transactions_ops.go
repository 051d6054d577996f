package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const transactionsTable = "transactions"

// ListTransactionRowsWithClient reads the full transaction history, newest first,
// using the provided BigQuery client. Only rows from successful parsing runs
// are returned so superseded re-parses do not double count.
func ListTransactionRowsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.transaction_date,
			t.amount,
			t.direction,
			t.category_id
		FROM `+"`%s.%s.%s`"+` t
		INNER JOIN `+"`%s.%s.parsing_runs`"+` pr
		  ON t.parsing_run_id = pr.parsing_run_id
		WHERE pr.status = 'SUCCESS'
		ORDER BY t.transaction_date DESC, t.created_ts DESC
	`, projectID, datasetID, transactionsTable, projectID, datasetID))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionRows: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionRows: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
