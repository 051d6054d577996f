package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, databaseURI string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.Pool.Close()
}

// TransactionSource reads the transactions table of the local app database:
//
//	transactions(id text, type text, amount numeric, category_id text null,
//	             income_source_id text null, transaction_date date)
type TransactionSource struct {
	db *DB
}

func NewTransactionSource(db *DB) *TransactionSource {
	return &TransactionSource{db: db}
}

// ListTransactions implements insights.TransactionSource.
func (s *TransactionSource) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, type, amount::text, category_id, income_source_id, transaction_date
		 FROM transactions
		 ORDER BY transaction_date DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			id, typ, amount string
			categoryID      *string
			incomeSourceID  *string
			transactionDate time.Time
		)
		if err := rows.Scan(&id, &typ, &amount, &categoryID, &incomeSourceID, &transactionDate); err != nil {
			return nil, fmt.Errorf("ListTransactions: scan: %w", err)
		}
		tx, err := toTransaction(id, typ, amount, categoryID, incomeSourceID, transactionDate)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTransactions: rows: %w", err)
	}
	return txs, nil
}

func toTransaction(id, typ, amount string, categoryID, incomeSourceID *string, date time.Time) (domain.Transaction, error) {
	txType, ok := domain.ParseTransactionType(typ)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("transaction %s: invalid type %q", id, typ)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: invalid amount %q: %w", id, amount, err)
	}

	tx := domain.Transaction{
		ID:     id,
		Type:   txType,
		Amount: value.Abs(),
		Date:   date,
	}
	if txType == domain.TransactionTypeExpense {
		tx.CategoryID = categoryID
	} else {
		tx.IncomeSourceID = incomeSourceID
	}
	return tx, nil
}

var _ insights.TransactionSource = (*TransactionSource)(nil)
