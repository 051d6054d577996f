package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// Source is an in-memory transaction source. It is safe for concurrent use
// and is what the CLI and tests run against when no database is configured.
type Source struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
	err          error
}

// NewSource creates a source holding the given transactions.
func NewSource(transactions ...domain.Transaction) *Source {
	return &Source{transactions: append([]domain.Transaction(nil), transactions...)}
}

// ListTransactions returns a copy of every stored transaction, newest first.
func (s *Source) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}

	out := append([]domain.Transaction(nil), s.transactions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Add appends transactions.
func (s *Source) Add(transactions ...domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, transactions...)
}

// Replace swaps the stored history wholesale.
func (s *Source) Replace(transactions []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]domain.Transaction(nil), transactions...)
}

// FailWith makes subsequent reads return err. Pass nil to recover.
func (s *Source) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// record is the JSON shape accepted by LoadFile.
type record struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	CategoryID     *string         `json:"category_id,omitempty"`
	IncomeSourceID *string         `json:"income_source_id,omitempty"`
	Date           string          `json:"date"`
}

// LoadFile reads a JSON array of transactions into a new Source.
// Dates may be YYYY-MM-DD or RFC3339.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: reading %q: %w", path, err)
	}

	txs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: %q: %w", path, err)
	}
	return NewSource(txs...), nil
}

// Decode parses a JSON array of transaction records.
func Decode(data []byte) ([]domain.Transaction, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(records))
	for i, r := range records {
		typ, ok := domain.ParseTransactionType(r.Type)
		if !ok {
			return nil, fmt.Errorf("record %d: invalid type %q", i, r.Type)
		}
		if r.Amount.IsNegative() {
			return nil, fmt.Errorf("record %d: negative amount %s", i, r.Amount)
		}
		date, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		tx := domain.Transaction{
			ID:     r.ID,
			Type:   typ,
			Amount: r.Amount,
			Date:   date,
		}
		// Category references only apply to expenses, income sources only to income.
		if typ == domain.TransactionTypeExpense {
			tx.CategoryID = r.CategoryID
		} else {
			tx.IncomeSourceID = r.IncomeSourceID
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
