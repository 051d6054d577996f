package postgres

import (
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func TestToTransaction(t *testing.T) {
	date := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	food := "food"
	salary := "salary"

	tests := []struct {
		name       string
		typ        string
		amount     string
		wantErr    bool
		wantType   domain.TransactionType
		wantAmount string
		wantCat    bool
	}{
		{name: "expense keeps category", typ: "expense", amount: "12.5000", wantType: domain.TransactionTypeExpense, wantAmount: "12.5", wantCat: true},
		{name: "income drops category", typ: "income", amount: "3000", wantType: domain.TransactionTypeIncome, wantAmount: "3000"},
		{name: "negative amount is normalized", typ: "expense", amount: "-7", wantType: domain.TransactionTypeExpense, wantAmount: "7", wantCat: true},
		{name: "unknown type", typ: "transfer", amount: "1", wantErr: true},
		{name: "bad amount", typ: "expense", amount: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toTransaction("id", tt.typ, tt.amount, &food, &salary, date)
			if (err != nil) != tt.wantErr {
				t.Fatalf("toTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", got.Type, tt.wantType)
			}
			if got.Amount.String() != tt.wantAmount {
				t.Errorf("Amount = %s, want %s", got.Amount, tt.wantAmount)
			}
			if got.HasCategory() != tt.wantCat {
				t.Errorf("HasCategory() = %v, want %v", got.HasCategory(), tt.wantCat)
			}
			if tt.wantType == domain.TransactionTypeIncome && (got.IncomeSourceID == nil || *got.IncomeSourceID != salary) {
				t.Errorf("IncomeSourceID = %v, want salary", got.IncomeSourceID)
			}
		})
	}
}
