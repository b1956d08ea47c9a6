package accounting_test

import (
	"testing"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		accountType domain.AccountType
		txnType     domain.TransactionType
		want        decimal.Decimal
		wantErr     bool
	}{
		{name: "debit to asset is positive", accountType: domain.Asset, txnType: domain.Debit, want: amount},
		{name: "credit to asset is negative", accountType: domain.Asset, txnType: domain.Credit, want: amount.Neg()},
		{name: "debit to expense is positive", accountType: domain.Expense, txnType: domain.Debit, want: amount},
		{name: "credit to expense is negative", accountType: domain.Expense, txnType: domain.Credit, want: amount.Neg()},
		{name: "debit to liability is negative", accountType: domain.Liability, txnType: domain.Debit, want: amount.Neg()},
		{name: "credit to liability is positive", accountType: domain.Liability, txnType: domain.Credit, want: amount},
		{name: "debit to equity is negative", accountType: domain.Equity, txnType: domain.Debit, want: amount.Neg()},
		{name: "credit to equity is positive", accountType: domain.Equity, txnType: domain.Credit, want: amount},
		{name: "debit to revenue is negative", accountType: domain.Revenue, txnType: domain.Debit, want: amount.Neg()},
		{name: "credit to revenue is positive", accountType: domain.Revenue, txnType: domain.Credit, want: amount},
		{name: "unknown account type", accountType: domain.AccountType("BOGUS"), txnType: domain.Debit, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := domain.Transaction{
				AccountID:       "acc-1",
				Amount:          amount,
				TransactionType: tt.txnType,
			}
			got, err := accounting.CalculateSignedAmount(txn, tt.accountType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestValidateEntryBalance(t *testing.T) {
	accountTypes := map[string]domain.AccountType{
		"cash":    domain.Asset,
		"revenue": domain.Revenue,
		"expense": domain.Expense,
	}

	txn := func(account string, txnType domain.TransactionType, amount int64) domain.Transaction {
		return domain.Transaction{
			TransactionID:   account + "-txn",
			AccountID:       account,
			Amount:          decimal.NewFromInt(amount),
			TransactionType: txnType,
		}
	}

	t.Run("balanced entry", func(t *testing.T) {
		txns := []domain.Transaction{
			txn("cash", domain.Debit, 100),
			txn("revenue", domain.Credit, 100),
		}
		assert.NoError(t, accounting.ValidateEntryBalance(txns, accountTypes))
	})

	t.Run("balanced entry with three lines", func(t *testing.T) {
		txns := []domain.Transaction{
			txn("cash", domain.Debit, 70),
			txn("expense", domain.Debit, 30),
			txn("revenue", domain.Credit, 100),
		}
		assert.NoError(t, accounting.ValidateEntryBalance(txns, accountTypes))
	})

	t.Run("unbalanced entry", func(t *testing.T) {
		txns := []domain.Transaction{
			txn("cash", domain.Debit, 100),
			txn("revenue", domain.Credit, 90),
		}
		err := accounting.ValidateEntryBalance(txns, accountTypes)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not balance")
	})

	t.Run("fewer than two lines", func(t *testing.T) {
		txns := []domain.Transaction{
			txn("cash", domain.Debit, 100),
		}
		assert.Error(t, accounting.ValidateEntryBalance(txns, accountTypes))
	})

	t.Run("non-positive amount", func(t *testing.T) {
		txns := []domain.Transaction{
			txn("cash", domain.Debit, 0),
			txn("revenue", domain.Credit, 0),
		}
		err := accounting.ValidateEntryBalance(txns, accountTypes)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("missing account type", func(t *testing.T) {
		txns := []domain.Transaction{
			txn("cash", domain.Debit, 100),
			txn("unknown", domain.Credit, 100),
		}
		err := accounting.ValidateEntryBalance(txns, accountTypes)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "account type not found")
	})
}
