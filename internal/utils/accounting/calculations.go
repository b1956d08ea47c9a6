package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
)

// debitIncreases reports whether a debit grows the balance of the given
// account type. Assets and expenses carry a natural debit balance, the other
// three types a natural credit balance.
func debitIncreases(accountType domain.AccountType) (bool, error) {
	switch accountType {
	case domain.Asset, domain.Expense:
		return true, nil
	case domain.Liability, domain.Equity, domain.Revenue:
		return false, nil
	default:
		return false, fmt.Errorf("unknown account type %q", accountType)
	}
}

// CalculateSignedAmount converts a stored positive amount into the signed
// contribution the line makes to its account's balance. A debit against a
// natural-debit account stays positive, everything else flips sign
// accordingly.
func CalculateSignedAmount(txn domain.Transaction, accountType domain.AccountType) (decimal.Decimal, error) {
	debitGrows, err := debitIncreases(accountType)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account %s: %w", txn.AccountID, err)
	}

	if (txn.TransactionType == domain.Debit) == debitGrows {
		return txn.Amount, nil
	}
	return txn.Amount.Neg(), nil
}

// ValidateEntryBalance checks the double-entry rule for a journal entry: at
// least two lines, every amount positive, every line against a known account,
// and the sum of debits equal to the sum of credits.
func ValidateEntryBalance(transactions []domain.Transaction, accountTypes map[string]domain.AccountType) error {
	if len(transactions) < 2 {
		return fmt.Errorf("journal entry must have at least two transaction lines")
	}

	var debits, credits decimal.Decimal
	for _, txn := range transactions {
		if txn.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("transaction amount must be positive for transaction ID %s", txn.TransactionID)
		}
		if _, ok := accountTypes[txn.AccountID]; !ok {
			return fmt.Errorf("account type not found for account ID %s", txn.AccountID)
		}
		if txn.TransactionType == domain.Debit {
			debits = debits.Add(txn.Amount)
		} else {
			credits = credits.Add(txn.Amount)
		}
	}

	if !debits.Equal(credits) {
		return fmt.Errorf("journal entry does not balance: debits sum to %s, credits sum to %s", debits.String(), credits.String())
	}
	return nil
}
