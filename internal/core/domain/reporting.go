package domain

import (
	"github.com/shopspring/decimal"
)

// Report rows are computed at query time from transactions joined through
// posted journal entries in posted ledgers. Nothing here is persisted.

// TrialBalanceRow is one account's total debits and credits up to the report
// cutoff. Over a full trial balance the two columns sum to the same value.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// AccountAmount is one account's signed net amount inside a report section.
// The sign follows the account type's natural balance, so a healthy revenue
// account reads positive.
type AccountAmount struct {
	AccountID string          `json:"accountID"`
	Name      string          `json:"name"`
	NetAmount decimal.Decimal `json:"netAmount"`
}

// PAndLReport nets revenue against expenses over a reporting period.
type PAndLReport struct {
	Revenue   []AccountAmount `json:"revenue"`
	Expenses  []AccountAmount `json:"expenses"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

// BalanceSheetReport holds the three balance sheet sections as of a cutoff
// date. Equity includes a synthetic retained earnings line so that total
// assets equal total liabilities plus total equity.
type BalanceSheetReport struct {
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
}
