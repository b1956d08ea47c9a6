package dto

import (
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	"github.com/shopspring/decimal"
)

// reportDate is the wire format for report boundary dates.
const reportDate = "2006-01-02"

// TrialBalanceRowResponse is one account row of a trial balance.
type TrialBalanceRowResponse struct {
	AccountID   string          `json:"accountID"`
	AccountName string          `json:"accountName"`
	AccountType string          `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceResponse carries the full trial balance plus column totals.
// The totals match whenever the underlying entries are balanced.
type TrialBalanceResponse struct {
	AsOf   string                    `json:"asOf"`
	Rows   []TrialBalanceRowResponse `json:"rows"`
	Totals struct {
		Debit  decimal.Decimal `json:"debit"`
		Credit decimal.Decimal `json:"credit"`
	} `json:"totals"`
}

// AccountAmountResponse is one account line inside a report section.
type AccountAmountResponse struct {
	AccountID string          `json:"accountID"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// ProfitAndLossResponse is the profit and loss report over a period.
type ProfitAndLossResponse struct {
	FromDate string                  `json:"fromDate"`
	ToDate   string                  `json:"toDate"`
	Revenue  []AccountAmountResponse `json:"revenue"`
	Expenses []AccountAmountResponse `json:"expenses"`
	Summary  struct {
		TotalRevenue  decimal.Decimal `json:"totalRevenue"`
		TotalExpenses decimal.Decimal `json:"totalExpenses"`
		NetProfit     decimal.Decimal `json:"netProfit"`
	} `json:"summary"`
}

// BalanceSheetResponse is the balance sheet as of a cutoff date.
type BalanceSheetResponse struct {
	AsOf        string                  `json:"asOf"`
	Assets      []AccountAmountResponse `json:"assets"`
	Liabilities []AccountAmountResponse `json:"liabilities"`
	Equity      []AccountAmountResponse `json:"equity"`
	Summary     struct {
		TotalAssets      decimal.Decimal `json:"totalAssets"`
		TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
		TotalEquity      decimal.Decimal `json:"totalEquity"`
	} `json:"summary"`
}

// toAccountAmountResponses converts a report section and returns its total
// alongside.
func toAccountAmountResponses(amounts []domain.AccountAmount) ([]AccountAmountResponse, decimal.Decimal) {
	out := make([]AccountAmountResponse, len(amounts))
	total := decimal.Zero
	for i, a := range amounts {
		out[i] = AccountAmountResponse{
			AccountID: a.AccountID,
			Name:      a.Name,
			Amount:    a.NetAmount,
		}
		total = total.Add(a.NetAmount)
	}
	return out, total
}

// ToTrialBalanceResponse converts domain trial balance rows to the response
// shape, accumulating the column totals.
func ToTrialBalanceResponse(rows []domain.TrialBalanceRow, asOf time.Time) TrialBalanceResponse {
	response := TrialBalanceResponse{
		AsOf: asOf.Format(reportDate),
		Rows: make([]TrialBalanceRowResponse, len(rows)),
	}
	for i, row := range rows {
		response.Rows[i] = TrialBalanceRowResponse{
			AccountID:   row.AccountID,
			AccountName: row.AccountName,
			AccountType: string(row.AccountType),
			Debit:       row.Debit,
			Credit:      row.Credit,
		}
		response.Totals.Debit = response.Totals.Debit.Add(row.Debit)
		response.Totals.Credit = response.Totals.Credit.Add(row.Credit)
	}
	return response
}

// ToProfitAndLossResponse converts a domain P&L report to the response shape.
func ToProfitAndLossResponse(report *domain.PAndLReport, from, to time.Time) ProfitAndLossResponse {
	response := ProfitAndLossResponse{
		FromDate: from.Format(reportDate),
		ToDate:   to.Format(reportDate),
	}
	response.Revenue, response.Summary.TotalRevenue = toAccountAmountResponses(report.Revenue)
	response.Expenses, response.Summary.TotalExpenses = toAccountAmountResponses(report.Expenses)
	response.Summary.NetProfit = report.NetProfit
	return response
}

// ToBalanceSheetResponse converts a domain balance sheet to the response
// shape. Section totals come from the report itself, which already folded
// retained earnings into equity.
func ToBalanceSheetResponse(report *domain.BalanceSheetReport, asOf time.Time) BalanceSheetResponse {
	response := BalanceSheetResponse{
		AsOf: asOf.Format(reportDate),
	}
	response.Assets, _ = toAccountAmountResponses(report.Assets)
	response.Liabilities, _ = toAccountAmountResponses(report.Liabilities)
	response.Equity, _ = toAccountAmountResponses(report.Equity)
	response.Summary.TotalAssets = report.TotalAssets
	response.Summary.TotalLiabilities = report.TotalLiabilities
	response.Summary.TotalEquity = report.TotalEquity
	return response
}
