package statement

import (
	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/forecast"
)

// AccountLine is one account's contribution to a statement section
type AccountLine struct {
	AccountID   string              `json:"accountId"`
	Code        string              `json:"accountCode"`
	Name        string              `json:"accountName"`
	AccountType account.AccountType `json:"accountType"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
}

// Section groups account lines with their total
type Section struct {
	Accounts []AccountLine   `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

func (s *Section) add(line AccountLine) {
	s.Accounts = append(s.Accounts, line)
	s.Total = s.Total.Add(line.Amount)
}

func newSection() Section {
	return Section{Accounts: []AccountLine{}, Total: decimal.Zero}
}

// BalanceSheet lists asset, liability and equity balances
type BalanceSheet struct {
	AsOf        string  `json:"asOfDate"`
	Assets      Section `json:"assets"`
	Liabilities Section `json:"liabilities"`
	Equity      Section `json:"equity"`
	Balanced    bool    `json:"balanced"`
}

// Period is an inclusive date range
type Period struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// IncomeStatement is revenue less expenses over a period of posted entries
type IncomeStatement struct {
	Period       Period          `json:"period"`
	Revenue      Section         `json:"revenue"`
	Expenses     Section         `json:"expenses"`
	NetIncome    decimal.Decimal `json:"netIncome"`
	ProfitMargin string          `json:"profitMargin"` // percent, 2 dp
}

// CashFlowStatement is recorded payments by month over a period
type CashFlowStatement struct {
	Period       Period                     `json:"period"`
	Monthly      []forecast.HistoricalMonth `json:"monthlyData"` // oldest first
	TotalInflow  decimal.Decimal            `json:"totalInflow"`
	TotalOutflow decimal.Decimal            `json:"totalOutflow"`
	NetCashFlow  decimal.Decimal            `json:"netCashFlow"`
}
