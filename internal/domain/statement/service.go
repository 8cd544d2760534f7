package statement

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/forecast"
	"github.com/hirosato/construction-erp/internal/domain/journal"
)

// AccountLister lists the chart of accounts
type AccountLister interface {
	ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error)
}

// EntryLister lists journal entries with their lines
type EntryLister interface {
	ListJournalEntries(ctx context.Context, filter journal.Filter) (*journal.ListResult, error)
}

var balanceTolerance = decimal.RequireFromString("0.01")

// Service produces financial statements from ledger and payment data
type Service struct {
	accounts AccountLister
	entries  EntryLister
	cashFlow forecast.HistorySource
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new statement service
func NewService(accounts AccountLister, entries EntryLister, cashFlow forecast.HistorySource, logger *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		entries:  entries,
		cashFlow: cashFlow,
		logger:   logger.Named("statement"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BalanceSheet reports the running balances of active balance sheet accounts.
// Balances are not historised, so asOf only labels the report.
func (s *Service) BalanceSheet(ctx context.Context, asOf string) (*BalanceSheet, error) {
	if asOf == "" {
		asOf = s.now().Format(utils.DateLayout)
	}
	if _, err := utils.ParseISODate(asOf, "as of date"); err != nil {
		return nil, err
	}

	active := true
	accounts, err := s.accounts.ListAccounts(ctx, account.Filter{Active: &active})
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{
		AsOf:        asOf,
		Assets:      newSection(),
		Liabilities: newSection(),
		Equity:      newSection(),
	}
	for _, acc := range accounts {
		line := lineOf(acc, acc.Balance)
		switch acc.AccountType {
		case account.Asset:
			sheet.Assets.add(line)
		case account.Liability:
			sheet.Liabilities.add(line)
		case account.Equity:
			sheet.Equity.add(line)
		}
	}

	diff := sheet.Assets.Total.Sub(sheet.Liabilities.Total.Add(sheet.Equity.Total))
	sheet.Balanced = diff.Abs().LessThan(balanceTolerance)
	if !sheet.Balanced {
		s.logger.Warn("balance sheet does not balance", zap.String("difference", diff.String()))
	}
	return sheet, nil
}

// IncomeStatement sums posted revenue and expense lines dated within [from, to].
// Empty bounds default to the start of the current year and today.
func (s *Service) IncomeStatement(ctx context.Context, from, to string) (*IncomeStatement, error) {
	period, err := s.period(from, to)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListAccounts(ctx, account.Filter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*account.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.AccountID] = acc
	}

	result, err := s.entries.ListJournalEntries(ctx, journal.Filter{
		Status:   journal.Posted,
		FromDate: period.StartDate,
		ToDate:   period.EndDate,
	})
	if err != nil {
		return nil, err
	}

	amounts := make(map[string]decimal.Decimal)
	for _, entry := range result.JournalEntries {
		for _, line := range entry.Lines {
			acc, ok := byID[line.AccountID]
			if !ok || (acc.AccountType != account.Revenue && acc.AccountType != account.Expense) {
				continue
			}
			delta, _ := account.BalanceDelta(acc.AccountType, line.Debit, line.Credit)
			amounts[acc.AccountID] = amounts[acc.AccountID].Add(delta)
		}
	}

	ids := make([]string, 0, len(amounts))
	for id := range amounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return byID[ids[i]].Code < byID[ids[j]].Code })

	stmt := &IncomeStatement{
		Period:   period,
		Revenue:  newSection(),
		Expenses: newSection(),
	}
	for _, id := range ids {
		acc := byID[id]
		line := lineOf(acc, amounts[id])
		if acc.AccountType == account.Revenue {
			stmt.Revenue.add(line)
		} else {
			stmt.Expenses.add(line)
		}
	}

	stmt.NetIncome = stmt.Revenue.Total.Sub(stmt.Expenses.Total)
	stmt.ProfitMargin = "0"
	if stmt.Revenue.Total.IsPositive() {
		stmt.ProfitMargin = stmt.NetIncome.Div(stmt.Revenue.Total).Mul(decimal.NewFromInt(100)).StringFixed(2)
	}
	return stmt, nil
}

// CashFlowStatement reports recorded payments by month within [from, to]
func (s *Service) CashFlowStatement(ctx context.Context, from, to string) (*CashFlowStatement, error) {
	period, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	start, _ := time.Parse(utils.DateLayout, period.StartDate)
	end, _ := time.Parse(utils.DateLayout, period.EndDate)

	months, err := s.cashFlow.MonthlyCashFlow(ctx, start, end)
	if err != nil {
		return nil, err
	}

	stmt := &CashFlowStatement{
		Period:       period,
		Monthly:      make([]forecast.HistoricalMonth, 0, len(months)),
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
	}
	for i := len(months) - 1; i >= 0; i-- {
		m := months[i]
		stmt.Monthly = append(stmt.Monthly, m)
		stmt.TotalInflow = stmt.TotalInflow.Add(m.Inflow)
		stmt.TotalOutflow = stmt.TotalOutflow.Add(m.Outflow)
	}
	stmt.NetCashFlow = stmt.TotalInflow.Sub(stmt.TotalOutflow)
	return stmt, nil
}

func (s *Service) period(from, to string) (Period, error) {
	now := s.now()
	if from == "" {
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Format(utils.DateLayout)
	}
	if to == "" {
		to = now.Format(utils.DateLayout)
	}
	start, err := utils.ParseISODate(from, "start date")
	if err != nil {
		return Period{}, err
	}
	end, err := utils.ParseISODate(to, "end date")
	if err != nil {
		return Period{}, err
	}
	if end.Before(start) {
		return Period{}, errors.NewValidationError("end date must not be before the start date")
	}
	return Period{StartDate: from, EndDate: to}, nil
}

func lineOf(acc *account.Account, amount decimal.Decimal) AccountLine {
	return AccountLine{
		AccountID:   acc.AccountID,
		Code:        acc.Code,
		Name:        acc.Name,
		AccountType: acc.AccountType,
		Amount:      amount,
		Currency:    acc.Currency,
	}
}
