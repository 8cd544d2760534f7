package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/construction-erp/internal/domain/mcp"
	"github.com/hirosato/construction-erp/internal/domain/statement"
)

type BalanceSheetTool struct {
	statements *statement.Service
}

func NewBalanceSheetTool(statements *statement.Service) *BalanceSheetTool {
	return &BalanceSheetTool{statements: statements}
}

func (t *BalanceSheetTool) GetName() string { return "balance-sheet" }

func (t *BalanceSheetTool) GetDescription() string {
	return "Reports assets, liabilities and equity from current account balances and whether they balance"
}

func (t *BalanceSheetTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type:       "object",
		Properties: map[string]interface{}{"asOfDate": date("Report date label; defaults to today")},
	}
}

func (t *BalanceSheetTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		AsOfDate string `json:"asOfDate"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}

	sheet, err := t.statements.BalanceSheet(ctx, args.AsOfDate)
	if err != nil {
		return nil, err
	}
	return jsonResult("Balance sheet as of "+sheet.AsOf, sheet)
}

type IncomeStatementTool struct {
	statements *statement.Service
}

func NewIncomeStatementTool(statements *statement.Service) *IncomeStatementTool {
	return &IncomeStatementTool{statements: statements}
}

func (t *IncomeStatementTool) GetName() string { return "income-statement" }

func (t *IncomeStatementTool) GetDescription() string {
	return "Sums posted revenue and expense lines over a period and reports net income and profit margin"
}

func (t *IncomeStatementTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"startDate": date("Period start; defaults to January 1st of this year"),
			"endDate":   date("Period end; defaults to today"),
		},
	}
}

func (t *IncomeStatementTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}

	stmt, err := t.statements.IncomeStatement(ctx, args.StartDate, args.EndDate)
	if err != nil {
		return nil, err
	}
	return jsonResult("Income statement", stmt)
}
