package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
)

type CreateAccountTool struct {
	accounts *account.Service
}

func NewCreateAccountTool(accounts *account.Service) *CreateAccountTool {
	return &CreateAccountTool{accounts: accounts}
}

func (t *CreateAccountTool) GetName() string { return "create-account" }

func (t *CreateAccountTool) GetDescription() string {
	return "Adds an account to the chart of accounts with a zero balance"
}

func (t *CreateAccountTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"accountCode":     str("Unique account code, e.g. 1000"),
			"accountName":     str("Display name"),
			"accountType":     enum("Account type", "Asset", "Liability", "Equity", "Revenue", "Expense"),
			"parentAccountId": str("Optional top-level parent account id"),
			"currency":        str("ISO 4217 currency code; defaults to the ledger currency"),
			"description":     str("Optional description"),
		},
		Required: []string{"accountCode", "accountName", "accountType"},
	}
}

func (t *CreateAccountTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var req account.CreateAccountRequest
	if err := parseArgs(arguments, &req); err != nil {
		return nil, err
	}

	acc, err := t.accounts.CreateAccount(ctx, &req)
	if err != nil {
		return nil, err
	}
	return jsonResult("Account created successfully", acc)
}

type ListAccountsTool struct {
	accounts *account.Service
}

func NewListAccountsTool(accounts *account.Service) *ListAccountsTool {
	return &ListAccountsTool{accounts: accounts}
}

func (t *ListAccountsTool) GetName() string { return "list-accounts" }

func (t *ListAccountsTool) GetDescription() string {
	return "Lists the chart of accounts with current balances, ordered by code"
}

func (t *ListAccountsTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"accountType": enum("Only accounts of this type", "Asset", "Liability", "Equity", "Revenue", "Expense"),
			"isActive":    map[string]interface{}{"type": "boolean", "description": "Only active or only inactive accounts"},
		},
	}
}

func (t *ListAccountsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		AccountType string `json:"accountType"`
		IsActive    *bool  `json:"isActive"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}

	filter := account.Filter{Active: args.IsActive}
	if args.AccountType != "" {
		typ, ok := account.ParseAccountType(args.AccountType)
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("unknown account type %q", args.AccountType))
		}
		filter.AccountType = typ
	}

	accounts, err := t.accounts.ListAccounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return jsonResult(fmt.Sprintf("%d accounts", len(accounts)), accounts)
}
