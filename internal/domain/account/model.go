package account

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the type of an account
type AccountType string

const (
	// Asset represents an asset account
	Asset AccountType = "Asset"
	// Liability represents a liability account
	Liability AccountType = "Liability"
	// Equity represents an equity account
	Equity AccountType = "Equity"
	// Revenue represents a revenue account
	Revenue AccountType = "Revenue"
	// Expense represents an expense account
	Expense AccountType = "Expense"
)

// AccountTypes lists every account type in chart-of-accounts order
var AccountTypes = []AccountType{Asset, Liability, Equity, Revenue, Expense}

// ParseAccountType resolves a case-insensitive account type name
func ParseAccountType(s string) (AccountType, bool) {
	for _, t := range AccountTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// Account represents an account in the chart of accounts
type Account struct {
	AccountID   string          `json:"accountId"`
	Code        string          `json:"accountCode"`
	Name        string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	ParentID    string          `json:"parentAccountId,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
	IsActive    bool            `json:"isActive"`
	Description string          `json:"description,omitempty"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateAccountRequest represents the request to create a new account
type CreateAccountRequest struct {
	Code        string `json:"accountCode" validate:"required|maxLen:64"`
	Name        string `json:"accountName" validate:"required|maxLen:200"`
	AccountType string `json:"accountType" validate:"required"`
	ParentID    string `json:"parentAccountId,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateAccountRequest carries the descriptive fields an account may change.
// Nil fields are left untouched.
type UpdateAccountRequest struct {
	Name        *string `json:"accountName,omitempty"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parentAccountId,omitempty"`
}

// Filter narrows account listings
type Filter struct {
	AccountType AccountType
	Active      *bool
}

// Matches reports whether acc passes the filter
func (f Filter) Matches(acc *Account) bool {
	if f.AccountType != "" && acc.AccountType != f.AccountType {
		return false
	}
	if f.Active != nil && acc.IsActive != *f.Active {
		return false
	}
	return true
}
