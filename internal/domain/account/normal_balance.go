package account

import "github.com/shopspring/decimal"

// Side is the side of a journal line that increases an account
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// normalBalance is the posting rule table. Every account type must appear here.
var normalBalance = map[AccountType]Side{
	Asset:     Debit,
	Expense:   Debit,
	Liability: Credit,
	Equity:    Credit,
	Revenue:   Credit,
}

// NormalBalance returns the side that increases accounts of type t
func NormalBalance(t AccountType) (Side, bool) {
	side, ok := normalBalance[t]
	return side, ok
}

// BalanceDelta is the signed change a line with the given debit and credit
// makes to the running balance of an account of type t.
func BalanceDelta(t AccountType, debit, credit decimal.Decimal) (decimal.Decimal, bool) {
	side, ok := normalBalance[t]
	if !ok {
		return decimal.Zero, false
	}
	if side == Debit {
		return debit.Sub(credit), true
	}
	return credit.Sub(debit), true
}
