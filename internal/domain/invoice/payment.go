package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/domain/errors"
)

// ApplyPayment moves amount from the open balance to the paid amount. The
// whole payment is rejected when it exceeds the balance; nothing is clamped.
// Every store calls this inside its per-invoice atomic unit.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if inv.Status == Cancelled {
		return errors.NewConflictError("cannot record a payment against a cancelled invoice")
	}
	if amount.GreaterThan(inv.Balance) {
		return errors.NewOverpaymentError(amount.StringFixed(2), inv.Balance.StringFixed(2))
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.Balance = inv.Balance.Sub(amount)
	if inv.Balance.LessThanOrEqual(PaidTolerance) {
		inv.Status = Paid
	}
	inv.UpdatedAt = at
	return nil
}

// transitions lists the status changes a caller may request. Paid comes only
// from payments and Overdue is never stored.
var transitions = map[Status][]Status{
	Draft: {Sent, Cancelled},
	Sent:  {Cancelled},
}

// CanTransition reports whether a manual change from one stored status to another is allowed
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
