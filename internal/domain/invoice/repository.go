package invoice

import (
	"context"
	"time"
)

// Repository defines the interface for invoice and payment data operations
type Repository interface {
	// CreateInvoice stores a new invoice. Fails with DUPLICATE_CODE when the number is taken.
	CreateInvoice(ctx context.Context, inv *Invoice) error

	// GetInvoice returns the stored invoice without payments, or NOT_FOUND
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)

	// ListInvoices returns stored invoices matching q, newest invoice date first
	ListInvoices(ctx context.Context, q Query) ([]*Invoice, error)

	// UpdateInvoiceStatus moves the stored status from one value to another.
	// Fails with CONFLICT when the stored status is no longer from.
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, from, to Status, at time.Time) error

	// RecordPayment persists p and applies it to its invoice in one atomic
	// unit, serialized per invoice. It returns the updated invoice. Fails with
	// NOT_FOUND, OVERPAYMENT_REJECTED, CONFLICT for a cancelled invoice and
	// DUPLICATE_CODE for a taken payment number; on failure nothing changes.
	RecordPayment(ctx context.Context, p *Payment, at time.Time) (*Invoice, error)

	// ListPayments returns the payments of one invoice, newest payment date first
	ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error)

	// ListPaymentsBetween returns payments dated within [from, to], both YYYY-MM-DD
	ListPaymentsBetween(ctx context.Context, from, to string) ([]*Payment, error)
}

// ProjectChecker verifies that an invoice's project link points at a real project
type ProjectChecker interface {
	CheckProject(ctx context.Context, projectID string) error
}
