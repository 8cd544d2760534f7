package invoice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/common/utils"
)

// InvoiceType tells whether the company is owed money or owes it
type InvoiceType string

const (
	// Receivable invoices are billed to customers
	Receivable InvoiceType = "Receivable"
	// Payable invoices are received from vendors
	Payable InvoiceType = "Payable"
)

// ParseInvoiceType resolves a case-insensitive invoice type name
func ParseInvoiceType(s string) (InvoiceType, bool) {
	for _, t := range []InvoiceType{Receivable, Payable} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// Status is the lifecycle state of an invoice
type Status string

const (
	Draft     Status = "Draft"
	Sent      Status = "Sent"
	Paid      Status = "Paid"
	Overdue   Status = "Overdue" // derived at read time, never stored
	Cancelled Status = "Cancelled"
)

// ParseStatus resolves a case-insensitive status name
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{Draft, Sent, Paid, Overdue, Cancelled} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// PaidTolerance is the largest balance an invoice may carry and still be Paid
var PaidTolerance = decimal.RequireFromString("0.01")

// PaymentCompleted is the only payment status this system records
const PaymentCompleted = "Completed"

// Invoice represents a receivable or payable invoice
type Invoice struct {
	InvoiceID      string          `json:"invoiceId"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	InvoiceType    InvoiceType     `json:"invoiceType"`
	CustomerID     string          `json:"customerId,omitempty"`
	VendorID       string          `json:"vendorId,omitempty"`
	ProjectID      string          `json:"projectId,omitempty"`
	InvoiceDate    string          `json:"invoiceDate"` // YYYY-MM-DD
	DueDate        string          `json:"dueDate"`     // YYYY-MM-DD
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Balance        decimal.Decimal `json:"balance"`
	Status         Status          `json:"status"`
	Currency       string          `json:"currency"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Payments       []*Payment      `json:"payments,omitempty"`
}

// IsOverdue reports whether the invoice is past due on asOf with money still open
func (inv *Invoice) IsOverdue(asOf time.Time) bool {
	if inv.Status != Draft && inv.Status != Sent {
		return false
	}
	return inv.Balance.IsPositive() && inv.DueDate < asOf.UTC().Format(utils.DateLayout)
}

// EffectiveStatus is the stored status with Overdue derived for asOf
func (inv *Invoice) EffectiveStatus(asOf time.Time) Status {
	if inv.IsOverdue(asOf) {
		return Overdue
	}
	return inv.Status
}

// DaysPastDue is the number of whole days between the due date and asOf.
// It is negative for invoices not yet due.
func (inv *Invoice) DaysPastDue(asOf time.Time) int {
	due, err := time.Parse(utils.DateLayout, inv.DueDate)
	if err != nil {
		return 0
	}
	return int(utils.StartOfDay(asOf).Sub(due).Hours() / 24)
}

// Payment is money received or paid against one invoice
type Payment struct {
	PaymentID     string          `json:"paymentId"`
	PaymentNumber string          `json:"paymentNumber"`
	InvoiceID     string          `json:"invoiceId"`
	InvoiceType   InvoiceType     `json:"invoiceType"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"paymentMethod"`
	PaymentDate   string          `json:"paymentDate"` // YYYY-MM-DD
	Reference     string          `json:"referenceNumber,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        string          `json:"status"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CreateInvoiceRequest represents the data needed to create an invoice
type CreateInvoiceRequest struct {
	InvoiceNumber  string          `json:"invoiceNumber" validate:"required|maxLen:64"`
	InvoiceType    string          `json:"invoiceType" validate:"required"`
	CustomerID     string          `json:"customerId,omitempty"`
	VendorID       string          `json:"vendorId,omitempty"`
	ProjectID      string          `json:"projectId,omitempty"`
	InvoiceDate    string          `json:"invoiceDate" validate:"required"`
	DueDate        string          `json:"dueDate" validate:"required"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Currency       string          `json:"currency,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Status         string          `json:"status,omitempty"` // Draft (default) or Sent
}

// RecordPaymentRequest represents a payment against an invoice
type RecordPaymentRequest struct {
	PaymentNumber string          `json:"paymentNumber,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"paymentMethod" validate:"required"`
	PaymentDate   string          `json:"paymentDate" validate:"required"`
	Reference     string          `json:"referenceNumber,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Query selects stored invoices. Empty fields do not constrain.
type Query struct {
	InvoiceType InvoiceType
	CustomerID  string
	VendorID    string
	ProjectID   string
	Statuses    []Status // stored statuses
}

// Matches reports whether inv passes the query
func (q Query) Matches(inv *Invoice) bool {
	if q.InvoiceType != "" && inv.InvoiceType != q.InvoiceType {
		return false
	}
	if q.CustomerID != "" && inv.CustomerID != q.CustomerID {
		return false
	}
	if q.VendorID != "" && inv.VendorID != q.VendorID {
		return false
	}
	if q.ProjectID != "" && inv.ProjectID != q.ProjectID {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if inv.Status == s {
			return true
		}
	}
	return false
}

// Filter represents the listing criteria accepted by the service
type Filter struct {
	InvoiceType InvoiceType
	Status      Status // effective status, Overdue included
	CustomerID  string
	VendorID    string
	ProjectID   string
	Page        int
	Limit       int
}

// ListResult is a page of invoices
type ListResult struct {
	Invoices   []*Invoice `json:"invoices"`
	TotalCount int        `json:"totalCount"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}

// Aging bucket labels
const (
	Bucket0To30  = "0-30 days"
	Bucket31To60 = "31-60 days"
	Bucket61To90 = "61-90 days"
	BucketOver90 = "Over 90 days"
)

// AgingBucket aggregates open invoices of one age band
type AgingBucket struct {
	Label        string          `json:"agingBucket"`
	Count        int             `json:"count"`
	TotalBalance decimal.Decimal `json:"totalAmount"`
}

// AgingReport is the open balance of one invoice type by days past due
type AgingReport struct {
	InvoiceType InvoiceType   `json:"invoiceType"`
	AsOf        string        `json:"asOfDate"`
	Buckets     []AgingBucket `json:"buckets"`
}

// agingLabel maps days past due to a bucket. Invoices not yet due fall in the first bucket.
func agingLabel(days int) string {
	switch {
	case days <= 30:
		return Bucket0To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}
