package invoice

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/event"
	"github.com/hirosato/construction-erp/internal/domain/forecast"
	"github.com/hirosato/construction-erp/pkg/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service reconciles invoices with the payments recorded against them
type Service struct {
	repo            Repository
	projects        ProjectChecker
	events          event.Publisher
	logger          *zap.Logger
	validator       validator.Validator
	defaultCurrency string
	now             func() time.Time
}

// NewService creates a new invoice service. projects may be nil, in which
// case project links are not checked.
func NewService(repo Repository, projects ProjectChecker, events event.Publisher, logger *zap.Logger, defaultCurrency string) *Service {
	return &Service{
		repo:            repo,
		projects:        projects,
		events:          events,
		logger:          logger.Named("invoice"),
		validator:       validator.New(),
		defaultCurrency: defaultCurrency,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvoice validates and stores a new invoice with its full total open
func (s *Service) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := utils.ValidateCode(req.InvoiceNumber, "invoice number"); err != nil {
		return nil, err
	}

	invoiceType, ok := ParseInvoiceType(req.InvoiceType)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown invoice type %q", req.InvoiceType))
	}
	switch {
	case invoiceType == Receivable && req.CustomerID == "":
		return nil, errors.NewValidationError("customer is required for receivable invoice")
	case invoiceType == Payable && req.VendorID == "":
		return nil, errors.NewValidationError("vendor is required for payable invoice")
	}

	invoiceDate, err := utils.ParseISODate(req.InvoiceDate, "invoice date")
	if err != nil {
		return nil, err
	}
	dueDate, err := utils.ParseISODate(req.DueDate, "due date")
	if err != nil {
		return nil, err
	}
	if dueDate.Before(invoiceDate) {
		return nil, errors.NewValidationError("due date must not be before the invoice date")
	}

	amounts := []struct {
		field  string
		amount decimal.Decimal
	}{
		{"subtotal", req.Subtotal},
		{"tax amount", req.TaxAmount},
		{"discount amount", req.DiscountAmount},
	}
	for _, a := range amounts {
		if err := utils.ValidateNonNegative(a.amount, a.field); err != nil {
			return nil, err
		}
	}
	total := req.Subtotal.Add(req.TaxAmount).Sub(req.DiscountAmount)
	if total.IsNegative() {
		return nil, errors.NewValidationError("discount must not exceed subtotal plus tax")
	}

	status := Draft
	if req.Status != "" {
		st, ok := ParseStatus(req.Status)
		if !ok || (st != Draft && st != Sent) {
			return nil, errors.NewValidationError("a new invoice is either Draft or Sent")
		}
		status = st
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if err := utils.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	if req.ProjectID != "" && s.projects != nil {
		if err := s.projects.CheckProject(ctx, req.ProjectID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	inv := &Invoice{
		InvoiceID:      uuid.New().String(),
		InvoiceNumber:  req.InvoiceNumber,
		InvoiceType:    invoiceType,
		CustomerID:     req.CustomerID,
		VendorID:       req.VendorID,
		ProjectID:      req.ProjectID,
		InvoiceDate:    req.InvoiceDate,
		DueDate:        req.DueDate,
		Subtotal:       req.Subtotal,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		TotalAmount:    total,
		PaidAmount:     decimal.Zero,
		Balance:        total,
		Status:         status,
		Currency:       currency,
		Notes:          req.Notes,
		CreatedBy:      auth.ActorFromContext(ctx),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoiceId", inv.InvoiceID),
		zap.String("invoiceNumber", inv.InvoiceNumber),
		zap.String("type", string(inv.InvoiceType)),
		zap.String("total", inv.TotalAmount.StringFixed(2)))

	if inv.InvoiceType == Payable && inv.ProjectID != "" {
		evt := event.InvoiceCreatedForProject{
			InvoiceID:  inv.InvoiceID,
			ProjectID:  inv.ProjectID,
			Amount:     inv.TotalAmount,
			OccurredAt: now,
		}
		// The invoice is already committed; project spend is updated separately
		// and a failure here leaves the two out of sync until reconciled.
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.Error("project spend update failed after invoice creation",
				zap.String("invoiceId", inv.InvoiceID),
				zap.String("projectId", inv.ProjectID),
				zap.String("amount", inv.TotalAmount.StringFixed(2)),
				zap.Error(err))
		}
	}

	return inv, nil
}

// GetInvoice returns an invoice with its payments and derived status
func (s *Service) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments
	inv.Status = inv.EffectiveStatus(s.now())
	return inv, nil
}

// ListInvoices returns a page of invoices. Status filters on the derived status.
func (s *Service) ListInvoices(ctx context.Context, filter Filter) (*ListResult, error) {
	asOf := s.now()
	q := Query{
		InvoiceType: filter.InvoiceType,
		CustomerID:  filter.CustomerID,
		VendorID:    filter.VendorID,
		ProjectID:   filter.ProjectID,
	}
	switch filter.Status {
	case "":
	case Overdue:
		q.Statuses = []Status{Draft, Sent}
	case Draft, Sent, Paid, Cancelled:
		q.Statuses = []Status{filter.Status}
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown invoice status %q", filter.Status))
	}

	stored, err := s.repo.ListInvoices(ctx, q)
	if err != nil {
		return nil, err
	}

	matched := make([]*Invoice, 0, len(stored))
	for _, inv := range stored {
		inv.Status = inv.EffectiveStatus(asOf)
		if filter.Status == "" || inv.Status == filter.Status {
			matched = append(matched, inv)
		}
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	start, end := len(matched), len(matched)
	if page-1 <= (math.MaxInt-limit)/limit {
		start = min((page-1)*limit, len(matched))
		end = min(start+limit, len(matched))
	}

	return &ListResult{
		Invoices:   matched[start:end],
		TotalCount: len(matched),
		Page:       page,
		Limit:      limit,
	}, nil
}

// UpdateInvoiceStatus applies a manual status change
func (s *Service) UpdateInvoiceStatus(ctx context.Context, invoiceID, status string) (*Invoice, error) {
	to, ok := ParseStatus(status)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown invoice status %q", status))
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(inv.Status, to) {
		return nil, errors.NewInvalidTransitionError(string(inv.Status), string(to))
	}

	now := s.now()
	if err := s.repo.UpdateInvoiceStatus(ctx, invoiceID, inv.Status, to, now); err != nil {
		return nil, err
	}

	s.logger.Info("invoice status changed",
		zap.String("invoiceId", invoiceID),
		zap.String("from", string(inv.Status)),
		zap.String("to", string(to)))

	inv.Status = to
	inv.UpdatedAt = now
	inv.Status = inv.EffectiveStatus(now)
	return inv, nil
}

// PaymentResult is a recorded payment with the invoice state it produced
type PaymentResult struct {
	Payment *Payment `json:"payment"`
	Invoice *Invoice `json:"invoice"`
}

// RecordPayment applies a payment to an invoice. A payment larger than the
// open balance is rejected whole with OVERPAYMENT_REJECTED.
func (s *Service) RecordPayment(ctx context.Context, invoiceID string, req *RecordPaymentRequest) (*PaymentResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, errors.NewValidationError("payment amount must be greater than zero")
	}
	if _, err := utils.ParseISODate(req.PaymentDate, "payment date"); err != nil {
		return nil, err
	}
	if req.PaymentNumber != "" {
		if err := utils.ValidateCode(req.PaymentNumber, "payment number"); err != nil {
			return nil, err
		}
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	// Fail fast on a copy; the store repeats the check atomically.
	probe := *inv
	if err := probe.ApplyPayment(req.Amount, s.now()); err != nil {
		return nil, err
	}

	now := s.now()
	id := ulid.Make().String()
	number := req.PaymentNumber
	if number == "" {
		number = "PAY-" + id
	}
	p := &Payment{
		PaymentID:     id,
		PaymentNumber: number,
		InvoiceID:     invoiceID,
		InvoiceType:   inv.InvoiceType,
		Amount:        req.Amount,
		Method:        req.Method,
		PaymentDate:   req.PaymentDate,
		Reference:     req.Reference,
		Notes:         req.Notes,
		Status:        PaymentCompleted,
		CreatedBy:     auth.ActorFromContext(ctx),
		CreatedAt:     now,
	}

	updated, err := s.repo.RecordPayment(ctx, p, now)
	if err != nil {
		s.logger.Warn("payment rejected",
			zap.String("invoiceId", invoiceID),
			zap.String("amount", req.Amount.StringFixed(2)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("paymentId", p.PaymentID),
		zap.String("invoiceId", invoiceID),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("balance", updated.Balance.StringFixed(2)),
		zap.String("status", string(updated.Status)))

	updated.Status = updated.EffectiveStatus(now)
	return &PaymentResult{Payment: p, Invoice: updated}, nil
}

// CountOverdue counts the project's invoices that are overdue on asOf
func (s *Service) CountOverdue(ctx context.Context, projectID string, asOf time.Time) (int, error) {
	invoices, err := s.repo.ListInvoices(ctx, Query{ProjectID: projectID, Statuses: []Status{Draft, Sent}})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, inv := range invoices {
		if inv.IsOverdue(asOf) {
			count++
		}
	}
	return count, nil
}

// AgingReport buckets the open balance of one invoice type by days past due on asOf
func (s *Service) AgingReport(ctx context.Context, invoiceType InvoiceType, asOf time.Time) (*AgingReport, error) {
	if invoiceType != Receivable && invoiceType != Payable {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown invoice type %q", invoiceType))
	}

	invoices, err := s.repo.ListInvoices(ctx, Query{InvoiceType: invoiceType, Statuses: []Status{Draft, Sent}})
	if err != nil {
		return nil, err
	}

	labels := []string{Bucket0To30, Bucket31To60, Bucket61To90, BucketOver90}
	buckets := make(map[string]*AgingBucket, len(labels))
	for _, l := range labels {
		buckets[l] = &AgingBucket{Label: l, TotalBalance: decimal.Zero}
	}
	for _, inv := range invoices {
		if !inv.Balance.IsPositive() {
			continue
		}
		b := buckets[agingLabel(inv.DaysPastDue(asOf))]
		b.Count++
		b.TotalBalance = b.TotalBalance.Add(inv.Balance)
	}

	report := &AgingReport{
		InvoiceType: invoiceType,
		AsOf:        asOf.UTC().Format(utils.DateLayout),
		Buckets:     make([]AgingBucket, 0, len(labels)),
	}
	for _, l := range labels {
		report.Buckets = append(report.Buckets, *buckets[l])
	}
	return report, nil
}

// MonthlyCashFlow groups payments dated within [from, to] by month. Receivable
// payments are inflow and payable payments outflow. Months without payments
// are omitted; the result is most recent month first.
func (s *Service) MonthlyCashFlow(ctx context.Context, from, to time.Time) ([]forecast.HistoricalMonth, error) {
	payments, err := s.repo.ListPaymentsBetween(ctx, from.UTC().Format(utils.DateLayout), to.UTC().Format(utils.DateLayout))
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*forecast.HistoricalMonth)
	for _, p := range payments {
		label := p.PaymentDate[:len(utils.MonthLayout)]
		m, ok := byMonth[label]
		if !ok {
			m = &forecast.HistoricalMonth{Month: label}
			byMonth[label] = m
		}
		switch p.InvoiceType {
		case Receivable:
			m.Inflow = m.Inflow.Add(p.Amount)
		case Payable:
			m.Outflow = m.Outflow.Add(p.Amount)
		}
	}

	months := make([]forecast.HistoricalMonth, 0, len(byMonth))
	for _, m := range byMonth {
		m.NetFlow = m.Inflow.Sub(m.Outflow)
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month > months[j].Month })
	return months, nil
}
