package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
)

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	out := *inv
	out.Payments = nil
	return &out
}

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.invoiceNumbers[inv.InvoiceNumber]; taken {
		return errors.NewDuplicateCodeError("invoiceNumber", inv.InvoiceNumber)
	}
	s.invoices[inv.InvoiceID] = copyInvoice(inv)
	s.invoiceNumbers[inv.InvoiceNumber] = inv.InvoiceID
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("invoice %s not found", invoiceID))
	}
	return copyInvoice(inv), nil
}

func (s *Store) ListInvoices(_ context.Context, q invoice.Query) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if q.Matches(inv) {
			result = append(result, copyInvoice(inv))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].InvoiceDate != result[j].InvoiceDate {
			return result[i].InvoiceDate > result[j].InvoiceDate
		}
		return result[i].InvoiceNumber > result[j].InvoiceNumber
	})
	return result, nil
}

func (s *Store) UpdateInvoiceStatus(_ context.Context, invoiceID string, from, to invoice.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("invoice %s not found", invoiceID))
	}
	if inv.Status != from {
		return errors.NewConflictError(fmt.Sprintf("invoice %s changed status to %s", invoiceID, inv.Status))
	}
	inv.Status = to
	inv.UpdatedAt = at
	return nil
}

func (s *Store) RecordPayment(_ context.Context, p *invoice.Payment, at time.Time) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[p.InvoiceID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("invoice %s not found", p.InvoiceID))
	}
	if _, taken := s.paymentNumbers[p.PaymentNumber]; taken {
		return nil, errors.NewDuplicateCodeError("paymentNumber", p.PaymentNumber)
	}

	// Apply to a copy so a rejected payment leaves the invoice untouched
	updated := copyInvoice(inv)
	if err := updated.ApplyPayment(p.Amount, at); err != nil {
		return nil, err
	}

	stored := *p
	s.payments[p.PaymentID] = &stored
	s.paymentNumbers[p.PaymentNumber] = p.PaymentID
	s.invoices[p.InvoiceID] = updated
	return copyInvoice(updated), nil
}

func (s *Store) ListPayments(_ context.Context, invoiceID string) ([]*invoice.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Payment, 0)
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID {
			out := *p
			result = append(result, &out)
		}
	}
	sortPayments(result)
	return result, nil
}

func (s *Store) ListPaymentsBetween(_ context.Context, from, to string) ([]*invoice.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Payment, 0)
	for _, p := range s.payments {
		if p.PaymentDate >= from && p.PaymentDate <= to {
			out := *p
			result = append(result, &out)
		}
	}
	sortPayments(result)
	return result, nil
}

func sortPayments(payments []*invoice.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].PaymentDate != payments[j].PaymentDate {
			return payments[i].PaymentDate > payments[j].PaymentDate
		}
		return payments[i].PaymentID > payments[j].PaymentID
	})
}
