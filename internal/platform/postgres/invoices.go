package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
)

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	row := newInvoiceRow(inv)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&invoiceRow{}).Where("invoice_number = ?", inv.InvoiceNumber).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return commonErrors.NewDuplicateCodeError("invoiceNumber", inv.InvoiceNumber)
		}
		return tx.Create(&row).Error
	})
	if isUniqueViolation(err) {
		return commonErrors.NewDuplicateCodeError("invoiceNumber", inv.InvoiceNumber)
	}
	if err != nil {
		return s.passThrough("failed to create invoice", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	row, err := findInvoice(s.db.WithContext(ctx), invoiceID)
	if err != nil {
		return nil, s.passThrough("failed to get invoice", err)
	}
	return row.toDomain(), nil
}

func findInvoice(db *gorm.DB, invoiceID string) (*invoiceRow, error) {
	var row invoiceRow
	err := db.Where("id = ?", invoiceID).First(&row).Error
	if isNotFound(err) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("invoice %s not found", invoiceID))
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) ListInvoices(ctx context.Context, q invoice.Query) ([]*invoice.Invoice, error) {
	db := s.db.WithContext(ctx).Model(&invoiceRow{})
	if q.InvoiceType != "" {
		db = db.Where("invoice_type = ?", string(q.InvoiceType))
	}
	if q.CustomerID != "" {
		db = db.Where("customer_id = ?", q.CustomerID)
	}
	if q.VendorID != "" {
		db = db.Where("vendor_id = ?", q.VendorID)
	}
	if q.ProjectID != "" {
		db = db.Where("project_id = ?", q.ProjectID)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			statuses = append(statuses, string(st))
		}
		db = db.Where("status IN ?", statuses)
	}

	var rows []invoiceRow
	if err := db.Order("invoice_date DESC").Order("invoice_number DESC").Find(&rows).Error; err != nil {
		return nil, s.internal("failed to list invoices", err)
	}

	result := make([]*invoice.Invoice, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

// UpdateInvoiceStatus only writes when the stored status still equals from
func (s *Store) UpdateInvoiceStatus(ctx context.Context, invoiceID string, from, to invoice.Status, at time.Time) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&invoiceRow{}).
		Where("id = ? AND status = ?", invoiceID, string(from)).
		Updates(map[string]interface{}{"status": string(to), "updated_at": at})
	if res.Error != nil {
		return s.internal("failed to update invoice status", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	current, err := findInvoice(db, invoiceID)
	if err != nil {
		return s.passThrough("failed to get invoice", err)
	}
	return commonErrors.NewConflictError(fmt.Sprintf("invoice %s changed status to %s", invoiceID, current.Status))
}

// RecordPayment locks the invoice row, applies the payment and inserts it.
// Concurrent payments on the same invoice serialize on the lock.
func (s *Store) RecordPayment(ctx context.Context, p *invoice.Payment, at time.Time) (*invoice.Invoice, error) {
	var updated *invoice.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findInvoice(tx.Clauses(clause.Locking{Strength: "UPDATE"}), p.InvoiceID)
		if err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&paymentRow{}).Where("payment_number = ?", p.PaymentNumber).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return commonErrors.NewDuplicateCodeError("paymentNumber", p.PaymentNumber)
		}

		inv := row.toDomain()
		if err := inv.ApplyPayment(p.Amount, at); err != nil {
			return err
		}

		payment := newPaymentRow(p)
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if err := tx.Model(&invoiceRow{}).Where("id = ?", p.InvoiceID).Updates(map[string]interface{}{
			"paid_amount": inv.PaidAmount,
			"balance":     inv.Balance,
			"status":      string(inv.Status),
			"updated_at":  inv.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if isUniqueViolation(err) {
		return nil, commonErrors.NewDuplicateCodeError("paymentNumber", p.PaymentNumber)
	}
	if err != nil {
		return nil, s.passThrough("failed to record payment", err)
	}
	return updated, nil
}

func (s *Store) ListPayments(ctx context.Context, invoiceID string) ([]*invoice.Payment, error) {
	return s.payments(s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID))
}

func (s *Store) ListPaymentsBetween(ctx context.Context, from, to string) ([]*invoice.Payment, error) {
	return s.payments(s.db.WithContext(ctx).
		Where(clause.Gte{Column: "payment_date", Value: from}).
		Where(clause.Lte{Column: "payment_date", Value: to}))
}

func (s *Store) payments(db *gorm.DB) ([]*invoice.Payment, error) {
	var rows []paymentRow
	if err := db.Order("payment_date DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, s.internal("failed to list payments", err)
	}
	result := make([]*invoice.Payment, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}
