package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
)

type CreateInvoiceTool struct {
	invoices *invoice.Service
}

func NewCreateInvoiceTool(invoices *invoice.Service) *CreateInvoiceTool {
	return &CreateInvoiceTool{invoices: invoices}
}

func (t *CreateInvoiceTool) GetName() string { return "create-invoice" }

func (t *CreateInvoiceTool) GetDescription() string {
	return "Creates a receivable or payable invoice. Total = subtotal + tax - discount. " +
		"A payable invoice linked to a project adds its total to the project's spent amount."
}

func (t *CreateInvoiceTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"invoiceNumber":  str("Unique invoice number"),
			"invoiceType":    enum("Invoice direction", string(invoice.Receivable), string(invoice.Payable)),
			"customerId":     str("Customer id, for receivables"),
			"vendorId":       str("Vendor id, for payables"),
			"projectId":      str("Optional project id"),
			"invoiceDate":    date("Invoice date"),
			"dueDate":        date("Due date"),
			"subtotal":       amount("Subtotal"),
			"taxAmount":      amount("Tax amount"),
			"discountAmount": amount("Discount amount"),
			"currency":       str("ISO 4217 currency code"),
			"notes":          str("Optional notes"),
			"status":         enum("Initial status", string(invoice.Draft), string(invoice.Sent)),
		},
		Required: []string{"invoiceNumber", "invoiceType", "invoiceDate", "dueDate", "subtotal"},
	}
}

func (t *CreateInvoiceTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var req invoice.CreateInvoiceRequest
	if err := parseArgs(arguments, &req); err != nil {
		return nil, err
	}

	inv, err := t.invoices.CreateInvoice(ctx, &req)
	if err != nil {
		return nil, err
	}
	return jsonResult("Invoice created successfully", inv)
}

type RecordPaymentTool struct {
	invoices *invoice.Service
}

func NewRecordPaymentTool(invoices *invoice.Service) *RecordPaymentTool {
	return &RecordPaymentTool{invoices: invoices}
}

func (t *RecordPaymentTool) GetName() string { return "record-payment" }

func (t *RecordPaymentTool) GetDescription() string {
	return "Records a payment against an invoice. Payments above the open balance are rejected; " +
		"the invoice becomes Paid when its balance reaches zero."
}

func (t *RecordPaymentTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"invoiceId":       str("Invoice id"),
			"paymentNumber":   str("Optional unique payment number; generated when empty"),
			"amount":          amount("Payment amount"),
			"paymentMethod":   str("e.g. bank_transfer, check, cash"),
			"paymentDate":     date("Payment date"),
			"referenceNumber": str("Optional bank reference"),
			"notes":           str("Optional notes"),
		},
		Required: []string{"invoiceId", "amount", "paymentMethod", "paymentDate"},
	}
}

func (t *RecordPaymentTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		InvoiceID string `json:"invoiceId"`
		invoice.RecordPaymentRequest
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.InvoiceID == "" {
		return nil, errors.NewValidationError("invoiceId is required")
	}

	result, err := t.invoices.RecordPayment(ctx, args.InvoiceID, &args.RecordPaymentRequest)
	if err != nil {
		return nil, err
	}
	return jsonResult("Payment recorded successfully", result)
}

type InvoiceAgingTool struct {
	invoices *invoice.Service
}

func NewInvoiceAgingTool(invoices *invoice.Service) *InvoiceAgingTool {
	return &InvoiceAgingTool{invoices: invoices}
}

func (t *InvoiceAgingTool) GetName() string { return "invoice-aging" }

func (t *InvoiceAgingTool) GetDescription() string {
	return "Buckets open invoice balances by days past due: 0-30, 31-60, 61-90 and over 90 days"
}

func (t *InvoiceAgingTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"invoiceType": enum("Invoice direction", string(invoice.Receivable), string(invoice.Payable)),
			"asOfDate":    date("Aging date; defaults to today"),
		},
		Required: []string{"invoiceType"},
	}
}

func (t *InvoiceAgingTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		InvoiceType string `json:"invoiceType"`
		AsOfDate    string `json:"asOfDate"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}

	asOf := time.Now().UTC()
	if args.AsOfDate != "" {
		d, err := utils.ParseISODate(args.AsOfDate, "as of date")
		if err != nil {
			return nil, err
		}
		asOf = d
	}

	report, err := t.invoices.AgingReport(ctx, invoice.InvoiceType(args.InvoiceType), asOf)
	if err != nil {
		return nil, err
	}
	return jsonResult("Invoice aging", report)
}
