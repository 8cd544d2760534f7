package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// paymentAttempts bounds the optimistic retries of RecordPayment when the
// invoice changes between read and write
const paymentAttempts = 3

// DynamoDBInvoiceRepository implements the invoice.Repository interface
type DynamoDBInvoiceRepository struct {
	client client.Client
	table  string
	logger *zap.Logger
}

// NewDynamoDBInvoiceRepository creates a new DynamoDBInvoiceRepository
func NewDynamoDBInvoiceRepository(client client.Client, table string, logger *zap.Logger) *DynamoDBInvoiceRepository {
	return &DynamoDBInvoiceRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

type invoiceItem struct {
	Keys
	InvoiceID      string    `dynamodbav:"InvoiceID"`
	InvoiceNumber  string    `dynamodbav:"InvoiceNumber"`
	InvoiceType    string    `dynamodbav:"InvoiceType"`
	CustomerID     string    `dynamodbav:"CustomerID,omitempty"`
	VendorID       string    `dynamodbav:"VendorID,omitempty"`
	ProjectID      string    `dynamodbav:"ProjectID,omitempty"`
	InvoiceDate    string    `dynamodbav:"InvoiceDate"`
	DueDate        string    `dynamodbav:"DueDate"`
	Subtotal       number    `dynamodbav:"Subtotal"`
	TaxAmount      number    `dynamodbav:"TaxAmount"`
	DiscountAmount number    `dynamodbav:"DiscountAmount"`
	TotalAmount    number    `dynamodbav:"TotalAmount"`
	PaidAmount     number    `dynamodbav:"PaidAmount"`
	Balance        number    `dynamodbav:"Balance"`
	Status         string    `dynamodbav:"Status"`
	Currency       string    `dynamodbav:"Currency"`
	Notes          string    `dynamodbav:"Notes,omitempty"`
	CreatedBy      string    `dynamodbav:"CreatedBy"`
	CreatedAt      time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt      time.Time `dynamodbav:"UpdatedAt"`
}

func newInvoiceItem(inv *invoice.Invoice) invoiceItem {
	return invoiceItem{
		Keys: Keys{
			PK:     invoicePK(inv.InvoiceID),
			SK:     entitySK,
			GSI1PK: "INVOICES",
			GSI1SK: entryDateSK(inv.InvoiceDate, inv.InvoiceID),
			Type:   typeInvoice,
		},
		InvoiceID:      inv.InvoiceID,
		InvoiceNumber:  inv.InvoiceNumber,
		InvoiceType:    string(inv.InvoiceType),
		CustomerID:     inv.CustomerID,
		VendorID:       inv.VendorID,
		ProjectID:      inv.ProjectID,
		InvoiceDate:    inv.InvoiceDate,
		DueDate:        inv.DueDate,
		Subtotal:       number(inv.Subtotal),
		TaxAmount:      number(inv.TaxAmount),
		DiscountAmount: number(inv.DiscountAmount),
		TotalAmount:    number(inv.TotalAmount),
		PaidAmount:     number(inv.PaidAmount),
		Balance:        number(inv.Balance),
		Status:         string(inv.Status),
		Currency:       inv.Currency,
		Notes:          inv.Notes,
		CreatedBy:      inv.CreatedBy,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func (i invoiceItem) toDomain() *invoice.Invoice {
	return &invoice.Invoice{
		InvoiceID:      i.InvoiceID,
		InvoiceNumber:  i.InvoiceNumber,
		InvoiceType:    invoice.InvoiceType(i.InvoiceType),
		CustomerID:     i.CustomerID,
		VendorID:       i.VendorID,
		ProjectID:      i.ProjectID,
		InvoiceDate:    i.InvoiceDate,
		DueDate:        i.DueDate,
		Subtotal:       i.Subtotal.Decimal(),
		TaxAmount:      i.TaxAmount.Decimal(),
		DiscountAmount: i.DiscountAmount.Decimal(),
		TotalAmount:    i.TotalAmount.Decimal(),
		PaidAmount:     i.PaidAmount.Decimal(),
		Balance:        i.Balance.Decimal(),
		Status:         invoice.Status(i.Status),
		Currency:       i.Currency,
		Notes:          i.Notes,
		CreatedBy:      i.CreatedBy,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// paymentItem lives in its invoice's partition, sorted by payment date.
// GSI1 lists all payments by date for cash-flow reporting.
type paymentItem struct {
	Keys
	PaymentID     string    `dynamodbav:"PaymentID"`
	PaymentNumber string    `dynamodbav:"PaymentNumber"`
	InvoiceID     string    `dynamodbav:"InvoiceID"`
	InvoiceType   string    `dynamodbav:"InvoiceType"`
	Amount        number    `dynamodbav:"Amount"`
	Method        string    `dynamodbav:"Method"`
	PaymentDate   string    `dynamodbav:"PaymentDate"`
	Reference     string    `dynamodbav:"Reference,omitempty"`
	Notes         string    `dynamodbav:"Notes,omitempty"`
	Status        string    `dynamodbav:"Status"`
	CreatedBy     string    `dynamodbav:"CreatedBy"`
	CreatedAt     time.Time `dynamodbav:"CreatedAt"`
}

func newPaymentItem(p *invoice.Payment) paymentItem {
	return paymentItem{
		Keys: Keys{
			PK:     invoicePK(p.InvoiceID),
			SK:     "PAYMENT#" + entryDateSK(p.PaymentDate, p.PaymentID),
			GSI1PK: "PAYMENTS",
			GSI1SK: entryDateSK(p.PaymentDate, p.PaymentID),
			Type:   typePayment,
		},
		PaymentID:     p.PaymentID,
		PaymentNumber: p.PaymentNumber,
		InvoiceID:     p.InvoiceID,
		InvoiceType:   string(p.InvoiceType),
		Amount:        number(p.Amount),
		Method:        p.Method,
		PaymentDate:   p.PaymentDate,
		Reference:     p.Reference,
		Notes:         p.Notes,
		Status:        p.Status,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

func (i paymentItem) toDomain() *invoice.Payment {
	return &invoice.Payment{
		PaymentID:     i.PaymentID,
		PaymentNumber: i.PaymentNumber,
		InvoiceID:     i.InvoiceID,
		InvoiceType:   invoice.InvoiceType(i.InvoiceType),
		Amount:        i.Amount.Decimal(),
		Method:        i.Method,
		PaymentDate:   i.PaymentDate,
		Reference:     i.Reference,
		Notes:         i.Notes,
		Status:        i.Status,
		CreatedBy:     i.CreatedBy,
		CreatedAt:     i.CreatedAt,
	}
}

// CreateInvoice writes the invoice and reserves its number in one transaction
func (r *DynamoDBInvoiceRepository) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	put, err := entityPut(r.table, newInvoiceItem(inv))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal invoice", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			put,
			guardPut(r.table, "INVOICE_NUMBER", inv.InvoiceNumber, inv.InvoiceID),
		},
	})
	if err != nil {
		if failed, ok := failedConditions(err); ok {
			if contains(failed, 1) {
				return commonErrors.NewDuplicateCodeError("invoiceNumber", inv.InvoiceNumber)
			}
			return commonErrors.NewConflictError("invoice already exists")
		}
		return commonErrors.NewInternalError("failed to create invoice", err)
	}
	return nil
}

// GetInvoice retrieves an invoice by ID without its payments
func (r *DynamoDBInvoiceRepository) GetInvoice(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(invoicePK(invoiceID), entitySK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get invoice", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("invoice %s not found", invoiceID))
	}

	var item invoiceItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal invoice", err)
	}
	return item.toDomain(), nil
}

// ListInvoices queries GSI1 newest invoice date first with the query pushed
// into a filter expression
func (r *DynamoDBInvoiceRepository) ListInvoices(ctx context.Context, q invoice.Query) ([]*invoice.Invoice, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value("INVOICES")))
	if filter, ok := invoiceFilter(q); ok {
		builder = builder.WithFilter(filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var items []invoiceItem
	err = queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}, &items)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query invoices", err)
	}

	invoices := make([]*invoice.Invoice, 0, len(items))
	for _, item := range items {
		invoices = append(invoices, item.toDomain())
	}
	return invoices, nil
}

func invoiceFilter(q invoice.Query) (expression.ConditionBuilder, bool) {
	var conditions []expression.ConditionBuilder
	equal := func(name, value string) {
		if value != "" {
			conditions = append(conditions, expression.Name(name).Equal(expression.Value(value)))
		}
	}
	equal("InvoiceType", string(q.InvoiceType))
	equal("CustomerID", q.CustomerID)
	equal("VendorID", q.VendorID)
	equal("ProjectID", q.ProjectID)

	if len(q.Statuses) > 0 {
		operands := make([]expression.OperandBuilder, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			operands = append(operands, expression.Value(string(s)))
		}
		conditions = append(conditions, expression.Name("Status").In(operands[0], operands[1:]...))
	}

	switch len(conditions) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return conditions[0], true
	default:
		return expression.And(conditions[0], conditions[1], conditions[2:]...), true
	}
}

// UpdateInvoiceStatus changes the stored status only while it still equals from
func (r *DynamoDBInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoiceID string, from, to invoice.Status, at time.Time) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Status"), expression.Value(string(to))).
			Set(expression.Name("UpdatedAt"), expression.Value(at))).
		WithCondition(expression.Name("Status").Equal(expression.Value(string(from)))).
		Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(invoicePK(invoiceID), entitySK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err == nil {
		return nil
	}
	if !isConditionFailed(err) {
		return commonErrors.NewInternalError("failed to update invoice status", err)
	}

	current, getErr := r.GetInvoice(ctx, invoiceID)
	if getErr != nil {
		return getErr
	}
	return commonErrors.NewConflictError(fmt.Sprintf("invoice %s changed status to %s", invoiceID, current.Status))
}

// RecordPayment reads the invoice, applies the payment in memory and writes
// the payment, its number guard and the new invoice totals in one
// transaction. The invoice update is conditioned on the balance and status
// that were read, so a concurrent payment forces a re-read instead of a lost
// update.
func (r *DynamoDBInvoiceRepository) RecordPayment(ctx context.Context, p *invoice.Payment, at time.Time) (*invoice.Invoice, error) {
	for attempt := 1; attempt <= paymentAttempts; attempt++ {
		current, err := r.GetInvoice(ctx, p.InvoiceID)
		if err != nil {
			return nil, err
		}
		updated := *current
		if err := updated.ApplyPayment(p.Amount, at); err != nil {
			return nil, err
		}

		items, err := r.paymentItems(p, current, &updated)
		if err != nil {
			return nil, err
		}
		_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
		if err == nil {
			return &updated, nil
		}

		failed, ok := failedConditions(err)
		if !ok {
			return nil, commonErrors.NewInternalError("failed to record payment", err)
		}
		switch {
		case contains(failed, 1):
			return nil, commonErrors.NewDuplicateCodeError("paymentNumber", p.PaymentNumber)
		case contains(failed, 0):
			return nil, commonErrors.NewConflictError(fmt.Sprintf("payment %s already exists", p.PaymentID))
		}

		r.logger.Debug("invoice changed during payment, retrying",
			zap.String("invoiceId", p.InvoiceID),
			zap.Int("attempt", attempt))
	}
	return nil, commonErrors.NewConflictError(fmt.Sprintf("invoice %s is being updated concurrently, retry", p.InvoiceID))
}

func (r *DynamoDBInvoiceRepository) paymentItems(p *invoice.Payment, current, updated *invoice.Invoice) ([]types.TransactWriteItem, error) {
	put, err := entityPut(r.table, newPaymentItem(p))
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal payment", err)
	}

	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("PaidAmount"), expression.Value(number(updated.PaidAmount))).
			Set(expression.Name("Balance"), expression.Value(number(updated.Balance))).
			Set(expression.Name("Status"), expression.Value(string(updated.Status))).
			Set(expression.Name("UpdatedAt"), expression.Value(updated.UpdatedAt))).
		WithCondition(expression.Name("Balance").Equal(expression.Value(number(current.Balance))).
			And(expression.Name("Status").Equal(expression.Value(string(current.Status))))).
		Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	return []types.TransactWriteItem{
		put,
		guardPut(r.table, "PAYMENT_NUMBER", p.PaymentNumber, p.PaymentID),
		{
			Update: &types.Update{
				TableName:                 aws.String(r.table),
				Key:                       key(invoicePK(p.InvoiceID), entitySK),
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		},
	}, nil
}

// ListPayments returns the payments of one invoice, newest payment date first
func (r *DynamoDBInvoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]*invoice.Payment, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(invoicePK(invoiceID))).
		And(expression.Key("SK").BeginsWith("PAYMENT#"))
	return r.queryPayments(ctx, keyCondition, "")
}

// ListPaymentsBetween queries GSI1 for payments dated within [from, to]
func (r *DynamoDBInvoiceRepository) ListPaymentsBetween(ctx context.Context, from, to string) ([]*invoice.Payment, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value("PAYMENTS")).
		And(expression.Key("GSI1SK").Between(
			expression.Value("DATE#"+from),
			expression.Value("DATE#"+to+"#"+maxSortSK),
		))
	return r.queryPayments(ctx, keyCondition, gsi1)
}

func (r *DynamoDBInvoiceRepository) queryPayments(ctx context.Context, keyCondition expression.KeyConditionBuilder, index string) ([]*invoice.Payment, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}

	var items []paymentItem
	if err := queryAll(ctx, r.client, input, &items); err != nil {
		return nil, commonErrors.NewInternalError("failed to query payments", err)
	}
	payments := make([]*invoice.Payment, 0, len(items))
	for _, item := range items {
		payments = append(payments, item.toDomain())
	}
	return payments, nil
}
