package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/account"
	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// TestClient is an in-memory implementation of the DynamoDB client interface for testing.
// It understands the existence conditions used by puts and condition checks.
type TestClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

// NewTestClient creates a new test client with an empty items map
func NewTestClient() *TestClient {
	return &TestClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func itemKey(item map[string]types.AttributeValue) string {
	pk := item["PK"].(*types.AttributeValueMemberS).Value
	sk := item["SK"].(*types.AttributeValueMemberS).Value
	return pk + "#" + sk
}

func (c *TestClient) conditionHolds(condition *string, k string) bool {
	_, exists := c.items[k]
	switch aws.ToString(condition) {
	case conditionNotExists:
		return !exists
	case conditionExists:
		return exists
	default:
		return true
	}
}

// GetItem retrieves an item from the in-memory store
func (c *TestClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[itemKey(params.Key)]; exists {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{}}, nil
}

// PutItem adds or updates an item in the in-memory store
func (c *TestClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := itemKey(params.Item)
	if !c.conditionHolds(params.ConditionExpression, k) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("Item already exists")}
	}
	c.items[k] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// TransactWriteItems applies puts and condition checks all or nothing
func (c *TestClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	cancelled := false
	for i, ti := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		var holds bool
		switch {
		case ti.Put != nil:
			holds = c.conditionHolds(ti.Put.ConditionExpression, itemKey(ti.Put.Item))
		case ti.ConditionCheck != nil:
			holds = c.conditionHolds(ti.ConditionCheck.ConditionExpression, itemKey(ti.ConditionCheck.Key))
		default:
			return nil, errors.New("TestClient supports only puts and condition checks in transactions")
		}
		if !holds {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			cancelled = true
		}
	}
	if cancelled {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}

	for _, ti := range params.TransactItems {
		if ti.Put != nil {
			c.items[itemKey(ti.Put.Item)] = ti.Put.Item
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// Implement remaining methods of the client.Client interface with minimal functionality for testing

func (c *TestClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (c *TestClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{}}, nil
}

func (c *TestClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return &dynamodb.CreateTableOutput{}, nil
}

func (c *TestClient) GetRawClient() *dynamodb.Client {
	return nil
}

// render substitutes expression placeholders so conditions can be asserted as text
func render(expr *string, names map[string]string, values map[string]types.AttributeValue) string {
	out := aws.ToString(expr)
	placeholders := make([]string, 0, len(names)+len(values))
	for k := range names {
		placeholders = append(placeholders, k)
	}
	for k := range values {
		placeholders = append(placeholders, k)
	}
	// Longest first so #1 never clobbers #10
	sort.Slice(placeholders, func(i, j int) bool { return len(placeholders[i]) > len(placeholders[j]) })
	for _, p := range placeholders {
		if name, ok := names[p]; ok {
			out = strings.ReplaceAll(out, p, name)
			continue
		}
		switch v := values[p].(type) {
		case *types.AttributeValueMemberS:
			out = strings.ReplaceAll(out, p, v.Value)
		case *types.AttributeValueMemberN:
			out = strings.ReplaceAll(out, p, v.Value)
		}
	}
	return out
}

func cancelled(codes ...string) error {
	reasons := make([]types.CancellationReason, 0, len(codes))
	for _, c := range codes {
		reasons = append(reasons, types.CancellationReason{Code: aws.String(c)})
	}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func testAccount(id, code string) *account.Account {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &account.Account{
		AccountID:   id,
		Code:        code,
		Name:        "Cash",
		AccountType: account.Asset,
		Balance:     decimal.RequireFromString("1234.56"),
		Currency:    "USD",
		IsActive:    true,
		CreatedBy:   "tester",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestNumber(t *testing.T) {
	av, err := attributevalue.Marshal(number(decimal.RequireFromString("-12.50")))
	require.NoError(t, err)
	n, ok := av.(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "-12.5", n.Value)

	var back number
	require.NoError(t, attributevalue.Unmarshal(&types.AttributeValueMemberS{Value: "7.25"}, &back))
	assert.True(t, decimal.RequireFromString("7.25").Equal(back.Decimal()))
}

func TestAccountRepository(t *testing.T) {
	t.Run("round trip keeps decimal balance", func(t *testing.T) {
		// Setup
		repo := NewDynamoDBAccountRepository(NewTestClient(), "test-table", zap.NewNop())
		acc := testAccount("acc-1", "1000")

		// Act
		require.NoError(t, repo.CreateAccount(context.Background(), acc))
		got, err := repo.GetAccount(context.Background(), "acc-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "1000", got.Code)
		assert.Equal(t, account.Asset, got.AccountType)
		assert.True(t, acc.Balance.Equal(got.Balance))
		assert.True(t, acc.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("duplicate code", func(t *testing.T) {
		// Setup
		repo := NewDynamoDBAccountRepository(NewTestClient(), "test-table", zap.NewNop())
		require.NoError(t, repo.CreateAccount(context.Background(), testAccount("acc-1", "1000")))

		// Act
		err := repo.CreateAccount(context.Background(), testAccount("acc-2", "1000"))

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrDuplicateCode)
	})

	t.Run("missing account", func(t *testing.T) {
		repo := NewDynamoDBAccountRepository(NewTestClient(), "test-table", zap.NewNop())

		_, err := repo.GetAccount(context.Background(), "nope")

		assert.ErrorIs(t, err, commonErrors.ErrNotFound)
	})
}

func testEntry(id, number string, accounts ...string) *journal.JournalEntry {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	e := &journal.JournalEntry{
		JournalEntryID: id,
		EntryNumber:    number,
		EntryDate:      "2025-01-02",
		Description:    "Test entry",
		TotalDebit:     decimal.NewFromInt(100),
		TotalCredit:    decimal.NewFromInt(100),
		Status:         journal.Draft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i, a := range accounts {
		line := journal.Line{LineID: a + "-line", JournalEntryID: id, AccountID: a}
		if i == 0 {
			line.Debit = decimal.NewFromInt(100)
		} else {
			line.Credit = decimal.NewFromInt(100)
		}
		e.Lines = append(e.Lines, line)
	}
	return e
}

func TestJournalRepository_CreateJournalEntry(t *testing.T) {
	newRepo := func(t *testing.T) *DynamoDBJournalRepository {
		c := NewTestClient()
		accounts := NewDynamoDBAccountRepository(c, "test-table", zap.NewNop())
		require.NoError(t, accounts.CreateAccount(context.Background(), testAccount("cash", "1000")))
		require.NoError(t, accounts.CreateAccount(context.Background(), testAccount("revenue", "4000")))
		return NewDynamoDBJournalRepository(c, "test-table", zap.NewNop())
	}

	t.Run("successful creation", func(t *testing.T) {
		// Setup
		repo := newRepo(t)

		// Act
		err := repo.CreateJournalEntry(context.Background(), testEntry("je-1", "JE-1", "cash", "revenue"))

		// Assert
		require.NoError(t, err)
		got, err := repo.GetJournalEntry(context.Background(), "je-1")
		require.NoError(t, err)
		assert.Equal(t, journal.Draft, got.Status)
		require.Len(t, got.Lines, 2)
		assert.True(t, decimal.NewFromInt(100).Equal(got.Lines[0].Debit))
		assert.Equal(t, "je-1", got.Lines[1].JournalEntryID)
		assert.Nil(t, got.PostedAt)
	})

	t.Run("duplicate entry number", func(t *testing.T) {
		// Setup
		repo := newRepo(t)
		require.NoError(t, repo.CreateJournalEntry(context.Background(), testEntry("je-1", "JE-1", "cash", "revenue")))

		// Act
		err := repo.CreateJournalEntry(context.Background(), testEntry("je-2", "JE-1", "cash", "revenue"))

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrDuplicateCode)
	})

	t.Run("unknown account", func(t *testing.T) {
		// Setup
		repo := newRepo(t)

		// Act
		err := repo.CreateJournalEntry(context.Background(), testEntry("je-1", "JE-1", "cash", "ghost"))

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrValidation)
		assert.Contains(t, err.Error(), "ghost")
		_, getErr := repo.GetJournalEntry(context.Background(), "je-1")
		assert.ErrorIs(t, getErr, commonErrors.ErrNotFound)
	})
}

func TestJournalRepository_PostJournalEntry(t *testing.T) {
	deltas := []journal.BalanceDelta{
		{AccountID: "cash", Amount: decimal.NewFromInt(100)},
		{AccountID: "revenue", Amount: decimal.NewFromInt(100)},
	}
	postedAt := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	t.Run("one transaction guarded on draft status", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		var captured *dynamodb.TransactWriteItemsInput
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			captured = params
			return &dynamodb.TransactWriteItemsOutput{}, nil
		}
		repo := NewDynamoDBJournalRepository(mock, "test-table", zap.NewNop())

		// Act
		err := repo.PostJournalEntry(context.Background(), "je-1", deltas, postedAt)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, captured)
		require.Len(t, captured.TransactItems, 3)

		entry := captured.TransactItems[0].Update
		require.NotNil(t, entry)
		assert.Equal(t, "JOURNAL_ENTRY#je-1", entry.Key["PK"].(*types.AttributeValueMemberS).Value)
		assert.Contains(t, render(entry.ConditionExpression, entry.ExpressionAttributeNames, entry.ExpressionAttributeValues), "Status = Draft")
		assert.Contains(t, render(entry.ConditionExpression, entry.ExpressionAttributeNames, entry.ExpressionAttributeValues), "attribute_exists (PK)")
		assert.Equal(t, types.ReturnValuesOnConditionCheckFailureAllOld, entry.ReturnValuesOnConditionCheckFailure)
		assert.Contains(t, render(entry.UpdateExpression, entry.ExpressionAttributeNames, entry.ExpressionAttributeValues), "Status = Posted")

		for i, d := range deltas {
			u := captured.TransactItems[i+1].Update
			require.NotNil(t, u)
			assert.Equal(t, accountPK(d.AccountID), u.Key["PK"].(*types.AttributeValueMemberS).Value)
			assert.Contains(t, render(u.UpdateExpression, u.ExpressionAttributeNames, u.ExpressionAttributeValues), "ADD Balance 100")
			assert.Contains(t, render(u.ConditionExpression, u.ExpressionAttributeNames, u.ExpressionAttributeValues), "attribute_exists")
		}
	})

	t.Run("entry condition failure on an existing entry means already posted", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			err := cancelled("ConditionalCheckFailed", "None", "None").(*types.TransactionCanceledException)
			err.CancellationReasons[0].Item = map[string]types.AttributeValue{
				"PK":     &types.AttributeValueMemberS{Value: "JOURNAL_ENTRY#je-1"},
				"Status": &types.AttributeValueMemberS{Value: "Posted"},
			}
			return nil, err
		}
		repo := NewDynamoDBJournalRepository(mock, "test-table", zap.NewNop())

		// Act
		err := repo.PostJournalEntry(context.Background(), "je-1", deltas, postedAt)

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrAlreadyPosted)
	})

	t.Run("entry condition failure without an old item means missing entry", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			return nil, cancelled("ConditionalCheckFailed", "None", "None")
		}
		repo := NewDynamoDBJournalRepository(mock, "test-table", zap.NewNop())

		// Act
		err := repo.PostJournalEntry(context.Background(), "je-1", deltas, postedAt)

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrNotFound)
		assert.Contains(t, err.Error(), "je-1")
	})

	t.Run("account condition failure means missing account", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			return nil, cancelled("None", "None", "ConditionalCheckFailed")
		}
		repo := NewDynamoDBJournalRepository(mock, "test-table", zap.NewNop())

		// Act
		err := repo.PostJournalEntry(context.Background(), "je-1", deltas, postedAt)

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrNotFound)
		assert.Contains(t, err.Error(), "revenue")
	})
}

func invoiceOutput(t *testing.T, balance string, status invoice.Status) *dynamodb.GetItemOutput {
	t.Helper()
	total := decimal.RequireFromString("1000")
	bal := decimal.RequireFromString(balance)
	item, err := attributevalue.MarshalMap(newInvoiceItem(&invoice.Invoice{
		InvoiceID:     "inv-1",
		InvoiceNumber: "INV-1",
		InvoiceType:   invoice.Receivable,
		InvoiceDate:   "2025-01-01",
		DueDate:       "2025-01-31",
		TotalAmount:   total,
		PaidAmount:    total.Sub(bal),
		Balance:       bal,
		Status:        status,
		Currency:      "USD",
	}))
	require.NoError(t, err)
	return &dynamodb.GetItemOutput{Item: item}
}

func testPayment(amount string) *invoice.Payment {
	return &invoice.Payment{
		PaymentID:     "pay-1",
		PaymentNumber: "PAY-1",
		InvoiceID:     "inv-1",
		InvoiceType:   invoice.Receivable,
		Amount:        decimal.RequireFromString(amount),
		Method:        "Bank Transfer",
		PaymentDate:   "2025-01-10",
		Status:        invoice.PaymentCompleted,
	}
}

func TestInvoiceRepository_RecordPayment(t *testing.T) {
	at := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("conditions the invoice update on the balance read", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		mock.GetItemFn = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return invoiceOutput(t, "1000", invoice.Sent), nil
		}
		var captured *dynamodb.TransactWriteItemsInput
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			captured = params
			return &dynamodb.TransactWriteItemsOutput{}, nil
		}
		repo := NewDynamoDBInvoiceRepository(mock, "test-table", zap.NewNop())

		// Act
		updated, err := repo.RecordPayment(context.Background(), testPayment("400"), at)

		// Assert
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(600).Equal(updated.Balance))
		assert.Equal(t, invoice.Sent, updated.Status)

		require.Len(t, captured.TransactItems, 3)
		assert.Equal(t, conditionNotExists, aws.ToString(captured.TransactItems[0].Put.ConditionExpression))
		assert.Equal(t, "PAYMENT_NUMBER#PAY-1", captured.TransactItems[1].Put.Item["PK"].(*types.AttributeValueMemberS).Value)
		u := captured.TransactItems[2].Update
		condition := render(u.ConditionExpression, u.ExpressionAttributeNames, u.ExpressionAttributeValues)
		assert.Contains(t, condition, "Balance = 1000")
		assert.Contains(t, condition, "Status = Sent")
	})

	t.Run("overpayment never reaches the table", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		mock.GetItemFn = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return invoiceOutput(t, "1000", invoice.Sent), nil
		}
		writes := 0
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			writes++
			return &dynamodb.TransactWriteItemsOutput{}, nil
		}
		repo := NewDynamoDBInvoiceRepository(mock, "test-table", zap.NewNop())

		// Act
		_, err := repo.RecordPayment(context.Background(), testPayment("1500"), at)

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrOverpayment)
		assert.Zero(t, writes)
	})

	t.Run("re-reads after a concurrent payment", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		balances := []string{"1000", "500"}
		reads := 0
		mock.GetItemFn = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			out := invoiceOutput(t, balances[reads], invoice.Sent)
			reads++
			return out, nil
		}
		writes := 0
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			writes++
			if writes == 1 {
				return nil, cancelled("None", "None", "ConditionalCheckFailed")
			}
			return &dynamodb.TransactWriteItemsOutput{}, nil
		}
		repo := NewDynamoDBInvoiceRepository(mock, "test-table", zap.NewNop())

		// Act
		updated, err := repo.RecordPayment(context.Background(), testPayment("400"), at)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, reads)
		assert.True(t, decimal.NewFromInt(100).Equal(updated.Balance))
	})

	t.Run("cancelled invoice", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		mock.GetItemFn = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return invoiceOutput(t, "1000", invoice.Cancelled), nil
		}
		repo := NewDynamoDBInvoiceRepository(mock, "test-table", zap.NewNop())

		// Act
		_, err := repo.RecordPayment(context.Background(), testPayment("100"), at)

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrConflict)
	})

	t.Run("duplicate payment number", func(t *testing.T) {
		// Setup
		mock := client.NewMockDynamoDBClient()
		mock.GetItemFn = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return invoiceOutput(t, "1000", invoice.Sent), nil
		}
		mock.TransactWriteItemsFn = func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			return nil, cancelled("None", "ConditionalCheckFailed", "None")
		}
		repo := NewDynamoDBInvoiceRepository(mock, "test-table", zap.NewNop())

		// Act
		_, err := repo.RecordPayment(context.Background(), testPayment("100"), at)

		// Assert
		assert.ErrorIs(t, err, commonErrors.ErrDuplicateCode)
	})
}

func TestInvoiceFilter(t *testing.T) {
	_, ok := invoiceFilter(invoice.Query{})
	assert.False(t, ok)

	cond, ok := invoiceFilter(invoice.Query{ProjectID: "p-1", Statuses: []invoice.Status{invoice.Draft, invoice.Sent}})
	require.True(t, ok)
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	require.NoError(t, err)
	filter := render(expr.Filter(), expr.Names(), expr.Values())
	assert.Contains(t, filter, "ProjectID = p-1")
	assert.Contains(t, filter, "Status IN (Draft, Sent)")
}
