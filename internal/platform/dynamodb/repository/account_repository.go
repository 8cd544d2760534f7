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

	"github.com/hirosato/construction-erp/internal/domain/account"
	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// DynamoDBAccountRepository implements the account.Repository interface
type DynamoDBAccountRepository struct {
	client client.Client
	table  string
	logger *zap.Logger
}

// NewDynamoDBAccountRepository creates a new DynamoDBAccountRepository
func NewDynamoDBAccountRepository(client client.Client, table string, logger *zap.Logger) *DynamoDBAccountRepository {
	return &DynamoDBAccountRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

// accountItem is the stored shape of an account. GSI1 lists accounts by code.
type accountItem struct {
	Keys
	AccountID   string    `dynamodbav:"AccountID"`
	Code        string    `dynamodbav:"Code"`
	Name        string    `dynamodbav:"Name"`
	AccountType string    `dynamodbav:"AccountType"`
	ParentID    string    `dynamodbav:"ParentID,omitempty"`
	Balance     number    `dynamodbav:"Balance"`
	Currency    string    `dynamodbav:"Currency"`
	IsActive    bool      `dynamodbav:"IsActive"`
	Description string    `dynamodbav:"Description,omitempty"`
	CreatedBy   string    `dynamodbav:"CreatedBy"`
	CreatedAt   time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time `dynamodbav:"UpdatedAt"`
}

func newAccountItem(acc *account.Account) accountItem {
	return accountItem{
		Keys: Keys{
			PK:     accountPK(acc.AccountID),
			SK:     entitySK,
			GSI1PK: "ACCOUNTS",
			GSI1SK: "CODE#" + acc.Code,
			Type:   typeAccount,
		},
		AccountID:   acc.AccountID,
		Code:        acc.Code,
		Name:        acc.Name,
		AccountType: string(acc.AccountType),
		ParentID:    acc.ParentID,
		Balance:     number(acc.Balance),
		Currency:    acc.Currency,
		IsActive:    acc.IsActive,
		Description: acc.Description,
		CreatedBy:   acc.CreatedBy,
		CreatedAt:   acc.CreatedAt,
		UpdatedAt:   acc.UpdatedAt,
	}
}

func (i accountItem) toDomain() *account.Account {
	return &account.Account{
		AccountID:   i.AccountID,
		Code:        i.Code,
		Name:        i.Name,
		AccountType: account.AccountType(i.AccountType),
		ParentID:    i.ParentID,
		Balance:     i.Balance.Decimal(),
		Currency:    i.Currency,
		IsActive:    i.IsActive,
		Description: i.Description,
		CreatedBy:   i.CreatedBy,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// CreateAccount writes the account and its code guard in one transaction
func (r *DynamoDBAccountRepository) CreateAccount(ctx context.Context, acc *account.Account) error {
	put, err := entityPut(r.table, newAccountItem(acc))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal account", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			put,
			guardPut(r.table, "ACCOUNT_CODE", acc.Code, acc.AccountID),
		},
	})
	if err != nil {
		if failed, ok := failedConditions(err); ok {
			if contains(failed, 1) {
				return commonErrors.NewDuplicateCodeError("accountCode", acc.Code)
			}
			return commonErrors.NewConflictError("account already exists")
		}
		return commonErrors.NewInternalError("failed to create account", err)
	}
	return nil
}

// GetAccount retrieves an account by ID
func (r *DynamoDBAccountRepository) GetAccount(ctx context.Context, accountID string) (*account.Account, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(accountPK(accountID), entitySK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get account", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", accountID))
	}

	var item accountItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal account", err)
	}
	return item.toDomain(), nil
}

// ListAccounts queries GSI1, which keeps accounts ordered by code
func (r *DynamoDBAccountRepository) ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value("ACCOUNTS"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var items []accountItem
	err = queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}, &items)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query accounts", err)
	}

	accounts := make([]*account.Account, 0, len(items))
	for _, item := range items {
		acc := item.toDomain()
		if filter.Matches(acc) {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

// UpdateAccount sets the descriptive fields. Balance is left to posting.
func (r *DynamoDBAccountRepository) UpdateAccount(ctx context.Context, acc *account.Account) error {
	update := expression.Set(expression.Name("Name"), expression.Value(acc.Name)).
		Set(expression.Name("Description"), expression.Value(acc.Description)).
		Set(expression.Name("ParentID"), expression.Value(acc.ParentID)).
		Set(expression.Name("IsActive"), expression.Value(acc.IsActive)).
		Set(expression.Name("UpdatedAt"), expression.Value(acc.UpdatedAt))
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(accountPK(acc.AccountID), entitySK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", acc.AccountID))
		}
		return commonErrors.NewInternalError("failed to update account", err)
	}
	return nil
}
