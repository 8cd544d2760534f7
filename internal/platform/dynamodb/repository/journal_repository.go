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
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// maxTransactItems is the DynamoDB limit on operations in one transaction
const maxTransactItems = 100

// DynamoDBJournalRepository implements the journal.Repository interface
type DynamoDBJournalRepository struct {
	client client.Client
	table  string
	logger *zap.Logger
}

// NewDynamoDBJournalRepository creates a new DynamoDBJournalRepository
func NewDynamoDBJournalRepository(client client.Client, table string, logger *zap.Logger) *DynamoDBJournalRepository {
	return &DynamoDBJournalRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

// journalEntryItem stores an entry with its lines embedded. GSI1 orders
// entries by entry date.
type journalEntryItem struct {
	Keys
	JournalEntryID string     `dynamodbav:"JournalEntryID"`
	EntryNumber    string     `dynamodbav:"EntryNumber"`
	EntryDate      string     `dynamodbav:"EntryDate"`
	Description    string     `dynamodbav:"Description"`
	Reference      string     `dynamodbav:"Reference,omitempty"`
	TotalDebit     number     `dynamodbav:"TotalDebit"`
	TotalCredit    number     `dynamodbav:"TotalCredit"`
	Status         string     `dynamodbav:"Status"`
	CreatedBy      string     `dynamodbav:"CreatedBy"`
	PostedAt       *time.Time `dynamodbav:"PostedAt,omitempty"`
	CreatedAt      time.Time  `dynamodbav:"CreatedAt"`
	UpdatedAt      time.Time  `dynamodbav:"UpdatedAt"`
	Lines          []lineItem `dynamodbav:"Lines"`
}

type lineItem struct {
	LineID      string `dynamodbav:"LineID"`
	AccountID   string `dynamodbav:"AccountID"`
	Debit       number `dynamodbav:"Debit"`
	Credit      number `dynamodbav:"Credit"`
	Description string `dynamodbav:"Description,omitempty"`
}

func entryDateSK(date, id string) string {
	return fmt.Sprintf("DATE#%s#%s", date, id)
}

func newJournalEntryItem(e *journal.JournalEntry) journalEntryItem {
	item := journalEntryItem{
		Keys: Keys{
			PK:     journalEntryPK(e.JournalEntryID),
			SK:     entitySK,
			GSI1PK: "JOURNAL_ENTRIES",
			GSI1SK: entryDateSK(e.EntryDate, e.JournalEntryID),
			Type:   typeJournalEntry,
		},
		JournalEntryID: e.JournalEntryID,
		EntryNumber:    e.EntryNumber,
		EntryDate:      e.EntryDate,
		Description:    e.Description,
		Reference:      e.Reference,
		TotalDebit:     number(e.TotalDebit),
		TotalCredit:    number(e.TotalCredit),
		Status:         string(e.Status),
		CreatedBy:      e.CreatedBy,
		PostedAt:       e.PostedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		Lines:          make([]lineItem, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		item.Lines = append(item.Lines, lineItem{
			LineID:      l.LineID,
			AccountID:   l.AccountID,
			Debit:       number(l.Debit),
			Credit:      number(l.Credit),
			Description: l.Description,
		})
	}
	return item
}

func (i journalEntryItem) toDomain() *journal.JournalEntry {
	e := &journal.JournalEntry{
		JournalEntryID: i.JournalEntryID,
		EntryNumber:    i.EntryNumber,
		EntryDate:      i.EntryDate,
		Description:    i.Description,
		Reference:      i.Reference,
		TotalDebit:     i.TotalDebit.Decimal(),
		TotalCredit:    i.TotalCredit.Decimal(),
		Status:         journal.Status(i.Status),
		CreatedBy:      i.CreatedBy,
		PostedAt:       i.PostedAt,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
		Lines:          make([]journal.Line, 0, len(i.Lines)),
	}
	for _, l := range i.Lines {
		e.Lines = append(e.Lines, journal.Line{
			LineID:         l.LineID,
			JournalEntryID: i.JournalEntryID,
			AccountID:      l.AccountID,
			Debit:          l.Debit.Decimal(),
			Credit:         l.Credit.Decimal(),
			Description:    l.Description,
		})
	}
	return e
}

// CreateJournalEntry writes the draft entry, reserves its number and checks
// that every referenced account exists, all in one transaction
func (r *DynamoDBJournalRepository) CreateJournalEntry(ctx context.Context, entry *journal.JournalEntry) error {
	put, err := entityPut(r.table, newJournalEntryItem(entry))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal journal entry", err)
	}

	items := []types.TransactWriteItem{
		put,
		guardPut(r.table, "ENTRY_NUMBER", entry.EntryNumber, entry.JournalEntryID),
	}
	accountIDs := make([]string, 0, len(entry.Lines))
	seen := make(map[string]bool, len(entry.Lines))
	for _, l := range entry.Lines {
		if seen[l.AccountID] {
			continue
		}
		seen[l.AccountID] = true
		accountIDs = append(accountIDs, l.AccountID)
		items = append(items, types.TransactWriteItem{
			ConditionCheck: &types.ConditionCheck{
				TableName:           aws.String(r.table),
				Key:                 key(accountPK(l.AccountID), entitySK),
				ConditionExpression: aws.String(conditionExists),
			},
		})
	}
	if len(items) > maxTransactItems {
		return commonErrors.NewValidationError(fmt.Sprintf("a journal entry may reference at most %d accounts", maxTransactItems-2))
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		failed, ok := failedConditions(err)
		if !ok {
			return commonErrors.NewInternalError("failed to create journal entry", err)
		}
		switch {
		case len(failed) == 0:
			return commonErrors.NewConflictError("journal entry transaction was cancelled, retry")
		case failed[0] == 0:
			return commonErrors.NewConflictError("journal entry already exists")
		case failed[0] == 1:
			return commonErrors.NewDuplicateCodeError("entryNumber", entry.EntryNumber)
		default:
			return commonErrors.NewValidationError(fmt.Sprintf("account %s does not exist", accountIDs[failed[0]-2]))
		}
	}
	return nil
}

// GetJournalEntry retrieves a journal entry with its lines by ID
func (r *DynamoDBJournalRepository) GetJournalEntry(ctx context.Context, journalEntryID string) (*journal.JournalEntry, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(journalEntryPK(journalEntryID), entitySK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get journal entry", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("journal entry %s not found", journalEntryID))
	}

	var item journalEntryItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal journal entry", err)
	}
	return item.toDomain(), nil
}

// ListJournalEntries queries GSI1 newest first, narrowing the date range in
// the key condition and the status in a filter
func (r *DynamoDBJournalRepository) ListJournalEntries(ctx context.Context, filter journal.Filter) (*journal.ListResult, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value("JOURNAL_ENTRIES"))
	switch {
	case filter.FromDate != "" && filter.ToDate != "":
		keyCondition = keyCondition.And(expression.Key("GSI1SK").Between(
			expression.Value("DATE#"+filter.FromDate),
			expression.Value("DATE#"+filter.ToDate+"#"+maxSortSK),
		))
	case filter.FromDate != "":
		keyCondition = keyCondition.And(expression.Key("GSI1SK").GreaterThanEqual(expression.Value("DATE#" + filter.FromDate)))
	case filter.ToDate != "":
		keyCondition = keyCondition.And(expression.Key("GSI1SK").LessThanEqual(expression.Value("DATE#" + filter.ToDate + "#" + maxSortSK)))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if filter.Status != "" {
		builder = builder.WithFilter(expression.Name("Status").Equal(expression.Value(string(filter.Status))))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var items []journalEntryItem
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
		return nil, commonErrors.NewInternalError("failed to query journal entries", err)
	}

	entries := make([]*journal.JournalEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.toDomain())
	}
	return &journal.ListResult{
		JournalEntries: filter.Paginate(entries),
		TotalCount:     len(entries),
		Page:           filter.Page,
		Limit:          filter.Limit,
	}, nil
}

// PostJournalEntry flips the entry to Posted and adds every delta to its
// account in one transaction. The entry update only succeeds while the entry
// is still Draft, so concurrent posts of one entry apply once.
func (r *DynamoDBJournalRepository) PostJournalEntry(ctx context.Context, journalEntryID string, deltas []journal.BalanceDelta, postedAt time.Time) error {
	if len(deltas)+1 > maxTransactItems {
		return commonErrors.NewValidationError(fmt.Sprintf("a journal entry may touch at most %d accounts", maxTransactItems-1))
	}

	entryUpdate, err := r.statusUpdate(journalEntryID, postedAt)
	if err != nil {
		return err
	}
	items := []types.TransactWriteItem{entryUpdate}

	for _, d := range deltas {
		expr, err := expression.NewBuilder().
			WithUpdate(expression.Add(expression.Name("Balance"), expression.Value(number(d.Amount))).
				Set(expression.Name("UpdatedAt"), expression.Value(postedAt))).
			WithCondition(expression.AttributeExists(expression.Name("PK"))).
			Build()
		if err != nil {
			return commonErrors.NewInternalError("failed to build expression", err)
		}
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:                 aws.String(r.table),
				Key:                       key(accountPK(d.AccountID), entitySK),
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		failed, ok := failedConditions(err)
		if !ok {
			return commonErrors.NewInternalError("failed to post journal entry", err)
		}
		if contains(failed, 0) {
			if len(cancelledItem(err, 0)) == 0 {
				return commonErrors.NewNotFoundError(fmt.Sprintf("journal entry %s not found", journalEntryID))
			}
			return commonErrors.NewAlreadyPostedError(journalEntryID)
		}
		if len(failed) > 0 {
			return commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", deltas[failed[0]-1].AccountID))
		}
		return commonErrors.NewConflictError("posting transaction was cancelled, retry")
	}

	r.logger.Debug("journal entry posted",
		zap.String("journalEntryId", journalEntryID),
		zap.Int("accounts", len(deltas)))
	return nil
}

func (r *DynamoDBJournalRepository) statusUpdate(journalEntryID string, postedAt time.Time) (types.TransactWriteItem, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Status"), expression.Value(string(journal.Posted))).
			Set(expression.Name("PostedAt"), expression.Value(postedAt)).
			Set(expression.Name("UpdatedAt"), expression.Value(postedAt))).
		WithCondition(expression.AttributeExists(expression.Name("PK")).
			And(expression.Name("Status").Equal(expression.Value(string(journal.Draft))))).
		Build()
	if err != nil {
		return types.TransactWriteItem{}, commonErrors.NewInternalError("failed to build expression", err)
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                           aws.String(r.table),
			Key:                                 key(journalEntryPK(journalEntryID), entitySK),
			UpdateExpression:                    expr.Update(),
			ConditionExpression:                 expr.Condition(),
			ExpressionAttributeNames:            expr.Names(),
			ExpressionAttributeValues:           expr.Values(),
			// The old item tells a posted entry apart from a missing one
			ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
		},
	}, nil
}
