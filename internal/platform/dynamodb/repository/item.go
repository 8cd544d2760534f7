package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// Item types stored in the single table
const (
	typeAccount      = "account"
	typeJournalEntry = "journal_entry"
	typeInvoice      = "invoice"
	typePayment      = "payment"
	typeProject      = "project"
	typeProgress     = "progress"
	typeRiskLog      = "risk_log"
	typeGuard        = "guard"
)

const (
	gsi1      = "GSI1"
	guardSK   = "GUARD"
	entitySK  = "METADATA"
	maxSortSK = "\uFFFF"

	conditionNotExists = "attribute_not_exists(PK)"
	conditionExists    = "attribute_exists(PK)"
)

func accountPK(id string) string      { return "ACCOUNT#" + id }
func journalEntryPK(id string) string { return "JOURNAL_ENTRY#" + id }
func invoicePK(id string) string      { return "INVOICE#" + id }
func projectPK(id string) string      { return "PROJECT#" + id }

// Keys is the primary and GSI1 key block every item carries
type Keys struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK string `dynamodbav:"GSI1SK,omitempty"`
	Type   string `dynamodbav:"Type"`
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// number stores a decimal as a DynamoDB N so that ADD and numeric
// conditions work on it.
type number decimal.Decimal

func (n number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: decimal.Decimal(n).String()}, nil
}

func (n *number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		*n = number(decimal.Zero)
		return nil
	default:
		return fmt.Errorf("cannot decode %T as a number", av)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	*n = number(d)
	return nil
}

func (n number) Decimal() decimal.Decimal { return decimal.Decimal(n) }

// guardPut reserves a unique business key. The put fails when the key is taken.
func guardPut(table, kind, value, ownerID string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(table),
			Item: map[string]types.AttributeValue{
				"PK":      &types.AttributeValueMemberS{Value: kind + "#" + value},
				"SK":      &types.AttributeValueMemberS{Value: guardSK},
				"Type":    &types.AttributeValueMemberS{Value: typeGuard},
				"OwnerID": &types.AttributeValueMemberS{Value: ownerID},
			},
			ConditionExpression: aws.String(conditionNotExists),
		},
	}
}

// entityPut creates an item that must not exist yet
func entityPut(table string, record interface{}) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(table),
			Item:                item,
			ConditionExpression: aws.String(conditionNotExists),
		},
	}, nil
}

// failedConditions returns the indexes of transaction items whose condition
// failed, or ok=false when err is not a cancelled transaction.
func failedConditions(err error) (indexes []int, ok bool) {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return nil, false
	}
	for i, reason := range canceled.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			indexes = append(indexes, i)
		}
	}
	return indexes, true
}

// cancelledItem returns the old item a cancelled transaction reported for
// position i. It is empty when the item did not exist or no values were requested.
func cancelledItem(err error, i int) map[string]types.AttributeValue {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) || i >= len(canceled.CancellationReasons) {
		return nil
	}
	return canceled.CancellationReasons[i].Item
}

func contains(indexes []int, i int) bool {
	for _, x := range indexes {
		if x == i {
			return true
		}
	}
	return false
}

func isConditionFailed(err error) bool {
	var condCheckErr *types.ConditionalCheckFailedException
	return errors.As(err, &condCheckErr)
}

// queryAll follows LastEvaluatedKey until the query is exhausted and
// unmarshals every item into out, which must point at a slice.
func queryAll(ctx context.Context, c client.Client, input *dynamodb.QueryInput, out interface{}) error {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(c, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}
