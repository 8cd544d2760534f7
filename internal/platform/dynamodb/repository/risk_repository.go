package repository

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/risk"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// DynamoDBRiskLogRepository implements risk.LogRepository. Logs live in the
// project's partition keyed by their ULID, so key order is time order.
type DynamoDBRiskLogRepository struct {
	client client.Client
	table  string
	logger *zap.Logger
}

// NewDynamoDBRiskLogRepository creates a new DynamoDBRiskLogRepository
func NewDynamoDBRiskLogRepository(client client.Client, table string, logger *zap.Logger) *DynamoDBRiskLogRepository {
	return &DynamoDBRiskLogRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

type riskLogItem struct {
	Keys
	LogID        string        `dynamodbav:"LogID"`
	ProjectID    string        `dynamodbav:"ProjectID"`
	Score        int           `dynamodbav:"Score"`
	Level        string        `dynamodbav:"Level"`
	Factors      []risk.Factor `dynamodbav:"Factors"`
	CalculatedAt time.Time     `dynamodbav:"CalculatedAt"`
}

// AppendRiskLog stores a log. Logs are never updated.
func (r *DynamoDBRiskLogRepository) AppendRiskLog(ctx context.Context, l *risk.Log) error {
	put, err := entityPut(r.table, riskLogItem{
		Keys: Keys{
			PK:   projectPK(l.ProjectID),
			SK:   "RISK_LOG#" + l.LogID,
			Type: typeRiskLog,
		},
		LogID:        l.LogID,
		ProjectID:    l.ProjectID,
		Score:        l.Score,
		Level:        string(l.Level),
		Factors:      l.Factors,
		CalculatedAt: l.CalculatedAt,
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal risk log", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           put.Put.TableName,
		Item:                put.Put.Item,
		ConditionExpression: put.Put.ConditionExpression,
	})
	if err != nil {
		if isConditionFailed(err) {
			return commonErrors.NewConflictError("risk log already exists")
		}
		return commonErrors.NewInternalError("failed to append risk log", err)
	}
	return nil
}

// ListRiskLogs returns a project's logs, newest first
func (r *DynamoDBRiskLogRepository) ListRiskLogs(ctx context.Context, projectID string) ([]*risk.Log, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(projectPK(projectID))).
		And(expression.Key("SK").BeginsWith("RISK_LOG#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var items []riskLogItem
	err = queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}, &items)
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query risk logs", err)
	}

	logs := make([]*risk.Log, 0, len(items))
	for _, item := range items {
		logs = append(logs, &risk.Log{
			LogID:        item.LogID,
			ProjectID:    item.ProjectID,
			Score:        item.Score,
			Level:        risk.Level(item.Level),
			Factors:      item.Factors,
			CalculatedAt: item.CalculatedAt,
		})
	}
	return logs, nil
}
