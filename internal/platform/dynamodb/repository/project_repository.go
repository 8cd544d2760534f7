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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// DynamoDBProjectRepository implements the project.Repository interface.
// Progress records share the project's partition.
type DynamoDBProjectRepository struct {
	client client.Client
	table  string
	logger *zap.Logger
}

// NewDynamoDBProjectRepository creates a new DynamoDBProjectRepository
func NewDynamoDBProjectRepository(client client.Client, table string, logger *zap.Logger) *DynamoDBProjectRepository {
	return &DynamoDBProjectRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

type projectItem struct {
	Keys
	ProjectID       string    `dynamodbav:"ProjectID"`
	ProjectCode     string    `dynamodbav:"ProjectCode"`
	ProjectName     string    `dynamodbav:"ProjectName"`
	CustomerID      string    `dynamodbav:"CustomerID,omitempty"`
	Location        string    `dynamodbav:"Location,omitempty"`
	Description     string    `dynamodbav:"Description,omitempty"`
	Status          string    `dynamodbav:"Status"`
	Budget          number    `dynamodbav:"Budget"`
	Spent           number    `dynamodbav:"Spent"`
	PlannedProgress number    `dynamodbav:"PlannedProgress"`
	ActualProgress  number    `dynamodbav:"ActualProgress"`
	StartDate       string    `dynamodbav:"StartDate,omitempty"`
	EndDate         string    `dynamodbav:"EndDate,omitempty"`
	CreatedBy       string    `dynamodbav:"CreatedBy"`
	CreatedAt       time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt       time.Time `dynamodbav:"UpdatedAt"`
}

func newProjectItem(p *project.Project) projectItem {
	return projectItem{
		Keys: Keys{
			PK:     projectPK(p.ProjectID),
			SK:     entitySK,
			GSI1PK: "PROJECTS",
			GSI1SK: "CREATED#" + p.CreatedAt.UTC().Format(time.RFC3339Nano) + "#" + p.ProjectID,
			Type:   typeProject,
		},
		ProjectID:       p.ProjectID,
		ProjectCode:     p.ProjectCode,
		ProjectName:     p.ProjectName,
		CustomerID:      p.CustomerID,
		Location:        p.Location,
		Description:     p.Description,
		Status:          string(p.Status),
		Budget:          number(p.Budget),
		Spent:           number(p.Spent),
		PlannedProgress: number(p.PlannedProgress),
		ActualProgress:  number(p.ActualProgress),
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (i projectItem) toDomain() *project.Project {
	return &project.Project{
		ProjectID:       i.ProjectID,
		ProjectCode:     i.ProjectCode,
		ProjectName:     i.ProjectName,
		CustomerID:      i.CustomerID,
		Location:        i.Location,
		Description:     i.Description,
		Status:          project.Status(i.Status),
		Budget:          i.Budget.Decimal(),
		Spent:           i.Spent.Decimal(),
		PlannedProgress: i.PlannedProgress.Decimal(),
		ActualProgress:  i.ActualProgress.Decimal(),
		StartDate:       i.StartDate,
		EndDate:         i.EndDate,
		CreatedBy:       i.CreatedBy,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

type progressItem struct {
	Keys
	ProgressID      string    `dynamodbav:"ProgressID"`
	ProjectID       string    `dynamodbav:"ProjectID"`
	ProgressDate    string    `dynamodbav:"ProgressDate"`
	PlannedProgress number    `dynamodbav:"PlannedProgress"`
	ActualProgress  number    `dynamodbav:"ActualProgress"`
	BudgetSpent     number    `dynamodbav:"BudgetSpent"`
	Notes           string    `dynamodbav:"Notes,omitempty"`
	CreatedBy       string    `dynamodbav:"CreatedBy"`
	CreatedAt       time.Time `dynamodbav:"CreatedAt"`
}

func (i progressItem) toDomain() *project.Progress {
	return &project.Progress{
		ProgressID:      i.ProgressID,
		ProjectID:       i.ProjectID,
		ProgressDate:    i.ProgressDate,
		PlannedProgress: i.PlannedProgress.Decimal(),
		ActualProgress:  i.ActualProgress.Decimal(),
		BudgetSpent:     i.BudgetSpent.Decimal(),
		Notes:           i.Notes,
		CreatedBy:       i.CreatedBy,
		CreatedAt:       i.CreatedAt,
	}
}

// CreateProject writes the project and reserves its code in one transaction
func (r *DynamoDBProjectRepository) CreateProject(ctx context.Context, p *project.Project) error {
	put, err := entityPut(r.table, newProjectItem(p))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal project", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			put,
			guardPut(r.table, "PROJECT_CODE", p.ProjectCode, p.ProjectID),
		},
	})
	if err != nil {
		if failed, ok := failedConditions(err); ok {
			if contains(failed, 1) {
				return commonErrors.NewDuplicateCodeError("projectCode", p.ProjectCode)
			}
			return commonErrors.NewConflictError("project already exists")
		}
		return commonErrors.NewInternalError("failed to create project", err)
	}
	return nil
}

// GetProject retrieves a project by ID
func (r *DynamoDBProjectRepository) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(projectPK(projectID), entitySK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get project", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("project %s not found", projectID))
	}

	var item projectItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal project", err)
	}
	return item.toDomain(), nil
}

// ListProjects queries GSI1 newest first
func (r *DynamoDBProjectRepository) ListProjects(ctx context.Context, statuses []project.Status) ([]*project.Project, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value("PROJECTS")))
	if len(statuses) > 0 {
		operands := make([]expression.OperandBuilder, 0, len(statuses))
		for _, s := range statuses {
			operands = append(operands, expression.Value(string(s)))
		}
		builder = builder.WithFilter(expression.Name("Status").In(operands[0], operands[1:]...))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	var items []projectItem
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
		return nil, commonErrors.NewInternalError("failed to query projects", err)
	}

	projects := make([]*project.Project, 0, len(items))
	for _, item := range items {
		projects = append(projects, item.toDomain())
	}
	return projects, nil
}

// UpdateProjectStatus persists a status change
func (r *DynamoDBProjectRepository) UpdateProjectStatus(ctx context.Context, projectID string, status project.Status, at time.Time) error {
	update := expression.Set(expression.Name("Status"), expression.Value(string(status))).
		Set(expression.Name("UpdatedAt"), expression.Value(at))
	return r.update(ctx, projectID, update, "failed to update project status")
}

// AddSpent increments Spent server side, so concurrent invoices never lose an increment
func (r *DynamoDBProjectRepository) AddSpent(ctx context.Context, projectID string, amount decimal.Decimal, at time.Time) error {
	update := expression.Add(expression.Name("Spent"), expression.Value(number(amount))).
		Set(expression.Name("UpdatedAt"), expression.Value(at))
	return r.update(ctx, projectID, update, "failed to add project spend")
}

func (r *DynamoDBProjectRepository) update(ctx context.Context, projectID string, update expression.UpdateBuilder, failure string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key(projectPK(projectID), entitySK),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return commonErrors.NewNotFoundError(fmt.Sprintf("project %s not found", projectID))
		}
		return commonErrors.NewInternalError(failure, err)
	}
	return nil
}

// RecordProgress appends the record and overwrites the project snapshot in one transaction
func (r *DynamoDBProjectRepository) RecordProgress(ctx context.Context, pr *project.Progress) error {
	put, err := entityPut(r.table, progressItem{
		Keys: Keys{
			PK:   projectPK(pr.ProjectID),
			SK:   "PROGRESS#" + entryDateSK(pr.ProgressDate, pr.ProgressID),
			Type: typeProgress,
		},
		ProgressID:      pr.ProgressID,
		ProjectID:       pr.ProjectID,
		ProgressDate:    pr.ProgressDate,
		PlannedProgress: number(pr.PlannedProgress),
		ActualProgress:  number(pr.ActualProgress),
		BudgetSpent:     number(pr.BudgetSpent),
		Notes:           pr.Notes,
		CreatedBy:       pr.CreatedBy,
		CreatedAt:       pr.CreatedAt,
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal progress", err)
	}

	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("PlannedProgress"), expression.Value(number(pr.PlannedProgress))).
			Set(expression.Name("ActualProgress"), expression.Value(number(pr.ActualProgress))).
			Set(expression.Name("Spent"), expression.Value(number(pr.BudgetSpent))).
			Set(expression.Name("UpdatedAt"), expression.Value(pr.CreatedAt))).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return commonErrors.NewInternalError("failed to build expression", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			put,
			{
				Update: &types.Update{
					TableName:                 aws.String(r.table),
					Key:                       key(projectPK(pr.ProjectID), entitySK),
					UpdateExpression:          expr.Update(),
					ConditionExpression:       expr.Condition(),
					ExpressionAttributeNames:  expr.Names(),
					ExpressionAttributeValues: expr.Values(),
				},
			},
		},
	})
	if err != nil {
		if failed, ok := failedConditions(err); ok {
			if contains(failed, 1) {
				return commonErrors.NewNotFoundError(fmt.Sprintf("project %s not found", pr.ProjectID))
			}
			return commonErrors.NewConflictError("progress record already exists")
		}
		return commonErrors.NewInternalError("failed to record progress", err)
	}
	return nil
}

// ListProgress returns the newest progress records of a project
func (r *DynamoDBProjectRepository) ListProgress(ctx context.Context, projectID string, limit int) ([]*project.Progress, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(projectPK(projectID))).
		And(expression.Key("SK").BeginsWith("PROGRESS#"))
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

	var items []progressItem
	if limit > 0 {
		// One page is enough when the caller only wants the newest records
		input.Limit = aws.Int32(int32(limit))
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewInternalError("failed to query progress", err)
		}
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, commonErrors.NewInternalError("failed to unmarshal progress", err)
		}
	} else if err := queryAll(ctx, r.client, input, &items); err != nil {
		return nil, commonErrors.NewInternalError("failed to query progress", err)
	}

	records := make([]*project.Progress, 0, len(items))
	for _, item := range items {
		records = append(records, item.toDomain())
	}
	return records, nil
}
