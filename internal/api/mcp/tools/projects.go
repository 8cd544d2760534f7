package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
	"github.com/hirosato/construction-erp/internal/domain/project"
)

type CreateProjectTool struct {
	projects *project.Service
}

func NewCreateProjectTool(projects *project.Service) *CreateProjectTool {
	return &CreateProjectTool{projects: projects}
}

func (t *CreateProjectTool) GetName() string { return "create-project" }

func (t *CreateProjectTool) GetDescription() string {
	return "Creates a construction project with a budget and optional schedule"
}

func (t *CreateProjectTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"projectCode": str("Unique project code"),
			"projectName": str("Project name"),
			"customerId":  str("Optional customer id"),
			"budget":      amount("Total budget"),
			"startDate":   date("Planned start"),
			"endDate":     date("Planned end"),
			"location":    str("Site location"),
			"description": str("Optional description"),
			"status":      enum("Initial status", string(project.Planning), string(project.Active)),
		},
		Required: []string{"projectCode", "projectName", "budget"},
	}
}

func (t *CreateProjectTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var req project.CreateProjectRequest
	if err := parseArgs(arguments, &req); err != nil {
		return nil, err
	}

	p, err := t.projects.CreateProject(ctx, &req)
	if err != nil {
		return nil, err
	}
	return jsonResult("Project created successfully", p)
}

type RecordProgressTool struct {
	projects *project.Service
}

func NewRecordProgressTool(projects *project.Service) *RecordProgressTool {
	return &RecordProgressTool{projects: projects}
}

func (t *RecordProgressTool) GetName() string { return "record-project-progress" }

func (t *RecordProgressTool) GetDescription() string {
	return "Records planned and actual progress percentages and the budget spent to date, " +
		"then returns the project's health insights"
}

func (t *RecordProgressTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"projectId":       str("Project id"),
			"progressDate":    date("Measurement date"),
			"plannedProgress": amount("Planned progress percent, 0 to 100"),
			"actualProgress":  amount("Actual progress percent, 0 to 100"),
			"budgetSpent":     amount("Budget spent to date"),
			"notes":           str("Optional notes"),
		},
		Required: []string{"projectId", "progressDate", "plannedProgress", "actualProgress", "budgetSpent"},
	}
}

func (t *RecordProgressTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID string `json:"projectId"`
		project.RecordProgressRequest
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.ProjectID == "" {
		return nil, errors.NewValidationError("projectId is required")
	}

	if _, err := t.projects.RecordProgress(ctx, args.ProjectID, &args.RecordProgressRequest); err != nil {
		return nil, err
	}
	insights, err := t.projects.ProgressInsights(ctx, args.ProjectID)
	if err != nil {
		return nil, err
	}
	return jsonResult("Progress recorded, project health "+insights.HealthStatus, insights)
}
