package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/forecast"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
	"github.com/hirosato/construction-erp/internal/domain/risk"
)

type ScoreProjectRiskTool struct {
	risks *risk.Service
}

func NewScoreProjectRiskTool(risks *risk.Service) *ScoreProjectRiskTool {
	return &ScoreProjectRiskTool{risks: risks}
}

func (t *ScoreProjectRiskTool) GetName() string { return "score-project-risk" }

func (t *ScoreProjectRiskTool) GetDescription() string {
	return "Scores a project's risk from budget usage, schedule delay, overdue invoices and status, " +
		"records the result in the risk history and returns recommendations"
}

func (t *ScoreProjectRiskTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type:       "object",
		Properties: map[string]interface{}{"projectId": str("Project id")},
		Required:   []string{"projectId"},
	}
}

func (t *ScoreProjectRiskTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		ProjectID string `json:"projectId"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.ProjectID == "" {
		return nil, errors.NewValidationError("projectId is required")
	}

	result, err := t.risks.ScoreProject(ctx, args.ProjectID)
	if err != nil {
		return nil, err
	}
	return jsonResult(fmt.Sprintf("Risk %d (%s)", result.Score, result.Level), result)
}

type ListProjectRisksTool struct {
	risks *risk.Service
}

func NewListProjectRisksTool(risks *risk.Service) *ListProjectRisksTool {
	return &ListProjectRisksTool{risks: risks}
}

func (t *ListProjectRisksTool) GetName() string { return "list-project-risks" }

func (t *ListProjectRisksTool) GetDescription() string {
	return "Scores every Planning, Active and On Hold project, highest risk first, without recording history"
}

func (t *ListProjectRisksTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{Type: "object"}
}

func (t *ListProjectRisksTool) Execute(ctx context.Context, _ json.RawMessage) (*mcp.CallToolResult, error) {
	risks, err := t.risks.ScoreActiveProjects(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(fmt.Sprintf("%d open projects", len(risks)), risks)
}

type ForecastCashFlowTool struct {
	forecasts     *forecast.Service
	defaultMonths int
}

func NewForecastCashFlowTool(forecasts *forecast.Service, defaultMonths int) *ForecastCashFlowTool {
	return &ForecastCashFlowTool{forecasts: forecasts, defaultMonths: defaultMonths}
}

func (t *ForecastCashFlowTool) GetName() string { return "forecast-cash-flow" }

func (t *ForecastCashFlowTool) GetDescription() string {
	return "Projects monthly cash inflow and outflow from recorded payments using average and trend, " +
		"optionally with optimistic and pessimistic scenarios"
}

func (t *ForecastCashFlowTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"months":    integer(fmt.Sprintf("Months to project, 1 to %d; defaults to %d", forecast.MaxForecastMonths, t.defaultMonths)),
			"scenarios": map[string]interface{}{"type": "boolean", "description": "Include optimistic and pessimistic scenarios"},
		},
	}
}

func (t *ForecastCashFlowTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Months    int  `json:"months"`
		Scenarios bool `json:"scenarios"`
	}
	if err := parseArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.Months == 0 {
		args.Months = t.defaultMonths
	}

	report, err := t.forecasts.ForecastCashFlow(ctx, args.Months, args.Scenarios)
	if err != nil {
		return nil, err
	}
	if report.Forecast.InsufficientData {
		return jsonResult(report.Forecast.Message, report)
	}
	return jsonResult("Cash flow forecast", report)
}
