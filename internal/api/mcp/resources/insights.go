package resources

import (
	"context"

	"github.com/hirosato/construction-erp/internal/domain/mcp"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/statement"
)

// ProjectsResource lists projects; erp://projects/{id} reads a project's health insights
type ProjectsResource struct {
	projects *project.Service
}

func NewProjectsResource(projects *project.Service) *ProjectsResource {
	return &ProjectsResource{projects: projects}
}

func (r *ProjectsResource) GetURI() string  { return "erp://projects" }
func (r *ProjectsResource) GetName() string { return "Projects" }
func (r *ProjectsResource) GetDescription() string {
	return "Construction projects with budget and progress; erp://projects/{id} reads health insights"
}
func (r *ProjectsResource) GetMimeType() string { return mimeJSON }

func (r *ProjectsResource) Read(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if id := childID(r.GetURI(), uri); id != "" {
		insights, err := r.projects.ProgressInsights(ctx, id)
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, insights)
	}

	projects, err := r.projects.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, map[string]interface{}{"projects": projects, "count": len(projects)})
}

type BalanceSheetResource struct {
	statements *statement.Service
}

func NewBalanceSheetResource(statements *statement.Service) *BalanceSheetResource {
	return &BalanceSheetResource{statements: statements}
}

func (r *BalanceSheetResource) GetURI() string         { return "erp://reports/balance-sheet" }
func (r *BalanceSheetResource) GetName() string        { return "Balance sheet" }
func (r *BalanceSheetResource) GetDescription() string { return "Balance sheet from current account balances" }
func (r *BalanceSheetResource) GetMimeType() string    { return mimeJSON }

func (r *BalanceSheetResource) Read(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	sheet, err := r.statements.BalanceSheet(ctx, "")
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, sheet)
}
