package risk

import (
	"context"

	"github.com/hirosato/construction-erp/internal/domain/project"
)

// LogRepository stores the append-only risk audit trail. There is no update
// or delete.
type LogRepository interface {
	AppendRiskLog(ctx context.Context, l *Log) error

	// ListRiskLogs returns a project's logs, newest first
	ListRiskLogs(ctx context.Context, projectID string) ([]*Log, error)
}

// ProjectReader is the project data the scorer reads
type ProjectReader interface {
	GetProject(ctx context.Context, projectID string) (*project.Project, error)
	ListProjects(ctx context.Context, statuses []project.Status) ([]*project.Project, error)
}
