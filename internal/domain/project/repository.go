package project

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for project data operations
type Repository interface {
	// CreateProject stores a new project. Fails with DUPLICATE_CODE when the code is taken.
	CreateProject(ctx context.Context, p *Project) error

	// GetProject returns a project by ID or NOT_FOUND
	GetProject(ctx context.Context, projectID string) (*Project, error)

	// ListProjects returns projects in any of statuses, newest first. No statuses means all.
	ListProjects(ctx context.Context, statuses []Status) ([]*Project, error)

	// UpdateProjectStatus persists a status change
	UpdateProjectStatus(ctx context.Context, projectID string, status Status, at time.Time) error

	// AddSpent atomically increments the project's spent amount
	AddSpent(ctx context.Context, projectID string, amount decimal.Decimal, at time.Time) error

	// RecordProgress appends a progress record and overwrites the project's
	// progress and spent snapshot in one atomic unit
	RecordProgress(ctx context.Context, p *Progress) error

	// ListProgress returns the newest progress records of a project, at most limit
	ListProgress(ctx context.Context, projectID string, limit int) ([]*Progress, error)
}
