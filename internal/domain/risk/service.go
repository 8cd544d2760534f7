package risk

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/project"
)

// OverdueCounter counts a project's invoices that are overdue on asOf
type OverdueCounter interface {
	CountOverdue(ctx context.Context, projectID string, asOf time.Time) (int, error)
}

// Service scores projects and keeps the risk audit trail
type Service struct {
	projects ProjectReader
	overdue  OverdueCounter
	logs     LogRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new risk service
func NewService(projects ProjectReader, overdue OverdueCounter, logs LogRepository, logger *zap.Logger) *Service {
	return &Service{
		projects: projects,
		overdue:  overdue,
		logs:     logs,
		logger:   logger.Named("risk"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ScoreProject scores one project and appends the result to its risk log
func (s *Service) ScoreProject(ctx context.Context, projectID string) (*ProjectRisk, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pr, err := s.score(ctx, p, now)
	if err != nil {
		return nil, err
	}

	entry := &Log{
		LogID:        ulid.Make().String(),
		ProjectID:    p.ProjectID,
		Score:        pr.Score,
		Level:        pr.Level,
		Factors:      pr.Factors,
		CalculatedAt: now,
	}
	if err := s.logs.AppendRiskLog(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("project risk scored",
		zap.String("projectId", p.ProjectID),
		zap.Int("score", pr.Score),
		zap.String("level", string(pr.Level)),
		zap.Int("factors", len(pr.Factors)))

	return pr, nil
}

// ScoreActiveProjects scores every Planning, Active or On Hold project without logging
func (s *Service) ScoreActiveProjects(ctx context.Context) ([]*ProjectRisk, error) {
	projects, err := s.projects.ListProjects(ctx, project.OpenStatuses)
	if err != nil {
		return nil, err
	}

	now := s.now()
	risks := make([]*ProjectRisk, 0, len(projects))
	for _, p := range projects {
		pr, err := s.score(ctx, p, now)
		if err != nil {
			return nil, err
		}
		risks = append(risks, pr)
	}
	return risks, nil
}

// History returns the risk logs of a project, newest first
func (s *Service) History(ctx context.Context, projectID string) ([]*Log, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.logs.ListRiskLogs(ctx, projectID)
}

func (s *Service) score(ctx context.Context, p *project.Project, asOf time.Time) (*ProjectRisk, error) {
	overdue, err := s.overdue.CountOverdue(ctx, p.ProjectID, asOf)
	if err != nil {
		return nil, err
	}
	return &ProjectRisk{
		ProjectID:   p.ProjectID,
		ProjectCode: p.ProjectCode,
		ProjectName: p.ProjectName,
		Result:      Score(SnapshotOf(p, overdue)),
	}, nil
}
