package project

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/pkg/validator"
)

// insightHistoryLimit is how many progress records ProgressInsights returns
const insightHistoryLimit = 10

var hundred = decimal.NewFromInt(100)

// Service provides project-related business logic
type Service struct {
	repo      Repository
	logger    *zap.Logger
	validator validator.Validator
	now       func() time.Time
}

// NewService creates a new project service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger.Named("project"),
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateProject creates a project with nothing spent and no progress
func (s *Service) CreateProject(ctx context.Context, req *CreateProjectRequest) (*Project, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := utils.ValidateCode(req.ProjectCode, "project code"); err != nil {
		return nil, err
	}
	if err := utils.ValidateNonNegative(req.Budget, "budget"); err != nil {
		return nil, err
	}
	start, err := utils.ParseOptionalISODate(req.StartDate, "start date")
	if err != nil {
		return nil, err
	}
	end, err := utils.ParseOptionalISODate(req.EndDate, "end date")
	if err != nil {
		return nil, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, errors.NewValidationError("end date must not be before the start date")
	}

	status := Planning
	if req.Status != "" {
		st, ok := ParseStatus(req.Status)
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("unknown project status %q", req.Status))
		}
		status = st
	}

	now := s.now()
	p := &Project{
		ProjectID:       uuid.New().String(),
		ProjectCode:     req.ProjectCode,
		ProjectName:     strings.TrimSpace(req.ProjectName),
		CustomerID:      req.CustomerID,
		Location:        req.Location,
		Description:     req.Description,
		Status:          status,
		Budget:          req.Budget,
		Spent:           decimal.Zero,
		PlannedProgress: decimal.Zero,
		ActualProgress:  decimal.Zero,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CreatedBy:       auth.ActorFromContext(ctx),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("projectId", p.ProjectID),
		zap.String("code", p.ProjectCode),
		zap.String("budget", p.Budget.StringFixed(2)))

	return p, nil
}

// GetProject retrieves a project by ID
func (s *Service) GetProject(ctx context.Context, projectID string) (*Project, error) {
	return s.repo.GetProject(ctx, projectID)
}

// ListProjects retrieves projects in any of the given statuses
func (s *Service) ListProjects(ctx context.Context, statuses ...Status) ([]*Project, error) {
	return s.repo.ListProjects(ctx, statuses)
}

// CheckProject returns a validation error when projectID does not name a project
func (s *Service) CheckProject(ctx context.Context, projectID string) error {
	_, err := s.repo.GetProject(ctx, projectID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return errors.NewValidationError(fmt.Sprintf("project %s does not exist", projectID))
	}
	return err
}

// UpdateStatus changes the delivery status of a project
func (s *Service) UpdateStatus(ctx context.Context, projectID, status string) (*Project, error) {
	st, ok := ParseStatus(status)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown project status %q", status))
	}

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == st {
		return p, nil
	}

	now := s.now()
	if err := s.repo.UpdateProjectStatus(ctx, projectID, st, now); err != nil {
		return nil, err
	}

	s.logger.Info("project status changed",
		zap.String("projectId", projectID),
		zap.String("from", string(p.Status)),
		zap.String("to", string(st)))

	p.Status = st
	p.UpdatedAt = now
	return p, nil
}

// RecordProgress appends a progress measurement and makes it the project's current snapshot
func (s *Service) RecordProgress(ctx context.Context, projectID string, req *RecordProgressRequest) (*Progress, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := utils.ParseISODate(req.ProgressDate, "progress date"); err != nil {
		return nil, err
	}
	for _, v := range []struct {
		field string
		value decimal.Decimal
	}{
		{"planned progress", req.PlannedProgress},
		{"actual progress", req.ActualProgress},
	} {
		if v.value.IsNegative() || v.value.GreaterThan(hundred) {
			return nil, errors.NewValidationError(v.field + " must be between 0 and 100")
		}
	}
	if err := utils.ValidateNonNegative(req.BudgetSpent, "budget spent"); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	progress := &Progress{
		ProgressID:      ulid.Make().String(),
		ProjectID:       projectID,
		ProgressDate:    req.ProgressDate,
		PlannedProgress: req.PlannedProgress,
		ActualProgress:  req.ActualProgress,
		BudgetSpent:     req.BudgetSpent,
		Notes:           req.Notes,
		CreatedBy:       auth.ActorFromContext(ctx),
		CreatedAt:       s.now(),
	}
	if err := s.repo.RecordProgress(ctx, progress); err != nil {
		return nil, err
	}

	s.logger.Info("project progress recorded",
		zap.String("projectId", projectID),
		zap.String("planned", progress.PlannedProgress.String()),
		zap.String("actual", progress.ActualProgress.String()))

	return progress, nil
}

// ProgressInsights assesses the schedule and budget health of a project
func (s *Service) ProgressInsights(ctx context.Context, projectID string) (*Insights, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListProgress(ctx, projectID, insightHistoryLimit)
	if err != nil {
		return nil, err
	}

	insights := Assess(p)
	insights.ProgressHistory = history
	return insights, nil
}

// Assess computes the health of a project from its current snapshot. The
// score starts at 100 and loses 40 or 20 points for each of progress lag and
// budget overrun. The status is the worst that either deviation reaches.
func Assess(p *Project) *Insights {
	progressDeviation := p.ActualProgress.Sub(p.PlannedProgress)
	usage := p.BudgetUsagePercent()
	budgetDeviation := usage.Sub(p.ActualProgress)

	score := 100
	status := HealthGood
	worsen := func(to string) {
		if to == HealthCritical || status == HealthGood {
			status = to
		}
	}

	switch {
	case progressDeviation.LessThan(decimal.NewFromInt(-10)):
		score -= 40
		worsen(HealthCritical)
	case progressDeviation.LessThan(decimal.NewFromInt(-5)):
		score -= 20
		worsen(HealthPoor)
	}
	switch {
	case budgetDeviation.GreaterThan(decimal.NewFromInt(15)):
		score -= 40
		worsen(HealthCritical)
	case budgetDeviation.GreaterThan(decimal.NewFromInt(10)):
		score -= 20
		worsen(HealthPoor)
	}
	if score < 0 {
		score = 0
	}

	return &Insights{
		ProjectID:    p.ProjectID,
		ProjectName:  p.ProjectName,
		HealthStatus: status,
		HealthScore:  score,
		Budget: BudgetMetrics{
			Total:        p.Budget,
			Spent:        p.Spent,
			Remaining:    p.Budget.Sub(p.Spent),
			UsagePercent: usage.StringFixed(2),
		},
		Progress: ProgressMetrics{
			Planned:   p.PlannedProgress,
			Actual:    p.ActualProgress,
			Deviation: progressDeviation.StringFixed(2),
		},
		Timeline: TimelineMetrics{
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			Status:    p.Status,
		},
		IsOnSchedule:    progressDeviation.GreaterThanOrEqual(decimal.NewFromInt(-5)),
		IsWithinBudget:  budgetDeviation.LessThanOrEqual(decimal.NewFromInt(10)),
		BudgetDeviation: budgetDeviation.StringFixed(2),
		ProgressHistory: []*Progress{},
	}
}
