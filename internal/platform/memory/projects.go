package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/project"
)

func (s *Store) CreateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.projectCodes[p.ProjectCode]; taken {
		return errors.NewDuplicateCodeError("projectCode", p.ProjectCode)
	}
	stored := *p
	s.projects[p.ProjectID] = &stored
	s.projectCodes[p.ProjectCode] = p.ProjectID
	return nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("project %s not found", projectID))
	}
	out := *p
	return &out, nil
}

func (s *Store) ListProjects(_ context.Context, statuses []project.Status) ([]*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*project.Project, 0)
	for _, p := range s.projects {
		if hasStatus(statuses, p.Status) {
			out := *p
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ProjectCode < result[j].ProjectCode
	})
	return result, nil
}

func hasStatus(statuses []project.Status, st project.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s *Store) UpdateProjectStatus(_ context.Context, projectID string, status project.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("project %s not found", projectID))
	}
	p.Status = status
	p.UpdatedAt = at
	return nil
}

func (s *Store) AddSpent(_ context.Context, projectID string, amount decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("project %s not found", projectID))
	}
	p.Spent = p.Spent.Add(amount)
	p.UpdatedAt = at
	return nil
}

func (s *Store) RecordProgress(_ context.Context, pr *project.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[pr.ProjectID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("project %s not found", pr.ProjectID))
	}
	stored := *pr
	s.progress[pr.ProjectID] = append(s.progress[pr.ProjectID], &stored)
	p.PlannedProgress = pr.PlannedProgress
	p.ActualProgress = pr.ActualProgress
	p.Spent = pr.BudgetSpent
	p.UpdatedAt = pr.CreatedAt
	return nil
}

func (s *Store) ListProgress(_ context.Context, projectID string, limit int) ([]*project.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.progress[projectID]
	result := make([]*project.Progress, 0, len(records))
	for _, pr := range records {
		out := *pr
		result = append(result, &out)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].ProgressDate != result[j].ProgressDate {
			return result[i].ProgressDate > result[j].ProgressDate
		}
		return result[i].ProgressID > result[j].ProgressID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
