package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/project"
)

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	row := newProjectRow(p)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&projectRow{}).Where("project_code = ?", p.ProjectCode).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return commonErrors.NewDuplicateCodeError("projectCode", p.ProjectCode)
		}
		return tx.Create(&row).Error
	})
	if isUniqueViolation(err) {
		return commonErrors.NewDuplicateCodeError("projectCode", p.ProjectCode)
	}
	if err != nil {
		return s.passThrough("failed to create project", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	var row projectRow
	err := s.db.WithContext(ctx).Where("id = ?", projectID).First(&row).Error
	if isNotFound(err) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("project %s not found", projectID))
	}
	if err != nil {
		return nil, s.internal("failed to get project", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListProjects(ctx context.Context, statuses []project.Status) ([]*project.Project, error) {
	db := s.db.WithContext(ctx).Model(&projectRow{})
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, st := range statuses {
			values = append(values, string(st))
		}
		db = db.Where("status IN ?", values)
	}

	var rows []projectRow
	if err := db.Order("created_at DESC").Order("project_code").Find(&rows).Error; err != nil {
		return nil, s.internal("failed to list projects", err)
	}
	result := make([]*project.Project, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) UpdateProjectStatus(ctx context.Context, projectID string, status project.Status, at time.Time) error {
	return s.updateProject(s.db.WithContext(ctx), projectID, map[string]interface{}{
		"status":     string(status),
		"updated_at": at,
	})
}

// AddSpent increments spent in place so concurrent invoices never lose an update
func (s *Store) AddSpent(ctx context.Context, projectID string, amount decimal.Decimal, at time.Time) error {
	return s.updateProject(s.db.WithContext(ctx), projectID, map[string]interface{}{
		"spent":      gorm.Expr("spent + ?", amount),
		"updated_at": at,
	})
}

func (s *Store) updateProject(db *gorm.DB, projectID string, values map[string]interface{}) error {
	res := db.Model(&projectRow{}).Where("id = ?", projectID).Updates(values)
	if res.Error != nil {
		return s.internal("failed to update project", res.Error)
	}
	if res.RowsAffected == 0 {
		return commonErrors.NewNotFoundError(fmt.Sprintf("project %s not found", projectID))
	}
	return nil
}

// RecordProgress stores the snapshot and copies its figures onto the project
func (s *Store) RecordProgress(ctx context.Context, pr *project.Progress) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.updateProject(tx, pr.ProjectID, map[string]interface{}{
			"planned_progress": pr.PlannedProgress,
			"actual_progress":  pr.ActualProgress,
			"spent":            pr.BudgetSpent,
			"updated_at":       pr.CreatedAt,
		}); err != nil {
			return err
		}
		return tx.Create(&progressRow{
			ID:              pr.ProgressID,
			ProjectID:       pr.ProjectID,
			ProgressDate:    pr.ProgressDate,
			PlannedProgress: pr.PlannedProgress,
			ActualProgress:  pr.ActualProgress,
			BudgetSpent:     pr.BudgetSpent,
			Notes:           pr.Notes,
			CreatedBy:       pr.CreatedBy,
			CreatedAt:       pr.CreatedAt,
		}).Error
	})
	if err != nil {
		return s.passThrough("failed to record progress", err)
	}
	return nil
}

func (s *Store) ListProgress(ctx context.Context, projectID string, limit int) ([]*project.Progress, error) {
	db := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("progress_date DESC").Order("id DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var rows []progressRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, s.internal("failed to list progress", err)
	}
	result := make([]*project.Progress, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}
