package postgres

import (
	"context"

	"github.com/hirosato/construction-erp/internal/domain/risk"
)

func (s *Store) AppendRiskLog(ctx context.Context, l *risk.Log) error {
	row, err := newRiskLogRow(l)
	if err != nil {
		return s.internal("failed to encode risk factors", err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return s.internal("failed to append risk log", err)
	}
	return nil
}

func (s *Store) ListRiskLogs(ctx context.Context, projectID string) ([]*risk.Log, error) {
	var rows []riskLogRow
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("calculated_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, s.internal("failed to list risk logs", err)
	}

	result := make([]*risk.Log, 0, len(rows))
	for _, row := range rows {
		l, err := row.toDomain()
		if err != nil {
			return nil, s.internal("failed to decode risk factors", err)
		}
		result = append(result, l)
	}
	return result, nil
}
