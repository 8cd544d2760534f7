package memory

import (
	"context"
	"sort"

	"github.com/hirosato/construction-erp/internal/domain/risk"
)

func (s *Store) AppendRiskLog(_ context.Context, l *risk.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *l
	stored.Factors = append([]risk.Factor(nil), l.Factors...)
	s.riskLogs[l.ProjectID] = append(s.riskLogs[l.ProjectID], &stored)
	return nil
}

func (s *Store) ListRiskLogs(_ context.Context, projectID string) ([]*risk.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := s.riskLogs[projectID]
	result := make([]*risk.Log, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		l := logs[i]
		out := *l
		out.Factors = append([]risk.Factor(nil), l.Factors...)
		result = append(result, &out)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CalculatedAt.After(result[j].CalculatedAt)
	})
	return result, nil
}
