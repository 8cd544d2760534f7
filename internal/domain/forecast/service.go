package forecast

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HistorySource supplies observed monthly cash flow, most recent month first
type HistorySource interface {
	MonthlyCashFlow(ctx context.Context, from, to time.Time) ([]HistoricalMonth, error)
}

// Service forecasts cash flow from recorded payments
type Service struct {
	source        HistorySource
	historyMonths int
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a forecasting service that looks back historyMonths months
func NewService(source HistorySource, historyMonths int, logger *zap.Logger) *Service {
	return &Service{
		source:        source,
		historyMonths: historyMonths,
		logger:        logger.Named("forecast"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ForecastCashFlow projects the next months from the recorded history
func (s *Service) ForecastCashFlow(ctx context.Context, months int, withScenarios bool) (*Report, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(s.historyMonths - 1), 0)

	history, err := s.source.MonthlyCashFlow(ctx, from, now)
	if err != nil {
		return nil, err
	}

	result, err := Forecast(history, months)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Historical: oldestFirst(history),
		Forecast:   result,
	}
	if withScenarios {
		scenarios, err := GenerateScenarios(history, months)
		if err != nil {
			return nil, err
		}
		report.Scenarios = &scenarios
	}

	s.logger.Info("cash flow forecast generated",
		zap.Int("historyMonths", len(history)),
		zap.Int("months", months),
		zap.Bool("insufficientData", result.InsufficientData))

	return report, nil
}

func oldestFirst(history []HistoricalMonth) []HistoricalMonth {
	out := make([]HistoricalMonth, len(history))
	for i, h := range history {
		out[len(history)-1-i] = h
	}
	return out
}
