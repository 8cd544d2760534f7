package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	history  []HistoricalMonth
	from, to time.Time
}

func (s *stubSource) MonthlyCashFlow(ctx context.Context, from, to time.Time) ([]HistoricalMonth, error) {
	s.from, s.to = from, to
	return s.history, nil
}

func TestService_ForecastCashFlow(t *testing.T) {
	t.Run("looks back the configured months and returns history oldest first", func(t *testing.T) {
		// Setup
		src := &stubSource{history: []HistoricalMonth{
			month("2025-06", 300, 100),
			month("2025-05", 200, 100),
			month("2025-04", 100, 100),
		}}
		svc := NewService(src, 6, zap.NewNop())
		svc.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

		// Act
		report, err := svc.ForecastCashFlow(context.Background(), 3, true)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), src.from)
		assert.Equal(t, "2025-04", report.Historical[0].Month)
		assert.Equal(t, "2025-06", report.Historical[2].Month)
		assert.Len(t, report.Forecast.Forecast, 3)
		require.NotNil(t, report.Scenarios)
		assert.Len(t, report.Scenarios.Optimistic, 3)
	})

	t.Run("insufficient history is reported not failed", func(t *testing.T) {
		svc := NewService(&stubSource{}, 6, zap.NewNop())

		report, err := svc.ForecastCashFlow(context.Background(), 3, false)

		require.NoError(t, err)
		assert.True(t, report.Forecast.InsufficientData)
		assert.Nil(t, report.Scenarios)
	})
}
