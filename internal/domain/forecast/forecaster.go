package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/errors"
)

// MaxForecastMonths bounds how far ahead a forecast may reach
const MaxForecastMonths = 24

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	optimisticInflow   = decimal.RequireFromString("1.2")
	optimisticOutflow  = decimal.RequireFromString("0.9")
	pessimisticInflow  = decimal.RequireFromString("0.8")
	pessimisticOutflow = decimal.RequireFromString("1.1")
)

// Forecast extrapolates history, ordered most recent first, over the given
// number of months. Less than MinHistoryMonths of history yields an
// InsufficientData result rather than an error.
func Forecast(history []HistoricalMonth, months int) (Result, error) {
	if months < 1 || months > MaxForecastMonths {
		return Result{}, errors.NewValidationError(fmt.Sprintf("months must be between 1 and %d", MaxForecastMonths))
	}
	if len(history) < MinHistoryMonths {
		return Result{
			InsufficientData: true,
			Message:          InsufficientDataMessage,
			Forecast:         []MonthForecast{},
		}, nil
	}

	latest, err := parseMonth(history[0].Month)
	if err != nil {
		return Result{}, err
	}

	n := decimal.NewFromInt(int64(len(history)))
	totalIn, totalOut := decimal.Zero, decimal.Zero
	for _, h := range history {
		totalIn = totalIn.Add(h.Inflow)
		totalOut = totalOut.Add(h.Outflow)
	}
	avgIn := totalIn.Div(n)
	avgOut := totalOut.Div(n)

	newest, oldest := history[0], history[len(history)-1]
	inTrend := trend(newest.Inflow, oldest.Inflow, n)
	outTrend := trend(newest.Outflow, oldest.Outflow, n)

	result := Result{
		Forecast:       make([]MonthForecast, 0, months),
		AverageInflow:  avgIn,
		AverageOutflow: avgOut,
		AverageNetFlow: avgIn.Sub(avgOut),
		Trends: &Trends{
			InflowTrend:  inTrend.Mul(hundred).StringFixed(2) + "%",
			OutflowTrend: outTrend.Mul(hundred).StringFixed(2) + "%",
		},
	}

	for i := 1; i <= months; i++ {
		step := decimal.NewFromInt(int64(i))
		in := avgIn.Mul(one.Add(inTrend.Mul(step)))
		out := avgOut.Mul(one.Add(outTrend.Mul(step)))
		result.Forecast = append(result.Forecast, MonthForecast{
			Month:            latest.AddDate(0, i, 0).Format(utils.MonthLayout),
			ProjectedInflow:  in.Round(2),
			ProjectedOutflow: out.Round(2),
			ProjectedNetFlow: in.Sub(out).Round(2),
			Confidence:       Confidence(len(history), i),
		})
	}

	return result, nil
}

// GenerateScenarios derives optimistic and pessimistic variants from the base forecast
func GenerateScenarios(history []HistoricalMonth, months int) (Scenarios, error) {
	base, err := Forecast(history, months)
	if err != nil {
		return Scenarios{}, err
	}
	if base.InsufficientData {
		return Scenarios{InsufficientData: true, Message: base.Message}, nil
	}

	return Scenarios{
		Base:        base.Forecast,
		Optimistic:  scale(base.Forecast, optimisticInflow, optimisticOutflow),
		Pessimistic: scale(base.Forecast, pessimisticInflow, pessimisticOutflow),
	}, nil
}

// Confidence is the percentage confidence of the forecast step months ahead
// given historyMonths of data: min(90, 10n) − 10i, floored at 40.
func Confidence(historyMonths, step int) int {
	base := historyMonths * 10
	if base > 90 {
		base = 90
	}
	c := base - step*10
	if c < 40 {
		return 40
	}
	return c
}

func trend(newest, oldest, n decimal.Decimal) decimal.Decimal {
	divisor := oldest
	if divisor.IsZero() {
		divisor = one
	}
	return newest.Sub(oldest).Div(divisor).Div(n)
}

func scale(base []MonthForecast, inFactor, outFactor decimal.Decimal) []MonthForecast {
	out := make([]MonthForecast, len(base))
	for i, f := range base {
		in := f.ProjectedInflow.Mul(inFactor)
		outflow := f.ProjectedOutflow.Mul(outFactor)
		out[i] = MonthForecast{
			Month:            f.Month,
			ProjectedInflow:  in.Round(2),
			ProjectedOutflow: outflow.Round(2),
			ProjectedNetFlow: in.Sub(outflow).Round(2),
			Confidence:       f.Confidence,
		}
	}
	return out
}

// parseMonth accepts YYYY-MM or a full YYYY-MM-DD date
func parseMonth(s string) (time.Time, error) {
	if len(s) >= len(utils.MonthLayout) {
		if t, err := time.Parse(utils.MonthLayout, s[:len(utils.MonthLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewValidationError(fmt.Sprintf("invalid month %q, should be YYYY-MM", s))
}
