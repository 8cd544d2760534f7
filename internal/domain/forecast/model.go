package forecast

import "github.com/shopspring/decimal"

// MinHistoryMonths is the least history a forecast is computed from
const MinHistoryMonths = 3

// InsufficientDataMessage explains an InsufficientData result
const InsufficientDataMessage = "Insufficient historical data (minimum 3 months required)"

// HistoricalMonth is the observed cash movement of one calendar month
type HistoricalMonth struct {
	Month   string          `json:"month"` // YYYY-MM
	Inflow  decimal.Decimal `json:"cashInflow"`
	Outflow decimal.Decimal `json:"cashOutflow"`
	NetFlow decimal.Decimal `json:"netCashFlow"`
}

// MonthForecast is the projection for one future month
type MonthForecast struct {
	Month            string          `json:"month"` // YYYY-MM
	ProjectedInflow  decimal.Decimal `json:"projectedInflow"`
	ProjectedOutflow decimal.Decimal `json:"projectedOutflow"`
	ProjectedNetFlow decimal.Decimal `json:"projectedNetFlow"`
	Confidence       int             `json:"confidence"` // percent, 40..90
}

// Trends are the per-month growth rates used for the projection, as percentages
type Trends struct {
	InflowTrend  string `json:"inflowTrend"`
	OutflowTrend string `json:"outflowTrend"`
}

// Result is a base forecast. Callers must check InsufficientData first.
type Result struct {
	InsufficientData bool            `json:"insufficientData"`
	Message          string          `json:"message,omitempty"`
	Forecast         []MonthForecast `json:"forecast"`
	AverageInflow    decimal.Decimal `json:"averageInflow"`
	AverageOutflow   decimal.Decimal `json:"averageOutflow"`
	AverageNetFlow   decimal.Decimal `json:"averageNetFlow"`
	Trends           *Trends         `json:"trends,omitempty"`
}

// Scenarios pairs the base forecast with optimistic and pessimistic variants
type Scenarios struct {
	InsufficientData bool            `json:"insufficientData"`
	Message          string          `json:"message,omitempty"`
	Base             []MonthForecast `json:"base"`
	Optimistic       []MonthForecast `json:"optimistic"`
	Pessimistic      []MonthForecast `json:"pessimistic"`
}

// Report is what the forecasting service returns: the history used plus the projection
type Report struct {
	Historical []HistoricalMonth `json:"historical"` // oldest first
	Forecast   Result            `json:"forecast"`
	Scenarios  *Scenarios        `json:"scenarios,omitempty"`
}
