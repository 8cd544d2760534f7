package project

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the delivery state of a construction project
type Status string

const (
	Planning  Status = "Planning"
	Active    Status = "Active"
	OnHold    Status = "On Hold"
	Completed Status = "Completed"
	Cancelled Status = "Cancelled"
)

// Statuses lists every project status
var Statuses = []Status{Planning, Active, OnHold, Completed, Cancelled}

// OpenStatuses are the statuses of projects still being delivered
var OpenStatuses = []Status{Planning, Active, OnHold}

// ParseStatus resolves a case-insensitive status name
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// Project is a construction project with its budget and progress snapshot.
// Progress values are percentages.
type Project struct {
	ProjectID       string          `json:"projectId"`
	ProjectCode     string          `json:"projectCode"`
	ProjectName     string          `json:"projectName"`
	CustomerID      string          `json:"customerId,omitempty"`
	Location        string          `json:"location,omitempty"`
	Description     string          `json:"description,omitempty"`
	Status          Status          `json:"status"`
	Budget          decimal.Decimal `json:"budget"`
	Spent           decimal.Decimal `json:"spent"`
	PlannedProgress decimal.Decimal `json:"plannedProgress"`
	ActualProgress  decimal.Decimal `json:"actualProgress"`
	StartDate       string          `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate         string          `json:"endDate,omitempty"`   // YYYY-MM-DD
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// BudgetUsagePercent is spent as a percentage of budget, zero when there is no budget
func (p *Project) BudgetUsagePercent() decimal.Decimal {
	if !p.Budget.IsPositive() {
		return decimal.Zero
	}
	return p.Spent.Div(p.Budget).Mul(decimal.NewFromInt(100))
}

// Progress is one recorded progress measurement
type Progress struct {
	ProgressID      string          `json:"progressId"`
	ProjectID       string          `json:"projectId"`
	ProgressDate    string          `json:"progressDate"` // YYYY-MM-DD
	PlannedProgress decimal.Decimal `json:"plannedProgress"`
	ActualProgress  decimal.Decimal `json:"actualProgress"`
	BudgetSpent     decimal.Decimal `json:"budgetSpent"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// CreateProjectRequest represents the data needed to create a project
type CreateProjectRequest struct {
	ProjectCode string          `json:"projectCode" validate:"required|maxLen:64"`
	ProjectName string          `json:"projectName" validate:"required|maxLen:200"`
	CustomerID  string          `json:"customerId,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
	StartDate   string          `json:"startDate,omitempty"`
	EndDate     string          `json:"endDate,omitempty"`
	Location    string          `json:"location,omitempty"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status,omitempty"`
}

// RecordProgressRequest is a progress measurement for a project
type RecordProgressRequest struct {
	ProgressDate    string          `json:"progressDate" validate:"required"`
	PlannedProgress decimal.Decimal `json:"plannedProgress"`
	ActualProgress  decimal.Decimal `json:"actualProgress"`
	BudgetSpent     decimal.Decimal `json:"budgetSpent"`
	Notes           string          `json:"notes,omitempty"`
}

// Health statuses reported by ProgressInsights
const (
	HealthGood     = "Good"
	HealthPoor     = "Poor"
	HealthCritical = "Critical"
)

// BudgetMetrics summarises budget consumption
type BudgetMetrics struct {
	Total        decimal.Decimal `json:"total"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	UsagePercent string          `json:"usagePercent"`
}

// ProgressMetrics compares planned and actual progress
type ProgressMetrics struct {
	Planned   decimal.Decimal `json:"planned"`
	Actual    decimal.Decimal `json:"actual"`
	Deviation string          `json:"deviation"`
}

// TimelineMetrics is the schedule of the project
type TimelineMetrics struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Status    Status `json:"status"`
}

// Insights is the health assessment of a project
type Insights struct {
	ProjectID       string          `json:"projectId"`
	ProjectName     string          `json:"projectName"`
	HealthStatus    string          `json:"healthStatus"`
	HealthScore     int             `json:"healthScore"`
	Budget          BudgetMetrics   `json:"budget"`
	Progress        ProgressMetrics `json:"progress"`
	Timeline        TimelineMetrics `json:"timeline"`
	IsOnSchedule    bool            `json:"isOnSchedule"`
	IsWithinBudget  bool            `json:"isWithinBudget"`
	BudgetDeviation string          `json:"budgetDeviation"`
	ProgressHistory []*Progress     `json:"progressHistory"`
}
