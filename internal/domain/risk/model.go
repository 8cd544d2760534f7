package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/domain/project"
)

// Level is the risk band a score falls in
type Level string

const (
	Low      Level = "Low"
	Medium   Level = "Medium"
	High     Level = "High"
	Critical Level = "Critical"
)

// Snapshot is the project state a risk score is computed from
type Snapshot struct {
	Budget          decimal.Decimal
	Spent           decimal.Decimal
	PlannedProgress decimal.Decimal // percent
	ActualProgress  decimal.Decimal // percent
	Status          project.Status
	OverdueInvoices int
}

// SnapshotOf builds a snapshot from a project and its overdue invoice count
func SnapshotOf(p *project.Project, overdueInvoices int) Snapshot {
	return Snapshot{
		Budget:          p.Budget,
		Spent:           p.Spent,
		PlannedProgress: p.PlannedProgress,
		ActualProgress:  p.ActualProgress,
		Status:          p.Status,
		OverdueInvoices: overdueInvoices,
	}
}

// Factor is one triggered risk factor with its share of the score
type Factor struct {
	Factor      string `json:"factor"`
	Score       int    `json:"score"`
	Description string `json:"description"`
}

// Result is the outcome of scoring one snapshot
type Result struct {
	Score           int      `json:"riskScore"`
	Level           Level    `json:"riskLevel"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// ProjectRisk is a result attributed to a project
type ProjectRisk struct {
	ProjectID   string `json:"projectId"`
	ProjectCode string `json:"projectCode"`
	ProjectName string `json:"projectName"`
	Result
}

// Log is an immutable record of a risk calculation
type Log struct {
	LogID        string    `json:"logId"`
	ProjectID    string    `json:"projectId"`
	Score        int       `json:"riskScore"`
	Level        Level     `json:"riskLevel"`
	Factors      []Factor  `json:"factors"`
	CalculatedAt time.Time `json:"calculatedAt"`
}
