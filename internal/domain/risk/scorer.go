package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/domain/project"
)

// MaxScore caps the additive score
const MaxScore = 100

var hundred = decimal.NewFromInt(100)

// Score maps a snapshot to a risk score, level and explanation. Each factor
// is evaluated independently and contributes at most one band.
func Score(s Snapshot) Result {
	score := 0
	factors := []Factor{}
	recommendations := []string{}

	add := func(f Factor, recs ...string) {
		score += f.Score
		factors = append(factors, f)
		recommendations = append(recommendations, recs...)
	}

	usage := decimal.Zero
	if s.Budget.IsPositive() {
		usage = s.Spent.Div(s.Budget).Mul(hundred)
	}
	progress := s.ActualProgress
	usageText := usage.StringFixed(1)

	switch {
	case usage.GreaterThan(progress.Add(decimal.NewFromInt(30))):
		add(Factor{
			Factor:      "Critical Budget Overrun",
			Score:       40,
			Description: fmt.Sprintf("Spent %s%% of budget with only %s%% progress", usageText, progress.String()),
		}, "Immediate budget review required", "Consider scope reduction or additional funding")
	case usage.GreaterThan(progress.Add(decimal.NewFromInt(20))):
		add(Factor{
			Factor:      "High Budget Usage",
			Score:       30,
			Description: fmt.Sprintf("Budget usage (%s%%) exceeds progress (%s%%)", usageText, progress.String()),
		}, "Monitor spending closely")
	case usage.GreaterThan(progress.Add(decimal.NewFromInt(10))):
		add(Factor{
			Factor:      "Moderate Budget Concern",
			Score:       15,
			Description: "Budget usage slightly ahead of progress",
		})
	}

	delay := s.PlannedProgress.Sub(progress)
	switch {
	case delay.GreaterThan(decimal.NewFromInt(20)):
		add(Factor{
			Factor:      "Severe Schedule Delay",
			Score:       30,
			Description: fmt.Sprintf("Project is %s%% behind schedule", delay.StringFixed(1)),
		}, "Increase resources or adjust timeline")
	case delay.GreaterThan(decimal.NewFromInt(10)):
		add(Factor{
			Factor:      "Schedule Delay",
			Score:       20,
			Description: fmt.Sprintf("Behind schedule by %s%%", delay.StringFixed(1)),
		}, "Review project timeline and milestones")
	case delay.GreaterThan(decimal.NewFromInt(5)):
		add(Factor{
			Factor:      "Minor Schedule Concern",
			Score:       10,
			Description: "Slightly behind schedule",
		})
	}

	switch n := s.OverdueInvoices; {
	case n > 5:
		add(Factor{
			Factor:      "Multiple Overdue Invoices",
			Score:       20,
			Description: fmt.Sprintf("%d overdue invoices", n),
		}, "Address payment collection urgently")
	case n > 2:
		add(Factor{
			Factor:      "Overdue Invoices",
			Score:       15,
			Description: fmt.Sprintf("%d overdue invoices", n),
		}, "Follow up on outstanding payments")
	case n > 0:
		add(Factor{
			Factor:      "Some Overdue Invoices",
			Score:       5,
			Description: fmt.Sprintf("%d overdue invoice(s)", n),
		})
	}

	if s.Status == project.OnHold {
		add(Factor{
			Factor:      "Project On Hold",
			Score:       10,
			Description: "Project is currently on hold",
		}, "Resume project or update status")
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Project is on track", "Continue monitoring key metrics")
	}

	if score > MaxScore {
		score = MaxScore
	}

	return Result{
		Score:           score,
		Level:           LevelFor(score),
		Factors:         factors,
		Recommendations: recommendations,
	}
}

// LevelFor maps a score to its risk level
func LevelFor(score int) Level {
	switch {
	case score >= 70:
		return Critical
	case score >= 50:
		return High
	case score >= 30:
		return Medium
	default:
		return Low
	}
}
