package project

import (
	"context"

	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/event"
)

// BudgetUpdater consumes InvoiceCreatedForProject and adds the invoice total
// to the project's spent amount
type BudgetUpdater struct {
	repo   Repository
	logger *zap.Logger
}

// NewBudgetUpdater creates a handler for project spend events
func NewBudgetUpdater(repo Repository, logger *zap.Logger) *BudgetUpdater {
	return &BudgetUpdater{repo: repo, logger: logger.Named("budget_updater")}
}

// Subscribe registers the updater on bus
func (u *BudgetUpdater) Subscribe(bus *event.Bus) {
	bus.Subscribe(event.InvoiceCreatedForProjectName, u.Handle)
}

// Handle applies one event. Events of other types are ignored.
func (u *BudgetUpdater) Handle(ctx context.Context, e event.Event) error {
	evt, ok := e.(event.InvoiceCreatedForProject)
	if !ok {
		return nil
	}

	if err := u.repo.AddSpent(ctx, evt.ProjectID, evt.Amount, evt.OccurredAt); err != nil {
		return err
	}

	u.logger.Info("project spend increased",
		zap.String("projectId", evt.ProjectID),
		zap.String("invoiceId", evt.InvoiceID),
		zap.String("amount", evt.Amount.StringFixed(2)))
	return nil
}
