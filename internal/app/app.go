// Package app wires the storage backend, the event bus and the domain services
// shared by the MCP, REST and CLI entry points.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	envconfig "github.com/hirosato/construction-erp/internal/common/config"
	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/event"
	"github.com/hirosato/construction-erp/internal/domain/forecast"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/risk"
	"github.com/hirosato/construction-erp/internal/domain/statement"
	"github.com/hirosato/construction-erp/internal/platform/secrets"
)

// App holds the configured services
type App struct {
	Config *envconfig.Config
	Logger *zap.Logger

	Accounts   *account.Service
	Journal    *journal.Service
	Invoices   *invoice.Service
	Projects   *project.Service
	Risks      *risk.Service
	Forecasts  *forecast.Service
	Statements *statement.Service

	close func() error
}

// New resolves secrets, opens the configured store and builds the services
func New(ctx context.Context, cfg *envconfig.Config, logger *zap.Logger) (*App, error) {
	if cfg.JWTSecretID != "" {
		source, err := secrets.NewCachedSource(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("secrets manager: %w", err)
		}
		if err := secrets.ResolveJWTSecret(cfg, source, logger); err != nil {
			return nil, err
		}
	}

	repos, err := OpenRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := NewWithRepositories(cfg, repos, logger)
	logger.Info("application initialized",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver))
	return a, nil
}

// NewWithRepositories builds the services over already opened repositories
func NewWithRepositories(cfg *envconfig.Config, repos *Repositories, logger *zap.Logger) *App {
	bus := event.NewBus()
	project.NewBudgetUpdater(repos.Projects, logger).Subscribe(bus)

	projects := project.NewService(repos.Projects, logger)
	invoices := invoice.NewService(repos.Invoices, projects, bus, logger, cfg.DefaultCurrency)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Accounts:   account.NewService(repos.Accounts, logger, cfg.DefaultCurrency),
		Journal:    journal.NewService(repos.Journal, repos.Accounts, logger),
		Invoices:   invoices,
		Projects:   projects,
		Risks:      risk.NewService(repos.Projects, invoices, repos.RiskLogs, logger),
		Forecasts:  forecast.NewService(invoices, cfg.ForecastHistoryMonths, logger),
		Statements: statement.NewService(repos.Accounts, repos.Journal, invoices, logger),
		close:      repos.Close,
	}
}

// Close releases the store connection
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
