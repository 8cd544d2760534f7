package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	envconfig "github.com/hirosato/construction-erp/internal/common/config"
	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/risk"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/repository"
	"github.com/hirosato/construction-erp/internal/platform/memory"
	"github.com/hirosato/construction-erp/internal/platform/postgres"
)

// Repositories is one storage backend seen through the domain repository ports
type Repositories struct {
	Accounts account.Repository
	Journal  journal.Repository
	Invoices invoice.Repository
	Projects project.Repository
	RiskLogs risk.LogRepository

	// Close releases the backend; nil when there is nothing to release
	Close func() error
}

// MemoryRepositories serves every port from one in-memory store
func MemoryRepositories(store *memory.Store) *Repositories {
	return &Repositories{
		Accounts: store,
		Journal:  store,
		Invoices: store,
		Projects: store,
		RiskLogs: store,
	}
}

// OpenRepositories connects to the backend named by cfg.StoreDriver
func OpenRepositories(ctx context.Context, cfg *envconfig.Config, logger *zap.Logger) (*Repositories, error) {
	switch cfg.StoreDriver {
	case envconfig.StoreMemory:
		logger.Warn("using the in-memory store; data is lost on exit")
		return MemoryRepositories(memory.New()), nil

	case envconfig.StorePostgres:
		db, err := postgres.Open(cfg.Database.DSN(), logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		store := postgres.NewStore(db, logger)
		return &Repositories{
			Accounts: store,
			Journal:  store,
			Invoices: store,
			Projects: store,
			RiskLogs: store,
			Close:    sqlDB.Close,
		}, nil

	case envconfig.StoreDynamoDB:
		c, err := client.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint, logger)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		factory := repository.NewFactory(c, cfg.DynamoDBTableName, logger)
		return &Repositories{
			Accounts: factory.AccountRepository(),
			Journal:  factory.JournalRepository(),
			Invoices: factory.InvoiceRepository(),
			Projects: factory.ProjectRepository(),
			RiskLogs: factory.RiskLogRepository(),
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
