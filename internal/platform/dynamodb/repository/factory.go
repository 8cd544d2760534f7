package repository

import (
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/risk"
	"github.com/hirosato/construction-erp/internal/platform/dynamodb/client"
)

// Factory creates repository instances over one table
type Factory struct {
	client    client.Client
	tableName string
	logger    *zap.Logger
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string, logger *zap.Logger) *Factory {
	return &Factory{
		client:    client,
		tableName: tableName,
		logger:    logger.Named("dynamodb"),
	}
}

// AccountRepository returns an implementation of the account.Repository interface
func (f *Factory) AccountRepository() account.Repository {
	return NewDynamoDBAccountRepository(f.client, f.tableName, f.logger)
}

// JournalRepository returns an implementation of the journal.Repository interface
func (f *Factory) JournalRepository() journal.Repository {
	return NewDynamoDBJournalRepository(f.client, f.tableName, f.logger)
}

// InvoiceRepository returns an implementation of the invoice.Repository interface
func (f *Factory) InvoiceRepository() invoice.Repository {
	return NewDynamoDBInvoiceRepository(f.client, f.tableName, f.logger)
}

// ProjectRepository returns the project repository, which also serves risk.ProjectReader
func (f *Factory) ProjectRepository() *DynamoDBProjectRepository {
	return NewDynamoDBProjectRepository(f.client, f.tableName, f.logger)
}

// RiskLogRepository returns an implementation of the risk.LogRepository interface
func (f *Factory) RiskLogRepository() risk.LogRepository {
	return NewDynamoDBRiskLogRepository(f.client, f.tableName, f.logger)
}

var (
	_ account.Repository = (*DynamoDBAccountRepository)(nil)
	_ journal.Repository = (*DynamoDBJournalRepository)(nil)
	_ invoice.Repository = (*DynamoDBInvoiceRepository)(nil)
	_ project.Repository = (*DynamoDBProjectRepository)(nil)
	_ risk.ProjectReader = (*DynamoDBProjectRepository)(nil)
	_ risk.LogRepository = (*DynamoDBRiskLogRepository)(nil)
)
