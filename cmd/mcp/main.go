package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/api/mcp/resources"
	"github.com/hirosato/construction-erp/internal/api/mcp/tools"
	"github.com/hirosato/construction-erp/internal/api/middleware"
	"github.com/hirosato/construction-erp/internal/app"
	envconfig "github.com/hirosato/construction-erp/internal/common/config"
	"github.com/hirosato/construction-erp/internal/common/logger"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
)

// newRegistry registers every ERP tool and resource
func newRegistry(a *app.App) *mcp.HandlerRegistry {
	registry := mcp.NewHandlerRegistry()

	// Ledger
	registry.RegisterTool(tools.NewCreateAccountTool(a.Accounts))
	registry.RegisterTool(tools.NewListAccountsTool(a.Accounts))
	registry.RegisterTool(tools.NewCreateJournalEntryTool(a.Journal))
	registry.RegisterTool(tools.NewPostJournalEntryTool(a.Journal))
	registry.RegisterTool(tools.NewListJournalEntriesTool(a.Journal))

	// Invoicing and projects
	registry.RegisterTool(tools.NewCreateInvoiceTool(a.Invoices))
	registry.RegisterTool(tools.NewRecordPaymentTool(a.Invoices))
	registry.RegisterTool(tools.NewInvoiceAgingTool(a.Invoices))
	registry.RegisterTool(tools.NewCreateProjectTool(a.Projects))
	registry.RegisterTool(tools.NewRecordProgressTool(a.Projects))

	// Insights and reports
	registry.RegisterTool(tools.NewScoreProjectRiskTool(a.Risks))
	registry.RegisterTool(tools.NewListProjectRisksTool(a.Risks))
	registry.RegisterTool(tools.NewForecastCashFlowTool(a.Forecasts, a.Config.ForecastMonths))
	registry.RegisterTool(tools.NewBalanceSheetTool(a.Statements))
	registry.RegisterTool(tools.NewIncomeStatementTool(a.Statements))

	registry.RegisterResource(resources.NewChartOfAccountsResource(a.Accounts))
	registry.RegisterResource(resources.NewJournalEntriesResource(a.Journal))
	registry.RegisterResource(resources.NewProjectsResource(a.Projects))
	registry.RegisterResource(resources.NewBalanceSheetResource(a.Statements))

	return registry
}

func newLambdaHandler(a *app.App) middleware.APIGatewayHandler {
	mcpService := mcp.NewService(a.Logger, newRegistry(a))
	handler := NewMCPRequestHandler(mcpService, a.Logger)

	return middleware.Chain(handler.HandleRequest,
		middleware.NewRecoveryMiddleware(a.Logger).Handle,
		middleware.NewLoggingMiddleware(a.Logger).Handle,
		middleware.NewAuthMiddleware(a.Config.JWTSecret, a.Logger).Handle,
	)
}

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config, err := envconfig.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(config.LogLevel, config.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(context.Background(), config, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	lambda.Start(newLambdaHandler(a))
}
