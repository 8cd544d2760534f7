// Package postgres implements the repository contracts on PostgreSQL with gorm.
// Multi-row operations run in db.Transaction with the contended row locked
// FOR UPDATE.
package postgres

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hirosato/construction-erp/internal/domain/account"
	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/risk"
)

// Open connects to postgres. SQL statements are logged through zap at warn
// level when slower than a second.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
}

// Migrate creates or updates every table the store uses
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&accountRow{},
		&journalEntryRow{},
		&journalLineRow{},
		&invoiceRow{},
		&paymentRow{},
		&projectRow{},
		&progressRow{},
		&riskLogRow{},
	)
}

// Store implements every repository contract over one database
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a store on an open connection
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("postgres")}
}

var (
	_ account.Repository    = (*Store)(nil)
	_ journal.Repository    = (*Store)(nil)
	_ journal.AccountReader = (*Store)(nil)
	_ invoice.Repository    = (*Store)(nil)
	_ project.Repository    = (*Store)(nil)
	_ risk.LogRepository    = (*Store)(nil)
	_ risk.ProjectReader    = (*Store)(nil)
)

// uniqueViolation is the SQLSTATE postgres reports for a unique index conflict
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolation
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// internal logs a driver failure and hides it behind an internal error
func (s *Store) internal(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return commonErrors.NewInternalError(msg, err)
}

// passThrough keeps domain errors raised inside a transaction intact
func (s *Store) passThrough(msg string, err error) error {
	var appErr commonErrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return s.internal(msg, err)
}
