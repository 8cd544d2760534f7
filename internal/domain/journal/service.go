package journal

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/pkg/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service provides journal entry-related business logic
type Service struct {
	repo      Repository
	accounts  AccountReader
	logger    *zap.Logger
	validator validator.Validator
	now       func() time.Time
}

// NewService creates a new journal entry service
func NewService(repo Repository, accounts AccountReader, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		accounts:  accounts,
		logger:    logger.Named("journal"),
		validator: validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateJournalEntry validates a balanced entry and stores it as Draft
func (s *Service) CreateJournalEntry(ctx context.Context, req *CreateJournalEntryRequest) (*JournalEntry, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := utils.ValidateCode(req.EntryNumber, "entry number"); err != nil {
		return nil, err
	}
	if _, err := utils.ParseISODate(req.EntryDate, "entry date"); err != nil {
		return nil, err
	}

	totalDebit, totalCredit, err := validateLines(req.Lines)
	if err != nil {
		return nil, err
	}

	// Verify that all accounts exist and accept postings
	for _, line := range req.Lines {
		acc, err := s.accounts.GetAccount(ctx, line.AccountID)
		if err != nil {
			if stderrors.Is(err, errors.ErrNotFound) {
				return nil, errors.NewValidationError(fmt.Sprintf("account %s does not exist", line.AccountID))
			}
			return nil, err
		}
		if !acc.IsActive {
			return nil, errors.NewValidationError(fmt.Sprintf("account %s is inactive", acc.Code))
		}
	}

	now := s.now()
	entry := &JournalEntry{
		JournalEntryID: ulid.Make().String(),
		EntryNumber:    req.EntryNumber,
		EntryDate:      req.EntryDate,
		Description:    req.Description,
		Reference:      req.Reference,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		Status:         Draft,
		CreatedBy:      auth.ActorFromContext(ctx),
		CreatedAt:      now,
		UpdatedAt:      now,
		Lines:          make([]Line, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		entry.Lines = append(entry.Lines, Line{
			LineID:         ulid.Make().String(),
			JournalEntryID: entry.JournalEntryID,
			AccountID:      line.AccountID,
			Debit:          line.Debit,
			Credit:         line.Credit,
			Description:    line.Description,
		})
	}

	if err := s.repo.CreateJournalEntry(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("journal entry created",
		zap.String("journalEntryId", entry.JournalEntryID),
		zap.String("entryNumber", entry.EntryNumber),
		zap.String("total", entry.TotalDebit.StringFixed(2)))

	return entry, nil
}

// GetJournalEntry retrieves a journal entry by ID
func (s *Service) GetJournalEntry(ctx context.Context, journalEntryID string) (*JournalEntry, error) {
	return s.repo.GetJournalEntry(ctx, journalEntryID)
}

// ListJournalEntries retrieves journal entries based on criteria
func (s *Service) ListJournalEntries(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Status != "" && filter.Status != Draft && filter.Status != Posted {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown journal entry status %q", filter.Status))
	}
	if _, err := utils.ParseOptionalISODate(filter.FromDate, "start date"); err != nil {
		return nil, err
	}
	if _, err := utils.ParseOptionalISODate(filter.ToDate, "end date"); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	return s.repo.ListJournalEntries(ctx, filter)
}

// validateLines enforces the double-entry rules and returns the entry totals
func validateLines(lines []CreateJournalEntryLine) (decimal.Decimal, decimal.Decimal, error) {
	if len(lines) < 2 {
		return decimal.Zero, decimal.Zero, errors.NewInsufficientLinesError(len(lines))
	}

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for i, line := range lines {
		if line.AccountID == "" {
			return decimal.Zero, decimal.Zero, errors.NewValidationError(fmt.Sprintf("line %d: account is required", i+1))
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return decimal.Zero, decimal.Zero, errors.NewValidationError(fmt.Sprintf("line %d: amounts must not be negative", i+1))
		}
		if !line.Debit.IsZero() && !line.Credit.IsZero() {
			return decimal.Zero, decimal.Zero, errors.NewValidationError(fmt.Sprintf("line %d: a line carries either a debit or a credit, not both", i+1))
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return decimal.Zero, decimal.Zero, errors.NewValidationError(fmt.Sprintf("line %d: a debit or a credit amount is required", i+1))
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	if totalDebit.Sub(totalCredit).Abs().GreaterThan(BalanceTolerance) {
		return decimal.Zero, decimal.Zero, errors.NewUnbalancedEntryError(totalDebit.StringFixed(2), totalCredit.StringFixed(2))
	}

	return totalDebit, totalCredit, nil
}
