package account

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/pkg/validator"
)

// Service provides account-related business logic
type Service struct {
	repo            Repository
	logger          *zap.Logger
	validator       validator.Validator
	defaultCurrency string
	now             func() time.Time
}

// NewService creates a new account service
func NewService(repo Repository, logger *zap.Logger, defaultCurrency string) *Service {
	return &Service{
		repo:            repo,
		logger:          logger.Named("account"),
		validator:       validator.New(),
		defaultCurrency: defaultCurrency,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount creates a new account with a zero balance
func (s *Service) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*Account, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := utils.ValidateCode(req.Code, "account code"); err != nil {
		return nil, err
	}

	accountType, ok := ParseAccountType(req.AccountType)
	if !ok {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown account type %q", req.AccountType))
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if err := utils.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	if req.ParentID != "" {
		if err := s.checkParent(ctx, "", req.ParentID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	acc := &Account{
		AccountID:   uuid.New().String(),
		Code:        req.Code,
		Name:        strings.TrimSpace(req.Name),
		AccountType: accountType,
		ParentID:    req.ParentID,
		Balance:     decimal.Zero,
		Currency:    currency,
		IsActive:    true,
		Description: req.Description,
		CreatedBy:   auth.ActorFromContext(ctx),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("accountId", acc.AccountID),
		zap.String("code", acc.Code),
		zap.String("type", string(acc.AccountType)))

	return acc, nil
}

// GetAccount retrieves an account by ID
func (s *Service) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	return s.repo.GetAccount(ctx, accountID)
}

// ListAccounts retrieves accounts matching the filter
func (s *Service) ListAccounts(ctx context.Context, filter Filter) ([]*Account, error) {
	return s.repo.ListAccounts(ctx, filter)
}

// UpdateAccount changes descriptive fields of an account
func (s *Service) UpdateAccount(ctx context.Context, accountID string, req *UpdateAccountRequest) (*Account, error) {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.NewValidationError("account name is required")
		}
		acc.Name = name
	}
	if req.Description != nil {
		acc.Description = *req.Description
	}
	if req.ParentID != nil && *req.ParentID != acc.ParentID {
		if *req.ParentID != "" {
			if err := s.checkParent(ctx, acc.AccountID, *req.ParentID); err != nil {
				return nil, err
			}
		}
		acc.ParentID = *req.ParentID
	}
	acc.UpdatedAt = s.now()

	if err := s.repo.UpdateAccount(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// DeactivateAccount soft-deletes an account. Accounts are never removed.
func (s *Service) DeactivateAccount(ctx context.Context, accountID string) (*Account, error) {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return acc, nil
	}

	acc.IsActive = false
	acc.UpdatedAt = s.now()
	if err := s.repo.UpdateAccount(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("account deactivated", zap.String("accountId", acc.AccountID))
	return acc, nil
}

// checkParent enforces the single-level hierarchy: a parent must exist and be a root account.
func (s *Service) checkParent(ctx context.Context, childID, parentID string) error {
	if parentID == childID {
		return errors.NewValidationError("an account cannot be its own parent")
	}

	parent, err := s.repo.GetAccount(ctx, parentID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return errors.NewValidationError("parent account does not exist")
		}
		return err
	}
	if parent.ParentID != "" {
		return errors.NewValidationError("parent account must be a top-level account")
	}

	if childID != "" {
		accounts, err := s.repo.ListAccounts(ctx, Filter{})
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if a.ParentID == childID {
				return errors.NewValidationError("an account with sub-accounts cannot become a sub-account")
			}
		}
	}
	return nil
}
