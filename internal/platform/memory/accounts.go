package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/errors"
)

func (s *Store) CreateAccount(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.accountCodes[acc.Code]; taken {
		return errors.NewDuplicateCodeError("accountCode", acc.Code)
	}
	if _, exists := s.accounts[acc.AccountID]; exists {
		return errors.NewConflictError(fmt.Sprintf("account %s already exists", acc.AccountID))
	}

	stored := *acc
	s.accounts[acc.AccountID] = &stored
	s.accountCodes[acc.Code] = acc.AccountID
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("account %s not found", accountID))
	}
	out := *acc
	return &out, nil
}

func (s *Store) ListAccounts(_ context.Context, filter account.Filter) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if filter.Matches(acc) {
			out := *acc
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (s *Store) UpdateAccount(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[acc.AccountID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("account %s not found", acc.AccountID))
	}

	// Balance only moves through posting
	stored.Name = acc.Name
	stored.Description = acc.Description
	stored.ParentID = acc.ParentID
	stored.IsActive = acc.IsActive
	stored.UpdatedAt = acc.UpdatedAt
	return nil
}
