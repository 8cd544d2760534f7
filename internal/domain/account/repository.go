package account

import (
	"context"
)

// Repository defines the interface for account data operations
type Repository interface {
	// CreateAccount stores a new account. Fails with DUPLICATE_CODE when the code is taken.
	CreateAccount(ctx context.Context, acc *Account) error

	// GetAccount returns an account by ID or NOT_FOUND
	GetAccount(ctx context.Context, accountID string) (*Account, error)

	// ListAccounts returns accounts matching filter ordered by code
	ListAccounts(ctx context.Context, filter Filter) ([]*Account, error)

	// UpdateAccount persists descriptive fields and the active flag. Balance is never written here.
	UpdateAccount(ctx context.Context, acc *Account) error
}
