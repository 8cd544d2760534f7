package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/platform/memory"
)

func newService() *account.Service {
	return account.NewService(memory.New(), zap.NewNop(), "USD")
}

func TestService_CreateAccount(t *testing.T) {
	t.Run("creates an active account with zero balance", func(t *testing.T) {
		// Setup
		svc := newService()
		ctx := auth.WithActor(context.Background(), "user-1")

		// Act
		acc, err := svc.CreateAccount(ctx, &account.CreateAccountRequest{
			Code: "1000", Name: "Cash", AccountType: "asset",
		})

		// Assert
		require.NoError(t, err)
		assert.NotEmpty(t, acc.AccountID)
		assert.Equal(t, account.Asset, acc.AccountType)
		assert.True(t, acc.Balance.IsZero())
		assert.True(t, acc.IsActive)
		assert.Equal(t, "USD", acc.Currency)
		assert.Equal(t, "user-1", acc.CreatedBy)
	})

	t.Run("duplicate code", func(t *testing.T) {
		svc := newService()
		ctx := context.Background()
		_, err := svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1000", Name: "Cash", AccountType: "Asset"})
		require.NoError(t, err)

		_, err = svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1000", Name: "Bank", AccountType: "Asset"})

		assert.ErrorIs(t, err, errors.ErrDuplicateCode)
	})

	t.Run("missing name and unknown type are validation errors", func(t *testing.T) {
		svc := newService()
		ctx := context.Background()

		_, err := svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1000", AccountType: "Asset"})
		assert.ErrorIs(t, err, errors.ErrValidation)

		_, err = svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1000", Name: "Cash", AccountType: "Contra"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("hierarchy is single level", func(t *testing.T) {
		// Setup
		svc := newService()
		ctx := context.Background()
		root, err := svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1000", Name: "Current assets", AccountType: "Asset"})
		require.NoError(t, err)
		child, err := svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1010", Name: "Cash", AccountType: "Asset", ParentID: root.AccountID})
		require.NoError(t, err)

		// Act
		_, grandchildErr := svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1011", Name: "Petty cash", AccountType: "Asset", ParentID: child.AccountID})
		_, missingErr := svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "1020", Name: "Bank", AccountType: "Asset", ParentID: "nope"})

		// Assert
		assert.ErrorIs(t, grandchildErr, errors.ErrValidation)
		assert.ErrorIs(t, missingErr, errors.ErrValidation)
	})
}

func TestService_UpdateAndDeactivate(t *testing.T) {
	// Setup
	svc := newService()
	ctx := context.Background()
	acc, err := svc.CreateAccount(ctx, &account.CreateAccountRequest{Code: "5000", Name: "Materials", AccountType: "Expense"})
	require.NoError(t, err)

	// Act
	name := "Construction materials"
	updated, err := svc.UpdateAccount(ctx, acc.AccountID, &account.UpdateAccountRequest{Name: &name})
	require.NoError(t, err)
	deactivated, err := svc.DeactivateAccount(ctx, acc.AccountID)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, name, updated.Name)
	assert.False(t, deactivated.IsActive)

	active := true
	list, err := svc.ListAccounts(ctx, account.Filter{Active: &active})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
