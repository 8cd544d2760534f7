package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/account"
	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/project"
)

// openTestStore connects to TEST_DATABASE_DSN and empties every table
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := Open(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Exec("TRUNCATE accounts, journal_entries, journal_lines, invoices, payments, projects, project_progress, risk_logs").Error)
	return NewStore(db, zap.NewNop())
}

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store, id, code string, typ account.AccountType) {
	t.Helper()
	require.NoError(t, s.CreateAccount(context.Background(), &account.Account{
		AccountID: id, Code: code, Name: code, AccountType: typ,
		Balance: decimal.Zero, Currency: "USD", IsActive: true, CreatedAt: t0, UpdatedAt: t0,
	}))
}

func draftEntry(id, number string, amount int64) *journal.JournalEntry {
	a := decimal.NewFromInt(amount)
	return &journal.JournalEntry{
		JournalEntryID: id, EntryNumber: number, EntryDate: "2025-01-10", Description: "cash sale",
		TotalDebit: a, TotalCredit: a, Status: journal.Draft, CreatedAt: t0, UpdatedAt: t0,
		Lines: []journal.Line{
			{LineID: id + "-1", AccountID: "cash", Debit: a, Credit: decimal.Zero},
			{LineID: id + "-2", AccountID: "sales", Debit: decimal.Zero, Credit: a},
		},
	}
}

func TestStore_Ledger(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	seed(t, s, "cash", "1000", account.Asset)
	seed(t, s, "sales", "4000", account.Revenue)

	t.Run("duplicate account code", func(t *testing.T) {
		err := s.CreateAccount(ctx, &account.Account{AccountID: "other", Code: "1000", AccountType: account.Asset, Currency: "USD"})
		assert.ErrorIs(t, err, commonErrors.ErrDuplicateCode)
	})

	t.Run("entry referencing unknown account", func(t *testing.T) {
		entry := draftEntry("je-x", "JE-X", 10)
		entry.Lines[1].AccountID = "ghost"

		err := s.CreateJournalEntry(ctx, entry)

		assert.ErrorIs(t, err, commonErrors.ErrValidation)
	})

	t.Run("posting applies deltas once", func(t *testing.T) {
		// Setup
		require.NoError(t, s.CreateJournalEntry(ctx, draftEntry("je-1", "JE-1", 100)))
		deltas := []journal.BalanceDelta{
			{AccountID: "cash", Amount: decimal.NewFromInt(100)},
			{AccountID: "sales", Amount: decimal.NewFromInt(100)},
		}

		// Act
		err := s.PostJournalEntry(ctx, "je-1", deltas, t0)
		again := s.PostJournalEntry(ctx, "je-1", deltas, t0)

		// Assert
		require.NoError(t, err)
		assert.ErrorIs(t, again, commonErrors.ErrAlreadyPosted)
		cash, err := s.GetAccount(ctx, "cash")
		require.NoError(t, err)
		assert.True(t, cash.Balance.Equal(decimal.NewFromInt(100)))

		got, err := s.GetJournalEntry(ctx, "je-1")
		require.NoError(t, err)
		assert.Equal(t, journal.Posted, got.Status)
		require.NotNil(t, got.PostedAt)
		assert.Equal(t, "je-1-1", got.Lines[0].LineID)
	})

	t.Run("failed posting rolls back", func(t *testing.T) {
		require.NoError(t, s.CreateJournalEntry(ctx, draftEntry("je-2", "JE-2", 5)))
		deltas := []journal.BalanceDelta{
			{AccountID: "cash", Amount: decimal.NewFromInt(5)},
			{AccountID: "missing", Amount: decimal.NewFromInt(5)},
		}

		err := s.PostJournalEntry(ctx, "je-2", deltas, t0)

		assert.ErrorIs(t, err, commonErrors.ErrNotFound)
		cash, _ := s.GetAccount(ctx, "cash")
		assert.True(t, cash.Balance.Equal(decimal.NewFromInt(100)))
		entry, _ := s.GetJournalEntry(ctx, "je-2")
		assert.Equal(t, journal.Draft, entry.Status)
	})

	t.Run("list filters and pages", func(t *testing.T) {
		res, err := s.ListJournalEntries(ctx, journal.Filter{Status: journal.Draft, FromDate: "2025-01-01", ToDate: "2025-01-31", Page: 1, Limit: 10})

		require.NoError(t, err)
		assert.Equal(t, 1, res.TotalCount)
		assert.Equal(t, "JE-2", res.JournalEntries[0].EntryNumber)
	})
}

func TestStore_RecordPayment(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	total := decimal.NewFromInt(1000)
	require.NoError(t, s.CreateInvoice(ctx, &invoice.Invoice{
		InvoiceID: "inv-1", InvoiceNumber: "INV-1", InvoiceType: invoice.Receivable, CustomerID: "c-1",
		InvoiceDate: "2025-01-01", DueDate: "2025-01-31", Subtotal: total, TaxAmount: decimal.Zero,
		DiscountAmount: decimal.Zero, TotalAmount: total, PaidAmount: decimal.Zero, Balance: total,
		Status: invoice.Sent, Currency: "USD", CreatedAt: t0, UpdatedAt: t0,
	}))

	pay := func(id string, amount int64) error {
		_, err := s.RecordPayment(ctx, &invoice.Payment{
			PaymentID: id, PaymentNumber: "PAY-" + id, InvoiceID: "inv-1", InvoiceType: invoice.Receivable,
			Amount: decimal.NewFromInt(amount), Method: "bank_transfer", PaymentDate: "2025-01-15",
			Status: invoice.PaymentCompleted, CreatedAt: t0,
		}, t0)
		return err
	}

	t.Run("concurrent payments serialize", func(t *testing.T) {
		// Act
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = pay(string(rune('a'+i)), 250)
			}(i)
		}
		wg.Wait()

		// Assert
		for _, err := range errs {
			assert.NoError(t, err)
		}
		inv, err := s.GetInvoice(ctx, "inv-1")
		require.NoError(t, err)
		assert.Equal(t, invoice.Paid, inv.Status)
		assert.True(t, inv.Balance.IsZero())
		payments, err := s.ListPayments(ctx, "inv-1")
		require.NoError(t, err)
		assert.Len(t, payments, 4)
	})

	t.Run("overpayment leaves no payment behind", func(t *testing.T) {
		err := pay("z", 1)

		assert.ErrorIs(t, err, commonErrors.ErrOverpayment)
		payments, _ := s.ListPaymentsBetween(ctx, "2025-01-01", "2025-01-31")
		assert.Len(t, payments, 4)
	})

	t.Run("status compare and set", func(t *testing.T) {
		err := s.UpdateInvoiceStatus(ctx, "inv-1", invoice.Draft, invoice.Cancelled, t0)

		assert.ErrorIs(t, err, commonErrors.ErrConflict)
	})
}

func TestStore_Projects(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CreateProject(ctx, &project.Project{
		ProjectID: "p-1", ProjectCode: "PRJ-1", ProjectName: "Bridge", Status: project.Active,
		Budget: decimal.NewFromInt(1000), Spent: decimal.Zero, PlannedProgress: decimal.Zero,
		ActualProgress: decimal.Zero, CreatedAt: t0, UpdatedAt: t0,
	}))

	// Act
	require.NoError(t, s.AddSpent(ctx, "p-1", decimal.NewFromInt(300), t0))
	require.NoError(t, s.RecordProgress(ctx, &project.Progress{
		ProgressID: "pr-1", ProjectID: "p-1", ProgressDate: "2025-02-01",
		PlannedProgress: decimal.NewFromInt(40), ActualProgress: decimal.NewFromInt(30),
		BudgetSpent: decimal.NewFromInt(450), CreatedAt: t0,
	}))
	err := s.AddSpent(ctx, "missing", decimal.NewFromInt(1), t0)

	// Assert
	assert.ErrorIs(t, err, commonErrors.ErrNotFound)
	p, err := s.GetProject(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, p.Spent.Equal(decimal.NewFromInt(450)))
	assert.True(t, p.ActualProgress.Equal(decimal.NewFromInt(30)))

	history, err := s.ListProgress(ctx, "p-1", 5)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	completed, err := s.ListProjects(ctx, []project.Status{project.Completed})
	require.NoError(t, err)
	assert.Empty(t, completed)
}
