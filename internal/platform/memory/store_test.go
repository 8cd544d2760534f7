package memory

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
)

func seedAccount(t *testing.T, s *Store, id, code string, typ account.AccountType) {
	t.Helper()
	require.NoError(t, s.CreateAccount(context.Background(), &account.Account{
		AccountID: id, Code: code, Name: code, AccountType: typ, IsActive: true, Currency: "USD",
	}))
}

func TestStore_CreateAccount_DuplicateCode(t *testing.T) {
	s := New()
	seedAccount(t, s, "a1", "1000", account.Asset)

	err := s.CreateAccount(context.Background(), &account.Account{AccountID: "a2", Code: "1000"})

	assert.ErrorIs(t, err, errors.ErrDuplicateCode)
}

func TestStore_UpdateAccount_NeverWritesBalance(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedAccount(t, s, "a1", "1000", account.Asset)

	acc, err := s.GetAccount(ctx, "a1")
	require.NoError(t, err)
	acc.Balance = decimal.NewFromInt(999)
	acc.Name = "Cash"
	require.NoError(t, s.UpdateAccount(ctx, acc))

	got, err := s.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Cash", got.Name)
	assert.True(t, got.Balance.IsZero())
}

func TestStore_PostJournalEntry(t *testing.T) {
	draft := func(s *Store) {
		require.NoError(t, s.CreateJournalEntry(context.Background(), &journal.JournalEntry{
			JournalEntryID: "je1",
			EntryNumber:    "JE-1",
			EntryDate:      "2025-01-10",
			Status:         journal.Draft,
			Lines: []journal.Line{
				{LineID: "l1", AccountID: "cash", Debit: decimal.NewFromInt(500)},
				{LineID: "l2", AccountID: "rev", Credit: decimal.NewFromInt(500)},
			},
		}))
	}
	deltas := []journal.BalanceDelta{
		{AccountID: "cash", Amount: decimal.NewFromInt(500)},
		{AccountID: "rev", Amount: decimal.NewFromInt(500)},
	}

	t.Run("concurrent posts succeed exactly once", func(t *testing.T) {
		// Setup
		ctx := context.Background()
		s := New()
		seedAccount(t, s, "cash", "1000", account.Asset)
		seedAccount(t, s, "rev", "4000", account.Revenue)
		draft(s)

		// Act
		var wg sync.WaitGroup
		results := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- s.PostJournalEntry(ctx, "je1", deltas, time.Now())
			}()
		}
		wg.Wait()
		close(results)

		// Assert
		succeeded, alreadyPosted := 0, 0
		for err := range results {
			switch {
			case err == nil:
				succeeded++
			case stderrors.Is(err, errors.ErrAlreadyPosted):
				alreadyPosted++
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 9, alreadyPosted)

		cash, _ := s.GetAccount(ctx, "cash")
		assert.True(t, decimal.NewFromInt(500).Equal(cash.Balance), cash.Balance.String())
	})

	t.Run("missing account applies nothing", func(t *testing.T) {
		// Setup
		ctx := context.Background()
		s := New()
		seedAccount(t, s, "cash", "1000", account.Asset)
		seedAccount(t, s, "rev", "4000", account.Revenue)
		draft(s)
		broken := append([]journal.BalanceDelta{}, deltas...)
		broken = append(broken, journal.BalanceDelta{AccountID: "ghost", Amount: decimal.NewFromInt(1)})

		// Act
		err := s.PostJournalEntry(ctx, "je1", broken, time.Now())

		// Assert
		assert.ErrorIs(t, err, errors.ErrNotFound)
		cash, _ := s.GetAccount(ctx, "cash")
		assert.True(t, cash.Balance.IsZero())
		entry, _ := s.GetJournalEntry(ctx, "je1")
		assert.Equal(t, journal.Draft, entry.Status)
	})
}

func TestStore_RecordPayment_ConcurrentPaymentsNeverOverdraw(t *testing.T) {
	// Setup
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateInvoice(ctx, &invoice.Invoice{
		InvoiceID:     "inv1",
		InvoiceNumber: "INV-1",
		InvoiceType:   invoice.Receivable,
		TotalAmount:   decimal.NewFromInt(1000),
		Balance:       decimal.NewFromInt(1000),
		Status:        invoice.Sent,
	}))

	// Act: 20 payments of 100 against a 1000 balance
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.RecordPayment(ctx, &invoice.Payment{
				PaymentID:     "p" + string(rune('a'+i)),
				PaymentNumber: "PAY-" + string(rune('a'+i)),
				InvoiceID:     "inv1",
				Amount:        decimal.NewFromInt(100),
				PaymentDate:   "2025-02-01",
			}, time.Now())
		}(i)
	}
	wg.Wait()

	// Assert
	inv, err := s.GetInvoice(ctx, "inv1")
	require.NoError(t, err)
	payments, err := s.ListPayments(ctx, "inv1")
	require.NoError(t, err)

	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	assert.Len(t, payments, 10)
	assert.True(t, sum.Equal(inv.PaidAmount))
	assert.True(t, inv.Balance.IsZero())
	assert.Equal(t, invoice.Paid, inv.Status)
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateInvoice(ctx, &invoice.Invoice{InvoiceID: "inv1", InvoiceNumber: "INV-1", Status: invoice.Sent}))

	inv, _ := s.GetInvoice(ctx, "inv1")
	inv.Status = invoice.Overdue

	again, _ := s.GetInvoice(ctx, "inv1")
	assert.Equal(t, invoice.Sent, again.Status)
}
