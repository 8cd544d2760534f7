package journal_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/platform/memory"
)

type fixture struct {
	store    *memory.Store
	accounts *account.Service
	journal  *journal.Service
	cash     *account.Account
	revenue  *account.Account
	expense  *account.Account
	payable  *account.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	f := &fixture{
		store:    store,
		accounts: account.NewService(store, zap.NewNop(), "USD"),
		journal:  journal.NewService(store, store, zap.NewNop()),
	}
	create := func(code, name, typ string) *account.Account {
		acc, err := f.accounts.CreateAccount(ctx, &account.CreateAccountRequest{Code: code, Name: name, AccountType: typ})
		require.NoError(t, err)
		return acc
	}
	f.cash = create("1000", "Cash", "Asset")
	f.payable = create("2000", "Accounts payable", "Liability")
	f.revenue = create("4000", "Contract revenue", "Revenue")
	f.expense = create("5000", "Materials", "Expense")
	return f
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func line(accountID string, debit, credit int64) journal.CreateJournalEntryLine {
	return journal.CreateJournalEntryLine{AccountID: accountID, Debit: amount(debit), Credit: amount(credit)}
}

func (f *fixture) balance(t *testing.T, acc *account.Account) decimal.Decimal {
	t.Helper()
	got, err := f.store.GetAccount(context.Background(), acc.AccountID)
	require.NoError(t, err)
	return got.Balance
}

func TestService_CreateJournalEntry(t *testing.T) {
	t.Run("balanced entry is stored as draft", func(t *testing.T) {
		// Setup
		f := newFixture(t)

		// Act
		entry, err := f.journal.CreateJournalEntry(context.Background(), &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-1",
			EntryDate:   "2025-01-15",
			Description: "Progress billing",
			Lines:       []journal.CreateJournalEntryLine{line(f.cash.AccountID, 500, 0), line(f.revenue.AccountID, 0, 500)},
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, journal.Draft, entry.Status)
		assert.True(t, amount(500).Equal(entry.TotalDebit))
		assert.True(t, amount(500).Equal(entry.TotalCredit))
		assert.Len(t, entry.Lines, 2)
		assert.Nil(t, entry.PostedAt)
		assert.True(t, f.balance(t, f.cash).IsZero(), "creating a draft must not move balances")
	})

	t.Run("rejections", func(t *testing.T) {
		f := newFixture(t)
		base := func(lines ...journal.CreateJournalEntryLine) *journal.CreateJournalEntryRequest {
			return &journal.CreateJournalEntryRequest{EntryNumber: "JE-9", EntryDate: "2025-01-15", Description: "x", Lines: lines}
		}

		cases := []struct {
			name string
			req  *journal.CreateJournalEntryRequest
			want error
		}{
			{"one line", base(line(f.cash.AccountID, 100, 0)), errors.ErrInsufficientLines},
			{"unbalanced", base(line(f.cash.AccountID, 100, 0), line(f.revenue.AccountID, 0, 90)), errors.ErrUnbalancedEntry},
			{"both sides on a line", base(line(f.cash.AccountID, 100, 100), line(f.revenue.AccountID, 0, 0)), errors.ErrValidation},
			{"neither side", base(line(f.cash.AccountID, 0, 0), line(f.revenue.AccountID, 0, 0)), errors.ErrValidation},
			{"negative amount", base(line(f.cash.AccountID, -100, 0), line(f.revenue.AccountID, -100, 0)), errors.ErrValidation},
			{"unknown account", base(line("ghost", 100, 0), line(f.revenue.AccountID, 0, 100)), errors.ErrValidation},
			{"bad date", &journal.CreateJournalEntryRequest{
				EntryNumber: "JE-9", EntryDate: "15/01/2025", Description: "x",
				Lines: []journal.CreateJournalEntryLine{line(f.cash.AccountID, 100, 0), line(f.revenue.AccountID, 0, 100)},
			}, errors.ErrValidation},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				_, err := f.journal.CreateJournalEntry(context.Background(), c.req)
				assert.ErrorIs(t, err, c.want)
			})
		}
	})

	t.Run("difference within a cent is balanced", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.journal.CreateJournalEntry(context.Background(), &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-2", EntryDate: "2025-01-15", Description: "rounding",
			Lines: []journal.CreateJournalEntryLine{
				{AccountID: f.cash.AccountID, Debit: decimal.RequireFromString("100.01")},
				{AccountID: f.revenue.AccountID, Credit: decimal.RequireFromString("100.00")},
			},
		})

		assert.NoError(t, err)
	})

	t.Run("inactive account is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.accounts.DeactivateAccount(context.Background(), f.expense.AccountID)
		require.NoError(t, err)

		_, err = f.journal.CreateJournalEntry(context.Background(), &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-3", EntryDate: "2025-01-15", Description: "x",
			Lines: []journal.CreateJournalEntryLine{line(f.expense.AccountID, 10, 0), line(f.cash.AccountID, 0, 10)},
		})

		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("duplicate entry number", func(t *testing.T) {
		f := newFixture(t)
		req := &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-4", EntryDate: "2025-01-15", Description: "x",
			Lines: []journal.CreateJournalEntryLine{line(f.cash.AccountID, 10, 0), line(f.revenue.AccountID, 0, 10)},
		}
		_, err := f.journal.CreateJournalEntry(context.Background(), req)
		require.NoError(t, err)

		_, err = f.journal.CreateJournalEntry(context.Background(), req)

		assert.ErrorIs(t, err, errors.ErrDuplicateCode)
	})
}

func TestService_PostJournalEntry(t *testing.T) {
	t.Run("cash and revenue both increase and re-posting fails", func(t *testing.T) {
		// Setup
		f := newFixture(t)
		ctx := context.Background()
		entry, err := f.journal.CreateJournalEntry(ctx, &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-1", EntryDate: "2025-01-15", Description: "Billing",
			Lines: []journal.CreateJournalEntryLine{line(f.cash.AccountID, 500, 0), line(f.revenue.AccountID, 0, 500)},
		})
		require.NoError(t, err)

		// Act
		posted, err := f.journal.PostJournalEntry(ctx, entry.JournalEntryID)
		require.NoError(t, err)
		_, again := f.journal.PostJournalEntry(ctx, entry.JournalEntryID)

		// Assert
		assert.Equal(t, journal.Posted, posted.Status)
		assert.NotNil(t, posted.PostedAt)
		assert.ErrorIs(t, again, errors.ErrAlreadyPosted)
		assert.True(t, amount(500).Equal(f.balance(t, f.cash)))
		assert.True(t, amount(500).Equal(f.balance(t, f.revenue)))

		stored, err := f.journal.GetJournalEntry(ctx, entry.JournalEntryID)
		require.NoError(t, err)
		assert.Equal(t, journal.Posted, stored.Status)
	})

	t.Run("expense paid on credit", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		entry, err := f.journal.CreateJournalEntry(ctx, &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-2", EntryDate: "2025-01-16", Description: "Concrete",
			Lines: []journal.CreateJournalEntryLine{line(f.expense.AccountID, 300, 0), line(f.payable.AccountID, 0, 300)},
		})
		require.NoError(t, err)

		_, err = f.journal.PostJournalEntry(ctx, entry.JournalEntryID)

		require.NoError(t, err)
		assert.True(t, amount(300).Equal(f.balance(t, f.expense)))
		assert.True(t, amount(300).Equal(f.balance(t, f.payable)))
	})

	t.Run("lines on the same account are aggregated", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		entry, err := f.journal.CreateJournalEntry(ctx, &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-3", EntryDate: "2025-01-16", Description: "Split",
			Lines: []journal.CreateJournalEntryLine{
				line(f.cash.AccountID, 200, 0),
				line(f.cash.AccountID, 0, 50),
				line(f.revenue.AccountID, 0, 150),
			},
		})
		require.NoError(t, err)

		_, err = f.journal.PostJournalEntry(ctx, entry.JournalEntryID)

		require.NoError(t, err)
		assert.True(t, amount(150).Equal(f.balance(t, f.cash)))
	})

	t.Run("unknown entry", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.journal.PostJournalEntry(context.Background(), "missing")

		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("concurrent posts apply balances once", func(t *testing.T) {
		// Setup
		f := newFixture(t)
		ctx := context.Background()
		entry, err := f.journal.CreateJournalEntry(ctx, &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-5", EntryDate: "2025-01-15", Description: "Billing",
			Lines: []journal.CreateJournalEntryLine{line(f.cash.AccountID, 100, 0), line(f.revenue.AccountID, 0, 100)},
		})
		require.NoError(t, err)

		// Act
		var wg sync.WaitGroup
		var mu sync.Mutex
		successes := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.journal.PostJournalEntry(ctx, entry.JournalEntryID); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// Assert
		assert.Equal(t, 1, successes)
		assert.True(t, amount(100).Equal(f.balance(t, f.cash)))
	})
}

func TestService_ListJournalEntries(t *testing.T) {
	// Setup
	f := newFixture(t)
	ctx := context.Background()
	for i, date := range []string{"2025-01-05", "2025-02-10", "2025-03-15"} {
		entry, err := f.journal.CreateJournalEntry(ctx, &journal.CreateJournalEntryRequest{
			EntryNumber: "JE-" + date, EntryDate: date, Description: "x",
			Lines: []journal.CreateJournalEntryLine{line(f.cash.AccountID, 10, 0), line(f.revenue.AccountID, 0, 10)},
		})
		require.NoError(t, err)
		if i == 1 {
			_, err = f.journal.PostJournalEntry(ctx, entry.JournalEntryID)
			require.NoError(t, err)
		}
	}

	t.Run("newest first with lines", func(t *testing.T) {
		result, err := f.journal.ListJournalEntries(ctx, journal.Filter{})

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalCount)
		assert.Equal(t, "2025-03-15", result.JournalEntries[0].EntryDate)
		assert.Len(t, result.JournalEntries[0].Lines, 2)
		assert.Equal(t, 20, result.Limit)
	})

	t.Run("status and date range", func(t *testing.T) {
		posted, err := f.journal.ListJournalEntries(ctx, journal.Filter{Status: journal.Posted})
		require.NoError(t, err)
		assert.Equal(t, 1, posted.TotalCount)

		ranged, err := f.journal.ListJournalEntries(ctx, journal.Filter{FromDate: "2025-02-01", ToDate: "2025-03-31"})
		require.NoError(t, err)
		assert.Equal(t, 2, ranged.TotalCount)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := f.journal.ListJournalEntries(ctx, journal.Filter{Page: 2, Limit: 2})

		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount)
		require.Len(t, page.JournalEntries, 1)
		assert.Equal(t, "2025-01-05", page.JournalEntries[0].EntryDate)
	})

	t.Run("page beyond the addressable range is empty", func(t *testing.T) {
		page, err := f.journal.ListJournalEntries(ctx, journal.Filter{Page: 1 << 62, Limit: 20})

		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount)
		assert.Empty(t, page.JournalEntries)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.journal.ListJournalEntries(ctx, journal.Filter{Status: "Void"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestFilter_Offset(t *testing.T) {
	assert.Equal(t, 0, journal.Filter{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, journal.Filter{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, math.MaxInt, journal.Filter{Page: math.MaxInt, Limit: 20}.Offset())
}
