package journal

import (
	"context"
	"time"

	"github.com/hirosato/construction-erp/internal/domain/account"
)

// Repository defines the interface for journal entry data operations
type Repository interface {
	// CreateJournalEntry stores a draft entry with its lines.
	// Fails with DUPLICATE_CODE when the entry number is taken.
	CreateJournalEntry(ctx context.Context, entry *JournalEntry) error

	// GetJournalEntry returns an entry with its lines or NOT_FOUND
	GetJournalEntry(ctx context.Context, journalEntryID string) (*JournalEntry, error)

	// ListJournalEntries returns entries with lines, newest entry date first
	ListJournalEntries(ctx context.Context, filter Filter) (*ListResult, error)

	// PostJournalEntry applies deltas to account balances and flips the entry
	// from Draft to Posted in one atomic unit. It fails with ALREADY_POSTED when
	// the entry is no longer Draft and NOT_FOUND when it or an account is missing;
	// on any failure nothing is applied.
	PostJournalEntry(ctx context.Context, journalEntryID string, deltas []BalanceDelta, postedAt time.Time) error
}

// AccountReader is the part of the chart of accounts posting depends on
type AccountReader interface {
	GetAccount(ctx context.Context, accountID string) (*account.Account, error)
}
