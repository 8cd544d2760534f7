package journal

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the posting state of a journal entry
type Status string

const (
	// Draft entries have no effect on account balances
	Draft Status = "Draft"
	// Posted entries have been applied to balances and are immutable
	Posted Status = "Posted"
)

// BalanceTolerance is the largest debit/credit difference still treated as balanced
var BalanceTolerance = decimal.RequireFromString("0.01")

// JournalEntry represents a financial journal entry
type JournalEntry struct {
	JournalEntryID string          `json:"journalEntryId"`
	EntryNumber    string          `json:"entryNumber"`
	EntryDate      string          `json:"entryDate"` // YYYY-MM-DD
	Description    string          `json:"description"`
	Reference      string          `json:"reference,omitempty"`
	TotalDebit     decimal.Decimal `json:"totalDebit"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
	Status         Status          `json:"status"`
	CreatedBy      string          `json:"createdBy"`
	PostedAt       *time.Time      `json:"postedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Lines          []Line          `json:"lines"`
}

// Line is a single debit or credit of a journal entry
type Line struct {
	LineID         string          `json:"lineId"`
	JournalEntryID string          `json:"journalEntryId"`
	AccountID      string          `json:"accountId"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Description    string          `json:"description,omitempty"`
}

// CreateJournalEntryRequest represents the data needed to create a journal entry
type CreateJournalEntryRequest struct {
	EntryNumber string                   `json:"entryNumber" validate:"required|maxLen:64"`
	EntryDate   string                   `json:"entryDate" validate:"required"` // YYYY-MM-DD
	Description string                   `json:"description" validate:"required"`
	Reference   string                   `json:"reference,omitempty"`
	Lines       []CreateJournalEntryLine `json:"lines"`
}

// CreateJournalEntryLine represents a single line in a journal entry creation request
type CreateJournalEntryLine struct {
	AccountID   string          `json:"accountId"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// BalanceDelta is the signed amount posting adds to one account's running balance
type BalanceDelta struct {
	AccountID string
	Amount    decimal.Decimal
}

// Filter represents the filtering criteria for journal entry queries.
// A zero Limit returns every matching entry.
type Filter struct {
	Status   Status
	FromDate string // inclusive, YYYY-MM-DD
	ToDate   string // inclusive, YYYY-MM-DD
	Page     int
	Limit    int
}

// Matches reports whether e passes the status and date criteria
func (f Filter) Matches(e *JournalEntry) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	// ISO dates compare correctly as strings
	if f.FromDate != "" && e.EntryDate < f.FromDate {
		return false
	}
	if f.ToDate != "" && e.EntryDate > f.ToDate {
		return false
	}
	return true
}

// Offset returns the zero-based index of the first entry of the page
func (f Filter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	// Pages past the addressable range start beyond any result set
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// ListResult is a page of journal entries
type ListResult struct {
	JournalEntries []*JournalEntry `json:"journalEntries"`
	TotalCount     int             `json:"totalCount"`
	Page           int             `json:"page"`
	Limit          int             `json:"limit"`
}

// Paginate slices sorted entries according to the filter's paging
func (f Filter) Paginate(entries []*JournalEntry) []*JournalEntry {
	start := f.Offset()
	if start >= len(entries) {
		return []*JournalEntry{}
	}
	if f.Limit <= 0 || start+f.Limit > len(entries) {
		return entries[start:]
	}
	return entries[start : start+f.Limit]
}
