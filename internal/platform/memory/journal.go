package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/journal"
)

func copyEntry(e *journal.JournalEntry) *journal.JournalEntry {
	out := *e
	out.Lines = append([]journal.Line(nil), e.Lines...)
	if e.PostedAt != nil {
		at := *e.PostedAt
		out.PostedAt = &at
	}
	return &out
}

func (s *Store) CreateJournalEntry(_ context.Context, entry *journal.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.entryNumbers[entry.EntryNumber]; taken {
		return errors.NewDuplicateCodeError("entryNumber", entry.EntryNumber)
	}
	for _, line := range entry.Lines {
		if _, ok := s.accounts[line.AccountID]; !ok {
			return errors.NewValidationError(fmt.Sprintf("account %s does not exist", line.AccountID))
		}
	}

	s.entries[entry.JournalEntryID] = copyEntry(entry)
	s.entryNumbers[entry.EntryNumber] = entry.JournalEntryID
	return nil
}

func (s *Store) GetJournalEntry(_ context.Context, journalEntryID string) (*journal.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[journalEntryID]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("journal entry %s not found", journalEntryID))
	}
	return copyEntry(entry), nil
}

func (s *Store) ListJournalEntries(_ context.Context, filter journal.Filter) (*journal.ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*journal.JournalEntry, 0)
	for _, entry := range s.entries {
		if filter.Matches(entry) {
			matched = append(matched, copyEntry(entry))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].EntryDate != matched[j].EntryDate {
			return matched[i].EntryDate > matched[j].EntryDate
		}
		return matched[i].EntryNumber > matched[j].EntryNumber
	})

	return &journal.ListResult{
		JournalEntries: filter.Paginate(matched),
		TotalCount:     len(matched),
		Page:           filter.Page,
		Limit:          filter.Limit,
	}, nil
}

// PostJournalEntry checks every precondition before writing anything so the
// whole posting applies or none of it does.
func (s *Store) PostJournalEntry(_ context.Context, journalEntryID string, deltas []journal.BalanceDelta, postedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[journalEntryID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("journal entry %s not found", journalEntryID))
	}
	if entry.Status != journal.Draft {
		return errors.NewAlreadyPostedError(journalEntryID)
	}
	for _, d := range deltas {
		if _, ok := s.accounts[d.AccountID]; !ok {
			return errors.NewNotFoundError(fmt.Sprintf("account %s not found", d.AccountID))
		}
	}

	for _, d := range deltas {
		acc := s.accounts[d.AccountID]
		acc.Balance = acc.Balance.Add(d.Amount)
		acc.UpdatedAt = postedAt
	}
	at := postedAt
	entry.Status = journal.Posted
	entry.PostedAt = &at
	entry.UpdatedAt = postedAt
	return nil
}
