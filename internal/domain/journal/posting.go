package journal

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/errors"
)

// PostJournalEntry commits a draft entry to the ledger. A second call for the
// same entry fails with ALREADY_POSTED and leaves balances untouched.
func (s *Service) PostJournalEntry(ctx context.Context, journalEntryID string) (*JournalEntry, error) {
	entry, err := s.repo.GetJournalEntry(ctx, journalEntryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != Draft {
		return nil, errors.NewAlreadyPostedError(journalEntryID)
	}

	types := make(map[string]account.AccountType, len(entry.Lines))
	for _, line := range entry.Lines {
		if _, ok := types[line.AccountID]; ok {
			continue
		}
		acc, err := s.accounts.GetAccount(ctx, line.AccountID)
		if err != nil {
			return nil, err
		}
		types[acc.AccountID] = acc.AccountType
	}

	deltas, err := ComputeDeltas(entry.Lines, types)
	if err != nil {
		return nil, err
	}

	postedAt := s.now()
	// The repository re-checks Draft inside the same atomic unit; the check
	// above only avoids a wasted round trip.
	if err := s.repo.PostJournalEntry(ctx, journalEntryID, deltas, postedAt); err != nil {
		s.logger.Warn("journal entry posting failed",
			zap.String("journalEntryId", journalEntryID),
			zap.Error(err))
		return nil, err
	}

	entry.Status = Posted
	entry.PostedAt = &postedAt
	entry.UpdatedAt = postedAt

	s.logger.Info("journal entry posted",
		zap.String("journalEntryId", entry.JournalEntryID),
		zap.String("entryNumber", entry.EntryNumber),
		zap.Int("accounts", len(deltas)))

	return entry, nil
}

// ComputeDeltas turns journal lines into one balance delta per account using
// the normal-balance table. Deltas are sorted by account ID so every backend
// locks accounts in the same order.
func ComputeDeltas(lines []Line, types map[string]account.AccountType) ([]BalanceDelta, error) {
	byAccount := make(map[string]BalanceDelta, len(lines))
	for _, line := range lines {
		accountType, ok := types[line.AccountID]
		if !ok {
			return nil, errors.NewNotFoundError(fmt.Sprintf("account %s not found", line.AccountID))
		}
		amount, ok := account.BalanceDelta(accountType, line.Debit, line.Credit)
		if !ok {
			return nil, errors.NewInternalError(fmt.Sprintf("no posting rule for account type %s", accountType), nil)
		}

		d := byAccount[line.AccountID]
		d.AccountID = line.AccountID
		d.Amount = d.Amount.Add(amount)
		byAccount[line.AccountID] = d
	}

	deltas := make([]BalanceDelta, 0, len(byAccount))
	for _, d := range byAccount {
		deltas = append(deltas, d)
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].AccountID < deltas[j].AccountID })
	return deltas, nil
}
