package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/journal"
)

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no")
}

// CreateJournalEntry inserts the entry and its lines in one transaction after
// checking that every referenced account exists.
func (s *Store) CreateJournalEntry(ctx context.Context, entry *journal.JournalEntry) error {
	row := newJournalEntryRow(entry)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&journalEntryRow{}).Where("entry_number = ?", entry.EntryNumber).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return commonErrors.NewDuplicateCodeError("entryNumber", entry.EntryNumber)
		}

		ids := distinctAccounts(entry.Lines)
		var found []string
		if err := tx.Model(&accountRow{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return err
		}
		if missing := firstMissing(ids, found); missing != "" {
			return commonErrors.NewValidationError(fmt.Sprintf("account %s does not exist", missing))
		}

		return tx.Create(&row).Error
	})
	if isUniqueViolation(err) {
		return commonErrors.NewDuplicateCodeError("entryNumber", entry.EntryNumber)
	}
	if err != nil {
		return s.passThrough("failed to create journal entry", err)
	}
	return nil
}

func distinctAccounts(lines []journal.Line) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}

func firstMissing(want, found []string) string {
	have := make(map[string]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	for _, id := range want {
		if !have[id] {
			return id
		}
	}
	return ""
}

func (s *Store) GetJournalEntry(ctx context.Context, journalEntryID string) (*journal.JournalEntry, error) {
	var row journalEntryRow
	err := s.db.WithContext(ctx).Preload("Lines", orderedLines).Where("id = ?", journalEntryID).First(&row).Error
	if isNotFound(err) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("journal entry %s not found", journalEntryID))
	}
	if err != nil {
		return nil, s.internal("failed to get journal entry", err)
	}
	return row.toDomain(), nil
}

// entryFilter narrows journal_entries to the filter's status and date range
func entryFilter(filter journal.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.FromDate != "" {
			db = db.Where(clause.Gte{Column: "entry_date", Value: filter.FromDate})
		}
		if filter.ToDate != "" {
			db = db.Where(clause.Lte{Column: "entry_date", Value: filter.ToDate})
		}
		return db
	}
}

func (s *Store) ListJournalEntries(ctx context.Context, filter journal.Filter) (*journal.ListResult, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&journalEntryRow{}).Scopes(entryFilter(filter)).Count(&total).Error; err != nil {
		return nil, s.internal("failed to count journal entries", err)
	}

	page := db.Scopes(entryFilter(filter)).Preload("Lines", orderedLines).Order("entry_date DESC").Order("entry_number DESC")
	if filter.Limit > 0 {
		page = page.Offset(filter.Offset()).Limit(filter.Limit)
	}
	var rows []journalEntryRow
	if err := page.Find(&rows).Error; err != nil {
		return nil, s.internal("failed to list journal entries", err)
	}

	entries := make([]*journal.JournalEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return &journal.ListResult{
		JournalEntries: entries,
		TotalCount:     int(total),
		Page:           filter.Page,
		Limit:          filter.Limit,
	}, nil
}

// PostJournalEntry locks the entry row, flips it to Posted and applies every
// balance delta. Any failure rolls the whole posting back.
func (s *Store) PostJournalEntry(ctx context.Context, journalEntryID string, deltas []journal.BalanceDelta, postedAt time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row journalEntryRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", journalEntryID).First(&row).Error
		if isNotFound(err) {
			return commonErrors.NewNotFoundError(fmt.Sprintf("journal entry %s not found", journalEntryID))
		}
		if err != nil {
			return err
		}
		if journal.Status(row.Status) != journal.Draft {
			return commonErrors.NewAlreadyPostedError(journalEntryID)
		}

		for _, d := range deltas {
			res := tx.Model(&accountRow{}).Where("id = ?", d.AccountID).Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance + ?", d.Amount),
				"updated_at": postedAt,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", d.AccountID))
			}
		}

		return tx.Model(&journalEntryRow{}).Where("id = ?", journalEntryID).Updates(map[string]interface{}{
			"status":     string(journal.Posted),
			"posted_at":  postedAt,
			"updated_at": postedAt,
		}).Error
	})
	if err != nil {
		return s.passThrough("failed to post journal entry", err)
	}
	return nil
}
