package resources

import (
	"context"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/mcp"
)

// ChartOfAccountsResource lists every account ordered by code
type ChartOfAccountsResource struct {
	accounts *account.Service
}

func NewChartOfAccountsResource(accounts *account.Service) *ChartOfAccountsResource {
	return &ChartOfAccountsResource{accounts: accounts}
}

func (r *ChartOfAccountsResource) GetURI() string         { return "erp://accounts" }
func (r *ChartOfAccountsResource) GetName() string        { return "Chart of accounts" }
func (r *ChartOfAccountsResource) GetDescription() string { return "All ledger accounts with their current balances" }
func (r *ChartOfAccountsResource) GetMimeType() string    { return mimeJSON }

func (r *ChartOfAccountsResource) Read(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if id := childID(r.GetURI(), uri); id != "" {
		acc, err := r.accounts.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, acc)
	}

	accounts, err := r.accounts.ListAccounts(ctx, account.Filter{})
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, map[string]interface{}{"accounts": accounts, "count": len(accounts)})
}

// JournalEntriesResource lists recent journal entries, or one entry when an id follows the URI
type JournalEntriesResource struct {
	journal *journal.Service
}

func NewJournalEntriesResource(journalService *journal.Service) *JournalEntriesResource {
	return &JournalEntriesResource{journal: journalService}
}

func (r *JournalEntriesResource) GetURI() string  { return "erp://journal-entries" }
func (r *JournalEntriesResource) GetName() string { return "Journal entries" }
func (r *JournalEntriesResource) GetDescription() string {
	return "Most recent journal entries, newest first; erp://journal-entries/{id} reads one entry with its lines"
}
func (r *JournalEntriesResource) GetMimeType() string { return mimeJSON }

func (r *JournalEntriesResource) Read(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if id := childID(r.GetURI(), uri); id != "" {
		entry, err := r.journal.GetJournalEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		return jsonContents(uri, entry)
	}

	result, err := r.journal.ListJournalEntries(ctx, journal.Filter{Page: 1})
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, result)
}
