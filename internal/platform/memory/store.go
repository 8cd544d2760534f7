// Package memory is an in-process store implementing every repository
// contract. It backs local development and service tests.
package memory

import (
	"sync"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/risk"
)

// Store keeps all aggregates in maps behind one lock. A single write lock
// makes each multi-record operation atomic. Reads hand out copies.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]*account.Account
	accountCodes map[string]string

	entries      map[string]*journal.JournalEntry
	entryNumbers map[string]string

	invoices       map[string]*invoice.Invoice
	invoiceNumbers map[string]string
	payments       map[string]*invoice.Payment
	paymentNumbers map[string]string

	projects     map[string]*project.Project
	projectCodes map[string]string
	progress     map[string][]*project.Progress

	riskLogs map[string][]*risk.Log
}

// New creates an empty store
func New() *Store {
	return &Store{
		accounts:       make(map[string]*account.Account),
		accountCodes:   make(map[string]string),
		entries:        make(map[string]*journal.JournalEntry),
		entryNumbers:   make(map[string]string),
		invoices:       make(map[string]*invoice.Invoice),
		invoiceNumbers: make(map[string]string),
		payments:       make(map[string]*invoice.Payment),
		paymentNumbers: make(map[string]string),
		projects:       make(map[string]*project.Project),
		projectCodes:   make(map[string]string),
		progress:       make(map[string][]*project.Progress),
		riskLogs:       make(map[string][]*risk.Log),
	}
}

var (
	_ account.Repository = (*Store)(nil)
	_ journal.Repository = (*Store)(nil)
	_ invoice.Repository = (*Store)(nil)
	_ project.Repository = (*Store)(nil)
	_ risk.LogRepository = (*Store)(nil)
)
