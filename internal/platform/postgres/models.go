package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/project"
	"github.com/hirosato/construction-erp/internal/domain/risk"
)

type accountRow struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	Code        string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name        string          `gorm:"type:varchar(200);not null"`
	AccountType string          `gorm:"type:varchar(16);index;not null"`
	ParentID    null.String     `gorm:"type:varchar(36);index"`
	Balance     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Currency    string          `gorm:"type:char(3);not null"`
	IsActive    bool            `gorm:"not null"`
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (accountRow) TableName() string { return "accounts" }

func newAccountRow(a *account.Account) accountRow {
	return accountRow{
		ID:          a.AccountID,
		Code:        a.Code,
		Name:        a.Name,
		AccountType: string(a.AccountType),
		ParentID:    null.NewString(a.ParentID, a.ParentID != ""),
		Balance:     a.Balance,
		Currency:    a.Currency,
		IsActive:    a.IsActive,
		Description: a.Description,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (r accountRow) toDomain() *account.Account {
	return &account.Account{
		AccountID:   r.ID,
		Code:        r.Code,
		Name:        r.Name,
		AccountType: account.AccountType(r.AccountType),
		ParentID:    r.ParentID.String,
		Balance:     r.Balance,
		Currency:    r.Currency,
		IsActive:    r.IsActive,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type journalEntryRow struct {
	ID          string          `gorm:"primaryKey;type:varchar(26)"`
	EntryNumber string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	EntryDate   string          `gorm:"type:varchar(10);index;not null"`
	Description string          `gorm:"not null"`
	Reference   string
	TotalDebit  decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	TotalCredit decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Status      string          `gorm:"type:varchar(16);index;not null"`
	CreatedBy   string
	PostedAt    null.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []journalLineRow `gorm:"foreignKey:JournalEntryID;constraint:OnDelete:CASCADE"`
}

func (journalEntryRow) TableName() string { return "journal_entries" }

type journalLineRow struct {
	ID             string          `gorm:"primaryKey;type:varchar(26)"`
	JournalEntryID string          `gorm:"type:varchar(26);index;not null"`
	LineNo         int             `gorm:"not null"`
	AccountID      string          `gorm:"type:varchar(36);index;not null"`
	Debit          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Credit         decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Description    string
}

func (journalLineRow) TableName() string { return "journal_lines" }

func newJournalEntryRow(e *journal.JournalEntry) journalEntryRow {
	row := journalEntryRow{
		ID:          e.JournalEntryID,
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		Reference:   e.Reference,
		TotalDebit:  e.TotalDebit,
		TotalCredit: e.TotalCredit,
		Status:      string(e.Status),
		CreatedBy:   e.CreatedBy,
		PostedAt:    null.TimeFromPtr(e.PostedAt),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Lines:       make([]journalLineRow, 0, len(e.Lines)),
	}
	for i, l := range e.Lines {
		row.Lines = append(row.Lines, journalLineRow{
			ID:             l.LineID,
			JournalEntryID: e.JournalEntryID,
			LineNo:         i,
			AccountID:      l.AccountID,
			Debit:          l.Debit,
			Credit:         l.Credit,
			Description:    l.Description,
		})
	}
	return row
}

func (r journalEntryRow) toDomain() *journal.JournalEntry {
	e := &journal.JournalEntry{
		JournalEntryID: r.ID,
		EntryNumber:    r.EntryNumber,
		EntryDate:      r.EntryDate,
		Description:    r.Description,
		Reference:      r.Reference,
		TotalDebit:     r.TotalDebit,
		TotalCredit:    r.TotalCredit,
		Status:         journal.Status(r.Status),
		CreatedBy:      r.CreatedBy,
		PostedAt:       r.PostedAt.Ptr(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Lines:          make([]journal.Line, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		e.Lines = append(e.Lines, journal.Line{
			LineID:         l.ID,
			JournalEntryID: l.JournalEntryID,
			AccountID:      l.AccountID,
			Debit:          l.Debit,
			Credit:         l.Credit,
			Description:    l.Description,
		})
	}
	return e
}

type invoiceRow struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)"`
	InvoiceNumber  string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	InvoiceType    string          `gorm:"type:varchar(16);index;not null"`
	CustomerID     null.String     `gorm:"type:varchar(64);index"`
	VendorID       null.String     `gorm:"type:varchar(64);index"`
	ProjectID      null.String     `gorm:"type:varchar(36);index"`
	InvoiceDate    string          `gorm:"type:varchar(10);index;not null"`
	DueDate        string          `gorm:"type:varchar(10);not null"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PaidAmount     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Status         string          `gorm:"type:varchar(16);index;not null"`
	Currency       string          `gorm:"type:char(3);not null"`
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (invoiceRow) TableName() string { return "invoices" }

func newInvoiceRow(inv *invoice.Invoice) invoiceRow {
	return invoiceRow{
		ID:             inv.InvoiceID,
		InvoiceNumber:  inv.InvoiceNumber,
		InvoiceType:    string(inv.InvoiceType),
		CustomerID:     null.NewString(inv.CustomerID, inv.CustomerID != ""),
		VendorID:       null.NewString(inv.VendorID, inv.VendorID != ""),
		ProjectID:      null.NewString(inv.ProjectID, inv.ProjectID != ""),
		InvoiceDate:    inv.InvoiceDate,
		DueDate:        inv.DueDate,
		Subtotal:       inv.Subtotal,
		TaxAmount:      inv.TaxAmount,
		DiscountAmount: inv.DiscountAmount,
		TotalAmount:    inv.TotalAmount,
		PaidAmount:     inv.PaidAmount,
		Balance:        inv.Balance,
		Status:         string(inv.Status),
		Currency:       inv.Currency,
		Notes:          inv.Notes,
		CreatedBy:      inv.CreatedBy,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func (r invoiceRow) toDomain() *invoice.Invoice {
	return &invoice.Invoice{
		InvoiceID:      r.ID,
		InvoiceNumber:  r.InvoiceNumber,
		InvoiceType:    invoice.InvoiceType(r.InvoiceType),
		CustomerID:     r.CustomerID.String,
		VendorID:       r.VendorID.String,
		ProjectID:      r.ProjectID.String,
		InvoiceDate:    r.InvoiceDate,
		DueDate:        r.DueDate,
		Subtotal:       r.Subtotal,
		TaxAmount:      r.TaxAmount,
		DiscountAmount: r.DiscountAmount,
		TotalAmount:    r.TotalAmount,
		PaidAmount:     r.PaidAmount,
		Balance:        r.Balance,
		Status:         invoice.Status(r.Status),
		Currency:       r.Currency,
		Notes:          r.Notes,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type paymentRow struct {
	ID            string          `gorm:"primaryKey;type:varchar(26)"`
	PaymentNumber string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	InvoiceID     string          `gorm:"type:varchar(36);index;not null"`
	InvoiceType   string          `gorm:"type:varchar(16);not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Method        string          `gorm:"type:varchar(32);not null"`
	PaymentDate   string          `gorm:"type:varchar(10);index;not null"`
	Reference     string
	Notes         string
	Status        string `gorm:"type:varchar(16);not null"`
	CreatedBy     string
	CreatedAt     time.Time
}

func (paymentRow) TableName() string { return "payments" }

func newPaymentRow(p *invoice.Payment) paymentRow {
	return paymentRow{
		ID:            p.PaymentID,
		PaymentNumber: p.PaymentNumber,
		InvoiceID:     p.InvoiceID,
		InvoiceType:   string(p.InvoiceType),
		Amount:        p.Amount,
		Method:        p.Method,
		PaymentDate:   p.PaymentDate,
		Reference:     p.Reference,
		Notes:         p.Notes,
		Status:        p.Status,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}

func (r paymentRow) toDomain() *invoice.Payment {
	return &invoice.Payment{
		PaymentID:     r.ID,
		PaymentNumber: r.PaymentNumber,
		InvoiceID:     r.InvoiceID,
		InvoiceType:   invoice.InvoiceType(r.InvoiceType),
		Amount:        r.Amount,
		Method:        r.Method,
		PaymentDate:   r.PaymentDate,
		Reference:     r.Reference,
		Notes:         r.Notes,
		Status:        r.Status,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}

type projectRow struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)"`
	ProjectCode     string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	ProjectName     string          `gorm:"type:varchar(200);not null"`
	CustomerID      null.String     `gorm:"type:varchar(64)"`
	Location        string
	Description     string
	Status          string          `gorm:"type:varchar(16);index;not null"`
	Budget          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Spent           decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PlannedProgress decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	ActualProgress  decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	StartDate       null.String     `gorm:"type:varchar(10)"`
	EndDate         null.String     `gorm:"type:varchar(10)"`
	CreatedBy       string
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (projectRow) TableName() string { return "projects" }

func newProjectRow(p *project.Project) projectRow {
	return projectRow{
		ID:              p.ProjectID,
		ProjectCode:     p.ProjectCode,
		ProjectName:     p.ProjectName,
		CustomerID:      null.NewString(p.CustomerID, p.CustomerID != ""),
		Location:        p.Location,
		Description:     p.Description,
		Status:          string(p.Status),
		Budget:          p.Budget,
		Spent:           p.Spent,
		PlannedProgress: p.PlannedProgress,
		ActualProgress:  p.ActualProgress,
		StartDate:       null.NewString(p.StartDate, p.StartDate != ""),
		EndDate:         null.NewString(p.EndDate, p.EndDate != ""),
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (r projectRow) toDomain() *project.Project {
	return &project.Project{
		ProjectID:       r.ID,
		ProjectCode:     r.ProjectCode,
		ProjectName:     r.ProjectName,
		CustomerID:      r.CustomerID.String,
		Location:        r.Location,
		Description:     r.Description,
		Status:          project.Status(r.Status),
		Budget:          r.Budget,
		Spent:           r.Spent,
		PlannedProgress: r.PlannedProgress,
		ActualProgress:  r.ActualProgress,
		StartDate:       r.StartDate.String,
		EndDate:         r.EndDate.String,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type progressRow struct {
	ID              string          `gorm:"primaryKey;type:varchar(26)"`
	ProjectID       string          `gorm:"type:varchar(36);index;not null"`
	ProgressDate    string          `gorm:"type:varchar(10);not null"`
	PlannedProgress decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	ActualProgress  decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	BudgetSpent     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
}

func (progressRow) TableName() string { return "project_progress" }

func (r progressRow) toDomain() *project.Progress {
	return &project.Progress{
		ProgressID:      r.ID,
		ProjectID:       r.ProjectID,
		ProgressDate:    r.ProgressDate,
		PlannedProgress: r.PlannedProgress,
		ActualProgress:  r.ActualProgress,
		BudgetSpent:     r.BudgetSpent,
		Notes:           r.Notes,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
	}
}

// riskLogRow keeps factors as a JSON document
type riskLogRow struct {
	ID           string `gorm:"primaryKey;type:varchar(26)"`
	ProjectID    string `gorm:"type:varchar(36);index;not null"`
	Score        int    `gorm:"not null"`
	Level        string `gorm:"type:varchar(16);not null"`
	Factors      string `gorm:"type:jsonb;not null"`
	CalculatedAt time.Time
}

func (riskLogRow) TableName() string { return "risk_logs" }

func newRiskLogRow(l *risk.Log) (riskLogRow, error) {
	factors, err := json.Marshal(l.Factors)
	if err != nil {
		return riskLogRow{}, err
	}
	return riskLogRow{
		ID:           l.LogID,
		ProjectID:    l.ProjectID,
		Score:        l.Score,
		Level:        string(l.Level),
		Factors:      string(factors),
		CalculatedAt: l.CalculatedAt,
	}, nil
}

func (r riskLogRow) toDomain() (*risk.Log, error) {
	var factors []risk.Factor
	if err := json.Unmarshal([]byte(r.Factors), &factors); err != nil {
		return nil, err
	}
	return &risk.Log{
		LogID:        r.ID,
		ProjectID:    r.ProjectID,
		Score:        r.Score,
		Level:        risk.Level(r.Level),
		Factors:      factors,
		CalculatedAt: r.CalculatedAt,
	}, nil
}
