package rest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/hirosato/construction-erp/internal/api/response"
	"github.com/hirosato/construction-erp/internal/app"
	"github.com/hirosato/construction-erp/internal/domain/account"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/journal"
	"github.com/hirosato/construction-erp/internal/domain/statement"
)

// financeHandler serves the chart of accounts, the journal and the statements
type financeHandler struct {
	accounts   *account.Service
	journal    *journal.Service
	statements *statement.Service
}

func newFinanceHandler(a *app.App) *financeHandler {
	return &financeHandler{accounts: a.Accounts, journal: a.Journal, statements: a.Statements}
}

func (h *financeHandler) register(r fiber.Router) {
	r.Get("/accounts", h.listAccounts)
	r.Post("/accounts", h.createAccount)
	r.Get("/accounts/:id", h.getAccount)
	r.Patch("/accounts/:id", h.updateAccount)
	r.Delete("/accounts/:id", h.deactivateAccount)

	r.Get("/journal-entries", h.listJournalEntries)
	r.Post("/journal-entries", h.createJournalEntry)
	r.Get("/journal-entries/:id", h.getJournalEntry)
	r.Post("/journal-entries/:id/post", h.postJournalEntry)

	r.Get("/reports/balance-sheet", h.balanceSheet)
	r.Get("/reports/income-statement", h.incomeStatement)
	r.Get("/reports/cash-flow", h.cashFlowStatement)
}

func (h *financeHandler) listAccounts(c *fiber.Ctx) error {
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	filter := account.Filter{Active: active}
	if raw := c.Query("type"); raw != "" {
		typ, valid := account.ParseAccountType(raw)
		if !valid {
			return errors.NewValidationError(fmt.Sprintf("unknown account type %q", raw))
		}
		filter.AccountType = typ
	}

	accounts, err := h.accounts.ListAccounts(ctx(c), filter)
	if err != nil {
		return err
	}
	return page(c, accounts, response.NewPagination(len(accounts), 0, 0))
}

func (h *financeHandler) createAccount(c *fiber.Ctx) error {
	var req account.CreateAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	acc, err := h.accounts.CreateAccount(ctx(c), &req)
	if err != nil {
		return err
	}
	return created(c, acc)
}

func (h *financeHandler) getAccount(c *fiber.Ctx) error {
	acc, err := h.accounts.GetAccount(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, acc)
}

func (h *financeHandler) updateAccount(c *fiber.Ctx) error {
	var req account.UpdateAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	acc, err := h.accounts.UpdateAccount(ctx(c), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, acc)
}

func (h *financeHandler) deactivateAccount(c *fiber.Ctx) error {
	acc, err := h.accounts.DeactivateAccount(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, acc)
}

func (h *financeHandler) listJournalEntries(c *fiber.Ctx) error {
	pageNo, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	result, err := h.journal.ListJournalEntries(ctx(c), journal.Filter{
		Status:   journal.Status(c.Query("status")),
		FromDate: c.Query("startDate"),
		ToDate:   c.Query("endDate"),
		Page:     pageNo,
		Limit:    limit,
	})
	if err != nil {
		return err
	}
	return page(c, result.JournalEntries, response.NewPagination(result.TotalCount, result.Page, result.Limit))
}

func (h *financeHandler) createJournalEntry(c *fiber.Ctx) error {
	var req journal.CreateJournalEntryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	entry, err := h.journal.CreateJournalEntry(ctx(c), &req)
	if err != nil {
		return err
	}
	return created(c, entry)
}

func (h *financeHandler) getJournalEntry(c *fiber.Ctx) error {
	entry, err := h.journal.GetJournalEntry(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, entry)
}

func (h *financeHandler) postJournalEntry(c *fiber.Ctx) error {
	entry, err := h.journal.PostJournalEntry(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, entry)
}

func (h *financeHandler) balanceSheet(c *fiber.Ctx) error {
	sheet, err := h.statements.BalanceSheet(ctx(c), c.Query("asOfDate"))
	if err != nil {
		return err
	}
	return ok(c, sheet)
}

func (h *financeHandler) incomeStatement(c *fiber.Ctx) error {
	stmt, err := h.statements.IncomeStatement(ctx(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return err
	}
	return ok(c, stmt)
}

func (h *financeHandler) cashFlowStatement(c *fiber.Ctx) error {
	stmt, err := h.statements.CashFlowStatement(ctx(c), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return err
	}
	return ok(c, stmt)
}
