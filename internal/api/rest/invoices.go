package rest

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hirosato/construction-erp/internal/api/response"
	"github.com/hirosato/construction-erp/internal/app"
	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/invoice"
)

type invoiceHandler struct {
	invoices *invoice.Service
}

func newInvoiceHandler(a *app.App) *invoiceHandler {
	return &invoiceHandler{invoices: a.Invoices}
}

func (h *invoiceHandler) register(r fiber.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/aging/:type", h.aging)
	r.Get("/:id", h.get)
	r.Patch("/:id/status", h.updateStatus)
	r.Post("/:id/payments", h.recordPayment)
}

func (h *invoiceHandler) list(c *fiber.Ctx) error {
	pageNo, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	filter := invoice.Filter{
		Status:     invoice.Status(c.Query("status")),
		CustomerID: c.Query("customerId"),
		VendorID:   c.Query("vendorId"),
		ProjectID:  c.Query("projectId"),
		Page:       pageNo,
		Limit:      limit,
	}
	if raw := c.Query("type"); raw != "" {
		typ, valid := invoice.ParseInvoiceType(raw)
		if !valid {
			return errors.NewValidationError(fmt.Sprintf("unknown invoice type %q", raw))
		}
		filter.InvoiceType = typ
	}

	result, err := h.invoices.ListInvoices(ctx(c), filter)
	if err != nil {
		return err
	}
	return page(c, result.Invoices, response.NewPagination(result.TotalCount, result.Page, result.Limit))
}

func (h *invoiceHandler) create(c *fiber.Ctx) error {
	var req invoice.CreateInvoiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	inv, err := h.invoices.CreateInvoice(ctx(c), &req)
	if err != nil {
		return err
	}
	return created(c, inv)
}

func (h *invoiceHandler) get(c *fiber.Ctx) error {
	inv, err := h.invoices.GetInvoice(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, inv)
}

func (h *invoiceHandler) updateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	inv, err := h.invoices.UpdateInvoiceStatus(ctx(c), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return ok(c, inv)
}

func (h *invoiceHandler) recordPayment(c *fiber.Ctx) error {
	var req invoice.RecordPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.invoices.RecordPayment(ctx(c), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return created(c, result)
}

func (h *invoiceHandler) aging(c *fiber.Ctx) error {
	asOf := time.Now().UTC()
	if raw := c.Query("asOfDate"); raw != "" {
		d, err := utils.ParseISODate(raw, "as of date")
		if err != nil {
			return err
		}
		asOf = d
	}

	typ, valid := invoice.ParseInvoiceType(c.Params("type"))
	if !valid {
		return errors.NewValidationError(fmt.Sprintf("unknown invoice type %q", c.Params("type")))
	}

	report, err := h.invoices.AgingReport(ctx(c), typ, asOf)
	if err != nil {
		return err
	}
	return ok(c, report)
}
