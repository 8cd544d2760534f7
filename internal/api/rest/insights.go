package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hirosato/construction-erp/internal/app"
	"github.com/hirosato/construction-erp/internal/domain/forecast"
	"github.com/hirosato/construction-erp/internal/domain/risk"
)

type insightHandler struct {
	risks         *risk.Service
	forecasts     *forecast.Service
	defaultMonths int
}

func newInsightHandler(a *app.App) *insightHandler {
	return &insightHandler{risks: a.Risks, forecasts: a.Forecasts, defaultMonths: a.Config.ForecastMonths}
}

func (h *insightHandler) register(r fiber.Router) {
	r.Get("/projects/:id/risk", h.scoreProject)
	r.Get("/projects/:id/risk/history", h.riskHistory)
	r.Get("/risks", h.openProjectRisks)
	r.Get("/cash-flow-forecast", h.cashFlowForecast)
}

// scoreProject computes a fresh score and appends it to the risk history
func (h *insightHandler) scoreProject(c *fiber.Ctx) error {
	result, err := h.risks.ScoreProject(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, result)
}

func (h *insightHandler) riskHistory(c *fiber.Ctx) error {
	logs, err := h.risks.History(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, logs)
}

func (h *insightHandler) openProjectRisks(c *fiber.Ctx) error {
	risks, err := h.risks.ScoreActiveProjects(ctx(c))
	if err != nil {
		return err
	}
	return ok(c, risks)
}

func (h *insightHandler) cashFlowForecast(c *fiber.Ctx) error {
	months, err := queryInt(c, "months")
	if err != nil {
		return err
	}
	if months == 0 {
		months = h.defaultMonths
	}
	scenarios, err := queryBool(c, "scenarios")
	if err != nil {
		return err
	}

	report, err := h.forecasts.ForecastCashFlow(ctx(c), months, scenarios != nil && *scenarios)
	if err != nil {
		return err
	}
	return ok(c, report)
}
