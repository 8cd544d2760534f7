package rest

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hirosato/construction-erp/internal/app"
	"github.com/hirosato/construction-erp/internal/domain/errors"
	"github.com/hirosato/construction-erp/internal/domain/project"
)

type projectHandler struct {
	projects *project.Service
}

func newProjectHandler(a *app.App) *projectHandler {
	return &projectHandler{projects: a.Projects}
}

func (h *projectHandler) register(r fiber.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/:id", h.get)
	r.Patch("/:id/status", h.updateStatus)
	r.Post("/:id/progress", h.recordProgress)
	r.Get("/:id/insights", h.insights)
}

// list accepts a comma separated status filter, e.g. ?status=Active,On Hold
func (h *projectHandler) list(c *fiber.Ctx) error {
	var statuses []project.Status
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, valid := project.ParseStatus(part)
			if !valid {
				return errors.NewValidationError(fmt.Sprintf("unknown project status %q", part))
			}
			statuses = append(statuses, st)
		}
	}

	projects, err := h.projects.ListProjects(ctx(c), statuses...)
	if err != nil {
		return err
	}
	return ok(c, projects)
}

func (h *projectHandler) create(c *fiber.Ctx) error {
	var req project.CreateProjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	p, err := h.projects.CreateProject(ctx(c), &req)
	if err != nil {
		return err
	}
	return created(c, p)
}

func (h *projectHandler) get(c *fiber.Ctx) error {
	p, err := h.projects.GetProject(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *projectHandler) updateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	p, err := h.projects.UpdateStatus(ctx(c), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *projectHandler) recordProgress(c *fiber.Ctx) error {
	var req project.RecordProgressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	progress, err := h.projects.RecordProgress(ctx(c), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return created(c, progress)
}

func (h *projectHandler) insights(c *fiber.Ctx) error {
	insights, err := h.projects.ProgressInsights(ctx(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, insights)
}
