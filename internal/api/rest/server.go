// Package rest serves the ERP services over HTTP with fiber. Replies use the
// same success and error envelopes as the Lambda transport.
package rest

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/api/middleware"
	"github.com/hirosato/construction-erp/internal/api/response"
	"github.com/hirosato/construction-erp/internal/app"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
)

// requestIDKey is where the requestid middleware stores the id
const requestIDKey = "requestid"

// New builds the fiber application with every route registered
func New(a *app.App) *fiber.App {
	logger := a.Logger.Named("rest")
	server := fiber.New(fiber.Config{
		AppName:               "construction-erp",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	server.Use(recover.New())
	server.Use(requestid.New(requestid.Config{ContextKey: requestIDKey}))
	server.Use(accessLog(logger))
	server.Use(actor([]byte(a.Config.JWTSecret), logger))

	api := server.Group("/api")
	newFinanceHandler(a).register(api.Group("/finance"))
	newInvoiceHandler(a).register(api.Group("/invoices"))
	newProjectHandler(a).register(api.Group("/projects"))
	newInsightHandler(a).register(api.Group("/insights"))

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return server
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// errorHandler renders errors in the error envelope with the AppError status
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		err = fromFiber(err)
		status, body := response.NewError(err, requestID(c))
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("requestId", requestID(c)),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(status).JSON(body)
	}
}

// fromFiber maps fiber's routing and body errors onto the domain error codes
func fromFiber(err error) error {
	var fe *fiber.Error
	if !stderrors.As(err, &fe) {
		return err
	}
	switch fe.Code {
	case fiber.StatusNotFound:
		return errors.NewNotFoundError(fe.Message)
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return errors.NewInvalidInputError(fe.Message, fe)
	case fiber.StatusMethodNotAllowed:
		return errors.AppError{Code: "METHOD_NOT_ALLOWED", Message: fe.Message, StatusCode: fe.Code}
	}
	return errors.NewInternalError(fe.Message, fe)
}

func accessLog(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = errors.AsAppError(fromFiber(err)).StatusCode
		}
		logger.Info("request",
			zap.String("requestId", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status))
		return err
	}
}

// actor resolves the caller the same way the Lambda auth middleware does
func actor(secret []byte, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}
		id, err := middleware.ResolveActor(c.Get(fiber.HeaderAuthorization), c.Get(middleware.ActorHeader), secret)
		if err != nil {
			logger.Warn("authentication failed", zap.String("requestId", requestID(c)), zap.Error(err))
			return err
		}
		c.SetUserContext(auth.WithActor(c.UserContext(), id))
		c.Set(middleware.ActorHeader, id)
		return c.Next()
	}
}

func ctx(c *fiber.Ctx) context.Context {
	return c.UserContext()
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(response.NewSuccess(data, nil, requestID(c)))
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(response.NewSuccess(data, nil, requestID(c)))
}

func page(c *fiber.Ctx, data interface{}, p *response.Pagination) error {
	return c.JSON(response.NewSuccess(data, p, requestID(c)))
}

// parseBody decodes a JSON request body into out
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.NewInvalidInputError("Error parsing request body", err)
	}
	return nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(key + " must be an integer")
	}
	return n, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return nil, errors.NewValidationError(key + " must be true or false")
	}
	return &b, nil
}
