package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/person-admin/internal/api/http/handlers"
	"github.com/spec-kit/person-admin/internal/observability"
	apperrors "github.com/spec-kit/person-admin/pkg/util/errorutil"
)

const adminPrefix = "/admin"

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger runs outermost so it sees the status the error handler wrote.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				if target, ok := redirectTarget(c, domainErr); ok {
					if isHTMX(c) || c.Method() != http.MethodGet {
						c.Set(handlers.HeaderRedirect, target)
					} else {
						err = c.Redirect(target, http.StatusSeeOther)
						return
					}
				}

				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// redirectTarget reports where a browser should go after err: expired
// views reload, and unauthenticated admin pages go to the login form.
func redirectTarget(c *fiber.Ctx, err *apperrors.DomainError) (string, bool) {
	switch err.Code {
	case "VIEW_EXPIRED":
		target, ok := err.Details["redirect"].(string)
		return target, ok && target != ""
	case "UNAUTHORIZED":
		if strings.HasPrefix(c.Path(), adminPrefix) {
			return handlers.LoginPath, true
		}
	}
	return "", false
}

func isHTMX(c *fiber.Ctx) bool {
	return c.Get("HX-Request") == "true"
}
