package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/person-admin/internal/api/http/handlers"
	"github.com/spec-kit/person-admin/internal/auth"
	"github.com/spec-kit/person-admin/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	People *handlers.PeopleHandler
	Admin  *handlers.AdminHandler
	Auth   *handlers.AuthHandler
	// APIAuth guards the query API; AdminAuth guards the list view.
	APIAuth   *auth.AuthMiddleware
	AdminAuth *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Get("/login", cfg.Auth.LoginForm)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api := app.Group("/api", cfg.APIAuth.Handle,
		auth.RequireSubject(domain.SubjectTypeService, domain.SubjectTypeOperator))
	api.Get("/people", cfg.People.List)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/admin/people", fiber.StatusSeeOther)
	})

	admin := app.Group("/admin/people", cfg.AdminAuth.Handle, auth.RequireSubject(domain.SubjectTypeOperator))
	admin.Get("", cfg.Admin.Mount)
	admin.Post("/filter", cfg.Admin.Filter)
	admin.Post("/pagination", cfg.Admin.Paginate)
	admin.Post("/sort", cfg.Admin.Sort)
	admin.Post("/selection", cfg.Admin.Select)
	admin.Post("/export", cfg.Admin.Export)
	admin.Post("/notification/dismiss", cfg.Admin.DismissNotification)
}
