package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-api/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Employees *handlers.EmployeesHandler
	Admin     *handlers.AdminHandler
	APIKey    fiber.Handler
	JWT       fiber.Handler
	Policy    fiber.Handler
}

// RegisterRoutes wires the authorization pipeline and HTTP routes. The
// gate, verifier and policy middlewares run for every path; the policy
// table decides which paths are public.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.APIKey, cfg.JWT, cfg.Policy)

	app.Get("/healthz", cfg.Health.Live)
	app.Get("/actuator/health", cfg.Health.Health)
	app.Get("/actuator/info", cfg.Health.Info)
	app.Get("/api/public/info", cfg.Health.Info)

	employees := app.Group("/api/employees")
	employees.Get("/", cfg.Employees.List)
	employees.Get("/stats/summary", cfg.Employees.Stats)
	employees.Get("/department/:department", cfg.Employees.ListByDepartment)
	employees.Get("/:id", cfg.Employees.GetByID)
	employees.Post("/", cfg.Employees.Create)
	employees.Put("/:id", cfg.Employees.Update)
	employees.Delete("/:id", cfg.Employees.Delete)

	admin := app.Group("/api/admin")
	admin.Get("/metrics", cfg.Admin.Metrics)
}
