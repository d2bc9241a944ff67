package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-api/internal/persistence"
)

// HealthHandler responds to liveness, health and info probes.
type HealthHandler struct {
	serviceName string
	version     string
	env         string
	postgres    *persistence.Postgres
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version, env string, postgres *persistence.Postgres) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, env: env, postgres: postgres}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Health reports overall health including the database probe.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	components := fiber.Map{}
	status := "UP"

	if err := h.postgres.Ping(ctx); err != nil {
		components["db"] = fiber.Map{"status": "DOWN"}
		status = "DOWN"
	} else {
		components["db"] = fiber.Map{"status": "UP"}
	}

	body := fiber.Map{"status": status, "components": components}
	if status != "UP" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}

// Info reports service identity.
func (h *HealthHandler) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    h.serviceName,
		"version": h.version,
		"profile": h.env,
	})
}
