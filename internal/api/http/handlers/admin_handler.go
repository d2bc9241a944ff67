package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-api/internal/observability"
)

// AdminHandler serves administrative endpoints.
type AdminHandler struct {
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{metrics: metrics}
}

// Metrics GET /api/admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	requests, errs := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"requests": requests,
		"errors":   errs,
	})
}
