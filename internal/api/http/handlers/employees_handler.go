package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-api/internal/api/dto"
	"github.com/spec-kit/employee-api/internal/service"
	apperrors "github.com/spec-kit/employee-api/pkg/util"
)

// EmployeesHandler manages employee CRUD and statistics endpoints.
type EmployeesHandler struct {
	service *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employeeService *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{service: employeeService}
}

// List GET /api/employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	employees, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeListResponse(employees))
}

// GetByID GET /api/employees/:id.
func (h *EmployeesHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	employee, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeResponse(employee))
}

// Create POST /api/employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	var req dto.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input, err := req.Validate()
	if err != nil {
		return err
	}
	employee, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeResponse(employee))
}

// Update PUT /api/employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input, err := req.Validate()
	if err != nil {
		return err
	}
	employee, err := h.service.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeResponse(employee))
}

// Delete DELETE /api/employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListByDepartment GET /api/employees/department/:department.
func (h *EmployeesHandler) ListByDepartment(c *fiber.Ctx) error {
	department, err := paramString(c, "department")
	if err != nil {
		return err
	}
	employees, err := h.service.ListByDepartment(c.UserContext(), department)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeListResponse(employees))
}

// Stats GET /api/employees/stats/summary.
func (h *EmployeesHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatsSummaryResponse(stats))
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid employee id", nil)
	}
	return id, nil
}

func paramString(c *fiber.Ctx, name string) (string, error) {
	value, err := url.PathUnescape(c.Params(name))
	if err != nil || value == "" {
		return "", apperrors.NewValidationError("invalid "+name, nil)
	}
	return value, nil
}
