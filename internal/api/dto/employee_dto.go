package dto

import (
	"time"

	"github.com/spec-kit/employee-api/internal/domain"
)

// hireDateLayout is the wire format for the hire date.
const hireDateLayout = "2006-01-02"

// EmployeeRequest is the inbound payload for create and update.
type EmployeeRequest struct {
	Name       string   `json:"name" validate:"required,min=2,max=100"`
	Position   string   `json:"position" validate:"required,min=2,max=100"`
	Department string   `json:"department" validate:"required,min=2,max=50"`
	Salary     *float64 `json:"salary" validate:"required,gt=0"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      string   `json:"phone" validate:"required,phone"`
	HireDate   string   `json:"hireDate" validate:"required"`
}

// EmployeeResponse is the outbound employee representation.
type EmployeeResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Position   string    `json:"position"`
	Department string    `json:"department"`
	Salary     float64   `json:"salary"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	HireDate   string    `json:"hireDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// StatsSummaryResponse is the aggregate statistics payload.
type StatsSummaryResponse struct {
	TotalEmployees  int64   `json:"totalEmployees"`
	AverageSalary   float64 `json:"averageSalary"`
	HighestSalary   float64 `json:"highestSalary"`
	DepartmentCount int64   `json:"departmentCount"`
}

// NewEmployeeResponse maps the entity to its response form.
func NewEmployeeResponse(employee *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:         employee.ID,
		Name:       employee.Name,
		Position:   employee.Position,
		Department: employee.Department,
		Salary:     employee.Salary,
		Email:      employee.Email,
		Phone:      employee.Phone,
		HireDate:   employee.HireDate.Format(hireDateLayout),
		CreatedAt:  employee.CreatedAt,
		UpdatedAt:  employee.UpdatedAt,
	}
}

// NewEmployeeListResponse maps a slice of entities.
func NewEmployeeListResponse(employees []domain.Employee) []EmployeeResponse {
	items := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, NewEmployeeResponse(&employees[i]))
	}
	return items
}

// NewStatsSummaryResponse maps the aggregate summary.
func NewStatsSummaryResponse(stats *domain.StatsSummary) StatsSummaryResponse {
	return StatsSummaryResponse{
		TotalEmployees:  stats.TotalEmployees,
		AverageSalary:   stats.AverageSalary,
		HighestSalary:   stats.HighestSalary,
		DepartmentCount: stats.DepartmentCount,
	}
}
