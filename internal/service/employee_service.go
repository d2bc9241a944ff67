package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/employee-api/internal/domain"
	"github.com/spec-kit/employee-api/internal/repository"
	apperrors "github.com/spec-kit/employee-api/pkg/util"
)

// EmployeeService coordinates employee business rules over the repository:
// email uniqueness on writes and existence checks on reads. The unique
// constraint in the store remains the final backstop for concurrent
// writes racing on the same email.
type EmployeeService struct {
	employees repository.EmployeeRepository
}

// NewEmployeeService constructs the service.
func NewEmployeeService(employees repository.EmployeeRepository) *EmployeeService {
	return &EmployeeService{employees: employees}
}

// List returns all employees in storage order.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	return s.employees.List(ctx)
}

// GetByID returns a single employee or NOT_FOUND.
func (s *EmployeeService) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return employee, nil
}

// Create persists a new employee after checking email uniqueness.
func (s *EmployeeService) Create(ctx context.Context, input domain.EmployeeInput) (*domain.Employee, error) {
	exists, err := s.employees.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, emailConflict(input.Email)
	}

	employee := &domain.Employee{
		Name:       input.Name,
		Position:   input.Position,
		Department: input.Department,
		Salary:     input.Salary,
		Email:      input.Email,
		Phone:      input.Phone,
		HireDate:   input.HireDate,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// Update overwrites all mutable fields of an existing employee. The
// employee's own email is always acceptable; another record owning the
// requested email is a conflict.
func (s *EmployeeService) Update(ctx context.Context, id int64, input domain.EmployeeInput) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, err
	}

	taken, err := s.employees.ExistsByEmailExcluding(ctx, input.Email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, emailConflict(input.Email)
	}

	employee.Name = input.Name
	employee.Position = input.Position
	employee.Department = input.Department
	employee.Salary = input.Salary
	employee.Email = input.Email
	employee.Phone = input.Phone
	employee.HireDate = input.HireDate

	if err := s.employees.Update(ctx, employee); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return employee, nil
}

// Delete removes an employee or fails NOT_FOUND.
func (s *EmployeeService) Delete(ctx context.Context, id int64) error {
	if err := s.employees.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(id)
		}
		return err
	}
	return nil
}

// ListByDepartment returns employees whose department matches exactly.
func (s *EmployeeService) ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	return s.employees.ListByDepartment(ctx, department)
}

// Stats assembles the aggregate summary over the full table.
func (s *EmployeeService) Stats(ctx context.Context) (*domain.StatsSummary, error) {
	total, err := s.employees.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	avg, err := s.employees.AverageSalary(ctx)
	if err != nil {
		return nil, err
	}
	max, err := s.employees.MaxSalary(ctx)
	if err != nil {
		return nil, err
	}
	departments, err := s.employees.DepartmentCount(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.StatsSummary{
		TotalEmployees:  total,
		AverageSalary:   avg,
		HighestSalary:   max,
		DepartmentCount: departments,
	}, nil
}

func notFound(id int64) error {
	return apperrors.NewNotFound(fmt.Sprintf("Employee not found with id: %d", id))
}

func emailConflict(email string) error {
	return apperrors.NewConflict(fmt.Sprintf("Employee with email %s already exists", email))
}
