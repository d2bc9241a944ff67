package domain

import "time"

// Employee is the persisted personnel record. ID and the timestamps are
// assigned by the store; Email is unique across all employees.
type Employee struct {
	ID         int64
	Name       string
	Position   string
	Department string
	Salary     float64
	Email      string
	Phone      string
	HireDate   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EmployeeInput carries the mutable fields accepted on create and update.
type EmployeeInput struct {
	Name       string
	Position   string
	Department string
	Salary     float64
	Email      string
	Phone      string
	HireDate   time.Time
}

// StatsSummary aggregates scalar queries over the employee table.
// AverageSalary and HighestSalary are zero when the table is empty.
type StatsSummary struct {
	TotalEmployees  int64
	AverageSalary   float64
	HighestSalary   float64
	DepartmentCount int64
}
