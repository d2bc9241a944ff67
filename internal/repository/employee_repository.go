package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/employee-api/internal/domain"
)

// EmployeeRepository encapsulates employee persistence.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
	ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailExcluding(ctx context.Context, email string, excludeID int64) (bool, error)
	CountAll(ctx context.Context) (int64, error)
	AverageSalary(ctx context.Context) (float64, error)
	MaxSalary(ctx context.Context) (float64, error)
	DepartmentCount(ctx context.Context) (int64, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `id, name, position, department, salary::float8, email, phone, hire_date, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (name, position, department, salary, email, phone, hire_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		employee.Name,
		employee.Position,
		employee.Department,
		employee.Salary,
		employee.Email,
		employee.Phone,
		employee.HireDate,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `
        UPDATE employees SET name=$1, position=$2, department=$3, salary=$4, email=$5,
            phone=$6, hire_date=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		employee.Name,
		employee.Position,
		employee.Department,
		employee.Salary,
		employee.Email,
		employee.Phone,
		employee.HireDate,
		employee.ID,
	).Scan(&employee.UpdatedAt)
	if err != nil {
		return err
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	var employee domain.Employee
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Position,
		&employee.Department,
		&employee.Salary,
		&employee.Email,
		&employee.Phone,
		&employee.HireDate,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (r *employeeRepository) ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE department=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (r *employeeRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE email=$1)`, email,
	).Scan(&exists)
	return exists, err
}

func (r *employeeRepository) ExistsByEmailExcluding(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE email=$1 AND id<>$2)`, email, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *employeeRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count)
	return count, err
}

// AverageSalary returns 0 for an empty table; the COALESCE keeps the
// empty-store default at the persistence layer.
func (r *employeeRepository) AverageSalary(ctx context.Context) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(salary), 0)::float8 FROM employees`,
	).Scan(&avg)
	return avg, err
}

// MaxSalary returns 0 for an empty table.
func (r *employeeRepository) MaxSalary(ctx context.Context) (float64, error) {
	var max float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(salary), 0)::float8 FROM employees`,
	).Scan(&max)
	return max, err
}

func (r *employeeRepository) DepartmentCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT department) FROM employees`,
	).Scan(&count)
	return count, err
}

func scanEmployees(rows pgx.Rows) ([]domain.Employee, error) {
	result := []domain.Employee{}
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.Name,
			&employee.Position,
			&employee.Department,
			&employee.Salary,
			&employee.Email,
			&employee.Phone,
			&employee.HireDate,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, employee)
	}
	return result, rows.Err()
}
