package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/employee"
)

const employeeColumns = `id, tenant_id, user_id, employee_number, job_title, department_id,
	employment_type, status, start_date, COALESCE(manager_id::text, ''),
	emergency_contact, emergency_phone, created_at, updated_at`

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(&e.ID, &e.TenantID, &e.UserID, &e.EmployeeNumber, &e.JobTitle,
		&e.DepartmentID, &e.EmploymentType, &e.Status, &e.StartDate, &e.ManagerID,
		&e.EmergencyContact, &e.EmergencyPhone, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// NextEmployeeSequence atomically increments and returns the per-tenant,
// per-day allocation counter. The upsert takes a row lock on the counter, so
// two concurrent callers are serialized and never see the same value.
func (s *Store) NextEmployeeSequence(ctx context.Context, day string) (int, error) {
	var n int
	err := s.q(ctx).QueryRow(ctx,
		`INSERT INTO employee_sequences (tenant_id, day, last_number)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (tenant_id, day)
		 DO UPDATE SET last_number = employee_sequences.last_number + 1
		 RETURNING last_number`,
		tenantFromCtx(ctx), day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next employee sequence for day %s: %w", day, err)
	}
	return n, nil
}

func (s *Store) CreateEmployee(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	row := s.q(ctx).QueryRow(ctx,
		`INSERT INTO employees (tenant_id, user_id, employee_number, job_title, department_id,
			employment_type, status, start_date, manager_id, emergency_contact, emergency_phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+employeeColumns,
		tenantFromCtx(ctx), e.UserID, e.EmployeeNumber, e.JobTitle, e.DepartmentID,
		e.EmploymentType, e.Status, e.StartDate, nullIfEmpty(e.ManagerID),
		e.EmergencyContact, e.EmergencyPhone)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", mapPgError(err))
	}
	return created, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))

	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get employee %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get employee %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) GetEmployeeByUser(ctx context.Context, userID string) (*employee.Employee, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantFromCtx(ctx))

	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get employee for user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get employee for user %s: %w", userID, err)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]employee.Employee, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE tenant_id = $1 ORDER BY employee_number ASC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

// UpdateEmployee applies mutable fields. The employee number is deliberately
// absent from the SET list: numbers are immutable once assigned.
func (s *Store) UpdateEmployee(ctx context.Context, e *employee.Employee) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE employees SET job_title = $3, department_id = $4, employment_type = $5,
			status = $6, start_date = $7, manager_id = $8,
			emergency_contact = $9, emergency_phone = $10, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2`,
		e.ID, tenantFromCtx(ctx), e.JobTitle, e.DepartmentID, e.EmploymentType,
		e.Status, e.StartDate, nullIfEmpty(e.ManagerID), e.EmergencyContact, e.EmergencyPhone)
	if err != nil {
		return fmt.Errorf("update employee %s: %w", e.ID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update employee %s: %w", e.ID, domain.ErrNotFound)
	}
	return nil
}

// ListDirectReports returns employees whose manager_id equals managerID.
func (s *Store) ListDirectReports(ctx context.Context, managerID string) ([]employee.Employee, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+employeeColumns+` FROM employees
		 WHERE manager_id = $1 AND tenant_id = $2 ORDER BY employee_number ASC`,
		managerID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list direct reports of %s: %w", managerID, err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}
