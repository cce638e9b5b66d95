package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/department"
)

const departmentColumns = `id, tenant_id, name, COALESCE(head_id::text, ''), created_at, updated_at`

func scanDepartment(row pgx.Row) (*department.Department, error) {
	var d department.Department
	err := row.Scan(&d.ID, &d.TenantID, &d.Name, &d.HeadID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateDepartment(ctx context.Context, req department.CreateRequest) (*department.Department, error) {
	row := s.q(ctx).QueryRow(ctx,
		`INSERT INTO departments (tenant_id, name, head_id) VALUES ($1, $2, $3)
		 RETURNING `+departmentColumns,
		tenantFromCtx(ctx), req.Name, nullIfEmpty(req.HeadID))

	d, err := scanDepartment(row)
	if err != nil {
		return nil, fmt.Errorf("create department: %w", mapPgError(err))
	}
	return d, nil
}

func (s *Store) GetDepartment(ctx context.Context, id string) (*department.Department, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))

	d, err := scanDepartment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get department %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get department %s: %w", id, err)
	}
	return d, nil
}

// GetDepartmentByName matches the department name case-insensitively.
func (s *Store) GetDepartmentByName(ctx context.Context, name string) (*department.Department, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+departmentColumns+` FROM departments
		 WHERE lower(name) = lower($1) AND tenant_id = $2`,
		name, tenantFromCtx(ctx))

	d, err := scanDepartment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get department by name %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get department by name %q: %w", name, err)
	}
	return d, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]department.Department, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE tenant_id = $1 ORDER BY name ASC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var departments []department.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

func (s *Store) UpdateDepartment(ctx context.Context, d *department.Department) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE departments SET name = $3, head_id = $4, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2`,
		d.ID, tenantFromCtx(ctx), d.Name, nullIfEmpty(d.HeadID))
	if err != nil {
		return fmt.Errorf("update department %s: %w", d.ID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update department %s: %w", d.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	tag, err := s.q(ctx).Exec(ctx,
		`DELETE FROM departments WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))
	if err != nil {
		// A FK violation here means employees or users still reference the
		// department, which is a conflict rather than a missing row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("delete department %s: still referenced: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("delete department %s: %w", id, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete department %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
