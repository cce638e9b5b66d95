package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
)

const userColumns = `id, tenant_id, email, name, password_hash, role, status,
	COALESCE(department_id::text, ''), COALESCE(employee_id::text, ''), created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash,
		&u.Role, &u.Status, &u.DepartmentID, &u.EmployeeID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) (*user.User, error) {
	row := s.q(ctx).QueryRow(ctx,
		`INSERT INTO users (tenant_id, email, name, password_hash, role, status, department_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		tenantFromCtx(ctx), u.Email, u.Name, u.PasswordHash, u.Role, u.Status,
		nullIfEmpty(u.DepartmentID))

	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", mapPgError(err))
	}
	return created, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// GetUserUnscoped looks a user up across tenants so the caller can tell a
// cross-tenant reference apart from a missing one.
func (s *Store) GetUserUnscoped(ctx context.Context, id string) (*user.User, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND tenant_id = $2`,
		email, tenantFromCtx(ctx))

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get user by email: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByTokenHash(ctx context.Context, tokenHash string) (*user.User, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE token_hash = $1`, tokenHash)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get user by token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY created_at ASC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE users SET name = $3, role = $4, status = $5, department_id = $6, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2`,
		u.ID, tenantFromCtx(ctx), u.Name, u.Role, u.Status, nullIfEmpty(u.DepartmentID))
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, domain.ErrNotFound)
	}
	return nil
}

// LinkUserEmployee sets the 1:1 employee linkage and aligns the user's
// department with the employee record in a single statement.
func (s *Store) LinkUserEmployee(ctx context.Context, userID, employeeID, departmentID string) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE users SET employee_id = $3, department_id = $4, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2`,
		userID, tenantFromCtx(ctx), employeeID, nullIfEmpty(departmentID))
	if err != nil {
		return fmt.Errorf("link user %s to employee %s: %w", userID, employeeID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("link user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) SetUserTokenHash(ctx context.Context, userID, tokenHash string) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE users SET token_hash = $3, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2`,
		userID, tenantFromCtx(ctx), nullIfEmpty(tokenHash))
	if err != nil {
		return fmt.Errorf("set token for user %s: %w", userID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set token for user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// ExistingEmails returns the subset of emails already registered in the tenant.
func (s *Store) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	rows, err := s.q(ctx).Query(ctx,
		`SELECT email FROM users WHERE tenant_id = $1 AND lower(email) = ANY(
			SELECT lower(e) FROM unnest($2::text[]) AS e)`,
		tenantFromCtx(ctx), emails)
	if err != nil {
		return nil, fmt.Errorf("check existing emails: %w", err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		existing = append(existing, e)
	}
	return existing, rows.Err()
}
