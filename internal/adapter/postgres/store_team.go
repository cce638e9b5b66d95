package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/team"
)

const teamColumns = `id, tenant_id, name, created_at, updated_at`

func scanTeam(row pgx.Row) (*team.Team, error) {
	var t team.Team
	if err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTeam(ctx context.Context, req team.CreateRequest) (*team.Team, error) {
	row := s.q(ctx).QueryRow(ctx,
		`INSERT INTO teams (tenant_id, name) VALUES ($1, $2) RETURNING `+teamColumns,
		tenantFromCtx(ctx), req.Name)

	t, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("create team: %w", mapPgError(err))
	}
	return t, nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (*team.Team, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))

	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get team %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get team %s: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]team.Team, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE tenant_id = $1 ORDER BY name ASC`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []team.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (s *Store) ListEmployeeTeams(ctx context.Context, employeeID string) ([]team.Team, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT t.id, t.tenant_id, t.name, t.created_at, t.updated_at
		 FROM teams t
		 JOIN team_members m ON m.team_id = t.id
		 WHERE m.employee_id = $1 AND t.tenant_id = $2
		 ORDER BY t.name ASC`,
		employeeID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list teams for employee %s: %w", employeeID, err)
	}
	defer rows.Close()

	var teams []team.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

// ReplaceEmployeeTeams deletes all membership rows for the employee and
// inserts the provided list. This is a wholesale replacement, not a diff:
// an empty list clears every membership.
func (s *Store) ReplaceEmployeeTeams(ctx context.Context, employeeID string, teamIDs []string) error {
	return s.WithinTx(ctx, func(ctx context.Context) error {
		q := s.q(ctx)

		if _, err := q.Exec(ctx,
			`DELETE FROM team_members WHERE employee_id = $1`, employeeID); err != nil {
			return fmt.Errorf("clear teams for employee %s: %w", employeeID, err)
		}

		// The insert is guarded by a tenant-scoped team lookup: a team id
		// from another tenant inserts zero rows and fails the call instead
		// of leaving an invisible cross-tenant membership.
		seen := make(map[string]bool, len(teamIDs))
		for _, teamID := range teamIDs {
			if seen[teamID] {
				continue
			}
			seen[teamID] = true
			tag, err := q.Exec(ctx,
				`INSERT INTO team_members (team_id, employee_id)
				 SELECT id, $2 FROM teams WHERE id = $1 AND tenant_id = $3`,
				teamID, employeeID, tenantFromCtx(ctx))
			if err != nil {
				return fmt.Errorf("add employee %s to team %s: %w", employeeID, teamID, mapPgError(err))
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("add employee %s to team %s: %w", employeeID, teamID, domain.ErrNotFound)
			}
		}
		return nil
	})
}
