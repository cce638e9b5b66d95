package postgres

import (
	"context"
	"fmt"

	"github.com/zenora-hq/zenora-core/internal/domain/audit"
)

// AppendAudit inserts an entry into the append-only audit_logs table.
func (s *Store) AppendAudit(ctx context.Context, e *audit.Entry) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO audit_logs (tenant_id, actor_id, action, entity_type, entity_id, changes, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tenantFromCtx(ctx), nullIfEmpty(e.ActorID), e.Action, e.EntityType, e.EntityID,
		e.Changes, e.RequestID)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns audit entries for the tenant, newest first.
func (s *Store) ListAudit(ctx context.Context, limit, offset int) ([]audit.Entry, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id, tenant_id, COALESCE(actor_id::text, ''), action, entity_type, entity_id,
			changes, request_id, created_at
		 FROM audit_logs WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantFromCtx(ctx), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.Action, &e.EntityType,
			&e.EntityID, &e.Changes, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
