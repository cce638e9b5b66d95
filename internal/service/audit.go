// Package service implements business logic on top of ports.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/logger"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/database"
)

// AuditService appends entries to the tenant audit trail. Appends are
// best-effort: a failed append is logged, never propagated, so an audit
// outage can not block provisioning.
type AuditService struct {
	store database.Store
}

// NewAuditService creates a new AuditService.
func NewAuditService(store database.Store) *AuditService {
	return &AuditService{store: store}
}

// Record appends one entry. The actor and request ID are taken from the
// context; changes may be any JSON-serializable change set.
func (s *AuditService) Record(ctx context.Context, action, entityType, entityID string, changes any) {
	var changeSet json.RawMessage
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			slog.Warn("audit: marshal change set failed", "action", action, "error", err)
		} else {
			changeSet = data
		}
	}

	entry := &audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changeSet,
		RequestID:  logger.RequestID(ctx),
	}
	if u := middleware.UserFromContext(ctx); u != nil {
		entry.ActorID = u.ID
	}

	if err := s.store.AppendAudit(ctx, entry); err != nil {
		slog.Warn("audit: append failed", "action", action, "entity_id", entityID, "error", err)
	}
}

// List returns audit entries for the tenant, newest first.
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]audit.Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListAudit(ctx, limit, offset)
}
