// Package audit defines the append-only audit trail entry.
package audit

import (
	"encoding/json"
	"time"
)

// Entry records one mutation for the tenant's audit trail. The subsystem only
// ever appends entries; reads are an admin-facing concern.
type Entry struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	ActorID    string          `json:"actor_id"` // user id of the caller, empty for system actions
	Action     string          `json:"action"`   // e.g. "employee.provisioned"
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty"` // free-form before/after change set
	RequestID  string          `json:"request_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Action names appended by the provisioning subsystem.
const (
	ActionEmployeeProvisioned = "employee.provisioned"
	ActionEmployeeUpdated     = "employee.updated"
	ActionEmployeeImported    = "employee.imported"
	ActionManagerBackfilled   = "employee.manager_backfilled"
	ActionDepartmentCreated   = "department.created"
	ActionDepartmentUpdated   = "department.updated"
	ActionDepartmentDeleted   = "department.deleted"
	ActionUserCreated         = "user.created"
	ActionUserUpdated         = "user.updated"
)
