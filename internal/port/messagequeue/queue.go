// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects published by the provisioning subsystem. Welcome emails are
// dispatched by a subscriber after persistence, never inline with the request.
const (
	SubjectEmployeeProvisioned = "employees.provisioned"
	SubjectEmployeeImported    = "employees.imported" // one message per batch
	SubjectManagerAssigned     = "employees.manager_assigned"
)

// ProvisionedPayload is the schema for employees.provisioned messages.
type ProvisionedPayload struct {
	TenantID     string `json:"tenant_id"`
	EmployeeID   string `json:"employee_id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	JobTitle     string `json:"job_title"`
	Department   string `json:"department"`
	Organization string `json:"organization"`
	AssignedBy   string `json:"assigned_by"`
	TempPassword string `json:"temp_password,omitempty"`
}

// ManagerAssignedPayload is the schema for employees.manager_assigned messages.
type ManagerAssignedPayload struct {
	TenantID     string `json:"tenant_id"`
	ManagerEmail string `json:"manager_email"`
	ManagerName  string `json:"manager_name"`
	ReportName   string `json:"report_name"`
	JobTitle     string `json:"job_title"`
	Organization string `json:"organization"`
}

// ImportedPayload is the schema for employees.imported messages.
type ImportedPayload struct {
	TenantID  string               `json:"tenant_id"`
	BatchID   string               `json:"batch_id"`
	Employees []ProvisionedPayload `json:"employees"`
}
