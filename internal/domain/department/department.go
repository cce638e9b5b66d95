// Package department defines the tenant-scoped department grouping.
package department

import (
	"errors"
	"time"
)

// Department is a named grouping referenced by users and employees.
type Department struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	HeadID    string    `json:"head_id,omitempty"` // employee id of the department head
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to create a department.
type CreateRequest struct {
	Name   string `json:"name"`
	HeadID string `json:"head_id,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("department name is required")
	}
	if len(r.Name) > 128 {
		return errors.New("department name too long (max 128 chars)")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a department.
type UpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	HeadID *string `json:"head_id,omitempty"`
}
