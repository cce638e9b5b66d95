// Package team defines tenant-scoped teams and employee membership.
package team

import (
	"errors"
	"time"
)

// Team is a named group of employees within a tenant. Membership rows are
// replaced wholesale on provisioning updates, never diffed.
type Team struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to create a team.
type CreateRequest struct {
	Name string `json:"name"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("team name is required")
	}
	return nil
}
