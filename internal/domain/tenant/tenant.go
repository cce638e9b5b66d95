// Package tenant defines the tenant domain model. The tenant is the isolation
// boundary: every other entity in the system is scoped to exactly one tenant.
package tenant

import (
	"errors"
	"regexp"
	"time"
)

// Tenant represents one customer organization.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Domain    string    `json:"domain,omitempty"` // email domain used by import duplicate checks
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Domain string `json:"domain,omitempty"`
}

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("tenant name is required")
	}
	if !slugRegex.MatchString(r.Slug) {
		return errors.New("invalid slug: must be 3-64 lowercase alphanumeric characters or hyphens")
	}
	return nil
}
