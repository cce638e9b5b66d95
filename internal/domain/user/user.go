// Package user defines the user identity model. A user is an account within a
// tenant; it may optionally be linked 1:1 to an employee record once the user
// is provisioned as a working employee.
package user

import (
	"errors"
	"net/mail"
	"time"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleHR         Role = "HR"
	RoleEmployee   Role = "EMPLOYEE"
	RoleAccountant Role = "ACCOUNTANT"
)

// ValidRoles is the set of all valid user roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleManager:    true,
	RoleHR:         true,
	RoleEmployee:   true,
	RoleAccountant: true,
}

// Status represents the lifecycle state of a user account. Users are never
// hard-deleted; deactivation is status-based.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInvited  Status = "INVITED"
	StatusInactive Status = "INACTIVE"
)

// User represents a registered identity within a tenant.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialized
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	DepartmentID string    `json:"department_id,omitempty"`
	EmployeeID   string    `json:"employee_id,omitempty"` // set once provisioned
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Role         Role   `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Password != "" && len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !ValidRoles[r.Role] {
		return errors.New("invalid role: must be ADMIN, MANAGER, HR, EMPLOYEE or ACCOUNTANT")
	}
	return nil
}

// UpdateRequest is the input for updating an existing user.
type UpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	Role         *Role   `json:"role,omitempty"`
	Status       *Status `json:"status,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// Validate checks that the UpdateRequest only carries valid values.
func (r *UpdateRequest) Validate() error {
	if r.Role != nil && !ValidRoles[*r.Role] {
		return errors.New("invalid role")
	}
	if r.Status != nil {
		switch *r.Status {
		case StatusActive, StatusInvited, StatusInactive:
		default:
			return errors.New("invalid status")
		}
	}
	return nil
}
