// Package employee defines the HR-facing employee record layered on top of a
// user, the employee-number format, and the provisioning request types.
//
// The manager relation is self-referential: Employee.ManagerID references
// another Employee (never a User) in the same tenant. The relation is intended
// to be acyclic; read paths must not rely on that (see service.Hierarchy).
package employee

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/zenora-hq/zenora-core/internal/domain/user"
)

// NumberPrefix is the leading token of every employee number.
const NumberPrefix = "EMP"

// Status represents the lifecycle state of an employee record.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusTerminated Status = "TERMINATED"
)

// EmploymentType classifies the employment contract.
type EmploymentType string

const (
	TypeFullTime   EmploymentType = "FULL_TIME"
	TypePartTime   EmploymentType = "PART_TIME"
	TypeContractor EmploymentType = "CONTRACTOR"
	TypeIntern     EmploymentType = "INTERN"
)

// ValidEmploymentTypes is the set of accepted employment types.
var ValidEmploymentTypes = map[EmploymentType]bool{
	TypeFullTime:   true,
	TypePartTime:   true,
	TypeContractor: true,
	TypeIntern:     true,
}

// Employee is the HR record for a provisioned user. EmployeeNumber is assigned
// exactly once and never regenerated.
type Employee struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"tenant_id"`
	UserID           string         `json:"user_id"`
	EmployeeNumber   string         `json:"employee_number"`
	JobTitle         string         `json:"job_title"`
	DepartmentID     string         `json:"department_id"`
	EmploymentType   EmploymentType `json:"employment_type"`
	Status           Status         `json:"status"`
	StartDate        time.Time      `json:"start_date"`
	ManagerID        string         `json:"manager_id,omitempty"` // employee id, empty = root level
	EmergencyContact string         `json:"emergency_contact,omitempty"`
	EmergencyPhone   string         `json:"emergency_phone,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsRoot reports whether the employee has no manager.
func (e *Employee) IsRoot() bool { return e.ManagerID == "" }

// Day returns the calendar-day key (YYYYMMDD) used to scope sequence
// allocation, normalized from t.
func Day(t time.Time) string { return t.Format("20060102") }

// FormatNumber builds the human-facing employee number for a day key and
// sequence value, e.g. EMP-20251226-007. The sequence is zero-padded to three
// digits; values past 999 widen naturally.
func FormatNumber(day string, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", NumberPrefix, day, seq)
}

// defaultTitles maps a user role to the job title used when an employee record
// is auto-created for that user (manager backfill).
var defaultTitles = map[user.Role]string{
	user.RoleAdmin: "Administrator",
	user.RoleHR:    "HR Manager",
}

// DefaultJobTitle returns the role-derived job title for auto-created
// employee records. Roles without a specific mapping default to "Manager".
func DefaultJobTitle(role user.Role) string {
	if t, ok := defaultTitles[role]; ok {
		return t
	}
	return "Manager"
}

// ProvisionRequest is the input for converting a user into a fully provisioned
// employee, or for partially updating an existing one.
type ProvisionRequest struct {
	UserID           string         `json:"user_id"`
	JobTitle         string         `json:"job_title,omitempty"`
	DepartmentID     string         `json:"department_id,omitempty"`
	EmploymentType   EmploymentType `json:"employment_type,omitempty"`
	StartDate        time.Time      `json:"start_date,omitzero"`
	ManagerUserID    string         `json:"manager_user_id,omitempty"` // user id, resolved to an employee id
	TeamIDs          *[]string      `json:"team_ids,omitempty"`        // nil = untouched, non-nil = replaced wholesale
	EmergencyContact string         `json:"emergency_contact,omitempty"`
	EmergencyPhone   string         `json:"emergency_phone,omitempty"`
}

// Validate checks the request fields that can be judged without storage access.
func (r *ProvisionRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.EmploymentType != "" && !ValidEmploymentTypes[r.EmploymentType] {
		return errors.New("invalid employment_type")
	}
	return nil
}

// MaxBatchSize is the upper bound on rows per bulk import request.
const MaxBatchSize = 100

// ImportRow is one row of a bulk import payload. Department accepts either a
// department id or a case-insensitive department name. ManagerEmail, when set,
// must resolve to a user in the same tenant (possibly created earlier in the
// same batch).
type ImportRow struct {
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	Role           user.Role      `json:"role"`
	JobTitle       string         `json:"job_title"`
	Department     string         `json:"department"`
	EmploymentType EmploymentType `json:"employment_type,omitempty"`
	StartDate      string         `json:"start_date,omitempty"` // YYYY-MM-DD
	ManagerEmail   string         `json:"manager_email,omitempty"`
}

// Validate performs schema-level validation of a single import row.
func (r *ImportRow) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Role == "" {
		return errors.New("role is required")
	}
	if !user.ValidRoles[r.Role] {
		return errors.New("invalid role")
	}
	if r.JobTitle == "" {
		return errors.New("job_title is required")
	}
	if r.Department == "" {
		return errors.New("department is required")
	}
	if r.EmploymentType != "" && !ValidEmploymentTypes[r.EmploymentType] {
		return errors.New("invalid employment_type")
	}
	if r.StartDate != "" {
		if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
			return errors.New("invalid start_date: want YYYY-MM-DD")
		}
	}
	return nil
}
