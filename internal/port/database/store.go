// Package database defines the persistence port (interface) for Zenora.
package database

import (
	"context"

	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/department"
	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/domain/team"
	"github.com/zenora-hq/zenora-core/internal/domain/tenant"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
)

// Store is the port interface for relational persistence. Tenant-scoped
// methods take the tenant ID from the request context; cross-tenant reads are
// impossible through this interface except where a method is documented as
// unscoped.
type Store interface {
	// WithinTx runs fn inside a single database transaction. Store calls made
	// with the context passed to fn join that transaction. Nested calls reuse
	// the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// --- Tenants (unscoped; tenants are the scoping boundary itself) ---

	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)

	// --- Users ---

	CreateUser(ctx context.Context, u *user.User) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	// GetUserUnscoped looks a user up by ID across all tenants. Callers must
	// compare TenantID themselves; this exists so cross-tenant references can
	// be rejected as such instead of reported as missing.
	GetUserUnscoped(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	// GetUserByTokenHash resolves the user owning the given API token hash.
	GetUserByTokenHash(ctx context.Context, tokenHash string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	// LinkUserEmployee sets the user's employee linkage and department in one
	// statement, keeping User.DepartmentID consistent with the employee record.
	LinkUserEmployee(ctx context.Context, userID, employeeID, departmentID string) error
	SetUserTokenHash(ctx context.Context, userID, tokenHash string) error
	// ExistingEmails returns the subset of emails already registered in the
	// tenant, used by bulk import pre-checks.
	ExistingEmails(ctx context.Context, emails []string) ([]string, error)

	// --- Departments ---

	CreateDepartment(ctx context.Context, req department.CreateRequest) (*department.Department, error)
	GetDepartment(ctx context.Context, id string) (*department.Department, error)
	// GetDepartmentByName matches case-insensitively.
	GetDepartmentByName(ctx context.Context, name string) (*department.Department, error)
	ListDepartments(ctx context.Context) ([]department.Department, error)
	UpdateDepartment(ctx context.Context, d *department.Department) error
	DeleteDepartment(ctx context.Context, id string) error

	// --- Teams ---

	CreateTeam(ctx context.Context, req team.CreateRequest) (*team.Team, error)
	GetTeam(ctx context.Context, id string) (*team.Team, error)
	ListTeams(ctx context.Context) ([]team.Team, error)
	ListEmployeeTeams(ctx context.Context, employeeID string) ([]team.Team, error)
	// ReplaceEmployeeTeams deletes all membership rows for the employee and
	// inserts the given list. An empty list clears all memberships.
	ReplaceEmployeeTeams(ctx context.Context, employeeID string, teamIDs []string) error

	// --- Employees ---

	// NextEmployeeSequence atomically increments and returns the per-tenant,
	// per-day employee number sequence. Two concurrent callers never receive
	// the same value.
	NextEmployeeSequence(ctx context.Context, day string) (int, error)
	CreateEmployee(ctx context.Context, e *employee.Employee) (*employee.Employee, error)
	GetEmployee(ctx context.Context, id string) (*employee.Employee, error)
	GetEmployeeByUser(ctx context.Context, userID string) (*employee.Employee, error)
	ListEmployees(ctx context.Context) ([]employee.Employee, error)
	UpdateEmployee(ctx context.Context, e *employee.Employee) error
	// ListDirectReports returns employees whose manager_id equals managerID.
	ListDirectReports(ctx context.Context, managerID string) ([]employee.Employee, error)

	// --- Audit ---

	AppendAudit(ctx context.Context, e *audit.Entry) error
	ListAudit(ctx context.Context, limit, offset int) ([]audit.Entry, error)
}
