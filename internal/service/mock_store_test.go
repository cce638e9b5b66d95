package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/department"
	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/domain/team"
	"github.com/zenora-hq/zenora-core/internal/domain/tenant"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/middleware"
)

// mockStore is an in-memory database.Store with the same tenant scoping and
// uniqueness rules as the postgres adapter. WithinTx has no rollback: tests
// that assert rollback behavior use failing inputs that are rejected before
// any write happens, or count writes explicitly.
type mockStore struct {
	mu sync.Mutex

	tenants     map[string]*tenant.Tenant
	users       map[string]*user.User
	tokenHashes map[string]string // token hash -> user id
	departments map[string]*department.Department
	teams       map[string]*team.Team
	memberships map[string][]string // employee id -> team ids
	employees   map[string]*employee.Employee
	sequences   map[string]int // tenant|day -> last value
	auditLog    []audit.Entry

	// createEmployeeErrs is drained one error per CreateEmployee call,
	// simulating number conflicts.
	createEmployeeErrs []error

	// commitErrs is drained one error per outermost WithinTx that would
	// otherwise commit, simulating commit failures.
	commitErrs []error

	// txDepth tracks WithinTx nesting so tests can assert single-transaction
	// behavior of composite operations.
	txDepth   int
	txEntered int
}

func newMockStore() *mockStore {
	return &mockStore{
		tenants:     map[string]*tenant.Tenant{},
		users:       map[string]*user.User{},
		tokenHashes: map[string]string{},
		departments: map[string]*department.Department{},
		teams:       map[string]*team.Team{},
		memberships: map[string][]string{},
		employees:   map[string]*employee.Employee{},
		sequences:   map[string]int{},
	}
}

func (m *mockStore) genID() string {
	return uuid.NewString()
}

func tenantOf(ctx context.Context) string { return middleware.TenantIDFromContext(ctx) }

func (m *mockStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.txDepth++
	if m.txDepth == 1 {
		m.txEntered++
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.txDepth--
		m.mu.Unlock()
	}()
	if err := fn(ctx); err != nil {
		return err
	}
	// A queued commit error fires after fn succeeds, like a connection
	// dropping between the writes and COMMIT.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txDepth == 1 && len(m.commitErrs) > 0 {
		err := m.commitErrs[0]
		m.commitErrs = m.commitErrs[1:]
		return err
	}
	return nil
}

// --- tenants ---

func (m *mockStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &tenant.Tenant{ID: m.genID(), Name: req.Name, Slug: req.Slug, Domain: req.Domain, Enabled: true}
	m.tenants[t.ID] = t
	return t, nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tenants[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetTenantBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tenant.Tenant
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, nil
}

// --- users ---

func (m *mockStore) CreateUser(ctx context.Context, u *user.User) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	for _, existing := range m.users {
		if existing.TenantID == tid && strings.EqualFold(existing.Email, u.Email) {
			return nil, domain.ErrConflict
		}
	}
	cp := *u
	cp.ID = m.genID()
	cp.TenantID = tid
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.TenantID != tenantOf(ctx) {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) GetUserUnscoped(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	for _, u := range m.users {
		if u.TenantID == tid && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetUserByTokenHash(_ context.Context, tokenHash string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokenHashes[tokenHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *mockStore) ListUsers(ctx context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	var out []user.User
	for _, u := range m.users {
		if u.TenantID == tid {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok || stored.TenantID != tenantOf(ctx) {
		return domain.ErrNotFound
	}
	cp := *u
	cp.TenantID = stored.TenantID
	cp.UpdatedAt = time.Now()
	m.users[u.ID] = &cp
	return nil
}

func (m *mockStore) LinkUserEmployee(ctx context.Context, userID, employeeID, departmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantOf(ctx) {
		return domain.ErrNotFound
	}
	u.EmployeeID = employeeID
	u.DepartmentID = departmentID
	return nil
}

func (m *mockStore) SetUserTokenHash(ctx context.Context, userID, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	for hash, id := range m.tokenHashes {
		if id == u.ID {
			delete(m.tokenHashes, hash)
		}
	}
	m.tokenHashes[tokenHash] = u.ID
	return nil
}

func (m *mockStore) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	var out []string
	for _, email := range emails {
		for _, u := range m.users {
			if u.TenantID == tid && strings.EqualFold(u.Email, email) {
				out = append(out, u.Email)
				break
			}
		}
	}
	return out, nil
}

// --- departments ---

func (m *mockStore) CreateDepartment(ctx context.Context, req department.CreateRequest) (*department.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	for _, d := range m.departments {
		if d.TenantID == tid && strings.EqualFold(d.Name, req.Name) {
			return nil, domain.ErrConflict
		}
	}
	d := &department.Department{ID: m.genID(), TenantID: tid, Name: req.Name, HeadID: req.HeadID}
	m.departments[d.ID] = d
	cp := *d
	return &cp, nil
}

func (m *mockStore) GetDepartment(ctx context.Context, id string) (*department.Department, error) {
	// The real store binds id to a uuid column; a non-UUID value errors at
	// the cast instead of reporting NotFound. Mirror that so callers cannot
	// rely on falling through to a name lookup.
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("get department %s: invalid input syntax for type uuid", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.departments[id]
	if !ok || d.TenantID != tenantOf(ctx) {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) GetDepartmentByName(ctx context.Context, name string) (*department.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	for _, d := range m.departments {
		if d.TenantID == tid && strings.EqualFold(d.Name, name) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListDepartments(ctx context.Context) ([]department.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	var out []department.Department
	for _, d := range m.departments {
		if d.TenantID == tid {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateDepartment(ctx context.Context, d *department.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.departments[d.ID]
	if !ok || stored.TenantID != tenantOf(ctx) {
		return domain.ErrNotFound
	}
	stored.Name = d.Name
	stored.HeadID = d.HeadID
	return nil
}

func (m *mockStore) DeleteDepartment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.departments[id]
	if !ok || d.TenantID != tenantOf(ctx) {
		return domain.ErrNotFound
	}
	for _, e := range m.employees {
		if e.DepartmentID == id {
			return domain.ErrConflict
		}
	}
	delete(m.departments, id)
	return nil
}

// --- teams ---

func (m *mockStore) CreateTeam(ctx context.Context, req team.CreateRequest) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &team.Team{ID: m.genID(), TenantID: tenantOf(ctx), Name: req.Name}
	m.teams[t.ID] = t
	cp := *t
	return &cp, nil
}

func (m *mockStore) GetTeam(ctx context.Context, id string) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok || t.TenantID != tenantOf(ctx) {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) ListTeams(ctx context.Context) ([]team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	var out []team.Team
	for _, t := range m.teams {
		if t.TenantID == tid {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockStore) ListEmployeeTeams(ctx context.Context, employeeID string) ([]team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []team.Team
	for _, id := range m.memberships[employeeID] {
		if t, ok := m.teams[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockStore) ReplaceEmployeeTeams(ctx context.Context, employeeID string, teamIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range teamIDs {
		t, ok := m.teams[id]
		if !ok || t.TenantID != tenantOf(ctx) {
			return domain.ErrNotFound
		}
	}
	m.memberships[employeeID] = append([]string(nil), teamIDs...)
	return nil
}

// --- employees ---

func (m *mockStore) NextEmployeeSequence(ctx context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tenantOf(ctx) + "|" + day
	m.sequences[key]++
	return m.sequences[key], nil
}

func (m *mockStore) CreateEmployee(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createEmployeeErrs) > 0 {
		err := m.createEmployeeErrs[0]
		m.createEmployeeErrs = m.createEmployeeErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	tid := tenantOf(ctx)
	for _, existing := range m.employees {
		if existing.TenantID == tid && existing.EmployeeNumber == e.EmployeeNumber {
			return nil, domain.ErrConflict
		}
		if existing.UserID == e.UserID {
			return nil, domain.ErrConflict
		}
	}
	cp := *e
	cp.ID = m.genID()
	cp.TenantID = tid
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.employees[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockStore) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok || e.TenantID != tenantOf(ctx) {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockStore) GetEmployeeByUser(ctx context.Context, userID string) (*employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	for _, e := range m.employees {
		if e.TenantID == tid && e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListEmployees(ctx context.Context) ([]employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	var out []employee.Employee
	for _, e := range m.employees {
		if e.TenantID == tid {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateEmployee(ctx context.Context, e *employee.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.employees[e.ID]
	if !ok || stored.TenantID != tenantOf(ctx) {
		return domain.ErrNotFound
	}
	cp := *e
	cp.TenantID = stored.TenantID
	cp.EmployeeNumber = stored.EmployeeNumber // immutable
	cp.UpdatedAt = time.Now()
	m.employees[e.ID] = &cp
	return nil
}

func (m *mockStore) ListDirectReports(ctx context.Context, managerID string) ([]employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	var out []employee.Employee
	for _, e := range m.employees {
		if e.TenantID == tid && e.ManagerID == managerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// --- audit ---

func (m *mockStore) AppendAudit(ctx context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.ID = m.genID()
	cp.TenantID = tenantOf(ctx)
	cp.CreatedAt = time.Now()
	m.auditLog = append(m.auditLog, cp)
	return nil
}

func (m *mockStore) ListAudit(ctx context.Context, limit, offset int) ([]audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tid := tenantOf(ctx)
	var out []audit.Entry
	for _, e := range m.auditLog {
		if e.TenantID == tid {
			out = append(out, e)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
