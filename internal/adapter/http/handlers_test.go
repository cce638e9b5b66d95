package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/department"
	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/database"
	"github.com/zenora-hq/zenora-core/internal/service"
)

// fakeStore embeds the Store interface so only the methods a test exercises
// need implementing; anything else panics loudly.
type fakeStore struct {
	database.Store

	users     map[string]*user.User
	employees map[string]*employee.Employee
	seq       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]*user.User{},
		employees: map[string]*employee.Employee{},
	}
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) GetEmployeeByUser(_ context.Context, userID string) (*employee.Employee, error) {
	for _, e := range f.employees {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) GetDepartment(_ context.Context, id string) (*department.Department, error) {
	if id == "dept-1" {
		return &department.Department{ID: "dept-1", Name: "Engineering"}, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) NextEmployeeSequence(_ context.Context, _ string) (int, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	cp := *e
	cp.ID = "emp-1"
	f.employees[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeStore) LinkUserEmployee(_ context.Context, userID, employeeID, departmentID string) error {
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.EmployeeID = employeeID
	u.DepartmentID = departmentID
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *user.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) AppendAudit(_ context.Context, _ *audit.Entry) error { return nil }

// fakeValidator maps tokens to users without touching storage.
type fakeValidator map[string]*user.User

func (f fakeValidator) ValidateToken(_ context.Context, token string) (*user.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, domain.ErrUnauthenticated
}

func newTestServer(t *testing.T, store *fakeStore, users fakeValidator) *httptest.Server {
	t.Helper()

	auditSvc := service.NewAuditService(store)
	hierarchy := service.NewHierarchyService(store)
	auth := service.NewAuthService(store, 4)
	employees := service.NewEmployeeService(store, hierarchy, auditSvc, nil, nil, nil)
	imports := service.NewBulkImportService(store, employees, auth, auditSvc, nil, nil, nil, time.Second)
	userSvc := service.NewUserService(store, auth, auditSvc)

	h := &Handlers{
		Auth:      auth,
		Users:     userSvc,
		Employees: employees,
		Hierarchy: hierarchy,
		Imports:   imports,
		Audit:     auditSvc,
	}

	r := chi.NewRouter()
	r.Use(middleware.TenantID)
	r.Use(middleware.Auth(users))
	MountRoutes(r, h)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doReq(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), fakeValidator{})

	resp := doReq(t, http.MethodGet, srv.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRequestsRequireToken(t *testing.T) {
	srv := newTestServer(t, newFakeStore(), fakeValidator{})

	resp := doReq(t, http.MethodGet, srv.URL+"/api/v1/employees", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestProvisionRequiresElevatedRole(t *testing.T) {
	store := newFakeStore()
	rank := &user.User{ID: "u-rank", TenantID: "t1", Role: user.RoleEmployee, Status: user.StatusActive}
	srv := newTestServer(t, store, fakeValidator{"rank-token": rank})

	resp := doReq(t, http.MethodPost, srv.URL+"/api/v1/employees/provision", "rank-token",
		`{"user_id":"u-rank","job_title":"Engineer","department_id":"dept-1"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestProvisionEndpoint(t *testing.T) {
	store := newFakeStore()
	store.users["u-new"] = &user.User{ID: "u-new", TenantID: "t1", Email: "new@acme.test", Name: "New", Role: user.RoleEmployee}
	hr := &user.User{ID: "u-hr", TenantID: "t1", Role: user.RoleHR, Status: user.StatusActive}
	srv := newTestServer(t, store, fakeValidator{"hr-token": hr})

	resp := doReq(t, http.MethodPost, srv.URL+"/api/v1/employees/provision", "hr-token",
		`{"user_id":"u-new","job_title":"Engineer","department_id":"dept-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	e, ok := store.employees["emp-1"]
	if !ok {
		t.Fatal("employee was not created")
	}
	if !strings.HasPrefix(e.EmployeeNumber, "EMP-") || !strings.HasSuffix(e.EmployeeNumber, "-001") {
		t.Errorf("number = %q, want EMP-<day>-001", e.EmployeeNumber)
	}
}

func TestAssignRoleDefaultsTitleFromRole(t *testing.T) {
	store := newFakeStore()
	store.users["u-new"] = &user.User{ID: "u-new", TenantID: "t1", Email: "new@acme.test", Name: "New", Role: user.RoleEmployee}
	admin := &user.User{ID: "u-admin", TenantID: "t1", Role: user.RoleAdmin, Status: user.StatusActive}
	srv := newTestServer(t, store, fakeValidator{"admin-token": admin})

	resp := doReq(t, http.MethodPost, srv.URL+"/api/v1/users/u-new/assign-role", "admin-token",
		`{"role":"MANAGER","department_id":"dept-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := store.users["u-new"].Role; got != user.RoleManager {
		t.Errorf("role = %s, want MANAGER", got)
	}
	e, ok := store.employees["emp-1"]
	if !ok {
		t.Fatal("role assignment did not provision an employee")
	}
	if e.JobTitle != "Manager" {
		t.Errorf("job title = %q, want role-derived Manager", e.JobTitle)
	}
}

func TestImportRejectsOversizedBatch(t *testing.T) {
	store := newFakeStore()
	hr := &user.User{ID: "u-hr", TenantID: "t1", Role: user.RoleHR, Status: user.StatusActive}
	srv := newTestServer(t, store, fakeValidator{"hr-token": hr})

	var b strings.Builder
	b.WriteString(`{"employees":[`)
	for i := 0; i <= employee.MaxBatchSize; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"email":"x@y.test","name":"X","role":"EMPLOYEE","job_title":"E","department":"Engineering"}`)
	}
	b.WriteString(`]}`)

	resp := doReq(t, http.MethodPost, srv.URL+"/api/v1/employees/import", "hr-token", b.String())
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrCrossTenant, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeDomainError(rec, tc.err, "not found")
		if rec.Code != tc.want {
			t.Errorf("writeDomainError(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}
