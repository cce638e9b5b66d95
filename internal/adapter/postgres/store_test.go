package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/zenora-hq/zenora-core/internal/adapter/postgres"
	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/department"
	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/domain/team"
	"github.com/zenora-hq/zenora-core/internal/domain/tenant"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/middleware"
)

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()

	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewStore(pool)
}

// createTestTenant creates a tenant with a random slug and returns a context
// scoped to it.
func createTestTenant(t *testing.T, store *postgres.Store) (context.Context, string) {
	t.Helper()
	slug := "test-" + uuid.New().String()[:8]
	tn, err := store.CreateTenant(context.Background(), tenant.CreateRequest{
		Name: "Test Tenant " + slug,
		Slug: slug,
	})
	if err != nil {
		t.Fatalf("create test tenant: %v", err)
	}
	return middleware.WithTenantID(context.Background(), tn.ID), tn.ID
}

func createTestUser(t *testing.T, store *postgres.Store, ctx context.Context, tenantID string) *user.User {
	t.Helper()
	u, err := store.CreateUser(ctx, &user.User{
		TenantID: tenantID,
		Email:    uuid.New().String()[:8] + "@test.example",
		Name:     "Test User",
		Role:     user.RoleEmployee,
		Status:   user.StatusActive,
	})
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

func createTestDepartment(t *testing.T, store *postgres.Store, ctx context.Context) *department.Department {
	t.Helper()
	d, err := store.CreateDepartment(ctx, department.CreateRequest{
		Name: "Dept " + uuid.New().String()[:8],
	})
	if err != nil {
		t.Fatalf("create test department: %v", err)
	}
	return d
}

func TestStore_TenantRoundtrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	slug := "acme-" + uuid.New().String()[:8]
	created, err := store.CreateTenant(ctx, tenant.CreateRequest{
		Name:   "Acme Corp",
		Slug:   slug,
		Domain: "acme.example",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetTenantBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.ID != created.ID || got.Domain != "acme.example" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	// Duplicate slug is a conflict.
	if _, err := store.CreateTenant(ctx, tenant.CreateRequest{Name: "Other", Slug: slug}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate slug, got %v", err)
	}
}

func TestStore_UserScoping(t *testing.T) {
	store := setupStore(t)
	ctx1, tid1 := createTestTenant(t, store)
	ctx2, _ := createTestTenant(t, store)

	u := createTestUser(t, store, ctx1, tid1)

	if _, err := store.GetUser(ctx1, u.ID); err != nil {
		t.Fatalf("get in own tenant: %v", err)
	}
	if _, err := store.GetUser(ctx2, u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound across tenants, got %v", err)
	}

	got, err := store.GetUserUnscoped(ctx2, u.ID)
	if err != nil {
		t.Fatalf("unscoped get: %v", err)
	}
	if got.TenantID != tid1 {
		t.Errorf("unscoped user tenant = %s, want %s", got.TenantID, tid1)
	}
}

func TestStore_NextEmployeeSequence(t *testing.T) {
	store := setupStore(t)
	ctx, _ := createTestTenant(t, store)
	day := employee.Day(time.Now().UTC())

	first, err := store.NextEmployeeSequence(ctx, day)
	if err != nil {
		t.Fatalf("first allocation: %v", err)
	}
	if first != 1 {
		t.Errorf("first sequence = %d, want 1", first)
	}

	second, err := store.NextEmployeeSequence(ctx, day)
	if err != nil {
		t.Fatalf("second allocation: %v", err)
	}
	if second != 2 {
		t.Errorf("second sequence = %d, want 2", second)
	}

	// A different day starts at 1 again.
	other, err := store.NextEmployeeSequence(ctx, "19990101")
	if err != nil {
		t.Fatalf("other day: %v", err)
	}
	if other != 1 {
		t.Errorf("other day sequence = %d, want 1", other)
	}
}

func TestStore_NextEmployeeSequenceConcurrent(t *testing.T) {
	store := setupStore(t)
	ctx, _ := createTestTenant(t, store)
	day := employee.Day(time.Now().UTC())

	const workers = 20
	results := make(chan int, workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			seq, err := store.NextEmployeeSequence(ctx, day)
			if err != nil {
				return err
			}
			results <- seq
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent allocation: %v", err)
	}
	close(results)

	seen := make(map[int]bool, workers)
	for seq := range results {
		if seen[seq] {
			t.Fatalf("sequence %d allocated twice", seq)
		}
		seen[seq] = true
	}
	if len(seen) != workers {
		t.Errorf("expected %d distinct values, got %d", workers, len(seen))
	}
}

func TestStore_EmployeeNumberUnique(t *testing.T) {
	store := setupStore(t)
	ctx, tid := createTestTenant(t, store)
	dept := createTestDepartment(t, store, ctx)

	u1 := createTestUser(t, store, ctx, tid)
	u2 := createTestUser(t, store, ctx, tid)

	mk := func(userID, number string) (*employee.Employee, error) {
		return store.CreateEmployee(ctx, &employee.Employee{
			TenantID:       tid,
			UserID:         userID,
			EmployeeNumber: number,
			JobTitle:       "Engineer",
			DepartmentID:   dept.ID,
			EmploymentType: employee.TypeFullTime,
			Status:         employee.StatusActive,
			StartDate:      time.Now().UTC(),
		})
	}

	number := fmt.Sprintf("EMP-%s-901", employee.Day(time.Now().UTC()))
	if _, err := mk(u1.ID, number); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := mk(u2.ID, number); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate number, got %v", err)
	}
}

func TestStore_WithinTxRollback(t *testing.T) {
	store := setupStore(t)
	ctx, tid := createTestTenant(t, store)

	boom := errors.New("boom")
	var createdID string
	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		u, err := store.CreateUser(txCtx, &user.User{
			TenantID: tid,
			Email:    uuid.New().String()[:8] + "@test.example",
			Name:     "Rollback Victim",
			Role:     user.RoleEmployee,
			Status:   user.StatusActive,
		})
		if err != nil {
			return err
		}
		createdID = u.ID
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}

	if _, err := store.GetUser(ctx, createdID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected user rolled back, got %v", err)
	}
}

func TestStore_ReplaceEmployeeTeams(t *testing.T) {
	store := setupStore(t)
	ctx, tid := createTestTenant(t, store)
	dept := createTestDepartment(t, store, ctx)
	u := createTestUser(t, store, ctx, tid)

	emp, err := store.CreateEmployee(ctx, &employee.Employee{
		TenantID:       tid,
		UserID:         u.ID,
		EmployeeNumber: fmt.Sprintf("EMP-%s-902", employee.Day(time.Now().UTC())),
		JobTitle:       "Engineer",
		DepartmentID:   dept.ID,
		EmploymentType: employee.TypeFullTime,
		Status:         employee.StatusActive,
		StartDate:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}

	t1, err := store.CreateTeam(ctx, team.CreateRequest{Name: "Platform"})
	if err != nil {
		t.Fatal(err)
	}
	t2, err := store.CreateTeam(ctx, team.CreateRequest{Name: "Payments"})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.ReplaceEmployeeTeams(ctx, emp.ID, []string{t1.ID, t2.ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	teams, err := store.ListEmployeeTeams(ctx, emp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}

	// Wholesale replacement, then clear.
	if err := store.ReplaceEmployeeTeams(ctx, emp.ID, []string{t2.ID}); err != nil {
		t.Fatal(err)
	}
	teams, _ = store.ListEmployeeTeams(ctx, emp.ID)
	if len(teams) != 1 || teams[0].ID != t2.ID {
		t.Fatalf("expected only %s, got %+v", t2.ID, teams)
	}

	if err := store.ReplaceEmployeeTeams(ctx, emp.ID, nil); err != nil {
		t.Fatal(err)
	}
	teams, _ = store.ListEmployeeTeams(ctx, emp.ID)
	if len(teams) != 0 {
		t.Fatalf("expected memberships cleared, got %d", len(teams))
	}

	// A team belonging to another tenant must be rejected, not silently
	// persisted as an invisible membership.
	otherCtx, _ := createTestTenant(t, store)
	foreign, err := store.CreateTeam(otherCtx, team.CreateRequest{Name: "Foreign"})
	if err != nil {
		t.Fatal(err)
	}
	err = store.ReplaceEmployeeTeams(ctx, emp.ID, []string{foreign.ID})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-tenant team: err = %v, want ErrNotFound", err)
	}
	teams, _ = store.ListEmployeeTeams(ctx, emp.ID)
	if len(teams) != 0 {
		t.Fatalf("cross-tenant membership persisted: %+v", teams)
	}
}

func TestStore_AuditAppend(t *testing.T) {
	store := setupStore(t)
	ctx, tid := createTestTenant(t, store)

	err := store.AppendAudit(ctx, &audit.Entry{
		TenantID:   tid,
		Action:     audit.ActionEmployeeProvisioned,
		EntityType: "employee",
		EntityID:   "emp-x",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := store.ListAudit(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Action != audit.ActionEmployeeProvisioned {
		t.Errorf("action = %s", entries[0].Action)
	}
}
