//go:build integration

package integration_test

import (
	"context"
	"testing"

	"github.com/zenora-hq/zenora-core/internal/adapter/postgres"
)

// TestMigrationUpDownUp applies all migrations, rolls them all back, then
// re-applies. This verifies that every migration's Down section works.
// It must not run in parallel with the API tests, which need the schema.
func TestMigrationUpDownUp(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping migration roundtrip in -short mode")
	}

	ctx := context.Background()
	dsn := testDSN()
	const totalMigrations = 1

	// The rollback wipes the schema, taking the seeded tenant and admin
	// token with it. Restore them for the tests that run after this one.
	defer func() {
		if err := seedAdmin(ctx, testStore, testAuth); err != nil {
			t.Fatalf("re-seed after migration roundtrip: %v", err)
		}
	}()

	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("RunMigrations (up): %v", err)
	}
	v, err := postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		t.Fatalf("MigrationVersion after up: %v", err)
	}
	if v != totalMigrations {
		t.Fatalf("expected version %d after up, got %d", totalMigrations, v)
	}

	if err := postgres.RollbackMigrations(ctx, dsn, totalMigrations); err != nil {
		t.Fatalf("RollbackMigrations (down all): %v", err)
	}
	v, err = postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		t.Fatalf("MigrationVersion after rollback: %v", err)
	}
	if v != 0 {
		t.Fatalf("expected version 0 after full rollback, got %d", v)
	}

	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("RunMigrations (re-up): %v", err)
	}
	v, err = postgres.MigrationVersion(ctx, dsn)
	if err != nil {
		t.Fatalf("MigrationVersion after re-up: %v", err)
	}
	if v != totalMigrations {
		t.Fatalf("expected version %d after re-up, got %d", totalMigrations, v)
	}
}
