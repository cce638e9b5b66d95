package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/zenora-hq/zenora-core/internal/adapter/postgres"
	"github.com/zenora-hq/zenora-core/internal/config"
	"github.com/zenora-hq/zenora-core/internal/domain/tenant"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/database"
	"github.com/zenora-hq/zenora-core/internal/service"
)

// runAdmin dispatches admin subcommands (create-tenant, create-admin, mint-token).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "create-admin":
		return runAdminCreateAdmin(args[1:])
	case "mint-token":
		return runAdminMintToken(args[1:])
	case "list-tenants":
		return runAdminListTenants(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: zenora admin <command> [options]

Commands:
  create-tenant    Create a new tenant organization
  create-admin     Create an admin user within a tenant
  mint-token       Issue an API token for an existing user
  list-tenants     List all tenants
  help             Show this help message

Examples:
  zenora admin create-tenant --name "Acme Corp" --slug acme --domain acme.example
  zenora admin create-admin --tenant <tenant-id> --email admin@acme.example --name "Acme Admin"
  zenora admin mint-token --tenant <tenant-id> --email admin@acme.example
  zenora admin list-tenants
`)
}

type adminDeps struct {
	store   database.Store
	tenants *service.TenantService
	auth    *service.AuthService
}

func loadAdminDeps() (*adminDeps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	deps := &adminDeps{
		store:   store,
		tenants: service.NewTenantService(store),
		auth:    service.NewAuthService(store, cfg.Auth.BcryptCost),
	}

	cleanup := func() {
		pool.Close()
	}
	return deps, cleanup, nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	name := fs.String("name", "", "tenant display name (required)")
	slug := fs.String("slug", "", "tenant slug, lowercase alphanumeric (required)")
	domain := fs.String("domain", "", "email domain for import duplicate checks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	t, err := deps.tenants.Create(ctx, tenant.CreateRequest{
		Name:   *name,
		Slug:   *slug,
		Domain: *domain,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%s, slug=%s)\n", t.Name, t.ID, t.Slug)
	return nil
}

func runAdminCreateAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	tenantID := fs.String("tenant", "", "tenant ID (required)")
	email := fs.String("email", "", "user email address (required)")
	name := fs.String("name", "", "user display name (required)")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tenantID == "" {
		return fmt.Errorf("--tenant is required")
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := middleware.WithTenantID(context.Background(), *tenantID)
	if _, err := deps.tenants.Get(ctx, *tenantID); err != nil {
		return fmt.Errorf("lookup tenant: %w", err)
	}

	hash, err := deps.auth.HashPassword(pass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u, err := deps.store.CreateUser(ctx, &user.User{
		TenantID:     *tenantID,
		Email:        *email,
		Name:         *name,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		Status:       user.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Admin created: %s (id=%s, tenant=%s)\n", u.Email, u.ID, u.TenantID)
	return nil
}

func runAdminMintToken(args []string) error {
	fs := flag.NewFlagSet("mint-token", flag.ContinueOnError)
	tenantID := fs.String("tenant", "", "tenant ID (required)")
	email := fs.String("email", "", "user email address (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tenantID == "" {
		return fmt.Errorf("--tenant is required")
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := middleware.WithTenantID(context.Background(), *tenantID)
	u, err := deps.store.GetUserByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := deps.auth.MintToken(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	// Token goes to stdout so it can be captured; everything else to stderr.
	fmt.Fprintf(os.Stderr, "Token minted for %s (previous token revoked):\n", u.Email)
	fmt.Println(token)
	return nil
}

func runAdminListTenants(args []string) error {
	fs := flag.NewFlagSet("list-tenants", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deps, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	tenants, err := deps.tenants.List(context.Background())
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSLUG\tDOMAIN\tENABLED")
	for i := range tenants {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			tenants[i].ID, tenants[i].Name, tenants[i].Slug, tenants[i].Domain, tenants[i].Enabled)
	}
	return w.Flush()
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
