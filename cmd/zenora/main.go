package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zenora-hq/zenora-core/internal/adapter/email"
	zhttp "github.com/zenora-hq/zenora-core/internal/adapter/http"
	znats "github.com/zenora-hq/zenora-core/internal/adapter/nats"
	"github.com/zenora-hq/zenora-core/internal/adapter/natskv"
	"github.com/zenora-hq/zenora-core/internal/adapter/otel"
	"github.com/zenora-hq/zenora-core/internal/adapter/postgres"
	"github.com/zenora-hq/zenora-core/internal/adapter/ristretto"
	"github.com/zenora-hq/zenora-core/internal/adapter/tiered"
	"github.com/zenora-hq/zenora-core/internal/config"
	"github.com/zenora-hq/zenora-core/internal/logger"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/secrets"
	"github.com/zenora-hq/zenora-core/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logger.New(cfg.Logging))

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := znats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Drain() }()

	l1, err := ristretto.New(cfg.Cache.MaxBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	viewsKV, err := queue.KeyValue(ctx, cfg.Cache.Bucket, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("view cache bucket: %w", err)
	}
	viewCache := tiered.New(l1, natskv.New(viewsKV), cfg.Cache.TTL)

	vault, err := secrets.NewVault(secrets.EnvLoader(email.PasswordSecret))
	if err != nil {
		return fmt.Errorf("secret vault: %w", err)
	}

	// SIGHUP re-reads secrets without a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := vault.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded")
		}
	}()

	mail := email.New(cfg.SMTP, cfg.Breaker, vault)

	if cfg.Telemetry.Enabled {
		shutdown, err := otel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---

	store := postgres.NewStore(pool)
	auditSvc := service.NewAuditService(store)
	hierarchySvc := service.NewHierarchyService(store)
	authSvc := service.NewAuthService(store, cfg.Auth.BcryptCost)
	employeeSvc := service.NewEmployeeService(store, hierarchySvc, auditSvc, queue, viewCache, metrics)
	importSvc := service.NewBulkImportService(store, employeeSvc, authSvc, auditSvc, queue, viewCache, metrics, cfg.Import.BatchTimeout)
	userSvc := service.NewUserService(store, authSvc, auditSvc)
	departmentSvc := service.NewDepartmentService(store, auditSvc, viewCache)
	teamSvc := service.NewTeamService(store, viewCache)
	orgChartSvc := service.NewOrgChartService(store, viewCache, cfg.Cache.TTL)

	notifySvc := service.NewNotifyService(queue, mail)
	if err := notifySvc.Start(ctx); err != nil {
		return fmt.Errorf("notify subscriber: %w", err)
	}
	defer notifySvc.Stop()

	// --- HTTP ---

	handlers := &zhttp.Handlers{
		Auth:        authSvc,
		Users:       userSvc,
		Departments: departmentSvc,
		Teams:       teamSvc,
		Employees:   employeeSvc,
		Hierarchy:   hierarchySvc,
		Imports:     importSvc,
		OrgChart:    orgChartSvc,
		Audit:       auditSvc,
		Ready: func() map[string]bool {
			return map[string]bool{
				"postgres": pool.Ping(ctx) == nil,
				"nats":     queue.IsConnected(),
			}
		},
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	go func() {
		ticker := time.NewTicker(cfg.Rate.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Sweep(cfg.Rate.MaxIdleTime)
		}
	}()

	r := chi.NewRouter()
	r.Use(zhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(zhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(zhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.TenantID)
	r.Use(middleware.Auth(authSvc))
	r.Use(limiter.Handler)

	kv, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
	if err != nil {
		return fmt.Errorf("idempotency bucket: %w", err)
	}
	r.Use(middleware.Idempotency(kv))

	zhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
