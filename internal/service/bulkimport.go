package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zenora-hq/zenora-core/internal/adapter/otel"
	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/database"
	"github.com/zenora-hq/zenora-core/internal/port/messagequeue"
	"github.com/zenora-hq/zenora-core/internal/workpool"
)

// Row outcome values reported per import row.
const (
	RowCreated = "created"
	RowSkipped = "skipped" // email already registered
	RowFailed  = "failed"
)

// RowResult reports the outcome of a single import row.
type RowResult struct {
	Index          int    `json:"index"`
	Email          string `json:"email"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	EmployeeID     string `json:"employee_id,omitempty"`
	EmployeeNumber string `json:"employee_number,omitempty"`
}

// BatchResult reports the outcome of a bulk import request.
type BatchResult struct {
	BatchID string      `json:"batch_id"`
	Total   int         `json:"total"`
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	Rows    []RowResult `json:"rows"`
}

// BulkImportService provisions up to MaxBatchSize user+employee pairs from
// one request. Import is offered in two flavors: Atomic runs the whole batch
// in a single transaction and rolls everything back on the first failure,
// PerRow commits each row independently and reports per-row outcomes.
type BulkImportService struct {
	store     database.Store
	employees *EmployeeService
	auth      *AuthService
	audit     *AuditService
	queue     messagequeue.Queue
	cache     CacheInvalidator
	metrics   *otel.Metrics

	hashPool     *workpool.Pool
	batchTimeout time.Duration
	now          func() time.Time
}

// NewBulkImportService creates a new BulkImportService. batchTimeout bounds
// the transactional window of an atomic import.
func NewBulkImportService(store database.Store, employees *EmployeeService, auth *AuthService,
	auditSvc *AuditService, queue messagequeue.Queue, cache CacheInvalidator,
	metrics *otel.Metrics, batchTimeout time.Duration) *BulkImportService {
	return &BulkImportService{
		store:        store,
		employees:    employees,
		auth:         auth,
		audit:        auditSvc,
		queue:        queue,
		cache:        cache,
		metrics:      metrics,
		hashPool:     workpool.New(runtime.GOMAXPROCS(0)),
		batchTimeout: batchTimeout,
		now:          time.Now,
	}
}

// preparedRow is an import row after schema validation and temp-password
// generation, carrying its original batch index through reordering.
type preparedRow struct {
	index        int
	row          employee.ImportRow
	email        string // normalized
	managerEmail string // normalized, "" if none
	tempPassword string
	passwordHash string
}

// ImportAtomic runs the batch in one transaction. Rows whose email is already
// registered are skipped up front; every other row must succeed or the whole
// batch is rolled back and the first error is reported.
func (s *BulkImportService) ImportAtomic(ctx context.Context, rows []employee.ImportRow) (*BatchResult, error) {
	start := s.now()
	prepared, err := s.prepare(ctx, rows, true)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		BatchID: uuid.NewString(),
		Total:   len(rows),
		Rows:    make([]RowResult, len(rows)),
	}

	existing, err := s.existingEmailSet(ctx, prepared)
	if err != nil {
		return nil, err
	}

	var pending []preparedRow
	for _, p := range prepared {
		if existing[p.email] {
			result.Rows[p.index] = RowResult{Index: p.index, Email: p.row.Email, Status: RowSkipped}
			result.Skipped++
			continue
		}
		pending = append(pending, p)
	}

	ctx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	var effects []SideEffect
	var imported []messagequeue.ProvisionedPayload

	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		batch := map[string]string{} // email -> employee id, for in-batch manager refs
		for _, p := range pending {
			u, e, rowEffects, err := s.importRow(ctx, p, batch)
			if err != nil {
				return fmt.Errorf("row %d (%s): %w", p.index, p.row.Email, err)
			}
			batch[p.email] = e.ID
			effects = append(effects, rowEffects...)
			imported = append(imported, messagequeue.ProvisionedPayload{
				EmployeeID:   e.ID,
				UserID:       u.ID,
				Email:        u.Email,
				Name:         u.Name,
				Role:         string(u.Role),
				JobTitle:     e.JobTitle,
				Department:   p.row.Department,
				TempPassword: p.tempPassword,
			})
			result.Rows[p.index] = RowResult{
				Index:          p.index,
				Email:          p.row.Email,
				Status:         RowCreated,
				UserID:         u.ID,
				EmployeeID:     e.ID,
				EmployeeNumber: e.EmployeeNumber,
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	effects = append(effects, s.batchEffects(ctx, result, imported)...)
	RunSideEffects(ctx, effects)
	s.observe(ctx, result, start)
	return result, nil
}

// ImportPerRow commits every row in its own transaction. A failing row is
// reported and does not affect the others. Rows arriving on the same request
// may still reference each other as managers; manager rows are processed
// first.
func (s *BulkImportService) ImportPerRow(ctx context.Context, rows []employee.ImportRow) (*BatchResult, error) {
	start := s.now()
	prepared, err := s.prepare(ctx, rows, false)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		BatchID: uuid.NewString(),
		Total:   len(rows),
		Rows:    make([]RowResult, len(rows)),
	}

	existing, err := s.existingEmailSet(ctx, prepared)
	if err != nil {
		return nil, err
	}

	var effects []SideEffect
	var imported []messagequeue.ProvisionedPayload
	batch := map[string]string{}

	for _, p := range prepared {
		if p.row.Validate() != nil {
			result.Rows[p.index] = RowResult{
				Index:  p.index,
				Email:  p.row.Email,
				Status: RowFailed,
				Error:  p.row.Validate().Error(),
			}
			result.Failed++
			continue
		}
		if existing[p.email] {
			result.Rows[p.index] = RowResult{Index: p.index, Email: p.row.Email, Status: RowSkipped}
			result.Skipped++
			continue
		}

		var u *user.User
		var e *employee.Employee
		var rowEffects []SideEffect
		err := s.store.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			u, e, rowEffects, err = s.importRow(ctx, p, batch)
			return err
		})
		if err != nil {
			result.Rows[p.index] = RowResult{
				Index:  p.index,
				Email:  p.row.Email,
				Status: RowFailed,
				Error:  err.Error(),
			}
			result.Failed++
			slog.Warn("import row failed", "index", p.index, "email", p.row.Email, "error", err)
			continue
		}

		// Side effects only accumulate once the row's transaction has
		// committed; a failed commit must not leave audit entries behind.
		effects = append(effects, rowEffects...)
		batch[p.email] = e.ID
		existing[p.email] = true
		imported = append(imported, messagequeue.ProvisionedPayload{
			EmployeeID:   e.ID,
			UserID:       u.ID,
			Email:        u.Email,
			Name:         u.Name,
			Role:         string(u.Role),
			JobTitle:     e.JobTitle,
			Department:   p.row.Department,
			TempPassword: p.tempPassword,
		})
		result.Rows[p.index] = RowResult{
			Index:          p.index,
			Email:          p.row.Email,
			Status:         RowCreated,
			UserID:         u.ID,
			EmployeeID:     e.ID,
			EmployeeNumber: e.EmployeeNumber,
		}
		result.Created++
	}

	effects = append(effects, s.batchEffects(ctx, result, imported)...)
	RunSideEffects(ctx, effects)
	s.observe(ctx, result, start)
	return result, nil
}

// prepare validates the batch shape, normalizes emails, generates per-row
// temp credentials and reorders rows so in-batch manager references come
// first. In strict mode any schema error or unresolvable reference rejects
// the batch; otherwise invalid rows are carried through in place for per-row
// reporting.
func (s *BulkImportService) prepare(ctx context.Context, rows []employee.ImportRow, strict bool) ([]preparedRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", domain.ErrValidation)
	}
	if len(rows) > employee.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d rows exceeds the maximum of %d",
			domain.ErrValidation, len(rows), employee.MaxBatchSize)
	}

	seen := map[string]int{}
	prepared := make([]preparedRow, 0, len(rows))
	for i, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row.Email))
		if err := row.Validate(); err != nil {
			if strict {
				return nil, fmt.Errorf("%w: row %d: %s", domain.ErrValidation, i, err)
			}
		}
		if prev, dup := seen[email]; dup && email != "" {
			if strict {
				return nil, fmt.Errorf("%w: row %d duplicates the email of row %d", domain.ErrValidation, i, prev)
			}
		} else {
			seen[email] = i
		}

		tempPassword, err := s.auth.TempPassword()
		if err != nil {
			return nil, err
		}

		prepared = append(prepared, preparedRow{
			index:        i,
			row:          row,
			email:        email,
			managerEmail: strings.ToLower(strings.TrimSpace(row.ManagerEmail)),
			tempPassword: tempPassword,
		})
	}

	// bcrypt is deliberately slow; hash all temp passwords before entering
	// any transaction, bounded by the shared work pool.
	var g errgroup.Group
	for i := range prepared {
		i := i
		g.Go(func() error {
			return s.hashPool.Run(ctx, func() error {
				hash, err := s.auth.HashPassword(prepared[i].tempPassword)
				if err != nil {
					return err
				}
				prepared[i].passwordHash = hash
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.orderByManager(prepared, strict)
}

// orderByManager topologically sorts rows so a row referencing another row of
// the same batch as its manager is processed after it. A reference cycle
// within the batch cannot be satisfied and is rejected.
func (s *BulkImportService) orderByManager(rows []preparedRow, strict bool) ([]preparedRow, error) {
	inBatch := map[string]bool{}
	for _, p := range rows {
		inBatch[p.email] = true
	}

	ordered := make([]preparedRow, 0, len(rows))
	placed := map[string]bool{}
	remaining := rows
	for len(remaining) > 0 {
		var stuck []preparedRow
		progress := false
		for _, p := range remaining {
			if p.managerEmail != "" && inBatch[p.managerEmail] && !placed[p.email] && !placed[p.managerEmail] && p.managerEmail != p.email {
				stuck = append(stuck, p)
				continue
			}
			ordered = append(ordered, p)
			placed[p.email] = true
			progress = true
		}
		if !progress {
			if strict {
				return nil, fmt.Errorf("%w: manager references within the batch form a cycle", domain.ErrValidation)
			}
			// Per-row mode: let the cyclic rows run anyway; manager lookup
			// will fail row by row.
			ordered = append(ordered, stuck...)
			break
		}
		remaining = stuck
	}
	return ordered, nil
}

// existingEmailSet returns the already-registered subset of the batch emails.
func (s *BulkImportService) existingEmailSet(ctx context.Context, rows []preparedRow) (map[string]bool, error) {
	emails := make([]string, 0, len(rows))
	for _, p := range rows {
		emails = append(emails, p.email)
	}
	found, err := s.store.ExistingEmails(ctx, emails)
	if err != nil {
		return nil, fmt.Errorf("check existing emails: %w", err)
	}
	set := make(map[string]bool, len(found))
	for _, e := range found {
		set[strings.ToLower(e)] = true
	}
	return set, nil
}

// importRow creates the user and employee for one row. It must run inside a
// transaction. batch maps emails of rows already created in this request to
// their employee IDs, so later rows can name earlier rows as managers.
func (s *BulkImportService) importRow(ctx context.Context, p preparedRow, batch map[string]string) (*user.User, *employee.Employee, []SideEffect, error) {
	if err := p.row.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	dept, err := s.resolveDepartment(ctx, p.row.Department)
	if err != nil {
		return nil, nil, nil, err
	}

	var effects []SideEffect
	managerID := ""
	if p.managerEmail != "" {
		managerID, effects, err = s.resolveManagerByEmail(ctx, p.managerEmail, dept.ID, batch)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	u, err := s.store.CreateUser(ctx, &user.User{
		Email:        p.email,
		Name:         p.row.Name,
		PasswordHash: p.passwordHash,
		Role:         p.row.Role,
		Status:       user.StatusInvited,
		DepartmentID: dept.ID,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create user: %w", err)
	}

	startDate := s.now()
	if p.row.StartDate != "" {
		startDate, _ = time.Parse("2006-01-02", p.row.StartDate)
	}
	employmentType := p.row.EmploymentType
	if employmentType == "" {
		employmentType = employee.TypeFullTime
	}

	e, err := s.employees.allocateAndInsert(ctx, &employee.Employee{
		UserID:         u.ID,
		JobTitle:       p.row.JobTitle,
		DepartmentID:   dept.ID,
		EmploymentType: employmentType,
		Status:         employee.StatusActive,
		StartDate:      startDate,
		ManagerID:      managerID,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create employee: %w", err)
	}

	return u, e, effects, nil
}

// resolveDepartment accepts a department ID or a case-insensitive name. Only
// UUID-shaped refs are tried as IDs; anything else would fail the uuid column
// cast before the name fallback could run.
func (s *BulkImportService) resolveDepartment(ctx context.Context, ref string) (*deptRef, error) {
	if uuid.Validate(ref) == nil {
		if d, err := s.store.GetDepartment(ctx, ref); err == nil {
			return &deptRef{ID: d.ID, Name: d.Name}, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	d, err := s.store.GetDepartmentByName(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown department %q", domain.ErrValidation, ref)
		}
		return nil, err
	}
	return &deptRef{ID: d.ID, Name: d.Name}, nil
}

// deptRef is the minimal department projection importRow needs.
type deptRef struct {
	ID   string
	Name string
}

// resolveManagerByEmail maps a manager email to an employee ID: first among
// rows created earlier in this batch, then among existing users (backfilling
// an employee record when the user has none).
func (s *BulkImportService) resolveManagerByEmail(ctx context.Context, email, fallbackDeptID string, batch map[string]string) (string, []SideEffect, error) {
	if id, ok := batch[email]; ok {
		return id, nil, nil
	}
	mu, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: manager %s is not a known user", domain.ErrValidation, email)
		}
		return "", nil, err
	}
	return s.employees.ResolveManager(ctx, mu.ID, fallbackDeptID)
}

// batchEffects builds the post-commit tasks common to both import flavors.
func (s *BulkImportService) batchEffects(ctx context.Context, result *BatchResult, imported []messagequeue.ProvisionedPayload) []SideEffect {
	tenantID := middleware.TenantIDFromContext(ctx)

	effects := []SideEffect{
		{
			Name: "cache.invalidate",
			Fn: func(ctx context.Context) error {
				if s.cache != nil {
					s.cache.InvalidateTenant(ctx, tenantID)
				}
				return nil
			},
		},
		{
			Name: "audit." + audit.ActionEmployeeImported,
			Fn: func(ctx context.Context) error {
				s.audit.Record(ctx, audit.ActionEmployeeImported, "batch", result.BatchID, map[string]any{
					"total":   result.Total,
					"created": result.Created,
					"skipped": result.Skipped,
					"failed":  result.Failed,
				})
				return nil
			},
		},
	}

	if len(imported) > 0 {
		orgName := tenantID
		if t, err := s.store.GetTenant(ctx, tenantID); err == nil {
			orgName = t.Name
		}
		for i := range imported {
			imported[i].TenantID = tenantID
			imported[i].Organization = orgName
		}
		effects = append(effects, SideEffect{
			Name: "queue." + messagequeue.SubjectEmployeeImported,
			Fn: func(ctx context.Context) error {
				if s.queue == nil {
					return nil
				}
				return publishJSON(ctx, s.queue, messagequeue.SubjectEmployeeImported, messagequeue.ImportedPayload{
					TenantID:  tenantID,
					BatchID:   result.BatchID,
					Employees: imported,
				})
			},
		})
	}
	return effects
}

func (s *BulkImportService) observe(ctx context.Context, result *BatchResult, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ImportRows.Add(ctx, int64(result.Total))
	s.metrics.ImportDuration.Record(ctx, s.now().Sub(start).Seconds())
}
