package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zenora-hq/zenora-core/internal/adapter/otel"
	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/database"
	"github.com/zenora-hq/zenora-core/internal/port/messagequeue"
)

// CacheInvalidator drops cached tenant views after a mutation.
// Implemented by the ristretto adapter.
type CacheInvalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string)
}

// allocAttempts bounds retries when an employee-number conflict slips past
// the atomic allocator (for example a manually inserted number).
const allocAttempts = 5

// EmployeeService provisions employees: sequence allocation, manager
// resolution, record creation, user linkage and team membership replacement.
// The primary mutation is transactional; emails, audit entries and cache
// invalidation are returned as post-commit side effects for the caller to run
// after the transaction commits.
type EmployeeService struct {
	store     database.Store
	hierarchy *HierarchyService
	audit     *AuditService
	queue     messagequeue.Queue
	cache     CacheInvalidator
	metrics   *otel.Metrics

	now func() time.Time
}

// NewEmployeeService creates a new EmployeeService. queue, cache and metrics
// are optional; a nil collaborator disables the corresponding side effect.
func NewEmployeeService(store database.Store, hierarchy *HierarchyService, auditSvc *AuditService,
	queue messagequeue.Queue, cache CacheInvalidator, metrics *otel.Metrics) *EmployeeService {
	return &EmployeeService{
		store:     store,
		hierarchy: hierarchy,
		audit:     auditSvc,
		queue:     queue,
		cache:     cache,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Get returns an employee by ID.
func (s *EmployeeService) Get(ctx context.Context, id string) (*employee.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// List returns all employees in the tenant.
func (s *EmployeeService) List(ctx context.Context) ([]employee.Employee, error) {
	return s.store.ListEmployees(ctx)
}

// Provision converts a user into a fully provisioned employee, or partially
// updates an existing one. The returned side effects must be run by the
// caller after the method returns successfully; they are best-effort and do
// not influence the outcome of the provisioning itself.
func (s *EmployeeService) Provision(ctx context.Context, req *employee.ProvisionRequest) (*employee.Employee, []SideEffect, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	u, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.store.GetEmployeeByUser(ctx, req.UserID)
	switch {
	case err == nil:
		return s.update(ctx, u, existing, req)
	case errors.Is(err, domain.ErrNotFound):
		return s.create(ctx, u, req)
	default:
		return nil, nil, err
	}
}

// create provisions a brand-new employee record. Both a department and a job
// title are required; without them the user stays unprovisioned.
func (s *EmployeeService) create(ctx context.Context, u *user.User, req *employee.ProvisionRequest) (*employee.Employee, []SideEffect, error) {
	if req.DepartmentID == "" || req.JobTitle == "" {
		return nil, nil, fmt.Errorf("%w: department_id and job_title are required to provision an employee", domain.ErrValidation)
	}

	dept, err := s.store.GetDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, nil, err
	}

	var effects []SideEffect

	managerID := ""
	if req.ManagerUserID != "" {
		resolved, managerEffects, err := s.ResolveManager(ctx, req.ManagerUserID, req.DepartmentID)
		if err != nil {
			return nil, nil, err
		}
		managerID = resolved
		effects = append(effects, managerEffects...)
	}

	draft := &employee.Employee{
		UserID:           u.ID,
		JobTitle:         req.JobTitle,
		DepartmentID:     req.DepartmentID,
		EmploymentType:   req.EmploymentType,
		Status:           employee.StatusActive,
		StartDate:        req.StartDate,
		ManagerID:        managerID,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
	}
	if draft.EmploymentType == "" {
		draft.EmploymentType = employee.TypeFullTime
	}
	if draft.StartDate.IsZero() {
		draft.StartDate = s.now()
	}

	created, err := s.createRecord(ctx, draft, req.TeamIDs)
	if err != nil {
		return nil, nil, err
	}

	effects = append(effects,
		s.invalidateEffect(ctx),
		s.auditEffect(audit.ActionEmployeeProvisioned, created, map[string]any{
			"employee_number": created.EmployeeNumber,
			"job_title":       created.JobTitle,
			"department_id":   created.DepartmentID,
			"manager_id":      created.ManagerID,
			"role":            u.Role,
		}),
		s.publishProvisionedEffect(ctx, u, created, dept.Name, ""),
	)

	if s.metrics != nil {
		s.metrics.EmployeesProvisioned.Add(ctx, 1)
	}

	return created, effects, nil
}

// createRecord allocates a number and inserts the record, the user linkage
// and the team rows in one transaction. A Conflict (duplicate number) rolls
// the transaction back and retries with a freshly allocated number.
func (s *EmployeeService) createRecord(ctx context.Context, draft *employee.Employee, teamIDs *[]string) (*employee.Employee, error) {
	var created *employee.Employee

	for attempt := 1; ; attempt++ {
		err := s.store.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			created, err = s.allocateAndInsert(ctx, draft)
			if err != nil {
				return err
			}
			if teamIDs != nil {
				return s.store.ReplaceEmployeeTeams(ctx, created.ID, *teamIDs)
			}
			return nil
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= allocAttempts {
			return nil, err
		}

		if s.metrics != nil {
			s.metrics.SequenceConflicts.Add(ctx, 1)
		}
		slog.Warn("employee number conflict, retrying",
			"attempt", attempt, "number", draft.EmployeeNumber)
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
}

// allocateAndInsert draws the next sequence value for today, stamps the
// employee number onto draft, inserts the record and links the user. Callers
// run it inside a transaction; a duplicate number surfaces as a Conflict.
func (s *EmployeeService) allocateAndInsert(ctx context.Context, draft *employee.Employee) (*employee.Employee, error) {
	day := employee.Day(s.now())
	seq, err := s.store.NextEmployeeSequence(ctx, day)
	if err != nil {
		return nil, err
	}
	draft.EmployeeNumber = employee.FormatNumber(day, seq)

	created, err := s.store.CreateEmployee(ctx, draft)
	if err != nil {
		return nil, err
	}
	if err := s.store.LinkUserEmployee(ctx, draft.UserID, created.ID, created.DepartmentID); err != nil {
		return nil, err
	}
	return created, nil
}

// update applies a partial update to an existing employee. The employee
// number is immutable and never touched here.
func (s *EmployeeService) update(ctx context.Context, u *user.User, existing *employee.Employee, req *employee.ProvisionRequest) (*employee.Employee, []SideEffect, error) {
	before := *existing
	var effects []SideEffect

	if req.JobTitle != "" {
		existing.JobTitle = req.JobTitle
	}
	if req.EmploymentType != "" {
		existing.EmploymentType = req.EmploymentType
	}
	if !req.StartDate.IsZero() {
		existing.StartDate = req.StartDate
	}
	if req.EmergencyContact != "" {
		existing.EmergencyContact = req.EmergencyContact
	}
	if req.EmergencyPhone != "" {
		existing.EmergencyPhone = req.EmergencyPhone
	}
	if req.DepartmentID != "" && req.DepartmentID != existing.DepartmentID {
		if _, err := s.store.GetDepartment(ctx, req.DepartmentID); err != nil {
			return nil, nil, err
		}
		existing.DepartmentID = req.DepartmentID
	}

	managerChanged := false
	if req.ManagerUserID != "" {
		managerID, managerEffects, err := s.ResolveManager(ctx, req.ManagerUserID, existing.DepartmentID)
		if err != nil {
			return nil, nil, err
		}
		if managerID != existing.ManagerID {
			// Reject assignments that would make the employee its own
			// transitive manager.
			cyclic, err := s.hierarchy.IsTransitiveReport(ctx, existing.ID, managerID)
			if err != nil {
				return nil, nil, err
			}
			if cyclic {
				return nil, nil, fmt.Errorf("%w: manager assignment would create a reporting cycle", domain.ErrValidation)
			}
			existing.ManagerID = managerID
			managerChanged = true
		}
		effects = append(effects, managerEffects...)
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateEmployee(ctx, existing); err != nil {
			return err
		}
		if existing.DepartmentID != before.DepartmentID {
			if err := s.store.LinkUserEmployee(ctx, u.ID, existing.ID, existing.DepartmentID); err != nil {
				return err
			}
		}
		if req.TeamIDs != nil {
			return s.store.ReplaceEmployeeTeams(ctx, existing.ID, *req.TeamIDs)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	effects = append(effects,
		s.invalidateEffect(ctx),
		s.auditEffect(audit.ActionEmployeeUpdated, existing, map[string]any{
			"before": map[string]any{
				"job_title":     before.JobTitle,
				"department_id": before.DepartmentID,
				"manager_id":    before.ManagerID,
			},
			"after": map[string]any{
				"job_title":     existing.JobTitle,
				"department_id": existing.DepartmentID,
				"manager_id":    existing.ManagerID,
			},
		}),
	)
	if managerChanged {
		effects = append(effects, s.managerMailEffect(ctx, u, existing))
	}

	return existing, effects, nil
}

// ResolveManager translates a manager user reference into the employee ID to
// store as manager_id, creating an employee record for the manager on demand.
// Resolution is idempotent: a manager that already has an employee record is
// returned as-is with no side effects.
func (s *EmployeeService) ResolveManager(ctx context.Context, managerUserID, fallbackDepartmentID string) (string, []SideEffect, error) {
	mu, err := s.store.GetUserUnscoped(ctx, managerUserID)
	if err != nil {
		return "", nil, fmt.Errorf("manager: %w", err)
	}
	if mu.TenantID != middleware.TenantIDFromContext(ctx) {
		return "", nil, fmt.Errorf("manager %s: %w", managerUserID, domain.ErrCrossTenant)
	}

	if mu.EmployeeID != "" {
		return mu.EmployeeID, nil, nil
	}
	if e, err := s.store.GetEmployeeByUser(ctx, managerUserID); err == nil {
		return e.ID, nil, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", nil, err
	}

	departmentID := mu.DepartmentID
	if departmentID == "" {
		departmentID = fallbackDepartmentID
	}
	if departmentID == "" {
		return "", nil, fmt.Errorf("%w: no resolvable department for manager %s", domain.ErrValidation, managerUserID)
	}
	if _, err := s.store.GetDepartment(ctx, departmentID); err != nil {
		return "", nil, err
	}

	draft := &employee.Employee{
		UserID:         mu.ID,
		JobTitle:       employee.DefaultJobTitle(mu.Role),
		DepartmentID:   departmentID,
		EmploymentType: employee.TypeFullTime,
		Status:         employee.StatusActive,
		StartDate:      s.now(),
	}

	created, err := s.createRecord(ctx, draft, nil)
	if err != nil {
		return "", nil, fmt.Errorf("backfill manager employee: %w", err)
	}

	effects := []SideEffect{
		s.auditEffect(audit.ActionManagerBackfilled, created, map[string]any{
			"employee_number": created.EmployeeNumber,
			"job_title":       created.JobTitle,
			"department_id":   created.DepartmentID,
		}),
	}
	return created.ID, effects, nil
}

// --- side effect builders ---

// invalidateEffect drops the tenant's cached org views.
func (s *EmployeeService) invalidateEffect(ctx context.Context) SideEffect {
	tenantID := middleware.TenantIDFromContext(ctx)
	return SideEffect{
		Name: "cache.invalidate",
		Fn: func(ctx context.Context) error {
			if s.cache != nil {
				s.cache.InvalidateTenant(ctx, tenantID)
			}
			return nil
		},
	}
}

func (s *EmployeeService) auditEffect(action string, e *employee.Employee, changes map[string]any) SideEffect {
	return SideEffect{
		Name: "audit." + action,
		Fn: func(ctx context.Context) error {
			s.audit.Record(ctx, action, "employee", e.ID, changes)
			return nil
		},
	}
}

// publishProvisionedEffect emits the provisioned event that drives the
// asynchronous welcome email. tempPassword is only set for imported users.
func (s *EmployeeService) publishProvisionedEffect(ctx context.Context, u *user.User, e *employee.Employee, departmentName, tempPassword string) SideEffect {
	tenantID := middleware.TenantIDFromContext(ctx)
	assignedBy := ""
	if actor := middleware.UserFromContext(ctx); actor != nil {
		assignedBy = actor.Name
	}

	return SideEffect{
		Name: "queue." + messagequeue.SubjectEmployeeProvisioned,
		Fn: func(ctx context.Context) error {
			if s.queue == nil {
				return nil
			}
			orgName := tenantID
			if t, err := s.store.GetTenant(ctx, tenantID); err == nil {
				orgName = t.Name
			}
			payload := messagequeue.ProvisionedPayload{
				TenantID:     tenantID,
				EmployeeID:   e.ID,
				UserID:       u.ID,
				Email:        u.Email,
				Name:         u.Name,
				Role:         string(u.Role),
				JobTitle:     e.JobTitle,
				Department:   departmentName,
				Organization: orgName,
				AssignedBy:   assignedBy,
				TempPassword: tempPassword,
			}
			return publishJSON(ctx, s.queue, messagequeue.SubjectEmployeeProvisioned, payload)
		},
	}
}

// managerMailEffect notifies the manager of a new direct report via the queue.
func (s *EmployeeService) managerMailEffect(ctx context.Context, report *user.User, e *employee.Employee) SideEffect {
	tenantID := middleware.TenantIDFromContext(ctx)
	managerID := e.ManagerID

	return SideEffect{
		Name: "queue.manager-assigned",
		Fn: func(ctx context.Context) error {
			if s.queue == nil || managerID == "" {
				return nil
			}
			manager, err := s.store.GetEmployee(ctx, managerID)
			if err != nil {
				return err
			}
			managerUser, err := s.store.GetUser(ctx, manager.UserID)
			if err != nil {
				return err
			}
			orgName := tenantID
			if t, err := s.store.GetTenant(ctx, tenantID); err == nil {
				orgName = t.Name
			}
			payload := messagequeue.ManagerAssignedPayload{
				TenantID:     tenantID,
				ManagerEmail: managerUser.Email,
				ManagerName:  managerUser.Name,
				ReportName:   report.Name,
				JobTitle:     e.JobTitle,
				Organization: orgName,
			}
			return publishJSON(ctx, s.queue, messagequeue.SubjectManagerAssigned, payload)
		},
	}
}
