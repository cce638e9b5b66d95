package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/department"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/database"
)

// DepartmentService manages departments within a tenant.
type DepartmentService struct {
	store database.Store
	audit *AuditService
	cache CacheInvalidator
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(store database.Store, auditSvc *AuditService, cache CacheInvalidator) *DepartmentService {
	return &DepartmentService{store: store, audit: auditSvc, cache: cache}
}

// Create registers a new department. Names are unique per tenant,
// case-insensitively.
func (s *DepartmentService) Create(ctx context.Context, req department.CreateRequest) (*department.Department, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	d, err := s.store.CreateDepartment(ctx, req)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.ActionDepartmentCreated, "department", d.ID, map[string]any{"name": d.Name})
	s.invalidate(ctx)
	return d, nil
}

// Get returns a department by ID.
func (s *DepartmentService) Get(ctx context.Context, id string) (*department.Department, error) {
	return s.store.GetDepartment(ctx, id)
}

// Resolve accepts either a department ID or a case-insensitive name. The ID
// lookup only runs for UUID-shaped refs; a plain name would fail the uuid
// column cast instead of returning NotFound.
func (s *DepartmentService) Resolve(ctx context.Context, ref string) (*department.Department, error) {
	if uuid.Validate(ref) == nil {
		d, err := s.store.GetDepartment(ctx, ref)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return s.store.GetDepartmentByName(ctx, ref)
}

// List returns all departments in the tenant.
func (s *DepartmentService) List(ctx context.Context) ([]department.Department, error) {
	return s.store.ListDepartments(ctx)
}

// Update applies a partial update to a department.
func (s *DepartmentService) Update(ctx context.Context, id string, req department.UpdateRequest) (*department.Department, error) {
	d, err := s.store.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
		}
		d.Name = *req.Name
	}
	if req.HeadID != nil {
		if *req.HeadID != "" {
			if _, err := s.store.GetEmployee(ctx, *req.HeadID); err != nil {
				return nil, err
			}
		}
		d.HeadID = *req.HeadID
	}
	if err := s.store.UpdateDepartment(ctx, d); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.ActionDepartmentUpdated, "department", d.ID, map[string]any{"name": d.Name})
	s.invalidate(ctx)
	return d, nil
}

// Delete removes a department. Departments still referenced by users or
// employees are protected by foreign keys and surface as a Conflict.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDepartment(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.ActionDepartmentDeleted, "department", id, nil)
	s.invalidate(ctx)
	return nil
}

func (s *DepartmentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateTenant(ctx, middleware.TenantIDFromContext(ctx))
	}
}
