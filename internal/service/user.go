package service

import (
	"context"
	"fmt"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/audit"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/port/database"
)

// UserService manages user accounts within a tenant.
type UserService struct {
	store database.Store
	auth  *AuthService
	audit *AuditService
}

// NewUserService creates a new UserService.
func NewUserService(store database.Store, auth *AuthService, auditSvc *AuditService) *UserService {
	return &UserService{store: store, auth: auth, audit: auditSvc}
}

// Create registers a new user in the tenant. A user without a password is
// created in INVITED status and cannot log in until credentials are set.
func (s *UserService) Create(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if req.DepartmentID != "" {
		if _, err := s.store.GetDepartment(ctx, req.DepartmentID); err != nil {
			return nil, err
		}
	}

	u := &user.User{
		Email:        req.Email,
		Name:         req.Name,
		Role:         req.Role,
		Status:       user.StatusInvited,
		DepartmentID: req.DepartmentID,
	}
	if req.Password != "" {
		hash, err := s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
		u.Status = user.StatusActive
	}

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionUserCreated, "user", created.ID, map[string]any{
		"email": created.Email,
		"role":  created.Role,
	})
	return created, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns all users in the tenant.
func (s *UserService) List(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}

// Update applies a partial update to a user.
func (s *UserService) Update(ctx context.Context, id string, req user.UpdateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Status != nil {
		u.Status = *req.Status
	}
	if req.DepartmentID != nil {
		if *req.DepartmentID != "" {
			if _, err := s.store.GetDepartment(ctx, *req.DepartmentID); err != nil {
				return nil, err
			}
		}
		u.DepartmentID = *req.DepartmentID
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.ActionUserUpdated, "user", u.ID, map[string]any{
		"role":   u.Role,
		"status": u.Status,
	})
	return u, nil
}
