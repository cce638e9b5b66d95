package service

import (
	"context"
	"fmt"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/team"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/database"
)

// TeamService manages teams and team membership. Membership is only ever
// replaced wholesale: the provided list fully defines the employee's teams.
type TeamService struct {
	store database.Store
	cache CacheInvalidator
}

// NewTeamService creates a new TeamService.
func NewTeamService(store database.Store, cache CacheInvalidator) *TeamService {
	return &TeamService{store: store, cache: cache}
}

// Create registers a new team.
func (s *TeamService) Create(ctx context.Context, req team.CreateRequest) (*team.Team, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	return s.store.CreateTeam(ctx, req)
}

// Get returns a team by ID.
func (s *TeamService) Get(ctx context.Context, id string) (*team.Team, error) {
	return s.store.GetTeam(ctx, id)
}

// List returns all teams in the tenant.
func (s *TeamService) List(ctx context.Context) ([]team.Team, error) {
	return s.store.ListTeams(ctx)
}

// ListForEmployee returns the teams an employee belongs to.
func (s *TeamService) ListForEmployee(ctx context.Context, employeeID string) ([]team.Team, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListEmployeeTeams(ctx, employeeID)
}

// ReplaceMemberships replaces the employee's team memberships with teamIDs.
// An empty list removes the employee from all teams.
func (s *TeamService) ReplaceMemberships(ctx context.Context, employeeID string, teamIDs []string) error {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return err
	}
	if err := s.store.ReplaceEmployeeTeams(ctx, employeeID, teamIDs); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateTenant(ctx, middleware.TenantIDFromContext(ctx))
	}
	return nil
}
