package service

import (
	"context"

	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/port/database"
)

// HierarchyService answers reachability questions over the manager graph:
// transitive subordinates, direct reports, and approval scope.
type HierarchyService struct {
	store database.Store
}

// NewHierarchyService creates a new HierarchyService.
func NewHierarchyService(store database.Store) *HierarchyService {
	return &HierarchyService{store: store}
}

// Subordinates returns all employees transitively reporting to rootID, at any
// depth. The traversal carries a visited set keyed by employee ID: the data
// model intends the graph to be acyclic, but no write-path constraint proves
// it, so termination must not depend on it. rootID itself is excluded.
func (s *HierarchyService) Subordinates(ctx context.Context, rootID string) ([]employee.Employee, error) {
	visited := map[string]bool{rootID: true}
	var result []employee.Employee

	frontier := []string{rootID}
	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, id := range frontier {
			reports, err := s.store.ListDirectReports(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, r := range reports {
				if visited[r.ID] {
					continue
				}
				visited[r.ID] = true
				result = append(result, r)
				next = append(next, r.ID)
			}
		}
		frontier = next
	}

	return result, nil
}

// DirectReports is the depth-1 special case used for approval scoping.
func (s *HierarchyService) DirectReports(ctx context.Context, managerID string) ([]employee.Employee, error) {
	return s.store.ListDirectReports(ctx, managerID)
}

// ApprovalScope is the set of employees whose submissions the given employee
// may see and approve.
type ApprovalScope struct {
	// IncludesSelf reports whether the employee's own submissions are in scope.
	IncludesSelf bool `json:"includes_self"`
	// EmployeeIDs are the in-scope employees, including the employee itself
	// when IncludesSelf is true.
	EmployeeIDs []string `json:"employee_ids"`
}

// Scope computes the approval scope for an employee:
//   - a root-level employee (no manager) with no reports sees only itself;
//   - a root-level employee with reports sees itself plus its direct reports;
//   - a non-root employee sees its direct reports only, never itself.
func (s *HierarchyService) Scope(ctx context.Context, employeeID string) (*ApprovalScope, error) {
	e, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	reports, err := s.store.ListDirectReports(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	scope := &ApprovalScope{
		IncludesSelf: e.IsRoot(),
	}
	if scope.IncludesSelf {
		scope.EmployeeIDs = append(scope.EmployeeIDs, employeeID)
	}
	for _, r := range reports {
		if r.ID == employeeID {
			continue // self-managed row, tolerated on read
		}
		scope.EmployeeIDs = append(scope.EmployeeIDs, r.ID)
	}

	return scope, nil
}

// IsTransitiveReport reports whether candidate is rootID itself or anywhere
// below it in the manager tree. The provisioner uses this to reject manager
// assignments that would close a cycle.
func (s *HierarchyService) IsTransitiveReport(ctx context.Context, rootID, candidate string) (bool, error) {
	if candidate == rootID {
		return true, nil
	}
	subs, err := s.Subordinates(ctx, rootID)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		if sub.ID == candidate {
			return true, nil
		}
	}
	return false, nil
}
