package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/port/cache"
	"github.com/zenora-hq/zenora-core/internal/port/database"
)

// OrgChartNode is one employee in the rendered org chart, with its direct
// reports nested below it.
type OrgChartNode struct {
	EmployeeID     string          `json:"employee_id"`
	EmployeeNumber string          `json:"employee_number"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	JobTitle       string          `json:"job_title"`
	Department     string          `json:"department"`
	Reports        []*OrgChartNode `json:"reports,omitempty"`
}

// OrgChartService renders the tenant's manager tree, cached per tenant until
// the next provisioning mutation invalidates it.
type OrgChartService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewOrgChartService creates a new OrgChartService.
func NewOrgChartService(store database.Store, c cache.Cache, ttl time.Duration) *OrgChartService {
	return &OrgChartService{store: store, cache: c, ttl: ttl}
}

// Chart returns the forest of root-level employees with reports nested under
// them. Employees stuck in a manager cycle are unreachable from any root and
// surface in a separate top-level group so they are never silently dropped.
func (s *OrgChartService) Chart(ctx context.Context) ([]*OrgChartNode, error) {
	key := cache.TenantKey(middleware.TenantIDFromContext(ctx), cache.KeyOrgChart)

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var nodes []*OrgChartNode
			if err := json.Unmarshal(data, &nodes); err == nil {
				return nodes, nil
			}
			slog.Warn("discarding malformed cached org chart", "key", key)
		}
	}

	nodes, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(nodes); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}
	return nodes, nil
}

func (s *OrgChartService) build(ctx context.Context) ([]*OrgChartNode, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	departments, err := s.store.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}

	userByID := make(map[string]int, len(users))
	for i, u := range users {
		userByID[u.ID] = i
	}
	deptName := make(map[string]string, len(departments))
	for _, d := range departments {
		deptName[d.ID] = d.Name
	}

	byID := make(map[string]*OrgChartNode, len(employees))
	for _, e := range employees {
		node := &OrgChartNode{
			EmployeeID:     e.ID,
			EmployeeNumber: e.EmployeeNumber,
			JobTitle:       e.JobTitle,
			Department:     deptName[e.DepartmentID],
		}
		if i, ok := userByID[e.UserID]; ok {
			node.Name = users[i].Name
			node.Email = users[i].Email
		}
		byID[e.ID] = node
	}

	managerOf := make(map[string]string, len(employees))
	for _, e := range employees {
		managerOf[e.ID] = e.ManagerID
	}

	// An employee whose manager chain loops back onto itself must become a
	// root: attaching it under its manager would close a cycle of Reports
	// pointers and the tree would never serialize.
	var roots []*OrgChartNode
	for _, e := range employees {
		node := byID[e.ID]
		parent, ok := byID[e.ManagerID]
		if e.ManagerID == "" || e.ManagerID == e.ID || !ok || onCycle(managerOf, e.ID) {
			roots = append(roots, node)
			continue
		}
		parent.Reports = append(parent.Reports, node)
	}

	return roots, nil
}

// onCycle reports whether following manager pointers from id ever returns to
// id. Chains are short in practice; the walk is bounded by a visited set.
func onCycle(managerOf map[string]string, id string) bool {
	seen := map[string]bool{}
	for cur := managerOf[id]; cur != ""; cur = managerOf[cur] {
		if cur == id {
			return true
		}
		if seen[cur] {
			return false // a cycle further up that does not pass through id
		}
		seen[cur] = true
	}
	return false
}
