package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. The caller
// wires the outer middleware chain (request ID, tenant, auth, rate limiting,
// idempotency); here only per-route role guards are applied.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": "1.0.0"})
		})

		// Auth
		r.Post("/auth/login", h.Login)
		r.Post("/auth/rotate", h.RotateToken)
		r.Get("/me", h.Me)

		// Users
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.With(middleware.RequireRole(user.RoleAdmin, user.RoleHR)).Post("/users", h.CreateUser)
		r.With(middleware.RequireRole(user.RoleAdmin, user.RoleHR)).Put("/users/{id}", h.UpdateUser)
		r.With(middleware.RequireRole(user.RoleAdmin, user.RoleHR)).Post("/users/{id}/assign-role", h.AssignRole)

		// Departments
		r.Get("/departments", h.ListDepartments)
		r.Get("/departments/{id}", h.GetDepartment)
		r.With(middleware.RequireRole(user.RoleAdmin, user.RoleHR)).Post("/departments", h.CreateDepartment)
		r.With(middleware.RequireRole(user.RoleAdmin, user.RoleHR)).Put("/departments/{id}", h.UpdateDepartment)
		r.With(middleware.RequireRole(user.RoleAdmin)).Delete("/departments/{id}", h.DeleteDepartment)

		// Teams
		r.Get("/teams", h.ListTeams)
		r.Get("/teams/{id}", h.GetTeam)
		r.With(middleware.RequireRole(user.RoleAdmin, user.RoleHR)).Post("/teams", h.CreateTeam)

		// Employees
		r.Get("/employees", h.ListEmployees)
		r.Get("/employees/{id}", h.GetEmployee)
		r.Get("/employees/{id}/subordinates", h.ListSubordinates)
		r.Get("/employees/{id}/reports", h.ListReports)
		r.Get("/employees/{id}/approval-scope", h.ApprovalScope)
		r.Get("/employees/{id}/teams", h.ListEmployeeTeams)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(user.RoleAdmin, user.RoleHR))
			r.Post("/employees/provision", h.ProvisionEmployee)
			r.Put("/employees/{id}/teams", h.ReplaceEmployeeTeams)
			r.Post("/employees/import", h.ImportEmployees)
			r.Post("/employees/bulk", h.BulkProvision)
		})

		// Org chart
		r.Get("/orgchart", h.GetOrgChart)

		// Audit trail
		r.With(middleware.RequireRole(user.RoleAdmin)).Get("/audit", h.ListAudit)
	})
}
