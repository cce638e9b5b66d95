package http

import (
	"context"
	"net/http"
	"time"

	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/logger"
	"github.com/zenora-hq/zenora-core/internal/middleware"
	"github.com/zenora-hq/zenora-core/internal/service"
)

// sideEffectTimeout bounds post-commit work running after the response.
const sideEffectTimeout = 30 * time.Second

// runAfterResponse executes post-commit side effects on a detached context
// that keeps the tenant, actor and request ID of the original request.
func runAfterResponse(ctx context.Context, effects []service.SideEffect) {
	if len(effects) == 0 {
		return
	}
	detached := middleware.WithTenantID(context.Background(), middleware.TenantIDFromContext(ctx))
	if u := middleware.UserFromContext(ctx); u != nil {
		detached = middleware.WithUser(detached, u)
	}
	if id := logger.RequestID(ctx); id != "" {
		detached = logger.WithRequestID(detached, id)
	}
	go func() {
		ctx, cancel := context.WithTimeout(detached, sideEffectTimeout)
		defer cancel()
		service.RunSideEffects(ctx, effects)
	}()
}

// ProvisionEmployee handles POST /api/v1/employees/provision. The same
// endpoint creates the employee record on first call and partially updates it
// afterwards; the employee number is assigned once and never changes.
func (h *Handlers) ProvisionEmployee(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[employee.ProvisionRequest](w, r)
	if !ok {
		return
	}

	e, effects, err := h.Employees.Provision(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "user or department not found")
		return
	}
	runAfterResponse(r.Context(), effects)

	writeJSON(w, http.StatusOK, e)
}

// ListEmployees handles GET /api/v1/employees.
func (h *Handlers) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "employees not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": employees})
}

// GetEmployee handles GET /api/v1/employees/{id}.
func (h *Handlers) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Employees.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ListSubordinates handles GET /api/v1/employees/{id}/subordinates: the full
// transitive reporting subtree.
func (h *Handlers) ListSubordinates(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if _, err := h.Employees.Get(r.Context(), id); err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	subs, err := h.Hierarchy.Subordinates(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subordinates": subs})
}

// ListReports handles GET /api/v1/employees/{id}/reports: direct reports only.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if _, err := h.Employees.Get(r.Context(), id); err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	reports, err := h.Hierarchy.DirectReports(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// ApprovalScope handles GET /api/v1/employees/{id}/approval-scope.
func (h *Handlers) ApprovalScope(w http.ResponseWriter, r *http.Request) {
	scope, err := h.Hierarchy.Scope(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, scope)
}
