package http

import (
	"net/http"

	"github.com/zenora-hq/zenora-core/internal/domain/employee"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
)

// ListUsers handles GET /api/v1/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "users not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// CreateUser handles POST /api/v1/users.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}
	created, err := h.Users.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUser handles PUT /api/v1/users/{id}.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.UpdateRequest](w, r)
	if !ok {
		return
	}
	updated, err := h.Users.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type assignRoleRequest struct {
	Role          user.Role `json:"role"`
	JobTitle      string    `json:"job_title,omitempty"`
	DepartmentID  string    `json:"department_id,omitempty"`
	ManagerUserID string    `json:"manager_user_id,omitempty"`
}

// AssignRole handles POST /api/v1/users/{id}/assign-role. Granting a role
// also provisions the employee record for the user, so the first role
// assignment is what mints the employee number. An omitted job title falls
// back to the role-derived default here; the provisioner itself requires one.
func (h *Handlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[assignRoleRequest](w, r)
	if !ok {
		return
	}
	id := urlParam(r, "id")

	u, err := h.Users.Update(r.Context(), id, user.UpdateRequest{Role: &req.Role})
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	title := req.JobTitle
	if title == "" {
		title = employee.DefaultJobTitle(u.Role)
	}
	e, effects, err := h.Employees.Provision(r.Context(), &employee.ProvisionRequest{
		UserID:        id,
		JobTitle:      title,
		DepartmentID:  req.DepartmentID,
		ManagerUserID: req.ManagerUserID,
	})
	if err != nil {
		writeDomainError(w, err, "user or department not found")
		return
	}
	runAfterResponse(r.Context(), effects)

	writeJSON(w, http.StatusOK, map[string]any{"user": u, "employee": e})
}
