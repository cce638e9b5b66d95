package http

import (
	"net/http"

	"github.com/zenora-hq/zenora-core/internal/domain/department"
)

// ListDepartments handles GET /api/v1/departments.
func (h *Handlers) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Departments.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "departments not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": departments})
}

// CreateDepartment handles POST /api/v1/departments.
func (h *Handlers) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[department.CreateRequest](w, r)
	if !ok {
		return
	}
	created, err := h.Departments.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetDepartment handles GET /api/v1/departments/{id}.
func (h *Handlers) GetDepartment(w http.ResponseWriter, r *http.Request) {
	d, err := h.Departments.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateDepartment handles PUT /api/v1/departments/{id}.
func (h *Handlers) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[department.UpdateRequest](w, r)
	if !ok {
		return
	}
	updated, err := h.Departments.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteDepartment handles DELETE /api/v1/departments/{id}.
func (h *Handlers) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.Departments.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "department not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
