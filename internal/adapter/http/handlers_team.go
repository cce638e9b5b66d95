package http

import (
	"net/http"

	"github.com/zenora-hq/zenora-core/internal/domain/team"
)

// ListTeams handles GET /api/v1/teams.
func (h *Handlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Teams.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "teams not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

// CreateTeam handles POST /api/v1/teams.
func (h *Handlers) CreateTeam(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[team.CreateRequest](w, r)
	if !ok {
		return
	}
	created, err := h.Teams.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetTeam handles GET /api/v1/teams/{id}.
func (h *Handlers) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.Teams.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ListEmployeeTeams handles GET /api/v1/employees/{id}/teams.
func (h *Handlers) ListEmployeeTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Teams.ListForEmployee(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

type replaceTeamsRequest struct {
	TeamIDs []string `json:"team_ids"`
}

// ReplaceEmployeeTeams handles PUT /api/v1/employees/{id}/teams. The given
// list fully replaces the employee's memberships.
func (h *Handlers) ReplaceEmployeeTeams(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[replaceTeamsRequest](w, r)
	if !ok {
		return
	}
	if req.TeamIDs == nil {
		writeError(w, http.StatusBadRequest, "team_ids is required (send [] to clear)")
		return
	}
	if err := h.Teams.ReplaceMemberships(r.Context(), urlParam(r, "id"), req.TeamIDs); err != nil {
		writeDomainError(w, err, "employee or team not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
