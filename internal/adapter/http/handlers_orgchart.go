package http

import (
	"net/http"
	"strconv"
)

// GetOrgChart handles GET /api/v1/orgchart.
func (h *Handlers) GetOrgChart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.OrgChart.Chart(r.Context())
	if err != nil {
		writeDomainError(w, err, "org chart unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orgchart": chart})
}

// ListAudit handles GET /api/v1/audit?limit=&offset=.
func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.Audit.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, "audit log unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
