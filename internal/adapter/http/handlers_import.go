package http

import (
	"net/http"

	"github.com/zenora-hq/zenora-core/internal/domain/employee"
)

type importRequest struct {
	Employees []employee.ImportRow `json:"employees"`
}

// ImportEmployees handles POST /api/v1/employees/import: the whole batch runs
// in one transaction and any failing row rolls everything back.
func (h *Handlers) ImportEmployees(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[importRequest](w, r)
	if !ok {
		return
	}
	result, err := h.Imports.ImportAtomic(r.Context(), req.Employees)
	if err != nil {
		writeDomainError(w, err, "import failed")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// BulkProvision handles POST /api/v1/employees/bulk: rows commit
// independently and failures are reported per row. The response is 207 when
// outcomes are mixed.
func (h *Handlers) BulkProvision(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[importRequest](w, r)
	if !ok {
		return
	}
	result, err := h.Imports.ImportPerRow(r.Context(), req.Employees)
	if err != nil {
		writeDomainError(w, err, "import failed")
		return
	}

	status := http.StatusCreated
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}
