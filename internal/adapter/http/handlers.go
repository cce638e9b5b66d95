package http

import (
	"net/http"

	"github.com/zenora-hq/zenora-core/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth        *service.AuthService
	Users       *service.UserService
	Departments *service.DepartmentService
	Teams       *service.TeamService
	Employees   *service.EmployeeService
	Hierarchy   *service.HierarchyService
	Imports     *service.BulkImportService
	OrgChart    *service.OrgChartService
	Audit       *service.AuditService

	// Ready reports backend connectivity for the health endpoint.
	Ready func() map[string]bool
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	status := http.StatusOK
	deps := map[string]bool{}
	if h.Ready != nil {
		deps = h.Ready()
		for _, ok := range deps {
			if !ok {
				status = http.StatusServiceUnavailable
			}
		}
	}
	writeJSON(w, status, map[string]any{
		"status":       httpStatusWord(status),
		"dependencies": deps,
	})
}

func httpStatusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
