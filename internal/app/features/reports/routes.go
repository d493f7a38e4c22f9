// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// Routes mounts the report endpoints under /api/v1/reports.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/users/{id}", h.ServeUserReport)
	r.Get("/teams/{id}", h.ServeTeamReport)
	r.Get("/courses/{id}", h.ServeCourseReport)
	r.Get("/compliance", h.ServeComplianceReport)
	return r
}
