// internal/app/features/activity/routes.go
package activity

import "github.com/go-chi/chi/v5"

// Routes mounts the activity feed endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeListActivity)
	return r
}
