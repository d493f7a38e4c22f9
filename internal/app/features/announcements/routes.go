// internal/app/features/announcements/routes.go
package announcements

import "github.com/go-chi/chi/v5"

// Routes mounts the announcement endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeListAnnouncements)
	r.Post("/", h.ServeCreateAnnouncement)
	r.Delete("/{id}", h.ServeDeleteAnnouncement)
	return r
}
