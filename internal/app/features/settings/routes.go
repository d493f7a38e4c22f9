// internal/app/features/settings/routes.go
package settings

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeGetSettings)
	r.Put("/", h.ServeSaveSettings)
	r.Get("/timezones", h.ServeListTimezones)
	return r
}
