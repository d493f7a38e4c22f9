// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeListUsers)
	r.Post("/", h.ServeCreateUser)
	r.Post("/invite", h.ServeCreateInvite)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGetUser)
		r.Patch("/", h.ServeUpdateUser)
		r.Delete("/", h.ServeDeleteUser)

		r.Post("/roles/{role}", h.ServeAddRole)
		r.Delete("/roles/{role}", h.ServeRemoveRole)

		r.Post("/deactivate", h.ServeDeactivate)
		r.Post("/reactivate", h.ServeReactivate)
	})

	return r
}
