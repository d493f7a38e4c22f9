// internal/app/features/teams/routes.go
package teams

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeListTeams)
	r.Post("/", h.ServeCreateTeam)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGetTeam)
		r.Patch("/", h.ServeUpdateTeam)

		r.Post("/leads/{userID}", h.ServeAddLead)
		r.Delete("/leads/{userID}", h.ServeRemoveLead)
		r.Post("/members/import", h.ServeImportRoster)
		r.Post("/members/{userID}", h.ServeAddMember)
		r.Delete("/members/{userID}", h.ServeRemoveMember)
	})

	return r
}
