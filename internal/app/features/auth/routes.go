// internal/app/features/auth/routes.go
package auth

import "github.com/go-chi/chi/v5"

// Routes returns the router for /api/v1/auth. Login and invite
// acceptance are necessarily anonymous; token issuance requires a
// signed-in identity, enforced in the handler via the auth gate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.ServeLogin)
	r.Post("/logout", h.ServeLogout)
	r.Post("/token", h.ServeToken)
	r.Post("/invite/accept", h.ServeAcceptInvite)

	return r
}
