// internal/app/features/certificates/routes.go
package certificates

import "github.com/go-chi/chi/v5"

// Routes mounts the certificate endpoints under /api/v1/certificates.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeListCertificates)
	r.Get("/{number}", h.ServeGetCertificate)
	return r
}
