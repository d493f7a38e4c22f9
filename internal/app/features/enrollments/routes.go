// internal/app/features/enrollments/routes.go
package enrollments

import "github.com/go-chi/chi/v5"

// Routes mounts the enrollment endpoints under /api/v1/enrollments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeListEnrollments)
	r.Post("/", h.ServeEnroll)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGetEnrollment)
		r.Post("/lessons/{lessonID}/view", h.ServeRecordLessonView)
		r.Post("/attempts", h.ServeRecordAttempt)
		r.Post("/approve", h.ServeApprove)
		r.Post("/override", h.ServeOverride)
	})

	return r
}
