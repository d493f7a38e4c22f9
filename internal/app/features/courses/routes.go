// internal/app/features/courses/routes.go
package courses

import "github.com/go-chi/chi/v5"

// Routes mounts the course catalog endpoints under /api/v1/courses.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeListCourses)
	r.Post("/", h.ServeCreateCourse)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGetCourse)
		r.Patch("/", h.ServeUpdateCourse)
		r.Post("/deactivate", h.ServeDeactivate)
		r.Post("/reactivate", h.ServeReactivate)

		r.Post("/lessons", h.ServeAddLesson)
		r.Put("/lessons/order", h.ServeReorderLessons)
		r.Patch("/lessons/{lessonID}", h.ServeUpdateLesson)
		r.Delete("/lessons/{lessonID}", h.ServeDeleteLesson)
	})

	return r
}
