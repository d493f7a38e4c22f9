// internal/app/features/courses/lessons.go
package courses

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/policy/coursepolicy"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	lessonstore "github.com/dalemusser/trainhub/internal/app/store/lessons"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// manageTarget loads the course from the URL and checks manage rights.
func (h *Handler) manageTarget(ctx context.Context, w http.ResponseWriter, r *http.Request, a authz.Actor) (models.Course, bool) {
	course, ok := h.courseFromURL(ctx, w, r)
	if !ok {
		return models.Course{}, false
	}
	if err := coursepolicy.CanManageCourse(a, &course); err != nil {
		httpjson.AuthzError(w, err)
		return models.Course{}, false
	}
	return course, true
}

type lessonRequest struct {
	Title        string `json:"title"`
	ContentType  string `json:"content_type"`
	ContentURL   string `json:"content_url"`
	Body         string `json:"body"`
	Required     *bool  `json:"required"`
	Position     int    `json:"position"`
	DurationMins int    `json:"duration_mins"`
}

// ServeAddLesson handles POST /api/v1/courses/{id}/lessons.
// Omitting position appends to the end of the sequence.
func (h *Handler) ServeAddLesson(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, ok := h.manageTarget(ctx, w, r, a)
	if !ok {
		return
	}

	var req lessonRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httpjson.FieldErrors(w, "title is required", map[string]string{"title": "required"})
		return
	}

	required := true
	if req.Required != nil {
		required = *req.Required
	}

	lesson, err := h.Lessons.Add(ctx, models.Lesson{
		CourseID:     course.ID,
		Title:        strings.TrimSpace(req.Title),
		Position:     req.Position,
		Required:     required,
		ContentType:  req.ContentType,
		ContentURL:   strings.TrimSpace(req.ContentURL),
		Body:         htmlsanitize.Sanitize(req.Body),
		DurationMins: req.DurationMins,
	})
	if err != nil {
		switch {
		case errors.Is(err, lessonstore.ErrInvalidType):
			httpjson.FieldErrors(w, "invalid lesson content type", map[string]string{"content_type": "invalid"})
		case errors.Is(err, lessonstore.ErrDuplicatePosition):
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict,
				"a lesson already occupies this position")
		default:
			httpjson.Internal(w, h.Log, "add lesson", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventLessonCreated, a, &course, map[string]string{
		"lesson_id": lesson.ID.Hex(),
		"title":     lesson.Title,
	})
	httpjson.Respond(w, http.StatusCreated, lesson)
}

type reorderRequest struct {
	Order []string `json:"order"`
}

// ServeReorderLessons handles PUT /api/v1/courses/{id}/lessons/order.
// The body must list every lesson of the course exactly once.
func (h *Handler) ServeReorderLessons(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, ok := h.manageTarget(ctx, w, r, a)
	if !ok {
		return
	}

	var req reorderRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	order := make([]primitive.ObjectID, 0, len(req.Order))
	for _, hex := range req.Order {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			httpjson.BadRequest(w, "invalid lesson id in order")
			return
		}
		order = append(order, id)
	}

	if err := h.Lessons.Reorder(ctx, course.ID, order); err != nil {
		if errors.Is(err, lessonstore.ErrBadOrder) {
			httpjson.Error(w, http.StatusUnprocessableEntity, httpjson.CodeInvariantViolation,
				"order must list every lesson of the course exactly once")
		} else {
			httpjson.Internal(w, h.Log, "reorder lessons", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventLessonsOrdered, a, &course, nil)

	list, err := h.Lessons.ListByCourse(ctx, course.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "list lessons", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"lessons": list})
}

type lessonPatchRequest struct {
	Title        string `json:"title"`
	ContentType  string `json:"content_type"`
	ContentURL   string `json:"content_url"`
	Body         string `json:"body"`
	Required     *bool  `json:"required"`
	DurationMins *int   `json:"duration_mins"`
}

// ServeUpdateLesson handles PATCH /api/v1/courses/{id}/lessons/{lessonID}.
func (h *Handler) ServeUpdateLesson(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, ok := h.manageTarget(ctx, w, r, a)
	if !ok {
		return
	}

	lesson, ok := h.lessonFromURL(ctx, w, r, course.ID)
	if !ok {
		return
	}

	var req lessonPatchRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	if t := strings.TrimSpace(req.Title); t != "" {
		lesson.Title = t
	}
	if req.ContentType != "" {
		lesson.ContentType = req.ContentType
	}
	if req.ContentURL != "" {
		lesson.ContentURL = strings.TrimSpace(req.ContentURL)
	}
	if req.Body != "" {
		lesson.Body = htmlsanitize.Sanitize(req.Body)
	}
	if req.Required != nil {
		lesson.Required = *req.Required
	}
	if req.DurationMins != nil {
		lesson.DurationMins = *req.DurationMins
	}

	if err := h.Lessons.Update(ctx, lesson.ID, lesson); err != nil {
		if errors.Is(err, lessonstore.ErrInvalidType) {
			httpjson.FieldErrors(w, "invalid lesson content type", map[string]string{"content_type": "invalid"})
		} else {
			httpjson.Internal(w, h.Log, "update lesson", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventLessonUpdated, a, &course, map[string]string{"lesson_id": lesson.ID.Hex()})

	updated, err := h.Lessons.GetByID(ctx, lesson.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "reload lesson", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, updated)
}

// ServeDeleteLesson handles DELETE /api/v1/courses/{id}/lessons/{lessonID}.
func (h *Handler) ServeDeleteLesson(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, ok := h.manageTarget(ctx, w, r, a)
	if !ok {
		return
	}

	lesson, ok := h.lessonFromURL(ctx, w, r, course.ID)
	if !ok {
		return
	}

	if err := h.Lessons.Delete(ctx, lesson.ID); err != nil {
		if errors.Is(err, lessonstore.ErrNotFound) {
			httpjson.NotFound(w, "lesson not found")
		} else {
			httpjson.Internal(w, h.Log, "delete lesson", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventLessonDeleted, a, &course, map[string]string{
		"lesson_id": lesson.ID.Hex(),
		"title":     lesson.Title,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lessonFromURL(ctx context.Context, w http.ResponseWriter, r *http.Request, courseID primitive.ObjectID) (models.Lesson, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "lessonID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid lesson id")
		return models.Lesson{}, false
	}
	lesson, err := h.Lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lessonstore.ErrNotFound) {
			httpjson.NotFound(w, "lesson not found")
		} else {
			httpjson.Internal(w, h.Log, "load lesson", err)
		}
		return models.Lesson{}, false
	}
	if lesson.CourseID != courseID {
		httpjson.NotFound(w, "lesson not found")
		return models.Lesson{}, false
	}
	return lesson, true
}
