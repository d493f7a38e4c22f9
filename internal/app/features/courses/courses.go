// internal/app/features/courses/courses.go
package courses

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/trainhub/internal/app/policy/coursepolicy"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

func (h *Handler) resolveActor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	return gates.ResolveActor(w, r, h.Memberships, h.Log)
}

func (h *Handler) auditAdmin(r *http.Request, eventType string, a authz.Actor, course *models.Course, details map[string]string) {
	if details == nil {
		details = map[string]string{}
	}
	details["course_id"] = course.ID.Hex()
	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: eventType,
		ActorID:   a.ID,
		TeamID:    course.TeamID,
		Details:   details,
	})
}

func (h *Handler) courseFromURL(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Course, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "invalid course id")
		return models.Course{}, false
	}
	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, coursestore.ErrNotFound) {
			httpjson.NotFound(w, "course not found")
		} else {
			httpjson.Internal(w, h.Log, "load course", err)
		}
		return models.Course{}, false
	}
	return course, true
}

// ServeListCourses handles GET /api/v1/courses.
// The catalog is visibility filtered: campus courses for everyone,
// team courses for that team's members and leads, everything for
// admins. Admins and managers may pass ?include_archived=true.
func (h *Handler) ServeListCourses(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	all := a.IsSuperuser() || a.IsAdmin()
	activeOnly := r.URL.Query().Get("include_archived") != "true" || !(all || len(a.TeamsLed) > 0)

	var teamIDs []primitive.ObjectID
	if !all {
		var err error
		teamIDs, err = h.Memberships.TeamsOf(ctx, a.ID)
		if err != nil {
			httpjson.Internal(w, h.Log, "load actor teams", err)
			return
		}
	}

	filter := coursestore.VisibleFilter(all, teamIDs, activeOnly)
	list, err := h.Courses.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}}))
	if err != nil {
		httpjson.Internal(w, h.Log, "list courses", err)
		return
	}
	if list == nil {
		list = []models.Course{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"courses": list})
}

type createRequest struct {
	Title            string                    `json:"title"`
	Description      string                    `json:"description"`
	Scope            string                    `json:"scope"`
	TeamID           *primitive.ObjectID       `json:"team_id"`
	Policy           models.CompletionPolicy   `json:"policy"`
	Certificate      models.CertificateConfig  `json:"certificate"`
	SoftDeadlineDays int                       `json:"soft_deadline_days"`
	HardDeadlineDays int                       `json:"hard_deadline_days"`
}

// ServeCreateCourse handles POST /api/v1/courses.
// Scope, owning team, and completion policy are fixed here for the
// course's lifetime.
func (h *Handler) ServeCreateCourse(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httpjson.FieldErrors(w, "title is required", map[string]string{"title": "required"})
		return
	}
	if req.Scope == "" {
		req.Scope = models.CourseScopeCampus
	}

	if err := coursepolicy.CanCreateCourse(a, req.Scope, req.TeamID); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, err := h.Courses.Create(ctx, models.Course{
		Title:            strings.TrimSpace(req.Title),
		Description:      htmlsanitize.Sanitize(req.Description),
		Scope:            req.Scope,
		TeamID:           req.TeamID,
		Policy:           req.Policy,
		Certificate:      req.Certificate,
		SoftDeadlineDays: req.SoftDeadlineDays,
		HardDeadlineDays: req.HardDeadlineDays,
		OwnerID:          a.ID,
		OwnerName:        a.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, coursestore.ErrInvalidPolicy):
			httpjson.Error(w, http.StatusUnprocessableEntity, httpjson.CodeInvalidPolicy,
				"completion policy or certificate config is invalid")
		case errors.Is(err, coursestore.ErrInvalidScope):
			httpjson.FieldErrors(w, "invalid scope, team, or deadline configuration", map[string]string{
				"scope": "invalid",
			})
		default:
			httpjson.Internal(w, h.Log, "create course", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventCourseCreated, a, &course, map[string]string{"title": course.Title})
	httpjson.Respond(w, http.StatusCreated, course)
}

// ServeGetCourse handles GET /api/v1/courses/{id}.
// Returns the course with its ordered lesson list.
func (h *Handler) ServeGetCourse(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, ok := h.courseFromURL(ctx, w, r)
	if !ok {
		return
	}

	memberOf := false
	if course.TeamScoped() && course.TeamID != nil {
		var err error
		memberOf, err = h.Memberships.IsMemberOf(ctx, a.ID, *course.TeamID)
		if err != nil {
			httpjson.Internal(w, h.Log, "check membership", err)
			return
		}
	}
	if !coursepolicy.CanViewCourse(a, &course, memberOf) {
		httpjson.Forbidden(w, "not allowed to view this course")
		return
	}

	lessonList, err := h.Lessons.ListByCourse(ctx, course.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "list lessons", err)
		return
	}
	if lessonList == nil {
		lessonList = []models.Lesson{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"course": course, "lessons": lessonList})
}

type patchRequest struct {
	Title            string                    `json:"title"`
	Description      string                    `json:"description"`
	SoftDeadlineDays *int                      `json:"soft_deadline_days"`
	HardDeadlineDays *int                      `json:"hard_deadline_days"`
	Certificate      *models.CertificateConfig `json:"certificate"`
}

// ServeUpdateCourse handles PATCH /api/v1/courses/{id}.
// Only the editable fields; scope and policy stay fixed.
func (h *Handler) ServeUpdateCourse(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, ok := h.courseFromURL(ctx, w, r)
	if !ok {
		return
	}
	if err := coursepolicy.CanManageCourse(a, &course); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	var req patchRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	err := h.Courses.Update(ctx, course.ID, coursestore.Update{
		Title:            strings.TrimSpace(req.Title),
		Description:      htmlsanitize.Sanitize(req.Description),
		SoftDeadlineDays: req.SoftDeadlineDays,
		HardDeadlineDays: req.HardDeadlineDays,
		Certificate:      req.Certificate,
	}, a.ID, a.Name)
	if err != nil {
		switch {
		case errors.Is(err, coursestore.ErrInvalidPolicy):
			httpjson.Error(w, http.StatusUnprocessableEntity, httpjson.CodeInvalidPolicy,
				"certificate config is invalid")
		case errors.Is(err, coursestore.ErrInvalidScope):
			httpjson.FieldErrors(w, "deadline days must not be negative", map[string]string{
				"soft_deadline_days": "invalid",
			})
		case errors.Is(err, coursestore.ErrNotFound):
			httpjson.NotFound(w, "course not found")
		default:
			httpjson.Internal(w, h.Log, "update course", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventCourseUpdated, a, &course, nil)

	updated, err := h.Courses.GetByID(ctx, course.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "reload course", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, updated)
}

// ServeDeactivate handles POST /api/v1/courses/{id}/deactivate.
// Archiving stops new enrollments; existing enrollments keep working.
func (h *Handler) ServeDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// ServeReactivate handles POST /api/v1/courses/{id}/reactivate.
func (h *Handler) ServeReactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, ok := h.courseFromURL(ctx, w, r)
	if !ok {
		return
	}
	if err := coursepolicy.CanManageCourse(a, &course); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	if err := h.Courses.SetActive(ctx, course.ID, active); err != nil {
		httpjson.Internal(w, h.Log, "set course status", err)
		return
	}

	event := audit.EventCourseArchived
	if active {
		event = audit.EventCourseRestored
	}
	h.auditAdmin(r, event, a, &course, nil)

	updated, err := h.Courses.GetByID(ctx, course.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "reload course", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, updated)
}
