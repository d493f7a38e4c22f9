// internal/app/features/enrollments/enrollments.go
package enrollments

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/policy/enrollmentpolicy"
	"github.com/dalemusser/trainhub/internal/app/store/activity"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/trainhub/internal/app/store/enrollments"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

func (h *Handler) resolveActor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	return gates.ResolveActor(w, r, h.Memberships, h.Log)
}

// recordActivity is best-effort; a feed write never fails the request.
func (h *Handler) recordActivity(ctx context.Context, ev activity.Event) {
	if err := h.Activity.Record(ctx, ev); err != nil {
		h.Log.Warn("record activity event", zap.String("event_type", ev.EventType), zap.Error(err))
	}
}

func (h *Handler) enrollmentFromURL(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Enrollment, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "invalid enrollment id")
		return models.Enrollment{}, false
	}
	e, err := h.Enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, enrollmentstore.ErrNotFound) {
			httpjson.NotFound(w, "enrollment not found")
		} else {
			httpjson.Internal(w, h.Log, "load enrollment", err)
		}
		return models.Enrollment{}, false
	}
	return e, true
}

// enrollmentView is the wire shape for an enrollment: the stored row
// plus the lazily computed effective status.
type enrollmentView struct {
	models.Enrollment
	EffectiveStatus string `json:"effective_status"`
}

func viewOf(e models.Enrollment, now time.Time) enrollmentView {
	return enrollmentView{Enrollment: e, EffectiveStatus: e.EffectiveStatus(now)}
}

// ServeListEnrollments handles GET /api/v1/enrollments.
// Admins see everything; team leads see their led teams' enrollments
// plus their own; doorholders see only their own. Optional filters:
// status, course_id, user_id.
func (h *Handler) ServeListEnrollments(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter := bson.M{"archived": false}
	if !a.IsSuperuser() && !a.IsAdmin() {
		if len(a.TeamsLed) > 0 {
			filter["$or"] = []bson.M{
				{"user_id": a.ID},
				{"team_id": bson.M{"$in": a.TeamsLed}},
			}
		} else {
			filter["user_id"] = a.ID
		}
	}

	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		if !models.IsValidEnrollmentStatus(status) {
			httpjson.BadRequest(w, "unknown enrollment status")
			return
		}
		filter["status"] = status
	}
	if hex := q.Get("course_id"); hex != "" {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			httpjson.BadRequest(w, "invalid course_id")
			return
		}
		filter["course_id"] = id
	}
	if hex := q.Get("user_id"); hex != "" {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			httpjson.BadRequest(w, "invalid user_id")
			return
		}
		filter["user_id"] = id
	}

	limit, offset := pageParams(r)
	list, err := h.Enrollments.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "enrolled_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset))
	if err != nil {
		httpjson.Internal(w, h.Log, "list enrollments", err)
		return
	}
	total, err := h.Enrollments.Count(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "count enrollments", err)
		return
	}

	now := time.Now().UTC()
	views := make([]enrollmentView, 0, len(list))
	for _, e := range list {
		views = append(views, viewOf(e, now))
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"enrollments": views, "total": total})
}

func pageParams(r *http.Request) (limit, offset int64) {
	limit = 50
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}
	if limit > 200 {
		limit = 200
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

type enrollRequest struct {
	UserID       *primitive.ObjectID `json:"user_id"`
	CourseID     primitive.ObjectID  `json:"course_id"`
	SoftDeadline *time.Time          `json:"soft_deadline"`
	HardDeadline *time.Time          `json:"hard_deadline"`
}

// ServeEnroll handles POST /api/v1/enrollments.
// Omitting user_id enrolls the actor themselves.
func (h *Handler) ServeEnroll(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	var req enrollRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	if req.CourseID.IsZero() {
		httpjson.FieldErrors(w, "course_id is required", map[string]string{"course_id": "required"})
		return
	}

	userID := a.ID
	if req.UserID != nil {
		userID = *req.UserID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	course, err := h.Courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, coursestore.ErrNotFound) {
			httpjson.NotFound(w, "course not found")
		} else {
			httpjson.Internal(w, h.Log, "load course", err)
		}
		return
	}

	if err := enrollmentpolicy.CanEnroll(a, userID, &course); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.NotFound(w, "user not found")
		} else {
			httpjson.Internal(w, h.Log, "load user", err)
		}
		return
	}
	if !user.Active {
		httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict,
			"cannot enroll a deactivated user")
		return
	}

	softDays, hardDays, err := h.Settings.DeadlineDefaults(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "load deadline defaults", err)
		return
	}

	e := models.Enrollment{
		UserID:       userID,
		CourseID:     course.ID,
		SoftDeadline: req.SoftDeadline,
		HardDeadline: req.HardDeadline,
	}
	if userID != a.ID {
		e.EnrolledByID = &a.ID
		e.EnrolledByName = a.Name
	}

	created, err := h.Enrollments.Enroll(ctx, e, course, enrollmentstore.DeadlineDefaults{
		SoftDays: softDays,
		HardDays: hardDays,
	})
	if err != nil {
		switch {
		case errors.Is(err, enrollmentstore.ErrDuplicate):
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict,
				"user is already enrolled in this course")
		case errors.Is(err, enrollmentstore.ErrCourseInactive):
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict,
				"course is not accepting enrollments")
		default:
			httpjson.Internal(w, h.Log, "enroll", err)
		}
		return
	}

	h.recordActivity(ctx, activity.Event{
		UserID:       created.UserID,
		EventType:    activity.EventEnrollmentCreated,
		CourseID:     &course.ID,
		CourseTitle:  course.Title,
		EnrollmentID: &created.ID,
	})
	if userID != a.ID {
		h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
			EventType: audit.EventEnrolled,
			ActorID:   a.ID,
			TargetID:  &created.UserID,
			TeamID:    course.TeamID,
			Details: map[string]string{
				"enrollment_id": created.ID.Hex(),
				"course_title":  course.Title,
			},
		})
	}

	httpjson.Respond(w, http.StatusCreated, viewOf(created, time.Now().UTC()))
}

// ServeGetEnrollment handles GET /api/v1/enrollments/{id}.
// The detail view includes lesson progress and assessment attempts.
func (h *Handler) ServeGetEnrollment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, ok := h.enrollmentFromURL(ctx, w, r)
	if !ok {
		return
	}
	if !enrollmentpolicy.CanViewEnrollment(a, &e) {
		httpjson.Forbidden(w, "not allowed to view this enrollment")
		return
	}

	progress, err := h.Enrollments.Progress(ctx, e.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "load progress", err)
		return
	}
	if progress == nil {
		progress = []models.LessonProgress{}
	}
	attempts, err := h.Enrollments.Attempts(ctx, e.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "load attempts", err)
		return
	}
	if attempts == nil {
		attempts = []models.AssessmentAttempt{}
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"enrollment": viewOf(e, time.Now().UTC()),
		"progress":   progress,
		"attempts":   attempts,
	})
}
