// internal/app/features/enrollments/progress.go
package enrollments

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/policy/enrollmentpolicy"
	"github.com/dalemusser/trainhub/internal/app/store/activity"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/trainhub/internal/app/store/enrollments"
	lessonstore "github.com/dalemusser/trainhub/internal/app/store/lessons"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// engineTarget loads the enrollment and its course for a state-machine
// operation.
func (h *Handler) engineTarget(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Enrollment, models.Course, bool) {
	e, ok := h.enrollmentFromURL(ctx, w, r)
	if !ok {
		return models.Enrollment{}, models.Course{}, false
	}
	course, err := h.Courses.GetByID(ctx, e.CourseID)
	if err != nil {
		if errors.Is(err, coursestore.ErrNotFound) {
			httpjson.NotFound(w, "course not found")
		} else {
			httpjson.Internal(w, h.Log, "load course", err)
		}
		return models.Enrollment{}, models.Course{}, false
	}
	return e, course, true
}

// recordResultActivity emits the feed events a completed engine
// operation implies: a status change when the enrollment moved, and a
// certificate issuance when one was minted.
func (h *Handler) recordResultActivity(ctx context.Context, res enrollmentstore.Result, course models.Course) {
	if res.Started || res.Completed {
		h.recordActivity(ctx, activity.Event{
			UserID:       res.Enrollment.UserID,
			EventType:    activity.EventStatusChanged,
			CourseID:     &course.ID,
			CourseTitle:  course.Title,
			EnrollmentID: &res.Enrollment.ID,
			Details:      map[string]any{"status": res.Enrollment.Status},
		})
	}
	if res.Certificate != nil && res.Completed {
		certID := res.Certificate.ID
		h.recordActivity(ctx, activity.Event{
			UserID:        res.Enrollment.UserID,
			EventType:     activity.EventCertificateIssued,
			CourseID:      &course.ID,
			CourseTitle:   course.Title,
			EnrollmentID:  &res.Enrollment.ID,
			CertificateID: &certID,
		})
	}
}

func respondResult(w http.ResponseWriter, status int, res enrollmentstore.Result, extra map[string]any) {
	body := map[string]any{
		"enrollment": viewOf(res.Enrollment, time.Now().UTC()),
	}
	if res.Certificate != nil {
		body["certificate"] = res.Certificate
	}
	for k, v := range extra {
		body[k] = v
	}
	httpjson.Respond(w, status, body)
}

// ServeRecordLessonView handles
// POST /api/v1/enrollments/{id}/lessons/{lessonID}/view.
// Progress belongs to the learner; nobody records it for someone else.
func (h *Handler) ServeRecordLessonView(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, course, ok := h.engineTarget(ctx, w, r)
	if !ok {
		return
	}
	if err := enrollmentpolicy.CanRecordProgress(a, &e); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	lessonID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "lessonID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid lesson id")
		return
	}
	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, lessonstore.ErrNotFound) {
			httpjson.NotFound(w, "lesson not found")
		} else {
			httpjson.Internal(w, h.Log, "load lesson", err)
		}
		return
	}

	requiredIDs, err := h.Lessons.RequiredIDs(ctx, course.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "load required lessons", err)
		return
	}

	res, err := h.Enrollments.RecordLessonView(ctx, e, lesson, course, requiredIDs)
	if err != nil {
		if errors.Is(err, enrollmentstore.ErrCourseMismatch) {
			httpjson.NotFound(w, "lesson does not belong to this enrollment's course")
		} else {
			httpjson.Internal(w, h.Log, "record lesson view", err)
		}
		return
	}

	h.recordActivity(ctx, activity.Event{
		UserID:       e.UserID,
		EventType:    activity.EventLessonViewed,
		CourseID:     &course.ID,
		CourseTitle:  course.Title,
		EnrollmentID: &e.ID,
		LessonID:     &lesson.ID,
	})
	h.recordResultActivity(ctx, res, course)

	respondResult(w, http.StatusOK, res, nil)
}

type attemptRequest struct {
	Score int `json:"score"`
}

// ServeRecordAttempt handles POST /api/v1/enrollments/{id}/attempts.
func (h *Handler) ServeRecordAttempt(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	var req attemptRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, course, ok := h.engineTarget(ctx, w, r)
	if !ok {
		return
	}
	if err := enrollmentpolicy.CanRecordProgress(a, &e); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	res, attempt, err := h.Enrollments.RecordAssessmentAttempt(ctx, e, course, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, enrollmentstore.ErrInvalidScore):
			httpjson.FieldErrors(w, "score must be between 0 and 100", map[string]string{"score": "out_of_range"})
		case errors.Is(err, enrollmentstore.ErrAttemptsExhausted):
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict,
				"no assessment attempts remaining")
		case errors.Is(err, enrollmentstore.ErrInvalidTransition):
			httpjson.Error(w, http.StatusConflict, httpjson.CodeStateTransitionInvalid,
				"attempts are not valid for this enrollment's course or state")
		default:
			httpjson.Internal(w, h.Log, "record attempt", err)
		}
		return
	}

	h.recordActivity(ctx, activity.Event{
		UserID:       e.UserID,
		EventType:    activity.EventAttemptSubmitted,
		CourseID:     &course.ID,
		CourseTitle:  course.Title,
		EnrollmentID: &e.ID,
		Details:      map[string]any{"score": attempt.Score, "passed": attempt.Passed, "number": attempt.Number},
	})
	h.recordResultActivity(ctx, res, course)

	respondResult(w, http.StatusOK, res, map[string]any{"attempt": attempt})
}

// ServeApprove handles POST /api/v1/enrollments/{id}/approve.
// Manual-policy courses only; the learner never approves themselves.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, course, ok := h.engineTarget(ctx, w, r)
	if !ok {
		return
	}
	if err := enrollmentpolicy.CanApprove(a, &e); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	res, err := h.Enrollments.ApproveCompletion(ctx, e, course)
	if err != nil {
		if errors.Is(err, enrollmentstore.ErrInvalidTransition) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeStateTransitionInvalid,
				"approval is not valid for this enrollment's policy or state")
		} else {
			httpjson.Internal(w, h.Log, "approve completion", err)
		}
		return
	}

	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: audit.EventApproved,
		ActorID:   a.ID,
		TargetID:  &e.UserID,
		TeamID:    course.TeamID,
		Details: map[string]string{
			"enrollment_id": e.ID.Hex(),
			"course_title":  course.Title,
		},
	})
	h.recordResultActivity(ctx, res, course)

	respondResult(w, http.StatusOK, res, nil)
}

type overrideRequest struct {
	Action string     `json:"action"`
	Reason string     `json:"reason"`
	Until  *time.Time `json:"until"`
}

// ServeOverride handles POST /api/v1/enrollments/{id}/override.
// The manual escape hatch: award, revoke, or extend.
func (h *Handler) ServeOverride(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	var req overrideRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, course, ok := h.engineTarget(ctx, w, r)
	if !ok {
		return
	}

	owner, err := h.Users.GetByID(ctx, e.UserID)
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		httpjson.Internal(w, h.Log, "load enrollment owner", err)
		return
	}
	ownerSuperuser := err == nil && owner.HasRole(authz.RoleSuperuser)

	if err := enrollmentpolicy.CanOverride(a, &e, ownerSuperuser); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	res, err := h.Enrollments.Override(ctx, e, course, req.Action, req.Reason, req.Until)
	if err != nil {
		switch {
		case errors.Is(err, enrollmentstore.ErrBadAction):
			httpjson.FieldErrors(w, `action must be "award", "revoke", or "extend"`, map[string]string{"action": "invalid"})
		case errors.Is(err, enrollmentstore.ErrReasonRequired):
			httpjson.Error(w, http.StatusUnprocessableEntity, httpjson.CodeInvariantViolation,
				"an override requires a non-empty reason")
		case errors.Is(err, enrollmentstore.ErrInvalidTransition):
			httpjson.Error(w, http.StatusConflict, httpjson.CodeStateTransitionInvalid,
				"nothing to extend on this enrollment")
		default:
			httpjson.Internal(w, h.Log, "apply override", err)
		}
		return
	}

	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: audit.EventOverride,
		ActorID:   a.ID,
		TargetID:  &e.UserID,
		TeamID:    course.TeamID,
		Details: map[string]string{
			"enrollment_id": e.ID.Hex(),
			"course_title":  course.Title,
			"action":        req.Action,
			"reason":        req.Reason,
		},
	})

	switch req.Action {
	case enrollmentstore.OverrideRevoke:
		if res.Certificate != nil {
			certID := res.Certificate.ID
			h.recordActivity(ctx, activity.Event{
				UserID:        e.UserID,
				EventType:     activity.EventCertificateRevoked,
				CourseID:      &course.ID,
				CourseTitle:   course.Title,
				EnrollmentID:  &e.ID,
				CertificateID: &certID,
				Details:       map[string]any{"reason": req.Reason},
			})
		}
		h.recordActivity(ctx, activity.Event{
			UserID:       e.UserID,
			EventType:    activity.EventStatusChanged,
			CourseID:     &course.ID,
			CourseTitle:  course.Title,
			EnrollmentID: &e.ID,
			Details:      map[string]any{"status": res.Enrollment.Status, "reason": req.Reason},
		})
	default:
		h.recordResultActivity(ctx, res, course)
	}

	respondResult(w, http.StatusOK, res, nil)
}
