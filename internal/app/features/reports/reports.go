// internal/app/features/reports/reports.go
package reports

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/policy/reportpolicy"
	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	"github.com/dalemusser/trainhub/internal/app/store/queries/reportqueries"
	teamstore "github.com/dalemusser/trainhub/internal/app/store/teams"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// resolveScope resolves the actor and their report scope in one step.
// Actors with no report access at all get a 403 here.
func (h *Handler) resolveScope(w http.ResponseWriter, r *http.Request) (authz.Actor, reportpolicy.Scope, bool) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return authz.Actor{}, reportpolicy.Scope{}, false
	}
	scope := reportpolicy.ForActor(a)
	if !scope.CanView {
		httpjson.Forbidden(w, "no report access")
		return authz.Actor{}, reportpolicy.Scope{}, false
	}
	return a, scope, true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		httpjson.BadRequest(w, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeUserReport handles GET /api/v1/reports/users/{id}: every live
// enrollment of one user with lesson counts and deadlines.
func (h *Handler) ServeUserReport(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}
	userID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if scope.SelfOnly && userID != scope.UserID {
		httpjson.Forbidden(w, "not allowed to view this user's progress")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.NotFound(w, "user not found")
		} else {
			httpjson.Internal(w, h.Log, "load user", err)
		}
		return
	}

	rows, err := reportqueries.UserProgress(ctx, h.DB, scope, userID)
	if err != nil {
		httpjson.Internal(w, h.Log, "user progress report", err)
		return
	}
	if rows == nil {
		rows = []reportqueries.UserProgressRow{}
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"user_id":     user.ID,
		"user_name":   user.FullName,
		"enrollments": rows,
	})
}

// ServeTeamReport handles GET /api/v1/reports/teams/{id}: completion
// outcomes for one team's courses.
func (h *Handler) ServeTeamReport(w http.ResponseWriter, r *http.Request) {
	a, scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}
	teamID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if !scope.All && !a.LeadsTeam(teamID) {
		httpjson.Forbidden(w, "not allowed to view this team's report")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, err := h.Teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, teamstore.ErrNotFound) {
			httpjson.NotFound(w, "team not found")
		} else {
			httpjson.Internal(w, h.Log, "load team", err)
		}
		return
	}

	rows, err := reportqueries.TeamCompletionRates(ctx, h.DB, scope)
	if err != nil {
		httpjson.Internal(w, h.Log, "team completion report", err)
		return
	}

	row := reportqueries.TeamCompletionRow{TeamID: team.ID, TeamName: team.Name}
	for _, candidate := range rows {
		if candidate.TeamID == teamID {
			row = candidate
			break
		}
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"team":            row,
		"completion_rate": row.Rate(),
	})
}

// ServeCourseReport handles GET /api/v1/reports/courses/{id}:
// popularity, effectiveness, and the score distribution for assessment
// courses.
func (h *Handler) ServeCourseReport(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}
	if scope.SelfOnly {
		httpjson.Forbidden(w, "course reports require a lead or admin role")
		return
	}
	courseID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, coursestore.ErrNotFound) {
			httpjson.NotFound(w, "course not found")
		} else {
			httpjson.Internal(w, h.Log, "load course", err)
		}
		return
	}

	analytics, err := reportqueries.CourseAnalytics(ctx, h.DB, scope, &courseID)
	if err != nil {
		httpjson.Internal(w, h.Log, "course analytics report", err)
		return
	}
	row := reportqueries.CourseAnalyticsRow{
		CourseID:    course.ID,
		CourseTitle: course.Title,
		PolicyKind:  course.Policy.Kind,
	}
	if len(analytics) > 0 {
		row = analytics[0]
	}

	body := map[string]any{
		"course":          row,
		"completion_rate": row.CompletionRate(),
	}
	if course.Policy.Kind == models.PolicyAssessment {
		scores, err := reportqueries.ScoreDistribution(ctx, h.DB, scope, &courseID)
		if err != nil {
			httpjson.Internal(w, h.Log, "score distribution report", err)
			return
		}
		if scores == nil {
			scores = []reportqueries.Bucket{}
		}
		body["score_distribution"] = scores
	}

	httpjson.Respond(w, http.StatusOK, body)
}

// ServeComplianceReport handles GET /api/v1/reports/compliance:
// everyone enrolled in a course and whether they hold a currently-valid
// certificate for it. course_id is required; the time-in-progress
// histogram rides along for context.
func (h *Handler) ServeComplianceReport(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.resolveScope(w, r)
	if !ok {
		return
	}
	if scope.SelfOnly {
		httpjson.Forbidden(w, "compliance reports require a lead or admin role")
		return
	}

	courseID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("course_id"))
	if err != nil {
		httpjson.FieldErrors(w, "course_id is required", map[string]string{"course_id": "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	course, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, coursestore.ErrNotFound) {
			httpjson.NotFound(w, "course not found")
		} else {
			httpjson.Internal(w, h.Log, "load course", err)
		}
		return
	}

	rows, err := reportqueries.Compliance(ctx, h.DB, scope, courseID)
	if err != nil {
		httpjson.Internal(w, h.Log, "compliance report", err)
		return
	}
	if rows == nil {
		rows = []reportqueries.ComplianceRow{}
	}

	nonCompliant := 0
	for _, row := range rows {
		if !row.Compliant {
			nonCompliant++
		}
	}

	timeBuckets, err := reportqueries.TimeInProgress(ctx, h.DB, scope)
	if err != nil {
		httpjson.Internal(w, h.Log, "time-in-progress report", err)
		return
	}
	if timeBuckets == nil {
		timeBuckets = []reportqueries.Bucket{}
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"course_id":        course.ID,
		"course_title":     course.Title,
		"rows":             rows,
		"non_compliant":    nonCompliant,
		"time_in_progress": timeBuckets,
	})
}
