// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/trainhub/internal/app/policy/reportpolicy"
	"github.com/dalemusser/trainhub/internal/app/store/queries/reportqueries"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// ServeDashboard handles GET /api/v1/dashboard. The response shape
// follows the actor's primary role.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	role := authz.PrimaryRole(a.Roles)
	switch role {
	case authz.RoleSuperuser, authz.RoleAdmin:
		h.serveAdmin(ctx, w, role, a)
	case authz.RoleTeamLead:
		h.serveLead(ctx, w, a)
	default:
		h.serveDoorholder(ctx, w, a)
	}
}

func (h *Handler) serveAdmin(ctx context.Context, w http.ResponseWriter, role string, a authz.Actor) {
	usersByRole, err := h.Users.CountByRole(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "count users", err)
		return
	}
	teams, err := h.Teams.Count(ctx, bson.M{"active": true})
	if err != nil {
		httpjson.Internal(w, h.Log, "count teams", err)
		return
	}
	courses, err := h.Courses.Count(ctx, bson.M{"status": models.CourseStatusActive})
	if err != nil {
		httpjson.Internal(w, h.Log, "count courses", err)
		return
	}

	enrollments := map[string]int64{}
	for _, status := range []string{
		models.EnrollmentNotStarted, models.EnrollmentInProgress,
		models.EnrollmentCompleted, models.EnrollmentOverdue,
		models.EnrollmentRevoked,
	} {
		n, err := h.Enrollments.Count(ctx, bson.M{"archived": false, "status": status})
		if err != nil {
			httpjson.Internal(w, h.Log, "count enrollments", err)
			return
		}
		enrollments[status] = n
	}

	validCerts, err := h.Certificates.Count(ctx, bson.M{
		"archived": false,
		"status":   models.CertStatusValid,
	})
	if err != nil {
		httpjson.Internal(w, h.Log, "count certificates", err)
		return
	}

	analytics, err := reportqueries.CourseAnalytics(ctx, h.DB, reportpolicy.Scope{CanView: true, All: true}, nil)
	if err != nil {
		httpjson.Internal(w, h.Log, "course analytics", err)
		return
	}
	if len(analytics) > 5 {
		analytics = analytics[:5]
	}
	if analytics == nil {
		analytics = []reportqueries.CourseAnalyticsRow{}
	}

	announcements, err := h.recentAnnouncements(ctx, true, primitive.NilObjectID)
	if err != nil {
		httpjson.Internal(w, h.Log, "load announcements", err)
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"role": role,
		"stats": map[string]any{
			"users_by_role":      usersByRole,
			"active_teams":       teams,
			"active_courses":     courses,
			"enrollments":        enrollments,
			"valid_certificates": validCerts,
		},
		"top_courses":   analytics,
		"announcements": announcements,
	})
}

func (h *Handler) serveLead(ctx context.Context, w http.ResponseWriter, a authz.Actor) {
	scope := reportpolicy.ForActor(a)
	teams, err := reportqueries.TeamCompletionRates(ctx, h.DB, scope)
	if err != nil {
		httpjson.Internal(w, h.Log, "team completion", err)
		return
	}
	if teams == nil {
		teams = []reportqueries.TeamCompletionRow{}
	}

	// A lead is a learner too; their own training rides along.
	myProgress, err := reportqueries.UserProgress(ctx, h.DB,
		reportpolicy.Scope{CanView: true, SelfOnly: true, UserID: a.ID}, a.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "own progress", err)
		return
	}
	if myProgress == nil {
		myProgress = []reportqueries.UserProgressRow{}
	}

	announcements, err := h.recentAnnouncements(ctx, false, a.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "load announcements", err)
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"role":          authz.RoleTeamLead,
		"teams":         teams,
		"my_courses":    myProgress,
		"announcements": announcements,
	})
}

func (h *Handler) serveDoorholder(ctx context.Context, w http.ResponseWriter, a authz.Actor) {
	progress, err := reportqueries.UserProgress(ctx, h.DB,
		reportpolicy.Scope{CanView: true, SelfOnly: true, UserID: a.ID}, a.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "own progress", err)
		return
	}
	if progress == nil {
		progress = []reportqueries.UserProgressRow{}
	}

	// Deadlines within the next two weeks, soonest first.
	now := time.Now().UTC()
	horizon := now.AddDate(0, 0, 14)
	type deadline struct {
		CourseTitle string    `json:"course_title"`
		Kind        string    `json:"kind"` // soft | hard
		DueAt       time.Time `json:"due_at"`
	}
	var upcoming []deadline
	for _, row := range progress {
		if row.Status == models.EnrollmentCompleted || row.Status == models.EnrollmentRevoked {
			continue
		}
		if row.SoftDeadline != nil && row.SoftDeadline.After(now) && row.SoftDeadline.Before(horizon) {
			upcoming = append(upcoming, deadline{row.CourseTitle, "soft", *row.SoftDeadline})
		}
		if row.HardDeadline != nil && row.HardDeadline.Before(horizon) {
			upcoming = append(upcoming, deadline{row.CourseTitle, "hard", *row.HardDeadline})
		}
	}
	if upcoming == nil {
		upcoming = []deadline{}
	}

	certs, err := h.Certificates.Find(ctx,
		bson.M{"user_id": a.ID, "archived": false},
		options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}}))
	if err != nil {
		httpjson.Internal(w, h.Log, "load certificates", err)
		return
	}
	if certs == nil {
		certs = []models.Certificate{}
	}

	announcements, err := h.recentAnnouncements(ctx, false, a.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "load announcements", err)
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"role":               authz.RoleDoorholder,
		"my_courses":         progress,
		"upcoming_deadlines": upcoming,
		"certificates":       certs,
		"announcements":      announcements,
	})
}

// recentAnnouncements loads the five newest announcements visible to
// the user. userID is ignored when all is true.
func (h *Handler) recentAnnouncements(ctx context.Context, all bool, userID primitive.ObjectID) ([]models.Announcement, error) {
	var teamIDs []primitive.ObjectID
	if !all {
		var err error
		teamIDs, err = h.Memberships.TeamsOf(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	list, err := h.Announcements.VisibleTo(ctx, all, teamIDs, time.Now().UTC(), 5)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Announcement{}
	}
	return list, nil
}
