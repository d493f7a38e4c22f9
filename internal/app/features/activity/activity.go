// internal/app/features/activity/activity.go
package activity

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	activitystore "github.com/dalemusser/trainhub/internal/app/store/activity"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
)

// eventView is the wire shape of one feed row.
type eventView struct {
	ID        primitive.ObjectID `json:"id"`
	UserID    primitive.ObjectID `json:"user_id"`
	EventType string             `json:"event_type"`
	CreatedAt time.Time          `json:"created_at"`

	CourseID      *primitive.ObjectID `json:"course_id,omitempty"`
	CourseTitle   string              `json:"course_title,omitempty"`
	EnrollmentID  *primitive.ObjectID `json:"enrollment_id,omitempty"`
	LessonID      *primitive.ObjectID `json:"lesson_id,omitempty"`
	CertificateID *primitive.ObjectID `json:"certificate_id,omitempty"`

	Details map[string]any `json:"details,omitempty"`
}

func viewOf(ev activitystore.Event) eventView {
	return eventView{
		ID:            ev.ID,
		UserID:        ev.UserID,
		EventType:     ev.EventType,
		CreatedAt:     ev.CreatedAt,
		CourseID:      ev.CourseID,
		CourseTitle:   ev.CourseTitle,
		EnrollmentID:  ev.EnrollmentID,
		LessonID:      ev.LessonID,
		CertificateID: ev.CertificateID,
		Details:       ev.Details,
	}
}

// ServeListActivity handles GET /api/v1/activity. Admins see the whole
// feed, team leads see their members plus themselves, and everyone else
// sees only their own events.
func (h *Handler) ServeListActivity(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	filter, ok := h.buildFilter(ctx, w, r, a)
	if !ok {
		return
	}

	limit := int64(50)
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		limit = v
	}

	events, err := h.Activity.Find(ctx, filter, limit)
	if err != nil {
		httpjson.Internal(w, h.Log, "list activity", err)
		return
	}
	total, err := h.Activity.Count(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "count activity", err)
		return
	}

	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		views = append(views, viewOf(ev))
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{
		"events": views,
		"total":  total,
	})
}

// buildFilter layers the query-string filters on top of the actor's
// visibility scope. A requested user_id outside the scope yields an
// empty feed rather than an error.
func (h *Handler) buildFilter(ctx context.Context, w http.ResponseWriter, r *http.Request, a authz.Actor) (activitystore.Filter, bool) {
	var f activitystore.Filter

	switch {
	case a.IsAdmin() || a.IsSuperuser():
		// no user constraint
	case len(a.TeamsLed) > 0:
		members, err := h.Memberships.UsersInTeams(ctx, a.TeamsLed)
		if err != nil {
			httpjson.Internal(w, h.Log, "load team members", err)
			return f, false
		}
		scope := append([]primitive.ObjectID{a.ID}, members...)
		f.UserIDs = scope
	default:
		f.UserIDs = []primitive.ObjectID{a.ID}
	}

	q := r.URL.Query()
	if raw := q.Get("user_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpjson.BadRequest(w, "invalid user_id")
			return f, false
		}
		if f.UserIDs == nil {
			f.UserIDs = []primitive.ObjectID{id}
		} else {
			// Intersect with the visibility scope.
			narrowed := []primitive.ObjectID{}
			for _, allowed := range f.UserIDs {
				if allowed == id {
					narrowed = append(narrowed, id)
				}
			}
			f.UserIDs = narrowed
		}
	}
	if raw := q.Get("course_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpjson.BadRequest(w, "invalid course_id")
			return f, false
		}
		f.CourseID = &id
	}
	f.EventType = q.Get("event_type")
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpjson.BadRequest(w, "since must be RFC 3339")
			return f, false
		}
		f.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpjson.BadRequest(w, "until must be RFC 3339")
			return f, false
		}
		f.Until = t
	}
	return f, true
}
