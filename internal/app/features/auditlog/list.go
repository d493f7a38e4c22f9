// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/store/audit"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
)

// eventView is the wire shape of one audit row.
type eventView struct {
	ID        primitive.ObjectID  `json:"id"`
	Timestamp time.Time           `json:"timestamp"`
	Category  string              `json:"category"`
	EventType string              `json:"event_type"`
	UserID    *primitive.ObjectID `json:"user_id,omitempty"`
	ActorID   *primitive.ObjectID `json:"actor_id,omitempty"`
	TeamID    *primitive.ObjectID `json:"team_id,omitempty"`
	IP        string              `json:"ip,omitempty"`
	Success   bool                `json:"success"`
	Failure   string              `json:"failure_reason,omitempty"`
	Details   map[string]string   `json:"details,omitempty"`
}

func viewOf(ev audit.Event) eventView {
	return eventView{
		ID:        ev.ID,
		Timestamp: ev.Timestamp,
		Category:  ev.Category,
		EventType: ev.EventType,
		UserID:    ev.UserID,
		ActorID:   ev.ActorID,
		TeamID:    ev.TeamID,
		IP:        ev.IP,
		Success:   ev.Success,
		Failure:   ev.FailureReason,
		Details:   ev.Details,
	}
}

// ServeListAudit handles GET /api/v1/audit. Admin only; the audit
// trail exposes login failures and actor IPs, so it never opens to
// team leads.
func (h *Handler) ServeListAudit(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}
	if !a.IsAdmin() && !a.IsSuperuser() {
		httpjson.Forbidden(w, "admin role required")
		return
	}

	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "query audit events", err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "count audit events", err)
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

func parseFilter(w http.ResponseWriter, r *http.Request) (audit.QueryFilter, bool) {
	var f audit.QueryFilter
	q := r.URL.Query()

	f.Category = q.Get("category")
	f.EventType = q.Get("event_type")

	for name, dst := range map[string]**primitive.ObjectID{
		"user_id":  &f.UserID,
		"actor_id": &f.ActorID,
		"team_id":  &f.TeamID,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpjson.BadRequest(w, "invalid "+name)
			return f, false
		}
		*dst = &id
	}

	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpjson.BadRequest(w, "since must be RFC 3339")
			return f, false
		}
		f.StartTime = &t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpjson.BadRequest(w, "until must be RFC 3339")
			return f, false
		}
		f.EndTime = &t
	}

	f.Limit = 50
	if v, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil && v > 0 && v <= 500 {
		f.Limit = v
	}
	if v, err := strconv.ParseInt(q.Get("offset"), 10, 64); err == nil && v > 0 {
		f.Offset = v
	}
	return f, true
}
