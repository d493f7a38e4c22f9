// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	announcementstore "github.com/dalemusser/trainhub/internal/app/store/announcements"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// ServeListAnnouncements handles GET /api/v1/announcements. Everyone
// sees campus-wide posts; team posts are limited to the viewer's teams,
// except admins who see everything live.
func (h *Handler) ServeListAnnouncements(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	limit := int64(50)
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	all := a.IsAdmin() || a.IsSuperuser()
	var teamIDs []primitive.ObjectID
	if !all {
		var err error
		teamIDs, err = h.Memberships.TeamsOf(ctx, a.ID)
		if err != nil {
			httpjson.Internal(w, h.Log, "load teams", err)
			return
		}
	}

	list, err := h.Announcements.VisibleTo(ctx, all, teamIDs, time.Now().UTC(), limit)
	if err != nil {
		httpjson.Internal(w, h.Log, "list announcements", err)
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"announcements": list})
}

type createRequest struct {
	Title     string              `json:"title"`
	Body      string              `json:"body"`
	TeamID    *primitive.ObjectID `json:"team_id"`
	Priority  string              `json:"priority"`
	ExpiresAt *time.Time          `json:"expires_at"`
}

// ServeCreateAnnouncement handles POST /api/v1/announcements. Admins
// may post campus-wide or to any team. Team leads may post only to
// teams they lead.
func (h *Handler) ServeCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}

	var req createRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		httpjson.FieldErrors(w, "title and body are required", map[string]string{
			"title": "required", "body": "required",
		})
		return
	}

	if !a.IsAdmin() && !a.IsSuperuser() {
		if req.TeamID == nil {
			httpjson.Forbidden(w, "only admins may post campus-wide announcements")
			return
		}
		if !a.LeadsTeam(*req.TeamID) {
			httpjson.Forbidden(w, "you do not lead this team")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Announcements.Create(ctx, models.Announcement{
		Title:         req.Title,
		Body:          req.Body,
		TeamID:        req.TeamID,
		Priority:      req.Priority,
		ExpiresAt:     req.ExpiresAt,
		CreatedByID:   a.ID,
		CreatedByName: a.Name,
	})
	if err != nil {
		if errors.Is(err, announcementstore.ErrBadPriority) {
			httpjson.FieldErrors(w, "invalid priority", map[string]string{"priority": err.Error()})
			return
		}
		httpjson.Internal(w, h.Log, "create announcement", err)
		return
	}

	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: audit.EventAnnouncePosted,
		ActorID:   a.ID,
		TeamID:    created.TeamID,
		Details:   map[string]string{"announcement_id": created.ID.Hex(), "title": created.Title},
	})

	httpjson.Respond(w, http.StatusCreated, map[string]any{"announcement": created})
}

// ServeDeleteAnnouncement handles DELETE /api/v1/announcements/{id}.
// Allowed for the author and for admins.
func (h *Handler) ServeDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	a, ok := gates.ResolveActor(w, r, h.Memberships, h.Log)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "invalid announcement id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ann, err := h.Announcements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, announcementstore.ErrNotFound) {
			httpjson.NotFound(w, "announcement not found")
		} else {
			httpjson.Internal(w, h.Log, "load announcement", err)
		}
		return
	}

	if ann.CreatedByID != a.ID && !a.IsAdmin() && !a.IsSuperuser() {
		httpjson.Forbidden(w, "only the author or an admin may delete an announcement")
		return
	}

	if err := h.Announcements.Delete(ctx, id); err != nil {
		if errors.Is(err, announcementstore.ErrNotFound) {
			httpjson.NotFound(w, "announcement not found")
		} else {
			httpjson.Internal(w, h.Log, "delete announcement", err)
		}
		return
	}

	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: audit.EventAnnounceDeleted,
		ActorID:   a.ID,
		TeamID:    ann.TeamID,
		Details:   map[string]string{"announcement_id": id.Hex(), "title": ann.Title},
	})

	w.WriteHeader(http.StatusNoContent)
}
