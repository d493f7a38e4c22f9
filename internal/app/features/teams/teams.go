// internal/app/features/teams/teams.go
package teams

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/trainhub/internal/app/policy/teampolicy"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	teamstore "github.com/dalemusser/trainhub/internal/app/store/teams"
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

func (h *Handler) auditAdmin(r *http.Request, eventType string, a authz.Actor, teamID primitive.ObjectID, userID *primitive.ObjectID, details map[string]string) {
	tid := teamID
	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: eventType,
		ActorID:   a.ID,
		TargetID:  userID,
		TeamID:    &tid,
		Details:   details,
	})
}

func (h *Handler) teamFromURL(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.BadRequest(w, "invalid team id")
		return models.Team{}, false
	}
	team, err := h.Teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, teamstore.ErrNotFound) {
			httpjson.NotFound(w, "team not found")
		} else {
			httpjson.Internal(w, h.Log, "load team", err)
		}
		return models.Team{}, false
	}
	return team, true
}

// ServeListTeams handles GET /api/v1/teams.
// Any signed-in user sees the active team list; admins may pass
// ?include_archived=true.
func (h *Handler) ServeListTeams(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	filter := bson.M{"active": true}
	if r.URL.Query().Get("include_archived") == "true" &&
		(res.Has(authz.RoleAdmin) || res.Has(authz.RoleSuperuser)) {
		delete(filter, "active")
	}

	list, err := h.Teams.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		httpjson.Internal(w, h.Log, "list teams", err)
		return
	}
	if list == nil {
		list = []models.Team{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"teams": list})
}

type teamRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	MinistryArea string `json:"ministry_area"`
	Active       *bool  `json:"active"`
}

// ServeCreateTeam handles POST /api/v1/teams.
func (h *Handler) ServeCreateTeam(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if !teampolicy.CanCreateTeam(a) {
		httpjson.Forbidden(w, "not allowed to create teams")
		return
	}

	var req teamRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpjson.FieldErrors(w, "name is required", map[string]string{"name": "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	actorID := a.ID
	team, err := h.Teams.Create(ctx, models.Team{
		Name:          strings.TrimSpace(req.Name),
		Description:   strings.TrimSpace(req.Description),
		MinistryArea:  strings.TrimSpace(req.MinistryArea),
		CreatedByID:   &actorID,
		CreatedByName: a.Name,
	})
	if err != nil {
		if errors.Is(err, teamstore.ErrDuplicateTeam) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "a team with this name already exists")
		} else {
			httpjson.Internal(w, h.Log, "create team", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventTeamCreated, a, team.ID, nil, map[string]string{"name": team.Name})
	httpjson.Respond(w, http.StatusCreated, team)
}

// ServeGetTeam handles GET /api/v1/teams/{id}.
// The roster is included only for actors the policy allows to see it.
func (h *Handler) ServeGetTeam(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, ok := h.teamFromURL(ctx, w, r)
	if !ok {
		return
	}

	memberOf, err := h.Memberships.IsMemberOf(ctx, a.ID, team.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "check membership", err)
		return
	}
	if !teampolicy.CanViewTeam(a, team.ID, memberOf) {
		httpjson.Respond(w, http.StatusOK, map[string]any{"team": team})
		return
	}

	roster, err := h.Memberships.ListForTeam(ctx, team.ID, "")
	if err != nil {
		httpjson.Internal(w, h.Log, "load roster", err)
		return
	}
	if roster == nil {
		roster = []models.TeamMembership{}
	}
	httpjson.Respond(w, http.StatusOK, map[string]any{"team": team, "roster": roster})
}

// ServeUpdateTeam handles PATCH /api/v1/teams/{id}.
// Record edits and archiving are admin operations.
func (h *Handler) ServeUpdateTeam(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	if err := teampolicy.CanManageTeam(a); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, ok := h.teamFromURL(ctx, w, r)
	if !ok {
		return
	}

	var req teamRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	if req.Name != "" || req.Description != "" || req.MinistryArea != "" {
		err := h.Teams.Update(ctx, team.ID, models.Team{
			Name:         strings.TrimSpace(req.Name),
			Description:  strings.TrimSpace(req.Description),
			MinistryArea: strings.TrimSpace(req.MinistryArea),
		})
		if err != nil {
			if errors.Is(err, teamstore.ErrDuplicateTeam) {
				httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "a team with this name already exists")
			} else {
				httpjson.Internal(w, h.Log, "update team", err)
			}
			return
		}
		h.auditAdmin(r, audit.EventTeamUpdated, a, team.ID, nil, nil)
	}

	if req.Active != nil && *req.Active != team.Active {
		if err := h.Teams.SetActive(ctx, team.ID, *req.Active); err != nil {
			httpjson.Internal(w, h.Log, "set team active", err)
			return
		}
		if !*req.Active {
			h.auditAdmin(r, audit.EventTeamArchived, a, team.ID, nil, nil)
		} else {
			h.auditAdmin(r, audit.EventTeamUpdated, a, team.ID, nil, map[string]string{"restored": "true"})
		}
	}

	updated, err := h.Teams.GetByID(ctx, team.ID)
	if err != nil {
		httpjson.Internal(w, h.Log, "reload team", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, updated)
}
