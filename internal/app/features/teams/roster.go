// internal/app/features/teams/roster.go
package teams

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/policy/teampolicy"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// rosterTarget parses {id} and {userID} and verifies both exist.
func (h *Handler) rosterTarget(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, *models.User, bool) {
	team, ok := h.teamFromURL(ctx, w, r)
	if !ok {
		return models.Team{}, nil, false
	}
	uid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		httpjson.BadRequest(w, "invalid user id")
		return models.Team{}, nil, false
	}
	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.NotFound(w, "user not found")
		} else {
			httpjson.Internal(w, h.Log, "load user", err)
		}
		return models.Team{}, nil, false
	}
	return team, user, true
}

// ServeAddLead handles POST /api/v1/teams/{id}/leads/{userID}.
// The user also gains the team_lead role so route middleware admits
// them; the role is not auto-revoked on lead removal.
func (h *Handler) ServeAddLead(w http.ResponseWriter, r *http.Request) {
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

	team, user, ok := h.rosterTarget(ctx, w, r)
	if !ok {
		return
	}

	actorID := a.ID
	if err := h.Memberships.AddLead(ctx, team.ID, user.ID, &actorID); err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "user already leads this team")
		} else {
			httpjson.Internal(w, h.Log, "add lead", err)
		}
		return
	}
	if err := h.Users.AddRole(ctx, user.ID, authz.RoleTeamLead); err != nil {
		h.Log.Warn("grant team_lead role", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}

	h.auditAdmin(r, audit.EventLeadAssigned, a, team.ID, &user.ID, nil)
	httpjson.Respond(w, http.StatusNoContent, nil)
}

// ServeRemoveLead handles DELETE /api/v1/teams/{id}/leads/{userID}.
// A team may end with zero leads.
func (h *Handler) ServeRemoveLead(w http.ResponseWriter, r *http.Request) {
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

	team, user, ok := h.rosterTarget(ctx, w, r)
	if !ok {
		return
	}

	if err := h.Memberships.RemoveLead(ctx, team.ID, user.ID); err != nil {
		httpjson.Internal(w, h.Log, "remove lead", err)
		return
	}

	h.auditAdmin(r, audit.EventLeadRemoved, a, team.ID, &user.ID, nil)
	httpjson.Respond(w, http.StatusNoContent, nil)
}

// ServeAddMember handles POST /api/v1/teams/{id}/members/{userID}.
func (h *Handler) ServeAddMember(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, user, ok := h.rosterTarget(ctx, w, r)
	if !ok {
		return
	}
	if err := teampolicy.CanManageMembers(a, team.ID); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	actorID := a.ID
	if err := h.Memberships.AddMember(ctx, team.ID, user.ID, &actorID); err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "user is already a member of this team")
		} else {
			httpjson.Internal(w, h.Log, "add member", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventMemberAdded, a, team.ID, &user.ID, nil)
	httpjson.Respond(w, http.StatusNoContent, nil)
}

// ServeRemoveMember handles DELETE /api/v1/teams/{id}/members/{userID}.
func (h *Handler) ServeRemoveMember(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, user, ok := h.rosterTarget(ctx, w, r)
	if !ok {
		return
	}
	if err := teampolicy.CanManageMembers(a, team.ID); err != nil {
		httpjson.AuthzError(w, err)
		return
	}

	if err := h.Memberships.RemoveMember(ctx, team.ID, user.ID); err != nil {
		httpjson.Internal(w, h.Log, "remove member", err)
		return
	}

	h.auditAdmin(r, audit.EventMemberRemoved, a, team.ID, &user.ID, nil)
	httpjson.Respond(w, http.StatusNoContent, nil)
}
