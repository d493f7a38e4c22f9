// internal/app/features/users/admin.go
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/policy/userpolicy"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	"github.com/dalemusser/trainhub/internal/app/store/invites"
	"github.com/dalemusser/trainhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/authutil"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/mailer"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
	"github.com/dalemusser/trainhub/internal/app/system/txn"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

func (h *Handler) auditAdmin(r *http.Request, eventType string, a authz.Actor, targetID *primitive.ObjectID, details map[string]string) {
	h.AuditLog.Admin(r.Context(), r, auditlog.AdminAction{
		EventType: eventType,
		ActorID:   a.ID,
		TargetID:  targetID,
		Details:   details,
	})
}

// manageTarget loads {id} and runs the manage policy check, writing
// the error response on failure.
func (h *Handler) manageTarget(ctx context.Context, w http.ResponseWriter, r *http.Request, a authz.Actor, selfGuarded bool) (*models.User, bool) {
	target, ok := h.targetFromURL(ctx, w, r)
	if !ok {
		return nil, false
	}
	if err := userpolicy.CanManageUser(a, target.ID, target.HasRole(authz.RoleSuperuser), selfGuarded); err != nil {
		httpjson.AuthzError(w, err)
		return nil, false
	}
	return target, true
}

// ServeAddRole handles POST /api/v1/users/{id}/roles/{role}.
func (h *Handler) ServeAddRole(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, ok := h.manageTarget(ctx, w, r, a, true)
	if !ok {
		return
	}

	role := chi.URLParam(r, "role")
	if !authz.IsValidRole(role) {
		httpjson.BadRequest(w, "unknown role")
		return
	}
	if role == authz.RoleSuperuser && !a.IsSuperuser() {
		httpjson.Forbidden(w, "only a superuser may grant the superuser role")
		return
	}

	if err := h.Users.AddRole(ctx, target.ID, role); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.NotFound(w, "user not found")
		} else {
			httpjson.Internal(w, h.Log, "add role", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventRoleGranted, a, &target.ID, map[string]string{"role": role})
	h.respondWithUser(ctx, w, target.ID)
}

// ServeRemoveRole handles DELETE /api/v1/users/{id}/roles/{role}.
// Removing the last role is rejected; the role set is never empty.
func (h *Handler) ServeRemoveRole(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, ok := h.manageTarget(ctx, w, r, a, true)
	if !ok {
		return
	}

	role := chi.URLParam(r, "role")
	if !authz.IsValidRole(role) {
		httpjson.BadRequest(w, "unknown role")
		return
	}
	if role == authz.RoleSuperuser && !a.IsSuperuser() {
		httpjson.Forbidden(w, "only a superuser may revoke the superuser role")
		return
	}

	if err := h.Users.RemoveRole(ctx, target.ID, role); err != nil {
		switch {
		case errors.Is(err, userstore.ErrLastRole):
			httpjson.Error(w, http.StatusUnprocessableEntity, httpjson.CodeInvariantViolation,
				"a user must hold at least one role")
		case errors.Is(err, userstore.ErrNotFound):
			httpjson.NotFound(w, "user not found")
		default:
			httpjson.Internal(w, h.Log, "remove role", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventRoleRevoked, a, &target.ID, map[string]string{"role": role})
	h.respondWithUser(ctx, w, target.ID)
}

// ServeDeactivate handles POST /api/v1/users/{id}/deactivate.
// Flips the flag, closes the target's live sessions, and audits. The
// training record is untouched.
func (h *Handler) ServeDeactivate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, ok := h.manageTarget(ctx, w, r, a, true)
	if !ok {
		return
	}

	if err := h.Users.Deactivate(ctx, target.ID); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.NotFound(w, "user not found")
		} else {
			httpjson.Internal(w, h.Log, "deactivate user", err)
		}
		return
	}
	if _, err := h.Sessions.CloseAllForUser(ctx, target.ID, sessions.EndReasonRevoked); err != nil {
		h.Log.Warn("close sessions for deactivated user",
			zap.String("user_id", target.ID.Hex()), zap.Error(err))
	}

	h.auditAdmin(r, audit.EventUserDisabled, a, &target.ID, nil)
	h.respondWithUser(ctx, w, target.ID)
}

// ServeReactivate handles POST /api/v1/users/{id}/reactivate.
func (h *Handler) ServeReactivate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, ok := h.manageTarget(ctx, w, r, a, false)
	if !ok {
		return
	}

	if err := h.Users.Reactivate(ctx, target.ID); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			httpjson.NotFound(w, "user not found")
		} else {
			httpjson.Internal(w, h.Log, "reactivate user", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventUserEnabled, a, &target.ID, nil)
	h.respondWithUser(ctx, w, target.ID)
}

// ServeDeleteUser handles DELETE /api/v1/users/{id}.
// The cascade removes memberships, archives enrollments and
// certificates, and deletes the account as one transaction.
func (h *Handler) ServeDeleteUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	target, ok := h.manageTarget(ctx, w, r, a, true)
	if !ok {
		return
	}

	err := txn.WithTransaction(ctx, h.DB.Client(), func(ctx context.Context) error {
		if _, err := h.Memberships.DeleteByUser(ctx, target.ID); err != nil {
			return err
		}
		if _, err := h.Enrollments.ArchiveByUser(ctx, target.ID); err != nil {
			return err
		}
		if _, err := h.Certificates.ArchiveByUser(ctx, target.ID); err != nil {
			return err
		}
		if _, err := h.Users.Delete(ctx, target.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		httpjson.Internal(w, h.Log, "delete user", err)
		return
	}

	if _, err := h.Sessions.CloseAllForUser(ctx, target.ID, sessions.EndReasonRevoked); err != nil {
		h.Log.Warn("close sessions for deleted user",
			zap.String("user_id", target.ID.Hex()), zap.Error(err))
	}

	h.auditAdmin(r, audit.EventUserDeleted, a, &target.ID, map[string]string{
		"email": target.Email,
	})
	httpjson.Respond(w, http.StatusNoContent, nil)
}

type inviteRequest struct {
	Email    string              `json:"email"`
	FullName string              `json:"full_name"`
	Roles    []string            `json:"roles"`
	TeamID   *primitive.ObjectID `json:"team_id"`
}

type inviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServeCreateInvite handles POST /api/v1/users/invite.
// Admins invite anyone; a team lead may invite a doorholder onto a
// team they lead. The account itself is created when the recipient
// redeems the token.
func (h *Handler) ServeCreateInvite(w http.ResponseWriter, r *http.Request) {
	a, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	if err := authutil.ValidateEmail(req.Email); err != nil {
		httpjson.FieldErrors(w, "invalid email", map[string]string{"email": "invalid"})
		return
	}
	roles := authz.NormalizeRoles(req.Roles)
	if len(roles) == 0 {
		roles = []string{authz.RoleDoorholder}
	}

	if !userpolicy.CanCreateUser(a) {
		// Team-lead path: doorholders only, onto a led team.
		leadOK := req.TeamID != nil && a.LeadsTeam(*req.TeamID) &&
			len(roles) == 1 && roles[0] == authz.RoleDoorholder
		if !leadOK {
			httpjson.Forbidden(w, "not allowed to send this invite")
			return
		}
	}
	if authz.ContainsRole(roles, authz.RoleSuperuser) && !a.IsSuperuser() {
		httpjson.Forbidden(w, "only a superuser may grant the superuser role")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "an account with this email already exists")
		return
	}

	site, err := h.Settings.Get(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "load settings", err)
		return
	}

	inv, err := h.Invites.Create(ctx, models.Invite{
		Email:         req.Email,
		FullName:      strings.TrimSpace(req.FullName),
		Roles:         roles,
		TeamID:        req.TeamID,
		CreatedByID:   a.ID,
		CreatedByName: a.Name,
	}, time.Duration(site.InviteTTLHours)*time.Hour)
	if err != nil {
		if errors.Is(err, invites.ErrInvalidRole) {
			httpjson.FieldErrors(w, "invalid roles", map[string]string{"roles": "invalid"})
		} else {
			httpjson.Internal(w, h.Log, "create invite", err)
		}
		return
	}

	h.auditAdmin(r, audit.EventInviteCreated, a, nil, map[string]string{
		"email": inv.Email,
		"roles": strings.Join(inv.Roles, ","),
	})

	if h.Mail != nil {
		msg := mailer.BuildInviteEmail(mailer.InviteEmailData{
			SiteName:   site.SiteName,
			FullName:   inv.FullName,
			Roles:      inv.Roles,
			AcceptLink: h.BaseURL + "/accept-invite?token=" + inv.Token,
			ExpiresIn:  fmt.Sprintf("%d hours", site.InviteTTLHours),
		})
		msg.To = inv.Email
		if err := h.Mail.Send(msg); err != nil {
			h.Log.Warn("invite email send failed",
				zap.String("email", inv.Email), zap.Error(err))
		}
	}
	httpjson.Respond(w, http.StatusCreated, inviteResponse{
		ID:        inv.ID.Hex(),
		Email:     inv.Email,
		Token:     inv.Token,
		ExpiresAt: inv.ExpiresAt,
	})
}

func (h *Handler) respondWithUser(ctx context.Context, w http.ResponseWriter, id primitive.ObjectID) {
	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		httpjson.Internal(w, h.Log, "reload user", err)
		return
	}
	httpjson.Respond(w, http.StatusOK, updated)
}
