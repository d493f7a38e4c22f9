// internal/app/features/auth/invite.go
package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/invites"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/authutil"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/normalize"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

type acceptInviteRequest struct {
	Token    string `json:"token"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type acceptInviteResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ServeAcceptInvite handles POST /api/v1/auth/invite/accept.
// Redeems an invite token: creates the account with the invite's
// roles, sets the chosen password, and joins the invite's team when
// one is attached. A token redeems exactly once; the guarded
// MarkAccepted makes concurrent redemptions lose cleanly.
func (h *Handler) ServeAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}
	if req.Token == "" {
		httpjson.BadRequest(w, "token is required")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		httpjson.FieldErrors(w, "password does not meet requirements", map[string]string{
			"password": err.Error(),
		})
		return
	}

	inv, err := h.Invites.GetByToken(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, invites.ErrNotFound):
			httpjson.NotFound(w, "invite not found")
		case errors.Is(err, invites.ErrExpired):
			httpjson.Error(w, http.StatusGone, httpjson.CodeConflict, "invite has expired")
		case errors.Is(err, invites.ErrAlreadyAccepted):
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "invite was already used")
		default:
			httpjson.Internal(w, h.Log, "load invite", err)
		}
		return
	}

	// Claim the token before creating anything so a concurrent accept
	// cannot double-create.
	if err := h.Invites.MarkAccepted(r.Context(), inv.ID); err != nil {
		if errors.Is(err, invites.ErrAlreadyAccepted) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict, "invite was already used")
			return
		}
		httpjson.Internal(w, h.Log, "mark invite accepted", err)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		httpjson.Internal(w, h.Log, "hash password", err)
		return
	}

	fullName := normalize.Name(req.FullName)
	if fullName == "" {
		fullName = inv.FullName
	}

	user, err := h.Users.Create(r.Context(), models.User{
		FullName:     fullName,
		Email:        inv.Email,
		AuthMethod:   models.DefaultAuthMethod,
		PasswordHash: hash,
		Roles:        inv.Roles,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusConflict, httpjson.CodeConflict,
				"an account with this email already exists")
			return
		}
		httpjson.Internal(w, h.Log, "create user from invite", err)
		return
	}

	if inv.TeamID != nil {
		if err := h.Memberships.AddMember(r.Context(), *inv.TeamID, user.ID, &inv.CreatedByID); err != nil &&
			!errors.Is(err, membershipstore.ErrDuplicateMembership) {
			h.Log.Warn("add invited user to team",
				zap.Error(err),
				zap.String("team_id", inv.TeamID.Hex()),
				zap.String("user_id", user.ID.Hex()))
		}
	}

	h.AuditLog.InviteAccepted(r.Context(), r, user.ID, inv.ID, user.Email)

	httpjson.Respond(w, http.StatusCreated, acceptInviteResponse{
		ID:    user.ID.Hex(),
		Email: user.Email,
		Name:  user.FullName,
	})
}
