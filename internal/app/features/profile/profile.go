// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/authutil"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/gates"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
)

type profileResponse struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	AuthMethod  string    `json:"auth_method"`
	Roles       []string  `json:"roles"`
	PrimaryRole string    `json:"primary_role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ServeGetProfile handles GET /api/v1/profile.
func (h *Handler) ServeGetProfile(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		httpjson.NotFound(w, "user not found")
		return
	}

	roles := authz.NormalizeRoles(user.Roles)
	httpjson.Respond(w, http.StatusOK, profileResponse{
		ID:          user.ID.Hex(),
		FullName:    user.FullName,
		Email:       user.Email,
		Phone:       user.Phone,
		AuthMethod:  user.AuthMethod,
		Roles:       roles,
		PrimaryRole: authz.PrimaryRole(roles),
		CreatedAt:   user.CreatedAt,
	})
}

// updateRequest uses pointers so an absent field leaves the stored
// value alone. Email and roles are not self-editable; admins change
// those through the users feature.
type updateRequest struct {
	FullName        *string `json:"full_name"`
	Phone           *string `json:"phone"`
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

// ServeUpdateProfile handles PATCH /api/v1/profile.
// Name and phone edits and password changes share this endpoint; a
// password change requires the current password and is audit logged.
func (h *Handler) ServeUpdateProfile(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	var req updateRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, res.UserID)
	if err != nil {
		httpjson.NotFound(w, "user not found")
		return
	}

	if req.FullName != nil || req.Phone != nil {
		upd := userstore.ProfileUpdate{
			FullName: user.FullName,
			Email:    user.Email,
			Phone:    user.Phone,
		}
		if req.FullName != nil {
			name := strings.TrimSpace(*req.FullName)
			if name == "" {
				httpjson.FieldErrors(w, "name cannot be empty", map[string]string{
					"full_name": "required",
				})
				return
			}
			upd.FullName = name
		}
		if req.Phone != nil {
			upd.Phone = strings.TrimSpace(*req.Phone)
		}
		if err := h.Users.UpdateProfile(ctx, user.ID, upd); err != nil {
			httpjson.Internal(w, h.Log, "update profile", err)
			return
		}
	}

	if req.NewPassword != nil {
		if user.AuthMethod != "password" {
			httpjson.Error(w, http.StatusUnprocessableEntity, httpjson.CodeValidationFailed,
				"password change is only available for password accounts")
			return
		}
		current := ""
		if req.CurrentPassword != nil {
			current = *req.CurrentPassword
		}
		if !authutil.VerifyPassword(current, user.PasswordHash) {
			httpjson.Error(w, http.StatusForbidden, httpjson.CodePermissionDenied,
				"current password is incorrect")
			return
		}
		if err := authutil.ValidatePassword(*req.NewPassword); err != nil {
			httpjson.FieldErrors(w, err.Error(), map[string]string{
				"new_password": "invalid",
			})
			return
		}
		if authutil.VerifyPassword(*req.NewPassword, user.PasswordHash) {
			httpjson.FieldErrors(w, "new password must differ from the current password", map[string]string{
				"new_password": "unchanged",
			})
			return
		}
		hash, err := authutil.HashPassword(*req.NewPassword)
		if err != nil {
			httpjson.Internal(w, h.Log, "hash password", err)
			return
		}
		if err := h.Users.SetPasswordHash(ctx, user.ID, hash); err != nil {
			httpjson.Internal(w, h.Log, "set password hash", err)
			return
		}
		h.AuditLog.PasswordChanged(r.Context(), r, user.ID)
	}

	h.ServeGetProfile(w, r)
}
