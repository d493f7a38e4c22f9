// internal/app/features/auth/login.go
package auth

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/activity"
	"github.com/dalemusser/trainhub/internal/app/store/sessions"
	"github.com/dalemusser/trainhub/internal/app/system/authutil"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/httpjson"
	"github.com/dalemusser/trainhub/internal/app/system/limits"
	"github.com/dalemusser/trainhub/internal/app/system/normalize"
	"github.com/dalemusser/trainhub/internal/app/system/ratelimit"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	PrimaryRole string   `json:"primary_role"`
}

// ServeLogin handles POST /api/v1/auth/login.
// Verifies the password, starts an activity session, and sets the
// session cookie. Failed attempts are rate limited per IP and per
// email and audit logged; the response never distinguishes "no such
// account" from "wrong password".
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req, limits.MaxJSONBody); err != nil {
		httpjson.BadRequest(w, "malformed JSON body")
		return
	}

	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		httpjson.FieldErrors(w, "email and password are required", map[string]string{
			"email":    "required",
			"password": "required",
		})
		return
	}

	if ok, limitType := h.Limiter.Check(r, email); !ok {
		h.AuditLog.LoginFailedRateLimit(r.Context(), r, email, limitType)
		httpjson.Error(w, http.StatusTooManyRequests, httpjson.CodeRateLimited,
			"too many login attempts; try again later")
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		// Burn a verify anyway so response timing does not reveal
		// whether the account exists.
		authutil.VerifyPassword(req.Password, "")
		h.AuditLog.LoginFailedUserNotFound(r.Context(), r, email)
		h.unauthorized(w)
		return
	}

	if !authutil.VerifyPassword(req.Password, user.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(r.Context(), r, user.ID, email)
		h.unauthorized(w)
		return
	}

	if !user.Active {
		h.AuditLog.LoginFailedUserDisabled(r.Context(), r, user.ID, email)
		httpjson.Forbidden(w, "account is deactivated")
		return
	}

	h.Limiter.ResetEmail(email)

	sess, err := h.Sessions.Start(r.Context(), user.ID, ratelimit.ClientIP(r), r.UserAgent())
	if err != nil {
		httpjson.Internal(w, h.Log, "start activity session", err)
		return
	}

	if err := h.SessionMgr.SignIn(r, w, user.ID.Hex(), sess.ID.Hex()); err != nil {
		httpjson.Internal(w, h.Log, "sign in session", err)
		return
	}

	h.AuditLog.LoginSuccess(r.Context(), r, user.ID, user.AuthMethod, email)
	if err := h.Logins.CreateFrom(r.Context(), r, user.ID, email, user.AuthMethod); err != nil {
		h.Log.Warn("record login history", zap.Error(err))
	}
	h.recordLoginEvent(r, user.ID, sess.ID)

	roles := authz.NormalizeRoles(user.Roles)
	httpjson.Respond(w, http.StatusOK, loginResponse{
		ID:          user.ID.Hex(),
		Name:        user.FullName,
		Email:       user.Email,
		Roles:       roles,
		PrimaryRole: authz.PrimaryRole(roles),
	})
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized,
		"invalid email or password")
}

// recordLoginEvent writes the login to the activity feed. Best effort;
// a feed write failure never blocks a login.
func (h *Handler) recordLoginEvent(r *http.Request, userID, sessionID primitive.ObjectID) {
	ev := activity.Event{
		UserID:    userID,
		SessionID: sessionID,
		EventType: activity.EventLogin,
	}
	if err := h.Activity.Record(r.Context(), ev); err != nil {
		h.Log.Warn("record login activity", zap.Error(err))
	}
}

// ServeLogout handles POST /api/v1/auth/logout.
// Closes the activity session and clears the cookie. Always answers
// 204, signed in or not.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.SessionMgr.GetSession(r)
	if err == nil {
		if sidStr, ok := sess.Values["activity_session_id"].(string); ok && sidStr != "" {
			if sid, err := primitive.ObjectIDFromHex(sidStr); err == nil {
				if err := h.Sessions.Close(r.Context(), sid, sessions.EndReasonLogout); err != nil {
					h.Log.Warn("close activity session", zap.Error(err))
				}
			}
		}
		if uidStr, ok := sess.Values["user_id"].(string); ok && uidStr != "" {
			h.AuditLog.Logout(r.Context(), r, uidStr)
		}

		// Expire the cookie.
		sess.Options.MaxAge = -1
		for k := range sess.Values {
			delete(sess.Values, k)
		}
		if err := sess.Save(r, w); err != nil {
			h.Log.Warn("clear session cookie", zap.Error(err))
		}
	}

	httpjson.Respond(w, http.StatusNoContent, nil)
}
