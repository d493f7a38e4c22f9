// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/trainhub/internal/app/store/sessions"
	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles heartbeat requests for activity-session tracking.
type Handler struct {
	Sessions   *sessions.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

// NewHandler creates a new heartbeat handler.
func NewHandler(sessStore *sessions.Store, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions:   sessStore,
		SessionMgr: sessionMgr,
		Log:        logger,
	}
}

// ServeHeartbeat handles POST /heartbeat.
// Touches the user's activity session; if the session was already
// closed by the inactivity sweep, starts a fresh one and rebinds the
// cookie. Always answers 200 — a failed heartbeat is never worth an
// error dialog on the client.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	sess, err := h.SessionMgr.GetSession(r)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	activitySessionID, ok := sess.Values["activity_session_id"].(string)
	if !ok || activitySessionID == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	oid, err := primitive.ObjectIDFromHex(activitySessionID)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	alive, err := h.Sessions.Touch(ctx, oid)
	if err != nil {
		h.Log.Warn("failed to touch activity session",
			zap.Error(err),
			zap.String("session_id", activitySessionID))
		w.WriteHeader(http.StatusOK)
		return
	}

	if !alive {
		// Session was closed by the inactivity sweep; start a new one.
		userIDStr, _ := sess.Values["user_id"].(string)
		userOID, err := primitive.ObjectIDFromHex(userIDStr)
		if err != nil {
			w.WriteHeader(http.StatusOK)
			return
		}

		newSess, err := h.Sessions.Start(ctx, userOID, ratelimit.ClientIP(r), r.UserAgent())
		if err != nil {
			h.Log.Warn("failed to start activity session after timeout",
				zap.Error(err),
				zap.String("user_id", userIDStr))
			w.WriteHeader(http.StatusOK)
			return
		}

		sess.Values["activity_session_id"] = newSess.ID.Hex()
		if err := sess.Save(r, w); err != nil {
			h.Log.Warn("failed to save session with new activity_session_id", zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusOK)
}
