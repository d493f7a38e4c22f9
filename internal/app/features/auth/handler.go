// internal/app/features/auth/handler.go
package auth

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/activity"
	"github.com/dalemusser/trainhub/internal/app/store/invites"
	"github.com/dalemusser/trainhub/internal/app/store/logins"
	membershipstore "github.com/dalemusser/trainhub/internal/app/store/memberships"
	"github.com/dalemusser/trainhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	sysauth "github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/app/system/apitoken"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/ratelimit"
)

// Handler owns the credential-based auth endpoints: login, logout,
// API token issuance, and invite acceptance.
type Handler struct {
	Users       *userstore.Store
	Invites     *invites.Store
	Memberships *membershipstore.Store
	Sessions    *sessions.Store
	Logins      *logins.Store
	Activity    *activity.Store
	SessionMgr  *sysauth.SessionManager
	Tokens      *apitoken.Manager
	AuditLog    *auditlog.Logger
	Limiter     *ratelimit.LoginLimiter
	Log         *zap.Logger
}

// NewHandler wires the auth handler from the shared database handle
// and the ambient services built at startup.
func NewHandler(
	db *mongo.Database,
	sessionMgr *sysauth.SessionManager,
	tokens *apitoken.Manager,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:       userstore.New(db),
		Invites:     invites.New(db),
		Memberships: membershipstore.New(db),
		Sessions:    sessions.New(db),
		Logins:      logins.New(db),
		Activity:    activity.New(db),
		SessionMgr:  sessionMgr,
		Tokens:      tokens,
		AuditLog:    audit,
		Limiter:     limiter,
		Log:         logger,
	}
}
