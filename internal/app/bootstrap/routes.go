// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	activityfeature "github.com/dalemusser/trainhub/internal/app/features/activity"
	announcementsfeature "github.com/dalemusser/trainhub/internal/app/features/announcements"
	auditlogfeature "github.com/dalemusser/trainhub/internal/app/features/auditlog"
	authfeature "github.com/dalemusser/trainhub/internal/app/features/auth"
	authgooglefeature "github.com/dalemusser/trainhub/internal/app/features/authgoogle"
	certificatesfeature "github.com/dalemusser/trainhub/internal/app/features/certificates"
	coursesfeature "github.com/dalemusser/trainhub/internal/app/features/courses"
	dashboardfeature "github.com/dalemusser/trainhub/internal/app/features/dashboard"
	enrollmentsfeature "github.com/dalemusser/trainhub/internal/app/features/enrollments"
	healthfeature "github.com/dalemusser/trainhub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/trainhub/internal/app/features/heartbeat"
	profilefeature "github.com/dalemusser/trainhub/internal/app/features/profile"
	reportsfeature "github.com/dalemusser/trainhub/internal/app/features/reports"
	settingsfeature "github.com/dalemusser/trainhub/internal/app/features/settings"
	teamsfeature "github.com/dalemusser/trainhub/internal/app/features/teams"
	userinfofeature "github.com/dalemusser/trainhub/internal/app/features/userinfo"
	usersfeature "github.com/dalemusser/trainhub/internal/app/features/users"
	"github.com/dalemusser/trainhub/internal/app/store/audit"
	sessionstore "github.com/dalemusser/trainhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/apitoken"
	"github.com/dalemusser/trainhub/internal/app/system/auditlog"
	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"github.com/dalemusser/trainhub/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler for TrainHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. All JSON API routes mount under
// /api/v1; the heartbeat and health endpoints stay at the root for
// clients and load balancers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch fresh user data on each request so role changes and
	// deactivations take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	tokens := apitoken.NewManager(appCfg.TokenSecret, "trainhub", appCfg.TokenTTL)

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	loginLimiter := ratelimit.NewLoginLimiter(ratelimit.DefaultLoginConfig())

	r := chi.NewRouter()

	// Identity middleware: session cookie first, bearer token fallback.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(sessionMgr.LoadBearerUser(tokens))

	// Health check for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/healthz", healthfeature.Routes(healthHandler))

	// Activity-session heartbeat.
	heartbeatHandler := heartbeatfeature.NewHandler(sessionstore.New(db), sessionMgr, logger)
	r.Mount("/heartbeat", heartbeatfeature.Routes(heartbeatHandler, sessionMgr))

	// Google SSO (browser redirects, outside /api/v1).
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	usersHandler := usersfeature.NewHandler(db, auditLog, logger)
	usersHandler.Mail = outMail
	usersHandler.BaseURL = appCfg.BaseURL

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", authfeature.Routes(
			authfeature.NewHandler(db, sessionMgr, tokens, auditLog, loginLimiter, logger)))
		api.Mount("/userinfo", userinfofeature.Routes(userinfofeature.NewHandler()))

		api.Mount("/users", usersfeature.Routes(usersHandler))
		api.Mount("/teams", teamsfeature.Routes(teamsfeature.NewHandler(db, auditLog, logger)))
		api.Mount("/courses", coursesfeature.Routes(coursesfeature.NewHandler(db, auditLog, logger)))
		api.Mount("/enrollments", enrollmentsfeature.Routes(enrollmentsfeature.NewHandler(db, auditLog, logger)))
		api.Mount("/certificates", certificatesfeature.Routes(certificatesfeature.NewHandler(db, logger)))
		api.Mount("/reports", reportsfeature.Routes(reportsfeature.NewHandler(db, logger)))
		api.Mount("/dashboard", dashboardfeature.Routes(dashboardfeature.NewHandler(db, logger)))
		api.Mount("/announcements", announcementsfeature.Routes(announcementsfeature.NewHandler(db, auditLog, logger)))
		api.Mount("/activity", activityfeature.Routes(activityfeature.NewHandler(db, logger)))
		api.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, logger)))
		api.Mount("/profile", profilefeature.Routes(profilefeature.NewHandler(db, auditLog, logger)))
		api.Mount("/settings", settingsfeature.Routes(settingsfeature.NewHandler(db, auditLog, logger)))
	})

	return r, nil
}
