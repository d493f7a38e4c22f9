// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for TrainHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TRAINHUB_MONGO_URI, TRAINHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "trainhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "trainhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "720h", Desc: "Session cookie lifetime (e.g., 720h for 30 days)"},
	{Name: "session_idle_timeout", Default: "30m", Desc: "Inactivity window before an activity session is closed"},

	{Name: "token_secret", Default: "", Desc: "HMAC secret for API bearer tokens (blank disables the token endpoint)"},
	{Name: "token_ttl", Default: "24h", Desc: "API bearer token lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank means log-only mailer)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@trainhub.example", Desc: "From email address"},
	{Name: "mail_from_name", Default: "TrainHub", Desc: "From display name"},

	// Base URL for email links (invite accept, reminders)
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Superuser bootstrap
	{Name: "superuser_email", Default: "", Desc: "Email of the superuser account (promotes/creates on startup)"},
	{Name: "superuser_name", Default: "Superuser", Desc: "Display name used when the superuser account is created"},

	// Background job schedules
	{Name: "deadline_sweep_spec", Default: "*/15 * * * *", Desc: "Cron spec for the overdue-enrollment sweep"},
	{Name: "cert_expiry_spec", Default: "7 0 * * *", Desc: "Cron spec for the certificate-expiry sweep"},
	{Name: "activity_purge_spec", Default: "23 2 * * *", Desc: "Cron spec for the activity retention purge"},
	{Name: "session_cleanup_spec", Default: "*/10 * * * *", Desc: "Cron spec for closing idle activity sessions"},
	{Name: "deadline_reminder_spec", Default: "0 14 * * *", Desc: "Cron spec for deadline reminder emails"},
	{Name: "reminder_window_days", Default: 3, Desc: "Days before the soft deadline that reminders go out"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TRAINHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionTTL:     appValues.Duration("session_ttl", 720*time.Hour),
		SessionIdleMax: appValues.Duration("session_idle_timeout", 30*time.Minute),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		SuperuserEmail: appValues.String("superuser_email"),
		SuperuserName:  appValues.String("superuser_name"),

		DeadlineSweepSpec:    appValues.String("deadline_sweep_spec"),
		CertExpirySpec:       appValues.String("cert_expiry_spec"),
		ActivityPurgeSpec:    appValues.String("activity_purge_spec"),
		SessionCleanupSpec:   appValues.String("session_cleanup_spec"),
		DeadlineReminderSpec: appValues.String("deadline_reminder_spec"),
		ReminderWindowDays:   appValues.Int("reminder_window_days"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// TrainHub validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and refuses to start in
// production with the development session key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
			return fmt.Errorf("session_key must be changed from the development default in production")
		}
		if appCfg.TokenSecret == "" {
			logger.Warn("token_secret is empty; API bearer tokens are disabled")
		}
	}

	return nil
}
