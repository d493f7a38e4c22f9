// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds TrainHub-specific configuration.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS, body limits). Everything specific to this app lives
// here: the Mongo connection, session and token secrets, mail relay,
// Google SSO credentials, and the cron specs for the background sweeps.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management
	SessionKey    string // secret for signing session cookies
	SessionName   string // cookie name
	SessionDomain string // cookie domain (blank means current host)
	SessionTTL    time.Duration
	// Inactivity window before the heartbeat-tracked activity session
	// is closed by the cleanup job.
	SessionIdleMax time.Duration

	// API bearer tokens
	TokenSecret string
	TokenTTL    time.Duration

	// Email/SMTP configuration. An empty host leaves the mailer in
	// log-only mode, which is what dev wants.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Base URL for links in email (invite accept, course reminders).
	BaseURL string

	// Audit logging sinks: "all", "db", "log", or "off".
	AuditLogAuth  string
	AuditLogAdmin string

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Superuser bootstrap: promotes or creates this account on startup.
	SuperuserEmail string
	SuperuserName  string

	// Cron specs for the background jobs.
	DeadlineSweepSpec    string
	CertExpirySpec       string
	ActivityPurgeSpec    string
	SessionCleanupSpec   string
	DeadlineReminderSpec string

	// Days before the soft deadline that reminder emails go out.
	ReminderWindowDays int
}
