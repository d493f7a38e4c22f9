// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/activity"
	certstore "github.com/dalemusser/trainhub/internal/app/store/certificates"
	coursestore "github.com/dalemusser/trainhub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/trainhub/internal/app/store/enrollments"
	sessionstore "github.com/dalemusser/trainhub/internal/app/store/sessions"
	settingsstore "github.com/dalemusser/trainhub/internal/app/store/settings"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"github.com/dalemusser/trainhub/internal/app/system/mailer"
	"github.com/dalemusser/trainhub/internal/app/system/tasks"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// Shared services built during Startup and reused by BuildHandler and
// Shutdown. WAFFLE calls the hooks sequentially, so plain package vars
// are safe here.
var (
	scheduler *tasks.Scheduler
	outMail   *mailer.Mailer
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It promotes (or creates) the configured superuser account and starts
// the background job scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperuserEmail != "" {
		if err := ensureSuperuser(ctx, deps, appCfg.SuperuserEmail, appCfg.SuperuserName, logger); err != nil {
			return fmt.Errorf("ensure superuser: %w", err)
		}
	}

	outMail = mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	if err := startScheduler(appCfg, deps, logger); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	return nil
}

// ensureSuperuser guarantees an account with the superuser role exists
// for the configured email. An existing account is promoted; a missing
// one is created without a password (first sign-in goes through SSO or
// an admin-set password).
func ensureSuperuser(ctx context.Context, deps DBDeps, email, name string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.HasRole(authz.RoleSuperuser) {
			return nil
		}
		if err := users.AddRole(ctx, existing.ID, authz.RoleSuperuser); err != nil {
			return err
		}
		logger.Info("promoted existing user to superuser",
			zap.String("email", email))
		return nil
	case errors.Is(err, userstore.ErrNotFound):
		created, err := users.Create(ctx, models.User{
			FullName: name,
			Email:    email,
			Roles:    []string{authz.RoleSuperuser},
		})
		if err != nil {
			return err
		}
		logger.Info("created superuser account",
			zap.String("email", created.Email))
		return nil
	default:
		return err
	}
}

func startScheduler(appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	enrollStore := enrollmentstore.New(db)
	certs := certstore.New(db)
	settings := settingsstore.New(db)

	scheduler = tasks.NewScheduler(logger)
	jobs := []tasks.Job{
		tasks.EnrollmentDeadlineSweepJob(appCfg.DeadlineSweepSpec, enrollStore, logger),
		tasks.CertificateExpirySweepJob(appCfg.CertExpirySpec, certs, logger),
		tasks.ActivityPurgeJob(appCfg.ActivityPurgeSpec, activity.New(db), settings, logger),
		tasks.SessionCleanupJob(appCfg.SessionCleanupSpec, sessionstore.New(db), logger, appCfg.SessionIdleMax),
		tasks.DeadlineReminderJob(appCfg.DeadlineReminderSpec, tasks.DeadlineReminderDeps{
			Enrollments: enrollStore,
			Courses:     coursestore.New(db),
			Users:       userstore.New(db),
			Settings:    settings,
			Mail:        outMail,
			BaseURL:     appCfg.BaseURL,
			WindowDays:  appCfg.ReminderWindowDays,
		}, logger),
	}
	for _, job := range jobs {
		if err := scheduler.Register(job); err != nil {
			return fmt.Errorf("register %s: %w", job.Name, err)
		}
	}
	scheduler.Start()
	return nil
}
