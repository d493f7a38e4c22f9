// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/store/activity"
	"github.com/dalemusser/trainhub/internal/app/store/certificates"
	"github.com/dalemusser/trainhub/internal/app/store/courses"
	"github.com/dalemusser/trainhub/internal/app/store/enrollments"
	"github.com/dalemusser/trainhub/internal/app/store/sessions"
	"github.com/dalemusser/trainhub/internal/app/store/settings"
	userstore "github.com/dalemusser/trainhub/internal/app/store/users"
	"github.com/dalemusser/trainhub/internal/app/system/mailer"
	"github.com/dalemusser/trainhub/internal/domain/models"
)

// EnrollmentDeadlineSweepJob persists the overdue status for enrollments
// whose hard deadline has passed. EffectiveStatus already reports overdue
// on reads; the sweep makes the stored status match so list filters and
// reports see it without recomputing.
func EnrollmentDeadlineSweepJob(spec string, enrollStore *enrollments.Store, logger *zap.Logger) Job {
	return Job{
		Name: "enrollment-deadline-sweep",
		Spec: spec,
		Run: func(ctx context.Context) error {
			count, err := enrollStore.MarkOverdueBatch(ctx, time.Now())
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("marked enrollments overdue", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// CertificateExpirySweepJob flips valid certificates past their expires_at
// to expired.
func CertificateExpirySweepJob(spec string, certStore *certificates.Store, logger *zap.Logger) Job {
	return Job{
		Name: "certificate-expiry-sweep",
		Spec: spec,
		Run: func(ctx context.Context) error {
			count, err := certStore.MarkExpiredBatch(ctx, time.Now())
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("marked certificates expired", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// ActivityPurgeJob deletes activity events older than the retention window
// in site settings.
func ActivityPurgeJob(spec string, activityStore *activity.Store, settingsStore *settings.Store, logger *zap.Logger) Job {
	return Job{
		Name: "activity-purge",
		Spec: spec,
		Run: func(ctx context.Context) error {
			s, err := settingsStore.Get(ctx)
			if err != nil {
				return err
			}
			if s.ActivityRetentionDays <= 0 {
				return nil // retention disabled
			}
			cutoff := time.Now().AddDate(0, 0, -s.ActivityRetentionDays)
			count, err := activityStore.PurgeOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("purged activity events",
					zap.Int64("count", count),
					zap.Time("cutoff", cutoff))
			}
			return nil
		},
	}
}

// DeadlineReminderJob emails learners whose soft deadline falls inside
// the reminder window. Deps holds the stores the join needs; Mail may
// be log-only in dev.
type DeadlineReminderDeps struct {
	Enrollments *enrollments.Store
	Courses     *courses.Store
	Users       *userstore.Store
	Settings    *settings.Store
	Mail        *mailer.Mailer
	BaseURL     string
	WindowDays  int
}

func DeadlineReminderJob(spec string, deps DeadlineReminderDeps, logger *zap.Logger) Job {
	return Job{
		Name: "deadline-reminder",
		Spec: spec,
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()
			horizon := now.AddDate(0, 0, deps.WindowDays)

			due, err := deps.Enrollments.Find(ctx, bson.M{
				"archived":      false,
				"status":        bson.M{"$in": []string{models.EnrollmentNotStarted, models.EnrollmentInProgress}},
				"soft_deadline": bson.M{"$gt": now, "$lte": horizon},
			})
			if err != nil {
				return err
			}
			if len(due) == 0 {
				return nil
			}

			site, err := deps.Settings.Get(ctx)
			if err != nil {
				return err
			}
			loc := time.UTC
			if site.Timezone != "" {
				if l, err := time.LoadLocation(site.Timezone); err == nil {
					loc = l
				} else {
					logger.Warn("bad site timezone, using UTC", zap.String("timezone", site.Timezone))
				}
			}

			courseIDs := make([]primitive.ObjectID, 0, len(due))
			userIDs := make([]primitive.ObjectID, 0, len(due))
			for _, e := range due {
				courseIDs = append(courseIDs, e.CourseID)
				userIDs = append(userIDs, e.UserID)
			}
			courseList, err := deps.Courses.GetByIDs(ctx, courseIDs)
			if err != nil {
				return err
			}
			userList, err := deps.Users.GetByIDs(ctx, userIDs)
			if err != nil {
				return err
			}
			courseByID := make(map[primitive.ObjectID]models.Course, len(courseList))
			for _, c := range courseList {
				courseByID[c.ID] = c
			}
			userByID := make(map[primitive.ObjectID]models.User, len(userList))
			for _, u := range userList {
				userByID[u.ID] = u
			}

			sent := 0
			for _, e := range due {
				course, okC := courseByID[e.CourseID]
				user, okU := userByID[e.UserID]
				if !okC || !okU || !user.Active || e.SoftDeadline == nil {
					continue
				}
				msg := mailer.BuildDeadlineReminderEmail(mailer.DeadlineReminderData{
					SiteName:    site.SiteName,
					FullName:    user.FullName,
					CourseTitle: course.Title,
					Deadline:    e.SoftDeadline.In(loc).Format("January 2, 2006"),
					CourseLink:  deps.BaseURL + "/courses/" + course.ID.Hex(),
				})
				msg.To = user.Email
				if err := deps.Mail.Send(msg); err != nil {
					logger.Warn("deadline reminder send failed",
						zap.String("email", user.Email), zap.Error(err))
					continue
				}
				sent++
			}
			if sent > 0 {
				logger.Info("sent deadline reminders", zap.Int("count", sent))
			}
			return nil
		},
	}
}

// SessionCleanupJob closes sessions idle past the inactivity threshold.
// Sessions are ended, not deleted, so history stays queryable.
func SessionCleanupJob(spec string, sessStore *sessions.Store, logger *zap.Logger, threshold time.Duration) Job {
	return Job{
		Name: "session-cleanup",
		Spec: spec,
		Run: func(ctx context.Context) error {
			count, err := sessStore.CloseInactiveSessions(ctx, threshold)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("closed inactive sessions",
					zap.Int64("count", count),
					zap.Duration("threshold", threshold))
			}
			return nil
		},
	}
}
