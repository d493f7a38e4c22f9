// internal/app/store/enrollments/enrollmentstore.go
package enrollments

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/trainhub/internal/app/store/certificates"
	"github.com/dalemusser/trainhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the enrollment engine: it owns the enrollments collection
// plus the per-lesson progress and assessment attempt trails, and
// drives every status transition. Certificate issuance and revocation
// ride along inside the same transaction where the topology supports
// one.
type Store struct {
	client   *mongo.Client
	c        *mongo.Collection
	progress *mongo.Collection
	attempts *mongo.Collection
	certs    *certificates.Store
}

func New(db *mongo.Database) *Store {
	return &Store{
		client:   db.Client(),
		c:        db.Collection("enrollments"),
		progress: db.Collection("lesson_progress"),
		attempts: db.Collection("assessment_attempts"),
		certs:    certificates.New(db),
	}
}

var (
	// ErrNotFound is returned when no enrollment matches the given ID.
	ErrNotFound = errors.New("enrollment not found")
	// ErrDuplicate is returned when the user already has a live
	// enrollment in the course.
	ErrDuplicate = errors.New("user is already enrolled in this course")
	// ErrCourseInactive is returned when enrolling into an archived course.
	ErrCourseInactive = errors.New("course is not accepting enrollments")
	// ErrCourseMismatch is returned when a lesson or course argument does
	// not belong to the enrollment being operated on.
	ErrCourseMismatch = errors.New("resource does not belong to this enrollment's course")
	// ErrInvalidTransition is returned for an operation that the
	// enrollment's current status or the course's policy does not allow.
	ErrInvalidTransition = errors.New("operation not valid for this enrollment's state")
	// ErrAttemptsExhausted is returned when the course's attempt cap has
	// been reached.
	ErrAttemptsExhausted = errors.New("no assessment attempts remaining")
	// ErrInvalidScore is returned for a score outside 0..100.
	ErrInvalidScore = errors.New("score must be between 0 and 100")
	// ErrReasonRequired is returned for an override without a reason.
	ErrReasonRequired = errors.New("an override requires a non-empty reason")
	// ErrBadAction is returned for an unknown override action.
	ErrBadAction = errors.New(`override action must be "award", "revoke", or "extend"`)
)

// DeadlineDefaults carries the campus-wide fallback offsets from site
// settings, threaded in explicitly by the handler so the engine never
// reads ambient configuration.
type DeadlineDefaults struct {
	SoftDays int
	HardDays int
}

// ResolveDeadlines picks the enrollment's deadlines: explicit values
// win, then the course's per-course offsets, then the campus defaults.
// A resolved offset of zero means no deadline at all. Soft and hard
// resolve independently.
func ResolveDeadlines(soft, hard *time.Time, course models.Course, defaults DeadlineDefaults, now time.Time) (*time.Time, *time.Time) {
	resolve := func(explicit *time.Time, courseDays, defaultDays int) *time.Time {
		if explicit != nil {
			return explicit
		}
		days := courseDays
		if days == 0 {
			days = defaultDays
		}
		if days <= 0 {
			return nil
		}
		t := now.UTC().AddDate(0, 0, days)
		return &t
	}
	return resolve(soft, course.SoftDeadlineDays, defaults.SoftDays),
		resolve(hard, course.HardDeadlineDays, defaults.HardDays)
}

// Enroll creates a live enrollment for (user, course). The course must
// be active; the partial unique index rejects a second live enrollment
// for the same pair regardless of how many service instances race.
func (s *Store) Enroll(ctx context.Context, e models.Enrollment, course models.Course, defaults DeadlineDefaults) (models.Enrollment, error) {
	if e.CourseID != course.ID {
		return models.Enrollment{}, ErrCourseMismatch
	}
	if !course.IsActive() {
		return models.Enrollment{}, ErrCourseInactive
	}

	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.TeamID = course.TeamID
	e.Status = models.EnrollmentNotStarted
	e.SoftDeadline, e.HardDeadline = ResolveDeadlines(e.SoftDeadline, e.HardDeadline, course, defaults, now)
	e.EnrolledAt = now
	e.StartedAt = nil
	e.CompletedAt = nil
	e.CompletionMethod = ""
	e.AttemptCount = 0
	e.CertificateID = nil
	e.Archived = false
	e.ArchivedAt = nil
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Enrollment{}, ErrDuplicate
		}
		return models.Enrollment{}, err
	}
	return e, nil
}

// GetByID loads an enrollment by ObjectID. Archived enrollments are
// returned too; callers that only want live records check Archived.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Enrollment, error) {
	var e models.Enrollment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Enrollment{}, ErrNotFound
		}
		return models.Enrollment{}, err
	}
	return e, nil
}

// GetLive loads the live enrollment for a (user, course) pair.
func (s *Store) GetLive(ctx context.Context, userID, courseID primitive.ObjectID) (models.Enrollment, error) {
	var e models.Enrollment
	err := s.c.FindOne(ctx, bson.M{
		"user_id":   userID,
		"course_id": courseID,
		"archived":  false,
	}).Decode(&e)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Enrollment{}, ErrNotFound
		}
		return models.Enrollment{}, err
	}
	return e, nil
}

// Find returns enrollments matching the given filter with optional find
// options. The caller builds the filter (status, team scope, paging).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Enrollment, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Enrollment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of enrollments matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// Progress returns the lesson progress rows for an enrollment.
func (s *Store) Progress(ctx context.Context, enrollmentID primitive.ObjectID) ([]models.LessonProgress, error) {
	cur, err := s.progress.Find(ctx, bson.M{"enrollment_id": enrollmentID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LessonProgress
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Attempts returns an enrollment's assessment attempts, newest first.
func (s *Store) Attempts(ctx context.Context, enrollmentID primitive.ObjectID) ([]models.AssessmentAttempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.attempts.Find(ctx, bson.M{"enrollment_id": enrollmentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AssessmentAttempt
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkOverdueBatch persists the overdue status for live not-started or
// in-progress enrollments whose hard deadline has passed. Idempotent:
// already-overdue rows no longer match the filter, so re-running the
// sweep is a no-op.
func (s *Store) MarkOverdueBatch(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"archived":      false,
			"status":        bson.M{"$in": []string{models.EnrollmentNotStarted, models.EnrollmentInProgress}},
			"hard_deadline": bson.M{"$ne": nil, "$lt": now.UTC()},
		},
		bson.M{"$set": bson.M{
			"status":     models.EnrollmentOverdue,
			"updated_at": now.UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ArchiveByUser flags all of a user's live enrollments archived. Part
// of the user-deletion cascade; rows stay behind for audit and drop out
// of the partial unique index.
func (s *Store) ArchiveByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "archived": false},
		bson.M{"$set": bson.M{
			"archived":    true,
			"archived_at": now,
			"updated_at":  now,
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
