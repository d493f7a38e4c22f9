// internal/app/store/enrollments/completion.go
package enrollments

import (
	"context"
	"time"

	"github.com/dalemusser/trainhub/internal/app/system/txn"
	"github.com/dalemusser/trainhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result is what every progress-recording operation returns: the
// enrollment after the operation, and the certificate when this
// operation completed the course and the course issues one.
type Result struct {
	Enrollment  models.Enrollment
	Certificate *models.Certificate
	// Completed is true when this operation transitioned the
	// enrollment to completed. Handlers use it to emit the state-change
	// activity event exactly once.
	Completed bool
	// Started is true when this operation took the enrollment out of
	// not_started.
	Started bool
}

// RecordLessonView records that the enrolled user viewed a lesson.
// The first view of any lesson moves not_started to in_progress. Under
// the honor policy, viewing the last unseen required lesson completes
// the enrollment; free lessons never gate completion. requiredIDs is
// the course's current required lesson set, loaded by the caller.
//
// Views on completed or revoked enrollments are recorded (rewatching
// training material is fine) but never change status.
func (s *Store) RecordLessonView(ctx context.Context, e models.Enrollment, lesson models.Lesson, course models.Course, requiredIDs []primitive.ObjectID) (Result, error) {
	if e.CourseID != course.ID || lesson.CourseID != course.ID {
		return Result{}, ErrCourseMismatch
	}

	now := time.Now().UTC()

	// One progress row per (enrollment, lesson); repeat views keep the
	// first timestamp.
	_, err := s.progress.InsertOne(ctx, models.LessonProgress{
		ID:           primitive.NewObjectID(),
		EnrollmentID: e.ID,
		LessonID:     lesson.ID,
		ViewedAt:     now,
	})
	if err != nil && !wafflemongo.IsDup(err) {
		return Result{}, err
	}

	res := Result{Enrollment: e}

	if e.Status == models.EnrollmentCompleted || e.Status == models.EnrollmentRevoked {
		return res, nil
	}

	if e.Status == models.EnrollmentNotStarted {
		update := bson.M{"$set": bson.M{
			"status":     models.EnrollmentInProgress,
			"started_at": now,
			"updated_at": now,
		}}
		if _, err := s.c.UpdateByID(ctx, e.ID, update); err != nil {
			return Result{}, err
		}
		res.Enrollment.Status = models.EnrollmentInProgress
		res.Enrollment.StartedAt = &now
		res.Started = true
	}

	if course.Policy.Kind != models.PolicyHonor {
		return res, nil
	}

	done, err := s.allViewed(ctx, e.ID, requiredIDs)
	if err != nil {
		return Result{}, err
	}
	if !done {
		return res, nil
	}
	return s.complete(ctx, res.Enrollment, course, models.CompletionByHonor, now, res.Started)
}

// allViewed reports whether every lesson in ids has a progress row for
// the enrollment. An empty required set counts as done: a course with
// only free lessons completes on the first view.
func (s *Store) allViewed(ctx context.Context, enrollmentID primitive.ObjectID, ids []primitive.ObjectID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	n, err := s.progress.CountDocuments(ctx, bson.M{
		"enrollment_id": enrollmentID,
		"lesson_id":     bson.M{"$in": ids},
	})
	if err != nil {
		return false, err
	}
	return n == int64(len(ids)), nil
}

// RecordAssessmentAttempt stores one scored attempt and applies the
// assessment policy: score >= passing score completes the enrollment,
// anything lower just increments the attempt counter. The course's
// MaxAttempts cap (zero = unlimited) is enforced before the attempt is
// stored, so an exhausted enrollment records nothing.
func (s *Store) RecordAssessmentAttempt(ctx context.Context, e models.Enrollment, course models.Course, score int) (Result, models.AssessmentAttempt, error) {
	if e.CourseID != course.ID {
		return Result{}, models.AssessmentAttempt{}, ErrCourseMismatch
	}
	if course.Policy.Kind != models.PolicyAssessment {
		return Result{}, models.AssessmentAttempt{}, ErrInvalidTransition
	}
	if score < 0 || score > 100 {
		return Result{}, models.AssessmentAttempt{}, ErrInvalidScore
	}
	switch e.Status {
	case models.EnrollmentCompleted, models.EnrollmentRevoked:
		return Result{}, models.AssessmentAttempt{}, ErrInvalidTransition
	}
	if course.Policy.MaxAttempts > 0 && e.AttemptCount >= course.Policy.MaxAttempts {
		return Result{}, models.AssessmentAttempt{}, ErrAttemptsExhausted
	}

	now := time.Now().UTC()
	passed := score >= course.Policy.PassingScore

	// Claim the attempt number with a guarded $inc so two racing
	// submissions never share one. The cap re-check in the filter keeps
	// the counter from overshooting when requests race past the check
	// above.
	filter := bson.M{"_id": e.ID, "archived": false}
	if course.Policy.MaxAttempts > 0 {
		filter["attempt_count"] = bson.M{"$lt": course.Policy.MaxAttempts}
	}
	set := bson.M{"updated_at": now}
	started := false
	if e.Status == models.EnrollmentNotStarted {
		set["status"] = models.EnrollmentInProgress
		set["started_at"] = now
		started = true
	}
	updRes, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"attempt_count": 1},
		"$set": set,
	})
	if err != nil {
		return Result{}, models.AssessmentAttempt{}, err
	}
	if updRes.MatchedCount == 0 {
		return Result{}, models.AssessmentAttempt{}, ErrAttemptsExhausted
	}

	e.AttemptCount++
	if started {
		e.Status = models.EnrollmentInProgress
		e.StartedAt = &now
	}

	attempt := models.AssessmentAttempt{
		ID:           primitive.NewObjectID(),
		EnrollmentID: e.ID,
		UserID:       e.UserID,
		CourseID:     e.CourseID,
		Number:       e.AttemptCount,
		Score:        score,
		Passed:       passed,
		SubmittedAt:  now,
	}
	if _, err := s.attempts.InsertOne(ctx, attempt); err != nil {
		return Result{}, models.AssessmentAttempt{}, err
	}

	res := Result{Enrollment: e, Started: started}
	if !passed {
		return res, attempt, nil
	}

	res, err = s.complete(ctx, e, course, models.CompletionByAssessment, now, started)
	return res, attempt, err
}

// ApproveCompletion completes a manual-approval enrollment. The policy
// gate (does the approver lead this course's team) runs in the policy
// layer before this is called; here only the state machine is checked.
func (s *Store) ApproveCompletion(ctx context.Context, e models.Enrollment, course models.Course) (Result, error) {
	if e.CourseID != course.ID {
		return Result{}, ErrCourseMismatch
	}
	if course.Policy.Kind != models.PolicyManual {
		return Result{}, ErrInvalidTransition
	}
	if !models.ValidTransition(e.Status, models.EnrollmentCompleted) {
		return Result{}, ErrInvalidTransition
	}
	return s.complete(ctx, e, course, models.CompletionByApproval, time.Now().UTC(), false)
}

// complete transitions the enrollment to completed and issues a
// certificate when the course's config says to. Both writes run inside
// one transaction where the server supports them.
func (s *Store) complete(ctx context.Context, e models.Enrollment, course models.Course, method string, at time.Time, started bool) (Result, error) {
	res := Result{Started: started, Completed: true}

	err := txn.WithTransaction(ctx, s.client, func(tc context.Context) error {
		var certID *primitive.ObjectID
		if course.Certificate.Enabled {
			var expiresAt *time.Time
			if course.Certificate.Expires {
				exp := at.Add(course.Certificate.ValidFor())
				expiresAt = &exp
			}
			cert, err := s.certs.Issue(tc, e, at, expiresAt)
			if err != nil {
				return err
			}
			res.Certificate = &cert
			certID = &cert.ID
		}

		set := bson.M{
			"status":            models.EnrollmentCompleted,
			"completed_at":      at,
			"completion_method": method,
			"updated_at":        at,
		}
		if certID != nil {
			set["certificate_id"] = *certID
		}
		upd, err := s.c.UpdateByID(tc, e.ID, bson.M{"$set": set})
		if err != nil {
			return err
		}
		if upd.MatchedCount == 0 {
			return ErrNotFound
		}

		e.Status = models.EnrollmentCompleted
		e.CompletedAt = &at
		e.CompletionMethod = method
		e.CertificateID = certID
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res.Enrollment = e
	return res, nil
}
