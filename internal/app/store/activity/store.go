// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event types for training activity tracking.
const (
	EventLogin              = "login"               // User signed in
	EventEnrollmentCreated  = "enrollment_created"  // User was enrolled in a course
	EventLessonViewed       = "lesson_viewed"       // User viewed a lesson
	EventAttemptSubmitted   = "attempt_submitted"   // User submitted an assessment attempt
	EventStatusChanged      = "status_changed"      // Enrollment moved to a new status
	EventCertificateIssued  = "certificate_issued"  // Certificate was issued
	EventCertificateRevoked = "certificate_revoked" // Certificate was revoked
)

// Event is one row in the activity feed. Reference fields are set only
// when they apply to the event type.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	SessionID primitive.ObjectID `bson:"session_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`

	EventType string `bson:"event_type"`

	CourseID      *primitive.ObjectID `bson:"course_id,omitempty"`
	CourseTitle   string              `bson:"course_title,omitempty"`
	EnrollmentID  *primitive.ObjectID `bson:"enrollment_id,omitempty"`
	LessonID      *primitive.ObjectID `bson:"lesson_id,omitempty"`
	CertificateID *primitive.ObjectID `bson:"certificate_id,omitempty"`

	// Free-form extras: attempt scores, old/new status, override reasons.
	Details map[string]any `bson:"details,omitempty"`
}

// Store manages activity events.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_events")}
}

// Record writes one event. Missing ID/CreatedAt are filled in.
// Activity recording is best-effort at call sites; failures here never
// roll back the domain write they describe.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, ev)
	return err
}

// Filter narrows an activity listing. Zero values mean "no constraint";
// a non-nil empty UserIDs slice matches nothing, which is what a lead
// with no team members should see.
type Filter struct {
	UserIDs   []primitive.ObjectID
	CourseID  *primitive.ObjectID
	EventType string
	Since     time.Time
	Until     time.Time
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.UserIDs != nil {
		q["user_id"] = bson.M{"$in": f.UserIDs}
	}
	if f.CourseID != nil {
		q["course_id"] = *f.CourseID
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	rng := bson.M{}
	if !f.Since.IsZero() {
		rng["$gte"] = f.Since.UTC()
	}
	if !f.Until.IsZero() {
		rng["$lte"] = f.Until.UTC()
	}
	if len(rng) > 0 {
		q["created_at"] = rng
	}
	return q
}

// Find returns events matching the filter, newest first.
func (s *Store) Find(ctx context.Context, f Filter, limit int64) ([]Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events matching the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// GetBySession retrieves all events within one session, oldest first.
func (s *Store) GetBySession(ctx context.Context, sessionID primitive.ObjectID) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByUser retrieves recent events for a user, newest first.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Find(ctx, Filter{UserIDs: []primitive.ObjectID{userID}}, limit)
}

// PurgeOlderThan deletes events created before the cutoff. Called by the
// retention job.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lt": cutoff.UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
