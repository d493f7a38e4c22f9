// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Session end reasons.
const (
	EndReasonLogout   = "logout"   // User explicitly logged out
	EndReasonInactive = "inactive" // Closed by the cleanup job
	EndReasonReplaced = "replaced" // Superseded by a newer login
	EndReasonRevoked  = "revoked"  // Account deactivated or deleted
)

// Session tracks one sitting, from login until logout or inactivity.
// Activity events reference the session so a sitting's events can be
// replayed in order.
type Session struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID primitive.ObjectID `bson:"user_id"`

	StartedAt  time.Time  `bson:"started_at"`
	EndedAt    *time.Time `bson:"ended_at,omitempty"`
	LastSeenAt time.Time  `bson:"last_seen_at"`

	// How the session ended; empty while open.
	EndReason string `bson:"end_reason,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Computed on close.
	DurationSecs int64 `bson:"duration_secs,omitempty"`
}

// Store manages user sessions.
type Store struct {
	c *mongo.Collection
}

// New creates a new sessions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// Start opens a new session for a user, closing any sessions the user
// still has open. One open session per user keeps the activity feed's
// session grouping unambiguous.
func (s *Store) Start(ctx context.Context, userID primitive.ObjectID, ip, userAgent string) (Session, error) {
	now := time.Now().UTC()

	_, _ = s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "ended_at": nil},
		bson.M{"$set": bson.M{
			"ended_at":   now,
			"end_reason": EndReasonReplaced,
		}},
	)

	sess := Session{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		StartedAt:  now,
		LastSeenAt: now,
		IP:         ip,
		UserAgent:  userAgent,
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Close ends a session with the given reason and records its duration.
// Closing an already-closed session is a no-op.
func (s *Store) Close(ctx context.Context, sessionID primitive.ObjectID, reason string) error {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": sessionID, "ended_at": nil}).Decode(&sess)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": sess.ID}, bson.M{
		"$set": bson.M{
			"ended_at":      now,
			"end_reason":    reason,
			"duration_secs": int64(now.Sub(sess.StartedAt).Seconds()),
		},
	})
	return err
}

// Touch advances last_seen_at for heartbeat tracking. Returns false when
// the session is already closed, which tells the caller to start a new
// one.
func (s *Store) Touch(ctx context.Context, sessionID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": sessionID, "ended_at": nil},
		bson.M{"$set": bson.M{"last_seen_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// GetByID retrieves a session.
func (s *Store) GetByID(ctx context.Context, sessionID primitive.ObjectID) (Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&sess)
	return sess, err
}

// GetByUser retrieves session history for a user, newest first.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Session, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountOpen counts sessions seen within the given window. Used for the
// admin dashboard's "active now" figure.
func (s *Store) CountOpen(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-window)
	return s.c.CountDocuments(ctx, bson.M{
		"ended_at":     nil,
		"last_seen_at": bson.M{"$gte": cutoff},
	})
}

// CloseInactiveSessions ends open sessions idle longer than the
// threshold. Run by the cleanup job; sessions are ended, never deleted.
func (s *Store) CloseInactiveSessions(ctx context.Context, threshold time.Duration) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-threshold)

	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"ended_at":     nil,
			"last_seen_at": bson.M{"$lt": cutoff},
		},
		mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"ended_at":   "$last_seen_at",
				"end_reason": EndReasonInactive,
				"duration_secs": bson.M{"$toLong": bson.M{"$divide": bson.A{
					bson.M{"$subtract": bson.A{"$last_seen_at", "$started_at"}},
					1000,
				}}},
			}}},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CloseAllForUser ends every open session the user has. Called when an
// account is deactivated or deleted so a live browser loses access.
func (s *Store) CloseAllForUser(ctx context.Context, userID primitive.ObjectID, reason string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "ended_at": nil},
		mongo.Pipeline{
			{{Key: "$set", Value: bson.M{
				"ended_at":   now,
				"end_reason": reason,
				"duration_secs": bson.M{"$toLong": bson.M{"$divide": bson.A{
					bson.M{"$subtract": bson.A{now, "$started_at"}},
					1000,
				}}},
			}}},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
