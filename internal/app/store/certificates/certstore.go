// internal/app/store/certificates/certstore.go
package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/trainhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the certificates collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("certificates")}
}

var (
	// ErrNotFound is returned when no certificate matches.
	ErrNotFound = errors.New("certificate not found")
)

// NewNumber generates a certificate serial of the form
// CERT-YYYYMMDD-XXXXXXXX, where the suffix is 8 hex characters drawn
// from a fresh UUID. The unique index on number catches collisions.
func NewNumber(issuedAt time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("CERT-%s-%s", issuedAt.UTC().Format("20060102"), suffix)
}

// Issue creates a valid certificate for the given enrollment. ExpiresAt
// is captured from the course's config at issuance time; later config
// edits never touch it. The serial is regenerated on the rare
// duplicate-key collision.
func (s *Store) Issue(ctx context.Context, enrollment models.Enrollment, issuedAt time.Time, expiresAt *time.Time) (models.Certificate, error) {
	cert := models.Certificate{
		ID:           primitive.NewObjectID(),
		UserID:       enrollment.UserID,
		CourseID:     enrollment.CourseID,
		EnrollmentID: enrollment.ID,
		Status:       models.CertStatusValid,
		IssuedAt:     issuedAt.UTC(),
		ExpiresAt:    expiresAt,
	}

	for range 3 {
		cert.Number = NewNumber(issuedAt)
		_, err := s.c.InsertOne(ctx, cert)
		if err == nil {
			return cert, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Certificate{}, err
		}
	}
	return models.Certificate{}, errors.New("could not generate a unique certificate number")
}

// GetByID loads a certificate by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Certificate, error) {
	return s.one(ctx, bson.M{"_id": id})
}

// GetByNumber loads a certificate by its public serial number.
func (s *Store) GetByNumber(ctx context.Context, number string) (models.Certificate, error) {
	return s.one(ctx, bson.M{"number": strings.ToUpper(strings.TrimSpace(number))})
}

// GetByEnrollment loads the certificate issued for an enrollment.
func (s *Store) GetByEnrollment(ctx context.Context, enrollmentID primitive.ObjectID) (models.Certificate, error) {
	return s.one(ctx, bson.M{"enrollment_id": enrollmentID})
}

func (s *Store) one(ctx context.Context, filter bson.M) (models.Certificate, error) {
	var cert models.Certificate
	if err := s.c.FindOne(ctx, filter).Decode(&cert); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Certificate{}, ErrNotFound
		}
		return models.Certificate{}, err
	}
	return cert, nil
}

// Revoke marks a certificate revoked with the given reason. Revoked is
// terminal for the certificate; a later award override issues a new one.
func (s *Store) Revoke(ctx context.Context, id primitive.ObjectID, reason string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":        models.CertStatusRevoked,
		"revoked_at":    now,
		"revoke_reason": reason,
		"updated_at":    now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Extend moves the expiry to the given time and restores valid status
// when the certificate had lapsed to expired. Revoked certificates are
// left alone; callers reject the extend before getting here.
func (s *Store) Extend(ctx context.Context, id primitive.ObjectID, until time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.CertStatusRevoked}},
		bson.M{"$set": bson.M{
			"status":     models.CertStatusValid,
			"expires_at": until.UTC(),
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkExpiredBatch flips valid certificates whose expires_at has passed
// to expired. Idempotent; the expiry sweep job calls this periodically.
// EffectiveStatus already reports expired on reads, so nothing depends
// on the sweep for correctness.
func (s *Store) MarkExpiredBatch(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":     models.CertStatusValid,
			"expires_at": bson.M{"$ne": nil, "$lte": now.UTC()},
		},
		bson.M{"$set": bson.M{
			"status":     models.CertStatusExpired,
			"updated_at": now.UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ArchiveByUser flags all of a user's certificates archived. Part of
// the user-deletion cascade; the records stay behind for audit.
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

// Find returns certificates matching the given filter with optional
// find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Certificate, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Certificate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of certificates matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
