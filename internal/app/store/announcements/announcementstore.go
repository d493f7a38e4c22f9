// internal/app/store/announcements/announcementstore.go
package announcements

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/trainhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/trainhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the announcements collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

var (
	// ErrNotFound is returned when no announcement matches the given ID.
	ErrNotFound = errors.New("announcement not found")
	// ErrBadPriority is returned for an unrecognized priority value.
	ErrBadPriority = errors.New(`priority must be "normal", "high", or "urgent"`)
)

// Create posts an announcement. Body HTML is sanitized on the way in so
// nothing below this layer has to trust it.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	if a.Priority == "" {
		a.Priority = models.AnnouncementNormal
	}
	if !models.IsValidAnnouncementPriority(a.Priority) {
		return models.Announcement{}, ErrBadPriority
	}

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Body = htmlsanitize.Sanitize(a.Body)
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}
	a.CreatedAt = now
	a.UpdatedAt = nil

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// GetByID loads an announcement by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Announcement{}, ErrNotFound
		}
		return models.Announcement{}, err
	}
	return a, nil
}

// VisibleTo returns unexpired announcements a user should see: campus
// posts plus posts for any of the given teams, newest first. Admins
// pass all=true to see every team's posts.
func (s *Store) VisibleTo(ctx context.Context, all bool, teamIDs []primitive.ObjectID, now time.Time, limit int64) ([]models.Announcement, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"expires_at": nil},
			{"expires_at": bson.M{"$gt": now.UTC()}},
		},
	}
	if !all {
		filter["$and"] = []bson.M{{
			"$or": []bson.M{
				{"team_id": nil},
				{"team_id": bson.M{"$in": teamIDs}},
			},
		}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an announcement.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
