// internal/app/store/settings/settingsstore.go
package settings

import (
	"context"
	"time"

	"github.com/dalemusser/trainhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the site_settings collection. A single
// document holds the campus-wide settings; Get falls back to defaults
// when none has been saved yet.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

// Get returns the site settings, or defaults when none exist.
func (s *Store) Get(ctx context.Context) (models.SiteSettings, error) {
	var settings models.SiteSettings
	err := s.c.FindOne(ctx, bson.M{}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.SiteSettings{
			SiteName:       models.DefaultSiteName,
			InviteTTLHours: models.DefaultInviteTTLHours,
		}, nil
	}
	if err != nil {
		return models.SiteSettings{}, err
	}
	if settings.InviteTTLHours <= 0 {
		settings.InviteTTLHours = models.DefaultInviteTTLHours
	}
	return settings, nil
}

// Save upserts the settings document.
func (s *Store) Save(ctx context.Context, settings models.SiteSettings) error {
	now := time.Now().UTC()
	settings.UpdatedAt = &now

	update := bson.M{
		"$set": bson.M{
			"site_name":                  settings.SiteName,
			"support_email":              settings.SupportEmail,
			"default_soft_deadline_days": settings.DefaultSoftDeadlineDays,
			"default_hard_deadline_days": settings.DefaultHardDeadlineDays,
			"activity_retention_days":    settings.ActivityRetentionDays,
			"invite_ttl_hours":           settings.InviteTTLHours,
			"updated_at":                 settings.UpdatedAt,
			"updated_by_id":              settings.UpdatedByID,
			"updated_by_name":            settings.UpdatedByName,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{}, update, opts)
	return err
}

// DeadlineDefaults returns the campus-wide fallback deadline offsets,
// read fresh so admin edits apply to the next enrollment.
func (s *Store) DeadlineDefaults(ctx context.Context) (softDays, hardDays int, err error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return 0, 0, err
	}
	return settings.DefaultSoftDeadlineDays, settings.DefaultHardDeadlineDays, nil
}
