// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement priorities.
const (
	AnnouncementNormal = "normal"
	AnnouncementHigh   = "high"
	AnnouncementUrgent = "urgent"
)

// Announcement is a message posted to a team or to the whole campus.
// Body holds sanitized HTML.
type Announcement struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title string             `bson:"title" json:"title"`
	Body  string             `bson:"body" json:"body"`

	// TeamID nil means campus-wide.
	TeamID   *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`
	Priority string              `bson:"priority" json:"priority"` // normal | high | urgent

	PublishedAt time.Time  `bson:"published_at" json:"published_at"`
	ExpiresAt   *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`

	CreatedByID   primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	CreatedByName string             `bson:"created_by_name,omitempty" json:"created_by_name,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsValidAnnouncementPriority checks if a value is a valid priority.
func IsValidAnnouncementPriority(p string) bool {
	switch p {
	case AnnouncementNormal, AnnouncementHigh, AnnouncementUrgent:
		return true
	}
	return false
}

// Expired reports whether the announcement has lapsed at the given time.
func (a *Announcement) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}
