// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettings holds campus-wide configuration that admins can edit.
// There is a single settings document; readers fall back to defaults
// when it does not exist yet.
//
// Deadline defaults are passed explicitly into enrollment calls by the
// handlers that read them. Nothing below the feature layer consults
// this document.
type SiteSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	// Display settings
	SiteName     string `bson:"site_name" json:"site_name"`
	SupportEmail string `bson:"support_email,omitempty" json:"support_email,omitempty"`

	// Timezone is the IANA zone deadlines and reminder emails are
	// presented in. Empty means UTC.
	Timezone string `bson:"timezone,omitempty" json:"timezone,omitempty"`

	// Campus-wide fallback deadline offsets in days, used when neither
	// the enrollment request nor the course sets its own. Zero means no
	// deadline.
	DefaultSoftDeadlineDays int `bson:"default_soft_deadline_days,omitempty" json:"default_soft_deadline_days,omitempty"`
	DefaultHardDeadlineDays int `bson:"default_hard_deadline_days,omitempty" json:"default_hard_deadline_days,omitempty"`

	// ActivityRetentionDays bounds how long raw activity events are
	// kept before the purge job removes them. Zero disables the purge.
	ActivityRetentionDays int `bson:"activity_retention_days,omitempty" json:"activity_retention_days,omitempty"`

	// InviteTTLHours bounds how long an onboarding invite stays usable.
	InviteTTLHours int `bson:"invite_ttl_hours,omitempty" json:"invite_ttl_hours,omitempty"`

	// Audit fields
	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// DefaultSiteName is the default site name used when settings don't exist.
const DefaultSiteName = "TrainHub"

// DefaultInviteTTLHours is used when settings leave InviteTTLHours unset.
const DefaultInviteTTLHours = 72
