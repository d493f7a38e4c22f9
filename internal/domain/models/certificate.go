// internal/domain/models/certificate.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Certificate statuses.
const (
	CertStatusValid   = "valid"
	CertStatusExpired = "expired"
	CertStatusRevoked = "revoked"
)

// Certificate is issued when an enrollment completes in a course whose
// certificate config is enabled.
//
// ExpiresAt is captured from the course config at issuance time and is
// never rewritten when the config changes later. An extend override is
// the only thing that moves it.
type Certificate struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number string             `bson:"number" json:"number"` // CERT-YYYYMMDD-XXXXXXXX

	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	CourseID     primitive.ObjectID `bson:"course_id" json:"course_id"`
	EnrollmentID primitive.ObjectID `bson:"enrollment_id" json:"enrollment_id"`

	Status    string     `bson:"status" json:"status"`
	IssuedAt  time.Time  `bson:"issued_at" json:"issued_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`

	RevokedAt    *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	RevokeReason string     `bson:"revoke_reason,omitempty" json:"revoke_reason,omitempty"`

	// Archived is set when the certified user is deleted; the record is
	// kept for audit.
	Archived   bool       `bson:"archived" json:"archived"`
	ArchivedAt *time.Time `bson:"archived_at,omitempty" json:"archived_at,omitempty"`

	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// EffectiveStatus returns the status as of now, accounting for an
// expiry that has passed but not yet been persisted by the sweep.
// Revoked always wins.
func (c *Certificate) EffectiveStatus(now time.Time) string {
	if c.Status == CertStatusValid && c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return CertStatusExpired
	}
	return c.Status
}

// CurrentlyValid reports whether the certificate counts for compliance
// at the given time.
func (c *Certificate) CurrentlyValid(now time.Time) bool {
	return !c.Archived && c.EffectiveStatus(now) == CertStatusValid
}
