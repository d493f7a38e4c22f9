// internal/domain/models/invite.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite is a pending onboarding token. A lead or admin creates the
// invite; the recipient follows the emailed link, sets a password, and
// the account is created with the invite's roles and team.
type Invite struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email   string             `bson:"email" json:"email"`
	EmailCI string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	Token   string             `bson:"token" json:"-"`

	FullName string   `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Roles    []string `bson:"roles" json:"roles"`

	// TeamID, when set, adds the new user as a member of that team on
	// acceptance.
	TeamID *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`

	ExpiresAt  time.Time  `bson:"expires_at" json:"expires_at"`
	AcceptedAt *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`

	CreatedByID   primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	CreatedByName string             `bson:"created_by_name,omitempty" json:"created_by_name,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// Usable reports whether the invite can still be accepted.
func (i *Invite) Usable(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
