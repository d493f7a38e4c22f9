// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents everyone who can sign in: superusers, admins, team
// leads, and doorholders.
//
// NOTE:
//   - A user holds a set of roles, not a single role. The set is never
//     empty; removal of the last role is rejected at the store layer.
//   - Team membership is not embedded on User.
//     Use the team_memberships collection to discover a user's teams.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	AuthMethod string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"`

	// PasswordHash is set only when AuthMethod is "password".
	// Never serialized to clients.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Roles  []string `bson:"roles" json:"roles"` // superuser | admin | team_lead | doorholder
	Active bool     `bson:"active" json:"active"`

	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
	DeactivatedAt *time.Time `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`
}

// HasRole reports whether the user's role set contains role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the user holds every one of the given roles.
func (u *User) HasAllRoles(roles ...string) bool {
	for _, r := range roles {
		if !u.HasRole(r) {
			return false
		}
	}
	return true
}
