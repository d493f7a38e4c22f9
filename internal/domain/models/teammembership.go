// internal/domain/models/teammembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles within a team. A user may hold both on the same team
// (lead who also serves), stored as two membership documents.
const (
	MembershipRoleLead   = "lead"
	MembershipRoleMember = "member"
)

// TeamMembership is the authoritative join between users and teams.
// At most one document per (team_id, user_id, role).
type TeamMembership struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TeamID    primitive.ObjectID  `bson:"team_id" json:"team_id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Role      string              `bson:"role" json:"role"` // "lead" | "member"
	AddedByID *primitive.ObjectID `bson:"added_by_id,omitempty" json:"added_by_id,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// IsValidMembershipRole checks if a value is a valid team membership role.
func IsValidMembershipRole(role string) bool {
	return role == MembershipRoleLead || role == MembershipRoleMember
}
