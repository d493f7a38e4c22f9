// Package reportpolicy provides authorization policies for report
// access.
//
// Authorization rules:
//   - Superusers and admins can view reports over every enrollment.
//   - Team leads can view reports scoped to enrollments in courses
//     owned by teams they lead.
//   - Doorholders can view only their own progress and certificates.
package reportpolicy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
)

// Scope represents the slice of enrollment data the actor may see in
// reports. It is computed once per request and threaded into every
// report query.
type Scope struct {
	// CanView indicates whether the actor can view reports at all.
	CanView bool
	// All indicates the actor sees every enrollment (superuser/admin).
	// When false, check TeamIDs or SelfOnly.
	All bool
	// TeamIDs restricts the report to enrollments in courses owned by
	// these teams (team leads).
	TeamIDs []primitive.ObjectID
	// SelfOnly restricts the report to the actor's own records
	// (doorholders). UserID identifies whose records those are.
	SelfOnly bool
	UserID   primitive.ObjectID
}

// ForActor computes the report scope for the actor. Precedence follows
// the role hierarchy: a user who both leads a team and holds admin
// sees everything, and a lead who is also a doorholder gets the wider
// team scope.
func ForActor(a authz.Actor) Scope {
	if a.IsSuperuser() || a.IsAdmin() {
		return Scope{CanView: true, All: true}
	}
	if len(a.TeamsLed) > 0 {
		return Scope{CanView: true, TeamIDs: a.TeamsLed, UserID: a.ID}
	}
	if a.Is(authz.RoleDoorholder) {
		return Scope{CanView: true, SelfOnly: true, UserID: a.ID}
	}
	return Scope{CanView: false}
}

// AllowsUser reports whether enrollments belonging to userID fall
// inside the scope when the enrollment's team is teamID (nil for
// campus courses).
func (s Scope) AllowsUser(userID primitive.ObjectID, teamID *primitive.ObjectID) bool {
	if !s.CanView {
		return false
	}
	if s.All {
		return true
	}
	if s.SelfOnly {
		return s.UserID == userID
	}
	if s.UserID == userID {
		return true
	}
	if teamID == nil {
		return false
	}
	for _, t := range s.TeamIDs {
		if t == *teamID {
			return true
		}
	}
	return false
}
