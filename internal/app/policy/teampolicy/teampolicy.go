// Package teampolicy provides authorization policies for team
// management.
//
// Authorization rules:
//   - Superusers and admins can create teams and manage any team.
//   - Team leads can manage membership of teams they lead but cannot
//     create or delete teams or change the lead set.
//   - Everyone signed in can view the team list; membership detail is
//     restricted to admins and that team's leads.
package teampolicy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
)

// CanCreateTeam reports whether the actor may create a team.
func CanCreateTeam(a authz.Actor) bool {
	return a.IsSuperuser() || a.IsAdmin()
}

// CanManageTeam decides whether the actor may edit the team record
// itself: rename it, change its ministry area, assign or remove leads,
// or deactivate it. Only admins and superusers hold this.
func CanManageTeam(a authz.Actor) error {
	if a.IsSuperuser() || a.IsAdmin() {
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanManageMembers decides whether the actor may add or remove members
// of the given team. Admins and superusers manage any team's roster;
// a team lead manages the roster of teams they lead.
func CanManageMembers(a authz.Actor, teamID primitive.ObjectID) error {
	if a.IsSuperuser() || a.IsAdmin() {
		return nil
	}
	if a.LeadsTeam(teamID) {
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanViewTeam reports whether the actor may see the team's full
// membership roster. memberOf reports whether the actor belongs to the
// team; members may see their own team's roster.
func CanViewTeam(a authz.Actor, teamID primitive.ObjectID, memberOf bool) bool {
	if a.IsSuperuser() || a.IsAdmin() {
		return true
	}
	if a.LeadsTeam(teamID) {
		return true
	}
	return memberOf
}
