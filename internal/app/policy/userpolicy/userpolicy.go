// Package userpolicy provides authorization policies for user account
// management.
//
// Authorization rules:
//   - Superusers can manage any account.
//   - Admins can manage any account except one holding the superuser role.
//   - Team leads can view members of teams they lead but cannot manage
//     accounts.
//   - Doorholders can view only their own account.
//   - No actor may deactivate, delete, or change the role set of its
//     own account, regardless of role.
package userpolicy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
)

// CanCreateUser reports whether the actor may create new user accounts
// (directly or by sending an invite). Only admins and superusers
// provision accounts.
func CanCreateUser(a authz.Actor) bool {
	return a.IsSuperuser() || a.IsAdmin()
}

// CanViewUser reports whether the actor may view the target user's
// profile. targetTeams are the teams the target belongs to, used for
// the team-lead check.
func CanViewUser(a authz.Actor, targetID primitive.ObjectID, targetTeams []primitive.ObjectID) bool {
	if a.IsSuperuser() || a.IsAdmin() {
		return true
	}
	if a.IsSelf(targetID) {
		return true
	}
	for _, t := range targetTeams {
		if a.LeadsTeam(t) {
			return true
		}
	}
	return false
}

// CanManageUser decides whether the actor may edit the target's
// profile, roles, or active flag. It returns nil when allowed,
// authz.ErrSelfActionForbidden when the self-guard fires, and
// authz.ErrPermissionDenied otherwise.
//
// targetSuperuser marks targets holding the superuser role; admins may
// not touch those. selfGuarded marks the operations an actor may never
// apply to its own account: deactivate, delete, and role-set changes.
// Plain profile edits pass selfGuarded=false.
func CanManageUser(a authz.Actor, targetID primitive.ObjectID, targetSuperuser, selfGuarded bool) error {
	if selfGuarded && a.IsSelf(targetID) {
		return authz.ErrSelfActionForbidden
	}
	if a.IsSuperuser() {
		return nil
	}
	if a.IsAdmin() {
		if targetSuperuser {
			return authz.ErrPermissionDenied
		}
		return nil
	}
	return authz.ErrPermissionDenied
}

// CanListUsers reports whether the actor may list accounts beyond its
// own. Admins and superusers list everyone; team leads list the
// members of teams they lead (the caller scopes the query to
// a.TeamsLed); doorholders cannot list.
func CanListUsers(a authz.Actor) bool {
	return a.IsSuperuser() || a.IsAdmin() || len(a.TeamsLed) > 0
}
