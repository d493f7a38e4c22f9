// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/trainhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role set (lowercased), name, Mongo
// ObjectID, and a found flag. If no user is present in context or the
// user ID is malformed, it returns nil, "", NilObjectID, false. This
// ensures callers can trust that ok=true means a valid, authenticated
// user with a valid ObjectID and a non-empty role set.
func UserCtx(r *http.Request) (roles []string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return nil, "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed for security.
		// This should not happen in normal operation; indicates session corruption.
		return nil, "", primitive.NilObjectID, false
	}
	roles = NormalizeRoles(user.Roles)
	if len(roles) == 0 {
		return nil, "", primitive.NilObjectID, false
	}
	return roles, user.Name, userID, true
}

// IsSuperuser reports whether the current request's user holds the
// superuser role.
func IsSuperuser(r *http.Request) bool {
	roles, _, _, ok := UserCtx(r)
	return ok && ContainsRole(roles, RoleSuperuser)
}

// IsAdmin reports whether the current request's user holds the admin
// role. Superusers are also considered admins for permission purposes.
func IsAdmin(r *http.Request) bool {
	roles, _, _, ok := UserCtx(r)
	return ok && (ContainsRole(roles, RoleAdmin) || ContainsRole(roles, RoleSuperuser))
}

// IsTeamLead reports whether the current request's user holds the
// team_lead role on any team.
func IsTeamLead(r *http.Request) bool {
	roles, _, _, ok := UserCtx(r)
	return ok && ContainsRole(roles, RoleTeamLead)
}

// IsDoorholder reports whether the current request's user holds the
// doorholder role.
func IsDoorholder(r *http.Request) bool {
	roles, _, _, ok := UserCtx(r)
	return ok && ContainsRole(roles, RoleDoorholder)
}

// HasAnyRole reports whether the current request's user holds any of
// the given roles. Returns false if no user is present.
func HasAnyRole(r *http.Request, want ...string) bool {
	roles, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, w := range want {
		if ContainsRole(roles, w) {
			return true
		}
	}
	return false
}

// RequestPrimaryRole returns the current user's primary (highest
// priority) role and whether a user is present.
func RequestPrimaryRole(r *http.Request) (string, bool) {
	roles, _, _, ok := UserCtx(r)
	if !ok {
		return "", false
	}
	return PrimaryRole(roles), true
}
